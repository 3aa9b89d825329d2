package transfer

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemote_Fetch(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		switch r.URL.Path {
		case "/sintel.torrent":
			w.Write([]byte("d4:infod4:name6:sintelee"))
		case "/huge.torrent":
			w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	remote := NewRemote(RemoteConfig{
		Headers: map[string]string{"X-Token": "abc"},
		MaxSize: 32,
	}, WithHTTPClient(srv.Client()))

	t.Run("downloads with merged headers", func(t *testing.T) {
		data, err := remote.Fetch(t.Context(), srv.URL+"/sintel.torrent")
		require.NoError(t, err)
		assert.Equal(t, "d4:infod4:name6:sintelee", string(data))
		assert.Equal(t, "abc", gotHeaders.Get("X-Token"))
		assert.Equal(t, "instant/0.1.0", gotHeaders.Get("User-Agent"))
	})

	t.Run("non-2xx status", func(t *testing.T) {
		_, err := remote.Fetch(t.Context(), srv.URL+"/missing.torrent")
		require.Error(t, err)
		assert.ErrorContains(t, err, "unexpected status 404")
	})

	t.Run("size limit", func(t *testing.T) {
		_, err := remote.Fetch(t.Context(), srv.URL+"/huge.torrent")
		require.Error(t, err)
		assert.ErrorContains(t, err, "exceeds 32 bytes")
	})
}

func TestNewRemote_Defaults(t *testing.T) {
	remote := NewRemote(RemoteConfig{Insecure: true})

	assert.Equal(t, DefaultRemoteTimeout, remote.httpClient.Timeout)
	assert.Equal(t, int64(DefaultMaxDescriptorSize), remote.maxSize)

	transport, ok := remote.httpClient.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
}
