package transfer

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/instant-io/instant/internal/intake"
	"github.com/instant-io/instant/internal/ui"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, client *fakeClient, opts ...ManagerOption) (*Manager, *ui.HTMLLog) {
	t.Helper()
	log := ui.NewHTMLLog(0)
	m := NewManager(client, log, zap.NewNop(), append([]ManagerOption{WithStatusInterval(10 * time.Millisecond)}, opts...)...)
	t.Cleanup(func() {
		if !client.closed {
			m.Close()
		}
	})
	return m, log
}

func TestManager_StartTransfer(t *testing.T) {
	t.Run("info hash", func(t *testing.T) {
		client := &fakeClient{torrent: sintel()}
		m, log := newTestManager(t, client)

		hash, err := m.StartTransfer(t.Context(), "08ada5a7a6183aae1e09d831df6748d566095a10")
		require.NoError(t, err)
		assert.Equal(t, "08ada5a7a6183aae1e09d831df6748d566095a10", hash)
		assert.Equal(t, []string{"magnet:?xt=urn:btih:08ada5a7a6183aae1e09d831df6748d566095a10"}, client.magnets)
		assert.Equal(t, "Downloading torrent from 08ada5a7a6183aae1e09d831df6748d566095a10", string(log.Lines()[0].HTML))

		s, err := m.Session(hash)
		require.NoError(t, err)
		assert.Same(t, client.torrent, s.Torrent())
	})

	t.Run("url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "descriptor-bytes")
		}))
		t.Cleanup(srv.Close)

		client := &fakeClient{torrent: sintel()}
		m, _ := newTestManager(t, client, WithRemote(NewRemote(RemoteConfig{}, WithHTTPClient(srv.Client()))))

		_, err := m.StartTransfer(t.Context(), srv.URL+"/sintel.torrent")
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("descriptor-bytes")}, client.descriptors)
	})

	t.Run("local path", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/tmp/sintel.torrent", []byte("local"), 0o644))

		client := &fakeClient{torrent: sintel()}
		m, _ := newTestManager(t, client, WithFS(fs))

		_, err := m.StartTransfer(t.Context(), "/tmp/sintel.torrent")
		require.NoError(t, err)
		assert.Equal(t, [][]byte{[]byte("local")}, client.descriptors)

		_, err = m.StartTransfer(t.Context(), "/tmp/missing.torrent")
		assert.Error(t, err)
	})

	t.Run("invalid identifier", func(t *testing.T) {
		client := &fakeClient{torrent: sintel()}
		m, _ := newTestManager(t, client)

		_, err := m.StartTransfer(t.Context(), "not a torrent")
		assert.ErrorIs(t, err, ErrUnsupportedIdentifier)
		assert.Empty(t, client.magnets)
		assert.Empty(t, m.Sessions())
	})

	t.Run("duplicate keeps one session", func(t *testing.T) {
		client := &fakeClient{torrent: sintel()}
		m, _ := newTestManager(t, client)

		_, err := m.StartTransfer(t.Context(), "08ada5a7a6183aae1e09d831df6748d566095a10")
		require.NoError(t, err)
		_, err = m.StartTransfer(t.Context(), "magnet:?xt=urn:btih:08ada5a7a6183aae1e09d831df6748d566095a10")
		require.NoError(t, err)

		assert.Len(t, m.Sessions(), 1)
	})
}

func TestManager_StartTransferFromDescriptor(t *testing.T) {
	client := &fakeClient{torrent: sintel()}
	m, log := newTestManager(t, client)

	_, err := m.StartTransferFromDescriptor(t.Context(), intake.File{
		Name: "<b>sintel</b>.torrent",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("dropped")), nil
		},
	})
	require.NoError(t, err)

	assert.Equal(t, [][]byte{[]byte("dropped")}, client.descriptors)
	assert.Equal(t, "Downloading torrent from <strong>&lt;b&gt;sintel&lt;/b&gt;.torrent</strong>", string(log.Lines()[0].HTML))
}

func TestManager_Share(t *testing.T) {
	client := &fakeClient{torrent: sintel()}
	m, log := newTestManager(t, client)
	m.now = func() time.Time { return time.UnixMilli(1700000000000) }

	files := []intake.File{{Name: "a.txt"}, {Name: "b.txt"}}
	_, err := m.Share(t.Context(), files)
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{"Unnamed Torrent 1700000000000": {"a.txt", "b.txt"}}, client.seeds)
	assert.Equal(t, "Seeding 2 files", string(log.Lines()[0].HTML))

	_, err = m.Share(t.Context(), files[:1])
	require.NoError(t, err)
	assert.Contains(t, client.seeds, "a.txt")

	_, err = m.Share(t.Context(), nil)
	assert.Error(t, err)
}

func TestManager_SessionLifecycle(t *testing.T) {
	client := &fakeClient{torrent: sintel()}
	m, log := newTestManager(t, client)

	hash, err := m.StartTransfer(t.Context(), "08ada5a7a6183aae1e09d831df6748d566095a10")
	require.NoError(t, err)

	_, err = m.Session("deadbeef")
	assert.ErrorIs(t, err, ErrUnknownTransfer)

	client.torrent.markReady()
	require.Eventually(t, func() bool {
		_, ok := log.Status(hash)
		return ok
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Close())
	assert.True(t, client.closed)
}
