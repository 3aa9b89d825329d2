package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Identifier
		magnet   string
	}{
		{
			name:     "magnet",
			input:    "magnet:?xt=urn:btih:6a9759bffd5c0af65319979fb7832189f4f3c35d&dn=sintel",
			expected: Identifier{Kind: KindMagnet, Value: "magnet:?xt=urn:btih:6a9759bffd5c0af65319979fb7832189f4f3c35d&dn=sintel"},
			magnet:   "magnet:?xt=urn:btih:6a9759bffd5c0af65319979fb7832189f4f3c35d&dn=sintel",
		},
		{
			name:     "hex info hash",
			input:    " 6A9759BFFD5C0AF65319979FB7832189F4F3C35D ",
			expected: Identifier{Kind: KindInfoHash, Value: "6a9759bffd5c0af65319979fb7832189f4f3c35d"},
			magnet:   "magnet:?xt=urn:btih:6a9759bffd5c0af65319979fb7832189f4f3c35d",
		},
		{
			name:     "base32 info hash",
			input:    "nkl5tp75lqfpmuyzte73xaziftz4hrj5",
			expected: Identifier{Kind: KindInfoHash, Value: "NKL5TP75LQFPMUYZTE73XAZIFTZ4HRJ5"},
			magnet:   "magnet:?xt=urn:btih:NKL5TP75LQFPMUYZTE73XAZIFTZ4HRJ5",
		},
		{
			name:     "https url",
			input:    "https://webtorrent.io/torrents/sintel.torrent",
			expected: Identifier{Kind: KindURL, Value: "https://webtorrent.io/torrents/sintel.torrent"},
		},
		{
			name:     "local path",
			input:    "./downloads/Sintel.TORRENT",
			expected: Identifier{Kind: KindPath, Value: "./downloads/Sintel.TORRENT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseIdentifier(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
			assert.Equal(t, tt.magnet, id.MagnetURI())
		})
	}
}

func TestParseIdentifier_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "hello world", "ftp://example.com/a", "6a9759bffd"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseIdentifier(input)
			assert.ErrorIs(t, err, ErrUnsupportedIdentifier)
		})
	}
}

func TestIdentifierKind_String(t *testing.T) {
	assert.Equal(t, "magnet", KindMagnet.String())
	assert.Equal(t, "path", KindPath.String())
	assert.Equal(t, "IdentifierKind(9)", IdentifierKind(9).String())
}
