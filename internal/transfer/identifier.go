package transfer

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type IdentifierKind int

const (
	KindMagnet IdentifierKind = iota
	KindInfoHash
	KindURL
	KindPath
)

func (k IdentifierKind) String() string {
	switch k {
	case KindMagnet:
		return "magnet"
	case KindInfoHash:
		return "info_hash"
	case KindURL:
		return "url"
	case KindPath:
		return "path"
	default:
		return fmt.Sprintf("IdentifierKind(%d)", int(k))
	}
}

// Identifier is a classified torrent identifier.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

var (
	hexInfoHash    = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)
	base32InfoHash = regexp.MustCompile(`^[a-zA-Z2-7]{32}$`)
)

// ParseIdentifier classifies s as a magnet URI, a hex or base32 info hash,
// an http(s) URL of a .torrent file or a local .torrent path.
func ParseIdentifier(s string) (Identifier, error) {
	s = strings.TrimSpace(s)

	switch {
	case s == "":
		return Identifier{}, fmt.Errorf("%w: empty", ErrUnsupportedIdentifier)
	case strings.HasPrefix(strings.ToLower(s), "magnet:"):
		return Identifier{Kind: KindMagnet, Value: s}, nil
	case hexInfoHash.MatchString(s):
		return Identifier{Kind: KindInfoHash, Value: strings.ToLower(s)}, nil
	case base32InfoHash.MatchString(s):
		return Identifier{Kind: KindInfoHash, Value: strings.ToUpper(s)}, nil
	}

	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return Identifier{Kind: KindURL, Value: s}, nil
	}

	if strings.HasSuffix(strings.ToLower(s), ".torrent") {
		return Identifier{Kind: KindPath, Value: s}, nil
	}

	return Identifier{}, fmt.Errorf("%w: %s", ErrUnsupportedIdentifier, s)
}

// MagnetURI returns the magnet URI for magnet and info hash identifiers.
func (id Identifier) MagnetURI() string {
	switch id.Kind {
	case KindMagnet:
		return id.Value
	case KindInfoHash:
		return "magnet:?xt=urn:btih:" + id.Value
	default:
		return ""
	}
}
