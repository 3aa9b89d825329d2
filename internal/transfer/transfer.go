// Package transfer drives peer-to-peer transfers for the rest of the
// application. The protocol itself lives behind Client; this package keeps
// track of the running transfers, reports their progress to a ui.Sink and
// hands their files to the bundle collector.
package transfer

import (
	"context"
	"errors"
	"io"

	"github.com/instant-io/instant/internal/intake"
)

var (
	ErrUnknownTransfer       = errors.New("unknown transfer")
	ErrUnknownFile           = errors.New("unknown file")
	ErrUnsupportedIdentifier = errors.New("invalid torrent identifier")
	ErrArchiveInProgress     = errors.New("archive already in progress")
	ErrNotReady              = errors.New("transfer metadata not available yet")
)

// Client is a peer-to-peer transfer client.
type Client interface {
	// Add joins the swarm of the torrent named by a magnet URI.
	Add(ctx context.Context, magnetURI string) (Torrent, error)
	// AddDescriptor joins the swarm described by a .torrent file.
	AddDescriptor(ctx context.Context, r io.Reader) (Torrent, error)
	// Seed creates a new torrent named name out of files and seeds it.
	Seed(ctx context.Context, name string, files []intake.File) (Torrent, error)
	Close() error
}

// Torrent is one transfer known to a Client.
type Torrent interface {
	Name() string
	InfoHash() string
	MagnetURI() string
	// Ready is closed once the torrent metadata (name, files) is known.
	Ready() <-chan struct{}
	// Descriptor returns the bencoded .torrent file.
	Descriptor() ([]byte, error)
	Files() []File
	Stats() Stats
}

// File is one file of a torrent.
type File interface {
	Name() string
	// Path is relative to the torrent directory, '/' separated. It never
	// starts with the torrent name, except for single-file torrents where it
	// is the name.
	Path() string
	Length() int64
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Stats is a snapshot of a torrent's counters. Downloaded and Uploaded are
// cumulative payload bytes.
type Stats struct {
	Peers      int
	Completed  int64
	Length     int64
	Downloaded int64
	Uploaded   int64
}

func (s Stats) Done() bool {
	return s.Length > 0 && s.Completed >= s.Length
}

// Progress is the completed fraction in [0, 1].
func (s Stats) Progress() float64 {
	if s.Length <= 0 {
		return 0
	}
	return min(float64(s.Completed)/float64(s.Length), 1)
}
