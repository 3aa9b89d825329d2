package torrent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	atorrent "github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/instant-io/instant/internal/transfer"
	"github.com/samber/lo"
)

type Torrent struct {
	t *atorrent.Torrent
}

var _ transfer.Torrent = (*Torrent)(nil)

func (t *Torrent) Name() string {
	return t.t.Name()
}

func (t *Torrent) InfoHash() string {
	return t.t.InfoHash().HexString()
}

func (t *Torrent) MagnetURI() string {
	var trackers []string
	mi := t.t.Metainfo()
	for _, tier := range mi.UpvertedAnnounceList() {
		trackers = append(trackers, tier...)
	}

	m := metainfo.Magnet{
		InfoHash:    t.t.InfoHash(),
		DisplayName: t.t.Name(),
		Trackers:    lo.Uniq(trackers),
	}
	return m.String()
}

func (t *Torrent) Ready() <-chan struct{} {
	return t.t.GotInfo()
}

func (t *Torrent) Descriptor() ([]byte, error) {
	if t.t.Info() == nil {
		return nil, transfer.ErrNotReady
	}

	mi := t.t.Metainfo()
	var buf bytes.Buffer
	if err := mi.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode torrent file: %w", err)
	}
	return buf.Bytes(), nil
}

func (t *Torrent) Files() []transfer.File {
	return lo.Map(t.t.Files(), func(f *atorrent.File, _ int) transfer.File {
		return &File{f: f}
	})
}

func (t *Torrent) Stats() transfer.Stats {
	s := t.t.Stats()
	stats := transfer.Stats{
		Peers:      s.ActivePeers,
		Downloaded: s.BytesReadData.Int64(),
		Uploaded:   s.BytesWrittenData.Int64(),
	}
	if t.t.Info() != nil {
		stats.Completed = t.t.BytesCompleted()
		stats.Length = t.t.Length()
	}
	return stats
}

type File struct {
	f *atorrent.File
}

func (f *File) Name() string {
	return path.Base(f.f.DisplayPath())
}

// Path is relative to the torrent directory for multi-file torrents and the
// torrent name for single-file ones.
func (f *File) Path() string {
	return f.f.DisplayPath()
}

func (f *File) Length() int64 {
	return f.f.Length()
}

// Open returns a reader that waits for pieces as it goes. Cancelling ctx
// closes it.
func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	r := f.f.NewReader()
	stop := context.AfterFunc(ctx, func() {
		r.Close()
	})
	return &fileReader{Reader: r, stop: stop}, nil
}

type fileReader struct {
	atorrent.Reader
	stop func() bool
}

func (r *fileReader) Close() error {
	r.stop()
	return r.Reader.Close()
}
