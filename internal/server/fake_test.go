package server

import (
	"bytes"
	"context"
	"io"
	"path"
	"sync"

	"github.com/instant-io/instant/internal/intake"
	"github.com/instant-io/instant/internal/transfer"
)

type fakeFile struct {
	path string
	data []byte
}

func (f *fakeFile) Name() string  { return path.Base(f.path) }
func (f *fakeFile) Path() string  { return f.path }
func (f *fakeFile) Length() int64 { return int64(len(f.data)) }

func (f *fakeFile) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type fakeTorrent struct {
	name  string
	hash  string
	ready chan struct{}
	files []transfer.File
}

func (t *fakeTorrent) Name() string                { return t.name }
func (t *fakeTorrent) InfoHash() string            { return t.hash }
func (t *fakeTorrent) MagnetURI() string           { return "magnet:?xt=urn:btih:" + t.hash }
func (t *fakeTorrent) Ready() <-chan struct{}      { return t.ready }
func (t *fakeTorrent) Descriptor() ([]byte, error) { return []byte("d8:announce0:e"), nil }
func (t *fakeTorrent) Files() []transfer.File      { return t.files }
func (t *fakeTorrent) Stats() transfer.Stats       { return transfer.Stats{Peers: 1, Length: 10, Completed: 5} }

type fakeClient struct {
	mu          sync.Mutex
	magnets     []string
	descriptors int
	seeded      [][]string
	torrent     *fakeTorrent
}

func (c *fakeClient) Add(_ context.Context, uri string) (transfer.Torrent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.magnets = append(c.magnets, uri)
	return c.torrent, nil
}

func (c *fakeClient) AddDescriptor(_ context.Context, r io.Reader) (transfer.Torrent, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descriptors++
	return c.torrent, nil
}

func (c *fakeClient) Seed(_ context.Context, name string, files []intake.File) (transfer.Torrent, error) {
	var names []string
	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		rc.Close()
		names = append(names, f.Name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seeded = append(c.seeded, names)
	return c.torrent, nil
}

func (c *fakeClient) Close() error { return nil }
