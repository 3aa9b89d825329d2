package transfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sync"

	"github.com/instant-io/instant/internal/intake"
)

// fakeFile.path is relative to the torrent directory, as torrent.File reports it.
type fakeFile struct {
	path string
	data []byte
	err  error
}

func (f *fakeFile) Name() string  { return path.Base(f.path) }
func (f *fakeFile) Path() string  { return f.path }
func (f *fakeFile) Length() int64 { return int64(len(f.data)) }
func (f *fakeFile) Open(ctx context.Context) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type fakeTorrent struct {
	name  string
	hash  string
	ready chan struct{}
	files []File

	mu    sync.Mutex
	stats Stats
}

func newFakeTorrent(name, hash string, files ...File) *fakeTorrent {
	return &fakeTorrent{name: name, hash: hash, ready: make(chan struct{}), files: files}
}

func (t *fakeTorrent) Name() string                { return t.name }
func (t *fakeTorrent) InfoHash() string            { return t.hash }
func (t *fakeTorrent) MagnetURI() string           { return "magnet:?xt=urn:btih:" + t.hash }
func (t *fakeTorrent) Ready() <-chan struct{}      { return t.ready }
func (t *fakeTorrent) Descriptor() ([]byte, error) { return []byte("d4:infod4:name" + t.name + "ee"), nil }
func (t *fakeTorrent) Files() []File               { return t.files }

func (t *fakeTorrent) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

func (t *fakeTorrent) setStats(s Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = s
}

func (t *fakeTorrent) markReady() { close(t.ready) }

type fakeClient struct {
	mu          sync.Mutex
	magnets     []string
	descriptors [][]byte
	seeds       map[string][]string
	torrent     *fakeTorrent
	err         error
	closed      bool
}

func (c *fakeClient) Add(_ context.Context, uri string) (Torrent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.magnets = append(c.magnets, uri)
	if c.err != nil {
		return nil, c.err
	}
	return c.torrent, nil
}

func (c *fakeClient) AddDescriptor(_ context.Context, r io.Reader) (Torrent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.descriptors = append(c.descriptors, data)
	if c.err != nil {
		return nil, c.err
	}
	return c.torrent, nil
}

func (c *fakeClient) Seed(_ context.Context, name string, files []intake.File) (Torrent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seeds == nil {
		c.seeds = make(map[string][]string)
	}
	for _, f := range files {
		c.seeds[name] = append(c.seeds[name], f.Name)
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.torrent, nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed twice")
	}
	c.closed = true
	return nil
}
