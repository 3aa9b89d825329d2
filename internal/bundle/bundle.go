// Package bundle gathers the files of one transfer into a single archive.
//
// A Collector fetches every entry of a Bundle concurrently and inserts each
// one into the archive as its fetch settles. The archive is finalized and
// delivered exactly once, after every entry has been attempted, whatever the
// completion order. A failed entry is reported through the error callback and
// left out; it never blocks the others.
//
//	c, err := bundle.NewCollector(b, archiver, sink)
//	res, err := c.Collect(ctx, func(e bundle.Entry, err error) {
//	    ui.Error(err)
//	})
//
// Collectors are single use.
package bundle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync/atomic"

	"github.com/instant-io/instant/internal/engine"
	"github.com/instant-io/instant/internal/engine/sinks"
	"go.uber.org/zap"
)

var (
	// ErrEmptyBundle is returned by NewCollector for a bundle without entries.
	ErrEmptyBundle = errors.New("bundle has no entries")

	// ErrAlreadyStarted is returned when Collect is called more than once.
	ErrAlreadyStarted = errors.New("bundle collection already started")
)

// FetchFunc retrieves the content of one entry.
type FetchFunc func(ctx context.Context) (io.ReadCloser, error)

// Entry is one file of a bundle, addressed by its path relative to the bundle.
type Entry struct {
	Path  string
	Fetch FetchFunc
}

// Bundle is the set of files belonging to one transfer. Name is the archive
// base name. Dir is the top-level directory inside the archive for bundles of
// more than one entry; it defaults to Name.
type Bundle struct {
	Name    string
	Dir     string
	Entries []Entry
}

func (b Bundle) dir() string {
	if b.Dir != "" {
		return b.Dir
	}
	return b.Name
}

// ErrorFunc receives every entry that could not be added to the archive.
type ErrorFunc func(entry Entry, err error)

// Result describes a delivered archive.
type Result struct {
	// Name is the file name the archive was delivered under.
	Name string
	// Entries holds the archive paths that were added, in insertion order.
	Entries []string
	// Failed counts entries reported through the ErrorFunc.
	Failed int
}

type Collector struct {
	bundle  Bundle
	out     *sinks.ArchiveSink
	logger  *zap.Logger
	started atomic.Bool
}

type Option func(*Collector)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// NewCollector prepares the collection of b into archiver. The finished
// archive is written to sink as "<b.Name><archiver extension>".
func NewCollector(b Bundle, archiver engine.Archiver, sink engine.Sink, opts ...Option) (*Collector, error) {
	if len(b.Entries) == 0 {
		return nil, ErrEmptyBundle
	}
	if b.Name == "" {
		return nil, fmt.Errorf("bundle name is required")
	}

	c := &Collector{
		bundle: b,
		out:    sinks.NewArchiveSink(sink, archiver, b.Name),
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// ArchiveName is the name the archive will be delivered under.
func (c *Collector) ArchiveName() string {
	return c.out.ArchiveName()
}

type fetched struct {
	index int
	data  []byte
	err   error
}

// Collect fetches all entries concurrently and delivers the archive once the
// last fetch has settled. Entry failures go to onError (which may be nil) and
// do not fail the collection; the returned error only covers finalizing and
// delivering the archive.
func (c *Collector) Collect(ctx context.Context, onError ErrorFunc) (*Result, error) {
	if !c.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	entries := c.bundle.Entries
	logger := c.logger.With(zap.String("bundle", c.bundle.Name), zap.Int("entries", len(entries)))
	logger.Debug("collecting bundle")

	// Buffered so no fetch goroutine outlives its send.
	results := make(chan fetched, len(entries))
	for i, entry := range entries {
		go func() {
			data, err := fetchAll(ctx, entry)
			results <- fetched{index: i, data: data, err: err}
		}()
	}

	res := &Result{Name: c.out.ArchiveName()}

	// Only this goroutine touches the archive.
	for completed := 0; completed < len(entries); completed++ {
		f := <-results
		entry := entries[f.index]

		archivePath, err := c.archivePath(entry)
		if err == nil {
			err = f.err
		}
		if err == nil {
			err = c.out.Write(ctx, archivePath, bytes.NewReader(f.data))
		}

		if err != nil {
			res.Failed++
			logger.Warn("failed to add entry", zap.String("path", entry.Path), zap.Error(err))
			if onError != nil {
				onError(entry, err)
			}
			continue
		}

		res.Entries = append(res.Entries, archivePath)
	}

	if err := c.out.Close(ctx); err != nil {
		return nil, fmt.Errorf("failed to deliver %s: %w", c.out.ArchiveName(), err)
	}

	logger.Info("bundle delivered",
		zap.String("archive", res.Name),
		zap.Int("added", len(res.Entries)),
		zap.Int("failed", res.Failed),
	)

	return res, nil
}

// archivePath places entry at the archive root for single-entry bundles and
// under the bundle directory otherwise.
func (c *Collector) archivePath(entry Entry) (string, error) {
	p := path.Clean("/" + strings.ReplaceAll(entry.Path, `\`, "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return "", fmt.Errorf("entry has an empty path")
	}

	if len(c.bundle.Entries) == 1 {
		return p, nil
	}
	return path.Join(c.bundle.dir(), p), nil
}

func fetchAll(ctx context.Context, entry Entry) ([]byte, error) {
	if entry.Fetch == nil {
		return nil, fmt.Errorf("entry %s has no fetch function", entry.Path)
	}

	rc, err := entry.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", entry.Path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", entry.Path, err)
	}

	return data, nil
}
