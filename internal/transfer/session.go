package transfer

import (
	"context"
	"fmt"
	"html/template"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/instant-io/instant/internal/bundle"
	"github.com/instant-io/instant/internal/engine"
	"github.com/instant-io/instant/internal/ui"
	"go.uber.org/zap"
)

// DefaultStatusInterval is how often a session refreshes its status line.
const DefaultStatusInterval = 5 * time.Second

// Links builds the URLs a session advertises in the log.
type Links struct {
	Base         string
	ArchiveLabel string
}

func (l Links) share(hash string) string {
	return l.Base + "/#" + hash
}

func (l Links) descriptor(hash string) string {
	return fmt.Sprintf("%s/api/transfers/%s/descriptor", l.Base, hash)
}

func (l Links) file(hash string, index int) string {
	return fmt.Sprintf("%s/api/transfers/%s/files/%d", l.Base, hash, index)
}

func (l Links) archive(hash string) string {
	return fmt.Sprintf("%s/api/transfers/%s/archive", l.Base, hash)
}

// Session follows one torrent: it announces its contents once the metadata
// is known and keeps its status line current.
type Session struct {
	torrent Torrent
	ui      ui.Sink
	logger  *zap.Logger
	links   Links
	now     func() time.Time

	meter     Meter
	mu        sync.RWMutex
	announced bool
	archiving atomic.Bool
}

func newSession(t Torrent, sink ui.Sink, logger *zap.Logger, links Links) *Session {
	return &Session{
		torrent: t,
		ui:      sink,
		logger:  logger.With(zap.String("info_hash", t.InfoHash())),
		links:   links,
		now:     time.Now,
	}
}

func (s *Session) Torrent() Torrent {
	return s.torrent
}

func (s *Session) InfoHash() string {
	return s.torrent.InfoHash()
}

// IsReady reports whether the torrent metadata is known.
func (s *Session) IsReady() bool {
	select {
	case <-s.torrent.Ready():
		return true
	default:
		return false
	}
}

// baseName is the torrent name without its extension, the stem of the
// descriptor and archive file names.
func (s *Session) baseName() string {
	name := s.torrent.Name()
	if base := strings.TrimSuffix(name, path.Ext(name)); base != "" {
		return base
	}
	return name
}

// DescriptorName is the file name the .torrent file is offered under.
func (s *Session) DescriptorName() string {
	return s.baseName() + ".torrent"
}

// run waits for the metadata, announces the torrent and refreshes the status
// line every interval until ctx is done.
func (s *Session) run(ctx context.Context, interval time.Duration) {
	select {
	case <-ctx.Done():
		return
	case <-s.torrent.Ready():
	}

	s.announce()
	s.Refresh()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh()
		}
	}
}

func (s *Session) announce() {
	s.mu.Lock()
	if s.announced {
		s.mu.Unlock()
		return
	}
	s.announced = true
	s.mu.Unlock()

	hash := s.torrent.InfoHash()
	files := s.torrent.Files()

	s.ui.Log(fmt.Sprintf("\"%s\" contains %d files:", s.DescriptorName(), len(files)))
	for _, f := range files {
		s.ui.LogHTML(template.HTML("&nbsp;&nbsp;- " + ui.Escape(f.Name()) + " (" + ui.Escape(ui.MetricBytes(float64(f.Length()))) + ")"))
	}

	s.ui.Log("Torrent info hash: " + hash)
	s.ui.LogHTML(template.HTML(
		`<a href="` + ui.Escape(s.links.share(hash)) + `" onclick="prompt('Share this link with anyone you want to download this torrent:', this.href);return false;">[Share link]</a> ` +
			`<a href="` + ui.Escape(s.torrent.MagnetURI()) + `" target="_blank">[Magnet URI]</a> ` +
			`<a href="` + ui.Escape(s.links.descriptor(hash)) + `" target="_blank" download="` + ui.Escape(s.DescriptorName()) + `">[Download .torrent]</a>`,
	))

	for i, f := range files {
		s.ui.LogHTML(template.HTML(
			`<a href="` + ui.Escape(s.links.file(hash, i)) + `" target="_blank" download="` + ui.Escape(f.Name()) + `">Download ` + ui.Escape(f.Name()) + `</a>`,
		))
	}

	label := s.links.ArchiveLabel
	if label == "" {
		label = "zip"
	}
	s.ui.LogHTML(template.HTML(
		`<a href="` + ui.Escape(s.links.archive(hash)) + `" target="_blank">Download all files as ` + ui.Escape(label) + `</a>`,
	))

	s.logger.Info("torrent ready", zap.String("name", s.torrent.Name()), zap.Int("files", len(files)))
}

// Refresh samples the torrent counters and publishes a new status line.
func (s *Session) Refresh() template.HTML {
	stats := s.torrent.Stats()
	line := StatusLine(stats, s.meter.Sample(s.now(), stats))
	s.ui.UpdateStatus(s.torrent.InfoHash(), line)
	return line
}

// Bundle maps the torrent files to a bundle named after the torrent. Files
// are wrapped in a directory carrying the full torrent name.
func (s *Session) Bundle() (bundle.Bundle, error) {
	if !s.IsReady() {
		return bundle.Bundle{}, ErrNotReady
	}

	files := s.torrent.Files()
	b := bundle.Bundle{
		Name:    s.baseName(),
		Dir:     s.torrent.Name(),
		Entries: make([]bundle.Entry, 0, len(files)),
	}
	for _, f := range files {
		b.Entries = append(b.Entries, bundle.Entry{Path: f.Path(), Fetch: f.Open})
	}
	return b, nil
}

// File returns the file at index.
func (s *Session) File(index int) (File, error) {
	if !s.IsReady() {
		return nil, ErrNotReady
	}
	files := s.torrent.Files()
	if index < 0 || index >= len(files) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFile, index)
	}
	return files[index], nil
}

// ArchiveName is the file name Archive delivers under for archiver.
func (s *Session) ArchiveName(archiver engine.Archiver) string {
	return s.baseName() + archiver.Extension()
}

// Archive collects every file of the torrent into archiver and delivers the
// result to sink. Only one archive per session runs at a time; a concurrent
// call returns ErrArchiveInProgress.
func (s *Session) Archive(ctx context.Context, archiver engine.Archiver, sink engine.Sink, onError bundle.ErrorFunc) (*bundle.Result, error) {
	b, err := s.Bundle()
	if err != nil {
		return nil, err
	}

	if !s.archiving.CompareAndSwap(false, true) {
		return nil, ErrArchiveInProgress
	}
	defer s.archiving.Store(false)

	collector, err := bundle.NewCollector(b, archiver, sink, bundle.WithLogger(s.logger.Named("bundle")))
	if err != nil {
		return nil, err
	}

	return collector.Collect(ctx, func(e bundle.Entry, err error) {
		s.ui.Error(err)
		if onError != nil {
			onError(e, err)
		}
	})
}

// FileInfo describes one file of a session for API consumers.
type FileInfo struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Length int64  `json:"length"`
}

// Info is a JSON snapshot of a session.
type Info struct {
	InfoHash  string        `json:"info_hash"`
	Name      string        `json:"name,omitempty"`
	MagnetURI string        `json:"magnet_uri"`
	Ready     bool          `json:"ready"`
	Peers     int           `json:"peers"`
	Progress  float64       `json:"progress"`
	Done      bool          `json:"done"`
	Status    template.HTML `json:"status,omitempty"`
	Files     []FileInfo    `json:"files,omitempty"`
}

func (s *Session) Info() Info {
	stats := s.torrent.Stats()
	info := Info{
		InfoHash:  s.torrent.InfoHash(),
		MagnetURI: s.torrent.MagnetURI(),
		Ready:     s.IsReady(),
		Peers:     stats.Peers,
		Progress:  stats.Progress(),
		Done:      stats.Done(),
	}
	if !info.Ready {
		return info
	}

	info.Name = s.torrent.Name()
	for i, f := range s.torrent.Files() {
		info.Files = append(info.Files, FileInfo{Index: i, Name: f.Name(), Path: f.Path(), Length: f.Length()})
	}
	return info
}
