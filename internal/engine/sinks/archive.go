package sinks

import (
	"context"
	"fmt"
	"io"

	"github.com/instant-io/instant/internal/engine"
)

// ArchiveSink wraps a sink and collects all writes into an archive.
// On Close, it finalizes the archive and writes a single file to the inner sink.
type ArchiveSink struct {
	inner       engine.Sink
	archiver    engine.Archiver
	archiveName string
	closed      bool
}

// NewArchiveSink creates an archive sink delivering "<baseName><extension>" to
// inner. The extension comes from the archiver, so a bundle named "photos"
// becomes "photos.zip" with the zip archiver.
func NewArchiveSink(inner engine.Sink, archiver engine.Archiver, baseName string) *ArchiveSink {
	return &ArchiveSink{
		inner:       inner,
		archiver:    archiver,
		archiveName: baseName + archiver.Extension(),
	}
}

func (s *ArchiveSink) Name() string {
	return fmt.Sprintf("archive(%s)->%s", s.archiveName, s.inner.Name())
}

func (s *ArchiveSink) Kind() string {
	return "archive"
}

// ArchiveName is the file name the finished archive is delivered under.
func (s *ArchiveSink) ArchiveName() string {
	return s.archiveName
}

// Write adds a file to the archive.
func (s *ArchiveSink) Write(ctx context.Context, path string, data io.Reader) error {
	if err := s.archiver.AddFile(ctx, path, data); err != nil {
		return fmt.Errorf("failed to add file to archive: %w", err)
	}
	return nil
}

// Close finalizes the archive and writes it to the inner sink. Only the first
// call delivers anything.
func (s *ArchiveSink) Close(ctx context.Context) error {
	if s.closed {
		return fmt.Errorf("archive %s already delivered", s.archiveName)
	}
	s.closed = true

	reader, err := s.archiver.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}

	if err := s.inner.Write(ctx, s.archiveName, reader); err != nil {
		return fmt.Errorf("failed to write archive to sink: %w", err)
	}

	if err := s.inner.Close(ctx); err != nil {
		return fmt.Errorf("failed to close inner sink: %w", err)
	}

	return nil
}
