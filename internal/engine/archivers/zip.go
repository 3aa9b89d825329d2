package archivers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/instant-io/instant/internal/engine"
	"github.com/klauspost/compress/zip"
)

// ZipArchiver builds a deflate-compressed ZIP archive in memory.
type ZipArchiver struct {
	buf       *bytes.Buffer
	zipWriter *zip.Writer
	modified  time.Time
	closed    bool
}

// NewZipArchiver creates a new ZIP archiver. Every entry is stamped with the
// archiver's creation time.
func NewZipArchiver() (engine.Archiver, error) {
	buf := new(bytes.Buffer)
	return &ZipArchiver{
		buf:       buf,
		zipWriter: zip.NewWriter(buf),
		modified:  time.Now(),
	}, nil
}

// AddFile adds a file to the ZIP archive.
func (a *ZipArchiver) AddFile(ctx context.Context, filename string, data io.Reader) error {
	if a.closed {
		return fmt.Errorf("archiver is closed")
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	header := &zip.FileHeader{
		Name:     filename,
		Method:   zip.Deflate,
		Modified: a.modified,
	}
	header.SetMode(0644)

	entry, err := a.zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry %s: %w", filename, err)
	}

	if _, err := io.Copy(entry, data); err != nil {
		return fmt.Errorf("failed to write zip content: %w", err)
	}

	return nil
}

// Close writes the central directory and returns a reader over the archive.
func (a *ZipArchiver) Close() (io.Reader, error) {
	if a.closed {
		return nil, fmt.Errorf("archiver already closed")
	}
	a.closed = true

	if err := a.zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zip writer: %w", err)
	}

	return bytes.NewReader(a.buf.Bytes()), nil
}

func (a *ZipArchiver) Extension() string {
	return ".zip"
}
