package archivers

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/instant-io/instant/internal/engine"
	"github.com/klauspost/compress/zstd"
)

// CompressionType defines supported compression algorithms.
type CompressionType string

const (
	CompressionGzip CompressionType = "gzip"
	CompressionZstd CompressionType = "zstd"
	CompressionNone CompressionType = "none"
)

// TarArchiver creates tar archives with optional compression.
type TarArchiver struct {
	buf         *bytes.Buffer
	compressor  io.WriteCloser
	tarWriter   *tar.Writer
	compression CompressionType
	modified    time.Time
	closed      bool
}

// NewTarArchiver creates a new tar archiver with the specified compression.
// Supported compression types: "gzip", "zstd", "none".
// If compression is empty, defaults to "gzip".
func NewTarArchiver(compression string) (engine.Archiver, error) {
	ct := CompressionType(compression)
	if ct == "" {
		ct = CompressionGzip
	}

	buf := new(bytes.Buffer)
	var compressor io.WriteCloser
	var err error

	switch ct {
	case CompressionGzip:
		compressor = gzip.NewWriter(buf)
	case CompressionZstd:
		compressor, err = zstd.NewWriter(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
	case CompressionNone:
		compressor = &nopWriteCloser{buf}
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", compression)
	}

	return &TarArchiver{
		buf:         buf,
		compressor:  compressor,
		tarWriter:   tar.NewWriter(compressor),
		compression: ct,
		modified:    time.Now(),
	}, nil
}

// AddFile adds a file to the tar archive. Tar headers carry the entry size:
// readers that report their length are streamed, anything else is buffered
// first.
func (a *TarArchiver) AddFile(ctx context.Context, filename string, data io.Reader) error {
	if a.closed {
		return fmt.Errorf("archiver is closed")
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	sized, ok := data.(interface{ Len() int })
	if !ok {
		content, err := io.ReadAll(data)
		if err != nil {
			return fmt.Errorf("failed to read file data: %w", err)
		}
		buffered := bytes.NewReader(content)
		data, sized = buffered, buffered
	}

	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     filename,
		Mode:     0644,
		Size:     int64(sized.Len()),
		ModTime:  a.modified,
	}

	if err := a.tarWriter.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", filename, err)
	}

	if _, err := io.Copy(a.tarWriter, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}

	return nil
}

// Close finalizes the tar archive and returns a reader for the complete archive data.
func (a *TarArchiver) Close() (io.Reader, error) {
	if a.closed {
		return nil, fmt.Errorf("archiver already closed")
	}
	a.closed = true

	if err := a.tarWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close tar writer: %w", err)
	}

	if err := a.compressor.Close(); err != nil {
		return nil, fmt.Errorf("failed to close compressor: %w", err)
	}

	return bytes.NewReader(a.buf.Bytes()), nil
}

// Extension returns the file extension for this archive type.
func (a *TarArchiver) Extension() string {
	switch a.compression {
	case CompressionGzip:
		return ".tar.gz"
	case CompressionZstd:
		return ".tar.zst"
	default:
		return ".tar"
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (n *nopWriteCloser) Close() error {
	return nil
}
