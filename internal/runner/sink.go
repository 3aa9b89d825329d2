package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	v1 "github.com/instant-io/instant/apis/v1"
	"github.com/instant-io/instant/internal/engine"
	"github.com/instant-io/instant/internal/engine/sinks"
)

// buildSink creates the sink the bundle archive is delivered to.
//
// Default behavior:
//   - No sink specified: filesystem sink in the working directory
//   - Explicit stdout sink: the archive is streamed to stdout
//   - Explicit filesystem sink: filesystem sink
//   - Explicit s3 sink: S3 sink
func buildSink(ctx context.Context, output v1.OutputSpec, stdout io.Writer) (engine.Sink, error) {
	if output.Sink == nil {
		return buildFilesystemSink(nil)
	}

	switch {
	case output.Sink.Stdout != nil:
		return sinks.NewStreamSink(stdout), nil
	case output.Sink.Filesystem != nil:
		return buildFilesystemSink(output.Sink.Filesystem)
	case output.Sink.S3 != nil:
		return buildS3Sink(ctx, output.Sink.S3)
	}

	return nil, fmt.Errorf("invalid sink configuration: no sink type specified")
}

func buildFilesystemSink(spec *v1.FilesystemSinkSpec) (engine.Sink, error) {
	var path string
	var prefix string

	if spec != nil {
		if spec.Path != nil {
			path = *spec.Path
		}
		if spec.Prefix != nil {
			prefix = *spec.Prefix
		}
	}

	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = wd
	}

	return sinks.NewFilesystemSinkFromPath(filepath.Join(path, prefix))
}

func buildS3Sink(ctx context.Context, spec *v1.S3SinkSpec) (engine.Sink, error) {
	cfg := sinks.S3Config{
		Bucket:         spec.Bucket,
		ForcePathStyle: spec.ForcePathStyle,
	}

	if spec.Region != nil {
		cfg.Region = *spec.Region
	}

	if spec.Endpoint != nil {
		cfg.Endpoint = *spec.Endpoint
	}

	if spec.Prefix != nil {
		cfg.Prefix = *spec.Prefix
	}

	if spec.Credentials != nil {
		cfg.AccessKeyID = spec.Credentials.AccessKeyID
		cfg.SecretAccessKey = spec.Credentials.SecretAccessKey
	}

	sink, err := sinks.NewS3Sink(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 sink: %w", err)
	}

	return sink, nil
}
