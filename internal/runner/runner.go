// Package runner drives transfers from the command line: it wires the
// configured dependencies, downloads a torrent into one archive, and seeds
// local files.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	v1 "github.com/instant-io/instant/apis/v1"
	"github.com/instant-io/instant/internal/bundle"
	"github.com/instant-io/instant/internal/engine"
	"github.com/instant-io/instant/internal/intake"
	"github.com/instant-io/instant/internal/transfer"
	"github.com/instant-io/instant/internal/ui"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultArchiveFormat is used when the configuration names none.
const DefaultArchiveFormat = "zip"

type Runner struct {
	logger    *zap.Logger
	cfg       v1.Config
	manager   *transfer.Manager
	intake    *intake.Intake
	archivers *engine.Registry
	ui        ui.Sink
	fs        afero.Fs
	stdout    io.Writer
}

type Option func(*Runner)

// WithFS sets the filesystem seeded files and local .torrent files are read
// from.
func WithFS(fs afero.Fs) Option {
	return func(r *Runner) {
		r.fs = fs
	}
}

// WithStdout sets where the stdout sink writes.
func WithStdout(w io.Writer) Option {
	return func(r *Runner) {
		r.stdout = w
	}
}

func New(logger *zap.Logger, cfg v1.Config, client transfer.Client, archivers *engine.Registry, sink ui.Sink, opts ...Option) *Runner {
	r := &Runner{
		logger:    logger,
		cfg:       cfg,
		archivers: archivers,
		ui:        sink,
		fs:        afero.NewOsFs(),
		stdout:    os.Stdout,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.manager = transfer.NewManager(client, sink, logger.Named("transfers"),
		transfer.WithRemote(transfer.NewRemote(RemoteConfig(cfg))),
		transfer.WithFS(r.fs),
	)
	r.intake = intake.New(r.manager, sink, logger.Named("intake"))

	return r
}

// FromContainer builds a runner from the dependencies registered by
// BuildContainer.
func FromContainer(injector do.Injector, sink ui.Sink, opts ...Option) (*Runner, error) {
	logger, err := do.Invoke[*zap.Logger](injector)
	if err != nil {
		return nil, err
	}
	cfg, err := do.Invoke[v1.Config](injector)
	if err != nil {
		return nil, err
	}
	registry, err := do.Invoke[*engine.Registry](injector)
	if err != nil {
		return nil, err
	}
	client, err := do.Invoke[transfer.Client](injector)
	if err != nil {
		return nil, fmt.Errorf("failed to create torrent client: %w", err)
	}

	return New(logger.Named("runner"), cfg, client, registry, sink, opts...), nil
}

// Get downloads the torrent named by id and delivers all of its files as one
// archive to the configured sink. id may also be a share link carrying the
// identifier in its fragment.
func (r *Runner) Get(ctx context.Context, id string) (*bundle.Result, error) {
	var (
		started bool
		hash    string
		err     error
	)
	if fragment, ok := intake.FragmentOf(id); ok {
		started, hash, err = r.intake.Fragment(ctx, fragment)
	} else {
		started, hash, err = r.intake.Submit(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if !started {
		return nil, fmt.Errorf("no torrent identifier provided")
	}

	session, err := r.manager.Session(hash)
	if err != nil {
		return nil, err
	}

	logger := r.logger.With(zap.String("info_hash", hash))
	logger.Debug("waiting for torrent metadata")

	select {
	case <-session.Torrent().Ready():
	case <-ctx.Done():
		return nil, fmt.Errorf("cancelled before metadata arrived: %w", ctx.Err())
	}

	b, err := session.Bundle()
	if err != nil {
		return nil, err
	}

	format := DefaultArchiveFormat
	if archive := r.cfg.Output.Archive; archive != nil {
		if archive.Format != "" {
			format = archive.Format
		}
		if archive.Name != "" {
			b.Name = archive.Name
		}
	}

	archiver, err := r.archivers.CreateArchiver(format)
	if err != nil {
		return nil, err
	}

	sink, err := buildSink(ctx, r.cfg.Output, r.stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to build sink: %w", err)
	}

	collector, err := bundle.NewCollector(b, archiver, sink, bundle.WithLogger(logger.Named("bundle")))
	if err != nil {
		return nil, err
	}

	logger.Info("collecting files", zap.Int("files", len(b.Entries)), zap.String("sink", sink.Name()))

	res, err := collector.Collect(ctx, func(e bundle.Entry, err error) {
		r.ui.Error(err)
	})
	if err != nil {
		return nil, err
	}

	r.ui.Log(fmt.Sprintf("Saved %s (%d files, %d failed)", res.Name, len(res.Entries), res.Failed))
	return res, nil
}

// Seed shares the files at paths and keeps seeding until ctx is cancelled.
// .torrent files among them are downloaded instead, like files dropped on
// the page. It returns the info hashes that were started. Seeding goes on
// when only some of the files failed to start.
func (r *Runner) Seed(ctx context.Context, paths []string) ([]string, error) {
	files := make([]intake.File, 0, len(paths))
	for _, p := range paths {
		info, err := r.fs.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", p)
		}

		files = append(files, intake.File{
			Name: filepath.Base(p),
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) {
				return r.fs.Open(p)
			},
		})
	}

	hashes, err := r.intake.Drop(ctx, files)
	if err != nil {
		if len(hashes) == 0 {
			return nil, err
		}
		r.logger.Warn("some files were not started", zap.Error(err))
	}

	r.logger.Info("seeding", zap.Strings("info_hashes", hashes))
	<-ctx.Done()

	return hashes, nil
}

// Close stops every transfer and the torrent client.
func (r *Runner) Close() error {
	return r.manager.Close()
}
