package main

import (
	"context"
	"fmt"

	v1 "github.com/instant-io/instant/apis/v1"
	"github.com/instant-io/instant/internal/runner"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var getCommand = &cli.Command{
	Name:  "get",
	Usage: "Download a torrent and save all of its files as one archive",
	Flags: append(configFlags(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Archive format (zip, tar, tar.gz, tar.zst)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Directory to save the archive in",
		},
		&cli.BoolFlag{
			Name:  "stdout",
			Usage: "Write the archive to stdout",
		},
	),
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "torrent",
			UsageText: "Magnet link, info hash, share link, .torrent URL or path",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		id := command.StringArg("torrent")
		if id == "" {
			return fmt.Errorf("no torrent provided")
		}

		cfg, err := loadConfig(command)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyOutputFlags(command, &cfg)

		r, err := runner.FromContainer(runner.BuildContainer(logger, cfg), consoleSink(ctx))
		if err != nil {
			return err
		}
		defer func() {
			if err := r.Close(); err != nil {
				logger.Warn("failed to close runner", zap.Error(err))
			}
		}()

		res, err := r.Get(ctx, id)
		endStatusLine(ctx)
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", id, err)
		}

		if res.Failed > 0 {
			return fmt.Errorf("%d of %d files could not be saved", res.Failed, res.Failed+len(res.Entries))
		}
		return nil
	},
}

// applyOutputFlags lets flags override the output section of the
// configuration file.
func applyOutputFlags(command *cli.Command, cfg *v1.Config) {
	if command.IsSet("format") {
		if cfg.Output.Archive == nil {
			cfg.Output.Archive = &v1.ArchiveSpec{}
		}
		cfg.Output.Archive.Format = command.String("format")
	}

	switch {
	case command.Bool("stdout"):
		cfg.Output.Sink = &v1.SinkSpec{Stdout: &v1.StdoutSinkSpec{}}
	case command.IsSet("output"):
		path := command.String("output")
		cfg.Output.Sink = &v1.SinkSpec{Filesystem: &v1.FilesystemSinkSpec{Path: &path}}
	}
}
