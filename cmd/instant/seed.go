package main

import (
	"context"
	"fmt"

	"github.com/instant-io/instant/internal/runner"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var seedCommand = &cli.Command{
	Name:      "seed",
	Usage:     "Share local files until interrupted",
	ArgsUsage: "FILE...",
	Flags:     configFlags(),
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		paths := command.Args().Slice()
		if len(paths) == 0 {
			return fmt.Errorf("no files provided")
		}

		cfg, err := loadConfig(command)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		r, err := runner.FromContainer(runner.BuildContainer(logger, cfg), consoleSink(ctx))
		if err != nil {
			return err
		}
		defer func() {
			if err := r.Close(); err != nil {
				logger.Warn("failed to close runner", zap.Error(err))
			}
		}()

		hashes, err := r.Seed(ctx, paths)
		endStatusLine(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		}

		logger.Info("stopped seeding", zap.Strings("info_hashes", hashes))
		return nil
	},
}
