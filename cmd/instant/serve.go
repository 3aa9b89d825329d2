package main

import (
	"context"
	"fmt"
	"strconv"

	v1 "github.com/instant-io/instant/apis/v1"
	"github.com/instant-io/instant/internal/config"
	"github.com/instant-io/instant/internal/engine"
	"github.com/instant-io/instant/internal/runner"
	"github.com/instant-io/instant/internal/server"
	"github.com/instant-io/instant/internal/stats"
	"github.com/instant-io/instant/internal/transfer"
	"github.com/instant-io/instant/internal/ui"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Serve the web app",
	Flags: append(configFlags(),
		&cli.StringFlag{
			Name:    "host",
			Usage:   "Address to listen on",
			Sources: cli.EnvVars("INSTANT_HOST"),
		},
		&cli.StringFlag{
			Name:    "static",
			Usage:   "Directory holding the browser assets",
			Sources: cli.EnvVars("INSTANT_STATIC_DIR"),
		},
		&cli.BoolFlag{
			Name:    "production",
			Usage:   "Send production-only headers such as HSTS",
			Sources: cli.EnvVars("INSTANT_PRODUCTION"),
		},
	),
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "port",
			UsageText: "Port to listen on (default 8080)",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		cfg, err := loadConfig(command)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyServeFlags(command, &cfg)

		injector := runner.BuildContainer(logger, cfg)

		client, err := do.Invoke[transfer.Client](injector)
		if err != nil {
			return fmt.Errorf("failed to create torrent client: %w", err)
		}
		counter, err := do.Invoke[stats.Counter](injector)
		if err != nil {
			return err
		}
		defer counter.Close()
		registry := do.MustInvoke[*engine.Registry](injector)

		log := ui.NewHTMLLog(cfg.Server.LogLines)
		sink := ui.Multi{log, ui.NewConsole(logger.Named("ui"), nil)}

		manager := transfer.NewManager(client, sink, logger.Named("transfers"),
			transfer.WithRemote(transfer.NewRemote(runner.RemoteConfig(cfg))),
		)
		defer func() {
			if err := manager.Close(); err != nil {
				logger.Warn("failed to close transfers", zap.Error(err))
			}
		}()

		srv, err := server.New(serverConfig(cfg), manager, log, registry, logger.Named("server"),
			server.WithCounter(counter),
			server.WithSink(sink),
		)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		return srv.Run(ctx)
	},
}

// applyServeFlags lets flags and the port argument override the
// configuration file.
func applyServeFlags(command *cli.Command, cfg *v1.Config) {
	if port := parsePort(command.StringArg("port")); port != 0 {
		cfg.Server.Port = port
	}
	if command.IsSet("host") {
		cfg.Server.Host = command.String("host")
	}
	if command.IsSet("static") {
		cfg.Server.StaticDir = command.String("static")
	}
	if command.IsSet("production") {
		cfg.Server.Production = command.Bool("production")
	}
}

// parsePort returns 0 for anything that is not a usable port number, which
// selects the default.
func parsePort(s string) int {
	port, err := strconv.Atoi(s)
	if err != nil || port <= 0 || port > 65535 {
		return 0
	}
	return port
}

func serverConfig(cfg v1.Config) server.Config {
	sc := server.Config{
		Host:       cfg.Server.Host,
		Port:       cfg.Server.Port,
		Production: cfg.Server.Production,
		BlobTTL:    config.BlobTTL(cfg),
	}
	if cfg.Server.MaxUploadSize != nil {
		sc.MaxUploadSize = *cfg.Server.MaxUploadSize
	}
	if cfg.Output.Archive != nil {
		sc.ArchiveFormat = cfg.Output.Archive.Format
	}

	// Without compiled assets the server renders its own pages.
	if cfg.Server.StaticDir != "" {
		sc.StaticFS = afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), cfg.Server.StaticDir))
	} else {
		sc.Templates = true
	}
	if t := cfg.Server.Templates; t != nil {
		sc.Templates = sc.Templates || t.Enabled
		sc.DescriptionPath = t.Description
	}

	return sc
}
