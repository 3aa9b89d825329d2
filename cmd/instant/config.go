package main

import (
	v1 "github.com/instant-io/instant/apis/v1"
	"github.com/instant-io/instant/internal/config"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (YAML or JSON)",
			Sources: cli.EnvVars("INSTANT_CONFIG"),
		},
		&cli.StringSliceFlag{
			Name:  "allowed-env",
			Usage: "Environment variables allowed in the configuration (can be repeated)",
		},
	}
}

func loadConfig(command *cli.Command) (v1.Config, error) {
	cfg, err := config.Load(command.String("config"), command.StringSlice("allowed-env"))
	if err != nil {
		return v1.Config{}, err
	}

	// Configured headers win over the build's User-Agent.
	if cfg.Transfer.Remote == nil {
		cfg.Transfer.Remote = &v1.RemoteSpec{}
	}
	cfg.Transfer.Remote.Headers = lo.Assign(
		map[string]string{"User-Agent": build.userAgent()},
		cfg.Transfer.Remote.Headers,
	)

	return cfg, nil
}
