package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

type buildInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"built,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

// build is populated at init() from debug.ReadBuildInfo().
var build = buildInfo{Version: "unknown", GoVersion: "unknown"}

func init() {
	build = readBuildInfo()
}

func readBuildInfo() buildInfo {
	b := buildInfo{Version: "unknown", GoVersion: "unknown"}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}

	b.Version = info.Main.Version
	b.GoVersion = info.GoVersion

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			b.Commit = setting.Value
		case "vcs.time":
			b.BuildTime = setting.Value
		case "vcs.modified":
			b.Modified = setting.Value == "true"
		}
	}

	return b
}

// userAgent identifies instant to trackers and descriptor hosts.
func (b buildInfo) userAgent() string {
	return "instant/" + b.Version
}

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print as JSON",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		if command.Bool("json") {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(build)
		}

		fmt.Printf("version: %s\n", build.Version)
		fmt.Printf("go: %s\n", build.GoVersion)
		if build.Commit != "" {
			if build.Modified {
				fmt.Printf("commit: %s (dirty)\n", build.Commit)
			} else {
				fmt.Printf("commit: %s\n", build.Commit)
			}
		}
		if build.BuildTime != "" {
			fmt.Printf("built: %s\n", build.BuildTime)
		}
		return nil
	},
}
