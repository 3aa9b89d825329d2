package main

import (
	"context"
	"os"

	"github.com/instant-io/instant/internal/ui"
	"golang.org/x/term"
)

type interactiveCtxKeyType struct{}

var interactiveCtxKey = interactiveCtxKeyType{}

// isInteractiveEnvironment reports whether status lines can be redrawn in
// place: not under CI, and stderr is a terminal.
func isInteractiveEnvironment() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func withInteractive(ctx context.Context, interactive bool) context.Context {
	return context.WithValue(ctx, interactiveCtxKey, interactive)
}

func isInteractive(ctx context.Context) bool {
	interactive, ok := ctx.Value(interactiveCtxKey).(bool)
	return ok && interactive
}

// consoleSink reports transfers through the logger. Interactive terminals get
// their status lines redrawn in place on stderr.
func consoleSink(ctx context.Context) *ui.Console {
	logger := getLogger(ctx).Named("ui")
	if isInteractive(ctx) {
		return ui.NewConsole(logger, os.Stderr)
	}
	return ui.NewConsole(logger, nil)
}

// endStatusLine moves past the last redrawn status line.
func endStatusLine(ctx context.Context) {
	if isInteractive(ctx) {
		os.Stderr.WriteString("\n")
	}
}
