package engine

import (
	"context"
	"io"
)

// Named identifies a component in logs and errors.
type Named interface {
	Name() string
	Kind() string
}

type Closer interface {
	Close(context.Context) error
}

// Sink is where a finished archive is delivered: a directory, a bucket,
// stdout or the server's blob store.
type Sink interface {
	Named
	Closer
	Write(ctx context.Context, path string, data io.Reader) error
}
