package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockArchiver struct {
	ext string
}

func (m *mockArchiver) AddFile(context.Context, string, io.Reader) error { return nil }
func (m *mockArchiver) Close() (io.Reader, error)                      { return strings.NewReader(""), nil }
func (m *mockArchiver) Extension() string                              { return m.ext }

func TestRegistry_CreateArchiver(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	t.Run("registered format returns a fresh archiver", func(t *testing.T) {
		calls := 0
		registry.RegisterArchiver("mock", func() (Archiver, error) {
			calls++
			return &mockArchiver{ext: ".mock"}, nil
		})

		first, err := registry.CreateArchiver("mock")
		require.NoError(t, err)
		second, err := registry.CreateArchiver("mock")
		require.NoError(t, err)

		assert.Equal(t, ".mock", first.Extension())
		assert.NotSame(t, first, second)
		assert.Equal(t, 2, calls)
	})

	t.Run("factory error is wrapped", func(t *testing.T) {
		registry.RegisterArchiver("broken", func() (Archiver, error) {
			return nil, errors.New("boom")
		})

		archiver, err := registry.CreateArchiver("broken")
		require.Error(t, err)
		assert.Nil(t, archiver)
		assert.ErrorContains(t, err, "broken")
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("unknown format returns UnsupportedTypeError", func(t *testing.T) {
		archiver, err := registry.CreateArchiver("rar")
		require.Error(t, err)
		assert.Nil(t, archiver)

		var unsupported *UnsupportedTypeError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, "archiver", unsupported.Category)
		assert.Equal(t, "rar", unsupported.Kind)
		assert.Equal(t, []string{"broken", "mock"}, unsupported.Available)
	})
}

func TestRegistry_Factory(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	registry.RegisterArchiver("mock", func() (Archiver, error) {
		return &mockArchiver{ext: ".mock"}, nil
	})

	factory, err := registry.Factory("mock")
	require.NoError(t, err)

	archiver, err := factory()
	require.NoError(t, err)
	assert.Equal(t, ".mock", archiver.Extension())

	_, err = registry.Factory("nope")
	var unsupported *UnsupportedTypeError
	assert.ErrorAs(t, err, &unsupported)
}

func TestUnsupportedTypeError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *UnsupportedTypeError
		expected string
	}{
		{
			name:     "nothing registered",
			err:      &UnsupportedTypeError{Category: "archiver", Kind: "zip"},
			expected: `unsupported archiver type "zip": no archivers registered`,
		},
		{
			name:     "lists available formats",
			err:      &UnsupportedTypeError{Category: "archiver", Kind: "rar", Available: []string{"tar", "zip"}},
			expected: `unsupported archiver type "rar" (available: [tar zip])`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestRegistry_AvailableArchiversSorted(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	for _, format := range []string{"zip", "tar.gz", "tar"} {
		registry.RegisterArchiver(format, func() (Archiver, error) { return &mockArchiver{}, nil })
	}

	assert.Equal(t, []string{"tar", "tar.gz", "zip"}, registry.AvailableArchivers())
}
