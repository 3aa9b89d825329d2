package archivers

import (
	"testing"

	"github.com/instant-io/instant/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegister(t *testing.T) {
	registry := engine.NewRegistry(zap.NewNop())
	Register(registry)

	assert.Equal(t, []string{FormatTar, FormatTarGz, FormatTarZst, FormatZip}, registry.AvailableArchivers())

	tests := map[string]string{
		FormatZip:    ".zip",
		FormatTar:    ".tar",
		FormatTarGz:  ".tar.gz",
		FormatTarZst: ".tar.zst",
	}
	for format, ext := range tests {
		t.Run(format, func(t *testing.T) {
			archiver, err := registry.CreateArchiver(format)
			require.NoError(t, err)
			assert.Equal(t, ext, archiver.Extension())
		})
	}
}
