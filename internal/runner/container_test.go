package runner

import (
	"testing"
	"time"

	v1 "github.com/instant-io/instant/apis/v1"
	"github.com/instant-io/instant/internal/engine"
	"github.com/instant-io/instant/internal/stats"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildContainer(t *testing.T) {
	t.Run("registry has every archive format", func(t *testing.T) {
		injector := BuildContainer(zap.NewNop(), v1.Config{})

		registry, err := do.Invoke[*engine.Registry](injector)
		require.NoError(t, err)
		assert.Equal(t, []string{"tar", "tar.gz", "tar.zst", "zip"}, registry.AvailableArchivers())
	})

	t.Run("counts in memory without a stats section", func(t *testing.T) {
		injector := BuildContainer(zap.NewNop(), v1.Config{})

		counter, err := do.Invoke[stats.Counter](injector)
		require.NoError(t, err)
		assert.IsType(t, &stats.Memory{}, counter)
	})

	t.Run("invalid redis url", func(t *testing.T) {
		injector := BuildContainer(zap.NewNop(), v1.Config{Stats: &v1.StatsSpec{RedisURL: "not a url"}})

		_, err := do.Invoke[stats.Counter](injector)
		assert.ErrorContains(t, err, "failed to connect stats store")
	})
}

func TestRemoteConfig(t *testing.T) {
	assert.Equal(t, int64(0), RemoteConfig(v1.Config{}).MaxSize)

	timeout := 5
	maxSize := int64(1024)
	cfg := v1.Config{Transfer: v1.TransferSpec{Remote: &v1.RemoteSpec{
		Headers:  map[string]string{"Authorization": "Bearer token"},
		Timeout:  &timeout,
		MaxSize:  &maxSize,
		Insecure: true,
	}}}

	remote := RemoteConfig(cfg)
	assert.Equal(t, 5*time.Second, remote.Timeout)
	assert.Equal(t, int64(1024), remote.MaxSize)
	assert.True(t, remote.Insecure)
	assert.Equal(t, "Bearer token", remote.Headers["Authorization"])
}
