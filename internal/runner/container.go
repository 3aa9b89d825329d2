package runner

import (
	"context"
	"fmt"
	"time"

	v1 "github.com/instant-io/instant/apis/v1"
	"github.com/instant-io/instant/internal/engine"
	"github.com/instant-io/instant/internal/engine/archivers"
	"github.com/instant-io/instant/internal/stats"
	"github.com/instant-io/instant/internal/transfer"
	"github.com/instant-io/instant/internal/transfer/torrent"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// BuildContainer creates a new DI container with all dependencies registered.
// Dependencies are lazily initialized when first requested.
func BuildContainer(logger *zap.Logger, cfg v1.Config) *do.RootScope {
	injector := do.New()

	// Register logger and configuration (eager - already created)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, cfg)

	do.Provide(injector, func(i do.Injector) (*engine.Registry, error) {
		log := do.MustInvoke[*zap.Logger](i)
		return BuildRegistry(log.Named("registry")), nil
	})

	// Register torrent client (lazy - opens the peer port when first used)
	do.Provide(injector, func(i do.Injector) (transfer.Client, error) {
		log := do.MustInvoke[*zap.Logger](i)
		cfg := do.MustInvoke[v1.Config](i)
		return torrent.New(torrent.Config{
			DataDir:    cfg.Transfer.DataDir,
			ListenPort: cfg.Transfer.ListenPort,
			Seed:       true,
			NoUpload:   cfg.Transfer.NoUpload,
			Trackers:   cfg.Transfer.Trackers,
		}, log.Named("torrent"))
	})

	do.Provide(injector, func(i do.Injector) (stats.Counter, error) {
		cfg := do.MustInvoke[v1.Config](i)
		if cfg.Stats == nil {
			return stats.NewMemory(), nil
		}

		counter, err := stats.NewRedis(context.Background(), cfg.Stats.RedisURL, cfg.Stats.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to connect stats store: %w", err)
		}
		return counter, nil
	})

	return injector
}

// BuildRegistry creates a new registry with all archivers registered.
func BuildRegistry(logger *zap.Logger) *engine.Registry {
	registry := engine.NewRegistry(logger)
	archivers.Register(registry)
	return registry
}

// RemoteConfig translates the remote section of cfg.
func RemoteConfig(cfg v1.Config) transfer.RemoteConfig {
	spec := cfg.Transfer.Remote
	if spec == nil {
		return transfer.RemoteConfig{}
	}

	remote := transfer.RemoteConfig{
		Headers:  spec.Headers,
		Insecure: spec.Insecure,
	}
	if spec.Timeout != nil {
		remote.Timeout = time.Duration(*spec.Timeout) * time.Second
	}
	if spec.MaxSize != nil {
		remote.MaxSize = *spec.MaxSize
	}
	return remote
}
