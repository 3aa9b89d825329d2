package engine

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// UnsupportedTypeError is returned when an archive format is not registered.
type UnsupportedTypeError struct {
	Category  string   // "archiver"
	Kind      string   // the requested format
	Available []string // registered formats
}

func (e *UnsupportedTypeError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unsupported %s type %q: no %ss registered", e.Category, e.Kind, e.Category)
	}
	return fmt.Sprintf("unsupported %s type %q (available: %v)", e.Category, e.Kind, e.Available)
}

// Registry maps archive format names ("zip", "tar.gz", ...) to factories.
type Registry struct {
	mu        sync.RWMutex
	archivers map[string]ArchiverFactory
	logger    *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		archivers: make(map[string]ArchiverFactory),
		logger:    logger,
	}
}

func (r *Registry) RegisterArchiver(format string, factory ArchiverFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archivers[format] = factory
}

// CreateArchiver returns a new archiver for format.
func (r *Registry) CreateArchiver(format string) (Archiver, error) {
	r.mu.RLock()
	factory, ok := r.archivers[format]
	available := r.availableArchivers()
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedTypeError{Category: "archiver", Kind: format, Available: available}
	}

	archiver, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create %s archiver: %w", format, err)
	}

	r.logger.Debug("created archiver", zap.String("format", format))
	return archiver, nil
}

// Factory returns the factory registered for format, bound to this registry.
func (r *Registry) Factory(format string) (ArchiverFactory, error) {
	r.mu.RLock()
	_, ok := r.archivers[format]
	available := r.availableArchivers()
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedTypeError{Category: "archiver", Kind: format, Available: available}
	}

	return func() (Archiver, error) {
		return r.CreateArchiver(format)
	}, nil
}

func (r *Registry) AvailableArchivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableArchivers()
}

func (r *Registry) availableArchivers() []string {
	formats := lo.Keys(r.archivers)
	slices.Sort(formats)
	return formats
}
