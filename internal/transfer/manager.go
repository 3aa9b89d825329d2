package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/instant-io/instant/internal/intake"
	"github.com/instant-io/instant/internal/ui"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Manager starts transfers on a Client and keeps one Session per torrent.
// It implements intake.Dispatcher.
type Manager struct {
	client   Client
	remote   *Remote
	fs       afero.Fs
	ui       ui.Sink
	logger   *zap.Logger
	links    Links
	interval time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ intake.Dispatcher = (*Manager)(nil)

type ManagerOption func(*Manager)

func WithRemote(remote *Remote) ManagerOption {
	return func(m *Manager) {
		m.remote = remote
	}
}

// WithFS sets the filesystem local .torrent paths are read from.
func WithFS(fs afero.Fs) ManagerOption {
	return func(m *Manager) {
		m.fs = fs
	}
}

func WithLinks(links Links) ManagerOption {
	return func(m *Manager) {
		m.links = links
	}
}

func WithStatusInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.interval = interval
	}
}

func NewManager(client Client, sink ui.Sink, logger *zap.Logger, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		client:   client,
		fs:       afero.NewOsFs(),
		ui:       sink,
		logger:   logger,
		interval: DefaultStatusInterval,
		now:      time.Now,
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.remote == nil {
		m.remote = NewRemote(RemoteConfig{})
	}

	return m
}

// StartTransfer starts downloading the torrent named by id.
func (m *Manager) StartTransfer(ctx context.Context, id string) (string, error) {
	m.ui.Log("Downloading torrent from " + id)

	ident, err := ParseIdentifier(id)
	if err != nil {
		return "", err
	}

	logger := m.logger.With(zap.Stringer("kind", ident.Kind), zap.String("identifier", ident.Value))
	logger.Debug("starting transfer")

	var t Torrent
	switch ident.Kind {
	case KindMagnet, KindInfoHash:
		t, err = m.client.Add(ctx, ident.MagnetURI())
	case KindURL:
		var data []byte
		data, err = m.remote.Fetch(ctx, ident.Value)
		if err == nil {
			t, err = m.client.AddDescriptor(ctx, bytes.NewReader(data))
		}
	case KindPath:
		var data []byte
		data, err = afero.ReadFile(m.fs, ident.Value)
		if err == nil {
			t, err = m.client.AddDescriptor(ctx, bytes.NewReader(data))
		}
	}
	if err != nil {
		return "", fmt.Errorf("failed to add torrent: %w", err)
	}

	return m.register(t), nil
}

// StartTransferFromDescriptor starts downloading the torrent described by a
// dropped .torrent file.
func (m *Manager) StartTransferFromDescriptor(ctx context.Context, descriptor intake.File) (string, error) {
	m.ui.LogHTML(template.HTML("Downloading torrent from <strong>" + ui.Escape(descriptor.Name) + "</strong>"))

	rc, err := descriptor.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", descriptor.Name, err)
	}
	defer rc.Close()

	t, err := m.client.AddDescriptor(ctx, rc)
	if err != nil {
		return "", fmt.Errorf("failed to add torrent: %w", err)
	}

	return m.register(t), nil
}

// Share seeds files as one new torrent.
func (m *Manager) Share(ctx context.Context, files []intake.File) (string, error) {
	if len(files) == 0 {
		return "", errors.New("no files to share")
	}

	m.ui.Log(fmt.Sprintf("Seeding %d files", len(files)))

	t, err := m.client.Seed(ctx, m.seedName(files), files)
	if err != nil {
		return "", fmt.Errorf("failed to seed: %w", err)
	}

	return m.register(t), nil
}

// seedName names a new torrent after its only file, or generically for a
// set of files.
func (m *Manager) seedName(files []intake.File) string {
	if len(files) == 1 {
		return files[0].Name
	}
	return fmt.Sprintf("Unnamed Torrent %d", m.now().UnixMilli())
}

func (m *Manager) register(t Torrent) string {
	hash := t.InfoHash()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[hash]; ok {
		m.logger.Debug("transfer already running", zap.String("info_hash", hash))
		return hash
	}

	s := newSession(t, m.ui, m.logger.Named("session"), m.links)
	s.now = m.now
	m.sessions[hash] = s
	m.order = append(m.order, hash)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.run(m.ctx, m.interval)
	}()

	return hash
}

// Session returns the session for an info hash.
func (m *Manager) Session(hash string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[hash]
	if !ok {
		return nil, fmt.Errorf("%s: %w", hash, ErrUnknownTransfer)
	}
	return s, nil
}

// Sessions returns all sessions in the order they were started.
func (m *Manager) Sessions() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.order))
	for _, hash := range m.order {
		out = append(out, m.sessions[hash])
	}
	return out
}

// Close stops all status refreshes and closes the client.
func (m *Manager) Close() error {
	m.cancel()
	m.wg.Wait()
	return m.client.Close()
}
