package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/instant-io/instant/internal/engine"
	"go.uber.org/zap"
)

// Blob is a finished archive waiting to be downloaded.
type Blob struct {
	Name    string
	Data    []byte
	Created time.Time
}

// BlobStore keeps finished archives in memory under random tokens. Each
// token is revoked a fixed time after it was issued.
type BlobStore struct {
	ttl    time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	blobs  map[string]*Blob
	timers map[string]*time.Timer
	now    func() time.Time
}

func NewBlobStore(ttl time.Duration, logger *zap.Logger) *BlobStore {
	return &BlobStore{
		ttl:    ttl,
		logger: logger,
		blobs:  make(map[string]*Blob),
		timers: make(map[string]*time.Timer),
		now:    time.Now,
	}
}

// Put stores data and returns its token.
func (s *BlobStore) Put(name string, data []byte) string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[token] = &Blob{Name: name, Data: data, Created: s.now()}
	s.timers[token] = time.AfterFunc(s.ttl, func() {
		s.Revoke(token)
	})

	s.logger.Debug("blob stored", zap.String("token", token), zap.String("name", name), zap.Int("size", len(data)))
	return token
}

func (s *BlobStore) Get(token string) (*Blob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[token]
	return b, ok
}

// Revoke drops the blob behind token. Revoking twice is a no-op.
func (s *BlobStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[token]; ok {
		t.Stop()
		delete(s.timers, token)
	}
	if _, ok := s.blobs[token]; ok {
		delete(s.blobs, token)
		s.logger.Debug("blob revoked", zap.String("token", token))
	}
}

func (s *BlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// Close revokes every blob.
func (s *BlobStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, t := range s.timers {
		t.Stop()
		delete(s.timers, token)
	}
	clear(s.blobs)
}

// blobSink delivers one archive into a BlobStore and remembers its token.
type blobSink struct {
	store *BlobStore
	token string
	name  string
}

var _ engine.Sink = (*blobSink)(nil)

func (s *blobSink) Name() string {
	return "blob"
}

func (s *blobSink) Kind() string {
	return "blob"
}

func (s *blobSink) Write(ctx context.Context, name string, r io.Reader) error {
	if s.token != "" {
		return fmt.Errorf("blob sink already holds %s", s.name)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("failed to buffer %s: %w", name, err)
	}

	s.token = s.store.Put(name, buf.Bytes())
	s.name = name
	return nil
}

func (s *blobSink) Close(ctx context.Context) error {
	return nil
}
