package session

import (
	"context"
	"sync"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
	gocache "github.com/patrickmn/go-cache"
)

const (
	pendingPrefix = "pending:"
	sessionPrefix = "session:"
)

// MemoryStore is the default single-process driver, backed by go-cache with
// per-item TTLs. Suitable for development and single-node deployments.
type MemoryStore struct {
	cache *gocache.Cache

	mu sync.Mutex // serialises read-modify-write of pending attempts
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 5*time.Minute),
	}
}

func (s *MemoryStore) CreatePending(_ context.Context, handle string, p domain.PendingAuthentication) error {
	s.cache.Set(pendingPrefix+handle, p, time.Until(p.ExpiresAt))
	return nil
}

func (s *MemoryStore) GetPending(_ context.Context, handle string) (domain.PendingAuthentication, error) {
	v, ok := s.cache.Get(pendingPrefix + handle)
	if !ok {
		return domain.PendingAuthentication{}, ErrNotFound
	}
	return v.(domain.PendingAuthentication), nil
}

func (s *MemoryStore) IncrementPendingAttempts(ctx context.Context, handle string) (domain.PendingAuthentication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.GetPending(ctx, handle)
	if err != nil {
		return domain.PendingAuthentication{}, err
	}

	p.Attempts++
	s.cache.Set(pendingPrefix+handle, p, time.Until(p.ExpiresAt))
	return p, nil
}

func (s *MemoryStore) DeletePending(_ context.Context, handle string) error {
	s.cache.Delete(pendingPrefix + handle)
	return nil
}

func (s *MemoryStore) CreateSession(_ context.Context, handle string, sess domain.Session) error {
	s.cache.Set(sessionPrefix+handle, sess, time.Until(sess.ExpiresAt))
	return nil
}

func (s *MemoryStore) GetSession(_ context.Context, handle string) (domain.Session, error) {
	v, ok := s.cache.Get(sessionPrefix + handle)
	if !ok {
		return domain.Session{}, ErrNotFound
	}
	return v.(domain.Session), nil
}

func (s *MemoryStore) DeleteSession(_ context.Context, handle string) error {
	s.cache.Delete(sessionPrefix + handle)
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
