package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares pending-auth and session state across instances.
// Records are stored as JSON with the remaining TTL applied on write.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) set(ctx context.Context, key string, v any, expiresAt time.Time) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil // already expired, nothing to store
	}
	return s.client.Set(ctx, key, raw, ttl).Err()
}

func (s *RedisStore) get(ctx context.Context, key string, v any) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (s *RedisStore) CreatePending(ctx context.Context, handle string, p domain.PendingAuthentication) error {
	return s.set(ctx, pendingPrefix+handle, p, p.ExpiresAt)
}

func (s *RedisStore) GetPending(ctx context.Context, handle string) (domain.PendingAuthentication, error) {
	var p domain.PendingAuthentication
	if err := s.get(ctx, pendingPrefix+handle, &p); err != nil {
		return domain.PendingAuthentication{}, err
	}
	return p, nil
}

func (s *RedisStore) IncrementPendingAttempts(ctx context.Context, handle string) (domain.PendingAuthentication, error) {
	p, err := s.GetPending(ctx, handle)
	if err != nil {
		return domain.PendingAuthentication{}, err
	}

	p.Attempts++
	if err := s.set(ctx, pendingPrefix+handle, p, p.ExpiresAt); err != nil {
		return domain.PendingAuthentication{}, err
	}
	return p, nil
}

func (s *RedisStore) DeletePending(ctx context.Context, handle string) error {
	return s.client.Del(ctx, pendingPrefix+handle).Err()
}

func (s *RedisStore) CreateSession(ctx context.Context, handle string, sess domain.Session) error {
	return s.set(ctx, sessionPrefix+handle, sess, sess.ExpiresAt)
}

func (s *RedisStore) GetSession(ctx context.Context, handle string) (domain.Session, error) {
	var sess domain.Session
	if err := s.get(ctx, sessionPrefix+handle, &sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

func (s *RedisStore) DeleteSession(ctx context.Context, handle string) error {
	return s.client.Del(ctx, sessionPrefix+handle).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
