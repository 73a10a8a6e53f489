package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when no live session record exists for a key.
var ErrSessionNotFound = errors.New("session not found")

// RedisSessionRepository persists raw session records in Redis.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository constructs a Redis-backed session repository.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

// Save stores the payload under key with the given TTL.
func (r *RedisSessionRepository) Save(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Load fetches the raw payload stored under key.
func (r *RedisSessionRepository) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, nil
}

// Delete removes the record. Deleting a missing key is not an error.
func (r *RedisSessionRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

type memorySession struct {
	payload   []byte
	expiresAt time.Time
}

func (m memorySession) expired(now time.Time) bool {
	return !m.expiresAt.IsZero() && !now.Before(m.expiresAt)
}

// MemorySessionRepository keeps session records in process memory. It is used
// when Redis is disabled.
type MemorySessionRepository struct {
	mu      sync.Mutex
	records map[string]memorySession
	now     func() time.Time
}

// NewMemorySessionRepository constructs an empty in-memory session repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{records: make(map[string]memorySession), now: time.Now}
}

// Save stores a copy of payload under key. A non-positive TTL never expires.
// Expired records are swept on every save.
func (r *MemorySessionRepository) Save(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := r.now()
	rec := memorySession{payload: append([]byte(nil), payload...)}
	if ttl > 0 {
		rec.expiresAt = now.Add(ttl)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, existing := range r.records {
		if existing.expired(now) {
			delete(r.records, k)
		}
	}
	r.records[key] = rec
	return nil
}

// Load fetches the payload stored under key, dropping it when expired.
func (r *MemorySessionRepository) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if rec.expired(r.now()) {
		delete(r.records, key)
		return nil, ErrSessionNotFound
	}
	return append([]byte(nil), rec.payload...), nil
}

// Delete removes the record if present.
func (r *MemorySessionRepository) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.records, key)
	r.mu.Unlock()
	return nil
}
