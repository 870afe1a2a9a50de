package sync

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const syncSlotKey = "product_sync:slot"

// SlotLease guards the single-running-sync invariant. Acquire resolves
// concurrent InitSync calls to exactly one winner; the naive
// query-then-insert check alone leaves a race window.
type SlotLease interface {
	Acquire(ctx context.Context, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, token string) error
}

// RedisSlotLease backs the slot with a redis SETNX key so the invariant
// holds across multiple service instances.
type RedisSlotLease struct {
	client *redis.Client
}

func NewRedisSlotLease(client *redis.Client) *RedisSlotLease {
	return &RedisSlotLease{client: client}
}

func (l *RedisSlotLease) Acquire(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, syncSlotKey, token, ttl).Result()
}

func (l *RedisSlotLease) Release(ctx context.Context, token string) error {
	current, err := l.client.Get(ctx, syncSlotKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if current != token {
		return nil
	}
	return l.client.Del(ctx, syncSlotKey).Err()
}

// MemorySlotLease is the single-instance fallback used when no redis is
// configured.
type MemorySlotLease struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewMemorySlotLease() *MemorySlotLease {
	return &MemorySlotLease{}
}

func (l *MemorySlotLease) Acquire(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.token != "" && time.Now().Before(l.expiresAt) {
		return false, nil
	}
	l.token = token
	l.expiresAt = time.Now().Add(ttl)
	return true, nil
}

func (l *MemorySlotLease) Release(ctx context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.token == token {
		l.token = ""
		l.expiresAt = time.Time{}
	}
	return nil
}
