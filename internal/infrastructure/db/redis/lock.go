package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/accounthq/accounts-api/internal/core/ports"
)

const defaultLockTTL = 5 * time.Second

// ErrLockHeld reports that another caller currently holds one of the
// requested keys.
var ErrLockHeld = errors.New("lock already held")

// KeyLock serializes uniqueness check-then-write sequences across service
// replicas with SETNX-style locks. Key format: lock:account:<key>.
//
// The lock is best-effort: entries expire after the TTL so a crashed holder
// cannot wedge the keys, and the storage-level unique constraints remain the
// authoritative backstop.
type KeyLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewKeyLock wraps the given Redis client. A non-positive ttl falls back to
// defaultLockTTL.
func NewKeyLock(client *redis.Client, ttl time.Duration) *KeyLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &KeyLock{client: client, ttl: ttl}
}

// Lock acquires all keys or none. Keys are taken in sorted order so two
// callers contending on overlapping key sets cannot deadlock. On contention
// it fails fast rather than blocking; the caller falls through to the unique
// constraints.
func (l *KeyLock) Lock(ctx context.Context, keys ...string) (ports.UnlockFunc, error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	acquired := make([]string, 0, len(sorted))
	release := func() {
		for _, k := range acquired {
			_ = l.client.Del(context.Background(), k).Err()
		}
	}

	for _, k := range sorted {
		key := l.key(k)
		ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
		if err != nil {
			release()
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if !ok {
			release()
			return nil, fmt.Errorf("lock %s: %w", key, ErrLockHeld)
		}
		acquired = append(acquired, key)
	}
	return release, nil
}

func (l *KeyLock) key(k string) string {
	return "lock:account:" + k
}
