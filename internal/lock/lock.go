// Package lock provides short-lived mutual exclusion keyed by string, in-process or across replicas.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Release frees a lock. Calling it more than once is safe.
type Release func(ctx context.Context) error

type Locker interface {
	// TryLock acquires key for at most ttl without waiting. ok is false when someone else holds it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release Release, ok bool, err error)
}

// Acquire polls TryLock until the lock is taken or ctx is done.
func Acquire(ctx context.Context, l Locker, key string, ttl, poll time.Duration) (Release, error) {
	for {
		release, ok, err := l.TryLock(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return release, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(poll):
		}
	}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisLocker(rdb redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: prefix}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Release, bool, error) {
	token, err := randomToken()
	if err != nil {
		return nil, false, err
	}
	fullKey := l.prefix + key
	ok, err := l.rdb.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	var once sync.Once
	release := func(ctx context.Context) error {
		var rerr error
		once.Do(func() {
			if err := releaseScript.Run(ctx, l.rdb, []string{fullKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				rerr = fmt.Errorf("redis unlock %s: %w", key, err)
			}
		})
		return rerr
	}
	return release, true, nil
}

func randomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// LocalLocker is the single-replica fallback used when no redis is configured.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localEntry
	seq   uint64
	clock func() time.Time
}

type localEntry struct {
	id      uint64
	expires time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held:  make(map[string]localEntry),
		clock: time.Now,
	}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (Release, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if entry, ok := l.held[key]; ok && now.Before(entry.expires) {
		return nil, false, nil
	}
	l.seq++
	id := l.seq
	l.held[key] = localEntry{id: id, expires: now.Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if entry, ok := l.held[key]; ok && entry.id == id {
			delete(l.held, key)
		}
		return nil
	}
	return release, true, nil
}
