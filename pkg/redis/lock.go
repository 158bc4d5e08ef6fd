package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker hands out short-lived exclusive locks keyed by name.
// With Redis disabled the locks are process-local.
// ⭐ SSOT: 그룹핑 단위 동시 실행 방지는 여기서만
type Locker struct {
	client *Client
	prefix string

	mu    sync.Mutex
	local map[string]localLock
}

type localLock struct {
	token   string
	expires time.Time
}

// NewLocker creates a new locker
func NewLocker(client *Client, prefix string) *Locker {
	return &Locker{
		client: client,
		prefix: prefix,
		local:  make(map[string]localLock),
	}
}

var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Acquire tries to take the lock once.
// Returns (token, acquired, error); the token is required to release.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	token, err := newToken()
	if err != nil {
		return "", false, err
	}

	if !l.client.Enabled() {
		return token, l.acquireLocal(name, token, ttl), nil
	}

	key := l.key(name)
	ok, err := l.client.Redis().SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("lock acquire failed: %w", err)
	}

	return token, ok, nil
}

// Release drops the lock if the token still owns it
func (l *Locker) Release(ctx context.Context, name, token string) error {
	if !l.client.Enabled() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.local[name]; ok && cur.token == token {
			delete(l.local, name)
		}
		return nil
	}

	if err := releaseScript.Run(ctx, l.client.Redis(), []string{l.key(name)}, token).Err(); err != nil {
		return fmt.Errorf("lock release failed: %w", err)
	}
	return nil
}

func (l *Locker) acquireLocal(name, token string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if cur, ok := l.local[name]; ok && now.Before(cur.expires) {
		return false
	}

	l.local[name] = localLock{token: token, expires: now.Add(ttl)}
	return true
}

func (l *Locker) key(name string) string {
	return fmt.Sprintf("%s:lock:%s", l.prefix, name)
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
