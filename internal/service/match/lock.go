package match

import (
	"context"
	"fmt"
	"sync"
	"time"

	appErr "wetime-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Locker serialises the scan-then-mutate sequence of one tenant. Tenants never
// contend with each other.
type Locker interface {
	Lock(ctx context.Context, tenantID string) (unlock func(), err error)
}

// LocalLocker is a keyed mutex for a single process.
type LocalLocker struct {
	mu      sync.Mutex
	tenants map[string]*tenantLock
}

type tenantLock struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{tenants: make(map[string]*tenantLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, tenantID string) (func(), error) {
	l.mu.Lock()
	tl, ok := l.tenants[tenantID]
	if !ok {
		tl = &tenantLock{sem: make(chan struct{}, 1)}
		l.tenants[tenantID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	select {
	case tl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(tenantID, tl)
		return nil, fmt.Errorf("%w: tenant lock: %w", appErr.ErrStorageUnavailable, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-tl.sem
			l.release(tenantID, tl)
		})
	}, nil
}

func (l *LocalLocker) release(tenantID string, tl *tenantLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tl.refs--
	if tl.refs == 0 {
		delete(l.tenants, tenantID)
	}
}

var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker is a SetNX lease shared by every instance using the same redis.
// The lease TTL must exceed the longest critical section.
type RedisLocker struct {
	rdb        redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration
	log        *zap.Logger
}

func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, retryDelay: 25 * time.Millisecond, log: log}
}

func (l *RedisLocker) Lock(ctx context.Context, tenantID string) (func(), error) {
	key := buildTenantLockKey(tenantID)
	token := uuid.NewString()

	for {
		got, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: tenant lock: %w", appErr.ErrStorageUnavailable, err)
		}
		if got {
			break
		}
		select {
		case <-time.After(l.retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: tenant lock: %w", appErr.ErrStorageUnavailable, ctx.Err())
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the request context may already be spent
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseLockScript.Run(releaseCtx, l.rdb, []string{key}, token).Err(); err != nil {
				l.log.Warn("tenant lock release failed",
					zap.String("tenantID", tenantID),
					zap.Error(err),
				)
			}
		})
	}, nil
}
