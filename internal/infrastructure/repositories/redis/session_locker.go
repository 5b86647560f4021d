package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const retryInterval = 50 * time.Millisecond

// unlockScript deletes the key only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// renewScript extends the key only while it still holds our token.
var renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`)

// RedisSessionLocker is a SET NX lock per session shared by every replica
// pointed at the same Redis.
type RedisSessionLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	logger *zap.SugaredLogger
}

// NewRedisSessionLocker creates a locker. ttl bounds how long a crashed
// holder blocks others; wait bounds how long Lock retries.
func NewRedisSessionLocker(client *redis.Client, ttl, wait time.Duration, logger *zap.SugaredLogger) *RedisSessionLocker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RedisSessionLocker{
		client: client,
		prefix: KeyPrefix + "lock:session:",
		ttl:    ttl,
		wait:   wait,
		logger: logger,
	}
}

var _ ports.SessionLocker = (*RedisSessionLocker)(nil)

func (l *RedisSessionLocker) Lock(ctx context.Context, id domain.SessionID) (func(), error) {
	key := l.prefix + string(id)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if acquired {
			break
		}

		if l.wait > 0 && time.Now().After(deadline) {
			return nil, domain.ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	stop := make(chan struct{})
	go l.renew(key, token, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			l.release(key, token)
		})
	}, nil
}

func (l *RedisSessionLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	n, err := unlockScript.Run(ctx, l.client, []string{key}, token).Int64()
	if err != nil {
		l.logger.Warnw("Failed to release session lock", "key", key, "error", err)
		return
	}
	if n == 0 {
		l.logger.Warnw("Session lock expired before release", "key", key)
	}
}

// renew keeps the lock alive at half its TTL until stop closes.
func (l *RedisSessionLocker) renew(key, token string, stop <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/2)
			n, err := renewScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int64()
			cancel()
			if err != nil || n == 0 {
				return
			}
		}
	}
}
