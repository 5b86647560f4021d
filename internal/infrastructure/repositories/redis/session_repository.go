package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisSessionRepository stores each session as a JSON string that expires
// ttl after its last save.
type RedisSessionRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{
		client: client,
		prefix: KeyPrefix + "session:",
		ttl:    ttl,
	}
}

var _ ports.SessionRepository = (*RedisSessionRepository)(nil)

func (r *RedisSessionRepository) sessionKey(id domain.SessionID) string {
	return r.prefix + string(id)
}

func (r *RedisSessionRepository) Create(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.sessionKey(session.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create session in Redis: %w", err)
	}
	if !created {
		return domain.ErrSessionExists
	}
	return nil
}

func (r *RedisSessionRepository) Get(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return session, nil
}

// Save overwrites an existing session and renews its TTL.
func (r *RedisSessionRepository) Save(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = r.client.SetArgs(ctx, r.sessionKey(session.ID), data, redis.SetArgs{
		Mode: "XX",
		TTL:  r.ttl,
	}).Err()
	if errors.Is(err, redis.Nil) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to save session in Redis: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id domain.SessionID) error {
	n, err := r.client.Del(ctx, r.sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Count scans the session keyspace.
func (r *RedisSessionRepository) Count(ctx context.Context) (int, error) {
	count := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count sessions in Redis: %w", err)
	}
	return count, nil
}
