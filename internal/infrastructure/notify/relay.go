package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"agentdesk/internal/core/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "agentdesk:notifications"

type envelope struct {
	InstanceID   string              `json:"instance_id"`
	PublishedAt  time.Time           `json:"published_at"`
	Notification domain.Notification `json:"notification"`
}

// RedisRelay carries notifications between replicas over Redis pub/sub so a
// websocket on one replica sees notifications raised on another.
type RedisRelay struct {
	client     *redis.Client
	channel    string
	instanceID string
	logger     *zap.SugaredLogger

	mu     sync.Mutex
	pubsub *redis.PubSub
}

func NewRedisRelay(client *redis.Client, logger *zap.SugaredLogger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &RedisRelay{
		client:     client,
		channel:    DefaultChannel,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

func (r *RedisRelay) InstanceID() string {
	return r.instanceID
}

func (r *RedisRelay) Publish(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(envelope{
		InstanceID:   r.instanceID,
		PublishedAt:  time.Now().UTC(),
		Notification: n,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Run subscribes and passes every notification published by other replicas
// to deliver. It blocks until ctx ends. ready, when non-nil, is closed once
// the subscription is confirmed.
func (r *RedisRelay) Run(ctx context.Context, deliver func(domain.Notification), ready chan<- struct{}) error {
	r.mu.Lock()
	if r.pubsub != nil {
		r.mu.Unlock()
		return fmt.Errorf("relay already running")
	}
	pubsub := r.client.Subscribe(ctx, r.channel)
	r.pubsub = pubsub
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.pubsub = nil
		r.mu.Unlock()
		pubsub.Close()
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	if ready != nil {
		close(ready)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warnw("Failed to unmarshal relayed notification",
					"error", err,
					"payload", msg.Payload,
				)
				continue
			}
			if env.InstanceID == r.instanceID {
				continue
			}
			deliver(env.Notification)
		}
	}
}

func (r *RedisRelay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubsub != nil {
		return r.pubsub.Close()
	}
	return nil
}
