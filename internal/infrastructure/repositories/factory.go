package repositories

import (
	"context"

	"agentdesk/internal/core/ports"
	"agentdesk/internal/infrastructure/repositories/memory"
	redisrepo "agentdesk/internal/infrastructure/repositories/redis"
	"agentdesk/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory picks Redis-backed session storage when it is enabled
// and reachable, in-process storage otherwise.
type RepositoryFactory struct {
	cfg         *config.Config
	useRedis    bool
	redisClient *redis.Client
	memoryRepo  *memory.MemorySessionRepository
	logger      *zap.SugaredLogger
}

func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) *RepositoryFactory {
	factory := &RepositoryFactory{
		cfg:      cfg,
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("Failed to connect to Redis, falling back to memory sessions",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("Using Redis sessions")
		}
	}

	if !factory.useRedis {
		logger.Info("Using memory sessions")
	}

	return factory
}

// NewRepositoryFactoryWithClient builds a factory around an existing client.
func NewRepositoryFactoryWithClient(cfg *config.Config, client *redis.Client, logger *zap.SugaredLogger) *RepositoryFactory {
	return &RepositoryFactory{
		cfg:         cfg,
		useRedis:    client != nil,
		redisClient: client,
		logger:      logger,
	}
}

func (f *RepositoryFactory) CreateSessionRepository() ports.SessionRepository {
	if f.useRedis {
		return redisrepo.NewRedisSessionRepository(f.redisClient, f.cfg.Session.TTL)
	}
	if f.memoryRepo == nil {
		f.memoryRepo = memory.NewMemorySessionRepository(f.cfg.Session.TTL)
	}
	return f.memoryRepo
}

func (f *RepositoryFactory) CreateSessionLocker() ports.SessionLocker {
	if f.useRedis {
		return redisrepo.NewRedisSessionLocker(f.redisClient, f.cfg.Session.LockTTL, f.cfg.Session.LockWait, f.logger)
	}
	return memory.NewKeyedLocker(f.cfg.Session.LockWait)
}

// RedisClient returns the shared client, or nil when sessions live in memory.
func (f *RepositoryFactory) RedisClient() *redis.Client {
	return f.redisClient
}

func (f *RepositoryFactory) UsesRedis() bool {
	return f.useRedis
}

func (f *RepositoryFactory) Close() error {
	if f.memoryRepo != nil {
		f.memoryRepo.Close()
	}
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
