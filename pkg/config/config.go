package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	// Upstream is the agent API the console drives.
	Upstream struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`

		// Retry applies to idempotent reads only. MaxAttempts 1 disables it.
		Retry struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			InitialDelay time.Duration `yaml:"initial_delay"`
			MaxDelay     time.Duration `yaml:"max_delay"`
			Multiplier   float64       `yaml:"multiplier"`
			Jitter       bool          `yaml:"jitter"`
		} `yaml:"retry"`

		CircuitBreaker struct {
			Enabled          bool          `yaml:"enabled"`
			FailureThreshold int           `yaml:"failure_threshold"`
			SuccessThreshold int           `yaml:"success_threshold"`
			OpenTimeout      time.Duration `yaml:"open_timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"upstream"`

	Session struct {
		DefaultIdentity string        `yaml:"default_identity"`
		TTL             time.Duration `yaml:"ttl"`
		LockTTL         time.Duration `yaml:"lock_ttl"`
		LockWait        time.Duration `yaml:"lock_wait"`
	} `yaml:"session"`

	Notifications struct {
		PingInterval   time.Duration `yaml:"ping_interval"`
		PongTimeout    time.Duration `yaml:"pong_timeout"`
		WriteTimeout   time.Duration `yaml:"write_timeout"`
		BufferSize     int           `yaml:"buffer_size"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
	} `yaml:"notifications"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"` // global concurrent HTTP requests
		} `yaml:"http"`

		WebSocket struct {
			MaxConcurrent int `yaml:"max_concurrent_connections"`
		} `yaml:"websocket"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Upstream
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url must not be empty")
	}
	if u, err := url.Parse(c.Upstream.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute URL")
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream.timeout must be >= 0")
	}
	if c.Upstream.Retry.MaxAttempts < 1 {
		return fmt.Errorf("upstream.retry.max_attempts must be >= 1")
	}
	if c.Upstream.Retry.MaxAttempts > 1 {
		if c.Upstream.Retry.InitialDelay <= 0 {
			return fmt.Errorf("upstream.retry.initial_delay must be > 0 when retries are enabled")
		}
		if c.Upstream.Retry.Multiplier < 1 {
			return fmt.Errorf("upstream.retry.multiplier must be >= 1")
		}
	}
	if cb := c.Upstream.CircuitBreaker; cb.Enabled {
		if cb.FailureThreshold < 1 || cb.SuccessThreshold < 1 {
			return fmt.Errorf("upstream.circuit_breaker thresholds must be >= 1")
		}
		if cb.OpenTimeout <= 0 {
			return fmt.Errorf("upstream.circuit_breaker.open_timeout must be > 0")
		}
	}

	// Session
	if c.Session.DefaultIdentity == "" {
		return fmt.Errorf("session.default_identity must not be empty")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0")
	}
	if c.Session.LockTTL <= 0 {
		return fmt.Errorf("session.lock_ttl must be > 0")
	}
	if c.Session.LockWait <= 0 {
		return fmt.Errorf("session.lock_wait must be > 0")
	}

	// Notifications
	if c.Notifications.PingInterval <= 0 {
		return fmt.Errorf("notifications.ping_interval must be > 0")
	}
	if c.Notifications.PongTimeout <= c.Notifications.PingInterval {
		return fmt.Errorf("notifications.pong_timeout must be > notifications.ping_interval")
	}
	if c.Notifications.WriteTimeout <= 0 {
		return fmt.Errorf("notifications.write_timeout must be > 0")
	}
	if c.Notifications.BufferSize <= 0 {
		return fmt.Errorf("notifications.buffer_size must be > 0")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be within [0, 1]")
		}
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
		if c.RateLimiting.WebSocket.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.websocket.max_concurrent_connections must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	// No upstream timeout: an agent query may legitimately take minutes and
	// only the busy gate of its own session waits on it.
	cfg.Upstream.BaseURL = "http://127.0.0.1:8000"
	cfg.Upstream.Timeout = 0
	cfg.Upstream.Retry.MaxAttempts = 1
	cfg.Upstream.Retry.InitialDelay = 200 * time.Millisecond
	cfg.Upstream.Retry.MaxDelay = 2 * time.Second
	cfg.Upstream.Retry.Multiplier = 2.0
	cfg.Upstream.Retry.Jitter = true
	cfg.Upstream.CircuitBreaker.Enabled = false
	cfg.Upstream.CircuitBreaker.FailureThreshold = 5
	cfg.Upstream.CircuitBreaker.SuccessThreshold = 1
	cfg.Upstream.CircuitBreaker.OpenTimeout = 30 * time.Second

	cfg.Session.DefaultIdentity = "alice"
	cfg.Session.TTL = 12 * time.Hour
	cfg.Session.LockTTL = 10 * time.Second
	cfg.Session.LockWait = 5 * time.Second

	cfg.Notifications.PingInterval = 30 * time.Second
	cfg.Notifications.PongTimeout = 60 * time.Second
	cfg.Notifications.WriteTimeout = 10 * time.Second
	cfg.Notifications.BufferSize = 16
	cfg.Notifications.AllowedOrigins = []string{"*"}

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "agentdesk"
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	// Rate limiting defaults (disabled by default)
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0
	cfg.RateLimiting.WebSocket.MaxConcurrent = 0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("AGENTDESK_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if base := os.Getenv("AGENTDESK_UPSTREAM_BASE_URL"); base != "" {
		c.Upstream.BaseURL = base
	}
	if identity := os.Getenv("AGENTDESK_DEFAULT_IDENTITY"); identity != "" {
		c.Session.DefaultIdentity = identity
	}
	if level := os.Getenv("AGENTDESK_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("AGENTDESK_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
	if enabled, err := strconv.ParseBool(os.Getenv("AGENTDESK_REDIS_ENABLED")); err == nil {
		c.Redis.Enabled = enabled
	}
	if enabled, err := strconv.ParseBool(os.Getenv("AGENTDESK_TRACING_ENABLED")); err == nil {
		c.Tracing.Enabled = enabled
	}
}
