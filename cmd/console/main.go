package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentdesk/internal/core/services"
	httphandlers "agentdesk/internal/handlers/http"
	"agentdesk/internal/infrastructure/gateway"
	"agentdesk/internal/infrastructure/middleware"
	"agentdesk/internal/infrastructure/monitoring"
	"agentdesk/internal/infrastructure/notify"
	"agentdesk/internal/infrastructure/repositories"
	"agentdesk/pkg/circuitbreaker"
	"agentdesk/pkg/config"
	"agentdesk/pkg/logger"
	"agentdesk/pkg/retry"
	"agentdesk/pkg/tracing"
	"agentdesk/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/agentdesk/config.yaml",
		"config.yaml",
	}

	configPath := ""
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			configPath = path
			break
		}
	}

	// A missing file yields defaults with env overrides applied.
	cfg, configErr := config.Load(configPath)
	if configErr != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()
	if configErr != nil {
		log.Warnw("Invalid config file, running with defaults", "path", configPath, "error", configErr)
	} else {
		log.Infow("Configuration loaded", "path", configPath)
	}

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("Failed to initialize tracing", "error", err)
	}

	repoFactory := repositories.NewRepositoryFactory(cfg, log)
	sessions := repoFactory.CreateSessionRepository()
	locker := repoFactory.CreateSessionLocker()

	collector := monitoring.NewPrometheusCollector(prometheus.DefaultRegisterer)

	upstream := gateway.NewHTTPGateway(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	gw := gateway.NewInstrumented(gateway.NewResilient(upstream, resilienceOptions(cfg), log), collector)

	hub := notify.NewHub(notify.Options{
		PingInterval:   cfg.Notifications.PingInterval,
		PongTimeout:    cfg.Notifications.PongTimeout,
		WriteTimeout:   cfg.Notifications.WriteTimeout,
		BufferSize:     cfg.Notifications.BufferSize,
		AllowedOrigins: cfg.Notifications.AllowedOrigins,
	}, collector, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if client := repoFactory.RedisClient(); client != nil {
		hub.UseRelay(notify.NewRedisRelay(client, log))
		go func() {
			if err := hub.RunRelay(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorw("Notification relay stopped", "error", err)
			}
		}()
	}

	console := services.NewConsole(sessions, locker, gw, hub, collector, cfg.Session.DefaultIdentity, log)

	health := monitoring.NewHealthChecker(log)
	health.AddUpstreamCheck(gw, 30*time.Second, 3*time.Second)
	health.AddRepositoryCheck(sessions, 30*time.Second, 2*time.Second)
	if client := repoFactory.RedisClient(); client != nil {
		health.AddRedisCheck(client, 30*time.Second, 2*time.Second)
	}
	health.StartBackgroundChecks(ctx)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(
		middleware.RecoveryMiddleware(log),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware(),
		middleware.AccessLogMiddleware(logger.NewContextLogger(zapLogger), collector),
		middleware.ErrorHandlerMiddleware(log),
		middleware.NewHTTPRateLimitMiddleware(cfg),
	)

	httphandlers.NewConsoleHandler(console, hub).SetupRoutes(router, middleware.NewStreamLimitMiddleware(cfg))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    monitoring.StatusHealthy,
			"timestamp": time.Now().UTC(),
			"uptime":    utils.FormatDuration(time.Since(startTime)),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		status := health.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != monitoring.StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: writeTimeout(cfg),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infow("Starting agentdesk console",
			"address", cfg.Server.Address,
			"upstream", cfg.Upstream.BaseURL,
			"redis", repoFactory.UsesRedis(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down agentdesk console...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error flushing traces", "error", err)
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("agentdesk console stopped")
}

func resilienceOptions(cfg *config.Config) gateway.ResilienceOptions {
	opts := gateway.ResilienceOptions{
		Retry: retry.Config{
			MaxAttempts:  cfg.Upstream.Retry.MaxAttempts,
			InitialDelay: cfg.Upstream.Retry.InitialDelay,
			MaxDelay:     cfg.Upstream.Retry.MaxDelay,
			Multiplier:   cfg.Upstream.Retry.Multiplier,
			Jitter:       cfg.Upstream.Retry.Jitter,
		},
	}
	if cb := cfg.Upstream.CircuitBreaker; cb.Enabled {
		opts.Breaker = circuitbreaker.New(circuitbreaker.Config{
			FailureThreshold:    cb.FailureThreshold,
			SuccessThreshold:    cb.SuccessThreshold,
			Timeout:             cb.OpenTimeout,
			MaxRequestsHalfOpen: 1,
		})
	}
	return opts
}

// writeTimeout leaves room for Submit, which holds its response until the
// agent answers. An unbounded upstream means no write deadline at all.
func writeTimeout(cfg *config.Config) time.Duration {
	if cfg.Upstream.Timeout <= 0 {
		return 0
	}
	return cfg.Server.WriteTimeout + cfg.Upstream.Timeout
}
