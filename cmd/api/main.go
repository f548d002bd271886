package main

import (
	"context"
	"crypto/tls"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estateflow_backend/internal/gateway"
	apphttp "estateflow_backend/internal/http"
	"estateflow_backend/internal/http/router"
	"estateflow_backend/internal/hubspot"
	"estateflow_backend/internal/scheduler"
	"estateflow_backend/internal/scoring"
	scoringhandler "estateflow_backend/internal/scoring/handler"
	"estateflow_backend/internal/webhook"
	"estateflow_backend/platform/config"
	"estateflow_backend/platform/db"
	"estateflow_backend/platform/logger"
	"estateflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	defer func() { _ = redisClient.Close() }()

	enqueuer, closeEnqueuer := initRescoreEnqueuer(cfg, log)
	if closeEnqueuer != nil {
		defer closeEnqueuer()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	gatewayModule := gateway.NewModule(pool, redisClient, cfg, val, log)
	scoringModule := scoring.NewModule(pool, cfg, val, log, enqueuer)

	hubspotService := hubspot.NewService(hubspot.NewRepository(pool), hubspot.NewClient(cfg, log))
	webhookModule := webhook.NewModule(scoringModule.Service(), hubspotService, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:  cfg,
		Logger:  log,
		Health:  pool,
		Gateway: gatewayModule.Chain,
		Modules: []apphttp.Module{
			gatewayModule,
			scoringModule,
			webhookModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// newRedisClient builds the shared redis client used by the gateway rate
// limiter. The limiter fails open, so a temporarily unreachable redis does
// not take the API down.
func newRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig = opt.TLSConfig.Clone()
		opt.TLSConfig.InsecureSkipVerify = true
	} else if opt.TLSConfig == nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return redis.NewClient(opt), nil
}

func initRescoreEnqueuer(cfg config.SchedulerConfig, log *logger.Logger) (scoringhandler.RescoreEnqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; async rescore disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize rescore scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
