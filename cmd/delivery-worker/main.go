// cmd/delivery-worker/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"push-agent/internal/backend"
	"push-agent/internal/common/config"
	"push-agent/internal/common/database"
	"push-agent/internal/common/logger"
	"push-agent/internal/common/observability"
	"push-agent/internal/delivery"
	"push-agent/internal/notifier"
	"push-agent/internal/platform"
	"push-agent/internal/pushapi"
	"push-agent/internal/pushapi/redisbridge"
	"push-agent/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting delivery worker...")

	obs := observability.New("delivery-worker")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully", zap.String("addr", cfg.Database.RedisAddr()))

	// --- Build Collaborators ---
	profile := platform.Detect(platform.EnvironmentFromOS())
	mirror := store.NewMirror(store.NewRedisStore(rdb.GetClient()), log)
	bridge := redisbridge.NewBridge(rdb.GetClient(), log)

	api := backend.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.BearerToken,
		config.GetDuration(cfg.Backend.Timeout),
		log,
	)

	var notifications pushapi.NotificationCenter = notifier.NewConsole(os.Stdout, log)
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := notifier.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		relay := notifier.NewSNSRelay(snsClient, cfg.Notifications.SNS.TopicARN, log)
		notifications = notifier.NewTee(notifications, relay, log)
		zapLog.Info("SNS display relay enabled", zap.String("topic", cfg.Notifications.SNS.TopicARN))
	}

	handler, err := delivery.NewHandler(
		delivery.LoadConfig(cfg),
		profile,
		delivery.Deps{
			Notifications: notifications,
			Windows:       redisbridge.NewWindowRegistry(rdb.GetClient(), log),
			Push:          bridge,
			Backend:       api,
			Mirror:        mirror,
		},
		log,
	)
	if err != nil {
		zapLog.Fatal("delivery handler init failed", zap.Error(err))
	}

	// --- Metrics Server ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	// --- Consume Events ---
	listener := redisbridge.NewListener(rdb.GetClient(), handler, obs, log)
	if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
		zapLog.Fatal("listener failed", zap.Error(err))
	}

	zapLog.Info("Shutdown signal received, delivery worker stopped")
}
