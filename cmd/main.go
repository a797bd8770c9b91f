package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/okian/lensfit/internal/adapters/http/api"
	"github.com/okian/lensfit/internal/adapters/http/swagger"
	"github.com/okian/lensfit/internal/adapters/repository"
	app "github.com/okian/lensfit/internal/app"
	"github.com/okian/lensfit/internal/config"
	"github.com/okian/lensfit/pkg/logger"
	"github.com/okian/lensfit/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Only the custom registry is exposed; the default Go collectors are not needed.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (.env -> defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFile(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	configureMetrics(cfg)

	opts, err := serviceOptions(ctx, cfg)
	if err != nil {
		return err
	}
	svc := app.New(append(opts, app.WithLogger(log))...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx, metrics.DefaultRefreshInterval())

	srv := newHTTPServer(ctx, cfg, svc)
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// serviceOptions translates cfg into service options, connecting to Redis
// when it is the configured session store.
func serviceOptions(ctx context.Context, cfg *config.Config) ([]app.Option, error) {
	storeOpts := []repository.Option{
		repository.WithShardCount(cfg.ShardCount),
		repository.WithMaxSessions(cfg.MaxSessions),
		repository.WithTTL(time.Duration(cfg.SessionTTLSeconds) * time.Second),
		repository.WithJanitorInterval(time.Duration(cfg.JanitorIntervalSeconds) * time.Second),
		repository.WithMetricsUpdateInterval(metrics.DefaultRefreshInterval()),
	}
	opts := []app.Option{
		app.WithReferenceWidth(cfg.ReferenceWidthMM),
		app.WithStoreOptions(storeOpts...),
	}

	if cfg.Store != config.StoreRedis {
		return opts, nil
	}
	if cfg.MaxSessions > 0 {
		logger.Get().Warn(ctx, "max_sessions is not enforced by the redis store; sessions expire by TTL only",
			logger.Int("max_sessions", cfg.MaxSessions))
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store, err := repository.NewRedisStore(ctx, client, storeOpts...)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to open redis store: %w", err)
	}
	return append(opts, app.WithStore(store)), nil
}

// configureMetrics rebuilds the metrics registry from cfg. It must run before
// the service and HTTP server are created.
func configureMetrics(cfg *config.Config) {
	opts := []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithRefreshInterval(time.Duration(cfg.MetricsRefreshSeconds) * time.Second),
	}
	if cfg.MetricsInstance != "" {
		opts = append(opts, metrics.WithCustomLabels(map[string]string{"instance": cfg.MetricsInstance}))
	}
	metrics.Configure(opts...)
}

// newHTTPServer wires the API and documentation routes for svc.
func newHTTPServer(ctx context.Context, cfg *config.Config, svc *app.Service) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)).Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater refreshes runtime metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
