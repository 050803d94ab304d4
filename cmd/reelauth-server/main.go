// Command reelauth-server serves the login, refresh and logout endpoints of
// the movie-review API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/reelauth"
	"github.com/MrEthical07/reelauth/credentials"
	"github.com/MrEthical07/reelauth/httpapi"
	"github.com/MrEthical07/reelauth/internal/config"
	"github.com/MrEthical07/reelauth/internal/logx"
	"github.com/MrEthical07/reelauth/metrics/export/prometheus"
	"github.com/MrEthical07/reelauth/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env-file", "", "optional .env file to load before reading the environment")
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logx.New(logx.Config{
		Service:  "reelauth",
		Level:    cfg.Log.Level,
		Encoding: cfg.Log.Encoding,
		Env:      cfg.AppEnv,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	rdb, closeRedis, err := connectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	engineCfg := cfg.EngineConfig()
	verifier, err := password.NewVerifier(password.Config{
		Memory:           engineCfg.Password.Memory,
		Time:             engineCfg.Password.Time,
		Parallelism:      engineCfg.Password.Parallelism,
		SaltLength:       engineCfg.Password.SaltLength,
		KeyLength:        engineCfg.Password.KeyLength,
		MaxPasswordBytes: password.DefaultMaxPasswordBytes,
	})
	if err != nil {
		return fmt.Errorf("init password verifier: %w", err)
	}

	store, closeStore, err := openCredentials(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Seed.Identifier != "" {
		created, err := credentials.Seed(ctx, store, verifier, cfg.Seed.Identifier, cfg.Seed.Password)
		if err != nil {
			return fmt.Errorf("seed account: %w", err)
		}
		logger.Info("seed account checked", zap.String("identifier", cfg.Seed.Identifier), zap.Bool("created", created))
	}

	builder := reelauth.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		WithPasswordVerifier(verifier).
		WithLogger(logger)
	if cfg.Log.Audit {
		builder = builder.WithAuditSink(reelauth.NewZapSink(logger))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	mux := http.NewServeMux()
	httpapi.NewHandler(engine, engine.Config(), httpapi.Options{
		Logger: logger,
		Health: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}).Routes(mux)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, prometheus.NewPrometheusExporter(engine).Handler())
	}
	if cfg.Metrics.Enabled && cfg.Metrics.OTelInterval > 0 {
		stopOTel, err := startOTel(engine, cfg.Metrics.OTelInterval, os.Stderr)
		if err != nil {
			return fmt.Errorf("start otel metrics: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := stopOTel(stopCtx); err != nil {
				logger.Warn("stop otel metrics", zap.Error(err))
			}
		}()
		logger.Info("otel metrics enabled", zap.Duration("interval", cfg.Metrics.OTelInterval))
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpapi.AccessLog(logger, mux),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.Bool("production", cfg.Production()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func connectRedis(ctx context.Context, cfg config.Redis, logger *zap.Logger) (redis.UniversalClient, func(), error) {
	addr := cfg.Addr
	var mr *miniredis.Miniredis
	if cfg.Embedded {
		var err error
		mr, err = miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded redis: %w", err)
		}
		addr = mr.Addr()
		logger.Warn("using embedded redis; revocations are lost on restart", zap.String("addr", addr))
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       []string{addr},
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
	})
	closeFn := func() {
		_ = client.Close()
		if mr != nil {
			mr.Close()
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, closeFn, nil
}

type accountStore interface {
	reelauth.CredentialStore
	reelauth.AccountCreator
}

func openCredentials(ctx context.Context, cfg config.Database, logger *zap.Logger) (accountStore, func(), error) {
	if cfg.DSN == "" {
		logger.Warn("DATABASE_DSN is empty; accounts are kept in memory")
		return credentials.NewMemoryStore(), func() {}, nil
	}

	if cfg.Migrate {
		if err := credentials.Migrate(ctx, cfg.DSN); err != nil {
			return nil, nil, err
		}
	}
	pool, err := credentials.Connect(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	return credentials.NewPostgresStore(pool), pool.Close, nil
}
