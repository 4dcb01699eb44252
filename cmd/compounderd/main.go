// Command compounderd serves the reward-compounding API: preference
// submission, instruction compilation, and authorization-scope derivation.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/yieldworks/compounder/pkg/api"
	"github.com/yieldworks/compounder/pkg/auditlog"
	"github.com/yieldworks/compounder/pkg/catalog"
	"github.com/yieldworks/compounder/pkg/compiler"
	"github.com/yieldworks/compounder/pkg/config"
	"github.com/yieldworks/compounder/pkg/observability"
	"github.com/yieldworks/compounder/pkg/oracle"
	"github.com/yieldworks/compounder/pkg/prefs"
	"github.com/yieldworks/compounder/pkg/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "compounderd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)
	logger := slog.Default()

	ctx := context.Background()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	store, closeStore, err := openPrefsStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	audit, closeAudit, err := openAuditRecorder(cfg)
	if err != nil {
		return err
	}
	defer closeAudit()

	orc := buildOracle(cfg, logger)

	registry, err := compiler.NewRegistry(cat, orc)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	svc, err := service.New(service.Config{
		Admin:    cfg.Admin,
		Executor: cfg.Executor,
		Store:    store,
		Registry: registry,
		Catalog:  cat,
		Audit:    audit,
	})
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.Enabled = cfg.OTLPEndpoint != ""
	if cfg.OTLPEndpoint != "" {
		obsCfg.OTLPEndpoint = cfg.OTLPEndpoint
	}
	obs, err := observability.New(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			logger.Warn("observability shutdown", "error", err)
		}
	}()

	server := api.NewServer(api.ServerConfig{
		Addr:           cfg.Addr,
		Service:        svc,
		JWTSecret:      []byte(cfg.JWTSecret),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Observability:  obs,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func openPrefsStore(cfg *config.Config) (prefs.Store, func(), error) {
	if cfg.PrefsDBPath == "" {
		slog.Info("preference store: in-memory")
		return prefs.NewMemoryStore(), func() {}, nil
	}
	db, err := sql.Open("sqlite", cfg.PrefsDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open prefs db: %w", err)
	}
	store, err := prefs.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init prefs store: %w", err)
	}
	slog.Info("preference store: sqlite", "path", cfg.PrefsDBPath)
	return store, func() { db.Close() }, nil
}

func openAuditRecorder(cfg *config.Config) (auditlog.Recorder, func(), error) {
	if cfg.AuditDatabaseURL == "" {
		slog.Info("audit recorder: in-memory")
		return auditlog.NewMemoryRecorder(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.AuditDatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit db: %w", err)
	}
	rec, err := auditlog.NewPostgresRecorder(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init audit recorder: %w", err)
	}
	slog.Info("audit recorder: postgres")
	return rec, func() { db.Close() }, nil
}

func buildOracle(cfg *config.Config, logger *slog.Logger) oracle.Oracle {
	base := oracle.NewStaticOracle()
	if cfg.RedisAddr == "" {
		return base
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	logger.Info("quote cache: redis", "addr", cfg.RedisAddr)
	return oracle.NewCachedOracle(base, client, 0)
}
