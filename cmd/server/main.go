// Package main is the entry point for the chancepool API server.  It wires
// together the ledger services and starts the HTTP server alongside the
// WebSocket hub and the settlement coordinator.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/denizolgu/chancepool/internal/api"
	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/repository"
	"github.com/denizolgu/chancepool/internal/scheduler"
	"github.com/denizolgu/chancepool/internal/service"
	"github.com/denizolgu/chancepool/internal/ws"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // postgres driver
)

func main() {
	// ── 1. Config + logger ────────────────────────────────────────────────────
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.MustLoad()

	var logHandler slog.Handler
	if cfg.IsProd() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("starting chancepool server", "env", cfg.Server.Env, "port", cfg.Server.Port)

	// ── 2. Database ───────────────────────────────────────────────────────────
	db, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err = db.Ping(); err != nil {
		logger.Error("database ping failed", "err", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	// ── 3. Migrations ─────────────────────────────────────────────────────────
	if err = runMigrations(db, "migrations"); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")

	// ── 4. Repositories ───────────────────────────────────────────────────────
	accountRepo := repository.NewAccountRepository(db)
	poolRepo := repository.NewPoolRepository(db)
	settlerRepo := repository.NewSettlerRepository(db)
	betRepo := repository.NewBetRepository(db)
	lockRepo := repository.NewLockRepository(db)

	// ── 5. Genesis settlers ───────────────────────────────────────────────────
	if err = seedGenesisSettlers(context.Background(), settlerRepo, logger); err != nil {
		logger.Error("genesis settler seeding failed", "err", err)
		os.Exit(1)
	}

	// ── 6. Services ───────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(cfg)
	settlerSvc := service.NewSettlerService(db, settlerRepo, cfg)
	poolSvc := service.NewPoolService(db, accountRepo, poolRepo, betRepo, cfg)
	wagerSvc := service.NewWagerService(service.NewSQLTxRunner(db), accountRepo, betRepo, settlerSvc, cfg)
	oracleSvc := service.NewOracleService(cfg)

	// ── 7. WebSocket hub ──────────────────────────────────────────────────────
	hub := ws.NewHub([]byte(cfg.JWT.Secret), cfg.Server.AllowedOrigins)
	poolSvc.SetBroadcaster(hub)
	wagerSvc.SetBroadcaster(hub)

	// ── 8. Root context + signal handling ─────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run()
	logger.Info("websocket hub started")

	// ── 9. Settlement coordinator ─────────────────────────────────────────────
	if cfg.Coordinator.Enabled {
		submitter := scheduler.NewAPISubmitter(authSvc, cfg)
		coord := scheduler.NewCoordinator(wagerSvc, lockRepo, oracleSvc, submitter, cfg, logger)
		coord.Start(ctx)
	} else {
		logger.Info("settlement coordinator disabled")
	}

	// ── 10. HTTP router ───────────────────────────────────────────────────────
	router := api.SetupRouter(api.RouterDeps{
		AuthSvc:     authSvc,
		PoolSvc:     poolSvc,
		WagerSvc:    wagerSvc,
		SettlerSvc:  settlerSvc,
		AccountRepo: accountRepo,
		Hub:         hub,
		Cfg:         cfg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// ── 11. Start server ──────────────────────────────────────────────────────
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
			stop() // trigger graceful shutdown
		}
	}()

	// ── 12. Graceful shutdown ─────────────────────────────────────────────────
	<-ctx.Done()
	logger.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}

	db.Close()
	logger.Info("server stopped cleanly")
}

// seedGenesisSettlers inserts the accounts listed in GENESIS_SETTLERS (comma
// separated UUIDs) into the roster.  Idempotent, so every node can run it at
// boot.  Without at least one settler no wager can ever settle, hence the
// warning on an empty roster seed.
func seedGenesisSettlers(ctx context.Context, repo *repository.SettlerRepository, logger *slog.Logger) error {
	raw := os.Getenv("GENESIS_SETTLERS")
	if raw == "" {
		logger.Warn("GENESIS_SETTLERS not set; roster must be seeded manually")
		return nil
	}

	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return fmt.Errorf("GENESIS_SETTLERS: invalid uuid %q", part)
		}
		ids = append(ids, id)
	}

	if err := repo.SeedGenesis(ctx, ids); err != nil {
		return err
	}
	logger.Info("genesis settlers seeded", "count", len(ids))
	return nil
}

// runMigrations reads all *.sql files from dir, sorted by name, and executes
// them sequentially.  Idempotent: SQL files use IF NOT EXISTS / ON CONFLICT.
func runMigrations(db *sqlx.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("runMigrations: read dir %q: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("runMigrations: read %q: %w", f, err)
		}
		if _, err = db.Exec(string(data)); err != nil {
			return fmt.Errorf("runMigrations: exec %q: %w", f, err)
		}
		slog.Info("migration applied", "file", filepath.Base(f))
	}
	return nil
}
