package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Skotchmaster/finance_tracker/internal/config"
	"github.com/Skotchmaster/finance_tracker/internal/db"
	"github.com/Skotchmaster/finance_tracker/internal/events"
	"github.com/Skotchmaster/finance_tracker/internal/httpserver"
	"github.com/Skotchmaster/finance_tracker/internal/logging"
	"github.com/Skotchmaster/finance_tracker/internal/repo"
	"github.com/Skotchmaster/finance_tracker/internal/search"
	"github.com/Skotchmaster/finance_tracker/internal/service"
	"github.com/Skotchmaster/finance_tracker/internal/tokens"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(logging.IntoContext(ctx, logger), cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer db.Close(gdb)

	publisher, err := events.FromConfig(cfg)
	if err != nil {
		logger.Warn("events disabled", "backend", cfg.EventsBackend, "error", err)
		publisher = events.Noop{}
	}
	defer publisher.Close()

	indexer := newIndexer(ctx, cfg, logger)

	store := repo.New(gdb)
	authSvc := &service.AuthService{
		Users:          store,
		Tokens:         store,
		Issuer:         tokens.NewIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL),
		RefreshTTL:     cfg.RefreshTokenTTL(),
		MinPasswordLen: cfg.PasswordMinLen,
		BcryptCost:     cfg.BcryptCost,
		Events:         publisher,
	}
	ledgerSvc := &service.LedgerService{Store: store, Events: publisher, Index: indexer}
	categorySvc := &service.CategoryService{Store: store}

	if err := categorySvc.Init(ctx); err != nil {
		return err
	}
	if n, err := authSvc.PurgeExpiredRefreshTokens(ctx); err != nil {
		logger.Warn("purge expired refresh tokens", "error", err)
	} else if n > 0 {
		logger.Info("purged expired refresh tokens", "count", n)
	}

	e := httpserver.New(&httpserver.Deps{
		Auth:          &httpserver.AuthHTTP{Svc: authSvc},
		Ledger:        &httpserver.LedgerHTTP{Svc: ledgerSvc},
		Categories:    &httpserver.CategoryHTTP{Svc: categorySvc},
		AuthMW:        &httpserver.AuthMiddleware{Verifier: authSvc},
		Logger:        logger,
		CORSOrigins:   cfg.CORSOrigins,
		AuthRateLimit: cfg.AuthRateLimit,
		Ready:         pinger(gdb),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newIndexer(ctx context.Context, cfg *config.Config, logger *slog.Logger) search.Indexer {
	if cfg.ESURL == "" {
		return search.Noop{}
	}

	esCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := search.NewClient(esCtx, cfg)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search mirror disabled", "error", err)
		return search.Noop{}
	}
	logger.Info("elasticsearch mirror enabled", "index", cfg.ESIndex)
	return search.NewESIndexer(client, cfg.ESIndex)
}

func pinger(gdb *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
