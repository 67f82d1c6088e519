package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	httpadapter "atlas-ads/internal/adapter/http"
	"atlas-ads/internal/adapter/memory"
	"atlas-ads/internal/adapter/notify"
	"atlas-ads/internal/adapter/postgres"
	"atlas-ads/internal/adapter/usecase"
	"atlas-ads/internal/config"
	"atlas-ads/internal/db"
	"atlas-ads/internal/metrics"
)

// main is the entry point of the atlas-ads server. It loads configuration,
// optionally runs database migrations, initializes the database pool and
// adapters, then starts the HTTP server. On receiving a termination signal
// it gracefully shuts down the server. The -seed and -reset-budgets flags
// run one-off maintenance tasks instead of serving.
func main() {
	seed := flag.Bool("seed", false, "insert demo data and exit")
	resetBudgets := flag.Bool("reset-budgets", false, "clear sticky budget-exceeded flags and exit (cron entry point)")
	resetDate := flag.String("reset-date", "", "date to reset as YYYY-MM-DD, default today")
	resetCampaign := flag.String("reset-campaign", "", "restrict the reset to one campaign id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
		} else {
			logger.Info("migrations applied successfully")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if *seed {
		if err = db.Seed(ctx, pool); err != nil {
			logger.Error("seed error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("demo data inserted")
		return
	}

	repo := postgres.NewAdRepository(pool)
	ledger := postgres.NewSpendLedger(pool)
	cache := memory.NewCache()
	defer cache.Close()
	m := metrics.New()
	svc := usecase.NewAdService(repo, ledger, cache, notify.NewLogNotifier(logger), m, logger, cfg.Serving)

	if *resetBudgets {
		var day time.Time
		if *resetDate != "" {
			day, err = time.Parse("2006-01-02", *resetDate)
			if err != nil {
				logger.Error("invalid -reset-date", slog.String("value", *resetDate), slog.Any("error", err))
				os.Exit(1)
			}
		}
		var campaignID *uuid.UUID
		if *resetCampaign != "" {
			id, err := uuid.Parse(*resetCampaign)
			if err != nil {
				logger.Error("invalid -reset-campaign", slog.String("value", *resetCampaign), slog.Any("error", err))
				os.Exit(1)
			}
			campaignID = &id
		}
		reset, err := svc.ResetDailyBudgets(ctx, day, campaignID)
		if err != nil {
			logger.Error("budget reset error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("daily budgets reset", slog.Int64("campaigns", reset))
		return
	}

	handler := httpadapter.NewHandler(svc, logger, m.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
