// Package main запускает HTTP-сервер аукциона лотов.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/lot-auction/internal/catalog"
	"github.com/mmeshcher/lot-auction/internal/config"
	"github.com/mmeshcher/lot-auction/internal/engine"
	"github.com/mmeshcher/lot-auction/internal/feed"
	"github.com/mmeshcher/lot-auction/internal/handler"
	"github.com/mmeshcher/lot-auction/internal/ledger"
	"github.com/mmeshcher/lot-auction/internal/metrics"
	"github.com/mmeshcher/lot-auction/internal/middleware"
	"github.com/mmeshcher/lot-auction/internal/model"
	"github.com/mmeshcher/lot-auction/internal/notify"
	"github.com/mmeshcher/lot-auction/internal/realtime"
	"github.com/mmeshcher/lot-auction/internal/repository"
	"github.com/mmeshcher/lot-auction/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	auctionID := uuid.NewString()

	var lots []model.Lot
	if !cfg.SkipSeed {
		lots = catalog.SeedLots()
	}
	cat := catalog.New(lots...)
	budgets := ledger.New()

	hub := realtime.NewHub(logger)
	collector := metrics.NewCollector()
	sinks := notify.Multi{notify.NewLogSink(logger), collector, hub}

	var (
		store    service.ResultStore
		archiver *service.Archiver
	)
	if cfg.DatabaseURI != "" {
		repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
		store = repo
		archiver = service.NewArchiver(repo, auctionID, logger)
		sinks = append(sinks, archiver)
	}

	eng := engine.New(cat, budgets, sinks, logger, engine.Config{
		LotSeconds:          cfg.LotSeconds,
		BidExtensionSeconds: cfg.BidExtensionSeconds,
		EnforceIncrement:    cfg.EnforceIncrement,
	})
	defer eng.Close()

	deps := service.Deps{
		Engine:    eng,
		Catalog:   cat,
		Ledger:    budgets,
		Store:     store,
		Logger:    logger,
		Budget:    cfg.BidderBudget,
		AuctionID: auctionID,
	}
	if cfg.CatalogFeedAddress != "" {
		deps.Feed = feed.NewClient(cfg.CatalogFeedAddress)
	}

	svc := service.NewService(deps)
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if n, err := svc.ImportCatalog(ctx); err != nil {
		sugar.Warnw("catalog import failed", "error", err.Error())
	} else if n > 0 {
		sugar.Infow("catalog imported", "lots", n)
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(svc, logger, authMiddleware,
		handler.WithEvents(hub),
		handler.WithMetrics(collector.Handler()),
	)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	g, ctx := errgroup.WithContext(ctx)

	// Фоновая запись результатов торгов в журнал
	if archiver != nil {
		g.Go(func() error {
			return archiver.Run(ctx)
		})
	}

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting auction server", "addr", cfg.RunAddress, "auction_id", auctionID)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		eng.Close()
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
