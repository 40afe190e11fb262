package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/khata/config"
	"github.com/vadiminshakov/khata/internal/ledger"
	"github.com/vadiminshakov/khata/internal/storage/journal"
	"github.com/vadiminshakov/khata/internal/storage/snapshot"
	"github.com/vadiminshakov/khata/internal/web"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal("failed to create data dir", zap.Error(err))
	}

	store, err := snapshot.Open(filepath.Join(cfg.DataDir, "khata.db"))
	if err != nil {
		logger.Fatal("failed to open snapshot store", zap.Error(err))
	}
	defer store.Close()

	jr, err := journal.Open(filepath.Join(cfg.DataDir, "journal"))
	if err != nil {
		logger.Fatal("failed to open ledger journal", zap.Error(err))
	}
	defer jr.Close()

	book, err := ledger.Open(store, jr, logger)
	if err != nil {
		logger.Fatal("failed to open ledger", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	server := web.NewServer(cfg.Listen, book, logger)
	g.Go(func() error {
		return server.Start(ctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(err.Error())
	}
	logger.Info("shutdown complete")
}
