package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vixboard/internal/collect"
	"vixboard/internal/config"
	"vixboard/internal/store"
	"vixboard/internal/util"
)

func main() {
	cfgPath := "config/vixboard.yaml"
	if p := os.Getenv("VIXBOARD_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	loaders, err := collect.BuildLoaders(cfg)
	if err != nil {
		log.Fatalf("failed to build loaders: %v", err)
	}
	r, err := collect.Range(cfg, time.Now())
	if err != nil {
		log.Fatalf("invalid range: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := collect.New(loaders, cfg.Storage.MergedCSV, store.NewParquetStore(cfg.Storage.DataDir))

	slog.Info("starting vix-collect", "config", cfgPath)
	tbl, err := collector.Run(ctx, r)
	if errors.Is(err, collect.ErrNoData) {
		slog.Warn("no data collected from any source")
		return
	}
	if err != nil {
		log.Fatalf("collect error: %v", err)
	}
	slog.Info("done", "rows", tbl.Len(), "columns", len(tbl.Columns), "csv", cfg.Storage.MergedCSV)
}
