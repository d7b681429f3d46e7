package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vixboard/internal/config"
	"vixboard/internal/domain"
	"vixboard/internal/gather"
	"vixboard/internal/gather/us"
	"vixboard/internal/status"
	"vixboard/internal/table"
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

	loc, err := time.LoadLocation(cfg.Status.Timezone)
	if err != nil {
		log.Fatalf("invalid status timezone: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tbl, err := table.ReadFile(cfg.Storage.MergedCSV)
	if err != nil {
		slog.Warn("merged csv unavailable", "path", cfg.Storage.MergedCSV, "err", err)
	}

	usLatest := status.FromTable(tbl, domain.SourceUS)
	if !usLatest.OK {
		usLatest = fetchUS(ctx, cfg)
	}
	twLatest := status.FromTable(tbl, domain.SourceTaiwan)

	stamp := status.Timestamp(time.Now(), loc)
	if err := status.UpdateFile(cfg.Status.ReadmePath, usLatest, twLatest, stamp); err != nil {
		log.Fatalf("status update: %v", err)
	}
	slog.Info("status updated", "path", cfg.Status.ReadmePath,
		"us", usLatest.OK, "taiwan", twLatest.OK, "timestamp", stamp)
}

// fetchUS asks the quote catalog for the last few sessions.
func fetchUS(ctx context.Context, cfg *config.Config) status.Latest {
	loader, err := us.FromConfig(cfg)
	if err != nil {
		slog.Warn("us loader unavailable", "err", err)
		return status.Latest{}
	}
	end := domain.DateOf(time.Now())
	s := loader.Load(ctx, gather.DateRange{Start: end.AddDate(0, 0, -10), End: end})
	return status.FromSeries(s)
}
