package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vixboard/internal/chart"
	"vixboard/internal/config"
	"vixboard/internal/domain"
	"vixboard/internal/gather"
	"vixboard/internal/gather/us"
	"vixboard/internal/status"
	"vixboard/internal/store"
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

	tbl := loadTable(ctx, cfg)
	if tbl.Empty() {
		slog.Warn("no data to plot")
		return
	}

	years := cfg.Chart.LookbackYears
	if err := chart.RenderStatic(tbl, years, cfg.Chart.StaticPath); err != nil {
		log.Fatalf("static chart: %v", err)
	}
	slog.Info("chart saved", "path", cfg.Chart.StaticPath)

	stamp := status.Timestamp(time.Now(), loc)
	if err := chart.RenderInteractiveFile(cfg.Chart.HTMLPath, tbl, years, stamp); err != nil {
		log.Fatalf("interactive chart: %v", err)
	}
	slog.Info("interactive chart saved", "path", cfg.Chart.HTMLPath)
}

// loadTable reads the merged CSV, then the Parquet archive, and finally
// fetches the US series fresh.
func loadTable(ctx context.Context, cfg *config.Config) *table.Table {
	tbl, err := table.ReadFile(cfg.Storage.MergedCSV)
	if err == nil && !tbl.Empty() {
		slog.Info("loaded merged csv", "path", cfg.Storage.MergedCSV, "rows", tbl.Len())
		return tbl
	}
	slog.Warn("merged csv unavailable, trying archive", "path", cfg.Storage.MergedCSV, "err", err)

	end := domain.DateOf(time.Now())
	start := end.AddDate(0, 0, -(cfg.Chart.LookbackYears*365 + 30))

	archive := store.NewParquetStore(cfg.Storage.DataDir)
	sources, err := archive.ListSources(ctx)
	if err != nil {
		slog.Warn("listing archive failed", "err", err)
	}
	var series []domain.Series
	for _, id := range sources {
		s, err := archive.ReadSeries(ctx, id, start, end)
		if err != nil {
			slog.Warn("reading archive failed", "source", id, "err", err)
			continue
		}
		series = append(series, s)
	}
	if tbl := table.Merge(series...); !tbl.Empty() {
		slog.Info("loaded archive", "sources", len(tbl.Columns), "rows", tbl.Len())
		return tbl
	}

	slog.Warn("archive empty, fetching fresh US series")
	loader, err := us.FromConfig(cfg)
	if err != nil {
		slog.Warn("us loader unavailable", "err", err)
		return table.Merge()
	}
	return table.Merge(loader.Load(ctx, gather.DateRange{Start: start, End: end}))
}
