// Package collect runs every source loader once, merges the results and
// writes the merged artifacts.
package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vixboard/internal/config"
	"vixboard/internal/domain"
	"vixboard/internal/gather"
	"vixboard/internal/gather/jp"
	"vixboard/internal/gather/tw"
	"vixboard/internal/gather/us"
	"vixboard/internal/store"
	"vixboard/internal/table"
)

// ErrNoData is returned when every loader came back empty. Nothing is
// written in that case.
var ErrNoData = errors.New("no data collected")

// BuildLoaders returns the configured loaders in merge preference order.
func BuildLoaders(cfg *config.Config) ([]gather.Loader, error) {
	usLoader, err := us.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("us loader: %w", err)
	}
	twClient := tw.NewClient(cfg.Taiwan, cfg.Collect.HTTPTimeout)
	return []gather.Loader{
		usLoader,
		jp.NewLoader(cfg.Japan.File),
		tw.NewLoader(twClient, tw.NewLocalLoader(cfg.Taiwan.File)),
	}, nil
}

// Range returns the collection range: the configured start date through
// the calendar date of now.
func Range(cfg *config.Config, now time.Time) (gather.DateRange, error) {
	start, err := cfg.StartDate()
	if err != nil {
		return gather.DateRange{}, err
	}
	return gather.DateRange{Start: start, End: domain.DateOf(now)}, nil
}

// Collector runs loaders sequentially and emits the merged table.
type Collector struct {
	loaders []gather.Loader
	csvPath string
	archive store.SeriesStore
	log     *slog.Logger
}

// New creates a Collector writing the merged CSV to csvPath. archive may be
// nil to skip archiving.
func New(loaders []gather.Loader, csvPath string, archive store.SeriesStore) *Collector {
	return &Collector{
		loaders: loaders,
		csvPath: csvPath,
		archive: archive,
		log:     slog.Default().With("component", "collect"),
	}
}

// Run loads every source over r, one after another, merges them in loader
// order and writes the CSV. Archive failures are logged and do not fail the
// run.
func (c *Collector) Run(ctx context.Context, r gather.DateRange) (*table.Table, error) {
	c.log.Info("collecting",
		"start", r.Start.Format("2006-01-02"), "end", r.End.Format("2006-01-02"),
		"loaders", len(c.loaders))

	series := make([]domain.Series, 0, len(c.loaders))
	for _, l := range c.loaders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := l.Load(ctx, r)
		c.log.Info("loader finished", "loader", l.Name(), "source", s.Name, "rows", s.Len())
		series = append(series, s)
	}

	tbl := table.Merge(series...)
	if tbl.Empty() {
		c.log.Warn("no data collected, nothing written")
		return tbl, ErrNoData
	}

	if err := tbl.WriteFile(c.csvPath); err != nil {
		return nil, fmt.Errorf("writing merged csv: %w", err)
	}
	last, _ := tbl.LastDate()
	c.log.Info("merged csv written", "path", c.csvPath, "rows", tbl.Len(),
		"columns", len(tbl.Columns), "last", last.Format("2006-01-02"))
	for _, st := range tbl.Describe() {
		c.log.Info("column summary", "source", st.Name, "count", st.Count,
			"first", st.First.Format("2006-01-02"), "last", st.Last.Format("2006-01-02"),
			"min", st.Min, "max", st.Max, "mean", st.Mean)
	}

	if c.archive != nil {
		for _, s := range series {
			if s.Empty() {
				continue
			}
			if err := c.archive.WriteSeries(ctx, s); err != nil {
				c.log.Warn("archiving series failed", "source", s.Name, "err", err)
			}
		}
	}
	return tbl, nil
}
