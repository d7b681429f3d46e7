package gather

import (
	"context"
	"log/slog"
	"time"

	"vixboard/internal/domain"
)

// Loader is the interface for all series sources.
type Loader interface {
	// Name returns the loader identifier.
	Name() string
	// Source returns the canonical column the loader produces.
	Source() domain.SourceID
	// Load returns the source's series restricted to r. Failures never
	// surface as errors: they are logged and yield an empty series.
	Load(ctx context.Context, r DateRange) domain.Series
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the calendar date of t lies within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := domain.DateOf(t)
	return !d.Before(domain.DateOf(r.Start)) && !d.After(domain.DateOf(r.End))
}

// FetchFunc is the fallible half of a loader.
type FetchFunc func(ctx context.Context, r DateRange) (domain.Series, error)

// Degrade runs fetch and converts any error into an empty series named
// source, logging it for the operator.
func Degrade(ctx context.Context, log *slog.Logger, source domain.SourceID, r DateRange, fetch FetchFunc) domain.Series {
	s, err := fetch(ctx, r)
	if err != nil {
		log.Warn("source unavailable, continuing without it", "source", source, "err", err)
		return domain.Series{Name: source}
	}
	s = s.Restrict(r.Start, r.End)
	s.Name = source
	if s.Empty() {
		log.Info("no rows in range", "source", source,
			"start", r.Start.Format("2006-01-02"), "end", r.End.Format("2006-01-02"))
		return s
	}
	log.Info("loaded", "source", source, "rows", s.Len())
	return s
}
