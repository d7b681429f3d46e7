// Package store defines the storage interface for archiving daily series and
// its Parquet implementation.
package store

import (
	"context"
	"time"

	"vixboard/internal/domain"
)

// SeriesStore persists and retrieves per-source daily series.
type SeriesStore interface {
	// WriteSeries merges the series into storage. Stored points on the same
	// date are replaced.
	WriteSeries(ctx context.Context, s domain.Series) error

	// ReadSeries returns the stored points of source within [start, end].
	ReadSeries(ctx context.Context, source domain.SourceID, start, end time.Time) (domain.Series, error)

	// ListSources returns every source with stored data, in preference order
	// for known sources and by name for the rest.
	ListSources(ctx context.Context) ([]domain.SourceID, error)
}
