package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"vixboard/internal/domain"
)

// Compile-time interface check.
var _ SeriesStore = (*ParquetStore)(nil)

// ParquetStore implements SeriesStore using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record type (on-disk schema)
// ---------------------------------------------------------------------------

// PointRecord is the Parquet schema for one daily value.
type PointRecord struct {
	Source string  `parquet:"source"`
	Date   int64   `parquet:"date,timestamp(millisecond)"` // Unix ms, midnight UTC
	Value  float64 `parquet:"value"`
}

// ---------------------------------------------------------------------------
// SeriesStore implementation
// ---------------------------------------------------------------------------

// WriteSeries writes the series to one Parquet file per year at:
//
//	<DataDir>/vix/<SOURCE>/<YYYY>.parquet
func (s *ParquetStore) WriteSeries(ctx context.Context, series domain.Series) error {
	if series.Empty() {
		return nil
	}
	if series.Name == "" {
		return errors.New("writing series: empty source name")
	}

	groups := make(map[int][]PointRecord)
	for _, p := range series.Points {
		d := domain.DateOf(p.Date)
		groups[d.Year()] = append(groups[d.Year()], PointRecord{
			Source: string(series.Name),
			Date:   d.UnixMilli(),
			Value:  p.Value,
		})
	}

	years := make([]int, 0, len(groups))
	for y := range groups {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, year := range years {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := s.seriesPath(series.Name, year)

		existing, err := readParquetFile[PointRecord](path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		merged := mergePointRecords(existing, groups[year])

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing %s/%d: %w", series.Name, year, err)
		}
	}
	return nil
}

// ReadSeries reads the year files covering [start, end].
func (s *ParquetStore) ReadSeries(ctx context.Context, source domain.SourceID, start, end time.Time) (domain.Series, error) {
	start, end = domain.DateOf(start), domain.DateOf(end)

	var points []domain.Point
	for year := start.Year(); year <= end.Year(); year++ {
		if err := ctx.Err(); err != nil {
			return domain.Series{}, err
		}
		records, err := readParquetFile[PointRecord](s.seriesPath(source, year))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return domain.Series{}, fmt.Errorf("reading %s/%d: %w", source, year, err)
		}

		for _, r := range records {
			d := time.UnixMilli(r.Date).UTC()
			if d.Before(start) || d.After(end) {
				continue
			}
			points = append(points, domain.Point{Date: d, Value: r.Value})
		}
	}
	return domain.NewSeries(source, points), nil
}

// ListSources lists the source directories under <DataDir>/vix.
func (s *ParquetStore) ListSources(_ context.Context) ([]domain.SourceID, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "vix"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	rank := make(map[domain.SourceID]int, len(domain.SourceOrder))
	for i, id := range domain.SourceOrder {
		rank[id] = i
	}

	var sources []domain.SourceID
	for _, e := range entries {
		if e.IsDir() {
			sources = append(sources, domain.SourceID(e.Name()))
		}
	}
	sort.Slice(sources, func(i, j int) bool {
		ri, iKnown := rank[sources[i]]
		rj, jKnown := rank[sources[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return sources[i] < sources[j]
		}
	})
	return sources, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// seriesPath returns the filesystem path for one source-year file.
// Layout: <dataDir>/vix/<SOURCE>/<YYYY>.parquet
func (s *ParquetStore) seriesPath(source domain.SourceID, year int) string {
	return filepath.Join(s.DataDir, "vix", strings.TrimSpace(string(source)), strconv.Itoa(year)+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergePointRecords deduplicates records by date, preferring incoming
// records over existing ones. Results are sorted by date.
func mergePointRecords(existing, incoming []PointRecord) []PointRecord {
	seen := make(map[int64]PointRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Date] = r
	}
	for _, r := range incoming {
		seen[r.Date] = r
	}

	merged := make([]PointRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date < merged[j].Date
	})
	return merged
}
