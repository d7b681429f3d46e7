// Package localfile loads a daily series from a manually downloaded CSV file
// whose encoding and column headers vary by provider.
package localfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"vixboard/internal/domain"
	"vixboard/internal/gather"
	"vixboard/internal/util"
)

var _ gather.Loader = (*Loader)(nil)

var (
	ErrNotFound       = errors.New("local file not found")
	ErrUndecodable    = errors.New("no candidate encoding decodes the file")
	ErrUnknownColumns = errors.New("could not identify date and close columns")
)

// Layout selects how columns are identified.
type Layout int

const (
	// LayoutPositional treats the first five columns as date, open, high,
	// low, close regardless of their header text.
	LayoutPositional Layout = iota
	// LayoutHeader identifies the date and close columns by header lookup.
	LayoutHeader
)

// Options describes one local source.
type Options struct {
	Name      string
	Source    domain.SourceID
	Path      string
	Encodings []Encoding
	Layout    Layout
	Hint      string // where the operator can download the file
}

// Loader reads a series from a CSV file on disk.
type Loader struct {
	opts Options
	log  *slog.Logger
}

// New creates a Loader for the given options.
func New(opts Options) *Loader {
	return &Loader{
		opts: opts,
		log:  slog.Default().With("loader", opts.Name),
	}
}

// Name returns the loader identifier.
func (l *Loader) Name() string { return l.opts.Name }

// Source returns the column the loader produces.
func (l *Loader) Source() domain.SourceID { return l.opts.Source }

// Load reads the file, degrading to an empty series on any failure.
func (l *Loader) Load(ctx context.Context, r gather.DateRange) domain.Series {
	return gather.Degrade(ctx, l.log, l.opts.Source, r, l.Fetch)
}

// Fetch reads, decodes and parses the file and restricts it to r.
func (l *Loader) Fetch(_ context.Context, r gather.DateRange) (domain.Series, error) {
	data, err := os.ReadFile(l.opts.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.log.Warn("file not found, download it manually", "path", l.opts.Path, "url", l.opts.Hint)
			return domain.Series{}, fmt.Errorf("%w: %s", ErrNotFound, l.opts.Path)
		}
		return domain.Series{}, fmt.Errorf("reading %s: %w", l.opts.Path, err)
	}

	text, enc, err := Decode(data, l.opts.Encodings)
	if err != nil {
		return domain.Series{}, fmt.Errorf("decoding %s: %w", l.opts.Path, err)
	}
	l.log.Debug("decoded", "path", l.opts.Path, "encoding", enc.Name)

	points, err := Parse(strings.NewReader(text), l.opts.Layout)
	if err != nil {
		return domain.Series{}, fmt.Errorf("parsing %s: %w", l.opts.Path, err)
	}

	return domain.NewSeries(l.opts.Source, points).Restrict(r.Start, r.End), nil
}

// Parse reads CSV text with a header row and returns its (date, close)
// points. Rows with an unparseable date or close are dropped.
func Parse(r io.Reader, layout Layout) ([]domain.Point, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var (
		idx columnIndex
		ok  bool
	)
	switch layout {
	case LayoutHeader:
		idx, ok = resolveHeader(header)
	default:
		idx, ok = resolvePositional(header)
	}
	if !ok {
		return nil, fmt.Errorf("%w; columns found: %q", ErrUnknownColumns, header)
	}

	var points []domain.Point
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, err
		}
		if len(record) <= idx.date || len(record) <= idx.close {
			continue
		}

		date, err := util.ParseDate(record[idx.date])
		if err != nil {
			continue
		}
		value, ok := parseValue(record[idx.close])
		if !ok {
			continue
		}
		points = append(points, domain.Point{Date: date, Value: value})
	}
	return points, nil
}

// parseValue parses a decimal that may carry thousands separators.
func parseValue(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(strings.Trim(s, `"`)), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
