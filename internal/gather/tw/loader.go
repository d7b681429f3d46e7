package tw

import (
	"context"
	"log/slog"

	"vixboard/internal/domain"
	"vixboard/internal/gather"
	"vixboard/internal/gather/localfile"
	"vixboard/internal/util"
)

var _ gather.Loader = (*Loader)(nil)

// DownloadURL is where the operator fetches the fallback CSV by hand.
const DownloadURL = "https://www.taifex.com.tw/cht/3/vixDataDown"

// NewLocalLoader returns the fallback loader for a manually downloaded
// TAIFEX CSV: Big5 with UTF-8 as a fallback, columns found by header.
func NewLocalLoader(path string) *localfile.Loader {
	return localfile.New(localfile.Options{
		Name:      "tw-vix-local",
		Source:    domain.SourceTaiwan,
		Path:      path,
		Encodings: []localfile.Encoding{localfile.Big5, localfile.UTF8},
		Layout:    localfile.LayoutHeader,
		Hint:      DownloadURL,
	})
}

// monthFetcher is one scrape pass.
type monthFetcher func(ctx context.Context, ym util.YearMonth) ([]domain.Point, error)

// ---------------------------------------------------------------------------
// Loader — month-by-month scrape with a local-file fallback.
// ---------------------------------------------------------------------------

// Loader scrapes VIXTWN month by month.
type Loader struct {
	client *Client
	local  *localfile.Loader
	log    *slog.Logger
}

// NewLoader creates a Loader. local may be nil to disable the fallback.
func NewLoader(client *Client, local *localfile.Loader) *Loader {
	return &Loader{
		client: client,
		local:  local,
		log:    slog.Default().With("loader", "tw-vix"),
	}
}

// Name returns the loader identifier.
func (l *Loader) Name() string { return "tw-vix" }

// Source returns the column the loader produces.
func (l *Loader) Source() domain.SourceID { return domain.SourceTaiwan }

// Load scrapes the range, degrading to an empty series on any failure.
func (l *Loader) Load(ctx context.Context, r gather.DateRange) domain.Series {
	return gather.Degrade(ctx, l.log, domain.SourceTaiwan, r, l.Fetch)
}

// Fetch tries the month files, then the query form only when the month
// files produced nothing, then the local file.
func (l *Loader) Fetch(ctx context.Context, r gather.DateRange) (domain.Series, error) {
	points, err := l.scrape(ctx, r, "month-file", l.client.FetchMonthFile)
	if err != nil {
		return domain.Series{}, err
	}
	if len(points) == 0 {
		l.log.Info("month files empty, trying query form")
		points, err = l.scrape(ctx, r, "query-form", l.client.QueryMonth)
		if err != nil {
			return domain.Series{}, err
		}
	}
	if len(points) == 0 && l.local != nil {
		l.log.Info("scrape found no rows, falling back to local file")
		return l.local.Fetch(ctx, r)
	}
	return domain.NewSeries(domain.SourceTaiwan, points).Restrict(r.Start, r.End), nil
}

// scrape runs fetch for every month of r, oldest first. A failed month
// contributes no rows; only cancellation aborts the pass.
func (l *Loader) scrape(ctx context.Context, r gather.DateRange, pass string, fetch monthFetcher) ([]domain.Point, error) {
	var (
		points []domain.Point
		months int
		failed int
	)
	for ym := range util.Months(r.Start, r.End) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		months++
		got, err := fetch(ctx, ym)
		if err != nil {
			failed++
			l.log.Debug("month skipped", "pass", pass, "month", ym.String(), "err", err)
			continue
		}
		points = append(points, got...)
	}
	l.log.Info("scrape pass done", "pass", pass, "months", months, "failed", failed, "rows", len(points))
	return points, nil
}
