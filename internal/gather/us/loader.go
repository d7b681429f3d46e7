// Package us gathers the US volatility index from a quote catalog.
package us

import (
	"context"
	"fmt"
	"log/slog"

	"vixboard/internal/config"
	"vixboard/internal/domain"
	"vixboard/internal/gather"
)

var _ gather.Loader = (*Loader)(nil)

// Loader requests the whole range for one ticker and keeps its daily close.
type Loader struct {
	client QuoteClient
	symbol string
	log    *slog.Logger
}

// NewLoader creates a Loader for symbol backed by client.
func NewLoader(client QuoteClient, symbol string) *Loader {
	return &Loader{
		client: client,
		symbol: symbol,
		log:    slog.Default().With("loader", "us-vix"),
	}
}

// FromConfig builds the Loader for the configured provider.
func FromConfig(cfg *config.Config) (*Loader, error) {
	switch cfg.US.Provider {
	case "", "yahoo":
		return NewLoader(NewYahooClient(cfg.US.YahooURL, cfg.Collect.HTTPTimeout), cfg.US.Symbol), nil
	case "alpaca":
		if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
			return nil, fmt.Errorf("alpaca provider selected but credentials are not set")
		}
		client := NewAlpacaClient(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL,
			cfg.Alpaca.Feed, cfg.Collect.HTTPTimeout)
		return NewLoader(client, cfg.Alpaca.Symbol), nil
	default:
		return nil, fmt.Errorf("unknown us provider %q", cfg.US.Provider)
	}
}

// Name returns the loader identifier.
func (l *Loader) Name() string { return "us-vix" }

// Source returns the column the loader produces.
func (l *Loader) Source() domain.SourceID { return domain.SourceUS }

// Symbol returns the requested ticker.
func (l *Loader) Symbol() string { return l.symbol }

// Load fetches the range, degrading to an empty series on any failure.
func (l *Loader) Load(ctx context.Context, r gather.DateRange) domain.Series {
	return gather.Degrade(ctx, l.log, domain.SourceUS, r, l.Fetch)
}

// Fetch requests the range from the quote client.
func (l *Loader) Fetch(ctx context.Context, r gather.DateRange) (domain.Series, error) {
	l.log.Info("fetching", "symbol", l.symbol,
		"start", r.Start.Format("2006-01-02"), "end", r.End.Format("2006-01-02"))
	points, err := l.client.DailyCloses(ctx, l.symbol, r.Start, r.End)
	if err != nil {
		return domain.Series{}, err
	}
	return domain.NewSeries(domain.SourceUS, points).Restrict(r.Start, r.End), nil
}
