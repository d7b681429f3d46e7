package us

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"vixboard/internal/domain"
)

var _ QuoteClient = (*AlpacaClient)(nil)

// ---------------------------------------------------------------------------
// AlpacaClient — daily bars from the Alpaca market-data API.
// ---------------------------------------------------------------------------

// AlpacaClient reads daily closes through the Alpaca market-data API.
// Alpaca does not carry the CBOE index itself, so it is pointed at an
// exchange-traded proxy such as VIXY.
type AlpacaClient struct {
	client *marketdata.Client
	feed   string
	log    *slog.Logger
}

// NewAlpacaClient creates an AlpacaClient with the given credentials. An
// empty dataURL keeps the SDK default.
func NewAlpacaClient(apiKey, apiSecret, dataURL, feed string, timeout time.Duration) *AlpacaClient {
	opts := marketdata.ClientOpts{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &AlpacaClient{
		client: marketdata.NewClient(opts),
		feed:   feed,
		log:    slog.Default().With("client", "alpaca"),
	}
}

// DailyCloses fetches daily bars for symbol between start and end.
func (c *AlpacaClient) DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]domain.Point, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	bars, err := c.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     domain.DateOf(start),
		End:       domain.DateOf(end).AddDate(0, 0, 1),
		Feed:      marketdata.Feed(c.feed),
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}

	c.log.Debug("bars fetched", "symbol", symbol, "rows", len(bars))
	return barsToPoints(bars), nil
}

// barsToPoints keeps each bar's close, dated by the New York trading day.
func barsToPoints(bars []marketdata.Bar) []domain.Point {
	et := exchangeLocation("America/New_York")
	points := make([]domain.Point, 0, len(bars))
	for _, b := range bars {
		points = append(points, domain.Point{
			Date:  domain.DateOf(b.Timestamp.In(et)),
			Value: b.Close,
		})
	}
	return points
}
