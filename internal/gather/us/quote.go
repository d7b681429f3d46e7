package us

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
	_ "time/tzdata"

	"vixboard/internal/domain"
)

// QuoteClient returns daily closes for a ticker over an inclusive date range.
// Each point's date is the trading day in the exchange's own calendar.
type QuoteClient interface {
	DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]domain.Point, error)
}

var _ QuoteClient = (*YahooClient)(nil)

const userAgent = "Mozilla/5.0 (compatible; vixboard/1.0)"

// ---------------------------------------------------------------------------
// YahooClient — Yahoo Finance v8 chart endpoint.
// ---------------------------------------------------------------------------

// YahooClient reads daily closes from the Yahoo Finance chart API.
type YahooClient struct {
	http    *http.Client
	baseURL string
	log     *slog.Logger
}

// NewYahooClient creates a YahooClient. baseURL is the chart endpoint
// prefix; the escaped symbol is appended to it.
func NewYahooClient(baseURL string, timeout time.Duration) *YahooClient {
	return &YahooClient{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		log:     slog.Default().With("client", "yahoo"),
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// DailyCloses requests the daily chart for symbol. The upstream end bound is
// exclusive, so one day is added to end. Null closes are skipped.
func (c *YahooClient) DailyCloses(ctx context.Context, symbol string, start, end time.Time) ([]domain.Point, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(domain.DateOf(start).Unix(), 10))
	q.Set("period2", strconv.FormatInt(domain.DateOf(end).AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	u := c.baseURL + url.PathEscape(symbol) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding %s (status %d): %w", symbol, resp.StatusCode, err)
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %s", symbol, body.Chart.Error.Code, body.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s: status %d", symbol, resp.StatusCode)
	}
	if len(body.Chart.Result) == 0 {
		return nil, nil
	}

	res := body.Chart.Result[0]
	loc := exchangeLocation(res.Meta.ExchangeTimezoneName)
	if len(res.Indicators.Quote) == 0 {
		return nil, nil
	}
	closes := res.Indicators.Quote[0].Close

	points := make([]domain.Point, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, domain.Point{
			Date:  domain.DateOf(time.Unix(ts, 0).In(loc)),
			Value: *closes[i],
		})
	}
	c.log.Debug("chart fetched", "symbol", symbol, "rows", len(points), "tz", loc.String())
	return points, nil
}

// exchangeLocation resolves the exchange's zone, defaulting to New York.
func exchangeLocation(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}
