package us

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"vixboard/internal/config"
	"vixboard/internal/domain"
	"vixboard/internal/gather"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Three sessions closing 15:00 Chicago (21:00 UTC); the middle close is null.
const chartBody = `{"chart":{"result":[{
  "meta":{"symbol":"^VIX","exchangeTimezoneName":"America/Chicago"},
  "timestamp":[1704229200,1704315600,1704402000],
  "indicators":{"quote":[{"close":[13.2,null,14.06]}]}
}],"error":null}}`

func TestYahooDailyCloses(t *testing.T) {
	var gotPath, gotP1, gotP2 string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotP1 = r.URL.Query().Get("period1")
		gotP2 = r.URL.Query().Get("period2")
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL+"/v8/finance/chart/", 5*time.Second)
	points, err := c.DailyCloses(context.Background(), "^VIX", day(2024, 1, 2), day(2024, 1, 4))
	if err != nil {
		t.Fatalf("DailyCloses: %v", err)
	}

	if gotPath != "/v8/finance/chart/%5EVIX" {
		t.Errorf("path = %q, want %q", gotPath, "/v8/finance/chart/%5EVIX")
	}
	if want := strconv.FormatInt(day(2024, 1, 2).Unix(), 10); gotP1 != want {
		t.Errorf("period1 = %s, want %s", gotP1, want)
	}
	if want := strconv.FormatInt(day(2024, 1, 5).Unix(), 10); gotP2 != want {
		t.Errorf("period2 = %s, want %s (end is exclusive upstream)", gotP2, want)
	}

	if len(points) != 2 {
		t.Fatalf("len = %d, want 2 (null close skipped)", len(points))
	}
	if !points[0].Date.Equal(day(2024, 1, 2)) || points[0].Value != 13.2 {
		t.Errorf("points[0] = %+v", points[0])
	}
	if !points[1].Date.Equal(day(2024, 1, 4)) || points[1].Value != 14.06 {
		t.Errorf("points[1] = %+v", points[1])
	}
}

func TestYahooErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	c := NewYahooClient(srv.URL+"/", 5*time.Second)
	if _, err := c.DailyCloses(context.Background(), "^NOPE", day(2024, 1, 1), day(2024, 1, 31)); err == nil {
		t.Error("expected error for chart error body")
	}
}

func TestLoaderLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	l := NewLoader(NewYahooClient(srv.URL+"/", 5*time.Second), "^VIX")
	s := l.Load(context.Background(), gather.DateRange{Start: day(2024, 1, 3), End: day(2024, 1, 10)})
	if s.Name != domain.SourceUS {
		t.Errorf("Name = %q, want %q", s.Name, domain.SourceUS)
	}
	if s.Len() != 1 || s.Points[0].Value != 14.06 {
		t.Errorf("points = %+v, want single 14.06", s.Points)
	}

	empty := l.Load(context.Background(), gather.DateRange{Start: day(2023, 1, 1), End: day(2023, 1, 31)})
	if !empty.Empty() {
		t.Errorf("range with no rows returned %d points", empty.Len())
	}
}

type failingClient struct{}

func (failingClient) DailyCloses(context.Context, string, time.Time, time.Time) ([]domain.Point, error) {
	return nil, errors.New("connection refused")
}

func TestLoaderDegrades(t *testing.T) {
	l := NewLoader(failingClient{}, "^VIX")
	r := gather.DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 31)}
	if _, err := l.Fetch(context.Background(), r); err == nil {
		t.Error("Fetch should surface the client error")
	}
	if s := l.Load(context.Background(), r); !s.Empty() || s.Name != domain.SourceUS {
		t.Errorf("Load = %+v, want empty US_VIX series", s)
	}
}

func TestBarsToPointsUsesNewYorkDay(t *testing.T) {
	bars := []marketdata.Bar{
		{Timestamp: time.Date(2024, 3, 8, 5, 0, 0, 0, time.UTC), Close: 12.5},
		{Timestamp: time.Date(2024, 3, 12, 4, 0, 0, 0, time.UTC), Close: 12.9},
	}
	points := barsToPoints(bars)
	if len(points) != 2 {
		t.Fatalf("len = %d, want 2", len(points))
	}
	if !points[0].Date.Equal(day(2024, 3, 8)) || !points[1].Date.Equal(day(2024, 3, 12)) {
		t.Errorf("dates = %v, %v", points[0].Date, points[1].Date)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	l, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig(yahoo): %v", err)
	}
	if l.Symbol() != "^VIX" {
		t.Errorf("Symbol() = %q, want %q", l.Symbol(), "^VIX")
	}

	cfg.US.Provider = "alpaca"
	if _, err := FromConfig(cfg); err == nil {
		t.Error("alpaca without credentials should fail")
	}

	cfg.Alpaca.APIKey, cfg.Alpaca.APISecret = "key", "secret"
	l, err = FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig(alpaca): %v", err)
	}
	if l.Symbol() != "VIXY" {
		t.Errorf("Symbol() = %q, want %q", l.Symbol(), "VIXY")
	}
}
