package tw

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/text/encoding/traditionalchinese"

	"vixboard/internal/config"
	"vixboard/internal/domain"
	"vixboard/internal/gather"
	"vixboard/internal/util"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// newTestClient points a Client at srv with pacing disabled.
func newTestClient(srv *httptest.Server) *Client {
	return NewClient(config.TaiwanConfig{
		MonthURL:        srv.URL + "/vix/%04d%02dnew.txt",
		FormURL:         srv.URL + "/vixDaily",
		ValueField:      2,
		FormValueColumn: 4,
	}, 5*time.Second)
}

func TestParseMonthFileSkipsBadRows(t *testing.T) {
	body := "20240102\tVIXTWN\t15.37\t15.20\n20240103\tVIXTWN\tN/A\t15.30\n"
	points, err := ParseMonthFile(strings.NewReader(body), 2)
	if err != nil {
		t.Fatalf("ParseMonthFile: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("len = %d, want 1", len(points))
	}
	if !points[0].Date.Equal(day(2024, 1, 2)) || points[0].Value != 15.37 {
		t.Errorf("point = %+v, want 2024-01-02 15.37", points[0])
	}
}

func TestParseMonthFileHeaderAndShortRows(t *testing.T) {
	body := "日期\t商品\t指數\n20240104\t 15.90\n 20240105 \tVIXTWN\t 16.02 \n\n"
	points, err := ParseMonthFile(strings.NewReader(body), 2)
	if err != nil {
		t.Fatalf("ParseMonthFile: %v", err)
	}
	if len(points) != 1 || points[0].Value != 16.02 {
		t.Errorf("points = %+v, want single 16.02", points)
	}
}

func TestParseMonthFileOverlongLineFails(t *testing.T) {
	body := "20240102\tVIXTWN\t15.37\n" + strings.Repeat("x", bufio.MaxScanTokenSize+1) + "\n20240103\tVIXTWN\t15.40\n"
	if _, err := ParseMonthFile(strings.NewReader(body), 2); !errors.Is(err, bufio.ErrTooLong) {
		t.Errorf("err = %v, want bufio.ErrTooLong", err)
	}
}

func TestFetchMonthFileOverlongLineCountsAsFailedMonth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "20240102\tVIXTWN\t15.37\n"+strings.Repeat("x", bufio.MaxScanTokenSize+1)+"\n")
	}))
	defer srv.Close()

	c := newTestClient(srv)
	if _, err := c.FetchMonthFile(context.Background(), util.YearMonth{Year: 2024, Month: time.January}); err == nil {
		t.Error("expected error for a truncated month file")
	}
}

func TestLimiterPacesRequests(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "20240102\tVIXTWN\t15.37\n")
	}))
	defer srv.Close()

	c := NewClient(config.TaiwanConfig{
		MonthURL:        srv.URL + "/vix/%04d%02dnew.txt",
		ValueField:      2,
		RateLimitPerMin: 1,
	}, 5*time.Second)

	ym := util.YearMonth{Year: 2024, Month: time.January}
	if _, err := c.FetchMonthFile(context.Background(), ym); err != nil {
		t.Fatalf("first FetchMonthFile: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if _, err := c.FetchMonthFile(ctx, ym); err == nil {
		t.Fatal("second request within the pacing interval should fail on the deadline")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("limiter blocked for %v instead of aborting", elapsed)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	if _, err := c.FetchMonthFile(cancelled, ym); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled err = %v, want context.Canceled", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hits after cancel = %d, want 1", got)
	}
}

func TestParseTable(t *testing.T) {
	page := `<html><body><table>
<tr><th>日期</th><th>開盤</th><th>最高</th><th>最低</th><th>收盤</th></tr>
<tr><td>2024/03/01</td><td>15.2</td><td>15.9</td><td>14.8</td><td><span>15.37</span></td></tr>
<tr><td>2024/03/04</td><td>15.4</td><td>16.1</td><td>15.0</td><td>-</td></tr>
<tr><td>2024/03/05</td><td>15.4</td><td>16.1</td><td>15.0</td><td> 1,6.40 </td></tr>
</table></body></html>`
	points, err := ParseTable(strings.NewReader(page), 4)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("len = %d, want 2", len(points))
	}
	if points[0].Value != 15.37 || points[1].Value != 16.40 {
		t.Errorf("values = %+v", points)
	}
}

func TestFetchMonthFileOneGoodOneBad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vix/202401new.txt" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "20240102\tVIXTWN\t15.37\n20240103\tVIXTWN\tabc\n")
	}))
	defer srv.Close()

	c := newTestClient(srv)
	points, err := c.FetchMonthFile(context.Background(), util.YearMonth{Year: 2024, Month: time.January})
	if err != nil {
		t.Fatalf("FetchMonthFile: %v", err)
	}
	if len(points) != 1 {
		t.Errorf("len = %d, want 1", len(points))
	}

	if _, err := c.FetchMonthFile(context.Background(), util.YearMonth{Year: 2024, Month: time.February}); err == nil {
		t.Error("expected error for 404 month")
	}
}

func TestLoaderMonthFilesWithGaps(t *testing.T) {
	var formCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vix/202401new.txt":
			fmt.Fprint(w, "20240131\tVIXTWN\t14.00\n20240102\tVIXTWN\t15.37\n")
		case "/vix/202403new.txt":
			fmt.Fprint(w, "20240301\tVIXTWN\t17.10\n20240301\tVIXTWN\t99.00\n")
		case "/vixDaily":
			formCalls.Add(1)
			http.Error(w, "unexpected", http.StatusInternalServerError)
		default:
			http.Error(w, "down", http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	l := NewLoader(newTestClient(srv), nil)
	s, err := l.Fetch(context.Background(), gather.DateRange{Start: day(2024, 1, 2), End: day(2024, 3, 1)})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if formCalls.Load() != 0 {
		t.Errorf("query form called %d times, want 0", formCalls.Load())
	}
	want := []domain.Point{
		{Date: day(2024, 1, 2), Value: 15.37},
		{Date: day(2024, 1, 31), Value: 14.00},
		{Date: day(2024, 3, 1), Value: 17.10},
	}
	if len(s.Points) != len(want) {
		t.Fatalf("points = %+v, want %+v", s.Points, want)
	}
	for i := range want {
		if !s.Points[i].Date.Equal(want[i].Date) || s.Points[i].Value != want[i].Value {
			t.Errorf("point[%d] = %+v, want %+v", i, s.Points[i], want[i])
		}
	}
	if s.Name != domain.SourceTaiwan {
		t.Errorf("Name = %q, want %q", s.Name, domain.SourceTaiwan)
	}
}

func TestLoaderFallsBackToQueryForm(t *testing.T) {
	var (
		mu     sync.Mutex
		months []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vixDaily" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		mu.Lock()
		months = append(months, r.PostForm.Get("queryYear")+r.PostForm.Get("queryMonth"))
		mu.Unlock()
		if r.PostForm.Get("queryMonth") != "05" {
			fmt.Fprint(w, "<html><body><table></table></body></html>")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<table><tr><td>2024/05/02</td><td>1</td><td>2</td><td>3</td><td>18.5</td></tr></table>`)
	}))
	defer srv.Close()

	l := NewLoader(newTestClient(srv), nil)
	s, err := l.Fetch(context.Background(), gather.DateRange{Start: day(2024, 4, 15), End: day(2024, 5, 31)})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if got := strings.Join(months, ","); got != "202404,202405" {
		t.Errorf("form months = %q, want %q", got, "202404,202405")
	}
	if s.Len() != 1 || s.Points[0].Value != 18.5 {
		t.Errorf("points = %+v, want single 18.5", s.Points)
	}
}

func TestLoaderFallsBackToLocalFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	encoded, err := traditionalchinese.Big5.NewEncoder().String("日期,收盤價\n2024/06/03,19.25\n")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "taifex_vix.csv")
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(newTestClient(srv), NewLocalLoader(path))
	s := l.Load(context.Background(), gather.DateRange{Start: day(2024, 6, 1), End: day(2024, 6, 30)})
	if s.Len() != 1 || s.Points[0].Value != 19.25 {
		t.Errorf("points = %+v, want single 19.25", s.Points)
	}
}

func TestLoaderEmptyRangeIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "20240102\tVIXTWN\t15.37\n")
	}))
	defer srv.Close()

	l := NewLoader(newTestClient(srv), nil)
	s, err := l.Fetch(context.Background(), gather.DateRange{Start: day(2024, 1, 10), End: day(2024, 1, 20)})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !s.Empty() {
		t.Errorf("points = %+v, want none", s.Points)
	}
}

func TestLoaderCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "20240102\tVIXTWN\t15.37\n")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLoader(newTestClient(srv), nil)
	if _, err := l.Fetch(ctx, gather.DateRange{Start: day(2024, 1, 1), End: day(2024, 2, 1)}); err == nil {
		t.Error("expected error on cancelled context")
	}
}
