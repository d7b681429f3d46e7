// Package tw gathers the TAIFEX Taiwan Volatility Index (VIXTWN).
//
// TAIFEX has no history API. The loader scrapes one calendar month at a
// time, first from the published tab-delimited month files and then from the
// daily query form, and falls back to a manually downloaded CSV when neither
// yields a row.
package tw

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"vixboard/internal/config"
	"vixboard/internal/domain"
	"vixboard/internal/gather/localfile"
	"vixboard/internal/util"
)

// Form fields posted to the daily query page.
const (
	formYearField  = "queryYear"
	formMonthField = "queryMonth"
)

const userAgent = "Mozilla/5.0 (compatible; vixboard/1.0)"

// ---------------------------------------------------------------------------
// Client — low-level HTTP client for the TAIFEX VIX endpoints.
// ---------------------------------------------------------------------------

// Client retrieves one month of VIXTWN closes per call.
type Client struct {
	http            *http.Client
	monthURL        string
	formURL         string
	valueField      int
	formValueColumn int
	limiter         *rate.Limiter
	log             *slog.Logger
}

// NewClient creates a Client from the Taiwan configuration. Requests are
// paced to cfg.RateLimitPerMin; zero or less disables pacing.
func NewClient(cfg config.TaiwanConfig, timeout time.Duration) *Client {
	limit := rate.Inf
	if cfg.RateLimitPerMin > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RateLimitPerMin))
	}
	return &Client{
		http:            &http.Client{Timeout: timeout},
		monthURL:        cfg.MonthURL,
		formURL:         cfg.FormURL,
		valueField:      cfg.ValueField,
		formValueColumn: cfg.FormValueColumn,
		limiter:         rate.NewLimiter(limit, 1),
		log:             slog.Default().With("client", "taifex"),
	}
}

// MonthFileURL returns the month file address for ym.
func (c *Client) MonthFileURL(ym util.YearMonth) string {
	return fmt.Sprintf(c.monthURL, ym.Year, int(ym.Month))
}

// FetchMonthFile downloads the tab-delimited file for ym. Field 0 holds a
// YYYYMMDD date and field valueField the close; other rows are skipped.
func (c *Client) FetchMonthFile(ctx context.Context, ym util.YearMonth) ([]domain.Point, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.MonthFileURL(ym), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	text, _, err := localfile.Decode(body, []localfile.Encoding{localfile.UTF8, localfile.Big5})
	if err != nil {
		return nil, fmt.Errorf("month %s: %w", ym, err)
	}
	points, err := ParseMonthFile(strings.NewReader(text), c.valueField)
	if err != nil {
		return nil, fmt.Errorf("month %s: %w", ym, err)
	}
	return points, nil
}

// QueryMonth posts the daily query form for ym and parses the result table.
func (c *Client) QueryMonth(ctx context.Context, ym util.YearMonth) ([]domain.Point, error) {
	form := url.Values{}
	form.Set(formYearField, strconv.Itoa(ym.Year))
	form.Set(formMonthField, fmt.Sprintf("%02d", int(ym.Month)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.formURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("month %s: detecting charset: %w", ym, err)
	}
	points, err := ParseTable(r, c.formValueColumn)
	if err != nil {
		return nil, fmt.Errorf("month %s: %w", ym, err)
	}
	return points, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.URL, err)
	}
	return body, nil
}

// send waits for the limiter and performs req, rejecting non-2xx replies.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: status %d", req.Method, req.URL, resp.StatusCode)
	}
	c.log.Debug("fetched", "method", req.Method, "url", req.URL.String())
	return resp, nil
}

// ---------------------------------------------------------------------------
// Parsers
// ---------------------------------------------------------------------------

// ParseMonthFile reads tab-delimited rows. Rows whose first field is not a
// YYYYMMDD date or whose valueField is not numeric are skipped. A read
// failure, including an over-long line, fails the whole file.
func ParseMonthFile(r io.Reader, valueField int) ([]domain.Point, error) {
	var points []domain.Point
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) <= valueField {
			continue
		}
		date, err := time.Parse("20060102", strings.TrimSpace(fields[0]))
		if err != nil {
			continue
		}
		value, ok := parseNumber(fields[valueField])
		if !ok {
			continue
		}
		points = append(points, domain.Point{Date: date, Value: value})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning month file: %w", err)
	}
	return points, nil
}

// ParseTable walks an HTML document and reads every table row whose first
// cell is a date and whose valueColumn cell is numeric.
func ParseTable(r io.Reader, valueColumn int) ([]domain.Point, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	var points []domain.Point
	for row := range doc.Descendants() {
		if row.Type != html.ElementNode || row.Data != "tr" {
			continue
		}
		cells := rowCells(row)
		if len(cells) <= valueColumn {
			continue
		}
		date, err := util.ParseDate(cells[0])
		if err != nil {
			continue
		}
		value, ok := parseNumber(cells[valueColumn])
		if !ok {
			continue
		}
		points = append(points, domain.Point{Date: date, Value: value})
	}
	return points, nil
}

// rowCells returns the trimmed text of the td and th children of a row.
func rowCells(tr *html.Node) []string {
	var cells []string
	for cell := range tr.ChildNodes() {
		if cell.Type != html.ElementNode || (cell.Data != "td" && cell.Data != "th") {
			continue
		}
		cells = append(cells, strings.TrimSpace(nodeText(cell)))
	}
	return cells
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for d := range n.Descendants() {
		if d.Type == html.TextNode {
			b.WriteString(d.Data)
		}
	}
	return b.String()
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
