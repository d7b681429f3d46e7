package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"vixboard/internal/table"
)

// RenderInteractive writes a zoomable HTML chart of the lookback window to
// w, with generated shown as the subtitle timestamp.
func RenderInteractive(w io.Writer, t *table.Table, years int, generated string) error {
	win, err := Window(t, years)
	if err != nil {
		return err
	}
	return interactiveChart(win, years, generated).Render(w)
}

// RenderInteractiveFile writes the interactive chart to path.
func RenderInteractiveFile(path string, t *table.Table, years int, generated string) error {
	win, err := Window(t, years)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := interactiveChart(win, years, generated).Render(f); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return f.Close()
}

func interactiveChart(w *table.Table, years int, generated string) *charts.Line {
	dates := make([]string, len(w.Rows))
	for i, r := range w.Rows {
		dates[i] = r.Date.Format("2006-01-02")
	}
	first, last := dates[0], dates[len(dates)-1]

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: Title(years),
			Width:     "100%",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    Title(years),
			Subtitle: "Generated: " + generated,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Left: "center", Top: "40"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "VIX Value", Min: 0, Max: math.Ceil(YMax(w))}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: 100},
			opts.DataZoom{Type: "inside", Start: 0, End: 100},
		),
	)
	line.SetXAxis(dates)

	for i, id := range w.Columns {
		style := StyleFor(id)
		data := make([]opts.LineData, len(w.Rows))
		for j, r := range w.Rows {
			if v := r.Values[i]; !math.IsNaN(v) {
				data[j] = opts.LineData{Value: v}
			} else {
				data[j] = opts.LineData{Value: nil}
			}
		}

		lineStyle := opts.LineStyle{Color: rgba(style.Color), Width: 2}
		if style.Dashed {
			lineStyle.Type = "dashed"
		}
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(false), ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(lineStyle),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: rgba(style.Color)}),
		}
		if i == 0 {
			seriesOpts = append(seriesOpts, zoneOpts(first, last)...)
		}
		line.AddSeries(style.Label, data, seriesOpts...)
	}
	return line
}

// zoneOpts draws the risk bands, the threshold and the newest date on the
// first series.
func zoneOpts(first, last string) []charts.SeriesOpts {
	out := make([]charts.SeriesOpts, 0, len(Bands)+2)
	for _, b := range Bands {
		out = append(out, charts.WithMarkAreaNameCoordItemOpts(opts.MarkAreaNameCoordItem{
			Name:        b.Label,
			Coordinate0: []interface{}{first, b.Low},
			Coordinate1: []interface{}{last, b.High},
			ItemStyle:   &opts.ItemStyle{Color: rgba(b.Color)},
		}))
	}
	out = append(out,
		charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: ThresholdLabel, YAxis: Threshold}),
		charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{Name: "Today", XAxis: last}),
	)
	return out
}
