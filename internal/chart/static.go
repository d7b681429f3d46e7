package chart

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"vixboard/internal/table"
)

// RenderStatic draws the lookback window of t to path. The image format
// follows the file extension (.png or .svg).
func RenderStatic(t *table.Table, years int, path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", ".svg":
	default:
		return fmt.Errorf("unsupported chart format %q", ext)
	}

	w, err := Window(t, years)
	if err != nil {
		return err
	}
	p, err := staticPlot(w, years)
	if err != nil {
		return err
	}
	if err := p.Save(16*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func staticPlot(w *table.Table, years int) (*plot.Plot, error) {
	xmin := float64(w.Rows[0].Date.Unix())
	xmax := float64(w.Rows[len(w.Rows)-1].Date.Unix())
	if xmin == xmax {
		xmin -= 86400
	}
	ymax := YMax(w)

	p := plot.New()
	p.Title.Text = Title(years)
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "VIX Value"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	for _, b := range Bands {
		poly, err := plotter.NewPolygon(plotter.XYs{
			{X: xmin, Y: b.Low}, {X: xmax, Y: b.Low},
			{X: xmax, Y: b.High}, {X: xmin, Y: b.High},
		})
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", b.Label, err)
		}
		poly.Color = b.Color
		poly.LineStyle.Width = 0
		p.Add(poly)
		p.Legend.Add(b.Label, poly)
	}

	threshold, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: Threshold}, {X: xmax, Y: Threshold}})
	if err != nil {
		return nil, err
	}
	threshold.Color = thresholdColor
	threshold.Width = vg.Points(3)
	threshold.Dashes = []vg.Length{vg.Points(8), vg.Points(4)}
	p.Add(threshold)

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: xmin, Y: Threshold + 0.5}},
		Labels: []string{" " + ThresholdLabel},
	})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = thresholdColor
	}
	p.Add(labels)

	today, err := plotter.NewLine(plotter.XYs{{X: xmax, Y: 0}, {X: xmax, Y: ymax}})
	if err != nil {
		return nil, err
	}
	today.Color = todayColor
	today.Width = vg.Points(2)
	today.Dashes = []vg.Length{vg.Points(2), vg.Points(3)}
	p.Add(today)
	p.Legend.Add("Today", today)

	for i, id := range w.Columns {
		style := StyleFor(id)
		segments := segmentsOf(w, i)
		for j, seg := range segments {
			l, err := plotter.NewLine(seg)
			if err != nil {
				return nil, fmt.Errorf("series %s: %w", id, err)
			}
			l.Color = style.Color
			l.Width = vg.Points(2)
			if style.Dashed {
				l.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
			}
			p.Add(l)
			if j == 0 {
				p.Legend.Add(style.Label, l)
			}
		}
	}

	p.X.Min, p.X.Max = xmin, xmax
	p.Y.Min, p.Y.Max = 0, ymax
	return p, nil
}

// segmentsOf splits column i into runs of consecutive non-missing values so
// that gaps are not bridged.
func segmentsOf(w *table.Table, i int) []plotter.XYs {
	var (
		out []plotter.XYs
		cur plotter.XYs
	)
	for _, r := range w.Rows {
		v := r.Values[i]
		if math.IsNaN(v) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: float64(r.Date.Unix()), Y: v})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
