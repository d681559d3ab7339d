package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotThroughput renders download and upload over time to path. The image
// format follows the file extension (png, svg, pdf, eps, ...).
func PlotThroughput(path, title string, series Series) error {
	if len(series.Download) == 0 && len(series.Upload) == 0 {
		return fmt.Errorf("no data to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = "Mbit/s"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	p.Legend.Top = true

	var lines []any
	if len(series.Download) > 0 {
		lines = append(lines, "download", xys(series.Download))
	}
	if len(series.Upload) > 0 {
		lines = append(lines, "upload", xys(series.Upload))
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return fmt.Errorf("adding lines: %w", err)
	}

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}
	return nil
}

// xys converts points to plot coordinates ordered by time.
func xys(points []Point) plotter.XYs {
	sorted := append([]Point(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	out := make(plotter.XYs, len(sorted))
	for i, pt := range sorted {
		out[i].X = float64(pt.Time.Unix())
		out[i].Y = pt.Value
	}
	return out
}
