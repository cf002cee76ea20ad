package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/hans1song/gasdemo/internal/stats"
)

// WriteChart saves the speed distribution of h as an interactive HTML bar
// chart with the matching Maxwell density overlaid when the gas is moving.
func WriteChart(path string, h *stats.Histogram) error {
	pts, err := Density(h)
	if err != nil {
		return err
	}
	mean, _ := h.MeanSpeed()
	fit := MaxwellDensity(mean)

	labels := make([]string, 0, len(pts))
	bars := make([]opts.BarData, 0, len(pts))
	var curve []opts.LineData
	for _, pt := range pts {
		labels = append(labels, fmt.Sprintf("%.0f", pt.X))
		bars = append(bars, opts.BarData{Value: pt.Y})
		if fit != nil {
			curve = append(curve, opts.LineData{Value: fit(pt.X)})
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Speed distribution", Theme: "dark", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Speed distribution", Subtitle: fmt.Sprintf("mode=%s samples=%d mean=%.0f", h.Mode(), h.Samples(), mean)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Speed", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Density", NameLocation: "middle", NameGap: 50}),
	)
	bar.SetXAxis(labels).AddSeries("measured", bars)

	if fit != nil {
		line := charts.NewLine()
		line.SetXAxis(labels).AddSeries("Maxwell", curve, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		bar.Overlap(line)
	}

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
