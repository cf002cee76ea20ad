package report

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/hans1song/gasdemo/internal/stats"
)

// ErrEmptyHistogram is returned when there is nothing to draw.
var ErrEmptyHistogram = errors.New("report: histogram is empty")

// MaxwellDensity returns the two dimensional Maxwell speed density with the
// given mean speed. In two dimensions this is a Rayleigh distribution, a
// Weibull with shape 2. It returns nil unless mean is positive and finite,
// since a gas at rest has no such density.
func MaxwellDensity(mean float64) func(float64) float64 {
	if !(mean > 0) || math.IsInf(mean, 1) {
		return nil
	}
	d := distuv.Weibull{K: 2, Lambda: 2 * mean / math.Sqrt(math.Pi)}
	return func(v float64) float64 {
		if v < 0 {
			return 0
		}
		return d.Prob(v)
	}
}

// Density returns the drawn buckets of h normalised to a probability density
// over speed.
func Density(h *stats.Histogram) (plotter.XYs, error) {
	buckets := h.Buckets()
	total := floats.Sum(buckets)
	if total == 0 {
		return nil, ErrEmptyHistogram
	}
	width := h.VMax() / float64(h.Len())

	n := h.Display()
	if n > len(buckets) {
		n = len(buckets)
	}
	pts := make(plotter.XYs, n)
	for k := 0; k < n; k++ {
		pts[k].X = h.BucketSpeed(k)
		pts[k].Y = buckets[k] / (total * width)
	}
	return pts, nil
}

// WritePlot saves the speed distribution of h as a PNG with the Maxwell
// density for the same mean speed drawn over it.
func WritePlot(path string, h *stats.Histogram) error {
	pts, err := Density(h)
	if err != nil {
		return err
	}
	mean, _ := h.MeanSpeed()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Speed distribution (%d samples)", h.Samples())
	p.X.Label.Text = "Speed"
	p.Y.Label.Text = "Probability density"
	p.X.Min = 0
	p.X.Max = h.DisplayRange()

	measured, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("measured line: %w", err)
	}
	measured.Color = color.RGBA{R: 255, A: 255}
	measured.Width = vg.Points(1)
	p.Add(measured)
	p.Legend.Add("measured", measured)

	if density := MaxwellDensity(mean); density != nil {
		fit := plotter.NewFunction(density)
		fit.Samples = 400
		fit.Color = color.RGBA{B: 200, A: 255}
		fit.Width = vg.Points(1.5)
		fit.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(fit)
		p.Legend.Add(fmt.Sprintf("Maxwell, mean %.0f", mean), fit)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
