// Package render draws a frame of the simulation with Ebiten: the particles,
// the walls, the speed histogram and the statistics panel.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/hans1song/gasdemo/internal/engine"
	"github.com/hans1song/gasdemo/internal/render/layout"
	"github.com/hans1song/gasdemo/internal/stats"
)

// Rendering colors.
var (
	background = color.RGBA{0, 0, 0, 255}
	white      = color.RGBA{255, 255, 255, 255}
	red        = color.RGBA{255, 0, 0, 255}
	tracer     = color.RGBA{255, 255, 245, 255} // Circle 0, the heavy particle.
)

const ringWidth = 3

// Frame is everything drawn on one screen.
type Frame struct {
	Circles   []engine.Circle
	Sections  []engine.Section
	Histogram *stats.Histogram
	Frames    int

	// Summary is drawn only when HasSummary is set.
	Summary    stats.Summary
	HasSummary bool
}

// Scene holds the drawing resources.
type Scene struct {
	face    font.Face
	ascent  int
	showFPS bool
}

// NewScene returns a scene using the built-in bitmap font.
func NewScene(showFPS bool) *Scene {
	face := basicfont.Face7x13
	return &Scene{
		face:    face,
		ascent:  face.Metrics().Ascent.Ceil(),
		showFPS: showFPS,
	}
}

// Draw renders f onto screen.
func (s *Scene) Draw(screen *ebiten.Image, f Frame) {
	screen.Fill(background)

	for i, c := range f.Circles {
		clr := red
		if i == 0 {
			clr = tracer
		}
		vector.StrokeCircle(screen, float32(c.X), float32(c.Y), float32(math.Abs(c.R)), ringWidth, clr, true)
	}
	for _, sec := range f.Sections {
		s.line(screen, layout.Segment{X1: sec.X1, Y1: sec.Y1, X2: sec.X2, Y2: sec.Y2}, white)
	}

	for _, seg := range layout.Outline(layout.HistogramPanel) {
		s.line(screen, seg, white)
	}
	if f.Histogram != nil {
		for _, l := range layout.AxisLabels(f.Histogram, layout.HistogramPanel) {
			s.label(screen, l, white)
		}
		for _, seg := range layout.HistogramSegments(f.Histogram, layout.HistogramPanel) {
			s.line(screen, seg, red)
		}
	}

	for _, seg := range layout.Outline(layout.StatsPanel) {
		s.line(screen, seg, white)
	}
	if f.HasSummary {
		for _, l := range layout.PanelLines(f.Summary.Lines(), layout.StatsPanel) {
			s.label(screen, l, white)
		}
	}

	if s.showFPS {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%2.0f FPS  frame %d", ebiten.ActualFPS(), f.Frames), 110, 4)
	}
}

func (s *Scene) line(screen *ebiten.Image, seg layout.Segment, clr color.Color) {
	vector.StrokeLine(screen, float32(seg.X1), float32(seg.Y1), float32(seg.X2), float32(seg.Y2), 1, clr, false)
}

func (s *Scene) label(screen *ebiten.Image, l layout.Label, clr color.Color) {
	width := text.BoundString(s.face, l.Text).Dx()
	x := int(math.Round(l.Anchor(float64(width))))
	y := int(math.Round(l.Y)) + s.ascent
	text.Draw(screen, l.Text, s.face, x, y, clr)
}

// Capture copies the pixels of img into an image.RGBA. It must be called
// from Draw.
func Capture(img *ebiten.Image) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	img.ReadPixels(rgba.Pix)
	return rgba
}
