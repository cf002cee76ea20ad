// Package layout computes where the histogram and statistics panels go on
// the 1920x1080 logical screen. It has no graphics dependency so it can be
// tested without a display.
package layout

import (
	"fmt"

	"github.com/hans1song/gasdemo/internal/stats"
)

// Rect is an axis-aligned box in screen coordinates.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// Segment is a straight line in screen coordinates.
type Segment struct {
	X1, Y1, X2, Y2 float64
}

// Align is the horizontal anchor of a Label.
type Align int

// Label anchors: the X of a label is its left edge, centre or right edge.
const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Label is a line of text anchored by its top edge at Y.
type Label struct {
	Text  string
	X, Y  float64
	Align Align
}

// Panels on the right of the 1920x1080 screen.
var (
	// HistogramPanel frames the speed histogram.
	HistogramPanel = Rect{X1: 1080, Y1: 40, X2: 1880, Y2: 520}

	// StatsPanel frames the summary lines.
	StatsPanel = Rect{X1: 1080, Y1: 560, X2: 1880, Y2: 1040}
)

const (
	// headroom keeps the tallest bar below the top edge of the panel.
	headroom    = 40
	labelGap    = 4
	padding     = 10
	lineSpacing = 30
)

// Outline returns the four edges of r.
func Outline(r Rect) []Segment {
	return []Segment{
		{r.X1, r.Y1, r.X1, r.Y2},
		{r.X2, r.Y1, r.X2, r.Y2},
		{r.X1, r.Y1, r.X2, r.Y1},
		{r.X2, r.Y2, r.X1, r.Y2},
	}
}

// HistogramSegments returns one horizontal segment per drawn bucket, at a
// height proportional to its count relative to the peak. It returns nil
// while the drawn buckets are empty.
func HistogramSegments(h *stats.Histogram, box Rect) []Segment {
	peak := h.Peak()
	n := h.Display()
	if peak <= 0 || n <= 0 {
		return nil
	}

	width := (box.X2 - box.X1) / float64(n)
	usable := box.Y2 - box.Y1 - headroom
	segs := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		y := box.Y2 - usable*h.Count(i)/peak
		segs = append(segs, Segment{
			X1: box.X1 + float64(i)*width,
			Y1: y,
			X2: box.X1 + float64(i+1)*width,
			Y2: y,
		})
	}
	return segs
}

// AxisLabels returns the speed labels under the histogram: zero at the left
// edge, half the drawn range in the middle and the full range at the right.
func AxisLabels(h *stats.Histogram, box Rect) []Label {
	top := h.DisplayRange()
	y := box.Y2 + labelGap
	return []Label{
		{Text: "0", X: box.X1, Y: y, Align: AlignLeft},
		{Text: fmt.Sprintf("%.0f", top/2), X: (box.X1 + box.X2) / 2, Y: y, Align: AlignCenter},
		{Text: fmt.Sprintf("%.0f", top), X: box.X2, Y: y, Align: AlignRight},
	}
}

// PanelLines stacks lines inside box from the top left corner.
func PanelLines(lines []string, box Rect) []Label {
	labels := make([]Label, 0, len(lines))
	for i, line := range lines {
		labels = append(labels, Label{
			Text: line,
			X:    box.X1 + padding,
			Y:    box.Y1 + padding + lineSpacing*float64(i),
		})
	}
	return labels
}

// Anchor returns the left edge of a label of the given rendered width.
func (l Label) Anchor(width float64) float64 {
	switch l.Align {
	case AlignCenter:
		return l.X - width/2
	case AlignRight:
		return l.X - width
	default:
		return l.X
	}
}
