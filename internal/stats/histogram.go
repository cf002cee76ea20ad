// Package stats accumulates the speed distribution of the gas and derives
// the figures shown next to it.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Mode selects how the histogram is filled.
type Mode string

const (
	// ModeAccumulate adds every particle's speed on every frame, so the
	// histogram converges on the equilibrium distribution.
	ModeAccumulate Mode = "accumulate"

	// ModeCurrent rebuilds a coarse histogram from the current speeds every
	// RefreshEvery frames.
	ModeCurrent Mode = "current"
)

// RefreshEvery is the rebuild period of ModeCurrent in frames.
const RefreshEvery = 60

const (
	accumulateBuckets = 1600
	accumulateVMax    = 2000
	accumulateDisplay = 600

	currentBuckets = 8
	currentRound   = 100
)

// ErrUnknownMode is returned by NewHistogram for a mode it does not know.
var ErrUnknownMode = errors.New("stats: unknown histogram mode")

// Histogram is a fixed-size array of speed buckets. Bucket k counts speeds
// that round to k*VMax/len.
type Histogram struct {
	mode    Mode
	buckets []float64
	vmax    float64
	display int

	sum     float64
	samples uint64
	frames  int
}

// NewHistogram returns an empty histogram for mode.
func NewHistogram(mode Mode) (*Histogram, error) {
	switch mode {
	case ModeAccumulate:
		return &Histogram{
			mode:    mode,
			buckets: make([]float64, accumulateBuckets),
			vmax:    accumulateVMax,
			display: accumulateDisplay,
		}, nil
	case ModeCurrent:
		return &Histogram{
			mode:    mode,
			buckets: make([]float64, currentBuckets),
			display: currentBuckets,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// Observe folds one frame worth of particle speeds into the histogram.
func (h *Histogram) Observe(speeds []float64) {
	for _, v := range speeds {
		h.sum += v
		h.samples++
	}

	switch h.mode {
	case ModeAccumulate:
		for _, v := range speeds {
			h.add(v)
		}
	case ModeCurrent:
		if h.frames%RefreshEvery == 0 {
			h.rebuild(speeds)
		}
	}
	h.frames++
}

func (h *Histogram) add(v float64) {
	if h.vmax <= 0 {
		return
	}
	k := int(math.RoundToEven(v * float64(len(h.buckets)) / h.vmax))
	if k < 0 || k >= len(h.buckets) {
		return
	}
	h.buckets[k]++
}

func (h *Histogram) rebuild(speeds []float64) {
	for i := range h.buckets {
		h.buckets[i] = 0
	}
	h.vmax = currentRound
	if len(speeds) > 0 {
		if top := floats.Max(speeds); top > 0 {
			h.vmax = currentRound * math.Ceil(top/currentRound)
		}
	}
	for _, v := range speeds {
		h.add(v)
	}
}

// Mode returns the fill mode.
func (h *Histogram) Mode() Mode { return h.mode }

// Len returns the number of buckets.
func (h *Histogram) Len() int { return len(h.buckets) }

// Display returns how many leading buckets are drawn.
func (h *Histogram) Display() int { return h.display }

// VMax returns the speed that maps to bucket Len().
func (h *Histogram) VMax() float64 { return h.vmax }

// Samples returns the number of speeds observed so far.
func (h *Histogram) Samples() uint64 { return h.samples }

// Buckets returns a copy of the bucket counts.
func (h *Histogram) Buckets() []float64 {
	return append([]float64(nil), h.buckets...)
}

// Count returns bucket k, or zero when k is out of range.
func (h *Histogram) Count(k int) float64 {
	if k < 0 || k >= len(h.buckets) {
		return 0
	}
	return h.buckets[k]
}

// BucketSpeed returns the speed at the centre of bucket k.
func (h *Histogram) BucketSpeed(k int) float64 {
	return float64(k) * h.vmax / float64(len(h.buckets))
}

// DisplayRange returns the speed at the right edge of the drawn buckets.
func (h *Histogram) DisplayRange() float64 {
	return h.BucketSpeed(h.display)
}

// Peak returns the largest count among the drawn buckets.
func (h *Histogram) Peak() float64 {
	n := h.display + 1
	if n > len(h.buckets) {
		n = len(h.buckets)
	}
	return floats.Max(h.buckets[:n])
}

// MeanSpeed returns the mean of every observed speed, including those that
// fell outside the buckets.
func (h *Histogram) MeanSpeed() (float64, bool) {
	if h.samples == 0 {
		return 0, false
	}
	return h.sum / float64(h.samples), true
}

// MostProbableSpeed returns the speed of the fullest bucket.
func (h *Histogram) MostProbableSpeed() float64 {
	return h.BucketSpeed(floats.MaxIdx(h.buckets))
}
