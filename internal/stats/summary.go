package stats

import (
	"fmt"

	"github.com/hans1song/gasdemo/internal/engine"
)

// Summary holds the figures printed in the statistics panel.
type Summary struct {
	Velocity      float64 // Initial particle speed.
	MeanFreePath  float64
	WallPerSecond float64 // Wall collisions per second of wall clock time.
	SelfPerSecond float64 // Particle collisions per second of wall clock time.
	Seconds       int
	MeanSpeed     float64
	MostProbable  float64
}

// Summarize derives a Summary after frames frames at fps frames per second.
// It reports false until there has been at least one frame and one
// collision.
func Summarize(c engine.Counters, frames, fps int, velocity float64, h *Histogram) (Summary, bool) {
	if c.SelfCollisions+c.WallCollisions == 0 || frames <= 0 || fps <= 0 {
		return Summary{}, false
	}
	lambda, _ := c.MeanFreePath()
	mean, _ := h.MeanSpeed()
	perFrame := float64(fps) / float64(frames)
	return Summary{
		Velocity:      velocity,
		MeanFreePath:  lambda,
		WallPerSecond: float64(c.WallCollisions) * perFrame,
		SelfPerSecond: float64(c.SelfCollisions) * perFrame,
		Seconds:       frames / fps,
		MeanSpeed:     mean,
		MostProbable:  h.MostProbableSpeed(),
	}, true
}

// Lines formats the summary one figure per line, rounded to integers.
func (s Summary) Lines() []string {
	return []string{
		fmt.Sprintf("v = %g", s.Velocity),
		fmt.Sprintf("mean free path = %.0f", s.MeanFreePath),
		fmt.Sprintf("wall collisions per second: %.0f", s.WallPerSecond),
		fmt.Sprintf("particle collisions per second: %.0f", s.SelfPerSecond),
		fmt.Sprintf("time: %d", s.Seconds),
		fmt.Sprintf("mean speed: %.0f", s.MeanSpeed),
		fmt.Sprintf("most probable speed: %.0f", s.MostProbable),
	}
}
