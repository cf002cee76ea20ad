// Package session drives one run of an experiment frame by frame. The same
// session backs the interactive window and the headless runner.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/hans1song/gasdemo/internal/engine"
	"github.com/hans1song/gasdemo/internal/stats"
)

// ErrInvalidOptions is returned by New for a non-positive FPS or time scale
// or a negative time limit.
var ErrInvalidOptions = errors.New("session: invalid options")

// Engine is the part of the physics engine a session reads and steps.
type Engine interface {
	Step(dt float64) error
	Circles(dst []engine.Circle) []engine.Circle
	Sections(dst []engine.Section) []engine.Section
	Counters() engine.Counters
}

// Options fix the pacing of a session.
type Options struct {
	FPS       int     // Frames per second of wall clock time.
	TimeScale float64 // Simulated time per second of wall clock time.
	TimeLimit int     // Length of the run in seconds; zero runs until stopped.
	Velocity  float64 // Initial particle speed, echoed in the summary.
}

// Session owns the frame counter and the histogram of a run.
type Session struct {
	eng  Engine
	hist *stats.Histogram
	opts Options

	frames   int
	circles  []engine.Circle
	sections []engine.Section
	speeds   []float64
}

// New returns a session over an already populated engine.
func New(eng Engine, hist *stats.Histogram, opts Options) (*Session, error) {
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("%w: fps %d", ErrInvalidOptions, opts.FPS)
	}
	if opts.TimeScale <= 0 || math.IsInf(opts.TimeScale, 0) || math.IsNaN(opts.TimeScale) {
		return nil, fmt.Errorf("%w: time scale %v", ErrInvalidOptions, opts.TimeScale)
	}
	if opts.TimeLimit < 0 {
		return nil, fmt.Errorf("%w: time limit %d", ErrInvalidOptions, opts.TimeLimit)
	}
	return &Session{
		eng:      eng,
		hist:     hist,
		opts:     opts,
		sections: eng.Sections(nil),
	}, nil
}

// Advance steps the engine by one frame and folds every particle's speed
// into the histogram.
func (s *Session) Advance() error {
	if err := s.eng.Step(s.opts.TimeScale / float64(s.opts.FPS)); err != nil {
		return fmt.Errorf("frame %d: %w", s.frames, err)
	}
	s.circles = s.eng.Circles(s.circles)
	s.speeds = s.speeds[:0]
	for _, c := range s.circles {
		s.speeds = append(s.speeds, c.Speed())
	}
	s.hist.Observe(s.speeds)
	s.frames++
	return nil
}

// Done reports whether the time limit has been reached.
func (s *Session) Done() bool {
	return s.opts.TimeLimit > 0 && s.frames >= s.opts.TimeLimit*s.opts.FPS
}

// Run advances frame after frame until the time limit is reached or ctx is
// cancelled, in which case it returns the context error.
func (s *Session) Run(ctx context.Context) error {
	for !s.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Advance(); err != nil {
			return err
		}
	}
	return nil
}

// Frames returns the number of frames advanced so far.
func (s *Session) Frames() int { return s.frames }

// Options returns the options the session was created with.
func (s *Session) Options() Options { return s.opts }

// Histogram returns the speed histogram.
func (s *Session) Histogram() *stats.Histogram { return s.hist }

// Counters returns the engine counters.
func (s *Session) Counters() engine.Counters { return s.eng.Counters() }

// Circles returns a fresh snapshot of the circles. The slice is reused by
// the next call.
func (s *Session) Circles() []engine.Circle {
	s.circles = s.eng.Circles(s.circles)
	return s.circles
}

// Sections returns the walls. They do not change during a run.
func (s *Session) Sections() []engine.Section { return s.sections }

// Summary returns the statistics panel figures, if there are any yet.
func (s *Session) Summary() (stats.Summary, bool) {
	return stats.Summarize(s.eng.Counters(), s.frames, s.opts.FPS, s.opts.Velocity, s.hist)
}
