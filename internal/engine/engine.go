// Package engine implements a two-dimensional hard-disk gas: circles that
// move ballistically between elastic collisions with each other and with
// fixed wall sections.
//
// The engine keeps a small set of global counters (collisions between
// circles, collisions with walls, and the total distance travelled by all
// circles) that callers read to derive mean free path and collision rates.
//
// An Engine is not safe for concurrent use. Step fans work out to a pool of
// goroutines internally but returns only after all of them have joined.
package engine

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrIndexOutOfRange is returned by the record accessors.
	ErrIndexOutOfRange = errors.New("engine: index out of range")

	// ErrInvalidCircle is returned by AddCircle for a non-positive radius or
	// mass, or for non-finite values.
	ErrInvalidCircle = errors.New("engine: invalid circle")

	// ErrInvalidSection is returned by AddSection for non-finite coordinates.
	ErrInvalidSection = errors.New("engine: invalid section")

	// ErrInvalidTimeStep is returned by Step for a negative or non-finite dt.
	ErrInvalidTimeStep = errors.New("engine: invalid time step")
)

// Circle is a snapshot of a single particle.
type Circle struct {
	X, Y   float64 // Centre.
	R      float64 // Radius.
	VX, VY float64 // Velocity.
	M      float64 // Mass.
}

// Speed returns the magnitude of the circle's velocity.
func (c Circle) Speed() float64 {
	return math.Hypot(c.VX, c.VY)
}

func (c *Circle) pos() r2.Vec { return r2.Vec{X: c.X, Y: c.Y} }
func (c *Circle) vel() r2.Vec { return r2.Vec{X: c.VX, Y: c.VY} }

func (c *Circle) setPos(p r2.Vec) { c.X, c.Y = p.X, p.Y }
func (c *Circle) setVel(v r2.Vec) { c.VX, c.VY = v.X, v.Y }

// Section is a wall segment between two endpoints. Circles bounce off
// either side.
type Section struct {
	X1, Y1 float64
	X2, Y2 float64
}

func (s Section) ends() (r2.Vec, r2.Vec) {
	return r2.Vec{X: s.X1, Y: s.Y1}, r2.Vec{X: s.X2, Y: s.Y2}
}

// Counters are the engine-global statistics accumulated by Step.
type Counters struct {
	SelfCollisions uint64  // Circle-circle collisions.
	WallCollisions uint64  // Circle-section collisions.
	Distance       float64 // Path length travelled by all circles.
}

// Engine owns the simulated circles and sections.
type Engine struct {
	circles  []Circle
	sections []Section
	counters Counters

	workers    int
	microsteps int

	grid   grid
	strips [][]pair
	hits   []uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the number of goroutines used by Step. Values below one
// are treated as one.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithMicrosteps sets the minimum number of substeps each Step is divided
// into. Step may use more when circles are fast relative to their size.
func WithMicrosteps(n int) Option {
	return func(e *Engine) { e.microsteps = n }
}

// New returns an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		workers:    runtime.NumCPU(),
		microsteps: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	if e.microsteps < 1 {
		e.microsteps = 1
	}
	e.strips = make([][]pair, e.workers)
	e.hits = make([]uint64, e.workers)
	return e
}

// Workers reports the goroutine budget of Step.
func (e *Engine) Workers() int {
	return e.workers
}

// AddSection adds a wall segment and returns its index.
func (e *Engine) AddSection(x1, y1, x2, y2 float64) (int, error) {
	if !finite(x1, y1, x2, y2) {
		return 0, fmt.Errorf("%w: (%v, %v)-(%v, %v)", ErrInvalidSection, x1, y1, x2, y2)
	}
	e.sections = append(e.sections, Section{X1: x1, Y1: y1, X2: x2, Y2: y2})
	return len(e.sections) - 1, nil
}

// AddCircle adds a circle of radius r and mass m at (x, y) moving with
// velocity (vx, vy) and returns its index.
func (e *Engine) AddCircle(r, m, x, y, vx, vy float64) (int, error) {
	if !finite(r, m, x, y, vx, vy) {
		return 0, fmt.Errorf("%w: non-finite value", ErrInvalidCircle)
	}
	if r <= 0 {
		return 0, fmt.Errorf("%w: radius %v", ErrInvalidCircle, r)
	}
	if m <= 0 {
		return 0, fmt.Errorf("%w: mass %v", ErrInvalidCircle, m)
	}
	e.circles = append(e.circles, Circle{X: x, Y: y, R: r, VX: vx, VY: vy, M: m})
	return len(e.circles) - 1, nil
}

// CirclesCount returns the number of circles.
func (e *Engine) CirclesCount() int {
	return len(e.circles)
}

// SectionsCount returns the number of sections.
func (e *Engine) SectionsCount() int {
	return len(e.sections)
}

// Circle returns a snapshot of circle i.
func (e *Engine) Circle(i int) (Circle, error) {
	if i < 0 || i >= len(e.circles) {
		return Circle{}, fmt.Errorf("%w: circle %d of %d", ErrIndexOutOfRange, i, len(e.circles))
	}
	return e.circles[i], nil
}

// Section returns section i.
func (e *Engine) Section(i int) (Section, error) {
	if i < 0 || i >= len(e.sections) {
		return Section{}, fmt.Errorf("%w: section %d of %d", ErrIndexOutOfRange, i, len(e.sections))
	}
	return e.sections[i], nil
}

// Circles appends a snapshot of every circle to dst[:0] and returns it.
func (e *Engine) Circles(dst []Circle) []Circle {
	return append(dst[:0], e.circles...)
}

// Sections appends every section to dst[:0] and returns it.
func (e *Engine) Sections(dst []Section) []Section {
	return append(dst[:0], e.sections...)
}

// Counters returns the current global counters.
func (e *Engine) Counters() Counters {
	return e.counters
}

// ResetVars zeroes the global counters. Circles and sections are kept.
func (e *Engine) ResetVars() {
	e.counters = Counters{}
}

// MeanFreePath returns the average distance travelled between collisions.
// A circle-circle collision ends a free path for both circles, so it counts
// twice. The boolean is false until at least one collision has happened.
func (e *Engine) MeanFreePath() (float64, bool) {
	return e.counters.MeanFreePath()
}

// MeanFreePath derives the mean free path from the counters.
func (c Counters) MeanFreePath() (float64, bool) {
	events := 2*c.SelfCollisions + c.WallCollisions
	if events == 0 {
		return 0, false
	}
	return c.Distance / float64(events), true
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
