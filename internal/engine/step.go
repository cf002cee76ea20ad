package engine

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// maxSubsteps bounds the work done by a single Step call.
	maxSubsteps = 4096

	// travel is the largest fraction of the smallest radius a circle may
	// cover in one substep. Collisions resolved within a substep can raise
	// a speed by a bounded factor, which still keeps the move below one
	// radius.
	travel = 0.5

	// minChunk is the smallest number of circles handed to a goroutine.
	minChunk = 64
)

// Step advances the simulation by dt time units.
//
// The interval is divided into substeps short enough that no circle can
// pass through a wall or another circle between two checks; the substep
// length is recomputed from the fastest circle after every substep. Each
// substep moves every circle, resolves circle-circle collisions and then
// reflects circles off the walls, so a substep never ends with a circle
// overlapping a wall and still moving into it.
func (e *Engine) Step(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTimeStep, dt)
	}
	if dt == 0 || len(e.circles) == 0 {
		return nil
	}

	rmin := math.Inf(1)
	for i := range e.circles {
		rmin = math.Min(rmin, e.circles[i].R)
	}
	hmax := dt / float64(e.microsteps)

	remaining := dt
	for n := 1; remaining > 0; n++ {
		h := substep(hmax, rmin, e.maxSpeed())
		if h >= remaining || n == maxSubsteps {
			h = remaining
		}
		e.integrate(h)
		e.collidePairs()
		e.collideWalls()
		remaining -= h
	}
	return nil
}

// substep returns the length of the next substep: at most hmax, and short
// enough that a circle moving at vmax covers a fraction travel of rmin.
func substep(hmax, rmin, vmax float64) float64 {
	if vmax <= 0 {
		return hmax
	}
	return math.Min(hmax, travel*rmin/vmax)
}

func (e *Engine) maxSpeed() float64 {
	vmax := 0.0
	for i := range e.circles {
		vmax = math.Max(vmax, e.circles[i].Speed())
	}
	return vmax
}

func (e *Engine) integrate(h float64) {
	for i := range e.circles {
		c := &e.circles[i]
		c.setPos(r2.Add(c.pos(), r2.Scale(h, c.vel())))
		e.counters.Distance += c.Speed() * h
	}
}

// collidePairs finds overlapping pairs strip by strip in parallel, then
// resolves them on the calling goroutine in strip order.
func (e *Engine) collidePairs() {
	if len(e.circles) < 2 {
		return
	}
	e.grid.build(e.circles)

	for i := range e.strips {
		e.strips[i] = e.strips[i][:0]
	}
	chunks := e.chunks(len(e.circles))
	if chunks > e.grid.rows {
		chunks = e.grid.rows
	}
	e.fork(e.grid.rows, chunks, func(chunk, start, end int) {
		e.strips[chunk] = e.grid.scan(e.circles, start, end, e.strips[chunk])
	})

	for _, strip := range e.strips {
		for _, p := range strip {
			if collide(&e.circles[p.i], &e.circles[p.j]) {
				e.counters.SelfCollisions++
			}
		}
	}
}

func (e *Engine) collideWalls() {
	if len(e.sections) == 0 {
		return
	}
	for i := range e.hits {
		e.hits[i] = 0
	}
	e.fork(len(e.circles), e.chunks(len(e.circles)), func(chunk, start, end int) {
		for i := start; i < end; i++ {
			for _, s := range e.sections {
				if reflect(&e.circles[i], s) {
					e.hits[chunk]++
				}
			}
		}
	})
	for _, h := range e.hits {
		e.counters.WallCollisions += h
	}
}

// chunks returns how many goroutines a job over n circles deserves.
func (e *Engine) chunks(n int) int {
	c := n / minChunk
	if c > e.workers {
		c = e.workers
	}
	if c < 1 {
		c = 1
	}
	return c
}

// fork splits [0, n) into the given number of contiguous chunks and runs fn
// on each of them in its own goroutine. It returns once every chunk is done.
func (e *Engine) fork(n, chunks int, fn func(chunk, start, end int)) {
	if chunks <= 1 || n <= 1 {
		fn(0, 0, n)
		return
	}
	if chunks > n {
		chunks = n
	}

	var wg sync.WaitGroup
	per := n / chunks
	for i := 0; i < chunks; i++ {
		start := i * per
		end := start + per

		// The last chunk picks up the remainder of the integer division.
		if i == chunks-1 {
			end = n
		}

		wg.Add(1)
		go func(i, start, end int) {
			defer wg.Done()
			fn(i, start, end)
		}(i, start, end)
	}
	wg.Wait()
}

// collide applies an elastic collision to a and b if they overlap and are
// moving towards each other. It reports whether a collision happened.
func collide(a, b *Circle) bool {
	d := r2.Sub(b.pos(), a.pos())
	d2 := r2.Norm2(d)
	rs := a.R + b.R
	if d2 >= rs*rs || d2 == 0 {
		return false
	}

	n := r2.Unit(d)
	vn := r2.Dot(r2.Sub(a.vel(), b.vel()), n)
	if vn <= 0 {
		return false
	}

	total := a.M + b.M
	a.setVel(r2.Sub(a.vel(), r2.Scale(2*b.M/total*vn, n)))
	b.setVel(r2.Add(b.vel(), r2.Scale(2*a.M/total*vn, n)))
	return true
}

// reflect mirrors the velocity of c about the wall normal if c overlaps s
// and is moving into it. It reports whether a reflection happened.
func reflect(c *Circle, s Section) bool {
	d := r2.Sub(c.pos(), closestPoint(s, c.pos()))
	d2 := r2.Norm2(d)
	if d2 >= c.R*c.R {
		return false
	}

	var n r2.Vec
	if d2 > 0 {
		n = r2.Unit(d)
	} else {
		// Centre exactly on the segment: push back along the segment normal.
		p1, p2 := s.ends()
		seg := r2.Sub(p2, p1)
		if r2.Norm2(seg) == 0 {
			return false
		}
		n = r2.Unit(r2.Vec{X: -seg.Y, Y: seg.X})
		if r2.Dot(n, c.vel()) > 0 {
			n = r2.Scale(-1, n)
		}
	}

	vn := r2.Dot(c.vel(), n)
	if vn >= 0 {
		return false
	}
	c.setVel(r2.Sub(c.vel(), r2.Scale(2*vn, n)))
	return true
}

// closestPoint returns the point of s nearest to p.
func closestPoint(s Section, p r2.Vec) r2.Vec {
	p1, p2 := s.ends()
	seg := r2.Sub(p2, p1)
	l2 := r2.Norm2(seg)
	if l2 == 0 {
		return p1
	}
	t := r2.Dot(r2.Sub(p, p1), seg) / l2
	t = math.Max(0, math.Min(1, t))
	return r2.Add(p1, r2.Scale(t, seg))
}
