package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// box adds the four walls of a square with corners (lo, lo) and (hi, hi).
func box(t *testing.T, e *Engine, lo, hi float64) {
	t.Helper()
	for _, s := range []Section{
		{lo, lo, hi, lo},
		{lo, lo, lo, hi},
		{hi, hi, hi, lo},
		{hi, hi, lo, hi},
	} {
		_, err := e.AddSection(s.X1, s.Y1, s.X2, s.Y2)
		require.NoError(t, err)
	}
}

// gas fills e with n light circles at random positions and directions.
func gas(t *testing.T, e *Engine, seed int64, n int, speed float64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		phi := rng.Float64() * 2 * math.Pi
		_, err := e.AddCircle(2, 1, 50+rng.Float64()*900, 50+rng.Float64()*900, speed*math.Sin(phi), speed*math.Cos(phi))
		require.NoError(t, err)
	}
}

func energy(cs []Circle) float64 {
	var sum float64
	for _, c := range cs {
		sum += 0.5 * c.M * (c.VX*c.VX + c.VY*c.VY)
	}
	return sum
}

func momentum(cs []Circle) (float64, float64) {
	var px, py float64
	for _, c := range cs {
		px += c.M * c.VX
		py += c.M * c.VY
	}
	return px, py
}

func TestAddCircleValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		r, m, x, y float64
		vx, vy     float64
		wantErr    bool
	}{
		{name: "valid", r: 2, m: 1, x: 10, y: 10, vx: 1, vy: 0},
		{name: "zero radius", r: 0, m: 1, wantErr: true},
		{name: "negative radius", r: -2, m: 1, wantErr: true},
		{name: "zero mass", r: 2, m: 0, wantErr: true},
		{name: "nan position", r: 2, m: 1, x: math.NaN(), wantErr: true},
		{name: "infinite velocity", r: 2, m: 1, vx: math.Inf(1), wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := New()
			idx, err := e.AddCircle(tt.r, tt.m, tt.x, tt.y, tt.vx, tt.vy)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCircle)
				assert.Equal(t, 0, e.CirclesCount())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, idx)
			assert.Equal(t, 1, e.CirclesCount())
		})
	}
}

func TestAccessors(t *testing.T) {
	t.Parallel()

	e := New()
	_, err := e.AddSection(0, 0, 10, 0)
	require.NoError(t, err)
	_, err = e.AddSection(math.NaN(), 0, 10, 0)
	require.ErrorIs(t, err, ErrInvalidSection)

	idx, err := e.AddCircle(1, 2, 3, 4, 5, 6)
	require.NoError(t, err)

	c, err := e.Circle(idx)
	require.NoError(t, err)
	if diff := cmp.Diff(Circle{X: 3, Y: 4, R: 1, VX: 5, VY: 6, M: 2}, c); diff != "" {
		t.Errorf("Circle(%d) mismatch (-want +got):\n%s", idx, diff)
	}

	s, err := e.Section(0)
	require.NoError(t, err)
	assert.Equal(t, Section{X1: 0, Y1: 0, X2: 10, Y2: 0}, s)

	_, err = e.Circle(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = e.Circle(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = e.Section(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	assert.Equal(t, 1, e.SectionsCount())
	assert.Len(t, e.Circles(nil), 1)
	assert.Len(t, e.Sections(nil), 1)
}

func TestStepRejectsBadTimeStep(t *testing.T) {
	t.Parallel()

	e := New()
	_, err := e.AddCircle(1, 1, 0, 0, 1, 0)
	require.NoError(t, err)

	for _, dt := range []float64{-1, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, e.Step(dt), ErrInvalidTimeStep)
	}

	require.NoError(t, e.Step(0))
	c, err := e.Circle(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.X)
}

func TestFreeFlight(t *testing.T) {
	t.Parallel()

	e := New()
	_, err := e.AddCircle(1, 1, 0, 0, 3, 4)
	require.NoError(t, err)
	require.NoError(t, e.Step(2))

	c, err := e.Circle(0)
	require.NoError(t, err)
	assert.InDelta(t, 6, c.X, 1e-9)
	assert.InDelta(t, 8, c.Y, 1e-9)
	assert.InDelta(t, 10, e.Counters().Distance, 1e-9)
	assert.Zero(t, e.Counters().SelfCollisions)
}

func TestHeadOnCollisionSwapsVelocities(t *testing.T) {
	t.Parallel()

	e := New()
	_, err := e.AddCircle(1, 1, 0, 0, 1, 0)
	require.NoError(t, err)
	_, err = e.AddCircle(1, 1, 10, 0, -1, 0)
	require.NoError(t, err)

	require.NoError(t, e.Step(10))

	a, _ := e.Circle(0)
	b, _ := e.Circle(1)
	assert.InDelta(t, -1, a.VX, 1e-9)
	assert.InDelta(t, 1, b.VX, 1e-9)
	assert.Less(t, a.X, b.X)
	assert.Equal(t, uint64(1), e.Counters().SelfCollisions)
}

func TestHeavyCircleBarelyMoves(t *testing.T) {
	t.Parallel()

	e := New()
	_, err := e.AddCircle(2, 100, 10, 0, 0, 0)
	require.NoError(t, err)
	_, err = e.AddCircle(2, 1, 0, 0, 10, 0)
	require.NoError(t, err)

	before := e.Circles(nil)
	require.NoError(t, e.Step(2))
	after := e.Circles(nil)

	heavy := after[0]
	light := after[1]
	assert.InDelta(t, 20.0/101, heavy.VX, 1e-9)
	assert.InDelta(t, -990.0/101, light.VX, 1e-9)

	px0, py0 := momentum(before)
	px1, py1 := momentum(after)
	assert.InDelta(t, px0, px1, 1e-9)
	assert.InDelta(t, py0, py1, 1e-9)
	assert.InDelta(t, energy(before), energy(after), 1e-9)
}

func TestWallReflection(t *testing.T) {
	t.Parallel()

	e := New()
	_, err := e.AddSection(-100, 0, 100, 0)
	require.NoError(t, err)
	_, err = e.AddCircle(2, 1, 0, 10, 1, -5)
	require.NoError(t, err)

	require.NoError(t, e.Step(4))

	c, _ := e.Circle(0)
	assert.InDelta(t, 1, c.VX, 1e-9)
	assert.InDelta(t, 5, c.VY, 1e-9)
	assert.Greater(t, c.Y, 0.0)
	assert.Equal(t, uint64(1), e.Counters().WallCollisions)
}

func TestWallEndpointReflection(t *testing.T) {
	t.Parallel()

	e := New()
	_, err := e.AddSection(0, 0, 0, 100)
	require.NoError(t, err)
	// Heads straight at the lower endpoint from below.
	_, err = e.AddCircle(1, 1, 0, -10, 0, 5)
	require.NoError(t, err)

	require.NoError(t, e.Step(4))

	c, _ := e.Circle(0)
	assert.InDelta(t, -5, c.VY, 1e-9)
	assert.Less(t, c.Y, 0.0)
}

func TestFastCircleDoesNotTunnel(t *testing.T) {
	t.Parallel()

	e := New()
	box(t, e, 0, 100)
	_, err := e.AddCircle(1, 1, 50, 50, 1e5, 3e4)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, e.Step(0.01))
		c, _ := e.Circle(0)
		require.True(t, c.X > 0 && c.X < 100 && c.Y > 0 && c.Y < 100, "escaped to (%v, %v)", c.X, c.Y)
	}
	assert.Positive(t, e.Counters().WallCollisions)
}

func TestGasStaysInBoxAndConservesEnergy(t *testing.T) {
	t.Parallel()

	e := New(WithWorkers(4))
	box(t, e, 40, 1040)
	gas(t, e, 1, 300, 256)

	e0 := energy(e.Circles(nil))
	for i := 0; i < 120; i++ {
		require.NoError(t, e.Step(5.0/60))
	}

	for i, c := range e.Circles(nil) {
		require.True(t, c.X > 40 && c.X < 1040 && c.Y > 40 && c.Y < 1040, "circle %d escaped to (%v, %v)", i, c.X, c.Y)
	}
	assert.InEpsilon(t, e0, energy(e.Circles(nil)), 1e-9)

	ctr := e.Counters()
	assert.Positive(t, ctr.SelfCollisions)
	assert.Positive(t, ctr.WallCollisions)
	lambda, ok := e.MeanFreePath()
	require.True(t, ok)
	assert.Positive(t, lambda)
}

func TestStepIsDeterministicAcrossWorkerCounts(t *testing.T) {
	t.Parallel()

	run := func(workers int) ([]Circle, Counters) {
		e := New(WithWorkers(workers))
		box(t, e, 40, 1040)
		gas(t, e, 7, 800, 300)
		for i := 0; i < 30; i++ {
			require.NoError(t, e.Step(5.0/60))
		}
		return e.Circles(nil), e.Counters()
	}

	c1, n1 := run(1)
	c8, n8 := run(8)
	if diff := cmp.Diff(c1, c8); diff != "" {
		t.Errorf("circles differ between 1 and 8 workers (-1 +8):\n%s", diff)
	}
	if diff := cmp.Diff(n1, n8); diff != "" {
		t.Errorf("counters differ between 1 and 8 workers (-1 +8):\n%s", diff)
	}
}

func TestResetVars(t *testing.T) {
	t.Parallel()

	e := New()
	box(t, e, 0, 100)
	_, err := e.AddCircle(2, 1, 50, 50, 40, 0)
	require.NoError(t, err)
	require.NoError(t, e.Step(5))
	require.NotZero(t, e.Counters())

	e.ResetVars()
	assert.Zero(t, e.Counters())
	_, ok := e.MeanFreePath()
	assert.False(t, ok)
	assert.Equal(t, 1, e.CirclesCount())
}

func TestSubstep(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.25, substep(0.25, 2, 0))
	// One unit per substep at speed 100 with radius 2.
	assert.Equal(t, 0.01, substep(1, 2, 100))
	assert.Equal(t, 0.001, substep(0.001, 2, 100))
}

func TestMicrostepsSplitStep(t *testing.T) {
	t.Parallel()

	e := New(WithMicrosteps(100))
	_, err := e.AddSection(-10, 0, 10, 0)
	require.NoError(t, err)
	// Slow enough that the microstep count, not the speed, sets the
	// substep length. The circle reaches the wall halfway through.
	_, err = e.AddCircle(1, 1, 0, 3, 0, -0.1)
	require.NoError(t, err)

	require.NoError(t, e.Step(40))
	c, _ := e.Circle(0)
	assert.InDelta(t, 0.1, c.VY, 1e-12)
	assert.Greater(t, c.Y, 1.0)
	assert.Equal(t, uint64(1), e.Counters().WallCollisions)
	assert.InDelta(t, 4, e.Counters().Distance, 1e-9)
}

func TestGridCoversAllNeighbours(t *testing.T) {
	t.Parallel()

	circles := []Circle{
		{X: 0, Y: 0, R: 5},
		{X: 9, Y: 0, R: 5},
		{X: 0, Y: 9.5, R: 5},
		{X: 500, Y: 500, R: 5},
	}
	var g grid
	g.build(circles)
	pairs := g.scan(circles, 0, g.rows, nil)
	assert.ElementsMatch(t, []pair{{0, 1}, {0, 2}}, pairs)
}

func TestClosestPoint(t *testing.T) {
	t.Parallel()

	s := Section{X1: 0, Y1: 0, X2: 10, Y2: 0}
	assert.Equal(t, r2.Vec{X: 5, Y: 0}, closestPoint(s, r2.Vec{X: 5, Y: 3}))
	assert.Equal(t, r2.Vec{X: 0, Y: 0}, closestPoint(s, r2.Vec{X: -4, Y: 3}))
	assert.Equal(t, r2.Vec{X: 10, Y: 0}, closestPoint(s, r2.Vec{X: 14, Y: -3}))
	assert.Equal(t, r2.Vec{X: 1, Y: 1}, closestPoint(Section{X1: 1, Y1: 1, X2: 1, Y2: 1}, r2.Vec{X: 5, Y: 5}))
}

func TestCollideObliqueConservesMomentumAndEnergy(t *testing.T) {
	t.Parallel()

	a := Circle{X: 0, Y: 0, R: 1, VX: 3, VY: 1, M: 2}
	b := Circle{X: 1.5, Y: 0.5, R: 1, VX: -1, VY: 0.5, M: 5}
	before := []Circle{a, b}

	require.True(t, collide(&a, &b))
	after := []Circle{a, b}

	px0, py0 := momentum(before)
	px1, py1 := momentum(after)
	assert.InDelta(t, px0, px1, 1e-12)
	assert.InDelta(t, py0, py1, 1e-12)
	assert.InDelta(t, energy(before), energy(after), 1e-12)

	// Separating after the collision, so a second call is a no-op.
	assert.False(t, collide(&a, &b))
}

func TestReflectOnSegment(t *testing.T) {
	t.Parallel()

	// Centre exactly on the wall: the normal opposes the velocity.
	c := Circle{X: 5, Y: 0, R: 1, VX: 2, VY: 3, M: 1}
	require.True(t, reflect(&c, Section{X1: 0, Y1: 0, X2: 10, Y2: 0}))
	assert.InDelta(t, 2, c.VX, 1e-12)
	assert.InDelta(t, -3, c.VY, 1e-12)

	// Moving away from the wall is left alone.
	c = Circle{X: 5, Y: 0.5, R: 1, VX: 0, VY: 1, M: 1}
	assert.False(t, reflect(&c, Section{X1: 0, Y1: 0, X2: 10, Y2: 0}))

	// Degenerate section with the centre on it.
	c = Circle{X: 1, Y: 1, R: 1, VX: 1, VY: 0, M: 1}
	assert.False(t, reflect(&c, Section{X1: 1, Y1: 1, X2: 1, Y2: 1}))
}
