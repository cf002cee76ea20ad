package scenario

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hans1song/gasdemo/internal/engine"
)

// recorder is a Builder that only remembers what it was asked to do.
type recorder struct {
	sections int
	circles  int
	steps    []float64
	resets   int
}

func (r *recorder) AddSection(x1, y1, x2, y2 float64) (int, error) {
	r.sections++
	return r.sections - 1, nil
}

func (r *recorder) AddCircle(rad, m, x, y, vx, vy float64) (int, error) {
	r.circles++
	return r.circles - 1, nil
}

func (r *recorder) Step(dt float64) error {
	r.steps = append(r.steps, dt)
	return nil
}

func (r *recorder) ResetVars() {
	r.resets++
}

func TestMaxwellPopulatesEngine(t *testing.T) {
	t.Parallel()

	e := engine.New(engine.WithWorkers(1))
	sc, err := Setup(e, Params{Mode: ModeMaxwell, Velocity: 256, Particles: 50}, rand.New(rand.NewSource(1)), nil)
	require.NoError(t, err)

	assert.Equal(t, ModeMaxwell, sc.Mode)
	assert.Equal(t, 5.0, sc.TimeScale)
	assert.Equal(t, 4, e.SectionsCount())
	require.Equal(t, 51, e.CirclesCount())

	heavy, err := e.Circle(0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, heavy.M)
	assert.Zero(t, heavy.Speed())

	for i := 1; i < e.CirclesCount(); i++ {
		c, err := e.Circle(i)
		require.NoError(t, err)
		assert.Equal(t, 1.0, c.M)
		assert.Equal(t, 2.0, c.R)
		assert.InDelta(t, 256, c.Speed(), 1e-9)
		assert.True(t, c.X >= 50 && c.X <= 950 && c.Y >= 50 && c.Y <= 950)
		assert.Equal(t, math.Trunc(c.X), c.X, "spawn positions are whole numbers")
	}

	for i := 0; i < e.SectionsCount(); i++ {
		s, err := e.Section(i)
		require.NoError(t, err)
		for _, v := range []float64{s.X1, s.Y1, s.X2, s.Y2} {
			assert.Contains(t, []float64{40, 1040}, v)
		}
	}
}

func TestPrecountRunsWarmupAndResets(t *testing.T) {
	t.Parallel()

	var r recorder
	var seen []int
	_, err := Setup(&r, Params{Mode: ModeMaxwell, Precount: 3, Velocity: 10, Particles: 2}, rand.New(rand.NewSource(1)), func(step int) {
		seen = append(seen, step)
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{5, 5, 5}, r.steps)
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.Equal(t, 1, r.resets)
	assert.Equal(t, 3, r.circles)
}

func TestPrecountClearsEngineCounters(t *testing.T) {
	t.Parallel()

	e := engine.New()
	_, err := Setup(e, Params{Mode: ModeMaxwell, Precount: 2, Velocity: 256, Particles: 100}, rand.New(rand.NewSource(2)), nil)
	require.NoError(t, err)
	assert.Zero(t, e.Counters())
}

func TestSetupRejectsBadInput(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))

	_, err := Setup(&recorder{}, Params{Mode: 7}, rng, nil)
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = Setup(&recorder{}, Params{Precount: -1}, rng, nil)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Setup(&recorder{}, Params{Particles: -1}, rng, nil)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Setup(&recorder{}, Params{Velocity: math.Inf(1)}, rng, nil)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestModes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0 - Maxwell", Modes())
	assert.Equal(t, "Mode(3)", Mode(3).String())
}
