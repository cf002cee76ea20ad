// Package scenario populates an engine with one of the predefined
// experiments.
package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// Mode selects an experiment.
type Mode int

const (
	// ModeMaxwell is a box of light particles that all start at the same
	// speed, plus one heavy particle at rest. The speeds relax towards the
	// Maxwell distribution.
	ModeMaxwell Mode = 0
)

// Command line defaults for the Maxwell experiment.
const (
	DefaultParticles = 300 // Light particles in the box.
	DefaultVelocity  = 256 // Initial speed of every light particle.
)

var (
	// ErrUnknownMode is returned by Setup for a mode with no experiment.
	ErrUnknownMode = errors.New("scenario: unknown mode")

	// ErrInvalidParams is returned by Setup for negative counts or a
	// non-finite velocity.
	ErrInvalidParams = errors.New("scenario: invalid parameters")
)

var modeNames = map[Mode]string{
	ModeMaxwell: "Maxwell",
}

// String returns the experiment name, e.g. "Maxwell".
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Modes describes the known modes for command line help, e.g. "0 - Maxwell".
func Modes() string {
	modes := make([]int, 0, len(modeNames))
	for m := range modeNames {
		modes = append(modes, int(m))
	}
	sort.Ints(modes)

	parts := make([]string, 0, len(modes))
	for _, m := range modes {
		parts = append(parts, fmt.Sprintf("%d - %s", m, Mode(m)))
	}
	return strings.Join(parts, ", ")
}

// Builder is the part of the engine a scenario needs.
type Builder interface {
	AddSection(x1, y1, x2, y2 float64) (int, error)
	AddCircle(r, m, x, y, vx, vy float64) (int, error)
	Step(dt float64) error
	ResetVars()
}

// Params are the command line knobs of an experiment.
type Params struct {
	Mode      Mode
	Precount  int     // Warm-up steps run before statistics start.
	Velocity  float64 // Initial speed of the light particles.
	Particles int     // Number of light particles.
}

// Scenario describes a populated experiment.
type Scenario struct {
	Mode Mode

	// TimeScale is the simulated time that passes per second of wall
	// clock time; one frame advances the engine by TimeScale/FPS.
	TimeScale float64
}

// Setup populates b according to p, runs the warm-up steps and resets the
// engine counters. progress, if not nil, is called after each warm-up step.
func Setup(b Builder, p Params, rng *rand.Rand, progress func(step int)) (Scenario, error) {
	if p.Precount < 0 {
		return Scenario{}, fmt.Errorf("%w: precount %d", ErrInvalidParams, p.Precount)
	}
	if p.Particles < 0 {
		return Scenario{}, fmt.Errorf("%w: particles %d", ErrInvalidParams, p.Particles)
	}
	if math.IsNaN(p.Velocity) || math.IsInf(p.Velocity, 0) {
		return Scenario{}, fmt.Errorf("%w: velocity %v", ErrInvalidParams, p.Velocity)
	}

	var sc Scenario
	var err error
	switch p.Mode {
	case ModeMaxwell:
		sc, err = maxwell(b, p, rng)
	default:
		return Scenario{}, fmt.Errorf("%w: %d", ErrUnknownMode, int(p.Mode))
	}
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", p.Mode, err)
	}

	for i := 0; i < p.Precount; i++ {
		if err := b.Step(sc.TimeScale); err != nil {
			return Scenario{}, fmt.Errorf("precount step %d: %w", i, err)
		}
		if progress != nil {
			progress(i)
		}
	}
	b.ResetVars()
	return sc, nil
}

// Maxwell box geometry.
const (
	boxMin   = 40
	boxMax   = 1040
	spawnMin = 50
	spawnMax = 950

	particleRadius = 2
	lightMass      = 1
	heavyMass      = 100

	maxwellTimeScale = 5
)

func maxwell(b Builder, p Params, rng *rand.Rand) (Scenario, error) {
	walls := [][4]float64{
		{boxMin, boxMin, boxMax, boxMin},
		{boxMin, boxMin, boxMin, boxMax},
		{boxMax, boxMax, boxMax, boxMin},
		{boxMax, boxMax, boxMin, boxMax},
	}
	for _, w := range walls {
		if _, err := b.AddSection(w[0], w[1], w[2], w[3]); err != nil {
			return Scenario{}, err
		}
	}

	// The heavy particle is added first so it is circle 0.
	if _, err := b.AddCircle(particleRadius, heavyMass, randint(rng, spawnMin, spawnMax), randint(rng, spawnMin, spawnMax), 0, 0); err != nil {
		return Scenario{}, err
	}

	for i := 0; i < p.Particles; i++ {
		// Direction in half-turns with micro resolution.
		phi := randint(rng, 0, 2000000) / 1000000
		vx := p.Velocity * math.Sin(math.Pi*phi)
		vy := p.Velocity * math.Cos(math.Pi*phi)
		if _, err := b.AddCircle(particleRadius, lightMass, randint(rng, spawnMin, spawnMax), randint(rng, spawnMin, spawnMax), vx, vy); err != nil {
			return Scenario{}, err
		}
	}

	return Scenario{Mode: ModeMaxwell, TimeScale: maxwellTimeScale}, nil
}

// randint returns an integer in [lo, hi] as a float64.
func randint(rng *rand.Rand, lo, hi int) float64 {
	return float64(lo + rng.Intn(hi-lo+1))
}
