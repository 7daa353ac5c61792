package sim

import "math/rand"

// TicksPerSecond is the nominal simulation rate.
const TicksPerSecond = 60

// PixelsPerFoot is the conversion constant between world pixels and feet.
const PixelsPerFoot = 7.0

// Tick is a monotonic simulation time unit.
type Tick uint64

// NoSchedule is the sentinel value for "never scheduled" / "reset" tick fields.
const NoSchedule int64 = -1

// FeetToPixels converts a distance in feet to pixels.
func FeetToPixels(ft float64) float64 { return ft * PixelsPerFoot }

// PixelsToFeet converts a distance in pixels to feet.
func PixelsToFeet(px float64) float64 { return px / PixelsPerFoot }

// RNG is the single seeded source for every stochastic decision in the
// core. It is part of simulation state: two sims constructed with the
// same seed and driven by the same command script must draw identical
// sequences from it.
type RNG struct {
	r     *rand.Rand
	seed  int64
	draws uint64
}

// NewRNG seeds a new RNG.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed)), seed: seed}
}

// Percent draws a uniform value in [0.0, 100.0), the unit used for every
// hit roll in the core.
func (g *RNG) Percent() float64 {
	g.draws++
	return g.r.Float64() * 100
}

// Float64 draws a uniform value in [0.0, 1.0).
func (g *RNG) Float64() float64 {
	g.draws++
	return g.r.Float64()
}

// IntRange draws a uniform integer in [lo, hi].
func (g *RNG) IntRange(lo, hi int) int {
	g.draws++
	if hi <= lo {
		return lo
	}
	return lo + g.r.Intn(hi-lo+1)
}

// state returns (seed, draws-so-far) for persistence: math/rand.Rand
// does not expose its internal generator state for serialization, so
// the record instead carries enough to reconstruct it deterministically
// — reseed and fast-forward the same number of draws.
func (g *RNG) state() (seed int64, draws uint64) {
	return g.seed, g.draws
}

// restoreRNG reconstructs an RNG at the same point in its draw sequence.
func restoreRNG(seed int64, draws uint64) *RNG {
	g := NewRNG(seed)
	for i := uint64(0); i < draws; i++ {
		g.r.Float64()
	}
	g.draws = draws
	return g
}
