// Package testutil provides shared test infrastructure for packages that need
// a populated, runnable world. It is imported only from _test.go files.
package testutil

import (
	"math"
	"testing"

	"github.com/pandemic-sim/pandemic-sim/sim"
	_ "github.com/pandemic-sim/pandemic-sim/sim/contacts"
	_ "github.com/pandemic-sim/pandemic-sim/sim/infection"
	"github.com/pandemic-sim/pandemic-sim/sim/population"
)

// NewWorld builds the locations of cfg and a generated population under seed.
func NewWorld(t *testing.T, seed int64, cfg *sim.SimulationConfig) *sim.SimulationContext {
	t.Helper()
	ctx := sim.NewSimulationContext(sim.NewSimulationKey(seed))
	if err := population.BuildWorld(ctx, cfg); err != nil {
		t.Fatalf("building world: %v", err)
	}
	return ctx
}

// NewSimulator builds a world and a simulator over it, without tracing.
func NewSimulator(t *testing.T, seed int64, cfg *sim.SimulationConfig, settings sim.SimulationSettings) *sim.Simulator {
	t.Helper()
	s, err := sim.NewSimulator(NewWorld(t, seed, cfg), settings, nil)
	if err != nil {
		t.Fatalf("building simulator: %v", err)
	}
	return s
}

// RunSummaries steps s for hours ticks and returns the digest of each.
func RunSummaries(s *sim.Simulator, hours int) []sim.AggregateSummary {
	out := make([]sim.AggregateSummary, 0, hours)
	for i := 0; i < hours; i++ {
		s.Step()
		out = append(out, s.Summary())
	}
	return out
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
