package infection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

func newTestModel(seed int64) *SEIRModel {
	return NewSEIRModel(DefaultSEIRConfig(sim.DefaultSimulationSettings()), rand.New(rand.NewSource(seed)))
}

func TestDefaultSEIRConfig_Validates(t *testing.T) {
	require.NoError(t, DefaultSEIRConfig(sim.DefaultSimulationSettings()).Validate())
}

func TestSEIRConfig_Validate_Rejects(t *testing.T) {
	base := DefaultSEIRConfig(sim.DefaultSimulationSettings())
	tests := []struct {
		name   string
		mutate func(c *SEIRConfig)
	}{
		{"negative fraction", func(c *SEIRConfig) { c.AsymptomaticFraction = -0.1 }},
		{"fraction above one", func(c *SEIRConfig) { c.AsymptomaticRelSpread = 1.5 }},
		{"zero rate", func(c *SEIRConfig) { c.HospitalExitRate = 0 }},
		{"bands do not cover max age", func(c *SEIRConfig) { c.AgeBands = c.AgeBands[:2] }},
		{"bands out of order", func(c *SEIRConfig) {
			c.AgeBands = []AgeBand{{MaxAge: 50}, {MaxAge: 10}, {MaxAge: sim.MaxAge}}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := base
			c.AgeBands = append([]AgeBand(nil), base.AgeBands...)
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestSEIRModel_Susceptible_NoExposure_StaysSusceptible(t *testing.T) {
	// GIVEN a susceptible person with zero exposure probability
	m := newTestModel(1)
	var s *sim.IndividualInfectionState

	// WHEN stepping many hours
	for i := 0; i < 500; i++ {
		next := m.Step(s, 30, sim.RiskLow, 0)
		s = &next
	}

	// THEN the person is never infected and each step records its draw
	assert.Equal(t, sim.SummaryNone, s.Summary)
	assert.Equal(t, StageSusceptible, s.Stage)
	assert.GreaterOrEqual(t, s.ExposedRnb, 0.0)
	assert.True(t, m.NeedsContacts(s))
}

func TestSEIRModel_CertainExposure_BecomesExposed(t *testing.T) {
	m := newTestModel(2)

	next := m.Step(nil, 30, sim.RiskLow, 1)

	assert.Equal(t, StageExposed, next.Stage)
	assert.Equal(t, sim.SummaryInfected, next.Summary)
	assert.False(t, m.NeedsContacts(&next))
	assert.GreaterOrEqual(t, next.SpreadRate, 0.0)
	assert.LessOrEqual(t, next.SpreadRate, 1.0)
	assert.Zero(t, next.SpreadProbability, "exposed persons do not spread yet")
}

func TestSEIRModel_Seed_IsContagious(t *testing.T) {
	m := newTestModel(3)

	s := m.Seed(40, sim.RiskHigh)

	assert.Equal(t, StagePresymptom, s.Stage)
	assert.Equal(t, sim.SummaryInfected, s.Summary)
	assert.Equal(t, s.SpreadRate, s.SpreadProbability)
}

func TestSEIRModel_Progression_ReachesTerminalState(t *testing.T) {
	// GIVEN seeded persons of several ages
	m := newTestModel(4)
	terminal := map[string]bool{StageRecovered: true, StageDead: true}
	for _, age := range []int{5, 30, 70, 100} {
		s := m.Seed(age, sim.RiskHigh)
		rate := s.SpreadRate

		// WHEN stepping for a simulated year
		for h := 0; h < sim.HoursPerYear && !terminal[s.Stage]; h++ {
			s = m.Step(&s, age, sim.RiskHigh, 0)
			// THEN the drawn spread rate is carried unchanged
			require.Equal(t, rate, s.SpreadRate)
		}
		assert.True(t, terminal[s.Stage], "age %d ended in %s", age, s.Stage)
	}
}

func TestSEIRModel_Terminal_StatesAreAbsorbing(t *testing.T) {
	m := newTestModel(5)
	for _, stage := range []string{StageRecovered, StageDead} {
		s := m.state(stage, 0.2)
		for i := 0; i < 100; i++ {
			s = m.Step(&s, 50, sim.RiskLow, 1)
		}
		assert.Equal(t, stage, s.Stage)
		assert.False(t, m.NeedsContacts(&s))
	}
}

func TestSEIRModel_StateFlags(t *testing.T) {
	m := newTestModel(6)
	tests := []struct {
		stage        string
		summary      sim.InfectionSummary
		symptoms     bool
		hospitalized bool
		spreads      bool
	}{
		{StageExposed, sim.SummaryInfected, false, false, false},
		{StageAsymptomatic, sim.SummaryInfected, false, false, true},
		{StagePresymptom, sim.SummaryInfected, false, false, true},
		{StageSymptomatic, sim.SummaryInfected, true, false, true},
		{StageHospitalized, sim.SummaryCritical, true, true, false},
		{StageRecovered, sim.SummaryRecovered, false, false, false},
		{StageDead, sim.SummaryDead, false, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.stage, func(t *testing.T) {
			s := m.state(tc.stage, 0.5)
			assert.Equal(t, tc.summary, s.Summary)
			assert.Equal(t, tc.symptoms, s.ShowsSymptoms)
			assert.Equal(t, tc.hospitalized, s.IsHospitalized)
			assert.Equal(t, tc.spreads, s.SpreadProbability > 0)
		})
	}
}

func TestSEIRModel_SameSeed_SameTrajectory(t *testing.T) {
	run := func() []string {
		m := newTestModel(42)
		var stages []string
		var s *sim.IndividualInfectionState
		for h := 0; h < 24*60; h++ {
			next := m.Step(s, 67, sim.RiskHigh, 0.01)
			s = &next
			stages = append(stages, s.Stage)
		}
		return stages
	}
	assert.Equal(t, run(), run())
}

func TestHourly_MatchesDailyRate(t *testing.T) {
	p := hourly(1)
	survive := 1.0
	for i := 0; i < sim.HoursPerDay; i++ {
		survive *= 1 - p
	}
	assert.InDelta(t, 0.3679, survive, 1e-3)
}

func TestRegister_SetsFactory(t *testing.T) {
	require.NotNil(t, sim.NewInfectionModelFunc)
	m := sim.NewInfectionModelFunc(sim.DefaultSimulationSettings(), rand.New(rand.NewSource(1)))
	_, ok := m.(*SEIRModel)
	assert.True(t, ok)
}
