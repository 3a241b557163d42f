package sim

import "math/rand"

// InfectionSummary is the coarse progression of a person's infection.
type InfectionSummary string

const (
	SummaryNone      InfectionSummary = "none"
	SummaryInfected  InfectionSummary = "infected"
	SummaryCritical  InfectionSummary = "critical"
	SummaryRecovered InfectionSummary = "recovered"
	SummaryDead      InfectionSummary = "dead"
)

// InfectionSummaries lists every summary in observation order.
var InfectionSummaries = []InfectionSummary{SummaryNone, SummaryInfected, SummaryCritical, SummaryRecovered, SummaryDead}

// IndividualInfectionState is an immutable snapshot produced by InfectionModel.Step.
type IndividualInfectionState struct {
	Summary           InfectionSummary
	SpreadProbability float64
	// ExposedRnb is the uniform draw compared against the exposure probability
	// on the step that produced this state; -1 when no draw was made.
	ExposedRnb     float64
	IsHospitalized bool
	ShowsSymptoms  bool
	// Stage is the model-specific compartment name (e.g. "exposed").
	Stage string
	// SpreadRate is the person's own transmission rate, drawn once at
	// infection and carried between steps by the model.
	SpreadRate float64
}

// SummaryOf returns the summary of s, treating nil as SummaryNone.
func SummaryOf(s *IndividualInfectionState) InfectionSummary {
	if s == nil {
		return SummaryNone
	}
	return s.Summary
}

// InfectionModel is the pluggable contagion step consumed by the simulator for each person.
type InfectionModel interface {
	// Step advances one person by one tick given the probability that the
	// person was exposed during this tick.
	Step(prior *IndividualInfectionState, age int, risk Risk, exposureProbability float64) IndividualInfectionState
	// NeedsContacts reports whether contacts must be evaluated for a person in this state.
	NeedsContacts(prior *IndividualInfectionState) bool
	// Seed returns the state of a person infected at episode start.
	Seed(age int, risk Risk) IndividualInfectionState
	Reset()
}

// NewInfectionModelFunc is set by sim/infection's init(). It builds the
// default model from the simulation settings and the infection RNG stream.
var NewInfectionModelFunc func(settings SimulationSettings, rng *rand.Rand) InfectionModel

// TestResult is the outcome of the most recent test of a person.
type TestResult string

const (
	TestUntested TestResult = "untested"
	TestNegative TestResult = "negative"
	TestPositive TestResult = "positive"
	TestCritical TestResult = "critical"
	TestDead     TestResult = "dead"
)
