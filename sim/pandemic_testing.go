package sim

import "math/rand"

// GlobalTestingState is what the authorities can observe: summaries
// reconstructed from test results rather than true infection states.
type GlobalTestingState struct {
	Summary  map[InfectionSummary]int
	NumTests int
}

func newGlobalTestingState(numPersons int) GlobalTestingState {
	s := GlobalTestingState{Summary: make(map[InfectionSummary]int, len(InfectionSummaries))}
	for _, k := range InfectionSummaries {
		s.Summary[k] = 0
	}
	s.Summary[SummaryNone] = numPersons
	return s
}

// Clone returns a copy with its own map.
func (g GlobalTestingState) Clone() GlobalTestingState {
	c := GlobalTestingState{Summary: make(map[InfectionSummary]int, len(g.Summary)), NumTests: g.NumTests}
	for k, v := range g.Summary {
		c.Summary[k] = v
	}
	return c
}

// pandemicTesting runs the daily testing round.
type pandemicTesting struct {
	settings     SimulationSettings
	everPositive map[PersonID]bool
	state        GlobalTestingState
}

func newPandemicTesting(settings SimulationSettings, numPersons int) *pandemicTesting {
	return &pandemicTesting{
		settings:     settings,
		everPositive: make(map[PersonID]bool),
		state:        newGlobalTestingState(numPersons),
	}
}

// testProbability picks the admission rate for a person's current condition.
func (pt *pandemicTesting) testProbability(p *Person) float64 {
	inf := p.state.InfectionState
	switch {
	case SummaryOf(inf) == SummaryCritical:
		return pt.settings.CriticalTestingRate
	case inf != nil && inf.ShowsSymptoms:
		return pt.settings.SympTestingRate
	case p.state.TestResult == TestPositive:
		return pt.settings.RetestRate
	default:
		return pt.settings.RandomTestingRate
	}
}

// admitAndTest decides whether p is tested and returns the new result.
// Two draws are consumed for every living person.
func (pt *pandemicTesting) admitAndTest(p *Person, rng *rand.Rand) (TestResult, bool) {
	admit := rng.Float64() < pt.testProbability(p)
	flip := rng.Float64()
	if !admit {
		return p.state.TestResult, false
	}
	switch p.InfectionSummary() {
	case SummaryInfected:
		if flip < pt.settings.TestingFalseNegativeRate {
			return TestNegative, true
		}
		return TestPositive, true
	case SummaryCritical:
		if flip < pt.settings.TestingFalseNegativeRate {
			return TestNegative, true
		}
		return TestCritical, true
	default:
		if flip < pt.settings.TestingFalsePositiveRate {
			return TestPositive, true
		}
		return TestNegative, true
	}
}

// run tests the population in registration order and rebuilds the observed summary.
func (pt *pandemicTesting) run(reg *Registry, rng *rand.Rand) {
	summary := newGlobalTestingState(0).Summary
	for _, id := range reg.PersonIDs() {
		p := reg.Person(id)
		if p.InfectionSummary() == SummaryDead {
			p.state.TestResult = TestDead
		} else if result, tested := pt.admitAndTest(p, rng); tested {
			p.state.TestResult = result
			pt.state.NumTests++
		}
		switch p.state.TestResult {
		case TestPositive:
			pt.everPositive[id] = true
			summary[SummaryInfected]++
		case TestCritical:
			pt.everPositive[id] = true
			summary[SummaryCritical]++
		case TestDead:
			summary[SummaryDead]++
		case TestNegative:
			if pt.everPositive[id] {
				summary[SummaryRecovered]++
			} else {
				summary[SummaryNone]++
			}
		default:
			summary[SummaryNone]++
		}
	}
	pt.state.Summary = summary
}

func (pt *pandemicTesting) reset(numPersons int) {
	pt.everPositive = make(map[PersonID]bool)
	pt.state = newGlobalTestingState(numPersons)
}
