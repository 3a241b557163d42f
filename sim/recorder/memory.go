// Package recorder provides sim.StateConsumer implementations that keep the
// per-tick history of an episode, in memory or in SQLite.
package recorder

import (
	"github.com/pandemic-sim/pandemic-sim/sim"
)

// Episode is the recorded history of one run between two resets.
type Episode struct {
	Begin  sim.AggregateSummary
	Ticks  []sim.AggregateSummary
	Stages []int // regulation stage in force at each tick
	Done   bool
}

// Memory keeps every episode in memory. The zero value is ready to use.
type Memory struct {
	episodes []*Episode
	// KeepLastState retains the full snapshot of the most recent tick.
	KeepLastState bool
	last          *sim.SimulationState
}

var _ sim.StateConsumer = (*Memory)(nil)

func (m *Memory) current() *Episode {
	if len(m.episodes) == 0 || m.episodes[len(m.episodes)-1].Done {
		m.episodes = append(m.episodes, &Episode{})
	}
	return m.episodes[len(m.episodes)-1]
}

func (m *Memory) ConsumeBegin(state sim.SimulationState) error {
	if len(m.episodes) > 0 && !m.episodes[len(m.episodes)-1].Done {
		m.episodes[len(m.episodes)-1].Done = true
	}
	ep := m.current()
	ep.Begin = state.Summary()
	m.keep(state)
	return nil
}

func (m *Memory) ConsumeState(state sim.SimulationState, regulation sim.ChosenRegulation) error {
	ep := m.current()
	ep.Ticks = append(ep.Ticks, state.Summary())
	ep.Stages = append(ep.Stages, regulation.Stage)
	m.keep(state)
	return nil
}

func (m *Memory) keep(state sim.SimulationState) {
	if m.KeepLastState {
		m.last = &state
	}
}

func (m *Memory) Finalize() error {
	if len(m.episodes) > 0 {
		m.episodes[len(m.episodes)-1].Done = true
	}
	return nil
}

// Reset drops every recorded episode.
func (m *Memory) Reset() error {
	m.episodes = nil
	m.last = nil
	return nil
}

func (m *Memory) Close() error { return nil }

// Episodes returns the recorded episodes, oldest first.
func (m *Memory) Episodes() []*Episode { return m.episodes }

// LastState is the most recent snapshot, nil unless KeepLastState is set.
func (m *Memory) LastState() *sim.SimulationState { return m.last }

// PeakInfected returns the largest true infected count of an episode and the hour it occurred.
func (e *Episode) PeakInfected() (count, hour int) {
	idx := summaryIndex(sim.SummaryInfected)
	for _, t := range e.Ticks {
		if t.Infection[idx] > count {
			count, hour = t.Infection[idx], t.Hours
		}
	}
	return count, hour
}

// Last returns the final tick of the episode, or its begin summary when no tick was recorded.
func (e *Episode) Last() sim.AggregateSummary {
	if len(e.Ticks) == 0 {
		return e.Begin
	}
	return e.Ticks[len(e.Ticks)-1]
}

func summaryIndex(s sim.InfectionSummary) int {
	for i, k := range sim.InfectionSummaries {
		if k == s {
			return i
		}
	}
	return -1
}

// Multi fans every call out to several consumers and stops at the first error.
type Multi []sim.StateConsumer

var _ sim.StateConsumer = Multi(nil)

func (m Multi) each(f func(sim.StateConsumer) error) error {
	for _, c := range m {
		if err := f(c); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) ConsumeBegin(state sim.SimulationState) error {
	return m.each(func(c sim.StateConsumer) error { return c.ConsumeBegin(state) })
}

func (m Multi) ConsumeState(state sim.SimulationState, regulation sim.ChosenRegulation) error {
	return m.each(func(c sim.StateConsumer) error { return c.ConsumeState(state, regulation) })
}

func (m Multi) Finalize() error { return m.each(sim.StateConsumer.Finalize) }
func (m Multi) Reset() error    { return m.each(sim.StateConsumer.Reset) }
func (m Multi) Close() error    { return m.each(sim.StateConsumer.Close) }
