package env

import "github.com/pandemic-sim/pandemic-sim/sim"

// DoneFunction decides whether an episode has ended.
type DoneFunction interface {
	Done(obs Observation, action int) bool
	Reset()
}

// SummaryAboveThresholdDone ends the episode once a true summary exceeds a threshold.
type SummaryAboveThresholdDone struct {
	Summary   sim.InfectionSummary
	Threshold int
}

func (d SummaryAboveThresholdDone) Done(obs Observation, _ int) bool {
	idx := summaryIndex(d.Summary)
	return idx >= 0 && obs.Last().Infection[idx] > d.Threshold
}

func (SummaryAboveThresholdDone) Reset() {}

// CriticalAboveThresholdDone ends the episode when hospitals are overrun.
func CriticalAboveThresholdDone(threshold int) DoneFunction {
	return SummaryAboveThresholdDone{Summary: sim.SummaryCritical, Threshold: threshold}
}

// NoPandemicDone ends the episode after NumDays consecutive checks without
// a single infected or critical person.
type NoPandemicDone struct {
	NumDays int
	streak  int
}

func (d *NoPandemicDone) Done(obs Observation, _ int) bool {
	last := obs.Last()
	if last.Infection[summaryIndex(sim.SummaryInfected)]+last.Infection[summaryIndex(sim.SummaryCritical)] == 0 {
		d.streak++
	} else {
		d.streak = 0
	}
	return d.streak >= d.NumDays
}

func (d *NoPandemicDone) Reset() { d.streak = 0 }

// AnyDone ends when any of its members does. Every member is evaluated.
type AnyDone []DoneFunction

func (a AnyDone) Done(obs Observation, action int) bool {
	done := false
	for _, d := range a {
		done = d.Done(obs, action) || done
	}
	return done
}

func (a AnyDone) Reset() {
	for _, d := range a {
		d.Reset()
	}
}
