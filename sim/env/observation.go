package env

import (
	"github.com/pandemic-sim/pandemic-sim/sim"
)

// ObservationRow is what the policy sees of one tick.
type ObservationRow struct {
	Hours          int
	Stage          int
	Infection      [5]int // true summaries, indexed like sim.InfectionSummaries
	Observed       [5]int // testing view
	AboveThreshold bool
	// Unlocked has one entry per tracked non-essential business.
	Unlocked []bool
}

// Observation holds the last HistorySize ticks of a regulation interval, oldest first.
type Observation struct {
	Rows []ObservationRow
}

func rowFromState(st sim.SimulationState, businesses []sim.LocationID) ObservationRow {
	sum := st.Summary()
	row := ObservationRow{
		Hours:          sum.Hours,
		Stage:          sum.Stage,
		Infection:      sum.Infection,
		Observed:       sum.Observed,
		AboveThreshold: sum.AboveThreshold,
	}
	if businesses != nil {
		row.Unlocked = make([]bool, len(businesses))
		for i, id := range businesses {
			row.Unlocked[i] = !st.IDToLocationState[id].Locked
		}
	}
	return row
}

// Last returns the newest row.
func (o Observation) Last() ObservationRow {
	if len(o.Rows) == 0 {
		return ObservationRow{}
	}
	return o.Rows[len(o.Rows)-1]
}

// MeanInfection averages one true summary over the rows.
func (o Observation) MeanInfection(s sim.InfectionSummary) float64 {
	idx := summaryIndex(s)
	if idx < 0 || len(o.Rows) == 0 {
		return 0
	}
	total := 0
	for _, r := range o.Rows {
		total += r.Infection[idx]
	}
	return float64(total) / float64(len(o.Rows))
}

// MeanStage averages the stage over the rows.
func (o Observation) MeanStage() float64 {
	if len(o.Rows) == 0 {
		return 0
	}
	total := 0
	for _, r := range o.Rows {
		total += r.Stage
	}
	return float64(total) / float64(len(o.Rows))
}

// UnlockedFraction is the share of tracked businesses unlocked, averaged over rows.
// indices restricts the businesses considered; nil means all.
func (o Observation) UnlockedFraction(indices []int) float64 {
	n, unlocked := 0, 0
	for _, r := range o.Rows {
		if indices == nil {
			for _, u := range r.Unlocked {
				n++
				if u {
					unlocked++
				}
			}
			continue
		}
		for _, i := range indices {
			if i < len(r.Unlocked) {
				n++
				if r.Unlocked[i] {
					unlocked++
				}
			}
		}
	}
	if n == 0 {
		return 0
	}
	return float64(unlocked) / float64(n)
}

func summaryIndex(s sim.InfectionSummary) int {
	for i, k := range sim.InfectionSummaries {
		if k == s {
			return i
		}
	}
	return -1
}
