package sim

// SimulationState is a read-only snapshot of the whole simulation. Every map
// and record is a deep copy; consumers may keep it across ticks.
type SimulationState struct {
	IDToPersonState   map[PersonID]PersonState
	IDToLocationState map[LocationID]LocationState

	// LocationTypeInfectionSummary counts infected persons currently inside each location type.
	LocationTypeInfectionSummary map[LocationType]int
	GlobalInfectionSummary       map[InfectionSummary]int
	GlobalTestingState           GlobalTestingState
	GlobalLocationSummary        map[VisitKey]LocationSummary

	InfectionAboveThreshold bool
	RegulationStage         int
	SocialDistancing        float64
	SimTime                 SimulationTime
}

// AggregateSummary is a comparable, allocation-free digest of one tick. Two
// runs with the same seed and config produce equal sequences of summaries.
type AggregateSummary struct {
	Hours          int
	Stage          int
	Infection      [5]int // indexed like InfectionSummaries
	Observed       [5]int // testing view, indexed like InfectionSummaries
	NumTests       int
	AboveThreshold bool
}

// Summary digests a snapshot the same way Simulator.Summary digests the live state.
func (st SimulationState) Summary() AggregateSummary {
	return AggregateSummary{
		Hours:          st.SimTime.ToHours(),
		Stage:          st.RegulationStage,
		Infection:      summaryArray(st.GlobalInfectionSummary),
		Observed:       summaryArray(st.GlobalTestingState.Summary),
		NumTests:       st.GlobalTestingState.NumTests,
		AboveThreshold: st.InfectionAboveThreshold,
	}
}

func summaryArray(m map[InfectionSummary]int) [5]int {
	var out [5]int
	for i, s := range InfectionSummaries {
		out[i] = m[s]
	}
	return out
}

// StateConsumer receives snapshots during an episode (recorders, metrics, observation builders).
type StateConsumer interface {
	// ConsumeBegin is called with the state right after a reset.
	ConsumeBegin(state SimulationState) error
	// ConsumeState is called after every consumed tick with the regulation in force.
	ConsumeState(state SimulationState, regulation ChosenRegulation) error
	// Finalize ends an episode.
	Finalize() error
	Reset() error
	Close() error
}
