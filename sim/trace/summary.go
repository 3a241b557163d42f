package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalAttempts     int
	AdmittedCount     int
	DeniedCount       int
	DenialReasons     map[string]int // reason → count of denied entries
	AdmittedByType    map[string]int // location type → count of admitted entries
	RegulationChanges int
	StagesVisited     int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		DenialReasons:  make(map[string]int),
		AdmittedByType: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalAttempts = len(st.Entries)
	for _, e := range st.Entries {
		if e.Admitted {
			summary.AdmittedCount++
			summary.AdmittedByType[e.LocationType]++
		} else {
			summary.DeniedCount++
			summary.DenialReasons[e.Reason]++
		}
	}

	summary.RegulationChanges = len(st.Regulations)
	stages := make(map[int]bool)
	for _, r := range st.Regulations {
		stages[r.Stage] = true
	}
	summary.StagesVisited = len(stages)

	return summary
}
