package trace

import "testing"

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEntries})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalAttempts != 0 {
		t.Errorf("expected 0 total attempts, got %d", summary.TotalAttempts)
	}
	if summary.AdmittedCount != 0 || summary.DeniedCount != 0 {
		t.Error("expected 0 admitted and denied")
	}
	if summary.RegulationChanges != 0 || summary.StagesVisited != 0 {
		t.Error("expected no regulation changes")
	}
	if len(summary.DenialReasons) != 0 || len(summary.AdmittedByType) != 0 {
		t.Error("expected empty distributions")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with mixed entry and regulation records
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEntries})
	st.RecordEntry(EntryRecord{Person: "a", LocationType: "Restaurant", Admitted: true, Reason: "visitor"})
	st.RecordEntry(EntryRecord{Person: "b", LocationType: "Restaurant", Admitted: false, Reason: "at-capacity"})
	st.RecordEntry(EntryRecord{Person: "c", LocationType: "School", Admitted: false, Reason: "closed"})
	st.RecordEntry(EntryRecord{Person: "d", LocationType: "School", Admitted: false, Reason: "closed"})
	st.RecordRegulation(RegulationRecord{Stage: 0})
	st.RecordRegulation(RegulationRecord{Stage: 3})
	st.RecordRegulation(RegulationRecord{Stage: 0})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalAttempts != 4 {
		t.Errorf("expected 4 total attempts, got %d", summary.TotalAttempts)
	}
	if summary.AdmittedCount != 1 {
		t.Errorf("expected 1 admitted, got %d", summary.AdmittedCount)
	}
	if summary.DeniedCount != 3 {
		t.Errorf("expected 3 denied, got %d", summary.DeniedCount)
	}
	if summary.DenialReasons["closed"] != 2 {
		t.Errorf("expected 2 closed denials, got %d", summary.DenialReasons["closed"])
	}
	if summary.AdmittedByType["Restaurant"] != 1 {
		t.Errorf("expected 1 restaurant admission, got %d", summary.AdmittedByType["Restaurant"])
	}
	if summary.RegulationChanges != 3 {
		t.Errorf("expected 3 regulation changes, got %d", summary.RegulationChanges)
	}
	if summary.StagesVisited != 2 {
		t.Errorf("expected 2 distinct stages, got %d", summary.StagesVisited)
	}
}

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	// GIVEN a nil trace
	// WHEN summarized
	summary := Summarize(nil)

	// THEN returns zero-value summary without panic
	if summary.TotalAttempts != 0 {
		t.Errorf("expected 0, got %d", summary.TotalAttempts)
	}
	if summary.DenialReasons == nil {
		t.Error("expected non-nil DenialReasons map")
	}
}
