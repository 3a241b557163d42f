package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures regulation changes and denied entries.
	TraceLevelDecisions TraceLevel = "decisions"
	// TraceLevelEntries additionally captures every admitted entry.
	TraceLevelEntries TraceLevel = "entries"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	TraceLevelEntries:   true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during a simulation.
type SimulationTrace struct {
	Config      TraceConfig
	Entries     []EntryRecord
	Regulations []RegulationRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Entries:     make([]EntryRecord, 0),
		Regulations: make([]RegulationRecord, 0),
	}
}

// Enabled reports whether anything is recorded at all.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level != TraceLevelNone && st.Config.Level != ""
}

// RecordEntry appends an entry record. Admitted entries are kept only at TraceLevelEntries.
func (st *SimulationTrace) RecordEntry(record EntryRecord) {
	if !st.Enabled() {
		return
	}
	if record.Admitted && st.Config.Level != TraceLevelEntries {
		return
	}
	st.Entries = append(st.Entries, record)
}

// RecordRegulation appends a regulation record.
func (st *SimulationTrace) RecordRegulation(record RegulationRecord) {
	if !st.Enabled() {
		return
	}
	st.Regulations = append(st.Regulations, record)
}

// Reset drops every record but keeps the config.
func (st *SimulationTrace) Reset() {
	if st == nil {
		return
	}
	st.Entries = st.Entries[:0]
	st.Regulations = st.Regulations[:0]
}
