// Package trace provides decision-trace recording for movement and regulation analysis.
// This package does not import sim/. It stores pure data types.
package trace

// EntryRecord captures a single location entry attempt.
type EntryRecord struct {
	Person       string
	Hour         int64 // simulation hours since epoch
	Location     string
	LocationType string
	Cause        string // what drove the attempt: health, schedule, routine name, home
	Admitted     bool
	Reason       string
}

// RegulationRecord captures one imposed regulation.
type RegulationRecord struct {
	Hour             int64
	Stage            int
	SocialDistancing float64
	RuleTypes        []string // location types that received a rule
}
