package sim

import (
	"math/rand"
	"sort"
)

// LocationType names a kind of location (Home, School, ...).
type LocationType string

const (
	Home         LocationType = "Home"
	GroceryStore LocationType = "GroceryStore"
	RetailStore  LocationType = "RetailStore"
	Office       LocationType = "Office"
	School       LocationType = "School"
	University   LocationType = "University"
	Hospital     LocationType = "Hospital"
	Restaurant   LocationType = "Restaurant"
	Bar          LocationType = "Bar"
)

// Capability is a bit in a LocationKind's capability set. Admission, sync and
// rule application select behaviour by capability rather than by type.
type Capability uint8

const (
	// CapOpenHours: is_open follows the open-hours window.
	CapOpenHours Capability = 1 << iota
	// CapLockable: the locked flag closes the location regardless of hours.
	CapLockable
	// CapAgeRestricted: entrants outside [AgeMin, AgeMax] are refused.
	CapAgeRestricted
	// CapPatientTrack: critical persons are admitted as patients on a separate capacity.
	CapPatientTrack
	// CapSocialEvents: the visiting window marks social gathering events.
	CapSocialEvents
	// CapRuleExempt: regulation rules are ignored.
	CapRuleExempt
)

// ContactRate describes how many contacts are sampled per tick inside a location,
// for each pairing of assignees (A) and visitors (V): at least Min*, plus
// Fraction* of the persons involved.
type ContactRate struct {
	MinAssignees              int     `yaml:"min_assignees" mapstructure:"min_assignees"`
	MinAssigneesVisitors      int     `yaml:"min_assignees_visitors" mapstructure:"min_assignees_visitors"`
	MinVisitors               int     `yaml:"min_visitors" mapstructure:"min_visitors"`
	FractionAssignees         float64 `yaml:"fraction_assignees" mapstructure:"fraction_assignees"`
	FractionAssigneesVisitors float64 `yaml:"fraction_assignees_visitors" mapstructure:"fraction_assignees_visitors"`
	FractionVisitors          float64 `yaml:"fraction_visitors" mapstructure:"fraction_visitors"`
}

// NewContactRate is positional shorthand used by the kind table.
func NewContactRate(minA, minAV, minV int, fracA, fracAV, fracV float64) ContactRate {
	return ContactRate{
		MinAssignees: minA, MinAssigneesVisitors: minAV, MinVisitors: minV,
		FractionAssignees: fracA, FractionAssigneesVisitors: fracAV, FractionVisitors: fracV,
	}
}

// LocationKind is the static description of a location type: capabilities,
// age limits and the default init state.
type LocationKind struct {
	Type   LocationType
	Caps   Capability
	AgeMin int
	AgeMax int

	ContactRate     ContactRate
	OpenTime        TimeWindow
	VisitorTime     TimeWindow
	VisitorCapacity int
	PatientCapacity int

	// Essential kinds stay open under lockdown and are not candidates for unlock rewards.
	Essential bool
	// RoundTheClock workers get 9-hour shifts instead of the open-hours window.
	RoundTheClock bool
	// SocialEventDays is the number of random days a year with gathering events.
	SocialEventDays int
	// SocialEventHours is the hour window of a gathering.
	SocialEventHours []int
}

// Has reports whether the kind carries every bit of c.
func (k LocationKind) Has(c Capability) bool { return k.Caps&c == c }

// IsBusiness reports whether the kind employs workers during open hours.
func (k LocationKind) IsBusiness() bool { return k.Has(CapOpenHours) }

var weekdays = Span(0, 5)

var locationKinds = map[LocationType]LocationKind{
	Home: {
		Type:             Home,
		Caps:             CapSocialEvents | CapRuleExempt,
		ContactRate:      NewContactRate(0, 1, 0, 0.5, 0.3, 0.3),
		VisitorCapacity:  -1,
		PatientCapacity:  -1,
		SocialEventDays:  12,
		SocialEventHours: Span(15, 20),
	},
	GroceryStore: {
		Type:            GroceryStore,
		Caps:            CapOpenHours,
		Essential:       true,
		ContactRate:     NewContactRate(0, 1, 0, 0.2, 0.25, 0.3),
		OpenTime:        TimeWindow{Hours: Span(7, 21), WeekDays: Span(0, 6)},
		VisitorCapacity: -1,
		PatientCapacity: -1,
	},
	RetailStore: {
		Type:            RetailStore,
		Caps:            CapOpenHours | CapLockable,
		ContactRate:     NewContactRate(0, 1, 0, 0.2, 0.25, 0.3),
		OpenTime:        TimeWindow{Hours: Span(7, 21), WeekDays: Span(0, 6)},
		VisitorCapacity: -1,
		PatientCapacity: -1,
	},
	Office: {
		Type:            Office,
		Caps:            CapOpenHours | CapLockable | CapAgeRestricted,
		AgeMin:          18,
		AgeMax:          110,
		ContactRate:     NewContactRate(2, 1, 0, 0.1, 0.01, 0.01),
		OpenTime:        TimeWindow{Hours: Span(9, 17), WeekDays: weekdays},
		VisitorCapacity: -1,
		PatientCapacity: -1,
	},
	School: {
		Type:            School,
		Caps:            CapOpenHours | CapLockable,
		ContactRate:     NewContactRate(5, 1, 0, 0.1, 0, 0.1),
		OpenTime:        TimeWindow{Hours: Span(7, 15), WeekDays: weekdays},
		VisitorCapacity: -1,
		PatientCapacity: -1,
	},
	University: {
		Type:            University,
		Caps:            CapOpenHours | CapLockable,
		ContactRate:     NewContactRate(1, 1, 0, 0.5, 0.3, 0.1),
		OpenTime:        TimeWindow{Hours: Span(9, 17), WeekDays: Span(1, 7)},
		VisitorCapacity: -1,
		PatientCapacity: -1,
	},
	Hospital: {
		Type:            Hospital,
		Caps:            CapOpenHours | CapPatientTrack,
		Essential:       true,
		RoundTheClock:   true,
		ContactRate:     NewContactRate(2, 1, 0, 0.1, 0.1, 0.05),
		VisitorCapacity: -1,
		PatientCapacity: -1,
	},
	Restaurant: {
		Type:            Restaurant,
		Caps:            CapOpenHours | CapLockable,
		ContactRate:     NewContactRate(1, 1, 0, 0.3, 0.35, 0.1),
		OpenTime:        TimeWindow{Hours: append(Span(11, 16), Span(19, 24)...), WeekDays: Span(1, 7)},
		VisitorCapacity: -1,
		PatientCapacity: -1,
	},
	Bar: {
		Type:            Bar,
		Caps:            CapOpenHours | CapLockable | CapAgeRestricted,
		AgeMin:          21,
		AgeMax:          110,
		ContactRate:     NewContactRate(1, 1, 0, 0.7, 0.2, 0.1),
		OpenTime:        TimeWindow{Hours: Span(21, 24), WeekDays: Span(1, 7)},
		VisitorCapacity: -1,
		PatientCapacity: -1,
	},
}

// KindOf looks up the static description of a location type.
func KindOf(t LocationType) (LocationKind, bool) {
	k, ok := locationKinds[t]
	return k, ok
}

// IsValidLocationType reports whether t is a known location type.
func IsValidLocationType(t LocationType) bool {
	_, ok := locationKinds[t]
	return ok
}

// ValidLocationTypes returns every known type, sorted.
func ValidLocationTypes() []LocationType {
	out := make([]LocationType, 0, len(locationKinds))
	for t := range locationKinds {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// roundTheClockShift draws a worker shift for a location open 24x7: either a
// night shift (22h-6h) or a 9-hour day shift starting between 7h and 12h, on
// six consecutive week days.
func roundTheClockShift(rng *rand.Rand) TimeWindow {
	var hours []int
	if rng.Float64() < 0.5 {
		hours = append([]int{22, 23}, Span(0, 7)...)
	} else {
		start := 7 + rng.Intn(6)
		hours = Span(start, start+9)
	}
	start := rng.Intn(2)
	return TimeWindow{Hours: hours, WeekDays: Span(start, start+6)}
}
