package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

// Admission denial reasons recorded in the decision trace.
const (
	ReasonAssignee       = "assignee"
	ReasonVisitor        = "visitor"
	ReasonPatient        = "patient"
	ReasonClosed         = "closed"
	ReasonOutsideHours   = "outside-visiting-hours"
	ReasonAtCapacity     = "at-capacity"
	ReasonPatientsFull   = "patient-capacity-full"
	ReasonAgeRestricted  = "age-restricted"
	ReasonAvoidedType    = "avoided-location-type"
	ReasonGatheringSize  = "gathering-too-large"
	ReasonUnknownPlace   = "unknown-location"
	ReasonAlreadyPresent = "already-present"
)

// LocationState is the mutable state of one location. Assignees are persons
// permanently attached (workers, students, residents). The three in-location
// sets are pairwise disjoint and AssigneesInLocation is a subset of Assignees.
type LocationState struct {
	ContactRate     ContactRate
	VisitorTime     TimeWindow
	VisitorCapacity int // -1 = unlimited
	OpenTime        TimeWindow
	Locked          bool
	PatientCapacity int // -1 = unlimited

	IsOpen               bool
	SocialGatheringEvent bool

	Assignees           *PersonSet
	AssigneesInLocation *PersonSet
	VisitorsInLocation  *PersonSet
	PatientsInLocation  *PersonSet
	NumAdmittedPatients int
}

// Clone returns a deep copy sharing no sets or window slices with s.
func (s LocationState) Clone() LocationState {
	c := s
	c.VisitorTime = s.VisitorTime.Clone()
	c.OpenTime = s.OpenTime.Clone()
	c.Assignees = s.Assignees.Clone()
	c.AssigneesInLocation = s.AssigneesInLocation.Clone()
	c.VisitorsInLocation = s.VisitorsInLocation.Clone()
	c.PatientsInLocation = s.PatientsInLocation.Clone()
	return c
}

// PersonsInLocation returns a new set with assignees, visitors and patients present.
func (s LocationState) PersonsInLocation() *PersonSet {
	return s.AssigneesInLocation.Union(s.VisitorsInLocation).Union(s.PatientsInLocation)
}

// LocationStateOptions are per-type overrides of a kind's default init state,
// read from a location config's state_opts. Nil fields keep the kind default.
type LocationStateOptions struct {
	ContactRate     *ContactRate `mapstructure:"contact_rate"`
	VisitorTime     *TimeWindow  `mapstructure:"visitor_time"`
	VisitorCapacity *int         `mapstructure:"visitor_capacity"`
	OpenTime        *TimeWindow  `mapstructure:"open_time"`
	Locked          *bool        `mapstructure:"locked"`
	PatientCapacity *int         `mapstructure:"patient_capacity"`
}

// ValidateFor rejects overrides of fields the kind's state does not have.
func (o LocationStateOptions) ValidateFor(kind LocationKind) error {
	if o.OpenTime != nil && !kind.Has(CapOpenHours) {
		return fmt.Errorf("%w: %s has no open_time", ErrInvalidConfig, kind.Type)
	}
	if o.Locked != nil && !kind.Has(CapLockable) {
		return fmt.Errorf("%w: %s has no locked flag", ErrInvalidConfig, kind.Type)
	}
	if o.PatientCapacity != nil && !kind.Has(CapPatientTrack) {
		return fmt.Errorf("%w: %s has no patient_capacity", ErrInvalidConfig, kind.Type)
	}
	if o.VisitorCapacity != nil && *o.VisitorCapacity < -1 {
		return fmt.Errorf("%w: visitor_capacity must be >= -1, got %d", ErrInvalidConfig, *o.VisitorCapacity)
	}
	if o.PatientCapacity != nil && *o.PatientCapacity < -1 {
		return fmt.Errorf("%w: patient_capacity must be >= -1, got %d", ErrInvalidConfig, *o.PatientCapacity)
	}
	for _, w := range []*TimeWindow{o.VisitorTime, o.OpenTime} {
		if w == nil {
			continue
		}
		if err := w.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// Location is one typed place. Its behaviour is selected by the capabilities of
// its kind. Every field mutation goes through Sync, UpdateRules or the
// membership methods.
type Location struct {
	id        LocationID
	kind      LocationKind
	initState LocationState
	state     LocationState
	now       SimulationTime
}

// NewLocation builds a location of type t from the kind defaults plus opts.
// rng supplies per-location construction draws (home gathering days).
func NewLocation(id LocationID, t LocationType, opts LocationStateOptions, rng *rand.Rand) (*Location, error) {
	kind, ok := KindOf(t)
	if !ok {
		return nil, fmt.Errorf("%w: unknown location type %q", ErrInvalidConfig, t)
	}
	if err := opts.ValidateFor(kind); err != nil {
		return nil, err
	}

	init := LocationState{
		ContactRate:         kind.ContactRate,
		VisitorTime:         kind.VisitorTime.Clone(),
		VisitorCapacity:     kind.VisitorCapacity,
		OpenTime:            kind.OpenTime.Clone(),
		PatientCapacity:     kind.PatientCapacity,
		IsOpen:              true,
		Assignees:           NewPersonSet(),
		AssigneesInLocation: NewPersonSet(),
		VisitorsInLocation:  NewPersonSet(),
		PatientsInLocation:  NewPersonSet(),
	}
	if kind.Has(CapSocialEvents) && rng != nil {
		init.VisitorTime = TimeWindow{Hours: kind.SocialEventHours, Days: socialEventDays(rng, kind.SocialEventDays)}
	}
	if opts.ContactRate != nil {
		init.ContactRate = *opts.ContactRate
	}
	if opts.VisitorTime != nil {
		init.VisitorTime = opts.VisitorTime.Clone()
	}
	if opts.VisitorCapacity != nil {
		init.VisitorCapacity = *opts.VisitorCapacity
	}
	if opts.OpenTime != nil {
		init.OpenTime = opts.OpenTime.Clone()
	}
	if opts.Locked != nil {
		init.Locked = *opts.Locked
	}
	if opts.PatientCapacity != nil {
		init.PatientCapacity = *opts.PatientCapacity
	}

	return &Location{id: id, kind: kind, initState: init, state: init.Clone()}, nil
}

func socialEventDays(rng *rand.Rand, n int) []int {
	days := make([]int, n)
	for i := range days {
		days[i] = rng.Intn(DaysPerYear)
	}
	sort.Ints(days)
	return days
}

func (l *Location) ID() LocationID        { return l.id }
func (l *Location) Type() LocationType    { return l.kind.Type }
func (l *Location) Kind() LocationKind    { return l.kind }
func (l *Location) State() *LocationState { return &l.state }

// InitState returns a copy of the construction-time state.
func (l *Location) InitState() LocationState { return l.initState.Clone() }

// Sync records the current time and recomputes the time-driven flags.
// Calling it twice with the same time is the same as calling it once.
func (l *Location) Sync(t SimulationTime) {
	l.now = t
	if l.kind.Has(CapOpenHours) {
		l.state.IsOpen = l.openAt(t)
	}
	if l.kind.Has(CapSocialEvents) {
		l.state.SocialGatheringEvent = l.state.VisitorTime.Contains(t)
	}
}

// UpdateRules applies a regulation rule. Unset fields are left alone,
// ResetToDefault fields revert to the init state, fields the kind does not
// have are ignored.
func (l *Location) UpdateRules(rule LocationRule) {
	if l.kind.Has(CapRuleExempt) {
		return
	}
	s, init := &l.state, &l.initState
	s.ContactRate = rule.ContactRate.Apply(s.ContactRate, init.ContactRate)
	s.VisitorTime = rule.VisitorTime.Apply(s.VisitorTime, init.VisitorTime).Clone()
	s.VisitorCapacity = rule.VisitorCapacity.Apply(s.VisitorCapacity, init.VisitorCapacity)
	if l.kind.Has(CapOpenHours) {
		s.OpenTime = rule.OpenTime.Apply(s.OpenTime, init.OpenTime).Clone()
	}
	if l.kind.Has(CapLockable) {
		s.Locked = rule.Lock.Apply(s.Locked, init.Locked)
	}
}

// Admit decides whether p may enter now, with the reason recorded in traces.
func (l *Location) Admit(p *Person) (bool, string) {
	id := p.ID()
	if l.kind.Has(CapAgeRestricted) && (id.Age < l.kind.AgeMin || id.Age > l.kind.AgeMax) {
		return false, ReasonAgeRestricted
	}
	if l.kind.Has(CapPatientTrack) && p.InfectionSummary() == SummaryCritical {
		if l.state.PatientCapacity == -1 || l.state.PatientsInLocation.Len() < l.state.PatientCapacity {
			return true, ReasonPatient
		}
		return false, ReasonPatientsFull
	}
	if !l.state.IsOpen {
		return false, ReasonClosed
	}
	if l.state.Assignees.Contains(id) {
		return true, ReasonAssignee
	}
	if !l.state.VisitorTime.Contains(l.now) {
		return false, ReasonOutsideHours
	}
	if l.state.VisitorCapacity != -1 && l.state.VisitorsInLocation.Len() >= l.state.VisitorCapacity {
		return false, ReasonAtCapacity
	}
	return true, ReasonVisitor
}

// IsEntryAllowed is Admit without the reason.
func (l *Location) IsEntryAllowed(p *Person) bool {
	ok, _ := l.Admit(p)
	return ok
}

// openAt evaluates the open flag for t from the current hours and lock.
func (l *Location) openAt(t SimulationTime) bool {
	if !l.kind.Has(CapOpenHours) {
		return l.state.IsOpen
	}
	return l.state.OpenTime.Contains(t) && !(l.kind.Has(CapLockable) && l.state.Locked)
}

// IsOpenForVisitors reports whether a non-assignee could be admitted at t, ignoring capacity.
func (l *Location) IsOpenForVisitors(t SimulationTime) bool {
	return l.openAt(t) && l.state.VisitorTime.Contains(t)
}

// AssignPerson attaches id permanently. Idempotent, no capacity check.
func (l *Location) AssignPerson(id PersonID) {
	l.state.Assignees.Add(id)
}

// UnassignPerson detaches id. The caller must have moved the person out first.
func (l *Location) UnassignPerson(id PersonID) {
	l.state.Assignees.Remove(id)
}

// AddPersonToLocation places p in the patient, assignee or visitor set.
func (l *Location) AddPersonToLocation(p *Person) {
	id := p.ID()
	switch {
	case l.kind.Has(CapPatientTrack) && p.InfectionSummary() == SummaryCritical:
		l.state.PatientsInLocation.Add(id)
		l.state.NumAdmittedPatients++
	case l.state.Assignees.Contains(id):
		l.state.AssigneesInLocation.Add(id)
	default:
		l.state.VisitorsInLocation.Add(id)
	}
}

// RemovePersonFromLocation removes id from whichever in-location set holds it.
func (l *Location) RemovePersonFromLocation(id PersonID) {
	if l.state.PatientsInLocation.Remove(id) {
		return
	}
	if l.state.AssigneesInLocation.Remove(id) {
		return
	}
	l.state.VisitorsInLocation.Remove(id)
}

// Contains reports whether id is currently inside.
func (l *Location) Contains(id PersonID) bool {
	return l.state.AssigneesInLocation.Contains(id) ||
		l.state.VisitorsInLocation.Contains(id) ||
		l.state.PatientsInLocation.Contains(id)
}

// NumPersonsInLocation counts everyone present, patients included.
func (l *Location) NumPersonsInLocation() int {
	return l.state.AssigneesInLocation.Len() + l.state.VisitorsInLocation.Len() + l.state.PatientsInLocation.Len()
}

// WorkTime returns the hours a newly assigned worker works here.
func (l *Location) WorkTime(rng *rand.Rand) TimeWindow {
	if l.kind.RoundTheClock {
		return roundTheClockShift(rng)
	}
	return l.initState.OpenTime.Clone()
}

// Reset restores the construction-time state.
func (l *Location) Reset() {
	l.state = l.initState.Clone()
	l.now = SimulationTime{}
}
