package sim

import (
	"fmt"
	"math/rand"
	"slices"
)

// PersonKind is the closed set of person variants.
type PersonKind string

const (
	Adult   PersonKind = "adult"
	Child   PersonKind = "child"
	Student PersonKind = "student"
	Retired PersonKind = "retired"
)

// PersonKinds lists every kind in a stable order.
var PersonKinds = []PersonKind{Adult, Child, Student, Retired}

// Age bounds per kind.
const (
	MaxChildAge   = 18
	MinStudentAge = 19
	MaxStudentAge = 21
	MinWorkingAge = 18
	RetirementAge = 65
	MaxAge        = 110
)

// Spread multipliers applied by compliant persons.
const (
	hygieneFactor      = 0.8
	faceCoveringFactor = 0.5
)

func validateAge(kind PersonKind, age int) error {
	if age < 0 || age > MaxAge {
		return fmt.Errorf("%w: age must be in [0, %d], got %d", ErrInvalidConfig, MaxAge, age)
	}
	switch kind {
	case Child:
		if age > MaxChildAge {
			return fmt.Errorf("%w: a child's age must be <= %d, got %d", ErrInvalidConfig, MaxChildAge, age)
		}
	case Student:
		if age < MinStudentAge || age > MaxStudentAge {
			return fmt.Errorf("%w: a student's age must be in [%d, %d], got %d", ErrInvalidConfig, MinStudentAge, MaxStudentAge, age)
		}
	case Adult, Retired:
	default:
		return fmt.Errorf("%w: unknown person kind %q", ErrInvalidConfig, kind)
	}
	return nil
}

// LocationProbability is one entry of the per-day not-infected history.
type LocationProbability struct {
	Location    LocationID
	Probability float64
}

// PersonState is the mutable per-person record. Behavioural flags are written
// only by ReceiveRegulation; everything else is owned by the person and the simulator.
type PersonState struct {
	CurrentLocation           LocationID
	Risk                      Risk
	InfectionState            *IndividualInfectionState
	InfectionSpreadMultiplier float64

	Quarantine                       bool
	QuarantineIfContactPositive      bool
	QuarantineIfHouseholdQuarantined bool
	SickAtHome                       bool
	AvoidGatheringSize               int
	AvoidLocationTypes               []LocationType

	Quarantined bool
	TestResult  TestResult

	NotInfectionProbability        float64
	NotInfectionProbabilityHistory []LocationProbability
}

// Clone returns a copy sharing no slices with s. The infection state is
// immutable, so the pointer is shared.
func (s PersonState) Clone() PersonState {
	c := s
	c.AvoidLocationTypes = slices.Clone(s.AvoidLocationTypes)
	c.NotInfectionProbabilityHistory = slices.Clone(s.NotInfectionProbabilityHistory)
	return c
}

// Schedule is a person's mandatory location (work, school, university) and its hours.
type Schedule struct {
	Location LocationID
	Window   TimeWindow
}

// PersonConfig holds everything needed to build a person.
type PersonConfig struct {
	ID                       PersonID
	Kind                     PersonKind
	Home                     LocationID
	Risk                     Risk
	Schedule                 *Schedule // nil for persons without work or school
	RegulationComplianceProb float64
	// DuringScheduleRoutines may interrupt the mandatory schedule (lunch near work).
	DuringScheduleRoutines []PersonRoutine
	// Routines run outside the schedule window, in order.
	Routines []PersonRoutine
}

// Person is one agent. Its variant only matters at construction (age checks)
// and at routine assignment; the step logic is shared by all kinds.
type Person struct {
	id         PersonID
	kind       PersonKind
	home       LocationID
	schedule   *Schedule
	compliance float64

	duringSchedule []*RoutineWithStatus
	routines       []*RoutineWithStatus

	initState PersonState
	state     PersonState
}

// NewPerson validates cfg and builds a person standing at home.
func NewPerson(cfg PersonConfig) (*Person, error) {
	if err := validateAge(cfg.Kind, cfg.ID.Age); err != nil {
		return nil, err
	}
	if cfg.Home == "" {
		return nil, fmt.Errorf("%w: person %s has no home", ErrInvalidConfig, cfg.ID)
	}
	if cfg.RegulationComplianceProb < 0 || cfg.RegulationComplianceProb > 1 {
		return nil, fmt.Errorf("%w: regulation compliance probability must be in [0, 1], got %f", ErrInvalidConfig, cfg.RegulationComplianceProb)
	}
	risk := cfg.Risk
	if risk == "" {
		risk = RiskLow
	}
	if !IsValidRisk(risk) {
		return nil, fmt.Errorf("%w: unknown risk %q", ErrInvalidConfig, risk)
	}
	if cfg.Schedule != nil && cfg.Kind == Retired {
		return nil, fmt.Errorf("%w: retired person %s cannot have a schedule", ErrInvalidConfig, cfg.ID)
	}

	p := &Person{
		id:         cfg.ID,
		kind:       cfg.Kind,
		home:       cfg.Home,
		compliance: cfg.RegulationComplianceProb,
	}
	if cfg.Schedule != nil {
		s := Schedule{Location: cfg.Schedule.Location, Window: cfg.Schedule.Window.Clone()}
		p.schedule = &s
	}
	p.SetRoutines(cfg.DuringScheduleRoutines, cfg.Routines)
	p.initState = PersonState{
		CurrentLocation:           cfg.Home,
		Risk:                      risk,
		InfectionSpreadMultiplier: 1,
		AvoidGatheringSize:        -1,
		TestResult:                TestUntested,
		NotInfectionProbability:   1,
	}
	p.state = p.initState.Clone()
	return p, nil
}

// SetRoutines replaces both routine lists; statuses start fresh.
func (p *Person) SetRoutines(duringSchedule, outside []PersonRoutine) {
	p.duringSchedule = p.duringSchedule[:0]
	for _, r := range duringSchedule {
		p.duringSchedule = append(p.duringSchedule, newRoutineWithStatus(r))
	}
	p.routines = p.routines[:0]
	for _, r := range outside {
		p.routines = append(p.routines, newRoutineWithStatus(r))
	}
}

func (p *Person) ID() PersonID           { return p.id }
func (p *Person) Kind() PersonKind       { return p.kind }
func (p *Person) Home() LocationID       { return p.home }
func (p *Person) Schedule() *Schedule    { return p.schedule }
func (p *Person) State() *PersonState    { return &p.state }
func (p *Person) InitState() PersonState { return p.initState.Clone() }

// AssignedLocations returns home followed by the schedule location, if any.
func (p *Person) AssignedLocations() []LocationID {
	if p.schedule == nil {
		return []LocationID{p.home}
	}
	return []LocationID{p.home, p.schedule.Location}
}

// Routines returns the outside-schedule routines with their statuses.
func (p *Person) Routines() []*RoutineWithStatus { return p.routines }

// DuringScheduleRoutines returns the routines that may interrupt the schedule.
func (p *Person) DuringScheduleRoutines() []*RoutineWithStatus { return p.duringSchedule }

// InfectionSummary is the coarse infection progression, none when never infected.
func (p *Person) InfectionSummary() InfectionSummary {
	return SummaryOf(p.state.InfectionState)
}

func (p *Person) AtHome() bool { return p.state.CurrentLocation == p.home }

func (p *Person) inScheduleWindow(t SimulationTime) bool {
	return p.schedule != nil && p.schedule.Window.Contains(t)
}

// ReceiveRegulation makes one compliance roll. On success the behavioural
// flags are overwritten from reg; otherwise reg is ignored for this person.
// Exactly one draw is consumed per call.
func (p *Person) ReceiveRegulation(reg ChosenRegulation, rng *rand.Rand) bool {
	if rng.Float64() >= p.compliance {
		return false
	}
	s := &p.state
	s.Quarantine = reg.Quarantine
	s.QuarantineIfContactPositive = reg.QuarantineIfContactPositive
	s.QuarantineIfHouseholdQuarantined = reg.QuarantineIfHouseholdQuarantined
	s.SickAtHome = reg.StayHomeIfSick
	s.AvoidGatheringSize = reg.AvoidGatheringSize(s.Risk)
	s.AvoidLocationTypes = slices.Clone(reg.AvoidLocationTypes(s.Risk))

	m := 1.0
	if reg.PracticeGoodHygiene {
		m *= hygieneFactor
	}
	if reg.WearFacialCoverings {
		m *= faceCoveringFactor
	}
	s.InfectionSpreadMultiplier = m
	return true
}

// Sync updates routine statuses and the quarantined flag for time t.
func (p *Person) Sync(ctx *SimulationContext, t SimulationTime) {
	for _, rs := range p.duringSchedule {
		rs.sync(t, p.state.CurrentLocation)
	}
	for _, rs := range p.routines {
		rs.sync(t, p.state.CurrentLocation)
	}
	p.state.Quarantined = p.shouldQuarantine(ctx)
}

func (p *Person) shouldQuarantine(ctx *SimulationContext) bool {
	s := &p.state
	if s.Quarantine && (s.TestResult == TestPositive || s.TestResult == TestCritical) {
		return true
	}
	if s.QuarantineIfHouseholdQuarantined && ctx.Registry.HouseholdQuarantined(p) {
		return true
	}
	if s.QuarantineIfContactPositive && ctx.Tracer != nil {
		for c := range ctx.Tracer.GetContacts(p.id) {
			if ctx.Registry.TestResultOf(c) == TestPositive {
				return true
			}
		}
	}
	return false
}

// === Movement ===

// Cause labels for MoveResult.
const (
	CauseHealth   = "health"
	CauseSchedule = "schedule"
	CauseHome     = "home"
)

// MoveResult is the outcome of one Step: either Moved to a location, or
// StayedPut. A StayedPut may still carry a denied attempt.
type MoveResult struct {
	Moved     bool
	Location  LocationID // destination when moved, denied target otherwise
	Attempted bool
	Cause     string
	Reason    string
}

// StayedPut is the no-movement result.
func StayedPut() MoveResult { return MoveResult{} }

func attemptResult(loc LocationID, cause string, ok bool, reason string) MoveResult {
	return MoveResult{Moved: ok, Location: loc, Attempted: true, Cause: cause, Reason: reason}
}

// Step performs at most one entry attempt, the first applicable of:
// health gates, the mandatory schedule (with its interrupting routines),
// outside routines, going home. A denied attempt is not retried elsewhere.
func (p *Person) Step(ctx *SimulationContext, t SimulationTime) MoveResult {
	if r, handled := p.stepHealth(ctx); handled {
		return r
	}

	if p.inScheduleWindow(t) {
		if r, handled := p.stepRoutines(ctx, t, p.duringSchedule); handled {
			return r
		}
		if p.state.CurrentLocation != p.schedule.Location {
			ok, reason := p.EnterLocation(ctx, p.schedule.Location)
			return attemptResult(p.schedule.Location, CauseSchedule, ok, reason)
		}
		return StayedPut()
	}

	if r, handled := p.stepRoutines(ctx, t, p.routines); handled {
		return r
	}

	if !p.AtHome() {
		ok, reason := p.EnterLocation(ctx, p.home)
		return attemptResult(p.home, CauseHome, ok, reason)
	}
	return StayedPut()
}

func (p *Person) stepHealth(ctx *SimulationContext) (MoveResult, bool) {
	inf := p.state.InfectionState
	switch {
	case SummaryOf(inf) == SummaryDead:
		return StayedPut(), true
	case inf != nil && inf.IsHospitalized:
		reg := ctx.Registry
		cur := p.state.CurrentLocation
		if reg.LocationTypeOf(cur) == Hospital && reg.Location(cur).State().PatientsInLocation.Contains(p.id) {
			return StayedPut(), true
		}
		h, ok := p.hospitalTarget(reg)
		if !ok {
			return p.goHome(ctx)
		}
		if h == cur {
			// turned critical inside a hospital, e.g. on shift
			admitted, reason := reg.AdmitAsPatientInPlace(p.id)
			return attemptResult(h, CauseHealth, admitted, reason), true
		}
		admitted, reason := p.EnterLocation(ctx, h)
		return attemptResult(h, CauseHealth, admitted, reason), true
	case (inf != nil && inf.ShowsSymptoms && p.state.SickAtHome) || p.state.Quarantined:
		return p.goHome(ctx)
	}
	return MoveResult{}, false
}

// hospitalTarget picks the one hospital a hospitalized person tries this
// tick: the current hospital if it has a bed, else the first in registration
// order that would admit the person, else the current or first hospital.
func (p *Person) hospitalTarget(reg *Registry) (LocationID, bool) {
	ids := reg.LocationIDsOfType(Hospital)
	if len(ids) == 0 {
		return "", false
	}
	cur := p.state.CurrentLocation
	inHospital := reg.LocationTypeOf(cur) == Hospital
	if inHospital && reg.Location(cur).IsEntryAllowed(p) {
		return cur, true
	}
	for _, h := range ids {
		if h != cur && reg.Location(h).IsEntryAllowed(p) {
			return h, true
		}
	}
	if inHospital {
		return cur, true
	}
	return ids[0], true
}

func (p *Person) goHome(ctx *SimulationContext) (MoveResult, bool) {
	if p.AtHome() {
		return StayedPut(), true
	}
	ok, reason := p.EnterLocation(ctx, p.home)
	return attemptResult(p.home, CauseHealth, ok, reason), true
}

// stepRoutines holds the person at a started routine's target, otherwise
// attempts the first routine that can start now.
func (p *Person) stepRoutines(ctx *SimulationContext, t SimulationTime, routines []*RoutineWithStatus) (MoveResult, bool) {
	for _, rs := range routines {
		if rs.Status.Started {
			return StayedPut(), true
		}
	}
	rng := ctx.RNG.ForSubsystem(SubsystemPersons)
	for _, rs := range routines {
		if !rs.canStart(t, p.state.CurrentLocation) {
			continue
		}
		exclude := LocationID("")
		if rs.Routine.EndLocType == Home {
			exclude = p.home
		}
		target, ok := rs.resolveTarget(ctx.Registry, rng, exclude)
		if !ok {
			continue
		}
		if target == p.state.CurrentLocation {
			rs.start(target)
			return StayedPut(), true
		}
		admitted, reason := p.EnterLocation(ctx, target)
		if admitted {
			rs.start(target)
		}
		return attemptResult(target, rs.Routine.Name, admitted, reason), true
	}
	return MoveResult{}, false
}

// EnterLocation applies the person's own avoidance flags, then asks the
// registry to admit the person. It is the only way a person moves.
func (p *Person) EnterLocation(ctx *SimulationContext, id LocationID) (bool, string) {
	loc := ctx.Registry.Location(id)
	if loc == nil {
		return false, ReasonUnknownPlace
	}
	if id != p.home {
		if slices.Contains(p.state.AvoidLocationTypes, loc.Type()) {
			return false, ReasonAvoidedType
		}
		visiting := !loc.State().Assignees.Contains(p.id) && !loc.Kind().Has(CapPatientTrack)
		if visiting && p.state.AvoidGatheringSize != -1 && loc.NumPersonsInLocation() > p.state.AvoidGatheringSize {
			return false, ReasonGatheringSize
		}
	}
	return ctx.Registry.RegisterPersonEntryInLocation(p.id, id)
}

// Reset restores the init state and clears every routine status.
func (p *Person) Reset() {
	p.state = p.initState.Clone()
	for _, rs := range p.duringSchedule {
		rs.reset()
	}
	for _, rs := range p.routines {
		rs.reset()
	}
}

// setInfectionState is called by the registry so infection counters stay in step.
func (p *Person) setInfectionState(s *IndividualInfectionState) {
	p.state.InfectionState = s
}
