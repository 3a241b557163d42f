package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// VisitKey groups entry counts by location type and person kind.
type VisitKey struct {
	LocationType LocationType
	PersonKind   PersonKind
}

// LocationSummary counts admitted entries for one VisitKey.
type LocationSummary struct {
	Entries        int
	VisitorEntries int
}

// Registry owns every location and person and arbitrates all movement.
// Locations and persons are iterated in registration order.
type Registry struct {
	locations     map[LocationID]*Location
	locationOrder []LocationID
	byType        map[LocationType][]LocationID

	persons     map[PersonID]*Person
	personOrder []PersonID
	households  map[LocationID]*PersonSet

	visits          map[VisitKey]*LocationSummary
	infectionCounts map[InfectionSummary]int
	socialEvents    []LocationID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{
		locations:  make(map[LocationID]*Location),
		byType:     make(map[LocationType][]LocationID),
		persons:    make(map[PersonID]*Person),
		households: make(map[LocationID]*PersonSet),
	}
	r.clearAggregates()
	return r
}

func (r *Registry) clearAggregates() {
	r.visits = make(map[VisitKey]*LocationSummary)
	r.infectionCounts = make(map[InfectionSummary]int, len(InfectionSummaries))
	r.socialEvents = nil
}

// RegisterLocation adds loc. Registering an id twice is an error.
func (r *Registry) RegisterLocation(loc *Location) error {
	if _, ok := r.locations[loc.ID()]; ok {
		return fmt.Errorf("location %s: %w", loc.ID(), ErrDuplicateRegistration)
	}
	r.locations[loc.ID()] = loc
	r.locationOrder = append(r.locationOrder, loc.ID())
	r.byType[loc.Type()] = append(r.byType[loc.Type()], loc.ID())
	return nil
}

// RegisterPerson adds p, assigns it to its home and schedule location and
// places it at home. Every referenced location must already be registered.
func (r *Registry) RegisterPerson(p *Person) error {
	if _, ok := r.persons[p.ID()]; ok {
		return fmt.Errorf("person %s: %w", p.ID(), ErrDuplicateRegistration)
	}
	for _, id := range p.AssignedLocations() {
		if _, ok := r.locations[id]; !ok {
			return fmt.Errorf("person %s references %s: %w", p.ID(), id, ErrUnknownLocation)
		}
	}
	if t := r.locations[p.Home()].Type(); t != Home {
		return fmt.Errorf("%w: person %s home %s is a %s", ErrInvalidConfig, p.ID(), p.Home(), t)
	}
	r.persons[p.ID()] = p
	r.personOrder = append(r.personOrder, p.ID())
	r.settle(p)
	r.infectionCounts[p.InfectionSummary()]++
	return nil
}

// settle attaches p to its assigned locations and puts it at home.
func (r *Registry) settle(p *Person) {
	for _, id := range p.AssignedLocations() {
		r.locations[id].AssignPerson(p.ID())
	}
	hh, ok := r.households[p.Home()]
	if !ok {
		hh = NewPersonSet()
		r.households[p.Home()] = hh
	}
	hh.Add(p.ID())
	r.locations[p.Home()].AddPersonToLocation(p)
	p.state.CurrentLocation = p.Home()
}

// RegisterPersonEntryInLocation asks the target to admit the person and, on
// success, moves it there. This is the only way a current location changes.
func (r *Registry) RegisterPersonEntryInLocation(pid PersonID, lid LocationID) (bool, string) {
	p, ok := r.persons[pid]
	if !ok {
		return false, ReasonUnknownPlace
	}
	loc, ok := r.locations[lid]
	if !ok {
		return false, ReasonUnknownPlace
	}
	if p.state.CurrentLocation == lid {
		return false, ReasonAlreadyPresent
	}
	admitted, reason := loc.Admit(p)
	if !admitted {
		return false, reason
	}
	if prev, ok := r.locations[p.state.CurrentLocation]; ok {
		prev.RemovePersonFromLocation(pid)
	}
	loc.AddPersonToLocation(p)
	p.state.CurrentLocation = lid

	key := VisitKey{LocationType: loc.Type(), PersonKind: p.Kind()}
	sum, ok := r.visits[key]
	if !ok {
		sum = &LocationSummary{}
		r.visits[key] = sum
	}
	sum.Entries++
	if reason == ReasonVisitor {
		sum.VisitorEntries++
	}
	return true, reason
}

// AdmitAsPatientInPlace moves a person already inside a hospital onto its
// patient track, subject to patient capacity. The current location is unchanged.
func (r *Registry) AdmitAsPatientInPlace(pid PersonID) (bool, string) {
	p, ok := r.persons[pid]
	if !ok {
		return false, ReasonUnknownPlace
	}
	loc, ok := r.locations[p.state.CurrentLocation]
	if !ok || !loc.Kind().Has(CapPatientTrack) {
		return false, ReasonUnknownPlace
	}
	if loc.State().PatientsInLocation.Contains(pid) {
		return false, ReasonAlreadyPresent
	}
	admitted, reason := loc.Admit(p)
	if !admitted || reason != ReasonPatient {
		return false, reason
	}
	loc.RemovePersonFromLocation(pid)
	loc.AddPersonToLocation(p)
	return true, reason
}

// ReassignLocations moves p's schedule to newLoc with the given hours. The
// person is sent home first; routines anchored at the old location follow it.
func (r *Registry) ReassignLocations(pid PersonID, newLoc LocationID, window TimeWindow) error {
	p, ok := r.persons[pid]
	if !ok {
		return fmt.Errorf("person %s is not registered", pid)
	}
	if p.schedule == nil {
		return fmt.Errorf("%w: person %s has no schedule to reassign", ErrInvalidConfig, pid)
	}
	target, ok := r.locations[newLoc]
	if !ok {
		return fmt.Errorf("reassigning %s to %s: %w", pid, newLoc, ErrUnknownLocation)
	}
	if !p.AtHome() {
		if ok, reason := r.RegisterPersonEntryInLocation(pid, p.Home()); !ok {
			return fmt.Errorf("reassigning %s: cannot return home: %s", pid, reason)
		}
	}
	old := p.schedule.Location
	r.locations[old].UnassignPerson(pid)
	target.AssignPerson(pid)
	p.schedule.Location = newLoc
	p.schedule.Window = window.Clone()
	for i, rs := range p.duringSchedule {
		if rs.Routine.StartLoc == old {
			moved := rs.Routine
			moved.StartLoc = newLoc
			p.duringSchedule[i] = newRoutineWithStatus(moved)
		}
	}
	logrus.Debugf("reassigned %s from %s to %s", pid, old, newLoc)
	return nil
}

// UpdateLocationSpecificInformation refreshes aggregates that depend on
// location flags. Call after locations are synced.
func (r *Registry) UpdateLocationSpecificInformation() {
	r.socialEvents = r.socialEvents[:0]
	for _, id := range r.byType[Home] {
		if r.locations[id].State().SocialGatheringEvent {
			r.socialEvents = append(r.socialEvents, id)
		}
	}
}

// SetPersonInfectionState replaces the infection state and keeps the
// global counters in step.
func (r *Registry) SetPersonInfectionState(p *Person, s *IndividualInfectionState) {
	r.infectionCounts[p.InfectionSummary()]--
	p.setInfectionState(s)
	r.infectionCounts[p.InfectionSummary()]++
}

// GlobalInfectionSummary returns a copy of the per-summary person counts.
func (r *Registry) GlobalInfectionSummary() map[InfectionSummary]int {
	out := make(map[InfectionSummary]int, len(InfectionSummaries))
	for _, s := range InfectionSummaries {
		out[s] = r.infectionCounts[s]
	}
	return out
}

// GlobalLocationSummary returns a copy of the per-(type, kind) entry counts.
func (r *Registry) GlobalLocationSummary() map[VisitKey]LocationSummary {
	out := make(map[VisitKey]LocationSummary, len(r.visits))
	for k, v := range r.visits {
		out[k] = *v
	}
	return out
}

// Reset restores every location and person to its init state, then
// reassigns persons and puts them back home.
func (r *Registry) Reset() {
	for _, id := range r.locationOrder {
		r.locations[id].Reset()
	}
	r.households = make(map[LocationID]*PersonSet)
	r.clearAggregates()
	for _, id := range r.personOrder {
		p := r.persons[id]
		p.Reset()
		r.settle(p)
		r.infectionCounts[p.InfectionSummary()]++
	}
}

// === Queries ===

// Location returns the location with the given id, or nil.
func (r *Registry) Location(id LocationID) *Location { return r.locations[id] }

// Person returns the person with the given id, or nil.
func (r *Registry) Person(id PersonID) *Person { return r.persons[id] }

// LocationIDs returns every location id in registration order.
func (r *Registry) LocationIDs() []LocationID { return r.locationOrder }

// PersonIDs returns every person id in registration order.
func (r *Registry) PersonIDs() []PersonID { return r.personOrder }

// NumPersons returns the number of registered persons.
func (r *Registry) NumPersons() int { return len(r.personOrder) }

// LocationIDsOfType returns the ids of type t in registration order.
func (r *Registry) LocationIDsOfType(t LocationType) []LocationID { return r.byType[t] }

// LocationTypes returns the registered location types, sorted.
func (r *Registry) LocationTypes() []LocationType {
	out := make([]LocationType, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LocationTypeOf returns the type of id, or "" when unknown.
func (r *Registry) LocationTypeOf(id LocationID) LocationType {
	if loc, ok := r.locations[id]; ok {
		return loc.Type()
	}
	return ""
}

// LocationIDsWithSocialEvents returns the homes hosting a gathering now.
func (r *Registry) LocationIDsWithSocialEvents() []LocationID { return r.socialEvents }

// PersonsInLocation returns everyone currently inside id.
func (r *Registry) PersonsInLocation(id LocationID) *PersonSet {
	loc, ok := r.locations[id]
	if !ok {
		return NewPersonSet()
	}
	return loc.State().PersonsInLocation()
}

// GetLocationWorkTime returns the hours a new worker of id would work.
func (r *Registry) GetLocationWorkTime(id LocationID) (TimeWindow, bool) {
	loc, ok := r.locations[id]
	if !ok || !loc.Kind().IsBusiness() {
		return TimeWindow{}, false
	}
	return loc.InitState().OpenTime, true
}

// IsLocationOpenForVisitors reports whether a visitor could enter id at t.
func (r *Registry) IsLocationOpenForVisitors(id LocationID, t SimulationTime) bool {
	loc, ok := r.locations[id]
	return ok && loc.IsOpenForVisitors(t)
}

// Households returns the residents sharing p's home, p included.
func (r *Registry) Households(p *Person) *PersonSet {
	return r.households[p.Home()]
}

// HouseholdQuarantined reports whether anyone else in p's home is quarantined.
func (r *Registry) HouseholdQuarantined(p *Person) bool {
	for _, id := range r.households[p.Home()].Items() {
		if id != p.ID() && r.persons[id].state.Quarantined {
			return true
		}
	}
	return false
}

// TestResultOf returns the latest test result of id, untested when unknown.
func (r *Registry) TestResultOf(id PersonID) TestResult {
	if p, ok := r.persons[id]; ok {
		return p.state.TestResult
	}
	return TestUntested
}

// IsQuarantined reports whether id is currently quarantined.
func (r *Registry) IsQuarantined(id PersonID) bool {
	p, ok := r.persons[id]
	return ok && p.state.Quarantined
}
