package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterLocation_Duplicate(t *testing.T) {
	reg := newTestRegistry(t, newTestLocation(t, "home_0", Home, LocationStateOptions{}))
	err := reg.RegisterLocation(newTestLocation(t, "home_0", Home, LocationStateOptions{}))
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestRegistry_RegisterPerson_Errors(t *testing.T) {
	reg := newTestRegistry(t,
		newTestLocation(t, "home_0", Home, LocationStateOptions{}),
		newTestLocation(t, "office_0", Office, LocationStateOptions{}),
	)
	p := newTestPerson(t, "a", 30, Adult, "home_0")
	require.NoError(t, reg.RegisterPerson(p))

	assert.ErrorIs(t, reg.RegisterPerson(p), ErrDuplicateRegistration)
	assert.ErrorIs(t, reg.RegisterPerson(newTestPerson(t, "b", 30, Adult, "home_9")), ErrUnknownLocation)
	assert.ErrorIs(t, reg.RegisterPerson(newTestPerson(t, "c", 30, Adult, "office_0")), ErrInvalidConfig)

	scheduled, err := NewPerson(PersonConfig{
		ID: PersonID{"d", 30}, Kind: Adult, Home: "home_0", RegulationComplianceProb: 1,
		Schedule: &Schedule{Location: "school_0"},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, reg.RegisterPerson(scheduled), ErrUnknownLocation)
}

func TestRegistry_RegisterPerson_SettlesAtHome(t *testing.T) {
	// GIVEN a worker registered with a home and an office
	reg := newTestRegistry(t,
		newTestLocation(t, "home_0", Home, LocationStateOptions{}),
		newTestLocation(t, "office_0", Office, LocationStateOptions{}),
	)
	p, err := NewPerson(PersonConfig{
		ID: PersonID{"w", 40}, Kind: Adult, Home: "home_0", RegulationComplianceProb: 1,
		Schedule: &Schedule{Location: "office_0", Window: TimeWindow{Hours: Span(9, 17)}},
	})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterPerson(p))

	// THEN the person is an assignee of both and stands at home
	assert.True(t, reg.Location("home_0").State().Assignees.Contains(p.ID()))
	assert.True(t, reg.Location("office_0").State().Assignees.Contains(p.ID()))
	assert.True(t, reg.Location("home_0").State().AssigneesInLocation.Contains(p.ID()))
	assert.Equal(t, LocationID("home_0"), p.State().CurrentLocation)
	assert.Equal(t, []PersonID{p.ID()}, reg.Households(p).Items())
	assert.Equal(t, 1, reg.GlobalInfectionSummary()[SummaryNone])
}

func TestRegistry_RegisterPersonEntryInLocation(t *testing.T) {
	// GIVEN two visitors and a restaurant with room for one
	reg := newTestRegistry(t,
		newTestLocation(t, "home_0", Home, LocationStateOptions{}),
		newTestLocation(t, "restaurant_0", Restaurant, LocationStateOptions{VisitorCapacity: ptr(1)}),
	)
	first := newTestPerson(t, "first", 30, Adult, "home_0")
	second := newTestPerson(t, "second", 30, Adult, "home_0")
	require.NoError(t, reg.RegisterPerson(first))
	require.NoError(t, reg.RegisterPerson(second))
	syncAll(reg, at(12, 2))

	// WHEN both try to enter in registration order
	ok1, reason1 := reg.RegisterPersonEntryInLocation(first.ID(), "restaurant_0")
	ok2, reason2 := reg.RegisterPersonEntryInLocation(second.ID(), "restaurant_0")

	// THEN the first wins the last seat
	assert.True(t, ok1)
	assert.Equal(t, ReasonVisitor, reason1)
	assert.False(t, ok2)
	assert.Equal(t, ReasonAtCapacity, reason2)
	assert.Equal(t, LocationID("restaurant_0"), first.State().CurrentLocation)
	assert.Equal(t, LocationID("home_0"), second.State().CurrentLocation)
	assert.False(t, reg.Location("home_0").Contains(first.ID()))

	// AND the visit is counted once
	sum := reg.GlobalLocationSummary()[VisitKey{Restaurant, Adult}]
	assert.Equal(t, LocationSummary{Entries: 1, VisitorEntries: 1}, sum)

	// AND re-entering or entering nowhere is refused
	ok, reason := reg.RegisterPersonEntryInLocation(first.ID(), "restaurant_0")
	assert.False(t, ok)
	assert.Equal(t, ReasonAlreadyPresent, reason)
	ok, reason = reg.RegisterPersonEntryInLocation(first.ID(), "bar_7")
	assert.False(t, ok)
	assert.Equal(t, ReasonUnknownPlace, reason)
}

func TestRegistry_ReassignLocations(t *testing.T) {
	// GIVEN a worker at office_0 with a lunch routine anchored there
	reg := newTestRegistry(t,
		newTestLocation(t, "home_0", Home, LocationStateOptions{}),
		newTestLocation(t, "office_0", Office, LocationStateOptions{}),
		newTestLocation(t, "office_1", Office, LocationStateOptions{}),
		newTestLocation(t, "restaurant_0", Restaurant, LocationStateOptions{}),
	)
	p, err := NewPerson(PersonConfig{
		ID: PersonID{"w", 40}, Kind: Adult, Home: "home_0", RegulationComplianceProb: 1,
		Schedule:               &Schedule{Location: "office_0", Window: TimeWindow{Hours: Span(9, 17)}},
		DuringScheduleRoutines: []PersonRoutine{MidDayDuringWeekRoutine("office_0", Restaurant)},
	})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterPerson(p))
	syncAll(reg, at(10, 1))
	ok, _ := reg.RegisterPersonEntryInLocation(p.ID(), "office_0")
	require.True(t, ok)

	before := p.DuringScheduleRoutines()[0]

	// WHEN the worker is moved to office_1 with new hours
	require.NoError(t, reg.ReassignLocations(p.ID(), "office_1", TimeWindow{Hours: Span(10, 14)}))

	// THEN the person went home and every reference follows
	assert.Equal(t, LocationID("home_0"), p.State().CurrentLocation)
	assert.False(t, reg.Location("office_0").State().Assignees.Contains(p.ID()))
	assert.True(t, reg.Location("office_1").State().Assignees.Contains(p.ID()))
	assert.Equal(t, LocationID("office_1"), p.Schedule().Location)
	assert.Equal(t, Span(10, 14), p.Schedule().Window.Hours)
	assert.Equal(t, LocationID("office_1"), p.DuringScheduleRoutines()[0].Routine.StartLoc)
	assert.Equal(t, LocationID("office_0"), before.Routine.StartLoc, "routines are replaced, never edited")
	assert.Equal(t, newRoutineStatus(), p.DuringScheduleRoutines()[0].Status)

	// AND bad requests are refused
	assert.ErrorIs(t, reg.ReassignLocations(p.ID(), "office_9", AlwaysWindow), ErrUnknownLocation)
	assert.Error(t, reg.ReassignLocations(PersonID{"ghost", 1}, "office_0", AlwaysWindow))
}

func TestRegistry_ReassignLocations_NoSchedule(t *testing.T) {
	reg := newTestRegistry(t, newTestLocation(t, "home_0", Home, LocationStateOptions{}))
	p := newTestPerson(t, "r", 70, Retired, "home_0")
	require.NoError(t, reg.RegisterPerson(p))
	assert.ErrorIs(t, reg.ReassignLocations(p.ID(), "home_0", AlwaysWindow), ErrInvalidConfig)
}

func TestRegistry_PersonsInLocation_IncludesPatients(t *testing.T) {
	reg := newTestRegistry(t,
		newTestLocation(t, "home_0", Home, LocationStateOptions{}),
		newTestLocation(t, "hospital_0", Hospital, LocationStateOptions{}),
	)
	visitor := newTestPerson(t, "v", 30, Adult, "home_0")
	patient := newTestPerson(t, "p", 80, Retired, "home_0")
	require.NoError(t, reg.RegisterPerson(visitor))
	require.NoError(t, reg.RegisterPerson(patient))
	reg.SetPersonInfectionState(patient, &IndividualInfectionState{Summary: SummaryCritical, IsHospitalized: true})
	syncAll(reg, at(3, 0))

	for _, p := range []*Person{visitor, patient} {
		ok, _ := reg.RegisterPersonEntryInLocation(p.ID(), "hospital_0")
		require.True(t, ok)
	}

	inside := reg.PersonsInLocation("hospital_0")
	assert.Equal(t, 2, inside.Len())
	assert.True(t, inside.Contains(patient.ID()))
	assert.Equal(t, 0, reg.PersonsInLocation("nowhere").Len())
	assert.Equal(t, 1, reg.GlobalInfectionSummary()[SummaryCritical])
	assert.Equal(t, 1, reg.GlobalInfectionSummary()[SummaryNone])
}

func TestRegistry_Reset_ReturnsEveryoneHome(t *testing.T) {
	// GIVEN a person away, infected and with a counted visit
	reg := newTestRegistry(t,
		newTestLocation(t, "home_0", Home, LocationStateOptions{}),
		newTestLocation(t, "grocerystore_0", GroceryStore, LocationStateOptions{}),
	)
	p := newTestPerson(t, "a", 30, Adult, "home_0")
	require.NoError(t, reg.RegisterPerson(p))
	syncAll(reg, at(10, 1))
	ok, _ := reg.RegisterPersonEntryInLocation(p.ID(), "grocerystore_0")
	require.True(t, ok)
	reg.SetPersonInfectionState(p, &IndividualInfectionState{Summary: SummaryInfected})

	// WHEN the registry resets
	reg.Reset()

	// THEN state, placement and aggregates are back to registration time
	assert.Equal(t, LocationID("home_0"), p.State().CurrentLocation)
	assert.True(t, reg.Location("home_0").Contains(p.ID()))
	assert.Equal(t, 0, reg.Location("grocerystore_0").NumPersonsInLocation())
	assert.Empty(t, reg.GlobalLocationSummary())
	assert.Equal(t, 1, reg.GlobalInfectionSummary()[SummaryNone])
	assert.Equal(t, 0, reg.GlobalInfectionSummary()[SummaryInfected])
	assert.Equal(t, 1, reg.Households(p).Len())
}

func TestRegistry_Queries(t *testing.T) {
	reg := newTestRegistry(t,
		newTestLocation(t, "home_0", Home, LocationStateOptions{}),
		newTestLocation(t, "home_1", Home, LocationStateOptions{}),
		newTestLocation(t, "bar_0", Bar, LocationStateOptions{}),
	)
	a := newTestPerson(t, "a", 30, Adult, "home_0")
	b := newTestPerson(t, "b", 32, Adult, "home_0")
	require.NoError(t, reg.RegisterPerson(a))
	require.NoError(t, reg.RegisterPerson(b))

	assert.Equal(t, []LocationType{Bar, Home}, reg.LocationTypes())
	assert.Equal(t, []LocationID{"home_0", "home_1"}, reg.LocationIDsOfType(Home))
	assert.Equal(t, Home, reg.LocationTypeOf("home_1"))
	assert.Equal(t, LocationType(""), reg.LocationTypeOf("nowhere"))
	assert.Equal(t, 2, reg.NumPersons())

	w, ok := reg.GetLocationWorkTime("bar_0")
	require.True(t, ok)
	assert.Equal(t, Span(21, 24), w.Hours)
	_, ok = reg.GetLocationWorkTime("home_0")
	assert.False(t, ok, "homes have no work time")

	syncAll(reg, at(22, 1))
	assert.True(t, reg.IsLocationOpenForVisitors("bar_0", at(22, 1)))
	assert.False(t, reg.IsLocationOpenForVisitors("bar_0", at(12, 1)))

	// household quarantine sees the other resident only
	assert.False(t, reg.HouseholdQuarantined(a))
	b.State().Quarantined = true
	assert.True(t, reg.HouseholdQuarantined(a))
	assert.False(t, reg.HouseholdQuarantined(b))
	assert.True(t, reg.IsQuarantined(b.ID()))

	b.State().TestResult = TestPositive
	assert.Equal(t, TestPositive, reg.TestResultOf(b.ID()))
	assert.Equal(t, TestUntested, reg.TestResultOf(PersonID{"ghost", 1}))
}
