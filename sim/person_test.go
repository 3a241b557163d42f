package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPerson_Validation(t *testing.T) {
	office := &Schedule{Location: "office_0"}
	tests := []struct {
		name string
		cfg  PersonConfig
	}{
		{"child too old", PersonConfig{ID: PersonID{"c", 19}, Kind: Child, Home: "home_0"}},
		{"student too young", PersonConfig{ID: PersonID{"s", 17}, Kind: Student, Home: "home_0"}},
		{"age above max", PersonConfig{ID: PersonID{"a", 111}, Kind: Adult, Home: "home_0"}},
		{"unknown kind", PersonConfig{ID: PersonID{"x", 30}, Kind: "alien", Home: "home_0"}},
		{"no home", PersonConfig{ID: PersonID{"a", 30}, Kind: Adult}},
		{"compliance above one", PersonConfig{ID: PersonID{"a", 30}, Kind: Adult, Home: "home_0", RegulationComplianceProb: 2}},
		{"unknown risk", PersonConfig{ID: PersonID{"a", 30}, Kind: Adult, Home: "home_0", Risk: "extreme"}},
		{"retired with a schedule", PersonConfig{ID: PersonID{"r", 70}, Kind: Retired, Home: "home_0", Schedule: office}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPerson(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNewPerson_InitState(t *testing.T) {
	p := newTestPerson(t, "a", 30, Adult, "home_0")
	st := p.State()
	assert.Equal(t, LocationID("home_0"), st.CurrentLocation)
	assert.Equal(t, RiskLow, st.Risk)
	assert.Equal(t, 1.0, st.InfectionSpreadMultiplier)
	assert.Equal(t, -1, st.AvoidGatheringSize)
	assert.Equal(t, TestUntested, st.TestResult)
	assert.Equal(t, SummaryNone, p.InfectionSummary())
	assert.Equal(t, []LocationID{"home_0"}, p.AssignedLocations())
}

// stepWorld is a registry with a home, an office and a grocery store, plus a
// context around it.
func stepWorld(t *testing.T, locs ...*Location) (*SimulationContext, *Registry) {
	t.Helper()
	all := append([]*Location{
		newTestLocation(t, "home_0", Home, LocationStateOptions{}),
		newTestLocation(t, "home_1", Home, LocationStateOptions{}),
		newTestLocation(t, "office_0", Office, LocationStateOptions{}),
		newTestLocation(t, "grocerystore_0", GroceryStore, LocationStateOptions{}),
	}, locs...)
	reg := newTestRegistry(t, all...)
	ctx := &SimulationContext{Registry: reg, RNG: NewPartitionedRNG(NewSimulationKey(7))}
	return ctx, reg
}

func newWorker(t *testing.T, reg *Registry, name string) *Person {
	t.Helper()
	p, err := NewPerson(PersonConfig{
		ID: PersonID{name, 40}, Kind: Adult, Home: "home_0", RegulationComplianceProb: 1,
		Schedule: &Schedule{Location: "office_0", Window: TimeWindow{Hours: Span(9, 17), WeekDays: Span(0, 5)}},
	})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterPerson(p))
	return p
}

// tick syncs the world and steps p once at ts.
func tick(ctx *SimulationContext, p *Person, ts SimulationTime) MoveResult {
	syncAll(ctx.Registry, ts)
	p.Sync(ctx, ts)
	return p.Step(ctx, ts)
}

func TestPerson_Step_FollowsScheduleThenGoesHome(t *testing.T) {
	ctx, reg := stepWorld(t)
	p := newWorker(t, reg, "w")

	// WHEN the work window opens
	res := tick(ctx, p, at(9, 1))

	// THEN the person goes to work
	assert.True(t, res.Moved)
	assert.Equal(t, LocationID("office_0"), res.Location)
	assert.Equal(t, CauseSchedule, res.Cause)
	assert.Equal(t, ReasonAssignee, res.Reason)

	// AND stays put while inside the window
	assert.Equal(t, StayedPut(), tick(ctx, p, at(10, 1)))

	// AND returns home when it closes
	res = tick(ctx, p, at(17, 1))
	assert.True(t, res.Moved)
	assert.Equal(t, LocationID("home_0"), res.Location)
	assert.Equal(t, CauseHome, res.Cause)
}

func TestPerson_Step_DeniedAttemptStaysPut(t *testing.T) {
	// GIVEN a worker whose office is locked
	ctx, reg := stepWorld(t)
	p := newWorker(t, reg, "w")
	reg.Location("office_0").UpdateRules(LockRule(true))

	// WHEN the work window opens
	res := tick(ctx, p, at(9, 1))

	// THEN the attempt is recorded and the person has not moved
	assert.False(t, res.Moved)
	assert.True(t, res.Attempted)
	assert.Equal(t, ReasonClosed, res.Reason)
	assert.Equal(t, LocationID("home_0"), p.State().CurrentLocation)
}

func TestPerson_Step_HealthGates(t *testing.T) {
	t.Run("dead never moves", func(t *testing.T) {
		ctx, reg := stepWorld(t)
		p := newWorker(t, reg, "w")
		reg.SetPersonInfectionState(p, &IndividualInfectionState{Summary: SummaryDead})
		assert.Equal(t, StayedPut(), tick(ctx, p, at(9, 1)))
	})

	t.Run("hospitalized goes to hospital and stays", func(t *testing.T) {
		ctx, reg := stepWorld(t, newTestLocation(t, "hospital_0", Hospital, LocationStateOptions{}))
		p := newWorker(t, reg, "w")
		reg.SetPersonInfectionState(p, &IndividualInfectionState{Summary: SummaryCritical, IsHospitalized: true})

		res := tick(ctx, p, at(9, 1))
		assert.True(t, res.Moved)
		assert.Equal(t, CauseHealth, res.Cause)
		assert.Equal(t, ReasonPatient, res.Reason)
		assert.Equal(t, StayedPut(), tick(ctx, p, at(10, 1)))
	})

	t.Run("full hospitals leave the patient where they are", func(t *testing.T) {
		ctx, reg := stepWorld(t,
			newTestLocation(t, "hospital_0", Hospital, LocationStateOptions{PatientCapacity: ptr(0)}),
			newTestLocation(t, "hospital_1", Hospital, LocationStateOptions{PatientCapacity: ptr(0)}),
		)
		p := newWorker(t, reg, "w")
		reg.SetPersonInfectionState(p, &IndividualInfectionState{Summary: SummaryCritical, IsHospitalized: true})

		res := tick(ctx, p, at(9, 1))
		assert.False(t, res.Moved)
		assert.Equal(t, LocationID("hospital_0"), res.Location, "one attempt, at the first hospital")
		assert.Equal(t, ReasonPatientsFull, res.Reason)
		assert.Equal(t, LocationID("home_0"), p.State().CurrentLocation)
	})

	t.Run("a full hospital is skipped without an attempt", func(t *testing.T) {
		ctx, reg := stepWorld(t,
			newTestLocation(t, "hospital_0", Hospital, LocationStateOptions{PatientCapacity: ptr(0)}),
			newTestLocation(t, "hospital_1", Hospital, LocationStateOptions{}),
		)
		p := newWorker(t, reg, "w")
		reg.SetPersonInfectionState(p, &IndividualInfectionState{Summary: SummaryCritical, IsHospitalized: true})

		res := tick(ctx, p, at(10, 1))

		assert.True(t, res.Moved)
		assert.Equal(t, LocationID("hospital_1"), res.Location)
		assert.Equal(t, ReasonPatient, res.Reason)
		assert.True(t, reg.Location("hospital_1").State().PatientsInLocation.Contains(p.ID()))
		assert.Zero(t, reg.Location("hospital_0").State().NumAdmittedPatients)
	})

	t.Run("critical on shift moves onto the patient track", func(t *testing.T) {
		// GIVEN a hospital worker inside the hospital
		ctx, reg := stepWorld(t, newTestLocation(t, "hospital_0", Hospital, LocationStateOptions{}))
		p, err := NewPerson(PersonConfig{
			ID: PersonID{"nurse", 35}, Kind: Adult, Home: "home_0", RegulationComplianceProb: 1,
			Schedule: &Schedule{Location: "hospital_0", Window: AlwaysWindow},
		})
		require.NoError(t, err)
		require.NoError(t, reg.RegisterPerson(p))
		syncAll(reg, at(10, 1))
		ok, _ := reg.RegisterPersonEntryInLocation(p.ID(), "hospital_0")
		require.True(t, ok)

		// WHEN the worker turns critical
		reg.SetPersonInfectionState(p, &IndividualInfectionState{Summary: SummaryCritical, IsHospitalized: true})
		res := tick(ctx, p, at(11, 1))

		// THEN the worker becomes a patient of the same hospital
		st := reg.Location("hospital_0").State()
		assert.True(t, res.Moved)
		assert.Equal(t, ReasonPatient, res.Reason)
		assert.Equal(t, LocationID("hospital_0"), p.State().CurrentLocation)
		assert.True(t, st.PatientsInLocation.Contains(p.ID()))
		assert.False(t, st.AssigneesInLocation.Contains(p.ID()))
		assert.Equal(t, 1, st.NumAdmittedPatients)
		assert.Equal(t, StayedPut(), tick(ctx, p, at(12, 1)))
	})

	t.Run("symptomatic person told to stay home skips work", func(t *testing.T) {
		ctx, reg := stepWorld(t)
		p := newWorker(t, reg, "w")
		p.State().SickAtHome = true
		reg.SetPersonInfectionState(p, &IndividualInfectionState{Summary: SummaryInfected, ShowsSymptoms: true})
		assert.Equal(t, StayedPut(), tick(ctx, p, at(9, 1)))
	})

	t.Run("quarantined after a positive test goes home", func(t *testing.T) {
		ctx, reg := stepWorld(t)
		p := newWorker(t, reg, "w")
		require.True(t, tick(ctx, p, at(9, 1)).Moved)

		p.State().Quarantine = true
		p.State().TestResult = TestPositive
		res := tick(ctx, p, at(10, 1))
		assert.True(t, p.State().Quarantined)
		assert.True(t, res.Moved)
		assert.Equal(t, LocationID("home_0"), res.Location)
		assert.Equal(t, CauseHealth, res.Cause)
	})

	t.Run("household quarantine spreads to housemates", func(t *testing.T) {
		ctx, reg := stepWorld(t)
		p := newWorker(t, reg, "w")
		mate := newWorker(t, reg, "mate")
		p.State().QuarantineIfHouseholdQuarantined = true
		mate.State().Quarantined = true

		assert.Equal(t, StayedPut(), tick(ctx, p, at(9, 1)))
		assert.True(t, p.State().Quarantined)
	})
}

func TestPerson_EnterLocation_AvoidanceFlags(t *testing.T) {
	t.Run("avoided type", func(t *testing.T) {
		ctx, reg := stepWorld(t)
		p := newWorker(t, reg, "w")
		p.State().AvoidLocationTypes = []LocationType{Office}
		res := tick(ctx, p, at(9, 1))
		assert.False(t, res.Moved)
		assert.Equal(t, ReasonAvoidedType, res.Reason)
	})

	t.Run("gathering too large for a visitor", func(t *testing.T) {
		ctx, reg := stepWorld(t)
		shopper := newTestPerson(t, "shopper", 30, Adult, "home_1")
		require.NoError(t, reg.RegisterPerson(shopper))
		careful := newTestPerson(t, "careful", 30, Adult, "home_1")
		require.NoError(t, reg.RegisterPerson(careful))
		careful.State().AvoidGatheringSize = 0
		syncAll(reg, at(10, 1))

		ok, _ := shopper.EnterLocation(ctx, "grocerystore_0")
		require.True(t, ok)
		ok, reason := careful.EnterLocation(ctx, "grocerystore_0")
		assert.False(t, ok)
		assert.Equal(t, ReasonGatheringSize, reason)
	})

	t.Run("gathering limit does not apply to assignees", func(t *testing.T) {
		ctx, reg := stepWorld(t)
		a := newWorker(t, reg, "a")
		b := newWorker(t, reg, "b")
		b.State().AvoidGatheringSize = 0
		require.True(t, tick(ctx, a, at(9, 1)).Moved)
		assert.True(t, tick(ctx, b, at(9, 1)).Moved)
	})

	t.Run("unknown location", func(t *testing.T) {
		ctx, reg := stepWorld(t)
		p := newWorker(t, reg, "w")
		ok, reason := p.EnterLocation(ctx, "moon_0")
		assert.False(t, ok)
		assert.Equal(t, ReasonUnknownPlace, reason)
	})
}

func TestPerson_Routine_Lifecycle(t *testing.T) {
	// GIVEN a retiree who shops once a day
	ctx, reg := stepWorld(t)
	p, err := NewPerson(PersonConfig{
		ID: PersonID{"r", 70}, Kind: Retired, Home: "home_0", RegulationComplianceProb: 1,
		Routines: []PersonRoutine{TriggeredRoutine("", GroceryStore, 1)},
	})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterPerson(p))

	// WHEN the first day runs hour by hour
	results := make([]MoveResult, 12)
	for h := range results {
		ts, _ := FromHours(h)
		results[h] = tick(ctx, p, ts)
	}

	// THEN nothing happens before the valid window
	for h := 0; h < 8; h++ {
		assert.Equal(t, StayedPut(), results[h], "hour %d", h)
	}
	// AND the trip starts at 8h, lasts one hour, and is not repeated the same day
	assert.True(t, results[8].Moved)
	assert.Equal(t, LocationID("grocerystore_0"), results[8].Location)
	assert.Equal(t, "every-1d-GroceryStore", results[8].Cause)
	assert.True(t, results[9].Moved)
	assert.Equal(t, LocationID("home_0"), results[9].Location)
	for h := 10; h < 12; h++ {
		assert.Equal(t, StayedPut(), results[h], "hour %d", h)
	}

	rs := p.Routines()[0].Status
	assert.Equal(t, LocationID("grocerystore_0"), rs.Target, "the target is remembered")
	assert.Equal(t, 0, rs.LastTrigger)
	assert.False(t, rs.Due)

	// WHEN the person resets, statuses start fresh
	p.Reset()
	assert.Equal(t, newRoutineStatus(), p.Routines()[0].Status)
}

func TestPerson_Routine_SocialVisitsOnlyGatheringHomes(t *testing.T) {
	// GIVEN two homes and only home_1 hosting a gathering today
	ctx, reg := stepWorld(t)
	reg.Location("home_0").State().VisitorTime = TimeWindow{Days: []int{}}
	reg.Location("home_1").State().VisitorTime = TimeWindow{Hours: Span(15, 20), Days: []int{1}}
	p, err := NewPerson(PersonConfig{
		ID: PersonID{"g", 30}, Kind: Adult, Home: "home_0", RegulationComplianceProb: 1,
		Routines: []PersonRoutine{SocialRoutine("home_0")},
	})
	require.NoError(t, err)
	require.NoError(t, reg.RegisterPerson(p))

	// WHEN day 1 reaches the gathering hours
	var res MoveResult
	for h := HoursPerDay; h <= HoursPerDay+15; h++ {
		ts, _ := FromHours(h)
		res = tick(ctx, p, ts)
	}

	// THEN the person visits the gathering
	assert.Equal(t, []LocationID{"home_1"}, reg.LocationIDsWithSocialEvents())
	assert.True(t, res.Moved)
	assert.Equal(t, LocationID("home_1"), res.Location)
	assert.Equal(t, ReasonVisitor, res.Reason)
}

func TestPerson_Reset(t *testing.T) {
	ctx, reg := stepWorld(t)
	p := newWorker(t, reg, "w")
	tick(ctx, p, at(9, 1))
	p.State().TestResult = TestPositive

	p.Reset()

	assert.Equal(t, p.InitState(), *p.State())
}
