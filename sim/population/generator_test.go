package population

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

func buildTestWorld(t *testing.T, seed int64, cfg *sim.SimulationConfig) (*sim.SimulationContext, []*sim.Person) {
	t.Helper()
	ctx := sim.NewSimulationContext(sim.NewSimulationKey(seed))
	require.NoError(t, sim.BuildLocations(ctx, cfg))
	persons, err := Populate(ctx, cfg)
	require.NoError(t, err)
	return ctx, persons
}

func TestGenerate_TestWorld_HousesEveryone(t *testing.T) {
	// GIVEN the 100-person test world
	cfg := sim.TestWorldConfig()

	// WHEN the population is generated and registered
	ctx, persons := buildTestWorld(t, 7, cfg)

	// THEN every person exists once, lives in a Home and stands at home
	require.Len(t, persons, cfg.NumPersons)
	assert.Equal(t, cfg.NumPersons, ctx.Registry.NumPersons())
	for _, p := range persons {
		assert.Equal(t, sim.Home, ctx.Registry.LocationTypeOf(p.Home()), "person %s", p.ID())
		assert.True(t, p.AtHome())
		assert.True(t, ctx.Registry.Location(p.Home()).Contains(p.ID()))
	}
}

func TestGenerate_KindsMatchAgesAndSchedules(t *testing.T) {
	ctx, persons := buildTestWorld(t, 11, sim.TestWorldConfig())
	for _, p := range persons {
		age := p.ID().Age
		switch p.Kind() {
		case sim.Child:
			assert.LessOrEqual(t, age, sim.MaxChildAge)
			require.NotNil(t, p.Schedule())
			assert.Equal(t, sim.School, ctx.Registry.LocationTypeOf(p.Schedule().Location))
			assert.True(t, strings.HasPrefix(p.ID().Name, "minor_"))
		case sim.Student:
			assert.True(t, age >= sim.MinStudentAge && age <= sim.MaxStudentAge)
		case sim.Adult:
			assert.Greater(t, age, sim.MaxStudentAge)
			require.NotNil(t, p.Schedule(), "workers always get a job")
			kind, _ := sim.KindOf(ctx.Registry.LocationTypeOf(p.Schedule().Location))
			assert.True(t, kind.IsBusiness())
			assert.Len(t, p.DuringScheduleRoutines(), 1)
		case sim.Retired:
			assert.Greater(t, age, sim.RetirementAge)
			assert.Nil(t, p.Schedule())
		}
		assert.NotEmpty(t, p.Routines(), "person %s has no routines", p.ID())
	}
}

func TestGenerate_EveryMinorHomeHasAnAdult(t *testing.T) {
	ctx, persons := buildTestWorld(t, 3, sim.TinyTownConfig())
	adultHomes := map[sim.LocationID]bool{}
	for _, p := range persons {
		if p.Kind() == sim.Adult {
			adultHomes[p.Home()] = true
		}
	}
	for _, p := range persons {
		if p.Kind() == sim.Child {
			assert.True(t, adultHomes[p.Home()], "minor %s lives without an adult", p.ID())
		}
	}
	assert.NotEmpty(t, ctx.Registry.LocationIDsOfType(sim.Home))
}

func TestGenerate_SameSeed_SamePopulation(t *testing.T) {
	ids := func(seed int64) []sim.PersonID {
		ctx, _ := buildTestWorld(t, seed, sim.TestWorldConfig())
		return append([]sim.PersonID(nil), ctx.Registry.PersonIDs()...)
	}
	a, b := ids(99), ids(99)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, ids(100))
}

func TestGenerate_NotEnoughHomes(t *testing.T) {
	cfg := sim.TestWorldConfig()
	cfg.Locations[0].Num = 1
	ctx := sim.NewSimulationContext(sim.NewSimulationKey(1))
	require.NoError(t, sim.BuildLocations(ctx, cfg))

	_, err := NewGenerator(ctx, cfg).Generate()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotEnough))
}

func TestGenerate_NotEnoughJobs(t *testing.T) {
	// GIVEN a town whose businesses offer a single job slot
	cfg := &sim.SimulationConfig{
		NumPersons:               60,
		RegulationComplianceProb: 1,
		Locations: []sim.LocationConfig{
			{Type: sim.Home, Num: 60, NumAssignees: -1},
			{Type: sim.GroceryStore, Num: 1, NumAssignees: 1},
		},
	}
	ctx := sim.NewSimulationContext(sim.NewSimulationKey(1))
	require.NoError(t, sim.BuildLocations(ctx, cfg))

	// WHEN generating
	_, err := NewGenerator(ctx, cfg).Generate()

	// THEN the shortage is reported
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotEnough))
}

func TestClusterIntoGroups(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	groups := ClusterIntoGroups(items, 1, 3, rng)

	var flat []int
	for i, g := range groups {
		assert.NotEmpty(t, g)
		assert.LessOrEqual(t, len(g), 3)
		if i < len(groups)-1 {
			assert.GreaterOrEqual(t, len(g), 1)
		}
		flat = append(flat, g...)
	}
	assert.Equal(t, items, flat, "groups keep every item in order")
	assert.Empty(t, ClusterIntoGroups([]int{}, 1, 3, rng))
}

func TestAgeDistribution_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	ages := AgeDistribution(rng, 5000)
	old, young := 0, 0
	for _, a := range ages {
		require.True(t, a >= minAge && a <= maxAge, "age %d", a)
		if a > 90 {
			old++
		}
		if a <= 10 {
			young++
		}
	}
	assert.Less(t, old, young, "the oldest decade is rarer than the youngest")
}

func TestJobCounselor_SpreadsAcrossLocations(t *testing.T) {
	cfg := &sim.SimulationConfig{
		NumPersons:               1,
		RegulationComplianceProb: 1,
		Locations: []sim.LocationConfig{
			{Type: sim.Home, Num: 1, NumAssignees: -1},
			{Type: sim.Office, Num: 2, NumAssignees: 2},
		},
	}
	ctx := sim.NewSimulationContext(sim.NewSimulationKey(1))
	require.NoError(t, sim.BuildLocations(ctx, cfg))
	jc := NewJobCounselor(ctx.Registry, cfg, rand.New(rand.NewSource(1)))

	var got []sim.LocationID
	for {
		wp, ok := jc.NextAvailableWork()
		if !ok {
			break
		}
		assert.NotEmpty(t, wp.WorkTime.Hours)
		got = append(got, wp.Work)
	}

	assert.Equal(t, []sim.LocationID{"office_0", "office_1", "office_0", "office_1"}, got)
	assert.Zero(t, jc.Remaining())
}

func TestDefaultRoutineAssignment(t *testing.T) {
	tests := []struct {
		name       string
		kind       sim.PersonKind
		age        int
		wantSocial bool
	}{
		{"young child", sim.Child, 8, false},
		{"teenager", sim.Child, 14, true},
		{"student", sim.Student, 20, true},
		{"retired", sim.Retired, 70, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := sim.NewPerson(sim.PersonConfig{
				ID: sim.PersonID{Name: tc.name, Age: tc.age}, Kind: tc.kind, Home: "home_0", RegulationComplianceProb: 1,
			})
			require.NoError(t, err)

			DefaultRoutineAssignment{}.AssignRoutines([]*sim.Person{p})

			social := false
			for _, r := range p.Routines() {
				social = social || r.Routine.SocialEventsOnly
			}
			assert.Equal(t, tc.wantSocial, social)
		})
	}
}
