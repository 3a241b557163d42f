// Package population builds the persons of a world: ages, households, jobs
// and routines. All draws come from the population RNG stream, so a seed and
// a config always produce the same persons with the same ids.
package population

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

// ErrNotEnough is returned when the location table cannot house or employ the population.
var ErrNotEnough = errors.New("not enough locations for the population")

const (
	minAge = 1
	maxAge = 100
	// Ages from this one on become increasingly rare, down to oldAgeTail at maxAge.
	agingStart = 60
	oldAgeTail = 0.05

	// nursingFraction of retirees live alone or in pairs, away from other households.
	nursingFraction = 0.065
	// singleParentFraction of homes with minors get no extra adult.
	singleParentFraction = 0.23
)

// AgeDistribution draws n ages: roughly flat below 60, then tapering.
func AgeDistribution(rng *rand.Rand, n int) []int {
	weights := make([]float64, maxAge-minAge+1)
	total := 0.0
	for i := range weights {
		age := minAge + i
		w := 1 + rng.NormFloat64()*0.05
		if age >= agingStart {
			w *= 1 + float64(age-agingStart)*(oldAgeTail-1)/float64(maxAge-agingStart)
		}
		weights[i] = math.Max(w, 0)
		total += weights[i]
	}
	ages := make([]int, n)
	for k := range ages {
		u := rng.Float64() * total
		i := 0
		for ; i < len(weights)-1 && u >= weights[i]; i++ {
			u -= weights[i]
		}
		ages[k] = minAge + i
	}
	return ages
}

// InfectionRisk is high with probability proportional to age.
func InfectionRisk(rng *rand.Rand, age int) sim.Risk {
	if rng.Float64() < float64(age)/float64(maxAge+1) {
		return sim.RiskHigh
	}
	return sim.RiskLow
}

// ClusterIntoGroups splits items, in order, into consecutive groups whose
// sizes are drawn uniformly from [minSize, maxSize]. The last group may be smaller.
func ClusterIntoGroups[T any](items []T, minSize, maxSize int, rng *rand.Rand) [][]T {
	var groups [][]T
	for len(items) > 0 {
		size := min(minSize+rng.Intn(maxSize-minSize+1), len(items))
		groups = append(groups, items[:size])
		items = items[size:]
	}
	return groups
}

type resident struct {
	home sim.LocationID
	age  int
}

// Generator builds persons for the locations already registered in a context.
type Generator struct {
	ctx        *sim.SimulationContext
	cfg        *sim.SimulationConfig
	rng        *rand.Rand
	Assignment RoutineAssignment
}

// NewGenerator uses the population stream of ctx and the default routines.
func NewGenerator(ctx *sim.SimulationContext, cfg *sim.SimulationConfig) *Generator {
	return &Generator{
		ctx:        ctx,
		cfg:        cfg,
		rng:        ctx.RNG.ForSubsystem(sim.SubsystemPopulation),
		Assignment: DefaultRoutineAssignment{},
	}
}

func (g *Generator) newID(prefix string, age int) (sim.PersonID, error) {
	u, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return sim.PersonID{}, err
	}
	return sim.PersonID{Name: prefix + "_" + u.String(), Age: age}, nil
}

func (g *Generator) newPerson(prefix string, kind sim.PersonKind, r resident, schedule *sim.Schedule) (*sim.Person, error) {
	id, err := g.newID(prefix, r.age)
	if err != nil {
		return nil, err
	}
	return sim.NewPerson(sim.PersonConfig{
		ID:                       id,
		Kind:                     kind,
		Home:                     r.home,
		Risk:                     InfectionRisk(g.rng, r.age),
		Schedule:                 schedule,
		RegulationComplianceProb: g.cfg.RegulationComplianceProb,
	})
}

func shuffled[T any](rng *rand.Rand, items []T) []T {
	out := append([]T(nil), items...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// takeHomes houses each group in its own home from the front of homes.
func takeHomes(groups [][]int, homes []sim.LocationID, what string) ([]resident, []sim.LocationID, []sim.LocationID, error) {
	if len(homes) < len(groups) {
		return nil, nil, nil, fmt.Errorf("%w: %d homes left for %d %s households", ErrNotEnough, len(homes), len(groups), what)
	}
	var out []resident
	for i, grp := range groups {
		for _, age := range grp {
			out = append(out, resident{home: homes[i], age: age})
		}
	}
	return out, homes[:len(groups)], homes[len(groups):], nil
}

func (g *Generator) pick(ids []sim.LocationID) (sim.LocationID, bool) {
	if len(ids) == 0 {
		return "", false
	}
	return ids[g.rng.Intn(len(ids))], true
}

func (g *Generator) scheduleAt(id sim.LocationID) *sim.Schedule {
	return &sim.Schedule{Location: id, Window: g.ctx.Registry.Location(id).WorkTime(g.rng)}
}

// Generate builds NumPersons persons with routines assigned. Persons are not registered.
//
// Households: a share of retirees live in small nursing homes; minors and
// students are grouped into homes of their own; each minor home gets one
// adult; the remaining retirees and adults are spread over empty homes and
// most family homes.
func (g *Generator) Generate() ([]*sim.Person, error) {
	reg := g.ctx.Registry
	ages := AgeDistribution(g.rng, g.cfg.NumPersons)
	ages = shuffled(g.rng, ages)

	var minors, students, adults, retirees []int
	for _, a := range ages {
		switch {
		case a <= sim.MaxChildAge:
			minors = append(minors, a)
		case a <= sim.MaxStudentAge:
			students = append(students, a)
		case a <= sim.RetirementAge:
			adults = append(adults, a)
		default:
			retirees = append(retirees, a)
		}
	}

	unlived := shuffled(g.rng, reg.LocationIDsOfType(sim.Home))

	numNursing := int(math.Ceil(float64(len(retirees)) * nursingFraction))
	nursingRes, _, unlived, err := takeHomes(ClusterIntoGroups(retirees[:numNursing], 1, 2, g.rng), unlived, "nursing")
	if err != nil {
		return nil, err
	}
	otherRetirees := retirees[numNursing:]

	minorRes, minorHomes, unlived, err := takeHomes(ClusterIntoGroups(minors, 1, 3, g.rng), unlived, "minor")
	if err != nil {
		return nil, err
	}
	studentRes, studentHomes, unlived, err := takeHomes(ClusterIntoGroups(students, 1, 3, g.rng), unlived, "student")
	if err != nil {
		return nil, err
	}

	if len(adults) < len(minorHomes) {
		return nil, fmt.Errorf("%w: %d adults for %d homes with minors", ErrNotEnough, len(adults), len(minorHomes))
	}
	var adultRes, retireeRes []resident
	for i, h := range minorHomes {
		adultRes = append(adultRes, resident{home: h, age: adults[i]})
	}
	otherAdults := adults[len(minorHomes):]

	family := append(append([]sim.LocationID(nil), minorHomes...), studentHomes...)
	distribute := append(append([]sim.LocationID(nil), unlived...), family[int(float64(len(family))*singleParentFraction):]...)
	distribute = shuffled(g.rng, distribute)
	if rest := len(otherRetirees) + len(otherAdults); rest > 0 {
		if len(distribute) == 0 {
			return nil, fmt.Errorf("%w: no homes left for %d adults and retirees", ErrNotEnough, rest)
		}
		for i := 0; i < rest; i++ {
			home := distribute[i%len(distribute)]
			if i < len(otherRetirees) {
				retireeRes = append(retireeRes, resident{home: home, age: otherRetirees[i]})
			} else {
				adultRes = append(adultRes, resident{home: home, age: otherAdults[i-len(otherRetirees)]})
			}
		}
	}

	persons := make([]*sim.Person, 0, g.cfg.NumPersons)
	add := func(p *sim.Person, err error) error {
		if err != nil {
			return err
		}
		persons = append(persons, p)
		return nil
	}

	for _, r := range nursingRes {
		if err := add(g.newPerson("retired", sim.Retired, r, nil)); err != nil {
			return nil, err
		}
	}
	schools := reg.LocationIDsOfType(sim.School)
	for _, r := range minorRes {
		var s *sim.Schedule
		if id, ok := g.pick(schools); ok {
			s = g.scheduleAt(id)
		}
		if err := add(g.newPerson("minor", sim.Child, r, s)); err != nil {
			return nil, err
		}
	}
	universities := reg.LocationIDsOfType(sim.University)
	for _, r := range studentRes {
		var s *sim.Schedule
		if id, ok := g.pick(universities); ok {
			s = g.scheduleAt(id)
		}
		if err := add(g.newPerson("student", sim.Student, r, s)); err != nil {
			return nil, err
		}
	}
	jobs := NewJobCounselor(reg, g.cfg, g.rng)
	for _, r := range adultRes {
		wp, ok := jobs.NextAvailableWork()
		if !ok {
			return nil, fmt.Errorf("%w: ran out of jobs for %d adults; raise num_assignees", ErrNotEnough, len(adultRes))
		}
		s := &sim.Schedule{Location: wp.Work, Window: wp.WorkTime}
		if err := add(g.newPerson("worker", sim.Adult, r, s)); err != nil {
			return nil, err
		}
	}
	for _, r := range retireeRes {
		if err := add(g.newPerson("retired", sim.Retired, r, nil)); err != nil {
			return nil, err
		}
	}

	if g.Assignment != nil {
		checkRequiredTypes(reg, g.Assignment)
		g.Assignment.AssignRoutines(persons)
	}
	logrus.Debugf("population: %d minors, %d students, %d adults, %d retirees (%d in nursing homes), %d jobs unfilled",
		len(minors), len(students), len(adults), len(retirees), len(nursingRes), jobs.Remaining())
	return persons, nil
}

// Populate generates the population and registers every person.
func Populate(ctx *sim.SimulationContext, cfg *sim.SimulationConfig) ([]*sim.Person, error) {
	persons, err := NewGenerator(ctx, cfg).Generate()
	if err != nil {
		return nil, err
	}
	for _, p := range persons {
		if err := ctx.Registry.RegisterPerson(p); err != nil {
			return nil, err
		}
	}
	return persons, nil
}

// BuildWorld registers the locations of cfg and then its population.
func BuildWorld(ctx *sim.SimulationContext, cfg *sim.SimulationConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := sim.BuildLocations(ctx, cfg); err != nil {
		return err
	}
	persons, err := Populate(ctx, cfg)
	if err != nil {
		return err
	}
	logrus.Infof("world built: %d persons in %d locations", len(persons), len(ctx.Registry.LocationIDs()))
	return nil
}
