package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/pandemic-sim/pandemic-sim/sim/trace"
)

// Simulator advances a registered world one hour at a time.
//
// Tick order: clock advance, location sync, daily work (tracer slot, testing),
// person sync, person steps in registration order, contact sampling,
// infection update, aggregates.
type Simulator struct {
	ctx      *SimulationContext
	settings SimulationSettings
	model    InfectionModel
	testing  *pandemicTesting
	trace    *trace.SimulationTrace

	clock            SimulationTime
	regulation       ChosenRegulation
	socialDistancing float64
	aboveThreshold   bool
}

// NewSimulator wires the infection model and, when enabled, the contact
// tracer into ctx, then seeds the initial infections. The registry must
// already hold every location and person. tr may be nil.
func NewSimulator(ctx *SimulationContext, settings SimulationSettings, tr *trace.SimulationTrace) (*Simulator, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if NewInfectionModelFunc == nil {
		return nil, fmt.Errorf("no infection model registered; import sim/infection")
	}
	if ctx.Registry.NumPersons() == 0 {
		return nil, fmt.Errorf("%w: no persons registered", ErrInvalidConfig)
	}
	if settings.NumInitialInfections > ctx.Registry.NumPersons() {
		return nil, fmt.Errorf("%w: %d initial infections for %d persons", ErrInvalidConfig,
			settings.NumInitialInfections, ctx.Registry.NumPersons())
	}
	if settings.UseContactTracer {
		if NewContactTracerFunc == nil {
			return nil, fmt.Errorf("no contact tracer registered; import sim/contacts")
		}
		ctx.Tracer = NewContactTracerFunc(settings.ContactTracerHistorySize)
	}

	s := &Simulator{
		ctx:      ctx,
		settings: settings,
		model:    NewInfectionModelFunc(settings, ctx.RNG.ForSubsystem(SubsystemInfection)),
		testing:  newPandemicTesting(settings, ctx.Registry.NumPersons()),
		trace:    tr,
	}
	s.seedInfections()
	s.syncLocations()
	logrus.Infof("simulator ready: %d persons, %d locations, %d initial infections, contact tracer=%v",
		ctx.Registry.NumPersons(), len(ctx.Registry.LocationIDs()), settings.NumInitialInfections, settings.UseContactTracer)
	return s, nil
}

func (s *Simulator) Context() *SimulationContext      { return s.ctx }
func (s *Simulator) Settings() SimulationSettings     { return s.settings }
func (s *Simulator) Time() SimulationTime             { return s.clock }
func (s *Simulator) Stage() int                       { return s.regulation.Stage }
func (s *Simulator) Regulation() ChosenRegulation     { return s.regulation }
func (s *Simulator) Trace() *trace.SimulationTrace    { return s.trace }
func (s *Simulator) SocialDistancing() float64        { return s.socialDistancing }
func (s *Simulator) InfectionAboveThreshold() bool    { return s.aboveThreshold }
func (s *Simulator) TestingState() GlobalTestingState { return s.testing.state.Clone() }

// seedInfections infects NumInitialInfections persons drawn without
// replacement from the infection stream.
func (s *Simulator) seedInfections() {
	reg := s.ctx.Registry
	ids := reg.PersonIDs()
	rng := s.ctx.RNG.ForSubsystem(SubsystemInfection)
	for _, i := range rng.Perm(len(ids))[:s.settings.NumInitialInfections] {
		p := reg.Person(ids[i])
		seeded := s.model.Seed(p.ID().Age, p.state.Risk)
		reg.SetPersonInfectionState(p, &seeded)
	}
}

func (s *Simulator) syncLocations() {
	reg := s.ctx.Registry
	for _, id := range reg.LocationIDs() {
		reg.Location(id).Sync(s.clock)
	}
	reg.UpdateLocationSpecificInformation()
}

// Step advances the simulation by one hour.
func (s *Simulator) Step() {
	reg := s.ctx.Registry
	s.clock.Advance()
	t := s.clock

	s.syncLocations()

	if t.Hour == 0 {
		if s.ctx.Tracer != nil {
			s.ctx.Tracer.NewTimeSlot()
		}
		s.testing.run(reg, s.ctx.RNG.ForSubsystem(SubsystemTesting))
		for _, id := range reg.PersonIDs() {
			reg.Person(id).state.NotInfectionProbabilityHistory = nil
		}
	}

	for _, id := range reg.PersonIDs() {
		reg.Person(id).Sync(s.ctx, t)
	}

	for _, id := range reg.PersonIDs() {
		res := reg.Person(id).Step(s.ctx, t)
		if res.Attempted && s.trace.Enabled() {
			s.trace.RecordEntry(trace.EntryRecord{
				Person:       id.String(),
				Hour:         int64(t.ToHours()),
				Location:     string(res.Location),
				LocationType: string(reg.LocationTypeOf(res.Location)),
				Cause:        res.Cause,
				Admitted:     res.Moved,
				Reason:       res.Reason,
			})
		}
	}

	contacts := s.sampleContacts()
	s.updateInfections(contacts)

	s.aboveThreshold = s.testing.state.Summary[SummaryInfected] >= s.settings.InfectionThreshold
	logrus.Debugf("[%s] infected=%d critical=%d", t,
		reg.infectionCounts[SummaryInfected], reg.infectionCounts[SummaryCritical])
}

// StepDay runs 24 hourly steps.
func (s *Simulator) StepDay() {
	for i := 0; i < HoursPerDay; i++ {
		s.Step()
	}
}

// sampleContacts draws contact pairs inside every location and feeds them to
// the tracer. The result maps each location to its pairs for this tick.
func (s *Simulator) sampleContacts() map[LocationID][][2]PersonID {
	reg := s.ctx.Registry
	rng := s.ctx.RNG.ForSubsystem(SubsystemContacts)
	out := make(map[LocationID][][2]PersonID)
	var all [][2]PersonID
	for _, id := range reg.LocationIDs() {
		pairs := locationContacts(reg.Location(id).State(), s.socialDistancing, rng)
		if len(pairs) == 0 {
			continue
		}
		out[id] = pairs
		all = append(all, pairs...)
	}
	if s.ctx.Tracer != nil && len(all) > 0 {
		s.ctx.Tracer.AddContacts(all)
	}
	return out
}

// locationContacts samples assignee-assignee, assignee-visitor and
// visitor-visitor pairs. Patients count as visitors. Each group draws
// max(min, fraction*(1-sd)*n) pairs, capped at the number of distinct pairs.
func locationContacts(st *LocationState, sd float64, rng *rand.Rand) [][2]PersonID {
	a := st.AssigneesInLocation.Items()
	v := st.VisitorsInLocation.Union(st.PatientsInLocation).Items()
	cr := st.ContactRate
	var pairs [][2]PersonID

	within := func(group []PersonID, minN int, frac float64) {
		n := len(group)
		if n < 2 {
			return
		}
		k := min(max(minN, int(frac*(1-sd)*float64(n))), n*(n-1)/2)
		for ; k > 0; k-- {
			i := rng.Intn(n)
			j := rng.Intn(n - 1)
			if j >= i {
				j++
			}
			pairs = append(pairs, [2]PersonID{group[i], group[j]})
		}
	}
	within(a, cr.MinAssignees, cr.FractionAssignees)
	if len(a) > 0 && len(v) > 0 {
		k := min(max(cr.MinAssigneesVisitors, int(cr.FractionAssigneesVisitors*(1-sd)*float64(len(a)+len(v)))), len(a)*len(v))
		for ; k > 0; k-- {
			pairs = append(pairs, [2]PersonID{a[rng.Intn(len(a))], v[rng.Intn(len(v))]})
		}
	}
	within(v, cr.MinVisitors, cr.FractionVisitors)
	return pairs
}

// updateInfections computes every person's exposure from this tick's
// contacts against the pre-tick infection states, then applies the model.
func (s *Simulator) updateInfections(contacts map[LocationID][][2]PersonID) {
	reg := s.ctx.Registry

	notInfected := make(map[PersonID]float64)
	for _, lid := range reg.LocationIDs() {
		for _, pair := range contacts[lid] {
			p0, p1 := reg.Person(pair[0]), reg.Person(pair[1])
			exposeOnce(notInfected, p0, p1)
			exposeOnce(notInfected, p1, p0)
		}
	}

	ids := reg.PersonIDs()
	next := make([]IndividualInfectionState, len(ids))
	for i, id := range ids {
		p := reg.Person(id)
		prior := p.state.InfectionState
		exposure := 0.0
		if s.model.NeedsContacts(prior) {
			notInf, ok := notInfected[id]
			if !ok {
				notInf = 1
			}
			p.state.NotInfectionProbability = notInf
			p.state.NotInfectionProbabilityHistory = append(p.state.NotInfectionProbabilityHistory,
				LocationProbability{Location: p.state.CurrentLocation, Probability: notInf})
			exposure = 1 - notInf
		}
		next[i] = s.model.Step(prior, id.Age, p.state.Risk, exposure)
	}
	for i, id := range ids {
		st := next[i]
		reg.SetPersonInfectionState(reg.Person(id), &st)
	}
}

// exposeOnce folds one contact with src into dst's probability of staying uninfected.
func exposeOnce(notInfected map[PersonID]float64, dst, src *Person) {
	inf := src.state.InfectionState
	if inf == nil || inf.SpreadProbability <= 0 {
		return
	}
	q, ok := notInfected[dst.id]
	if !ok {
		q = 1
	}
	spread := inf.SpreadProbability * src.state.InfectionSpreadMultiplier * dst.state.InfectionSpreadMultiplier
	notInfected[dst.id] = q * (1 - min(spread, 1))
}

// ImposeRegulation pushes reg's rules to every location of each named type,
// lets every person make a compliance roll and records the stage. Types with
// no registered locations are skipped.
func (s *Simulator) ImposeRegulation(reg ChosenRegulation) {
	registry := s.ctx.Registry
	for _, t := range reg.RuleTypes() {
		ids := registry.LocationIDsOfType(t)
		if len(ids) == 0 {
			logrus.Warnf("regulation stage %d: no %s locations registered, rule ignored", reg.Stage, t)
			continue
		}
		rule := reg.LocationTypeToRule[t]
		for _, id := range ids {
			registry.Location(id).UpdateRules(rule)
		}
	}
	s.syncLocations()

	rng := s.ctx.RNG.ForSubsystem(SubsystemPersons)
	complied := 0
	for _, id := range registry.PersonIDs() {
		if registry.Person(id).ReceiveRegulation(reg, rng) {
			complied++
		}
	}

	s.socialDistancing = reg.SocialDistancing.Apply(s.socialDistancing, 0)
	s.regulation = reg

	ruleTypes := make([]string, 0, len(reg.LocationTypeToRule))
	for _, t := range reg.RuleTypes() {
		ruleTypes = append(ruleTypes, string(t))
	}
	s.trace.RecordRegulation(trace.RegulationRecord{
		Hour:             int64(s.clock.ToHours()),
		Stage:            reg.Stage,
		SocialDistancing: s.socialDistancing,
		RuleTypes:        ruleTypes,
	})
	logrus.Infof("[%s] imposed regulation stage %d (social distancing %.2f, %d/%d persons complied)",
		s.clock, reg.Stage, s.socialDistancing, complied, registry.NumPersons())
}

// Reset restores every location and person, the clock and the regulation
// state, then seeds a fresh set of initial infections.
func (s *Simulator) Reset() {
	s.clock = SimulationTime{}
	s.ctx.Registry.Reset()
	if s.ctx.Tracer != nil {
		s.ctx.Tracer.Reset()
	}
	s.model.Reset()
	s.testing.reset(s.ctx.Registry.NumPersons())
	s.trace.Reset()
	s.regulation = ChosenRegulation{}
	s.socialDistancing = 0
	s.aboveThreshold = false
	s.seedInfections()
	s.syncLocations()
	logrus.Infof("simulator reset")
}

// State returns a deep-copied snapshot.
func (s *Simulator) State() SimulationState {
	reg := s.ctx.Registry
	st := SimulationState{
		IDToPersonState:              make(map[PersonID]PersonState, reg.NumPersons()),
		IDToLocationState:            make(map[LocationID]LocationState, len(reg.LocationIDs())),
		LocationTypeInfectionSummary: make(map[LocationType]int),
		GlobalInfectionSummary:       reg.GlobalInfectionSummary(),
		GlobalTestingState:           s.testing.state.Clone(),
		GlobalLocationSummary:        reg.GlobalLocationSummary(),
		InfectionAboveThreshold:      s.aboveThreshold,
		RegulationStage:              s.regulation.Stage,
		SocialDistancing:             s.socialDistancing,
		SimTime:                      s.clock,
	}
	for _, id := range reg.PersonIDs() {
		p := reg.Person(id)
		st.IDToPersonState[id] = p.state.Clone()
		if p.InfectionSummary() == SummaryInfected {
			st.LocationTypeInfectionSummary[reg.LocationTypeOf(p.state.CurrentLocation)]++
		}
	}
	for _, id := range reg.LocationIDs() {
		st.IDToLocationState[id] = reg.Location(id).State().Clone()
	}
	return st
}

// Summary returns the comparable digest of the current tick.
func (s *Simulator) Summary() AggregateSummary {
	return AggregateSummary{
		Hours:          s.clock.ToHours(),
		Stage:          s.regulation.Stage,
		Infection:      summaryArray(s.ctx.Registry.infectionCounts),
		Observed:       summaryArray(s.testing.state.Summary),
		NumTests:       s.testing.state.NumTests,
		AboveThreshold: s.aboveThreshold,
	}
}
