// Package env wraps a simulator as a steppable decision environment: each
// action selects a regulation stage, which stays in force for a fixed number
// of simulated hours before the next decision.
package env

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pandemic-sim/pandemic-sim/sim"
	_ "github.com/pandemic-sim/pandemic-sim/sim/contacts"
	_ "github.com/pandemic-sim/pandemic-sim/sim/infection"
	"github.com/pandemic-sim/pandemic-sim/sim/population"
	"github.com/pandemic-sim/pandemic-sim/sim/trace"
)

// Config holds the optional parts of an environment.
type Config struct {
	Reward RewardFunction
	Done   DoneFunction
	// HistorySize is the number of trailing ticks kept per observation; default 1.
	HistorySize int
	// StepsPerRegulation defaults to the simulator's sim_steps_per_regulation.
	StepsPerRegulation int
	// Businesses are the non-essential businesses whose lock state is observed.
	Businesses []sim.LocationID
	// Consumer receives every simulated tick; may be nil.
	Consumer sim.StateConsumer
}

// Environment drives one simulator episode after episode.
type Environment struct {
	sim     *sim.Simulator
	bundle  *sim.RegulationBundle
	stages  []int
	cfg     Config
	imposed bool

	lastObs    Observation
	lastReward float64
}

// NewEnvironment builds an environment over s. The regulation bundle
// defines the action space: action i selects the i-th stage in ascending order.
func NewEnvironment(s *sim.Simulator, bundle *sim.RegulationBundle, cfg Config) (*Environment, error) {
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 1
	}
	if cfg.StepsPerRegulation <= 0 {
		cfg.StepsPerRegulation = s.Settings().SimStepsPerRegulation
	}
	if cfg.HistorySize > cfg.StepsPerRegulation {
		return nil, fmt.Errorf("history size %d exceeds steps per regulation %d", cfg.HistorySize, cfg.StepsPerRegulation)
	}
	reg := s.Context().Registry
	for _, id := range cfg.Businesses {
		loc := reg.Location(id)
		if loc == nil {
			return nil, fmt.Errorf("observed business %s: %w", id, sim.ErrUnknownLocation)
		}
		if k := loc.Kind(); !k.IsBusiness() || k.Essential {
			return nil, fmt.Errorf("%w: %s is not a non-essential business", sim.ErrInvalidConfig, id)
		}
	}
	e := &Environment{sim: s, bundle: bundle, stages: bundle.Stages(), cfg: cfg}
	e.lastObs = e.observeNow()
	return e, nil
}

// NonEssentialBusinesses lists the lockable, non-essential businesses in registration order.
func NonEssentialBusinesses(reg *sim.Registry) []sim.LocationID {
	var out []sim.LocationID
	for _, id := range reg.LocationIDs() {
		k := reg.Location(id).Kind()
		if k.IsBusiness() && !k.Essential && k.Has(sim.CapLockable) {
			out = append(out, id)
		}
	}
	return out
}

// FromConfig builds a world, a simulator and an environment with the default
// reward and a critical-above-capacity done function.
func FromConfig(seed int64, cfg *sim.SimulationConfig, settings sim.SimulationSettings, bundle *sim.RegulationBundle, tr *trace.SimulationTrace) (*Environment, error) {
	capacity := cfg.MaxHospitalCapacity()
	if capacity == -1 {
		return nil, fmt.Errorf("%w: the environment needs a bounded hospital capacity", sim.ErrInvalidConfig)
	}
	ctx := sim.NewSimulationContext(sim.NewSimulationKey(seed))
	if err := population.BuildWorld(ctx, cfg); err != nil {
		return nil, err
	}
	s, err := sim.NewSimulator(ctx, settings, tr)
	if err != nil {
		return nil, err
	}
	reward, err := DefaultReward(capacity, len(bundle.Regulations))
	if err != nil {
		return nil, err
	}
	return NewEnvironment(s, bundle, Config{
		Reward:     reward,
		Done:       CriticalAboveThresholdDone(3 * capacity),
		Businesses: NonEssentialBusinesses(ctx.Registry),
	})
}

func (e *Environment) Simulator() *sim.Simulator { return e.sim }
func (e *Environment) NumActions() int           { return len(e.stages) }
func (e *Environment) Observation() Observation  { return e.lastObs }
func (e *Environment) LastReward() float64       { return e.lastReward }
func (e *Environment) StageOf(action int) int    { return e.stages[action] }

// SetConsumer replaces the consumer of simulated ticks; nil disables it.
func (e *Environment) SetConsumer(c sim.StateConsumer) { e.cfg.Consumer = c }

func (e *Environment) observeNow() Observation {
	return Observation{Rows: []ObservationRow{rowFromState(e.sim.State(), e.cfg.Businesses)}}
}

// ActionOf returns the action selecting stage.
func (e *Environment) ActionOf(stage int) (int, bool) {
	for i, s := range e.stages {
		if s == stage {
			return i, true
		}
	}
	return 0, false
}

// Step imposes the stage selected by action when it differs from the one in
// force, runs one regulation interval and scores it.
func (e *Environment) Step(action int) (Observation, float64, bool, error) {
	if action < 0 || action >= len(e.stages) {
		return Observation{}, 0, false, fmt.Errorf("action %d outside [0, %d)", action, len(e.stages))
	}
	stage := e.stages[action]
	if !e.imposed || stage != e.sim.Stage() {
		reg, _ := e.bundle.Stage(stage)
		e.sim.ImposeRegulation(reg)
		e.imposed = true
	}

	obs := Observation{Rows: make([]ObservationRow, 0, e.cfg.HistorySize)}
	first := e.cfg.StepsPerRegulation - e.cfg.HistorySize
	for i := 0; i < e.cfg.StepsPerRegulation; i++ {
		e.sim.Step()
		needState := i >= first || e.cfg.Consumer != nil
		if !needState {
			continue
		}
		st := e.sim.State()
		if e.cfg.Consumer != nil {
			if err := e.cfg.Consumer.ConsumeState(st, e.sim.Regulation()); err != nil {
				return Observation{}, 0, false, fmt.Errorf("consume state: %w", err)
			}
		}
		if i >= first {
			obs.Rows = append(obs.Rows, rowFromState(st, e.cfg.Businesses))
		}
	}

	prev := e.lastObs
	e.lastReward = 0
	if e.cfg.Reward != nil {
		e.lastReward = e.cfg.Reward.Reward(prev, action, obs)
	}
	done := e.cfg.Done != nil && e.cfg.Done.Done(obs, action)
	e.lastObs = obs
	if done && e.cfg.Consumer != nil {
		if err := e.cfg.Consumer.Finalize(); err != nil {
			return obs, e.lastReward, done, err
		}
	}
	logrus.Debugf("[%s] action %d (stage %d): reward %.4f done=%v", e.sim.Time(), action, stage, e.lastReward, done)
	return obs, e.lastReward, done, nil
}

// Reset starts a new episode and returns its initial observation.
func (e *Environment) Reset() (Observation, error) {
	e.sim.Reset()
	e.imposed = false
	e.lastReward = 0
	if e.cfg.Done != nil {
		e.cfg.Done.Reset()
	}
	if e.cfg.Consumer != nil {
		if err := e.cfg.Consumer.ConsumeBegin(e.sim.State()); err != nil {
			return Observation{}, err
		}
	}
	e.lastObs = e.observeNow()
	return e.lastObs, nil
}
