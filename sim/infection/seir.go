// Package infection provides the default compartmental infection model.
package infection

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

// Compartment names reported in IndividualInfectionState.Stage.
const (
	StageSusceptible  = "susceptible"
	StageExposed      = "exposed"
	StageAsymptomatic = "asymptomatic"
	StagePresymptom   = "presymptomatic"
	StageSymptomatic  = "symptomatic"
	StageHospitalized = "hospitalized"
	StageRecovered    = "recovered"
	StageDead         = "dead"
)

// AgeBand is an inclusive upper age bound with the probabilities that apply up to it.
type AgeBand struct {
	MaxAge                  int
	HospitalizationLowRisk  float64
	HospitalizationHighRisk float64
	DeathGivenHospital      float64
}

// SEIRConfig holds daily transition rates and age-dependent severities.
type SEIRConfig struct {
	SpreadRateMean  float64
	SpreadRateSigma float64

	ExposedRate           float64 // E -> I*, per day
	AsymptomaticFraction  float64
	AsymptomaticRelSpread float64
	AsymptomaticRecovery  float64 // Ia -> R, per day
	PresymptomaticRate    float64 // Ip -> Is, per day
	SymptomaticExitRate   float64 // Is -> H or R, per day
	HospitalExitRate      float64 // H -> R or D, per day
	AgeBands              []AgeBand
}

// DefaultSEIRConfig returns calibrated rates with the spread rate taken from settings.
func DefaultSEIRConfig(settings sim.SimulationSettings) SEIRConfig {
	return SEIRConfig{
		SpreadRateMean:        settings.InfectionSpreadRateMean,
		SpreadRateSigma:       settings.InfectionSpreadRateSigma,
		ExposedRate:           1 / 2.9,
		AsymptomaticFraction:  0.43,
		AsymptomaticRelSpread: 0.66,
		AsymptomaticRecovery:  1 / 4.0,
		PresymptomaticRate:    1 / 2.3,
		SymptomaticExitRate:   1 / 4.0,
		HospitalExitRate:      1 / 10.7,
		AgeBands: []AgeBand{
			{MaxAge: 4, HospitalizationLowRisk: 0.0004, HospitalizationHighRisk: 0.004, DeathGivenHospital: 0.039},
			{MaxAge: 17, HospitalizationLowRisk: 0.0003, HospitalizationHighRisk: 0.003, DeathGivenHospital: 0.039},
			{MaxAge: 49, HospitalizationLowRisk: 0.025, HospitalizationHighRisk: 0.25, DeathGivenHospital: 0.123},
			{MaxAge: 64, HospitalizationLowRisk: 0.04, HospitalizationHighRisk: 0.4, DeathGivenHospital: 0.03},
			{MaxAge: sim.MaxAge, HospitalizationLowRisk: 0.076, HospitalizationHighRisk: 0.76, DeathGivenHospital: 0.178},
		},
	}
}

// Validate checks probabilities, rates and band ordering.
func (c SEIRConfig) Validate() error {
	for name, p := range map[string]float64{
		"asymptomatic_fraction":   c.AsymptomaticFraction,
		"asymptomatic_rel_spread": c.AsymptomaticRelSpread,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %f", name, p)
		}
	}
	for name, r := range map[string]float64{
		"exposed_rate":          c.ExposedRate,
		"asymptomatic_recovery": c.AsymptomaticRecovery,
		"presymptomatic_rate":   c.PresymptomaticRate,
		"symptomatic_exit_rate": c.SymptomaticExitRate,
		"hospital_exit_rate":    c.HospitalExitRate,
	} {
		if r <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, r)
		}
	}
	if len(c.AgeBands) == 0 || c.AgeBands[len(c.AgeBands)-1].MaxAge < sim.MaxAge {
		return fmt.Errorf("age bands must cover ages up to %d", sim.MaxAge)
	}
	for i := 1; i < len(c.AgeBands); i++ {
		if c.AgeBands[i].MaxAge <= c.AgeBands[i-1].MaxAge {
			return fmt.Errorf("age bands must be strictly increasing at index %d", i)
		}
	}
	return nil
}

// SEIRModel is an hourly discrete-time compartment model:
// S -> E -> (Ia -> R) | (Ip -> Is -> (R | H -> (R | D))).
type SEIRModel struct {
	cfg SEIRConfig
	rng *rand.Rand
}

// NewSEIRModel builds a model drawing from rng. cfg must be valid.
func NewSEIRModel(cfg SEIRConfig, rng *rand.Rand) *SEIRModel {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("infection: invalid SEIR config: %v", err))
	}
	return &SEIRModel{cfg: cfg, rng: rng}
}

// hourly converts a daily rate into the probability of leaving within one hour.
func hourly(dailyRate float64) float64 {
	return 1 - math.Exp(-dailyRate/sim.HoursPerDay)
}

func (m *SEIRModel) band(age int) AgeBand {
	for _, b := range m.cfg.AgeBands {
		if age <= b.MaxAge {
			return b
		}
	}
	return m.cfg.AgeBands[len(m.cfg.AgeBands)-1]
}

// drawSpreadRate samples the bounded gaussian spread rate.
func (m *SEIRModel) drawSpreadRate() float64 {
	r := m.rng.NormFloat64()*m.cfg.SpreadRateSigma + m.cfg.SpreadRateMean
	return math.Min(math.Max(r, 0), 1)
}

func susceptible(exposedRnb float64) sim.IndividualInfectionState {
	return sim.IndividualInfectionState{Summary: sim.SummaryNone, ExposedRnb: exposedRnb, Stage: StageSusceptible}
}

func (m *SEIRModel) state(stage string, rate float64) sim.IndividualInfectionState {
	s := sim.IndividualInfectionState{Stage: stage, SpreadRate: rate, ExposedRnb: -1}
	switch stage {
	case StageExposed:
		s.Summary = sim.SummaryInfected
	case StageAsymptomatic:
		s.Summary = sim.SummaryInfected
		s.SpreadProbability = rate * m.cfg.AsymptomaticRelSpread
	case StagePresymptom:
		s.Summary = sim.SummaryInfected
		s.SpreadProbability = rate
	case StageSymptomatic:
		s.Summary = sim.SummaryInfected
		s.SpreadProbability = rate
		s.ShowsSymptoms = true
	case StageHospitalized:
		s.Summary = sim.SummaryCritical
		s.IsHospitalized = true
		s.ShowsSymptoms = true
	case StageRecovered:
		s.Summary = sim.SummaryRecovered
	case StageDead:
		s.Summary = sim.SummaryDead
	default:
		return susceptible(-1)
	}
	return s
}

// Step advances one person by one hour.
func (m *SEIRModel) Step(prior *sim.IndividualInfectionState, age int, risk sim.Risk, exposureProbability float64) sim.IndividualInfectionState {
	if prior == nil || prior.Stage == StageSusceptible || prior.Stage == "" {
		u := m.rng.Float64()
		if u < exposureProbability {
			s := m.state(StageExposed, m.drawSpreadRate())
			s.ExposedRnb = u
			return s
		}
		return susceptible(u)
	}

	rate := prior.SpreadRate
	switch prior.Stage {
	case StageExposed:
		if m.rng.Float64() < hourly(m.cfg.ExposedRate) {
			if m.rng.Float64() < m.cfg.AsymptomaticFraction {
				return m.state(StageAsymptomatic, rate)
			}
			return m.state(StagePresymptom, rate)
		}
	case StageAsymptomatic:
		if m.rng.Float64() < hourly(m.cfg.AsymptomaticRecovery) {
			return m.state(StageRecovered, rate)
		}
	case StagePresymptom:
		if m.rng.Float64() < hourly(m.cfg.PresymptomaticRate) {
			return m.state(StageSymptomatic, rate)
		}
	case StageSymptomatic:
		if m.rng.Float64() < hourly(m.cfg.SymptomaticExitRate) {
			b := m.band(age)
			p := b.HospitalizationLowRisk
			if risk == sim.RiskHigh {
				p = b.HospitalizationHighRisk
			}
			if m.rng.Float64() < p {
				return m.state(StageHospitalized, rate)
			}
			return m.state(StageRecovered, rate)
		}
	case StageHospitalized:
		if m.rng.Float64() < hourly(m.cfg.HospitalExitRate) {
			if m.rng.Float64() < m.band(age).DeathGivenHospital {
				return m.state(StageDead, rate)
			}
			return m.state(StageRecovered, rate)
		}
	}
	return m.state(prior.Stage, rate)
}

// NeedsContacts is true only for susceptible persons.
func (m *SEIRModel) NeedsContacts(prior *sim.IndividualInfectionState) bool {
	return prior == nil || prior.Stage == StageSusceptible || prior.Stage == ""
}

// Seed returns a presymptomatic infection with a freshly drawn spread rate.
func (m *SEIRModel) Seed(age int, risk sim.Risk) sim.IndividualInfectionState {
	return m.state(StagePresymptom, m.drawSpreadRate())
}

// Reset is a no-op: the model keeps no per-episode state.
func (m *SEIRModel) Reset() {}
