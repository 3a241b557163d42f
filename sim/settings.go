package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SimulationSettings are the run parameters that do not describe the world.
type SimulationSettings struct {
	InfectionSpreadRateMean  float64 `yaml:"infection_spread_rate_mean"`
	InfectionSpreadRateSigma float64 `yaml:"infection_spread_rate_sigma"`

	RandomTestingRate        float64 `yaml:"random_testing_rate"`
	SympTestingRate          float64 `yaml:"symp_testing_rate"`
	CriticalTestingRate      float64 `yaml:"critical_testing_rate"`
	TestingFalsePositiveRate float64 `yaml:"testing_false_positive_rate"`
	TestingFalseNegativeRate float64 `yaml:"testing_false_negative_rate"`
	RetestRate               float64 `yaml:"retest_rate"`

	SimStepsPerRegulation    int  `yaml:"sim_steps_per_regulation"`
	UseContactTracer         bool `yaml:"use_contact_tracer"`
	ContactTracerHistorySize int  `yaml:"contact_tracer_history_size"`
	InfectionThreshold       int  `yaml:"infection_threshold"`
	NumInitialInfections     int  `yaml:"num_initial_infections"`
}

// DefaultSimulationSettings returns the calibrated defaults.
func DefaultSimulationSettings() SimulationSettings {
	return SimulationSettings{
		InfectionSpreadRateMean:  0.21,
		InfectionSpreadRateSigma: 0.1,
		RandomTestingRate:        0.02,
		SympTestingRate:          0.3,
		CriticalTestingRate:      1.0,
		TestingFalsePositiveRate: 0.001,
		TestingFalseNegativeRate: 0.01,
		RetestRate:               0.033,
		SimStepsPerRegulation:    24,
		UseContactTracer:         false,
		ContactTracerHistorySize: 15,
		InfectionThreshold:       50,
		NumInitialInfections:     5,
	}
}

// Validate checks every rate is a probability and every count is sane.
func (s SimulationSettings) Validate() error {
	rates := []struct {
		name string
		v    float64
	}{
		{"infection_spread_rate_mean", s.InfectionSpreadRateMean},
		{"random_testing_rate", s.RandomTestingRate},
		{"symp_testing_rate", s.SympTestingRate},
		{"critical_testing_rate", s.CriticalTestingRate},
		{"testing_false_positive_rate", s.TestingFalsePositiveRate},
		{"testing_false_negative_rate", s.TestingFalseNegativeRate},
		{"retest_rate", s.RetestRate},
	}
	for _, r := range rates {
		if r.v < 0 || r.v > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1], got %f", ErrInvalidConfig, r.name, r.v)
		}
	}
	if s.InfectionSpreadRateSigma < 0 {
		return fmt.Errorf("%w: infection_spread_rate_sigma must be non-negative, got %f", ErrInvalidConfig, s.InfectionSpreadRateSigma)
	}
	if s.SimStepsPerRegulation <= 0 {
		return fmt.Errorf("%w: sim_steps_per_regulation must be positive, got %d", ErrInvalidConfig, s.SimStepsPerRegulation)
	}
	if s.UseContactTracer && s.ContactTracerHistorySize <= 0 {
		return fmt.Errorf("%w: contact_tracer_history_size must be positive, got %d", ErrInvalidConfig, s.ContactTracerHistorySize)
	}
	if s.InfectionThreshold < 0 {
		return fmt.Errorf("%w: infection_threshold must be non-negative, got %d", ErrInvalidConfig, s.InfectionThreshold)
	}
	if s.NumInitialInfections < 0 {
		return fmt.Errorf("%w: num_initial_infections must be non-negative, got %d", ErrInvalidConfig, s.NumInitialInfections)
	}
	return nil
}

// LoadSimulationSettings reads a settings file strictly. Keys absent from the
// file keep their default.
func LoadSimulationSettings(path string) (SimulationSettings, error) {
	s := DefaultSimulationSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading settings: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return s, fmt.Errorf("parsing settings: %w", err)
	}
	return s, s.Validate()
}
