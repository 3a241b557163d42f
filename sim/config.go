package sim

import (
	"bytes"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// LocationConfig describes how many locations of one type to build.
type LocationConfig struct {
	Type LocationType `yaml:"type"`
	Num  int          `yaml:"num"`
	// NumAssignees is the number of job slots per location; -1 means none are
	// filled by the population generator.
	NumAssignees int `yaml:"num_assignees"`
	// StateOpts overrides fields of the type's default init state. Keys must
	// name fields that the type's state has.
	StateOpts map[string]any `yaml:"state_opts,omitempty"`
}

// Options decodes StateOpts into a typed override record. Unknown keys and
// fields the type does not carry are configuration errors.
func (c LocationConfig) Options() (LocationStateOptions, error) {
	var opts LocationStateOptions
	if len(c.StateOpts) == 0 {
		return opts, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &opts,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(c.StateOpts); err != nil {
		return opts, fmt.Errorf("%w: %s state_opts: %v", ErrInvalidConfig, c.Type, err)
	}
	kind, ok := KindOf(c.Type)
	if !ok {
		return opts, fmt.Errorf("%w: unknown location type %q", ErrInvalidConfig, c.Type)
	}
	if err := opts.ValidateFor(kind); err != nil {
		return opts, err
	}
	return opts, nil
}

// SimulationConfig is the static description of a world: population size and
// the location table.
type SimulationConfig struct {
	NumPersons               int              `yaml:"num_persons"`
	RegulationComplianceProb float64          `yaml:"regulation_compliance_prob"`
	Locations                []LocationConfig `yaml:"locations"`
}

// Validate checks the table and decodes every state_opts block once.
func (c *SimulationConfig) Validate() error {
	if c.NumPersons <= 0 {
		return fmt.Errorf("%w: num_persons must be positive, got %d", ErrInvalidConfig, c.NumPersons)
	}
	if c.RegulationComplianceProb < 0 || c.RegulationComplianceProb > 1 {
		return fmt.Errorf("%w: regulation_compliance_prob must be in [0, 1], got %f", ErrInvalidConfig, c.RegulationComplianceProb)
	}
	seen := make(map[LocationType]bool)
	hasHome := false
	for i, lc := range c.Locations {
		if !IsValidLocationType(lc.Type) {
			return fmt.Errorf("%w: locations[%d]: unknown type %q; valid: %v", ErrInvalidConfig, i, lc.Type, ValidLocationTypes())
		}
		if seen[lc.Type] {
			return fmt.Errorf("%w: locations[%d]: duplicate type %s", ErrInvalidConfig, i, lc.Type)
		}
		seen[lc.Type] = true
		if lc.Num < 0 {
			return fmt.Errorf("%w: locations[%d]: num must be non-negative, got %d", ErrInvalidConfig, i, lc.Num)
		}
		if lc.NumAssignees < -1 {
			return fmt.Errorf("%w: locations[%d]: num_assignees must be >= -1, got %d", ErrInvalidConfig, i, lc.NumAssignees)
		}
		if _, err := lc.Options(); err != nil {
			return fmt.Errorf("locations[%d]: %w", i, err)
		}
		if lc.Type == Home && lc.Num > 0 {
			hasHome = true
		}
	}
	if !hasHome {
		return fmt.Errorf("%w: at least one Home is required", ErrInvalidConfig)
	}
	return nil
}

// LocationConfigOf returns the entry for t.
func (c *SimulationConfig) LocationConfigOf(t LocationType) (LocationConfig, bool) {
	for _, lc := range c.Locations {
		if lc.Type == t {
			return lc, true
		}
	}
	return LocationConfig{}, false
}

// MaxHospitalCapacity is the total patient capacity, -1 when unlimited or
// there is no hospital.
func (c *SimulationConfig) MaxHospitalCapacity() int {
	lc, ok := c.LocationConfigOf(Hospital)
	if !ok || lc.Num == 0 {
		return -1
	}
	opts, err := lc.Options()
	if err != nil || opts.PatientCapacity == nil || *opts.PatientCapacity == -1 {
		return -1
	}
	return lc.Num * *opts.PatientCapacity
}

// LoadSimulationConfig reads a world config strictly and validates it.
func LoadSimulationConfig(path string) (*SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading simulation config: %w", err)
	}
	cfg := SimulationConfig{RegulationComplianceProb: 0.99}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing simulation config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// === Presets ===

func visitorCap(n int) map[string]any { return map[string]any{"visitor_capacity": n} }
func patientCap(n int) map[string]any { return map[string]any{"patient_capacity": n} }

// scaledTown builds a town with homes for numPersons and every other count
// multiplied by k.
func scaledTown(numPersons, homes, k, hospitalStaff, barStaff int) *SimulationConfig {
	return &SimulationConfig{
		NumPersons:               numPersons,
		RegulationComplianceProb: 0.99,
		Locations: []LocationConfig{
			{Type: Home, Num: homes, NumAssignees: -1},
			{Type: GroceryStore, Num: 4 * k, NumAssignees: 5, StateOpts: visitorCap(30)},
			{Type: Office, Num: 5 * k, NumAssignees: 150, StateOpts: visitorCap(0)},
			{Type: School, Num: 10 * k, NumAssignees: 4, StateOpts: visitorCap(30)},
			{Type: Hospital, Num: k, NumAssignees: hospitalStaff, StateOpts: patientCap(10)},
			{Type: RetailStore, Num: 4 * k, NumAssignees: 5, StateOpts: visitorCap(30)},
			{Type: University, Num: 4 * k, NumAssignees: 3, StateOpts: visitorCap(5)},
			{Type: Restaurant, Num: 2 * k, NumAssignees: 6, StateOpts: visitorCap(30)},
			{Type: Bar, Num: 2 * k, NumAssignees: barStaff, StateOpts: visitorCap(30)},
		},
	}
}

// TestWorldConfig is a 100-person world used by tests and quick runs.
func TestWorldConfig() *SimulationConfig {
	return &SimulationConfig{
		NumPersons:               100,
		RegulationComplianceProb: 0.99,
		Locations: []LocationConfig{
			{Type: Home, Num: 30, NumAssignees: -1},
			{Type: GroceryStore, Num: 1, NumAssignees: 5, StateOpts: visitorCap(30)},
			{Type: Office, Num: 1, NumAssignees: 150, StateOpts: visitorCap(0)},
			{Type: School, Num: 10, NumAssignees: 2, StateOpts: visitorCap(30)},
			{Type: Hospital, Num: 1, NumAssignees: 30, StateOpts: patientCap(2)},
			{Type: Restaurant, Num: 1, NumAssignees: 3, StateOpts: visitorCap(10)},
			{Type: Bar, Num: 1, NumAssignees: 3, StateOpts: visitorCap(10)},
		},
	}
}

// TinyTownConfig is a 500-person town.
func TinyTownConfig() *SimulationConfig {
	return &SimulationConfig{
		NumPersons:               500,
		RegulationComplianceProb: 0.99,
		Locations: []LocationConfig{
			{Type: Home, Num: 150, NumAssignees: -1},
			{Type: GroceryStore, Num: 2, NumAssignees: 5, StateOpts: visitorCap(30)},
			{Type: Office, Num: 2, NumAssignees: 150, StateOpts: visitorCap(0)},
			{Type: School, Num: 10, NumAssignees: 2, StateOpts: visitorCap(30)},
			{Type: Hospital, Num: 1, NumAssignees: 15, StateOpts: patientCap(5)},
			{Type: RetailStore, Num: 2, NumAssignees: 5, StateOpts: visitorCap(30)},
			{Type: University, Num: 2, NumAssignees: 3, StateOpts: visitorCap(5)},
			{Type: Restaurant, Num: 1, NumAssignees: 6, StateOpts: visitorCap(30)},
			{Type: Bar, Num: 1, NumAssignees: 3, StateOpts: visitorCap(30)},
		},
	}
}

// SmallTownConfig is a 1000-person town.
func SmallTownConfig() *SimulationConfig { return scaledTown(1000, 300, 1, 30, 5) }

// MediumTownConfig is a 2000-person town.
func MediumTownConfig() *SimulationConfig { return scaledTown(2000, 600, 2, 30, 3) }

// AboveMediumTownConfig is a 4000-person town.
func AboveMediumTownConfig() *SimulationConfig { return scaledTown(4000, 1200, 4, 30, 4) }

// TownConfig is a 10000-person town.
func TownConfig() *SimulationConfig { return scaledTown(10000, 3000, 10, 30, 5) }

// WorldPresets maps preset names to constructors.
var WorldPresets = map[string]func() *SimulationConfig{
	"test":         TestWorldConfig,
	"tiny":         TinyTownConfig,
	"small":        SmallTownConfig,
	"medium":       MediumTownConfig,
	"above-medium": AboveMediumTownConfig,
	"town":         TownConfig,
}
