package sim

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RegulationBundle is an ordered set of regulation stages, loadable from YAML.
// Absent rule fields stay unset; the literal "default" restores init values.
type RegulationBundle struct {
	Regulations []ChosenRegulation `yaml:"regulations"`
}

// LoadRegulationBundle reads and strictly parses a YAML regulation file.
// Unknown keys are rejected so typos never silently become "unset".
func LoadRegulationBundle(path string) (*RegulationBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading regulation config: %w", err)
	}
	return ParseRegulationBundle(data)
}

// ParseRegulationBundle parses and validates bundle YAML.
func ParseRegulationBundle(data []byte) (*RegulationBundle, error) {
	var bundle RegulationBundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing regulation config: %w", err)
	}
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	bundle.sortByStage()
	return &bundle, nil
}

// Validate checks each regulation and rejects duplicate stages.
func (b *RegulationBundle) Validate() error {
	if len(b.Regulations) == 0 {
		return fmt.Errorf("regulation bundle is empty")
	}
	seen := make(map[int]bool, len(b.Regulations))
	for i, r := range b.Regulations {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("regulations[%d]: %w", i, err)
		}
		if seen[r.Stage] {
			return fmt.Errorf("regulations[%d]: duplicate stage %d", i, r.Stage)
		}
		seen[r.Stage] = true
	}
	return nil
}

func (b *RegulationBundle) sortByStage() {
	sort.SliceStable(b.Regulations, func(i, j int) bool { return b.Regulations[i].Stage < b.Regulations[j].Stage })
}

// Stage returns the regulation for stage s.
func (b *RegulationBundle) Stage(s int) (ChosenRegulation, bool) {
	for _, r := range b.Regulations {
		if r.Stage == s {
			return r, true
		}
	}
	return ChosenRegulation{}, false
}

// Stages returns the stage numbers in ascending order.
func (b *RegulationBundle) Stages() []int {
	out := make([]int, len(b.Regulations))
	for i, r := range b.Regulations {
		out[i] = r.Stage
	}
	sort.Ints(out)
	return out
}

// MarshalBundle renders the bundle back to YAML.
func MarshalBundle(b *RegulationBundle) ([]byte, error) {
	return yaml.Marshal(b)
}
