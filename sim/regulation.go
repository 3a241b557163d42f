package sim

import (
	"fmt"
	"sort"
)

// ChosenRegulation is one government stage: per-type location rules plus the
// behavioural flags every person receives.
type ChosenRegulation struct {
	Stage int `yaml:"stage"`

	LocationTypeToRule map[LocationType]LocationRule `yaml:"location_rules,omitempty"`
	SocialDistancing   Override[float64]             `yaml:"social_distancing,omitempty"`

	Quarantine                       bool `yaml:"quarantine,omitempty"`
	QuarantineIfContactPositive      bool `yaml:"quarantine_if_contact_positive,omitempty"`
	QuarantineIfHouseholdQuarantined bool `yaml:"quarantine_if_household_quarantined,omitempty"`
	StayHomeIfSick                   bool `yaml:"stay_home_if_sick,omitempty"`
	PracticeGoodHygiene              bool `yaml:"practice_good_hygiene,omitempty"`
	WearFacialCoverings              bool `yaml:"wear_facial_coverings,omitempty"`

	RiskToAvoidGatheringSize map[Risk]int            `yaml:"risk_to_avoid_gathering_size,omitempty"`
	RiskToAvoidLocationTypes map[Risk][]LocationType `yaml:"risk_to_avoid_location_types,omitempty"`
}

// AvoidGatheringSize returns the largest gathering a person of risk r may
// join; -1 means no limit.
func (r ChosenRegulation) AvoidGatheringSize(risk Risk) int {
	if n, ok := r.RiskToAvoidGatheringSize[risk]; ok {
		return n
	}
	return -1
}

// AvoidLocationTypes returns the types a person of risk r must stay out of.
func (r ChosenRegulation) AvoidLocationTypes(risk Risk) []LocationType {
	return r.RiskToAvoidLocationTypes[risk]
}

// RuleTypes returns the types carrying a rule, sorted, so rules are applied
// in a fixed order.
func (r ChosenRegulation) RuleTypes() []LocationType {
	out := make([]LocationType, 0, len(r.LocationTypeToRule))
	for t := range r.LocationTypeToRule {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks value ranges and location type names.
func (r ChosenRegulation) Validate() error {
	if r.Stage < 0 {
		return fmt.Errorf("stage must be non-negative, got %d", r.Stage)
	}
	if sd, ok := r.SocialDistancing.Value(); ok && (sd < 0 || sd > 1) {
		return fmt.Errorf("stage %d: social_distancing must be in [0, 1], got %f", r.Stage, sd)
	}
	for _, t := range r.RuleTypes() {
		if !IsValidLocationType(t) {
			return fmt.Errorf("stage %d: unknown location type %q; valid: %v", r.Stage, t, ValidLocationTypes())
		}
		rule := r.LocationTypeToRule[t]
		if n, ok := rule.VisitorCapacity.Value(); ok && n < -1 {
			return fmt.Errorf("stage %d: %s visitor_capacity must be >= -1, got %d", r.Stage, t, n)
		}
		for _, w := range []Override[TimeWindow]{rule.VisitorTime, rule.OpenTime} {
			if v, ok := w.Value(); ok {
				if err := v.Validate(); err != nil {
					return fmt.Errorf("stage %d: %s: %w", r.Stage, t, err)
				}
			}
		}
	}
	for risk, n := range r.RiskToAvoidGatheringSize {
		if !IsValidRisk(risk) {
			return fmt.Errorf("stage %d: unknown risk %q", r.Stage, risk)
		}
		if n < -1 {
			return fmt.Errorf("stage %d: avoid gathering size must be >= -1, got %d", r.Stage, n)
		}
	}
	for risk, types := range r.RiskToAvoidLocationTypes {
		if !IsValidRisk(risk) {
			return fmt.Errorf("stage %d: unknown risk %q", r.Stage, risk)
		}
		for _, t := range types {
			if !IsValidLocationType(t) {
				return fmt.Errorf("stage %d: unknown avoided location type %q", r.Stage, t)
			}
		}
	}
	return nil
}
