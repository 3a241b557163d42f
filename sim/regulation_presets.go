package sim

import "sort"

func noGatherings() map[Risk]int { return map[Risk]int{RiskLow: 0, RiskHigh: 0} }

func stagedLocks(office, school, university, restaurant bool) map[LocationType]LocationRule {
	return map[LocationType]LocationRule{
		Office:     LockRule(office),
		School:     LockRule(school),
		University: LockRule(university),
		Restaurant: LockRule(restaurant),
	}
}

// StagedRegulations returns five escalating stages, 0 (open) through 4 (full lockdown).
func StagedRegulations() *RegulationBundle {
	return &RegulationBundle{Regulations: []ChosenRegulation{
		{
			Stage:                    0,
			SocialDistancing:         ResetToDefault[float64](),
			RiskToAvoidGatheringSize: map[Risk]int{RiskLow: -1, RiskHigh: -1},
			LocationTypeToRule:       stagedLocks(false, false, false, false),
		},
		{
			Stage:               1,
			StayHomeIfSick:      true,
			PracticeGoodHygiene: true,
			SocialDistancing:    Set(0.2),
			LocationTypeToRule:  stagedLocks(false, false, false, false),
		},
		{
			Stage:               2,
			StayHomeIfSick:      true,
			PracticeGoodHygiene: true,
			SocialDistancing:    Set(0.25),
			LocationTypeToRule:  stagedLocks(false, true, false, false),
		},
		{
			Stage:                    3,
			StayHomeIfSick:           true,
			PracticeGoodHygiene:      true,
			WearFacialCoverings:      true,
			SocialDistancing:         Set(0.6),
			RiskToAvoidGatheringSize: noGatherings(),
			LocationTypeToRule:       stagedLocks(false, true, true, true),
		},
		{
			Stage:                    4,
			StayHomeIfSick:           true,
			PracticeGoodHygiene:      true,
			WearFacialCoverings:      true,
			SocialDistancing:         Set(0.8),
			RiskToAvoidGatheringSize: noGatherings(),
			LocationTypeToRule:       stagedLocks(true, true, true, true),
		},
	}}
}

// StaticRegulations returns a two-stage set: open, then a light
// recommendation-only stage with no closures.
func StaticRegulations() *RegulationBundle {
	return &RegulationBundle{Regulations: []ChosenRegulation{
		{
			Stage:                    0,
			SocialDistancing:         ResetToDefault[float64](),
			RiskToAvoidGatheringSize: map[Risk]int{RiskLow: -1, RiskHigh: -1},
			LocationTypeToRule:       stagedLocks(false, false, false, false),
		},
		{
			Stage:                    1,
			StayHomeIfSick:           true,
			PracticeGoodHygiene:      true,
			SocialDistancing:         Set(0.139),
			RiskToAvoidGatheringSize: map[Risk]int{RiskLow: 50, RiskHigh: 50},
		},
	}}
}

// RegulationPresets maps preset names to constructors.
var RegulationPresets = map[string]func() *RegulationBundle{
	"staged": StagedRegulations,
	"static": StaticRegulations,
}

// RegulationPresetNames returns the preset names, sorted.
func RegulationPresetNames() []string {
	out := make([]string, 0, len(RegulationPresets))
	for n := range RegulationPresets {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
