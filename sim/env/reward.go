package env

import (
	"fmt"
	"math"
	"sort"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

// RewardFunction scores the transition from prev to obs under action.
type RewardFunction interface {
	Reward(prev Observation, action int, obs Observation) float64
}

// RewardType names a registered reward function.
type RewardType string

const (
	RewardInfectionIncrease       RewardType = "infection_summary_increase"
	RewardInfectionAboveThreshold RewardType = "infection_summary_above_threshold"
	RewardInfectionAbsolute       RewardType = "infection_summary_absolute"
	RewardUnlockedBusinesses      RewardType = "unlocked_business_locations"
	RewardLowerStage              RewardType = "lower_stage"
	RewardSmoothStageChanges      RewardType = "smooth_stage_changes"
)

// RewardParams carries the parameters any reward type may need.
type RewardParams struct {
	Summary   sim.InfectionSummary
	Threshold float64
	NumStages int
	Indices   []int
}

var rewardFactories = map[RewardType]func(RewardParams) (RewardFunction, error){
	RewardInfectionIncrease: func(p RewardParams) (RewardFunction, error) {
		idx, err := penalizedIndex(p.Summary)
		return InfectionIncreaseReward{index: idx}, err
	},
	RewardInfectionAbsolute: func(p RewardParams) (RewardFunction, error) {
		idx, err := penalizedIndex(p.Summary)
		return InfectionAbsoluteReward{index: idx}, err
	},
	RewardInfectionAboveThreshold: func(p RewardParams) (RewardFunction, error) {
		idx, err := penalizedIndex(p.Summary)
		if err == nil && p.Threshold <= 0 {
			err = fmt.Errorf("threshold must be positive, got %f", p.Threshold)
		}
		return InfectionAboveThresholdReward{index: idx, threshold: p.Threshold}, err
	},
	RewardUnlockedBusinesses: func(p RewardParams) (RewardFunction, error) {
		return UnlockedBusinessesReward{Indices: p.Indices}, nil
	},
	RewardLowerStage: func(p RewardParams) (RewardFunction, error) {
		r, err := NewLowerStageReward(p.NumStages)
		if err != nil {
			return nil, err
		}
		return r, nil
	},
	RewardSmoothStageChanges: func(p RewardParams) (RewardFunction, error) {
		return SmoothStageChangesReward{}, nil
	},
}

// RewardTypes returns the registered names, sorted.
func RewardTypes() []RewardType {
	out := make([]RewardType, 0, len(rewardFactories))
	for t := range rewardFactories {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewRewardFunction builds a registered reward.
func NewRewardFunction(t RewardType, p RewardParams) (RewardFunction, error) {
	f, ok := rewardFactories[t]
	if !ok {
		return nil, fmt.Errorf("unknown reward type %q; valid: %v", t, RewardTypes())
	}
	return f(p)
}

func penalizedIndex(s sim.InfectionSummary) (int, error) {
	switch s {
	case sim.SummaryInfected, sim.SummaryCritical, sim.SummaryDead:
		return summaryIndex(s), nil
	}
	return 0, fmt.Errorf("reward summary must be infected, critical or dead, got %q", s)
}

// SumReward is a weighted sum of rewards.
type SumReward struct {
	fns     []RewardFunction
	weights []float64
}

// NewSumReward weights every fn by 1 when weights is nil.
func NewSumReward(fns []RewardFunction, weights []float64) (*SumReward, error) {
	if weights == nil {
		weights = make([]float64, len(fns))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(fns) {
		return nil, fmt.Errorf("%d weights for %d reward functions", len(weights), len(fns))
	}
	return &SumReward{fns: fns, weights: weights}, nil
}

func (r *SumReward) Reward(prev Observation, action int, obs Observation) float64 {
	total := 0.0
	for i, f := range r.fns {
		total += r.weights[i] * f.Reward(prev, action, obs)
	}
	return total
}

// InfectionIncreaseReward penalizes relative growth of a summary; zero when
// any previous row had none.
type InfectionIncreaseReward struct{ index int }

func (r InfectionIncreaseReward) Reward(prev Observation, _ int, obs Observation) float64 {
	if len(prev.Rows) == 0 || len(prev.Rows) != len(obs.Rows) {
		return 0
	}
	total := 0.0
	for i := range obs.Rows {
		p := float64(prev.Rows[i].Infection[r.index])
		if p == 0 {
			return 0
		}
		total += math.Max((float64(obs.Rows[i].Infection[r.index])-p)/p, 0)
	}
	return -total / float64(len(obs.Rows))
}

// InfectionAbsoluteReward penalizes the mean count of a summary.
type InfectionAbsoluteReward struct{ index int }

func (r InfectionAbsoluteReward) Reward(_ Observation, _ int, obs Observation) float64 {
	return -obs.MeanInfection(sim.InfectionSummaries[r.index])
}

// InfectionAboveThresholdReward penalizes the relative excess of a summary over a threshold.
type InfectionAboveThresholdReward struct {
	index     int
	threshold float64
}

func (r InfectionAboveThresholdReward) Reward(_ Observation, _ int, obs Observation) float64 {
	excess := (obs.MeanInfection(sim.InfectionSummaries[r.index]) - r.threshold) / r.threshold
	return -math.Max(excess, 0)
}

// UnlockedBusinessesReward rewards keeping non-essential businesses open.
type UnlockedBusinessesReward struct{ Indices []int }

func (r UnlockedBusinessesReward) Reward(_ Observation, _ int, obs Observation) float64 {
	return obs.UnlockedFraction(r.Indices)
}

// LowerStageReward penalizes strict stages, growing as stage^1.5.
type LowerStageReward struct{ stageRewards []float64 }

func NewLowerStageReward(numStages int) (*LowerStageReward, error) {
	if numStages < 2 {
		return nil, fmt.Errorf("lower stage reward needs at least 2 stages, got %d", numStages)
	}
	r := &LowerStageReward{stageRewards: make([]float64, numStages)}
	top := math.Pow(float64(numStages-1), 1.5)
	for i := range r.stageRewards {
		r.stageRewards[i] = math.Pow(float64(i), 1.5) / top
	}
	return r, nil
}

// Reward expects action to be the index of the chosen stage.
func (r *LowerStageReward) Reward(_ Observation, action int, _ Observation) float64 {
	if action < 0 || action >= len(r.stageRewards) {
		return -1
	}
	return -r.stageRewards[action]
}

// SmoothStageChangesReward penalizes jumps between consecutive stages.
type SmoothStageChangesReward struct{}

func (SmoothStageChangesReward) Reward(prev Observation, _ int, obs Observation) float64 {
	return -math.Abs(obs.MeanStage() - prev.MeanStage())
}

// DefaultReward balances hospital overload against restriction severity.
func DefaultReward(maxHospitalCapacity, numStages int) (RewardFunction, error) {
	if maxHospitalCapacity <= 0 {
		return nil, fmt.Errorf("default reward needs a bounded hospital capacity, got %d", maxHospitalCapacity)
	}
	c := float64(maxHospitalCapacity)
	specs := []struct {
		t RewardType
		p RewardParams
	}{
		{RewardInfectionAboveThreshold, RewardParams{Summary: sim.SummaryCritical, Threshold: c}},
		{RewardInfectionAboveThreshold, RewardParams{Summary: sim.SummaryCritical, Threshold: 3 * c}},
		{RewardLowerStage, RewardParams{NumStages: numStages}},
		{RewardSmoothStageChanges, RewardParams{NumStages: numStages}},
	}
	fns := make([]RewardFunction, 0, len(specs))
	for _, s := range specs {
		f, err := NewRewardFunction(s.t, s.p)
		if err != nil {
			return nil, err
		}
		fns = append(fns, f)
	}
	return NewSumReward(fns, []float64{0.4, 1, 0.1, 0.02})
}
