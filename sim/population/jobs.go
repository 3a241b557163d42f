package population

import (
	"math/rand"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

// WorkPackage is one job slot: a workplace and the hours worked there.
type WorkPackage struct {
	Work     sim.LocationID
	WorkTime sim.TimeWindow
}

// JobCounselor hands out the job slots declared by num_assignees, spreading
// workers across the locations of a type before filling any one of them.
type JobCounselor struct {
	reg   *sim.Registry
	rng   *rand.Rand
	slots []sim.LocationID
	next  int
}

// NewJobCounselor enumerates the slots of every business type in cfg, in table order.
func NewJobCounselor(reg *sim.Registry, cfg *sim.SimulationConfig, rng *rand.Rand) *JobCounselor {
	jc := &JobCounselor{reg: reg, rng: rng}
	for _, lc := range cfg.Locations {
		kind, ok := sim.KindOf(lc.Type)
		if !ok || !kind.IsBusiness() || lc.NumAssignees <= 0 {
			continue
		}
		ids := reg.LocationIDsOfType(lc.Type)
		for slot := 0; slot < lc.NumAssignees; slot++ {
			jc.slots = append(jc.slots, ids...)
		}
	}
	return jc
}

// Remaining is the number of unfilled slots.
func (jc *JobCounselor) Remaining() int { return len(jc.slots) - jc.next }

// NextAvailableWork returns the next slot, or false when every slot is taken.
func (jc *JobCounselor) NextAvailableWork() (WorkPackage, bool) {
	if jc.next >= len(jc.slots) {
		return WorkPackage{}, false
	}
	id := jc.slots[jc.next]
	jc.next++
	return WorkPackage{Work: id, WorkTime: jc.reg.Location(id).WorkTime(jc.rng)}, true
}
