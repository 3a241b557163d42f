// Package contacts provides the sliding-window contact tracer.
package contacts

import "github.com/pandemic-sim/pandemic-sim/sim"

// DefaultTimeSlotScale divides raw counts so one slot spans a day of hourly samples.
const DefaultTimeSlotScale = 24

type pair [2]sim.PersonID

// normalize orders a pair so (a, b) and (b, a) share a key.
func normalize(a, b sim.PersonID) pair {
	if b.Less(a) {
		return pair{b, a}
	}
	return pair{a, b}
}

type slot struct {
	counts map[pair]int
	index  map[sim.PersonID][]pair // reverse index in first-seen order
}

func newSlot() *slot {
	return &slot{counts: make(map[pair]int), index: make(map[sim.PersonID][]pair)}
}

// MaxSlotContactTracer keeps contacts for a fixed number of slots; slot 0 is
// current. Callers decide what a slot spans by when they call NewTimeSlot;
// the time-slot scale only normalizes the reported counts.
type MaxSlotContactTracer struct {
	storageSlots  int
	timeSlotScale int
	slots         []*slot
}

// NewMaxSlotContactTracer returns a tracer keeping storageSlots slots.
func NewMaxSlotContactTracer(storageSlots, timeSlotScale int) *MaxSlotContactTracer {
	if storageSlots <= 0 {
		panic("contacts: storageSlots must be positive")
	}
	if timeSlotScale <= 0 {
		panic("contacts: timeSlotScale must be positive")
	}
	t := &MaxSlotContactTracer{storageSlots: storageSlots, timeSlotScale: timeSlotScale}
	t.Reset()
	return t
}

// AddContacts increments each pair in the current slot. Self-pairs are ignored.
func (t *MaxSlotContactTracer) AddContacts(pairs [][2]sim.PersonID) {
	cur := t.slots[0]
	for _, c := range pairs {
		if c[0] == c[1] {
			continue
		}
		k := normalize(c[0], c[1])
		if _, seen := cur.counts[k]; !seen {
			cur.index[k[0]] = append(cur.index[k[0]], k)
			cur.index[k[1]] = append(cur.index[k[1]], k)
		}
		cur.counts[k]++
	}
}

// NewTimeSlot drops the oldest slot and opens an empty current one.
func (t *MaxSlotContactTracer) NewTimeSlot() {
	copy(t.slots[1:], t.slots[:len(t.slots)-1])
	t.slots[0] = newSlot()
}

// GetContacts returns, for every person seen with id in a retained slot, a
// vector of per-slot counts divided by the time-slot scale. Index 0 is the
// current slot.
func (t *MaxSlotContactTracer) GetContacts(id sim.PersonID) map[sim.PersonID][]float64 {
	res := make(map[sim.PersonID][]float64)
	for n, s := range t.slots {
		for _, k := range s.index[id] {
			other := k[0]
			if other == id {
				other = k[1]
			}
			v, ok := res[other]
			if !ok {
				v = make([]float64, t.storageSlots)
				res[other] = v
			}
			v[n] += float64(s.counts[k]) / float64(t.timeSlotScale)
		}
	}
	return res
}

// Reset clears every slot.
func (t *MaxSlotContactTracer) Reset() {
	t.slots = make([]*slot, t.storageSlots)
	for i := range t.slots {
		t.slots[i] = newSlot()
	}
}

// StorageSlots returns the number of retained slots.
func (t *MaxSlotContactTracer) StorageSlots() int { return t.storageSlots }
