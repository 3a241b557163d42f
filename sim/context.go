package sim

// ContactTracer is a sliding window of per-slot contact counts between persons.
type ContactTracer interface {
	// AddContacts increments each unordered pair's count in the current slot.
	AddContacts(pairs [][2]PersonID)
	// NewTimeSlot discards the oldest slot and opens an empty current one.
	NewTimeSlot()
	// GetContacts maps every person seen with id in a retained slot to its
	// per-slot counts, newest slot first, divided by the time scale.
	GetContacts(id PersonID) map[PersonID][]float64
	Reset()
}

// NewContactTracerFunc is set by sim/contacts' init(). It builds a tracer
// retaining historySize slots.
var NewContactTracerFunc func(historySize int) ContactTracer

// SimulationContext is passed explicitly to every step so multiple
// simulations can coexist in one process.
type SimulationContext struct {
	Registry *Registry
	RNG      *PartitionedRNG
	// Tracer is nil when contact tracing is off.
	Tracer ContactTracer
}

// NewSimulationContext builds an empty registry around a seeded RNG.
func NewSimulationContext(key SimulationKey) *SimulationContext {
	return &SimulationContext{
		Registry: NewRegistry(),
		RNG:      NewPartitionedRNG(key),
	}
}
