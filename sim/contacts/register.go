// register.go wires the tracer constructor into sim.NewContactTracerFunc.
// Importing sim/contacts is enough to make contact tracing available.
package contacts

import "github.com/pandemic-sim/pandemic-sim/sim"

func init() {
	sim.NewContactTracerFunc = func(historySize int) sim.ContactTracer {
		return NewMaxSlotContactTracer(historySize, DefaultTimeSlotScale)
	}
}
