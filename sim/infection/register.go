// register.go wires the SEIR model into sim.NewInfectionModelFunc. Production
// code imports sim/infection directly; package sim's tests use a blank import.
package infection

import (
	"math/rand"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

func init() {
	sim.NewInfectionModelFunc = func(settings sim.SimulationSettings, rng *rand.Rand) sim.InfectionModel {
		return NewSEIRModel(DefaultSEIRConfig(settings), rng)
	}
}
