package sim_test

// Blank imports trigger the init() of sim/infection and sim/contacts, which
// register NewInfectionModelFunc and NewContactTracerFunc. Package sim's
// internal tests can then build simulators without an import cycle.
import (
	_ "github.com/pandemic-sim/pandemic-sim/sim/contacts"
	_ "github.com/pandemic-sim/pandemic-sim/sim/infection"
)
