// Package sim provides the core hourly agent-based pandemic simulation engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - person.go: a person's per-tick decision (health gates, schedule, routines, home)
//   - location.go: admission, rule application and the in-location sets
//   - simulator.go: the tick order, contact sampling and infection update
//
// # Architecture
//
// The sim package defines interfaces and bridge types; implementations live in
// sub-packages:
//   - sim/infection/: the SEIR-style infection progression model
//   - sim/contacts/: the sliding-window contact tracer
//   - sim/population/: town generation (households, jobs, routines)
//   - sim/env/: the regulation-stage decision environment, rewards and done functions
//   - sim/recorder/: per-tick recorders (memory, SQLite)
//   - sim/trace/: decision trace recording
//
// Sub-packages register their implementations via init() functions that set
// package-level factory variables (NewInfectionModelFunc, NewContactTracerFunc).
//
// # Key Interfaces
//
//   - InfectionModel: one person's progression per tick given the exposure probability
//   - ContactTracer: per-slot contact counts used by contact-based quarantine
//   - StateConsumer: receives a snapshot after every tick
//
// All randomness flows through PartitionedRNG, so a run is a pure function of
// its SimulationKey and configuration.
package sim
