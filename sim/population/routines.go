package population

import (
	"github.com/sirupsen/logrus"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

// RoutineAssignment gives every person its routines after the population is built.
type RoutineAssignment interface {
	// RequiredLocationTypes lists the types the routines send persons to.
	RequiredLocationTypes() []sim.LocationType
	AssignRoutines(persons []*sim.Person)
}

// DefaultRoutineAssignment: errands, weekend outings and social visits for
// everyone; a mid-day restaurant break for workers.
type DefaultRoutineAssignment struct{}

func (DefaultRoutineAssignment) RequiredLocationTypes() []sim.LocationType {
	return []sim.LocationType{sim.University, sim.Restaurant, sim.GroceryStore}
}

// MinorRoutines are started from home only; social visits begin at 12.
func MinorRoutines(home sim.LocationID, age int) []sim.PersonRoutine {
	routines := []sim.PersonRoutine{
		sim.TriggeredRoutine(home, sim.University, 30),
		sim.WeekendRoutine(home, sim.Restaurant, 0.5),
	}
	if age >= 12 {
		routines = append(routines, sim.SocialRoutine(home))
	}
	return routines
}

// AdultRoutines may start anywhere except the social visit.
func AdultRoutines(home sim.LocationID) []sim.PersonRoutine {
	return []sim.PersonRoutine{
		sim.TriggeredRoutine("", sim.GroceryStore, 7),
		sim.TriggeredRoutine("", sim.University, 30),
		sim.WeekendRoutine("", sim.Restaurant, 0.5),
		sim.SocialRoutine(home),
	}
}

// DuringWorkRoutines interrupt the work schedule.
func DuringWorkRoutines(work sim.LocationID) []sim.PersonRoutine {
	return []sim.PersonRoutine{sim.MidDayDuringWeekRoutine(work, sim.Restaurant)}
}

func (DefaultRoutineAssignment) AssignRoutines(persons []*sim.Person) {
	for _, p := range persons {
		switch p.Kind() {
		case sim.Child, sim.Student:
			p.SetRoutines(nil, MinorRoutines(p.Home(), p.ID().Age))
		case sim.Retired:
			p.SetRoutines(nil, AdultRoutines(p.Home()))
		case sim.Adult:
			var during []sim.PersonRoutine
			if s := p.Schedule(); s != nil {
				during = DuringWorkRoutines(s.Location)
			}
			p.SetRoutines(during, AdultRoutines(p.Home()))
		}
	}
}

// checkRequiredTypes warns about routine destinations that have no locations.
func checkRequiredTypes(reg *sim.Registry, ra RoutineAssignment) {
	for _, t := range ra.RequiredLocationTypes() {
		if len(reg.LocationIDsOfType(t)) == 0 {
			logrus.Warnf("routines visit %s but none are registered; those routines never start", t)
		}
	}
}
