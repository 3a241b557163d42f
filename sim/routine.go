package sim

import (
	"fmt"
	"math/rand"
)

// PersonRoutine is an immutable description of a recurring discretionary trip.
type PersonRoutine struct {
	Name string
	// StartLoc, when set, restricts the routine to start only from that location.
	StartLoc LocationID
	// EndLocType is the type of location the routine targets.
	EndLocType LocationType
	// ValidTime is the window in which a due routine may start.
	ValidTime TimeWindow
	// StartTrigger marks the routine due; nil means due at the start of every day.
	StartTrigger *TimeInterval
	// ExploreProbability is the chance of picking a fresh target instead of the remembered one.
	ExploreProbability float64
	// Duration is how many hours the person stays once admitted.
	Duration int
	// SocialEventsOnly restricts targets to homes hosting a gathering right now.
	SocialEventsOnly bool
}

// RoutineStatus is the per-person runtime state of one routine.
type RoutineStatus struct {
	Due         bool
	Started     bool
	Elapsed     int
	Target      LocationID // remembered target; empty before the first trigger
	LastTrigger int        // hours since epoch of the last trigger, -1 if never
}

func newRoutineStatus() RoutineStatus { return RoutineStatus{LastTrigger: -1} }

// RoutineWithStatus pairs a routine with its per-person status.
type RoutineWithStatus struct {
	Routine PersonRoutine
	Status  RoutineStatus
}

func newRoutineWithStatus(r PersonRoutine) *RoutineWithStatus {
	return &RoutineWithStatus{Routine: r, Status: newRoutineStatus()}
}

// sync marks the routine due when its trigger fires and counts hours spent at the target.
func (rs *RoutineWithStatus) sync(t SimulationTime, current LocationID) {
	var fired bool
	if rs.Routine.StartTrigger != nil {
		fired = rs.Routine.StartTrigger.Triggers(t)
	} else {
		fired = t.Hour == 0
	}
	if fired {
		rs.Status.Due = true
		rs.Status.LastTrigger = t.ToHours()
	}

	if !rs.Status.Started {
		return
	}
	if current != rs.Status.Target {
		// left early (health gate, schedule)
		rs.Status.Started = false
		rs.Status.Elapsed = 0
		return
	}
	rs.Status.Elapsed++
	if rs.Status.Elapsed >= rs.Routine.Duration {
		rs.Status.Started = false
		rs.Status.Elapsed = 0
	}
}

// canStart reports whether a due routine may start now from current.
func (rs *RoutineWithStatus) canStart(t SimulationTime, current LocationID) bool {
	if !rs.Status.Due || rs.Status.Started {
		return false
	}
	if rs.Routine.StartLoc != "" && rs.Routine.StartLoc != current {
		return false
	}
	return rs.Routine.ValidTime.Contains(t)
}

func (rs *RoutineWithStatus) start(target LocationID) {
	rs.Status.Due = false
	rs.Status.Started = true
	rs.Status.Elapsed = 0
	rs.Status.Target = target
}

func (rs *RoutineWithStatus) reset() {
	rs.Status = newRoutineStatus()
}

// resolveTarget picks the routine's destination. Candidates are the registered
// locations of EndLocType in registration order, minus exclude; social routines
// draw only from the homes hosting a gathering now. On the first trigger, or
// with ExploreProbability, a candidate is drawn uniformly; otherwise the
// remembered target is reused.
func (rs *RoutineWithStatus) resolveTarget(reg *Registry, rng *rand.Rand, exclude LocationID) (LocationID, bool) {
	pool := reg.LocationIDsOfType(rs.Routine.EndLocType)
	if rs.Routine.SocialEventsOnly {
		pool = reg.LocationIDsWithSocialEvents()
	}
	var candidates []LocationID
	for _, id := range pool {
		if id == exclude || reg.LocationTypeOf(id) != rs.Routine.EndLocType {
			continue
		}
		candidates = append(candidates, id)
	}
	if len(candidates) == 0 {
		return "", false
	}

	explore := rng.Float64() < rs.Routine.ExploreProbability
	if rs.Status.Target != "" && !explore && !rs.Routine.SocialEventsOnly {
		return rs.Status.Target, true
	}
	return candidates[rng.Intn(len(candidates))], true
}

// === Constructors ===

// TriggeredRoutine visits a location of type t once every `days` days,
// between 8h and 20h. from restricts the start location, empty for anywhere.
func TriggeredRoutine(from LocationID, t LocationType, days int) PersonRoutine {
	iv := EveryDays(days, 0)
	return PersonRoutine{
		Name:         fmt.Sprintf("every-%dd-%s", days, t),
		StartLoc:     from,
		EndLocType:   t,
		ValidTime:    TimeWindow{Hours: Span(8, 20)},
		StartTrigger: &iv,
		Duration:     1,
	}
}

// WeekendRoutine visits a location of type t once each weekend, 11h-20h.
func WeekendRoutine(from LocationID, t LocationType, exploreProbability float64) PersonRoutine {
	iv := EveryDays(7, 6)
	return PersonRoutine{
		Name:               fmt.Sprintf("weekend-%s", t),
		StartLoc:           from,
		EndLocType:         t,
		ValidTime:          TimeWindow{Hours: Span(11, 21), WeekDays: []int{6, 0}},
		StartTrigger:       &iv,
		ExploreProbability: exploreProbability,
		Duration:           2,
	}
}

// SocialRoutine visits another home while it hosts a gathering, starting from home.
func SocialRoutine(home LocationID) PersonRoutine {
	return PersonRoutine{
		Name:             "social",
		StartLoc:         home,
		EndLocType:       Home,
		ValidTime:        TimeWindow{Hours: Span(15, 20)},
		Duration:         2,
		SocialEventsOnly: true,
	}
}

// MidDayDuringWeekRoutine leaves work for a location of type t around noon on weekdays.
func MidDayDuringWeekRoutine(work LocationID, t LocationType) PersonRoutine {
	return PersonRoutine{
		Name:               fmt.Sprintf("midday-%s", t),
		StartLoc:           work,
		EndLocType:         t,
		ValidTime:          TimeWindow{Hours: Span(11, 14), WeekDays: Span(1, 6)},
		ExploreProbability: 0.5,
		Duration:           1,
	}
}
