package sim

import (
	"fmt"
	"slices"
)

const (
	HoursPerDay  = 24
	DaysPerWeek  = 7
	DaysPerYear  = 365
	HoursPerYear = DaysPerYear * HoursPerDay
)

var weekDayNames = [DaysPerWeek]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// SimulationTime is the simulation clock value. Hour is the atomic tick.
// WeekDay 0 is Sunday and 6 is Saturday; WeekDay is (total days elapsed) mod 7, so it keeps
// rotating across year boundaries.
type SimulationTime struct {
	Hour    int `yaml:"hour"`
	WeekDay int `yaml:"week_day"`
	Day     int `yaml:"day"`
	Year    int `yaml:"year"`
}

// NewSimulationTime validates the ranges of every component.
func NewSimulationTime(hour, weekDay, day, year int) (SimulationTime, error) {
	t := SimulationTime{Hour: hour, WeekDay: weekDay, Day: day, Year: year}
	if err := t.Validate(); err != nil {
		return SimulationTime{}, err
	}
	return t, nil
}

// Validate checks hour in [0,23], week day in [0,6], day in [0,364], year >= 0.
func (t SimulationTime) Validate() error {
	if t.Hour < 0 || t.Hour >= HoursPerDay {
		return fmt.Errorf("hour must be in [0, 23], got %d", t.Hour)
	}
	if t.WeekDay < 0 || t.WeekDay >= DaysPerWeek {
		return fmt.Errorf("week_day must be in [0, 6], got %d", t.WeekDay)
	}
	if t.Day < 0 || t.Day >= DaysPerYear {
		return fmt.Errorf("day must be in [0, 364], got %d", t.Day)
	}
	if t.Year < 0 {
		return fmt.Errorf("year must be non-negative, got %d", t.Year)
	}
	return nil
}

// Advance moves the clock one hour forward, carrying into week day, day and year.
// It is the only mutator of a SimulationTime.
func (t *SimulationTime) Advance() {
	t.Hour++
	if t.Hour < HoursPerDay {
		return
	}
	t.Hour = 0
	t.WeekDay = (t.WeekDay + 1) % DaysPerWeek
	t.Day++
	if t.Day >= DaysPerYear {
		t.Day = 0
		t.Year++
	}
}

// ToHours returns the total number of hours since the epoch; it induces the total order.
func (t SimulationTime) ToHours() int {
	return t.Year*HoursPerYear + t.Day*HoursPerDay + t.Hour
}

// FromHours builds the time reached after h ticks from the epoch.
func FromHours(h int) (SimulationTime, error) {
	if h < 0 {
		return SimulationTime{}, fmt.Errorf("hours must be non-negative, got %d", h)
	}
	return SimulationTime{
		Hour:    h % HoursPerDay,
		WeekDay: (h / HoursPerDay) % DaysPerWeek,
		Day:     (h % HoursPerYear) / HoursPerDay,
		Year:    h / HoursPerYear,
	}, nil
}

// Before reports whether t is strictly earlier than other.
func (t SimulationTime) Before(other SimulationTime) bool {
	return t.ToHours() < other.ToHours()
}

func (t SimulationTime) String() string {
	return fmt.Sprintf("y%d d%03d %s %02dh", t.Year, t.Day, weekDayNames[t.WeekDay], t.Hour)
}

// === TimeWindow ===

// TimeWindow is a predicate over hours, week days and days. A nil dimension is
// a wildcard; an empty non-nil dimension matches nothing. Containment is the AND
// across all specified dimensions.
type TimeWindow struct {
	Hours    []int `yaml:"hours,omitempty" mapstructure:"hours"`
	WeekDays []int `yaml:"week_days,omitempty" mapstructure:"week_days"`
	Days     []int `yaml:"days,omitempty" mapstructure:"days"`
}

// AlwaysWindow matches every time.
var AlwaysWindow = TimeWindow{}

// NewTimeWindow validates every listed value. Pass nil for a wildcard dimension.
func NewTimeWindow(hours, weekDays, days []int) (TimeWindow, error) {
	w := TimeWindow{Hours: hours, WeekDays: weekDays, Days: days}
	if err := w.Validate(); err != nil {
		return TimeWindow{}, err
	}
	return w, nil
}

// Validate checks each listed value against its dimension's range.
func (w TimeWindow) Validate() error {
	for _, h := range w.Hours {
		if h < 0 || h >= HoursPerDay {
			return fmt.Errorf("window hour must be in [0, 23], got %d", h)
		}
	}
	for _, wd := range w.WeekDays {
		if wd < 0 || wd >= DaysPerWeek {
			return fmt.Errorf("window week_day must be in [0, 6], got %d", wd)
		}
	}
	for _, d := range w.Days {
		if d < 0 || d >= DaysPerYear {
			return fmt.Errorf("window day must be in [0, 364], got %d", d)
		}
	}
	return nil
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t SimulationTime) bool {
	if w.Hours != nil && !slices.Contains(w.Hours, t.Hour) {
		return false
	}
	if w.WeekDays != nil && !slices.Contains(w.WeekDays, t.WeekDay) {
		return false
	}
	if w.Days != nil && !slices.Contains(w.Days, t.Day) {
		return false
	}
	return true
}

// Clone returns a window that shares no backing arrays with w.
func (w TimeWindow) Clone() TimeWindow {
	return TimeWindow{Hours: slices.Clone(w.Hours), WeekDays: slices.Clone(w.WeekDays), Days: slices.Clone(w.Days)}
}

// Span returns [lo, hi) as a slice, for building windows.
func Span(lo, hi int) []int {
	out := make([]int, 0, max(hi-lo, 0))
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

// === TimeInterval ===

// TimeInterval is a periodic trigger: it fires when (t - offset) mod period == 0
// and never before the offset.
type TimeInterval struct {
	periodHours int
	offsetHours int
}

// NewTimeInterval builds an interval of hours+days+years with an offset of
// offsetHours+offsetDays. The period must be positive.
func NewTimeInterval(hours, days, years, offsetHours, offsetDays int) (TimeInterval, error) {
	if hours < 0 || hours >= HoursPerDay {
		return TimeInterval{}, fmt.Errorf("interval hours must be in [0, 23], got %d", hours)
	}
	if days < 0 || days >= DaysPerYear {
		return TimeInterval{}, fmt.Errorf("interval days must be in [0, 364], got %d", days)
	}
	period := years*HoursPerYear + days*HoursPerDay + hours
	if period <= 0 {
		return TimeInterval{}, fmt.Errorf("interval period must be positive")
	}
	offset := offsetDays*HoursPerDay + offsetHours
	if offset < 0 {
		return TimeInterval{}, fmt.Errorf("interval offset must be non-negative, got %d", offset)
	}
	return TimeInterval{periodHours: period, offsetHours: offset}, nil
}

// EveryDays is a convenience for NewTimeInterval(0, days, 0, 0, offsetDays).
func EveryDays(days, offsetDays int) TimeInterval {
	iv, err := NewTimeInterval(0, days, 0, 0, offsetDays)
	if err != nil {
		panic(err)
	}
	return iv
}

// Triggers reports whether the interval fires at t.
func (iv TimeInterval) Triggers(t SimulationTime) bool {
	h := t.ToHours()
	if iv.periodHours == 0 || h < iv.offsetHours {
		return false
	}
	return (h-iv.offsetHours)%iv.periodHours == 0
}

// PeriodHours returns the trigger period in hours.
func (iv TimeInterval) PeriodHours() int { return iv.periodHours }
