// Package scheduling contains the pure date-placement algorithms: the initial
// program placement and the auto-reschedule strategies. Nothing here touches
// storage or the wall clock; "today" is always passed in.
package scheduling

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"alcyxob/workout-scheduler/internal/domain"
)

// horizonWeeksPerWorkout bounds the constrained search: the rest-day and
// consecutive-day rules are honored for up to 3 weeks per program workout.
const horizonWeeksPerWorkout = 3

// PlacementOptions carries the schedule preferences the placement honors.
type PlacementOptions struct {
	StartDate                 calendar.Date // First eligible date (inclusive)
	PreferredDays             []int
	MinRestDays               int
	MaxConsecutiveWorkoutDays int              // 0 = unlimited
	Occupied                  calendar.DateSet // Dates that must not be used, may be nil
}

// Placement is the date chosen for one program workout.
type Placement struct {
	Workout domain.ProgramWorkout
	Date    calendar.Date
	// Relaxed is true when the soft rest/consecutive rules were dropped because
	// no date satisfying them existed inside the horizon.
	Relaxed bool
}

// HorizonDays is the number of days the constrained search may scan for a program of n workouts.
func HorizonDays(n int) int {
	if n < 1 {
		n = 1
	}
	return n * horizonWeeksPerWorkout * 7
}

// PlaceWorkouts assigns every workout a distinct date, walking forward through the
// preferred weekdays in program order. It never leaves a workout unplaced.
func PlaceWorkouts(workouts []domain.ProgramWorkout, opts PlacementOptions) []Placement {
	ordered := make([]domain.ProgramWorkout, len(workouts))
	copy(ordered, workouts)
	domain.SortProgramWorkouts(ordered)

	preferred := validWeekdays(opts.PreferredDays)
	if len(preferred) == 0 {
		preferred = []int{0, 1, 2, 3, 4, 5, 6}
	}
	occupied := calendar.NewDateSet()
	for d := range opts.Occupied {
		occupied.Add(d)
	}

	p := placer{
		preferred:  preferred,
		minRest:    opts.MinRestDays,
		maxConsec:  opts.MaxConsecutiveWorkoutDays,
		occupied:   occupied,
		horizonEnd: opts.StartDate.AddDays(HorizonDays(len(ordered))),
		cursor:     opts.StartDate,
	}

	placements := make([]Placement, 0, len(ordered))
	for _, w := range ordered {
		d, ok := p.nextConstrained()
		relaxed := false
		if !ok {
			d = p.nextRelaxed()
			relaxed = true
		}
		p.commit(d)
		placements = append(placements, Placement{Workout: w, Date: d, Relaxed: relaxed})
	}
	return placements
}

// validWeekdays drops values outside 0..6; the relaxed walk could never match them.
func validWeekdays(days []int) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		if calendar.ValidWeekday(d) {
			out = append(out, d)
		}
	}
	return out
}

type placer struct {
	preferred  []int
	minRest    int
	maxConsec  int
	occupied   calendar.DateSet
	horizonEnd calendar.Date

	cursor calendar.Date // Next date to consider
	last   calendar.Date // Previous placement, zero before the first
	run    int           // Length of the unbroken daily run ending at last
}

func (p *placer) usable(d calendar.Date) bool {
	return calendar.IsPreferredWeekday(d, p.preferred) && !p.occupied.Has(d)
}

func (p *placer) nextConstrained() (calendar.Date, bool) {
	for d := p.cursor; d.Before(p.horizonEnd); d = d.AddDays(1) {
		if !p.usable(d) {
			continue
		}
		if !p.last.IsZero() {
			gap := calendar.DaysBetween(p.last, d)
			if gap-1 < p.minRest {
				continue
			}
			// Placing on the day right after last would extend the run past the cap,
			// so leave it as a forced rest day.
			if p.maxConsec > 0 && gap == 1 && p.run+1 > p.maxConsec {
				continue
			}
		}
		return d, true
	}
	return calendar.Date{}, false
}

// nextRelaxed ignores rest and consecutive rules. The occupied set is finite so this terminates.
func (p *placer) nextRelaxed() calendar.Date {
	d := p.cursor
	for !p.usable(d) {
		d = d.AddDays(1)
	}
	return d
}

func (p *placer) commit(d calendar.Date) {
	if !p.last.IsZero() && calendar.DaysBetween(p.last, d) == 1 {
		p.run++
	} else {
		p.run = 1
	}
	p.last = d
	p.occupied.Add(d)
	p.cursor = d.AddDays(1)
}
