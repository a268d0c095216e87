package scheduling

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"fmt"
)

// Strategy selects how missed workouts are re-placed.
type Strategy string

const (
	StrategyNextAvailable Strategy = "next_available"
	StrategyEndOfSchedule Strategy = "end_of_schedule"
	StrategySpreadEvenly  Strategy = "spread_evenly"
)

// DefaultStrategy is used when the caller does not pick one.
const DefaultStrategy = StrategyNextAvailable

const (
	EndOfScheduleHorizonDays = 30
	SpreadEvenlyWindowDays   = 21
)

// ParseStrategy validates a strategy name. The empty string yields DefaultStrategy.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return DefaultStrategy, nil
	}
	st := Strategy(s)
	if _, ok := planners[st]; !ok {
		return "", fmt.Errorf("unknown reschedule strategy %q", s)
	}
	return st, nil
}

// Reason is the machine-generated rescheduledReason stored on moved workouts.
func (s Strategy) Reason() string {
	return fmt.Sprintf("auto-rescheduled (%s)", s)
}

// RepairRequest describes one schedule's missed workouts to re-place.
type RepairRequest struct {
	Today         calendar.Date
	PreferredDays []int
	WindowDays    int              // next_available horizon (rescheduleWindowWeeks * 7)
	Occupied      calendar.DateSet // Dates already held by sibling workouts on or after Today
	Count         int              // Number of missed workouts, in program order
}

// planner returns one date per missed workout, index-aligned with the request.
// A zero date means no slot was found within the strategy's horizon.
type planner func(req RepairRequest, occupied calendar.DateSet) []calendar.Date

var planners = map[Strategy]planner{
	StrategyNextAvailable: planNextAvailable,
	StrategyEndOfSchedule: planEndOfSchedule,
	StrategySpreadEvenly:  planSpreadEvenly,
}

// PlanRepairs runs the chosen strategy. The request's Occupied set is not modified.
func PlanRepairs(strategy Strategy, req RepairRequest) ([]calendar.Date, error) {
	plan, ok := planners[strategy]
	if !ok {
		return nil, fmt.Errorf("unknown reschedule strategy %q", strategy)
	}
	occupied := calendar.NewDateSet()
	for d := range req.Occupied {
		occupied.Add(d)
	}
	return plan(req, occupied), nil
}

func planNextAvailable(req RepairRequest, occupied calendar.DateSet) []calendar.Date {
	out := make([]calendar.Date, req.Count)
	prev := req.Today
	for i := range out {
		from := calendar.Max(req.Today, prev)
		d, ok := calendar.NextAvailableDate(from, req.PreferredDays, occupied, req.WindowDays)
		if !ok {
			continue
		}
		occupied.Add(d)
		out[i] = d
		prev = d
	}
	return out
}

// planEndOfSchedule appends repairs after the latest date already held.
func planEndOfSchedule(req RepairRequest, occupied calendar.DateSet) []calendar.Date {
	out := make([]calendar.Date, req.Count)
	prev := req.Today
	if latest, ok := occupied.Latest(); ok {
		prev = calendar.Max(req.Today, latest)
	}
	for i := range out {
		d, ok := calendar.NextAvailableDate(prev, req.PreferredDays, occupied, EndOfScheduleHorizonDays)
		if !ok {
			continue
		}
		occupied.Add(d)
		out[i] = d
		prev = d
	}
	return out
}

// planSpreadEvenly picks every floor(M/N)-th free slot in a fixed window so repairs
// are distributed instead of clustered. When there are fewer slots than workouts the
// index clamps to the last slot, and a workout whose slot is already taken stays unplaced.
func planSpreadEvenly(req RepairRequest, occupied calendar.DateSet) []calendar.Date {
	out := make([]calendar.Date, req.Count)
	slots := calendar.AvailableDates(req.Today, SpreadEvenlyWindowDays, req.PreferredDays, occupied)
	if len(slots) == 0 || req.Count == 0 {
		return out
	}
	step := len(slots) / req.Count
	if step < 1 {
		step = 1
	}
	for i := range out {
		idx := i * step
		if idx > len(slots)-1 {
			idx = len(slots) - 1
		}
		d := slots[idx]
		if occupied.Has(d) {
			continue
		}
		occupied.Add(d)
		out[i] = d
	}
	return out
}
