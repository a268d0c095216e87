package scheduling

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"testing"
)

var mwf = []int{1, 3, 5}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy(""); err != nil || s != StrategyNextAvailable {
		t.Fatalf("ParseStrategy(\"\") = %s, %v", s, err)
	}
	for _, name := range []string{"next_available", "end_of_schedule", "spread_evenly"} {
		if _, err := ParseStrategy(name); err != nil {
			t.Fatalf("ParseStrategy(%s): %v", name, err)
		}
	}
	if _, err := ParseStrategy("random"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestNextAvailableSkipsOccupied(t *testing.T) {
	req := RepairRequest{
		Today:         calendar.MustParse("2025-01-05"),
		PreferredDays: mwf,
		WindowDays:    14,
		Occupied:      calendar.NewDateSet(calendar.MustParse("2025-01-06"), calendar.MustParse("2025-01-08")),
		Count:         1,
	}
	got, err := PlanRepairs(StrategyNextAvailable, req)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].String() != "2025-01-10" {
		t.Fatalf("got %s, want 2025-01-10", got[0])
	}
	if len(req.Occupied) != 2 {
		t.Fatal("PlanRepairs must not modify the caller's occupied set")
	}
}

func TestNextAvailableChainsBatch(t *testing.T) {
	req := RepairRequest{
		Today:         calendar.MustParse("2025-01-05"),
		PreferredDays: mwf,
		WindowDays:    14,
		Occupied:      calendar.NewDateSet(calendar.MustParse("2025-01-08")),
		Count:         3,
	}
	got, _ := PlanRepairs(StrategyNextAvailable, req)
	want := []string{"2025-01-06", "2025-01-10", "2025-01-13"}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("repair %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNextAvailableExhaustedWindow(t *testing.T) {
	req := RepairRequest{
		Today:         calendar.MustParse("2025-01-05"),
		PreferredDays: []int{1},
		WindowDays:    7,
		Occupied:      calendar.NewDateSet(),
		Count:         2,
	}
	got, _ := PlanRepairs(StrategyNextAvailable, req)
	if got[0].String() != "2025-01-06" {
		t.Fatalf("first = %s", got[0])
	}
	// Window is counted from the previous assignment, so the second lands a week later.
	if got[1].String() != "2025-01-13" {
		t.Fatalf("second = %s", got[1])
	}

	req.WindowDays = 0
	got, _ = PlanRepairs(StrategyNextAvailable, req)
	if !got[0].IsZero() || !got[1].IsZero() {
		t.Fatalf("expected no placements with a zero window, got %v", got)
	}
}

func TestEndOfScheduleAppendsAfterLatest(t *testing.T) {
	req := RepairRequest{
		Today:         calendar.MustParse("2025-01-05"),
		PreferredDays: mwf,
		WindowDays:    14,
		Occupied: calendar.NewDateSet(
			calendar.MustParse("2025-01-06"),
			calendar.MustParse("2025-01-20"),
		),
		Count: 2,
	}
	got, _ := PlanRepairs(StrategyEndOfSchedule, req)
	if got[0].String() != "2025-01-22" || got[1].String() != "2025-01-24" {
		t.Fatalf("got %v", got)
	}
}

func TestEndOfScheduleEmptyStartsFromToday(t *testing.T) {
	req := RepairRequest{
		Today:         calendar.MustParse("2025-01-05"),
		PreferredDays: mwf,
		Occupied:      calendar.NewDateSet(),
		Count:         1,
	}
	got, _ := PlanRepairs(StrategyEndOfSchedule, req)
	if got[0].String() != "2025-01-06" {
		t.Fatalf("got %s", got[0])
	}
}

func TestSpreadEvenlyDistributes(t *testing.T) {
	// 21 days after Sunday 2025-01-05 hold 9 Mon/Wed/Fri slots.
	req := RepairRequest{
		Today:         calendar.MustParse("2025-01-05"),
		PreferredDays: mwf,
		Occupied:      calendar.NewDateSet(),
		Count:         3,
	}
	got, _ := PlanRepairs(StrategySpreadEvenly, req)
	want := []string{"2025-01-06", "2025-01-13", "2025-01-20"}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("repair %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSpreadEvenlyMoreWorkoutsThanSlots(t *testing.T) {
	// Only Mondays: 3 slots in the window, 5 workouts.
	req := RepairRequest{
		Today:         calendar.MustParse("2025-01-05"),
		PreferredDays: []int{1},
		Occupied:      calendar.NewDateSet(),
		Count:         5,
	}
	got, _ := PlanRepairs(StrategySpreadEvenly, req)
	placed := 0
	seen := calendar.NewDateSet()
	for _, d := range got {
		if d.IsZero() {
			continue
		}
		if seen.Has(d) {
			t.Fatalf("slot %s assigned twice", d)
		}
		seen.Add(d)
		placed++
	}
	if placed != 3 {
		t.Fatalf("placed = %d, want 3", placed)
	}
	if !got[3].IsZero() || !got[4].IsZero() {
		t.Fatalf("trailing workouts should stay unplaced, got %v", got)
	}
}

func TestStrategiesNeverUseOccupiedDates(t *testing.T) {
	occupied := calendar.NewDateSet()
	for _, d := range calendar.Window(calendar.MustParse("2025-01-05"), 10) {
		if d.Day()%2 == 0 {
			occupied.Add(d)
		}
	}
	for _, s := range []Strategy{StrategyNextAvailable, StrategyEndOfSchedule, StrategySpreadEvenly} {
		got, err := PlanRepairs(s, RepairRequest{
			Today:         calendar.MustParse("2025-01-05"),
			PreferredDays: []int{0, 1, 2, 3, 4, 5, 6},
			WindowDays:    14,
			Occupied:      occupied,
			Count:         4,
		})
		if err != nil {
			t.Fatal(err)
		}
		seen := calendar.NewDateSet()
		for _, d := range got {
			if d.IsZero() {
				continue
			}
			if occupied.Has(d) || seen.Has(d) {
				t.Fatalf("%s: date %s collides", s, d)
			}
			if !d.After(calendar.MustParse("2025-01-05")) {
				t.Fatalf("%s: date %s is not in the future", s, d)
			}
			seen.Add(d)
		}
	}
}
