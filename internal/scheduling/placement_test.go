package scheduling

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"alcyxob/workout-scheduler/internal/domain"
	"fmt"
	"testing"
)

func programWorkouts(weeks, perWeek int) []domain.ProgramWorkout {
	var out []domain.ProgramWorkout
	for w := 1; w <= weeks; w++ {
		for d := 1; d <= perWeek; d++ {
			out = append(out, domain.ProgramWorkout{
				Name:       fmt.Sprintf("W%dD%d", w, d),
				WeekNumber: w,
				DayNumber:  d,
			})
		}
	}
	return out
}

func TestPlaceWorkoutsMonWedFri(t *testing.T) {
	monday := calendar.MustParse("2025-01-06")
	placements := PlaceWorkouts(programWorkouts(2, 3), PlacementOptions{
		StartDate:     monday,
		PreferredDays: []int{1, 3, 5},
		MinRestDays:   1,
	})

	want := []string{"2025-01-06", "2025-01-08", "2025-01-10", "2025-01-13", "2025-01-15", "2025-01-17"}
	if len(placements) != len(want) {
		t.Fatalf("got %d placements, want %d", len(placements), len(want))
	}
	for i, p := range placements {
		if p.Date.String() != want[i] {
			t.Errorf("placement %d (%s) = %s, want %s", i, p.Workout.Name, p.Date, want[i])
		}
		if p.Relaxed {
			t.Errorf("placement %d should satisfy constraints", i)
		}
	}
}

func TestPlaceWorkoutsProgramOrder(t *testing.T) {
	shuffled := []domain.ProgramWorkout{
		{Name: "b", WeekNumber: 2, DayNumber: 1},
		{Name: "a2", WeekNumber: 1, DayNumber: 3},
		{Name: "a1", WeekNumber: 1, DayNumber: 1},
	}
	placements := PlaceWorkouts(shuffled, PlacementOptions{
		StartDate:     calendar.MustParse("2025-01-06"),
		PreferredDays: []int{1, 3, 5},
	})
	names := []string{placements[0].Workout.Name, placements[1].Workout.Name, placements[2].Workout.Name}
	if names[0] != "a1" || names[1] != "a2" || names[2] != "b" {
		t.Fatalf("order = %v", names)
	}
	for i := 1; i < len(placements); i++ {
		if !placements[i-1].Date.Before(placements[i].Date) {
			t.Fatalf("dates not increasing: %s then %s", placements[i-1].Date, placements[i].Date)
		}
	}
}

func TestPlaceWorkoutsStartsOnFirstPreferredDay(t *testing.T) {
	// Start on a Thursday; first preferred day on/after is Friday.
	placements := PlaceWorkouts(programWorkouts(1, 2), PlacementOptions{
		StartDate:     calendar.MustParse("2025-01-09"),
		PreferredDays: []int{1, 3, 5},
	})
	if placements[0].Date.String() != "2025-01-10" || placements[1].Date.String() != "2025-01-13" {
		t.Fatalf("dates = %s, %s", placements[0].Date, placements[1].Date)
	}
}

func TestPlaceWorkoutsMinRestDays(t *testing.T) {
	// Every day preferred, two rest days required between workouts.
	placements := PlaceWorkouts(programWorkouts(1, 3), PlacementOptions{
		StartDate:     calendar.MustParse("2025-01-06"),
		PreferredDays: []int{0, 1, 2, 3, 4, 5, 6},
		MinRestDays:   2,
	})
	want := []string{"2025-01-06", "2025-01-09", "2025-01-12"}
	for i, p := range placements {
		if p.Date.String() != want[i] {
			t.Errorf("placement %d = %s, want %s", i, p.Date, want[i])
		}
	}
}

func TestPlaceWorkoutsMaxConsecutiveInsertsRestDay(t *testing.T) {
	placements := PlaceWorkouts(programWorkouts(1, 5), PlacementOptions{
		StartDate:                 calendar.MustParse("2025-01-06"),
		PreferredDays:             []int{0, 1, 2, 3, 4, 5, 6},
		MaxConsecutiveWorkoutDays: 2,
	})
	want := []string{"2025-01-06", "2025-01-07", "2025-01-09", "2025-01-10", "2025-01-12"}
	for i, p := range placements {
		if p.Date.String() != want[i] {
			t.Errorf("placement %d = %s, want %s", i, p.Date, want[i])
		}
	}
}

func TestPlaceWorkoutsSkipsOccupied(t *testing.T) {
	placements := PlaceWorkouts(programWorkouts(1, 2), PlacementOptions{
		StartDate:     calendar.MustParse("2025-01-06"),
		PreferredDays: []int{1, 3, 5},
		Occupied:      calendar.NewDateSet(calendar.MustParse("2025-01-06")),
	})
	if placements[0].Date.String() != "2025-01-08" || placements[1].Date.String() != "2025-01-10" {
		t.Fatalf("dates = %s, %s", placements[0].Date, placements[1].Date)
	}
}

func TestPlaceWorkoutsRelaxesUnsatisfiableConstraints(t *testing.T) {
	// A rest requirement longer than the whole horizon can never be met.
	workouts := programWorkouts(1, 3)
	placements := PlaceWorkouts(workouts, PlacementOptions{
		StartDate:     calendar.MustParse("2025-01-06"),
		PreferredDays: []int{1},
		MinRestDays:   HorizonDays(len(workouts)) + 10,
	})
	if len(placements) != 3 {
		t.Fatalf("got %d placements, want 3", len(placements))
	}
	seen := calendar.NewDateSet()
	relaxed := 0
	for _, p := range placements {
		if seen.Has(p.Date) {
			t.Fatalf("date %s used twice", p.Date)
		}
		seen.Add(p.Date)
		if p.Relaxed {
			relaxed++
		}
	}
	if placements[0].Relaxed || relaxed != 2 {
		t.Fatalf("relaxed = %d (first relaxed=%v), want 2 relaxed after the first", relaxed, placements[0].Relaxed)
	}
}

func TestPlaceWorkoutsCompletenessAcrossPreferences(t *testing.T) {
	prefs := [][]int{{0}, {6}, {1, 2, 3, 4, 5}, {0, 3}, {0, 1, 2, 3, 4, 5, 6}}
	for _, days := range prefs {
		for _, rest := range []int{0, 1, 3} {
			for _, consec := range []int{0, 1, 2} {
				workouts := programWorkouts(4, 4)
				placements := PlaceWorkouts(workouts, PlacementOptions{
					StartDate:                 calendar.MustParse("2025-03-01"),
					PreferredDays:             days,
					MinRestDays:               rest,
					MaxConsecutiveWorkoutDays: consec,
				})
				if len(placements) != len(workouts) {
					t.Fatalf("days=%v rest=%d consec=%d: %d placements", days, rest, consec, len(placements))
				}
				seen := calendar.NewDateSet()
				for _, p := range placements {
					if seen.Has(p.Date) {
						t.Fatalf("days=%v rest=%d consec=%d: duplicate date %s", days, rest, consec, p.Date)
					}
					if !calendar.IsPreferredWeekday(p.Date, days) {
						t.Fatalf("days=%v: %s is not a preferred weekday", days, p.Date)
					}
					seen.Add(p.Date)
				}
			}
		}
	}
}

func TestPlaceWorkoutsIgnoresOutOfRangeDays(t *testing.T) {
	tests := []struct {
		name string
		days []int
		want []string
	}{
		{"only invalid falls back to every day", []int{9, -1}, []string{"2025-01-06", "2025-01-07", "2025-01-08"}},
		{"invalid mixed with valid", []int{9, 3}, []string{"2025-01-08", "2025-01-15", "2025-01-22"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			placements := PlaceWorkouts(programWorkouts(1, 3), PlacementOptions{
				StartDate:     calendar.MustParse("2025-01-06"),
				PreferredDays: tt.days,
			})
			if len(placements) != len(tt.want) {
				t.Fatalf("got %d placements, want %d", len(placements), len(tt.want))
			}
			for i, p := range placements {
				if p.Date.String() != tt.want[i] {
					t.Errorf("placement %d = %s, want %s", i, p.Date, tt.want[i])
				}
			}
		})
	}
}
