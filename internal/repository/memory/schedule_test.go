package memory

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"alcyxob/workout-scheduler/internal/domain"
	"alcyxob/workout-scheduler/internal/repository"
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestScheduledWorkoutRepository_UniqueScheduleDate(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledWorkoutRepository()
	schedule := primitive.NewObjectID()
	user := primitive.NewObjectID()

	ids, err := repo.CreateMany(ctx, []domain.ScheduledWorkout{
		{ScheduleID: schedule, UserID: user, ScheduledDate: calendar.MustParse("2025-01-06")},
		{ScheduleID: schedule, UserID: user, ScheduledDate: calendar.MustParse("2025-01-08")},
	})
	if err != nil {
		t.Fatalf("CreateMany() error = %v", err)
	}

	// Another schedule may use the same date.
	if _, err := repo.CreateMany(ctx, []domain.ScheduledWorkout{
		{ScheduleID: primitive.NewObjectID(), UserID: user, ScheduledDate: calendar.MustParse("2025-01-06")},
	}); err != nil {
		t.Fatalf("CreateMany() on other schedule error = %v", err)
	}

	if _, err := repo.CreateMany(ctx, []domain.ScheduledWorkout{
		{ScheduleID: schedule, UserID: user, ScheduledDate: calendar.MustParse("2025-01-08")},
	}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("CreateMany() colliding error = %v, want ErrDuplicate", err)
	}

	first, _ := repo.GetByID(ctx, ids[0])
	first.ScheduledDate = calendar.MustParse("2025-01-08")
	if err := repo.Update(ctx, first); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("Update() onto taken date error = %v, want ErrDuplicate", err)
	}

	first.ScheduledDate = calendar.MustParse("2025-01-07")
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	// The vacated date is free again.
	second, _ := repo.GetByID(ctx, ids[1])
	second.ScheduledDate = calendar.MustParse("2025-01-06")
	if err := repo.Update(ctx, second); err != nil {
		t.Fatalf("Update() onto vacated date error = %v", err)
	}
}

func TestScheduledWorkoutRepository_Find(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledWorkoutRepository()
	schedule := primitive.NewObjectID()
	user := primitive.NewObjectID()

	_, err := repo.CreateMany(ctx, []domain.ScheduledWorkout{
		{ScheduleID: schedule, UserID: user, ScheduledDate: calendar.MustParse("2025-01-10")},
		{ScheduleID: schedule, UserID: user, ScheduledDate: calendar.MustParse("2025-01-06"), Status: domain.StatusMissed},
		{ScheduleID: schedule, UserID: user, ScheduledDate: calendar.MustParse("2025-01-08")},
	})
	if err != nil {
		t.Fatalf("CreateMany() error = %v", err)
	}

	tests := []struct {
		name   string
		filter repository.ScheduledWorkoutFilter
		want   []string
	}{
		{"all sorted", repository.ScheduledWorkoutFilter{ScheduleID: schedule}, []string{"2025-01-06", "2025-01-08", "2025-01-10"}},
		{"status", repository.ScheduledWorkoutFilter{ScheduleID: schedule, Statuses: []domain.ScheduledWorkoutStatus{domain.StatusMissed}}, []string{"2025-01-06"}},
		{"range", repository.ScheduledWorkoutFilter{UserID: user, From: calendar.MustParse("2025-01-08"), Before: calendar.MustParse("2025-01-10")}, []string{"2025-01-08"}},
		{"other user", repository.ScheduledWorkoutFilter{UserID: primitive.NewObjectID()}, nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Find(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Find() returned %d rows, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ScheduledDate.String() != tt.want[i] {
					t.Errorf("row %d date = %s, want %s", i, got[i].ScheduledDate, tt.want[i])
				}
			}
		})
	}
}

func TestScheduleRepository_UpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduleRepository()
	enrollment := primitive.NewObjectID()

	first, err := repo.Upsert(ctx, &domain.SchedulePreference{EnrollmentID: enrollment, UserID: primitive.NewObjectID(), PreferredDays: []int{1}})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	second, err := repo.Upsert(ctx, &domain.SchedulePreference{EnrollmentID: enrollment, PreferredDays: []int{2, 4}})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if second.ID != first.ID || second.UserID != first.UserID {
		t.Errorf("Upsert() changed identity: %v/%v -> %v/%v", first.ID, first.UserID, second.ID, second.UserID)
	}
	if len(second.PreferredDays) != 2 {
		t.Errorf("PreferredDays = %v, want [2 4]", second.PreferredDays)
	}
}
