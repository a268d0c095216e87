package repository

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"alcyxob/workout-scheduler/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key") // A unique index rejected the write
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// ProgramRepository is the program catalog.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	List(ctx context.Context) ([]domain.Program, error)
}

// ProgramWorkoutRepository holds the workouts of catalog programs.
type ProgramWorkoutRepository interface {
	Create(ctx context.Context, workout *domain.ProgramWorkout) (primitive.ObjectID, error)
	// GetByProgramID returns workouts sorted by (weekNumber, dayNumber).
	GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramWorkout, error)
}

// EnrollmentRepository defines the interface for program enrollments.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Enrollment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ScheduleRepository stores one SchedulePreference per enrollment.
type ScheduleRepository interface {
	// Upsert inserts or replaces the preference keyed by its EnrollmentID and returns the stored record.
	Upsert(ctx context.Context, pref *domain.SchedulePreference) (*domain.SchedulePreference, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SchedulePreference, error)
	GetByEnrollmentID(ctx context.Context, enrollmentID primitive.ObjectID) (*domain.SchedulePreference, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.SchedulePreference, error)
	DeleteByEnrollmentID(ctx context.Context, enrollmentID primitive.ObjectID) error
}

// ScheduledWorkoutFilter narrows ledger queries. Zero fields do not filter.
type ScheduledWorkoutFilter struct {
	ScheduleID primitive.ObjectID
	UserID     primitive.ObjectID
	IDs        []primitive.ObjectID
	Statuses   []domain.ScheduledWorkoutStatus
	From       calendar.Date // Inclusive
	Before     calendar.Date // Exclusive
}

// ScheduledWorkoutRepository is the ledger. Implementations must reject two rows of the
// same schedule on the same scheduledDate with ErrDuplicate.
type ScheduledWorkoutRepository interface {
	CreateMany(ctx context.Context, workouts []domain.ScheduledWorkout) ([]primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledWorkout, error)
	// Find returns matching rows sorted by scheduledDate.
	Find(ctx context.Context, filter ScheduledWorkoutFilter) ([]domain.ScheduledWorkout, error)
	Update(ctx context.Context, workout *domain.ScheduledWorkout) error
	Delete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error
	DeleteBySchedule(ctx context.Context, scheduleID primitive.ObjectID) error
}
