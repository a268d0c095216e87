// Package memory holds in-process repository implementations. They back the
// "memory" database driver and the service tests.
package memory

import (
	"alcyxob/workout-scheduler/internal/domain"
	"alcyxob/workout-scheduler/internal/repository"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]domain.User
}

// NewUserRepository returns an empty in-memory UserRepository.
func NewUserRepository() repository.UserRepository {
	return &userRepository{users: make(map[primitive.ObjectID]domain.User)}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type programRepository struct {
	mu       sync.RWMutex
	programs map[primitive.ObjectID]domain.Program
}

// NewProgramRepository returns an empty in-memory ProgramRepository.
func NewProgramRepository() repository.ProgramRepository {
	return &programRepository{programs: make(map[primitive.ObjectID]domain.Program)}
}

func (r *programRepository) Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	r.programs[program.ID] = *program
	return program.ID, nil
}

func (r *programRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *programRepository) List(ctx context.Context) ([]domain.Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Program, 0, len(r.programs))
	for _, p := range r.programs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

type programWorkoutRepository struct {
	mu       sync.RWMutex
	workouts map[primitive.ObjectID]domain.ProgramWorkout
}

// NewProgramWorkoutRepository returns an empty in-memory ProgramWorkoutRepository.
func NewProgramWorkoutRepository() repository.ProgramWorkoutRepository {
	return &programWorkoutRepository{workouts: make(map[primitive.ObjectID]domain.ProgramWorkout)}
}

func (r *programWorkoutRepository) Create(ctx context.Context, workout *domain.ProgramWorkout) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.workouts {
		if w.ProgramID == workout.ProgramID && w.WeekNumber == workout.WeekNumber && w.DayNumber == workout.DayNumber {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	r.workouts[workout.ID] = *workout
	return workout.ID, nil
}

func (r *programWorkoutRepository) GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramWorkout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ProgramWorkout
	for _, w := range r.workouts {
		if w.ProgramID == programID {
			out = append(out, w)
		}
	}
	domain.SortProgramWorkouts(out)
	return out, nil
}

type enrollmentRepository struct {
	mu          sync.RWMutex
	enrollments map[primitive.ObjectID]domain.Enrollment
}

// NewEnrollmentRepository returns an empty in-memory EnrollmentRepository.
func NewEnrollmentRepository() repository.EnrollmentRepository {
	return &enrollmentRepository{enrollments: make(map[primitive.ObjectID]domain.Enrollment)}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	enrollment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	r.enrollments[enrollment.ID] = *enrollment
	return enrollment.ID, nil
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.enrollments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *enrollmentRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Enrollment
	for _, e := range r.enrollments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *enrollmentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enrollments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.enrollments, id)
	return nil
}
