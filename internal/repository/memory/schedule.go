package memory

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"alcyxob/workout-scheduler/internal/domain"
	"alcyxob/workout-scheduler/internal/repository"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type scheduleRepository struct {
	mu    sync.RWMutex
	prefs map[primitive.ObjectID]domain.SchedulePreference // keyed by enrollment
}

// NewScheduleRepository returns an empty in-memory ScheduleRepository.
func NewScheduleRepository() repository.ScheduleRepository {
	return &scheduleRepository{prefs: make(map[primitive.ObjectID]domain.SchedulePreference)}
}

func (r *scheduleRepository) Upsert(ctx context.Context, pref *domain.SchedulePreference) (*domain.SchedulePreference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	stored := *pref
	stored.PreferredDays = append([]int(nil), pref.PreferredDays...)
	if existing, ok := r.prefs[pref.EnrollmentID]; ok {
		stored.ID = existing.ID
		stored.UserID = existing.UserID
		stored.ProgramID = existing.ProgramID
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.ID = primitive.NewObjectID()
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.prefs[pref.EnrollmentID] = stored
	return &stored, nil
}

func (r *scheduleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SchedulePreference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.prefs {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *scheduleRepository) GetByEnrollmentID(ctx context.Context, enrollmentID primitive.ObjectID) (*domain.SchedulePreference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prefs[enrollmentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *scheduleRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.SchedulePreference, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.SchedulePreference
	for _, p := range r.prefs {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *scheduleRepository) DeleteByEnrollmentID(ctx context.Context, enrollmentID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.prefs, enrollmentID)
	return nil
}

type slotKey struct {
	schedule primitive.ObjectID
	date     calendar.Date
}

// ScheduledWorkoutRepository is the in-memory ledger. It enforces the same
// (schedule, date) uniqueness as the Mongo index. FailUpdate, when set, is
// consulted before every Update and lets tests inject storage failures.
type ScheduledWorkoutRepository struct {
	mu         sync.RWMutex
	rows       map[primitive.ObjectID]domain.ScheduledWorkout
	slots      map[slotKey]primitive.ObjectID
	FailUpdate func(w *domain.ScheduledWorkout) error
}

// NewScheduledWorkoutRepository returns an empty in-memory ledger.
func NewScheduledWorkoutRepository() *ScheduledWorkoutRepository {
	return &ScheduledWorkoutRepository{
		rows:  make(map[primitive.ObjectID]domain.ScheduledWorkout),
		slots: make(map[slotKey]primitive.ObjectID),
	}
}

// CreateMany is all-or-nothing: a single colliding row rejects the batch.
func (r *ScheduledWorkoutRepository) CreateMany(ctx context.Context, workouts []domain.ScheduledWorkout) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[slotKey]struct{}, len(workouts))
	for i := range workouts {
		key := slotKey{workouts[i].ScheduleID, workouts[i].ScheduledDate}
		if _, taken := r.slots[key]; taken {
			return nil, repository.ErrDuplicate
		}
		if _, dup := seen[key]; dup {
			return nil, repository.ErrDuplicate
		}
		seen[key] = struct{}{}
	}

	now := time.Now().UTC()
	ids := make([]primitive.ObjectID, len(workouts))
	for i := range workouts {
		w := &workouts[i]
		w.ID = primitive.NewObjectID()
		w.CreatedAt = now
		w.UpdatedAt = now
		if w.Status == "" {
			w.Status = domain.StatusScheduled
		}
		r.rows[w.ID] = *w
		r.slots[slotKey{w.ScheduleID, w.ScheduledDate}] = w.ID
		ids[i] = w.ID
	}
	return ids, nil
}

func (r *ScheduledWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledWorkout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *ScheduledWorkoutRepository) Find(ctx context.Context, f repository.ScheduledWorkoutFilter) ([]domain.ScheduledWorkout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids map[primitive.ObjectID]struct{}
	if len(f.IDs) > 0 {
		ids = make(map[primitive.ObjectID]struct{}, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = struct{}{}
		}
	}

	var out []domain.ScheduledWorkout
	for _, w := range r.rows {
		if f.ScheduleID != primitive.NilObjectID && w.ScheduleID != f.ScheduleID {
			continue
		}
		if f.UserID != primitive.NilObjectID && w.UserID != f.UserID {
			continue
		}
		if ids != nil {
			if _, ok := ids[w.ID]; !ok {
				continue
			}
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, w.Status) {
			continue
		}
		if !f.From.IsZero() && w.ScheduledDate.Before(f.From) {
			continue
		}
		if !f.Before.IsZero() && !w.ScheduledDate.Before(f.Before) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].ScheduledDate.Compare(out[j].ScheduledDate); c != 0 {
			return c < 0
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func hasStatus(statuses []domain.ScheduledWorkoutStatus, s domain.ScheduledWorkoutStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func (r *ScheduledWorkoutRepository) Update(ctx context.Context, workout *domain.ScheduledWorkout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailUpdate != nil {
		if err := r.FailUpdate(workout); err != nil {
			return err
		}
	}
	current, ok := r.rows[workout.ID]
	if !ok {
		return repository.ErrNotFound
	}
	newKey := slotKey{current.ScheduleID, workout.ScheduledDate}
	if owner, taken := r.slots[newKey]; taken && owner != workout.ID {
		return repository.ErrDuplicate
	}
	delete(r.slots, slotKey{current.ScheduleID, current.ScheduledDate})
	r.slots[newKey] = workout.ID

	workout.UpdatedAt = time.Now().UTC()
	updated := *workout
	// Identity fields are immutable.
	updated.ScheduleID = current.ScheduleID
	updated.UserID = current.UserID
	updated.ProgramWorkoutID = current.ProgramWorkoutID
	updated.CreatedAt = current.CreatedAt
	r.rows[workout.ID] = updated
	return nil
}

func (r *ScheduledWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.rows[id]
	if !ok || w.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	delete(r.slots, slotKey{w.ScheduleID, w.ScheduledDate})
	return nil
}

func (r *ScheduledWorkoutRepository) DeleteBySchedule(ctx context.Context, scheduleID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, w := range r.rows {
		if w.ScheduleID == scheduleID {
			delete(r.rows, id)
			delete(r.slots, slotKey{w.ScheduleID, w.ScheduledDate})
		}
	}
	return nil
}
