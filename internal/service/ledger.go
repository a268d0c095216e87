package service

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"alcyxob/workout-scheduler/internal/domain"
	"alcyxob/workout-scheduler/internal/repository"
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is a user-initiated change to a scheduled workout.
type Action string

const (
	ActionReschedule Action = "reschedule"
	ActionSkip       Action = "skip"
	ActionComplete   Action = "complete"
	ActionUnschedule Action = "unschedule"
	ActionNotes      Action = "notes"
)

// ManualRescheduleReason is stored when the user does not give one.
const ManualRescheduleReason = "manually rescheduled"

// UpdateParams holds the action-specific inputs. Only the fields of the chosen action are read.
type UpdateParams struct {
	NewDate    calendar.Date // reschedule
	Reason     string        // reschedule, skip
	SessionRef string        // complete
	Notes      *string       // notes
}

// WorkoutQuery filters a ledger listing. Zero values do not filter; To is inclusive.
type WorkoutQuery struct {
	From     calendar.Date
	To       calendar.Date
	Statuses []domain.ScheduledWorkoutStatus
}

func (s *scheduleService) loadOwnedWorkout(ctx context.Context, id, userID primitive.ObjectID) (*domain.ScheduledWorkout, error) {
	w, err := s.repos.Workouts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduledWorkoutNotFound
		}
		return nil, err
	}
	if w.UserID != userID {
		return nil, ErrAccessDenied
	}
	return w, nil
}

// GetScheduledWorkout returns a single ledger row owned by userID.
func (s *scheduleService) GetScheduledWorkout(ctx context.Context, id, userID primitive.ObjectID) (*domain.ScheduledWorkout, error) {
	return s.loadOwnedWorkout(ctx, id, userID)
}

// ListScheduledWorkouts returns the schedule's rows ordered by date.
func (s *scheduleService) ListScheduledWorkouts(ctx context.Context, scheduleID, userID primitive.ObjectID, query WorkoutQuery) ([]domain.ScheduledWorkout, error) {
	if _, err := s.loadOwnedSchedule(ctx, scheduleID, userID); err != nil {
		return nil, err
	}
	for _, st := range query.Statuses {
		if !st.Valid() {
			return nil, validationError("unknown status %q", st)
		}
	}
	if !query.From.IsZero() && !query.To.IsZero() && query.To.Before(query.From) {
		return nil, validationError("to must not be before from")
	}

	filter := repository.ScheduledWorkoutFilter{
		ScheduleID: scheduleID,
		Statuses:   query.Statuses,
		From:       query.From,
	}
	if !query.To.IsZero() {
		filter.Before = query.To.AddDays(1)
	}
	workouts, err := s.repos.Workouts.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if workouts == nil {
		workouts = []domain.ScheduledWorkout{}
	}
	return workouts, nil
}

// UpdateScheduledWorkout applies one state-machine action. It fails atomically:
// on any error the stored row is unchanged.
func (s *scheduleService) UpdateScheduledWorkout(ctx context.Context, id, userID primitive.ObjectID, action Action, params UpdateParams) (*domain.ScheduledWorkout, error) {
	switch action {
	case ActionReschedule:
		if params.NewDate.IsZero() {
			return nil, validationError("newDate is required to reschedule")
		}
		if params.NewDate.Before(s.Today()) {
			return nil, validationError("cannot reschedule into the past")
		}
	case ActionNotes:
		if params.Notes == nil {
			return nil, validationError("notes is required")
		}
	case ActionSkip, ActionComplete, ActionUnschedule:
	default:
		return nil, validationError("unknown action %q", action)
	}

	initial, err := s.loadOwnedWorkout(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	var updated *domain.ScheduledWorkout
	err = s.withScheduleLock(ctx, initial.ScheduleID, func() error {
		// Re-read under the lock; another writer may have moved the row.
		w, err := s.loadOwnedWorkout(ctx, id, userID)
		if err != nil {
			return err
		}
		if err := s.applyAction(ctx, w, action, params); err != nil {
			return err
		}
		if err := s.repos.Workouts.Update(ctx, w); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDateConflict
			}
			if errors.Is(err, repository.ErrNotFound) {
				return ErrScheduledWorkoutNotFound
			}
			return err
		}
		updated = w
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDateConflict) {
			s.log.WithContext(ctx).Info("Reschedule rejected: date conflict", "workoutId", id.Hex(), "newDate", params.NewDate.String())
		}
		return nil, err
	}

	s.log.WithContext(ctx).Debug("Scheduled workout updated", "workoutId", id.Hex(), "action", string(action), "status", string(updated.Status))
	return updated, nil
}

// applyAction mutates w in memory. Domain methods validate before mutating,
// so a rejected action leaves w as it was.
func (s *scheduleService) applyAction(ctx context.Context, w *domain.ScheduledWorkout, action Action, params UpdateParams) error {
	switch action {
	case ActionReschedule:
		if params.NewDate == w.ScheduledDate {
			return validationError("workout is already scheduled on %s", params.NewDate)
		}
		if w.Status != domain.StatusScheduled && w.Status != domain.StatusMissed {
			return ErrInvalidTransition
		}
		siblings, err := s.repos.Workouts.Find(ctx, repository.ScheduledWorkoutFilter{
			ScheduleID: w.ScheduleID,
			From:       params.NewDate,
			Before:     params.NewDate.AddDays(1),
		})
		if err != nil {
			return err
		}
		for _, other := range siblings {
			if other.ID != w.ID {
				return ErrDateConflict
			}
		}
		reason := strings.TrimSpace(params.Reason)
		if reason == "" {
			reason = ManualRescheduleReason
		}
		return w.Reschedule(params.NewDate, reason)
	case ActionSkip:
		return w.Skip(strings.TrimSpace(params.Reason), s.now())
	case ActionComplete:
		return w.Complete(params.SessionRef, s.now(), s.opts.ClearSkipOnComplete)
	case ActionUnschedule:
		return w.Unschedule()
	case ActionNotes:
		w.Notes = *params.Notes
		return nil
	}
	return validationError("unknown action %q", action)
}

// DeleteScheduledWorkout hard-deletes a row after the ownership check.
func (s *scheduleService) DeleteScheduledWorkout(ctx context.Context, id, userID primitive.ObjectID) error {
	w, err := s.loadOwnedWorkout(ctx, id, userID)
	if err != nil {
		return err
	}
	err = s.withScheduleLock(ctx, w.ScheduleID, func() error {
		return s.repos.Workouts.Delete(ctx, id, userID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScheduledWorkoutNotFound
		}
		return err
	}
	s.log.WithContext(ctx).Info("Scheduled workout deleted", "workoutId", id.Hex(), "scheduleId", w.ScheduleID.Hex())
	return nil
}

// MarkMissed is the system entry point for scheduled -> missed. It has no owner:
// only the sweep calls it. The row must be scheduled and dated before today.
func (s *scheduleService) MarkMissed(ctx context.Context, id primitive.ObjectID, today calendar.Date) (*domain.ScheduledWorkout, error) {
	initial, err := s.repos.Workouts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduledWorkoutNotFound
		}
		return nil, err
	}
	var marked *domain.ScheduledWorkout
	err = s.withScheduleLock(ctx, initial.ScheduleID, func() error {
		var err error
		marked, err = s.markMissedLocked(ctx, id, today)
		return err
	})
	if err != nil {
		return nil, err
	}
	return marked, nil
}

// markMissedLocked expects the caller to hold the schedule lock.
func (s *scheduleService) markMissedLocked(ctx context.Context, id primitive.ObjectID, today calendar.Date) (*domain.ScheduledWorkout, error) {
	w, err := s.repos.Workouts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduledWorkoutNotFound
		}
		return nil, err
	}
	if err := w.MarkMissed(today, s.now()); err != nil {
		return nil, err
	}
	if err := s.repos.Workouts.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}
