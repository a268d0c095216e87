package domain

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduledWorkoutStatus type for the scheduled workout lifecycle
type ScheduledWorkoutStatus string

const (
	StatusScheduled ScheduledWorkoutStatus = "scheduled" // Initial state
	StatusCompleted ScheduledWorkoutStatus = "completed"
	StatusSkipped   ScheduledWorkoutStatus = "skipped"
	StatusMissed    ScheduledWorkoutStatus = "missed" // Date passed with no action, set by the sweep
	// StatusRescheduled labels the reschedule action itself. It is never persisted:
	// a successfully moved row is stored as StatusScheduled.
	StatusRescheduled ScheduledWorkoutStatus = "rescheduled"
)

// ErrInvalidTransition is returned when an action is not allowed from the row's current status.
var ErrInvalidTransition = errors.New("status transition not allowed")

// Valid reports whether s is a status a row can be stored with.
func (s ScheduledWorkoutStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusSkipped, StatusMissed:
		return true
	}
	return false
}

// ScheduledWorkout is the calendar-dated instance of a ProgramWorkout for one user.
type ScheduledWorkout struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ScheduleID       primitive.ObjectID `bson:"scheduleId" json:"scheduleId"`
	UserID           primitive.ObjectID `bson:"userId" json:"userId"` // Denormalized for ownership checks
	ProgramWorkoutID primitive.ObjectID `bson:"programWorkoutId" json:"programWorkoutId"`
	WorkoutName      string             `bson:"workoutName" json:"workoutName"`
	WeekNumber       int                `bson:"weekNumber" json:"weekNumber"` // Copied from the program for ordering
	DayNumber        int                `bson:"dayNumber" json:"dayNumber"`

	ScheduledDate     calendar.Date          `bson:"scheduledDate" json:"scheduledDate"`
	OriginalDate      calendar.Date          `bson:"originalDate" json:"originalDate"` // Set once, never moved
	Status            ScheduledWorkoutStatus `bson:"status" json:"status"`
	RescheduledFrom   *calendar.Date         `bson:"rescheduledFrom,omitempty" json:"rescheduledFrom,omitempty"`
	RescheduledCount  int                    `bson:"rescheduledCount" json:"rescheduledCount"`
	RescheduledReason string                 `bson:"rescheduledReason,omitempty" json:"rescheduledReason,omitempty"`

	CompletedAt                *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CompletedWorkoutSessionRef string     `bson:"completedWorkoutSessionRef,omitempty" json:"completedWorkoutSessionRef,omitempty"`
	SkippedAt                  *time.Time `bson:"skippedAt,omitempty" json:"skippedAt,omitempty"`
	SkipReason                 string     `bson:"skipReason,omitempty" json:"skipReason,omitempty"`
	MissedAt                   *time.Time `bson:"missedAt,omitempty" json:"missedAt,omitempty"`

	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ProgramOrderLess orders rows by (WeekNumber, DayNumber), falling back to the original date.
func ProgramOrderLess(a, b *ScheduledWorkout) bool {
	if a.WeekNumber != b.WeekNumber {
		return a.WeekNumber < b.WeekNumber
	}
	if a.DayNumber != b.DayNumber {
		return a.DayNumber < b.DayNumber
	}
	return a.OriginalDate.Before(b.OriginalDate)
}

// Reschedule moves the workout to newDate and returns it to StatusScheduled.
// Allowed from scheduled and missed. Date conflicts are the caller's concern.
func (w *ScheduledWorkout) Reschedule(newDate calendar.Date, reason string) error {
	if w.Status != StatusScheduled && w.Status != StatusMissed {
		return ErrInvalidTransition
	}
	from := w.ScheduledDate
	if w.OriginalDate.IsZero() {
		w.OriginalDate = from
	}
	w.RescheduledFrom = &from
	w.ScheduledDate = newDate
	w.RescheduledCount++
	w.RescheduledReason = reason
	w.Status = StatusScheduled
	w.MissedAt = nil
	return nil
}

// Skip marks a scheduled or missed workout as skipped.
func (w *ScheduledWorkout) Skip(reason string, at time.Time) error {
	if w.Status != StatusScheduled && w.Status != StatusMissed {
		return ErrInvalidTransition
	}
	w.Status = StatusSkipped
	w.SkipReason = reason
	w.SkippedAt = &at
	return nil
}

// Complete records completion. A skipped workout may also be completed; clearSkip
// controls whether the skip reason and timestamp are wiped on that transition.
func (w *ScheduledWorkout) Complete(sessionRef string, at time.Time, clearSkip bool) error {
	switch w.Status {
	case StatusScheduled, StatusMissed:
	case StatusSkipped:
		if clearSkip {
			w.SkipReason = ""
			w.SkippedAt = nil
		}
	default:
		return ErrInvalidTransition
	}
	w.Status = StatusCompleted
	w.CompletedAt = &at
	w.CompletedWorkoutSessionRef = sessionRef
	return nil
}

// Unschedule reverts a completed or skipped workout back to scheduled.
func (w *ScheduledWorkout) Unschedule() error {
	if w.Status != StatusCompleted && w.Status != StatusSkipped {
		return ErrInvalidTransition
	}
	w.Status = StatusScheduled
	w.CompletedAt = nil
	w.CompletedWorkoutSessionRef = ""
	w.SkippedAt = nil
	w.SkipReason = ""
	return nil
}

// MarkMissed flags a scheduled workout whose date is before today.
func (w *ScheduledWorkout) MarkMissed(today calendar.Date, at time.Time) error {
	if w.Status != StatusScheduled || !w.ScheduledDate.Before(today) {
		return ErrInvalidTransition
	}
	w.Status = StatusMissed
	w.MissedAt = &at
	return nil
}
