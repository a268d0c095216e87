package service

import (
	"alcyxob/workout-scheduler/internal/domain"
	"errors"
	"fmt"
)

// --- Error Definitions ---
var (
	// ErrValidationFailed wraps every input rejection; the wrapped message is user-facing.
	ErrValidationFailed = errors.New("validation failed")

	ErrDateConflict             = errors.New("date already holds another workout of this schedule")
	ErrInvalidTransition        = domain.ErrInvalidTransition
	ErrScheduledWorkoutNotFound = errors.New("scheduled workout not found")
	ErrScheduleNotFound         = errors.New("schedule not found")
	ErrEnrollmentNotFound       = errors.New("enrollment not found")
	ErrProgramNotFound          = errors.New("program not found")
	ErrAccessDenied             = errors.New("access denied")
	ErrScheduleExists           = errors.New("a schedule has already been placed for this enrollment")
	ErrScheduleHasNoWorkouts    = errors.New("program has no workouts to schedule")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}
