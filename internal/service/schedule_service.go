package service

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"alcyxob/workout-scheduler/internal/domain"
	"alcyxob/workout-scheduler/internal/lock"
	"alcyxob/workout-scheduler/internal/logger"
	"alcyxob/workout-scheduler/internal/repository"
	"alcyxob/workout-scheduler/internal/scheduling"
	"alcyxob/workout-scheduler/internal/storage"
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// cleanupTimeout bounds compensating deletes, which run even after the request context is gone.
const cleanupTimeout = 5 * time.Second

// ScheduleService owns schedule preferences, the scheduled workout ledger and
// the auto-reschedule engine. Every mutation of a schedule's ledger runs under
// that schedule's lock.
type ScheduleService interface {
	// Enrollment & placement
	EnrollAndPlace(ctx context.Context, userID, programID primitive.ObjectID, startDate calendar.Date, prefs PreferencesInput) (*PlacementResult, error)
	PlaceProgramSchedule(ctx context.Context, userID, enrollmentID primitive.ObjectID, prefs PreferencesInput) (*PlacementResult, error)

	// Preferences
	ListSchedules(ctx context.Context, userID primitive.ObjectID) ([]domain.SchedulePreference, error)
	GetPreferences(ctx context.Context, scheduleID, userID primitive.ObjectID) (*domain.SchedulePreference, error)
	UpdatePreferences(ctx context.Context, scheduleID, userID primitive.ObjectID, prefs PreferencesInput) (*domain.SchedulePreference, error)

	// Ledger
	GetScheduledWorkout(ctx context.Context, id, userID primitive.ObjectID) (*domain.ScheduledWorkout, error)
	ListScheduledWorkouts(ctx context.Context, scheduleID, userID primitive.ObjectID, query WorkoutQuery) ([]domain.ScheduledWorkout, error)
	UpdateScheduledWorkout(ctx context.Context, id, userID primitive.ObjectID, action Action, params UpdateParams) (*domain.ScheduledWorkout, error)
	DeleteScheduledWorkout(ctx context.Context, id, userID primitive.ObjectID) error
	MarkMissed(ctx context.Context, id primitive.ObjectID, today calendar.Date) (*domain.ScheduledWorkout, error)

	// Auto-reschedule
	AutoReschedule(ctx context.Context, userID primitive.ObjectID, filter RescheduleFilter, strategy scheduling.Strategy) (*AutoRescheduleResult, error)
	SweepMissed(ctx context.Context) (*SweepResult, error)

	// Export
	ExportCalendar(ctx context.Context, scheduleID, userID primitive.ObjectID) (*ExportResult, error)

	Today() calendar.Date
}

// ScheduleRepositories groups the stores the schedule service reads and writes.
type ScheduleRepositories struct {
	Programs        repository.ProgramRepository
	ProgramWorkouts repository.ProgramWorkoutRepository
	Enrollments     repository.EnrollmentRepository
	Schedules       repository.ScheduleRepository
	Workouts        repository.ScheduledWorkoutRepository
}

// ScheduleOptions carries the scheduler configuration.
type ScheduleOptions struct {
	Location                 *time.Location // Reference timezone for "today"; nil means UTC
	DefaultWindowWeeks       int
	DefaultStrategy          scheduling.Strategy
	ClearSkipOnComplete      bool
	AutoRescheduleAfterSweep bool
	SweepWorkers             int
	PresignExpiry            time.Duration
	Now                      func() time.Time // Clock override for tests
}

type scheduleService struct {
	repos  ScheduleRepositories
	locker lock.Locker
	files  storage.FileStorage // nil when export is disabled
	log    *logger.Logger
	opts   ScheduleOptions
}

// NewScheduleService creates a new instance of scheduleService.
func NewScheduleService(repos ScheduleRepositories, locker lock.Locker, files storage.FileStorage, log *logger.Logger, opts ScheduleOptions) ScheduleService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultWindowWeeks <= 0 {
		opts.DefaultWindowWeeks = domain.DefaultRescheduleWindowWeeks
	}
	if opts.DefaultStrategy == "" {
		opts.DefaultStrategy = scheduling.DefaultStrategy
	}
	if opts.SweepWorkers <= 0 {
		opts.SweepWorkers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &scheduleService{
		repos:  repos,
		locker: locker,
		files:  files,
		log:    log.With("service", "ScheduleService"),
		opts:   opts,
	}
}

// Today is the current calendar date in the configured reference timezone.
func (s *scheduleService) Today() calendar.Date {
	return calendar.FromTime(s.opts.Now(), s.opts.Location)
}

func (s *scheduleService) now() time.Time {
	return s.opts.Now().UTC()
}

// withScheduleLock runs fn while holding the schedule's lock.
func (s *scheduleService) withScheduleLock(ctx context.Context, scheduleID primitive.ObjectID, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, lock.ScheduleKey(scheduleID.Hex()))
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// === Preferences ===

// PreferencesInput is the caller-supplied part of a SchedulePreference.
// Nil pointers mean "keep the current value" (or the default on first write).
type PreferencesInput struct {
	PreferredDays             []int
	PreferredTimeSlot         domain.TimeSlot
	AutoRescheduleEnabled     *bool
	RescheduleWindowWeeks     *int
	MinRestDays               int
	MaxConsecutiveWorkoutDays int
	PausedUntil               *calendar.Date
}

func (in PreferencesInput) validate() error {
	if len(in.PreferredDays) == 0 {
		return validationError("preferredDays must not be empty")
	}
	for _, d := range in.PreferredDays {
		if !calendar.ValidWeekday(d) {
			return validationError("preferredDays values must be between 0 and 6, got %d", d)
		}
	}
	if in.RescheduleWindowWeeks != nil && *in.RescheduleWindowWeeks <= 0 {
		return validationError("rescheduleWindowWeeks must be greater than 0")
	}
	if in.MinRestDays < 0 {
		return validationError("minRestDays must not be negative")
	}
	if in.MaxConsecutiveWorkoutDays < 0 {
		return validationError("maxConsecutiveWorkoutDays must not be negative")
	}
	if !in.PreferredTimeSlot.Valid() {
		return validationError("unknown preferredTimeSlot %q", in.PreferredTimeSlot)
	}
	return nil
}

// apply copies the input onto pref. Days are de-duplicated and sorted.
func (in PreferencesInput) apply(pref *domain.SchedulePreference, defaultWindowWeeks int) {
	seen := make(map[int]struct{}, len(in.PreferredDays))
	days := make([]int, 0, len(in.PreferredDays))
	for _, d := range in.PreferredDays {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Ints(days)

	pref.PreferredDays = days
	pref.PreferredTimeSlot = in.PreferredTimeSlot
	pref.MinRestDays = in.MinRestDays
	pref.MaxConsecutiveWorkoutDays = in.MaxConsecutiveWorkoutDays
	pref.PausedUntil = in.PausedUntil
	if pref.PausedUntil != nil && pref.PausedUntil.IsZero() {
		pref.PausedUntil = nil
	}
	if in.AutoRescheduleEnabled != nil {
		pref.AutoRescheduleEnabled = *in.AutoRescheduleEnabled
	}
	if in.RescheduleWindowWeeks != nil {
		pref.RescheduleWindowWeeks = *in.RescheduleWindowWeeks
	}
	if pref.RescheduleWindowWeeks <= 0 {
		pref.RescheduleWindowWeeks = defaultWindowWeeks
	}
}

// ListSchedules returns every schedule the user owns.
func (s *scheduleService) ListSchedules(ctx context.Context, userID primitive.ObjectID) ([]domain.SchedulePreference, error) {
	prefs, err := s.repos.Schedules.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = []domain.SchedulePreference{}
	}
	return prefs, nil
}

// loadOwnedSchedule fetches a schedule and verifies the caller owns it.
func (s *scheduleService) loadOwnedSchedule(ctx context.Context, scheduleID, userID primitive.ObjectID) (*domain.SchedulePreference, error) {
	pref, err := s.repos.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if pref.UserID != userID {
		return nil, ErrAccessDenied
	}
	return pref, nil
}

// GetPreferences returns the schedule's preference record.
func (s *scheduleService) GetPreferences(ctx context.Context, scheduleID, userID primitive.ObjectID) (*domain.SchedulePreference, error) {
	return s.loadOwnedSchedule(ctx, scheduleID, userID)
}

// UpdatePreferences validates and stores new preferences. Existing ledger rows
// are not moved; the new values apply to future placement and repairs.
func (s *scheduleService) UpdatePreferences(ctx context.Context, scheduleID, userID primitive.ObjectID, prefs PreferencesInput) (*domain.SchedulePreference, error) {
	if err := prefs.validate(); err != nil {
		return nil, err
	}
	pref, err := s.loadOwnedSchedule(ctx, scheduleID, userID)
	if err != nil {
		return nil, err
	}
	prefs.apply(pref, s.opts.DefaultWindowWeeks)

	stored, err := s.repos.Schedules.Upsert(ctx, pref)
	if err != nil {
		return nil, err
	}
	s.log.Info("Schedule preferences updated", "scheduleId", scheduleID.Hex(), "userId", userID.Hex())
	return stored, nil
}

// === Enrollment & Placement ===

// PlacementResult is the outcome of placing a program onto the calendar.
type PlacementResult struct {
	Enrollment *domain.Enrollment         `json:"enrollment,omitempty"`
	Schedule   *domain.SchedulePreference `json:"schedule"`
	Workouts   []domain.ScheduledWorkout  `json:"workouts"`
	// RelaxedCount is the number of workouts placed without the rest/consecutive rules.
	RelaxedCount int `json:"relaxedCount"`
}

// EnrollAndPlace enrolls the user in a program and places its schedule.
// A zero startDate means today.
func (s *scheduleService) EnrollAndPlace(ctx context.Context, userID, programID primitive.ObjectID, startDate calendar.Date, prefs PreferencesInput) (*PlacementResult, error) {
	if err := prefs.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repos.Programs.GetByID(ctx, programID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	// Checked before enrolling so an empty program leaves nothing behind.
	programWorkouts, err := s.repos.ProgramWorkouts.GetByProgramID(ctx, programID)
	if err != nil {
		return nil, err
	}
	if len(programWorkouts) == 0 {
		return nil, ErrScheduleHasNoWorkouts
	}
	if startDate.IsZero() {
		startDate = s.Today()
	}

	enrollment := &domain.Enrollment{
		UserID:    userID,
		ProgramID: programID,
		StartDate: startDate,
		IsActive:  true,
	}
	if _, err := s.repos.Enrollments.Create(ctx, enrollment); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Info("Enrollment created", "enrollmentId", enrollment.ID.Hex(), "userId", userID.Hex(), "programId", programID.Hex())

	result, err := s.PlaceProgramSchedule(ctx, userID, enrollment.ID, prefs)
	if err != nil {
		s.discardEnrollment(enrollment.ID)
		return nil, err
	}
	result.Enrollment = enrollment
	return result, nil
}

// discardEnrollment rolls back an enrollment whose placement failed, along with
// any preference record placement already stored for it.
func (s *scheduleService) discardEnrollment(enrollmentID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := s.repos.Schedules.DeleteByEnrollmentID(ctx, enrollmentID); err != nil {
		s.log.Error("Failed to remove schedule of failed enrollment", "enrollmentId", enrollmentID.Hex(), "error", err)
	}
	if err := s.repos.Enrollments.Delete(ctx, enrollmentID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Error("Failed to remove failed enrollment", "enrollmentId", enrollmentID.Hex(), "error", err)
		return
	}
	s.log.Info("Enrollment rolled back", "enrollmentId", enrollmentID.Hex())
}

// PlaceProgramSchedule creates the SchedulePreference for an enrollment and one
// ScheduledWorkout per program workout, each on its own date.
func (s *scheduleService) PlaceProgramSchedule(ctx context.Context, userID, enrollmentID primitive.ObjectID, prefs PreferencesInput) (*PlacementResult, error) {
	if err := prefs.validate(); err != nil {
		return nil, err
	}
	enrollment, err := s.repos.Enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.UserID != userID {
		return nil, ErrAccessDenied
	}

	programWorkouts, err := s.repos.ProgramWorkouts.GetByProgramID(ctx, enrollment.ProgramID)
	if err != nil {
		return nil, err
	}
	if len(programWorkouts) == 0 {
		return nil, ErrScheduleHasNoWorkouts
	}

	pref := &domain.SchedulePreference{
		EnrollmentID:          enrollment.ID,
		UserID:                userID,
		ProgramID:             enrollment.ProgramID,
		AutoRescheduleEnabled: true,
	}
	if existing, err := s.repos.Schedules.GetByEnrollmentID(ctx, enrollment.ID); err == nil {
		rows, err := s.repos.Workouts.Find(ctx, repository.ScheduledWorkoutFilter{ScheduleID: existing.ID})
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return nil, ErrScheduleExists
		}
		pref = existing
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	prefs.apply(pref, s.opts.DefaultWindowWeeks)

	stored, err := s.repos.Schedules.Upsert(ctx, pref)
	if err != nil {
		return nil, err
	}

	result := &PlacementResult{Schedule: stored}
	err = s.withScheduleLock(ctx, stored.ID, func() error {
		// Re-checked under the lock so concurrent placements of one enrollment cannot both write.
		existingRows, err := s.repos.Workouts.Find(ctx, repository.ScheduledWorkoutFilter{ScheduleID: stored.ID})
		if err != nil {
			return err
		}
		if len(existingRows) > 0 {
			return ErrScheduleExists
		}

		start := calendar.Max(enrollment.StartDate, s.Today())
		if stored.PausedUntil != nil && !stored.PausedUntil.Before(start) {
			start = stored.PausedUntil.AddDays(1)
		}

		placements := scheduling.PlaceWorkouts(programWorkouts, scheduling.PlacementOptions{
			StartDate:                 start,
			PreferredDays:             stored.PreferredDays,
			MinRestDays:               stored.MinRestDays,
			MaxConsecutiveWorkoutDays: stored.MaxConsecutiveWorkoutDays,
		})

		rows := make([]domain.ScheduledWorkout, len(placements))
		for i, p := range placements {
			if p.Relaxed {
				result.RelaxedCount++
			}
			rows[i] = domain.ScheduledWorkout{
				ScheduleID:       stored.ID,
				UserID:           userID,
				ProgramWorkoutID: p.Workout.ID,
				WorkoutName:      p.Workout.Name,
				WeekNumber:       p.Workout.WeekNumber,
				DayNumber:        p.Workout.DayNumber,
				ScheduledDate:    p.Date,
				OriginalDate:     p.Date,
				Status:           domain.StatusScheduled,
			}
		}

		if _, err := s.repos.Workouts.CreateMany(ctx, rows); err != nil {
			// An insert batch may have partially landed; leave the schedule empty so placement can be retried.
			if cleanupErr := s.repos.Workouts.DeleteBySchedule(ctx, stored.ID); cleanupErr != nil {
				s.log.Error("Failed to roll back partial placement", "scheduleId", stored.ID.Hex(), "error", cleanupErr)
			}
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDateConflict
			}
			return err
		}
		result.Workouts = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Program schedule placed",
		"scheduleId", stored.ID.Hex(),
		"enrollmentId", enrollment.ID.Hex(),
		"workouts", len(result.Workouts),
		"relaxed", result.RelaxedCount,
	)
	return result, nil
}
