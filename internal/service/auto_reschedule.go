package service

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"alcyxob/workout-scheduler/internal/domain"
	"alcyxob/workout-scheduler/internal/repository"
	"alcyxob/workout-scheduler/internal/scheduling"
	"context"
	"errors"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// Reasons reported for workouts left in missed status.
const (
	ReasonNoSlot            = "no available date within horizon"
	ReasonDateConflict      = "date conflict"
	ReasonInvalidTransition = "workout is no longer missed"
	ReasonStoreError        = "store error"
	ReasonScheduleFailed    = "schedule could not be processed"
)

// RescheduleFilter narrows an auto-reschedule run. Zero fields do not filter.
type RescheduleFilter struct {
	ScheduleID primitive.ObjectID
	WorkoutIDs []primitive.ObjectID
}

// Repair is one workout moved by auto-reschedule.
type Repair struct {
	WorkoutID   primitive.ObjectID `json:"workoutId"`
	ScheduleID  primitive.ObjectID `json:"scheduleId"`
	WorkoutName string             `json:"workoutName"`
	OldDate     calendar.Date      `json:"oldDate"`
	NewDate     calendar.Date      `json:"newDate"`
}

// Unplaced is a missed workout auto-reschedule could not move.
type Unplaced struct {
	WorkoutID   primitive.ObjectID `json:"workoutId"`
	ScheduleID  primitive.ObjectID `json:"scheduleId"`
	WorkoutName string             `json:"workoutName"`
	Reason      string             `json:"reason"`
}

// AutoRescheduleResult summarizes a partial-success batch.
type AutoRescheduleResult struct {
	Strategy            scheduling.Strategy  `json:"strategy"`
	Rescheduled         []Repair             `json:"rescheduled"`
	NotRescheduled      []Unplaced           `json:"notRescheduled"`
	SkippedSchedules    []primitive.ObjectID `json:"skippedSchedules"` // auto-reschedule disabled or paused
	FailedSchedules     []primitive.ObjectID `json:"failedSchedules"`  // lock or store failure; their workouts stay missed
	RescheduledCount    int                  `json:"rescheduledCount"`
	NotRescheduledCount int                  `json:"notRescheduledCount"`
}

func newAutoRescheduleResult(strategy scheduling.Strategy) *AutoRescheduleResult {
	return &AutoRescheduleResult{
		Strategy:         strategy,
		Rescheduled:      []Repair{},
		NotRescheduled:   []Unplaced{},
		SkippedSchedules: []primitive.ObjectID{},
		FailedSchedules:  []primitive.ObjectID{},
	}
}

func (r *AutoRescheduleResult) merge(o *AutoRescheduleResult) {
	r.Rescheduled = append(r.Rescheduled, o.Rescheduled...)
	r.NotRescheduled = append(r.NotRescheduled, o.NotRescheduled...)
	r.SkippedSchedules = append(r.SkippedSchedules, o.SkippedSchedules...)
	r.FailedSchedules = append(r.FailedSchedules, o.FailedSchedules...)
	r.RescheduledCount = len(r.Rescheduled)
	r.NotRescheduledCount = len(r.NotRescheduled)
}

// AutoReschedule repairs the caller's missed workouts with the given strategy
// ("" means the configured default). Each schedule is processed under its lock;
// one workout failing never aborts the rest of the batch.
func (s *scheduleService) AutoReschedule(ctx context.Context, userID primitive.ObjectID, filter RescheduleFilter, strategy scheduling.Strategy) (*AutoRescheduleResult, error) {
	if strategy == "" {
		strategy = s.opts.DefaultStrategy
	}
	parsed, err := scheduling.ParseStrategy(string(strategy))
	if err != nil {
		return nil, validationError("%v", err)
	}
	if filter.ScheduleID != primitive.NilObjectID {
		if _, err := s.loadOwnedSchedule(ctx, filter.ScheduleID, userID); err != nil {
			return nil, err
		}
	}

	missed, err := s.repos.Workouts.Find(ctx, repository.ScheduledWorkoutFilter{
		ScheduleID: filter.ScheduleID,
		UserID:     userID,
		IDs:        filter.WorkoutIDs,
		Statuses:   []domain.ScheduledWorkoutStatus{domain.StatusMissed},
	})
	if err != nil {
		return nil, err
	}

	today := s.Today()
	result := newAutoRescheduleResult(parsed)
	for _, scheduleID := range scheduleIDsOf(missed) {
		part, err := s.rescheduleSchedule(ctx, scheduleID, filter.WorkoutIDs, parsed, today)
		if err != nil {
			// Repairs already written for other schedules stay reported.
			s.log.WithContext(ctx).Error("Auto-reschedule failed for schedule", "scheduleId", scheduleID.Hex(), "error", err)
			part = newAutoRescheduleResult(parsed)
			for _, w := range missed {
				if w.ScheduleID == scheduleID {
					part.NotRescheduled = append(part.NotRescheduled, Unplaced{
						WorkoutID:   w.ID,
						ScheduleID:  scheduleID,
						WorkoutName: w.WorkoutName,
						Reason:      ReasonScheduleFailed,
					})
				}
			}
			part.FailedSchedules = append(part.FailedSchedules, scheduleID)
		}
		result.merge(part)
	}

	s.log.WithContext(ctx).Info("Auto-reschedule finished",
		"userId", userID.Hex(),
		"strategy", string(parsed),
		"rescheduled", result.RescheduledCount,
		"notRescheduled", result.NotRescheduledCount,
		"failedSchedules", len(result.FailedSchedules),
	)
	return result, nil
}

// scheduleIDsOf returns the distinct schedule ids of rows, in a stable order.
func scheduleIDsOf(rows []domain.ScheduledWorkout) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, w := range rows {
		if _, ok := seen[w.ScheduleID]; ok {
			continue
		}
		seen[w.ScheduleID] = struct{}{}
		ids = append(ids, w.ScheduleID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	return ids
}

// rescheduleSchedule repairs one schedule's missed workouts. Errors are returned
// only when the input cannot be read; per-workout failures land in NotRescheduled.
func (s *scheduleService) rescheduleSchedule(ctx context.Context, scheduleID primitive.ObjectID, workoutIDs []primitive.ObjectID, strategy scheduling.Strategy, today calendar.Date) (*AutoRescheduleResult, error) {
	result := newAutoRescheduleResult(strategy)
	log := s.log.With("scheduleId", scheduleID.Hex(), "strategy", string(strategy))

	pref, err := s.repos.Schedules.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Missed workouts reference an unknown schedule")
			return result, nil
		}
		return nil, err
	}
	if !pref.AutoRescheduleEnabled || pref.IsPaused(today) {
		log.Debug("Skipping schedule", "autoRescheduleEnabled", pref.AutoRescheduleEnabled, "paused", pref.IsPaused(today))
		result.SkippedSchedules = append(result.SkippedSchedules, scheduleID)
		return result, nil
	}

	err = s.withScheduleLock(ctx, scheduleID, func() error {
		missed, err := s.repos.Workouts.Find(ctx, repository.ScheduledWorkoutFilter{
			ScheduleID: scheduleID,
			IDs:        workoutIDs,
			Statuses:   []domain.ScheduledWorkoutStatus{domain.StatusMissed},
		})
		if err != nil {
			return err
		}
		if len(missed) == 0 {
			return nil
		}
		// Earlier program workouts claim earlier repair dates.
		sort.SliceStable(missed, func(i, j int) bool { return domain.ProgramOrderLess(&missed[i], &missed[j]) })

		upcoming, err := s.repos.Workouts.Find(ctx, repository.ScheduledWorkoutFilter{
			ScheduleID: scheduleID,
			From:       today,
		})
		if err != nil {
			return err
		}
		occupied := calendar.NewDateSet()
		for _, w := range upcoming {
			occupied.Add(w.ScheduledDate)
		}

		windowDays := pref.WindowDays()
		if pref.RescheduleWindowWeeks <= 0 {
			windowDays = s.opts.DefaultWindowWeeks * 7
		}
		dates, err := scheduling.PlanRepairs(strategy, scheduling.RepairRequest{
			Today:         today,
			PreferredDays: pref.PreferredDays,
			WindowDays:    windowDays,
			Occupied:      occupied,
			Count:         len(missed),
		})
		if err != nil {
			return err
		}

		for i := range missed {
			w := missed[i]
			unplaced := Unplaced{WorkoutID: w.ID, ScheduleID: scheduleID, WorkoutName: w.WorkoutName}
			if dates[i].IsZero() {
				log.Info("No slot found for missed workout", "workoutId", w.ID.Hex(), "missedDate", w.ScheduledDate.String())
				unplaced.Reason = ReasonNoSlot
				result.NotRescheduled = append(result.NotRescheduled, unplaced)
				continue
			}

			oldDate := w.ScheduledDate
			if err := w.Reschedule(dates[i], strategy.Reason()); err != nil {
				unplaced.Reason = ReasonInvalidTransition
				result.NotRescheduled = append(result.NotRescheduled, unplaced)
				continue
			}
			if err := s.repos.Workouts.Update(ctx, &w); err != nil {
				unplaced.Reason = ReasonStoreError
				if errors.Is(err, repository.ErrDuplicate) {
					unplaced.Reason = ReasonDateConflict
				}
				log.Warn("Failed to store rescheduled workout", "workoutId", w.ID.Hex(), "newDate", dates[i].String(), "error", err)
				result.NotRescheduled = append(result.NotRescheduled, unplaced)
				continue
			}
			result.Rescheduled = append(result.Rescheduled, Repair{
				WorkoutID:   w.ID,
				ScheduleID:  scheduleID,
				WorkoutName: w.WorkoutName,
				OldDate:     oldDate,
				NewDate:     w.ScheduledDate,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.RescheduledCount = len(result.Rescheduled)
	result.NotRescheduledCount = len(result.NotRescheduled)
	return result, nil
}

// SweepResult summarizes one missed-workout sweep.
type SweepResult struct {
	Today       calendar.Date `json:"today"`
	Schedules   int           `json:"schedules"`
	Marked      int           `json:"marked"`
	Rescheduled int           `json:"rescheduled"`
	Failed      int           `json:"failed"` // schedules whose processing errored
}

// SweepMissed marks every scheduled workout dated before today as missed and,
// when configured, repairs the affected schedules with next_available.
// Schedules are processed in parallel, bounded by SweepWorkers.
func (s *scheduleService) SweepMissed(ctx context.Context) (*SweepResult, error) {
	today := s.Today()
	overdue, err := s.repos.Workouts.Find(ctx, repository.ScheduledWorkoutFilter{
		Statuses: []domain.ScheduledWorkoutStatus{domain.StatusScheduled},
		Before:   today,
	})
	if err != nil {
		return nil, err
	}

	bySchedule := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, w := range overdue {
		bySchedule[w.ScheduleID] = append(bySchedule[w.ScheduleID], w.ID)
	}

	result := &SweepResult{Today: today, Schedules: len(bySchedule)}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.opts.SweepWorkers)
	for _, scheduleID := range scheduleIDsOf(overdue) {
		scheduleID := scheduleID
		ids := bySchedule[scheduleID]
		g.Go(func() error {
			marked, rescheduled, err := s.sweepSchedule(ctx, scheduleID, ids, today)
			mu.Lock()
			defer mu.Unlock()
			result.Marked += marked
			result.Rescheduled += rescheduled
			if err != nil {
				result.Failed++
				s.log.Error("Missed sweep failed for schedule", "scheduleId", scheduleID.Hex(), "error", err)
			}
			// Never cancel the other schedules.
			return nil
		})
	}
	_ = g.Wait()

	s.log.Info("Missed sweep finished",
		"today", today.String(),
		"schedules", result.Schedules,
		"marked", result.Marked,
		"rescheduled", result.Rescheduled,
		"failed", result.Failed,
	)
	return result, ctx.Err()
}

func (s *scheduleService) sweepSchedule(ctx context.Context, scheduleID primitive.ObjectID, ids []primitive.ObjectID, today calendar.Date) (marked, rescheduled int, err error) {
	err = s.withScheduleLock(ctx, scheduleID, func() error {
		for _, id := range ids {
			if _, err := s.markMissedLocked(ctx, id, today); err != nil {
				// Acted on by the user since the sweep read it.
				if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrScheduledWorkoutNotFound) {
					continue
				}
				return err
			}
			marked++
		}
		return nil
	})
	if err != nil || !s.opts.AutoRescheduleAfterSweep {
		return marked, 0, err
	}

	part, err := s.rescheduleSchedule(ctx, scheduleID, nil, scheduling.StrategyNextAvailable, today)
	if err != nil {
		return marked, 0, err
	}
	return marked, part.RescheduledCount, nil
}
