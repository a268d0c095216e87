package domain

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TimeSlot is a free-text hint for when the user likes to train. Not used for conflicts.
type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
	TimeSlotEvening   TimeSlot = "evening"
	TimeSlotLateNight TimeSlot = "late_night"
)

func (t TimeSlot) Valid() bool {
	switch t {
	case "", TimeSlotMorning, TimeSlotAfternoon, TimeSlotEvening, TimeSlotLateNight:
		return true
	}
	return false
}

// DefaultRescheduleWindowWeeks bounds the next_available search when the user has not chosen one.
const DefaultRescheduleWindowWeeks = 2

// SchedulePreference is the per-enrollment schedule record. Its ID is the schedule id
// that ScheduledWorkout rows point to.
type SchedulePreference struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EnrollmentID primitive.ObjectID `bson:"enrollmentId" json:"enrollmentId"` // Unique
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`             // Owner
	ProgramID    primitive.ObjectID `bson:"programId" json:"programId"`

	PreferredDays             []int          `bson:"preferredDays" json:"preferredDays"` // 0=Sunday ... 6=Saturday
	PreferredTimeSlot         TimeSlot       `bson:"preferredTimeSlot,omitempty" json:"preferredTimeSlot,omitempty"`
	AutoRescheduleEnabled     bool           `bson:"autoRescheduleEnabled" json:"autoRescheduleEnabled"`
	RescheduleWindowWeeks     int            `bson:"rescheduleWindowWeeks" json:"rescheduleWindowWeeks"`
	MinRestDays               int            `bson:"minRestDays" json:"minRestDays"`
	MaxConsecutiveWorkoutDays int            `bson:"maxConsecutiveWorkoutDays" json:"maxConsecutiveWorkoutDays"` // 0 = unlimited
	PausedUntil               *calendar.Date `bson:"pausedUntil,omitempty" json:"pausedUntil,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// IsPaused reports whether PausedUntil is set and not yet in the past.
func (p *SchedulePreference) IsPaused(today calendar.Date) bool {
	return p.PausedUntil != nil && !p.PausedUntil.IsZero() && !p.PausedUntil.Before(today)
}

// WindowDays is the next_available search horizon in days.
func (p *SchedulePreference) WindowDays() int {
	weeks := p.RescheduleWindowWeeks
	if weeks <= 0 {
		weeks = DefaultRescheduleWindowWeeks
	}
	return weeks * 7
}
