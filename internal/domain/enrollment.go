package domain

import (
	"alcyxob/workout-scheduler/internal/calendar"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment is a user's subscription to a specific program.
// Exactly one SchedulePreference hangs off each enrollment.
type Enrollment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	ProgramID primitive.ObjectID `bson:"programId" json:"programId"`
	StartDate calendar.Date      `bson:"startDate" json:"startDate"` // First day the schedule may use
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
