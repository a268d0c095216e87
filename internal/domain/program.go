// internal/domain/program.go
package domain

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program is a multi-week training program template in the catalog.
type Program struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"` // Who authored the program
	Name        string             `bson:"name" json:"name"`       // e.g., "Couch to 5K"
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProgramWorkout is one planned session within a Program.
// Program order is (WeekNumber, DayNumber).
type ProgramWorkout struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID  primitive.ObjectID `bson:"programId" json:"programId"`
	Name       string             `bson:"name" json:"name"`             // e.g., "Week 1 Day 1: Easy Run"
	WeekNumber int                `bson:"weekNumber" json:"weekNumber"` // >= 1
	DayNumber  int                `bson:"dayNumber" json:"dayNumber"`   // 1-7, day within the week
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SortProgramWorkouts orders workouts by (WeekNumber, DayNumber) in place.
func SortProgramWorkouts(workouts []ProgramWorkout) {
	sort.SliceStable(workouts, func(i, j int) bool {
		if workouts[i].WeekNumber != workouts[j].WeekNumber {
			return workouts[i].WeekNumber < workouts[j].WeekNumber
		}
		return workouts[i].DayNumber < workouts[j].DayNumber
	})
}
