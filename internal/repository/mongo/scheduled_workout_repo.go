package mongo

import (
	"alcyxob/workout-scheduler/internal/domain"
	"alcyxob/workout-scheduler/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scheduledWorkoutCollectionName = "scheduled_workouts"

// mongoScheduledWorkoutRepository implements repository.ScheduledWorkoutRepository.
// The (scheduleId, scheduledDate) unique index is what rejects the losing writer
// when two instances race on the same slot.
type mongoScheduledWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoScheduledWorkoutRepository creates a new ledger repository backed by MongoDB.
func NewMongoScheduledWorkoutRepository(db *mongo.Database) repository.ScheduledWorkoutRepository {
	return &mongoScheduledWorkoutRepository{
		collection: db.Collection(scheduledWorkoutCollectionName),
	}
}

// CreateMany inserts a batch of rows and returns their new IDs in input order.
func (r *mongoScheduledWorkoutRepository) CreateMany(ctx context.Context, workouts []domain.ScheduledWorkout) ([]primitive.ObjectID, error) {
	if len(workouts) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(workouts))
	ids := make([]primitive.ObjectID, len(workouts))
	for i := range workouts {
		w := &workouts[i]
		if w.ScheduleID == primitive.NilObjectID || w.UserID == primitive.NilObjectID || w.ScheduledDate.IsZero() {
			return nil, errors.New("scheduled workout requires scheduleId, userId, and scheduledDate")
		}
		w.ID = primitive.NewObjectID()
		w.CreatedAt = now
		w.UpdatedAt = now
		if w.Status == "" {
			w.Status = domain.StatusScheduled
		}
		docs[i] = w
		ids[i] = w.ID
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return ids, nil
}

// GetByID retrieves a single row.
func (r *mongoScheduledWorkoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledWorkout, error) {
	var workout domain.ScheduledWorkout
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// Find returns rows matching the filter, sorted by scheduledDate.
func (r *mongoScheduledWorkoutRepository) Find(ctx context.Context, f repository.ScheduledWorkoutFilter) ([]domain.ScheduledWorkout, error) {
	filter := bson.M{}
	if f.ScheduleID != primitive.NilObjectID {
		filter["scheduleId"] = f.ScheduleID
	}
	if f.UserID != primitive.NilObjectID {
		filter["userId"] = f.UserID
	}
	if len(f.IDs) > 0 {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	// Dates are stored as YYYY-MM-DD strings, so string comparison is calendar order.
	dateRange := bson.M{}
	if !f.From.IsZero() {
		dateRange["$gte"] = f.From
	}
	if !f.Before.IsZero() {
		dateRange["$lt"] = f.Before
	}
	if len(dateRange) > 0 {
		filter["scheduledDate"] = dateRange
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var workouts []domain.ScheduledWorkout
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// Update writes every mutable field of the row. The identity fields never change.
func (r *mongoScheduledWorkoutRepository) Update(ctx context.Context, workout *domain.ScheduledWorkout) error {
	if workout.ID == primitive.NilObjectID {
		return errors.New("scheduled workout ID is required for update")
	}
	workout.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"scheduledDate":              workout.ScheduledDate,
			"originalDate":               workout.OriginalDate,
			"status":                     workout.Status,
			"rescheduledFrom":            workout.RescheduledFrom,
			"rescheduledCount":           workout.RescheduledCount,
			"rescheduledReason":          workout.RescheduledReason,
			"completedAt":                workout.CompletedAt,
			"completedWorkoutSessionRef": workout.CompletedWorkoutSessionRef,
			"skippedAt":                  workout.SkippedAt,
			"skipReason":                 workout.SkipReason,
			"missedAt":                   workout.MissedAt,
			"notes":                      workout.Notes,
			"updatedAt":                  workout.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": workout.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete hard-deletes a row owned by userID.
func (r *mongoScheduledWorkoutRepository) Delete(ctx context.Context, id primitive.ObjectID, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteBySchedule removes every row of a schedule.
func (r *mongoScheduledWorkoutRepository) DeleteBySchedule(ctx context.Context, scheduleID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"scheduleId": scheduleID})
	return err
}

// EnsureScheduledWorkoutIndexes creates necessary indexes for the ledger.
func EnsureScheduledWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// No two workouts of a schedule may share a date
			Keys:    bson.D{{Key: "scheduleId", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Missed sweep: scheduled rows with a past date
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
