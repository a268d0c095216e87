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

const scheduleCollectionName = "schedule_preferences"

// mongoScheduleRepository implements repository.ScheduleRepository
type mongoScheduleRepository struct {
	collection *mongo.Collection
}

// NewMongoScheduleRepository creates a new SchedulePreference repository.
func NewMongoScheduleRepository(db *mongo.Database) repository.ScheduleRepository {
	return &mongoScheduleRepository{
		collection: db.Collection(scheduleCollectionName),
	}
}

// Upsert writes the preference keyed by enrollmentId. Identity fields are only set on insert.
func (r *mongoScheduleRepository) Upsert(ctx context.Context, pref *domain.SchedulePreference) (*domain.SchedulePreference, error) {
	if pref.EnrollmentID == primitive.NilObjectID || pref.UserID == primitive.NilObjectID {
		return nil, errors.New("schedule preference requires enrollmentId and userId")
	}
	now := time.Now().UTC()
	filter := bson.M{"enrollmentId": pref.EnrollmentID}
	update := bson.M{
		"$set": bson.M{
			"preferredDays":             pref.PreferredDays,
			"preferredTimeSlot":         pref.PreferredTimeSlot,
			"autoRescheduleEnabled":     pref.AutoRescheduleEnabled,
			"rescheduleWindowWeeks":     pref.RescheduleWindowWeeks,
			"minRestDays":               pref.MinRestDays,
			"maxConsecutiveWorkoutDays": pref.MaxConsecutiveWorkoutDays,
			"pausedUntil":               pref.PausedUntil,
			"updatedAt":                 now,
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"userId":    pref.UserID,
			"programId": pref.ProgramID,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored domain.SchedulePreference
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return &stored, nil
}

func (r *mongoScheduleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SchedulePreference, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoScheduleRepository) GetByEnrollmentID(ctx context.Context, enrollmentID primitive.ObjectID) (*domain.SchedulePreference, error) {
	return r.findOne(ctx, bson.M{"enrollmentId": enrollmentID})
}

// GetByUserID lists every schedule owned by userID, newest first.
func (r *mongoScheduleRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.SchedulePreference, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var prefs []domain.SchedulePreference
	if err = cursor.All(ctx, &prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// DeleteByEnrollmentID removes the enrollment's preference record, if any.
func (r *mongoScheduleRepository) DeleteByEnrollmentID(ctx context.Context, enrollmentID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"enrollmentId": enrollmentID})
	return err
}

func (r *mongoScheduleRepository) findOne(ctx context.Context, filter bson.M) (*domain.SchedulePreference, error) {
	var pref domain.SchedulePreference
	err := r.collection.FindOne(ctx, filter).Decode(&pref)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &pref, nil
}

// EnsureScheduleIndexes creates necessary indexes. Call during startup.
func EnsureScheduleIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Exactly one preference record per enrollment
			Keys:    bson.D{{Key: "enrollmentId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
