// internal/repository/mongo/program_workout_repo.go
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

const programWorkoutCollectionName = "program_workouts"

// mongoProgramWorkoutRepository implements repository.ProgramWorkoutRepository
type mongoProgramWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoProgramWorkoutRepository creates a new ProgramWorkout repository.
func NewMongoProgramWorkoutRepository(db *mongo.Database) repository.ProgramWorkoutRepository {
	return &mongoProgramWorkoutRepository{
		collection: db.Collection(programWorkoutCollectionName),
	}
}

// Create inserts a new program workout.
func (r *mongoProgramWorkoutRepository) Create(ctx context.Context, workout *domain.ProgramWorkout) (primitive.ObjectID, error) {
	if workout.ProgramID == primitive.NilObjectID || workout.Name == "" {
		return primitive.NilObjectID, errors.New("program workout requires programId and name")
	}
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted program workout ID")
	}
	return insertedID, nil
}

// GetByProgramID retrieves all workouts of a program in program order.
func (r *mongoProgramWorkoutRepository) GetByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramWorkout, error) {
	var workouts []domain.ProgramWorkout
	filter := bson.M{"programId": programID}
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}, {Key: "dayNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// EnsureProgramWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureProgramWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// One workout per (program, week, day) slot
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "weekNumber", Value: 1}, {Key: "dayNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
