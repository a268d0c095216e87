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

const enrollmentCollectionName = "enrollments"

type mongoEnrollmentRepository struct {
	collection *mongo.Collection
}

// NewMongoEnrollmentRepository creates a new Enrollment repository.
func NewMongoEnrollmentRepository(db *mongo.Database) repository.EnrollmentRepository {
	return &mongoEnrollmentRepository{
		collection: db.Collection(enrollmentCollectionName),
	}
}

func (r *mongoEnrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error) {
	if enrollment.UserID == primitive.NilObjectID || enrollment.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("enrollment requires userId and programId")
	}
	enrollment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, enrollment)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted enrollment ID")
	}
	return insertedID, nil
}

func (r *mongoEnrollmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&enrollment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// GetByUserID lists a user's enrollments, newest first.
func (r *mongoEnrollmentRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Enrollment, error) {
	var enrollments []domain.Enrollment
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *mongoEnrollmentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureEnrollmentIndexes creates necessary indexes. Call during startup.
func EnsureEnrollmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
