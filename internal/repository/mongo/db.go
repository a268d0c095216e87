package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI and verifies it with a ping.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// The initial connect can succeed against an unresponsive server, so ping separately.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection this package owns.
// The scheduled_workouts unique index must exist before the service takes traffic.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	steps := []struct {
		collection string
		ensure     func(context.Context, *mongo.Collection) error
	}{
		{userCollectionName, EnsureUserIndexes},
		{programCollectionName, EnsureProgramIndexes},
		{programWorkoutCollectionName, EnsureProgramWorkoutIndexes},
		{enrollmentCollectionName, EnsureEnrollmentIndexes},
		{scheduleCollectionName, EnsureScheduleIndexes},
		{scheduledWorkoutCollectionName, EnsureScheduledWorkoutIndexes},
	}
	for _, step := range steps {
		if err := step.ensure(ctx, db.Collection(step.collection)); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", step.collection, err)
		}
	}
	return nil
}
