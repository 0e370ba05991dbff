package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSnapshotRepository keeps one raw upstream document per airport-day
type MongoSnapshotRepository struct {
	collection *mongo.Collection
}

// NewMongoSnapshotRepository creates a new snapshot repository
func NewMongoSnapshotRepository(db *mongo.Database) repository.SnapshotRepository {
	collection := db.Collection("daily_flights")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// One document per date and airport
	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "date", Value: 1},
				{Key: "airport", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.M{"fetchedAt": -1},
		},
	})

	return &MongoSnapshotRepository{
		collection: collection,
	}
}

// Save replaces the stored snapshot of the same airport-day
func (r *MongoSnapshotRepository) Save(ctx context.Context, snapshot *entity.RawSnapshot) error {
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now().UTC()
	}

	filter := bson.M{"date": snapshot.Date, "airport": snapshot.Airport}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection.ReplaceOne(ctx, filter, snapshot, opts); err != nil {
		return fmt.Errorf("failed to store snapshot %s/%s: %w", snapshot.Airport, snapshot.Date, err)
	}
	return nil
}

// FindByDate finds the snapshot of one airport-day
func (r *MongoSnapshotRepository) FindByDate(ctx context.Context, date, airport string) (*entity.RawSnapshot, error) {
	var snapshot entity.RawSnapshot
	err := r.collection.FindOne(ctx, bson.M{"date": date, "airport": airport}).Decode(&snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}
