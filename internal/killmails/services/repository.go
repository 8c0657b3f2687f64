package services

import (
	"context"
	"time"

	"go-gatewatch/internal/killmails/models"
	"go-gatewatch/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles database operations for enriched killmails
type Repository struct {
	mongodb    *database.MongoDB
	collection *mongo.Collection
}

// NewRepository creates a new killmails repository
func NewRepository(mongodb *database.MongoDB) *Repository {
	return &Repository{
		mongodb:    mongodb,
		collection: mongodb.Database.Collection(models.KillmailsCollection),
	}
}

// CreateIndexes creates the indexes the ingest and query paths rely on
func (r *Repository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "kill_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "killmail.killmail_time", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "killmail.solar_system_id", Value: 1},
				{Key: "killmail.killmail_time", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "ingested_at", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Exists reports whether a killmail with the given ID is already stored
func (r *Repository) Exists(ctx context.Context, killID int64) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"kill_id": killID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByKillID retrieves a single enriched killmail
func (r *Repository) GetByKillID(ctx context.Context, killID int64) (*models.Killmail, error) {
	var killmail models.Killmail
	err := r.collection.FindOne(ctx, bson.M{"kill_id": killID}).Decode(&killmail)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &killmail, nil
}

// CreateMany inserts a batch of enriched killmails. Duplicate kill IDs are
// tolerated: the unique index rejects them and the rest of the batch lands.
func (r *Repository) CreateMany(ctx context.Context, killmails []models.Killmail) error {
	if len(killmails) == 0 {
		return nil
	}

	docs := make([]interface{}, len(killmails))
	for i := range killmails {
		docs[i] = killmails[i]
	}

	opts := options.InsertMany().SetOrdered(false)
	_, err := r.collection.InsertMany(ctx, docs, opts)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// GetRecent returns the most recently ingested killmails
func (r *Repository) GetRecent(ctx context.Context, limit int) ([]models.Killmail, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "ingested_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var killmails []models.Killmail
	if err := cursor.All(ctx, &killmails); err != nil {
		return nil, err
	}
	return killmails, nil
}

// GetBySystemSince returns killmails in a solar system newer than the given time
func (r *Repository) GetBySystemSince(ctx context.Context, systemID int64, since time.Time, limit int) ([]models.Killmail, error) {
	filter := bson.M{
		"killmail.solar_system_id": systemID,
		"killmail.killmail_time":   bson.M{"$gte": since},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "killmail.killmail_time", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var killmails []models.Killmail
	if err := cursor.All(ctx, &killmails); err != nil {
		return nil, err
	}
	return killmails, nil
}

// DeleteOlderThan removes killmails whose kill time predates the cutoff.
// Used by the scheduled retention cleanup.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"killmail.killmail_time": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// CountKillmails returns the total number of stored killmails
func (r *Repository) CountKillmails(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
