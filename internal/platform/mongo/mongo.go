package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	ColDocuments    = "documents"
	ColMarkups      = "markups"
	ColUploadEvents = "upload_events"
)

var indexes = map[string][]mongo.IndexModel{
	ColDocuments: {{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}},
	ColMarkups: {{
		Keys: bson.D{
			{Key: "document_id", Value: 1},
			{Key: "kind", Value: 1},
			{Key: "markup_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}, {
		Keys: bson.D{
			{Key: "document_id", Value: 1},
			{Key: "kind", Value: 1},
			{Key: "position", Value: 1},
		},
	}},
	ColUploadEvents: {{
		Keys: bson.D{{Key: "document_id", Value: 1}},
	}},
}

// New connects, pings the primary and makes sure the indexes exist.
func New(ctx context.Context, uri, database string, timeout time.Duration) (*mongo.Database, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo failed: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo failed: %w", err)
	}

	db := client.Database(database)
	if err := ensureIndexes(connectCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return db, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for col, models := range indexes {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes failed: %w", col, err)
		}
	}
	return nil
}
