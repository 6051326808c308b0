package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const (
	usersCollection           = "users"
	recommendationsCollection = "recommendations"
)

// Open connects to the deployment at uri, verifies it with a ping and returns the named database.
func Open(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	if database == "" {
		return nil, nil, fmt.Errorf("database name is required")
	}

	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(database), nil
}
