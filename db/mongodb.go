package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// ConnectMongoDB opens a client and pings the deployment. A bare
// "user:pass@host/db" string is treated as an Atlas SRV address.
func ConnectMongoDB(ctx context.Context, mongoUri string, log *slog.Logger) (*mongo.Client, error) {
	if mongoUri == "" {
		return nil, errors.New("mongo uri not set")
	}
	if !strings.HasPrefix(mongoUri, "mongodb://") && !strings.HasPrefix(mongoUri, "mongodb+srv://") {
		mongoUri = "mongodb+srv://" + mongoUri + "?retryWrites=true&w=majority"
	}

	serverAPIOptions := options.ServerAPI(options.ServerAPIVersion1)
	clientOptions := options.Client().
		ApplyURI(mongoUri).
		SetServerAPIOptions(serverAPIOptions)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	log.Info("mongodb connected")
	return client, nil
}

func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		"tours": {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}},
			{Keys: bson.D{{Key: "slug", Value: 1}}},
			{Keys: bson.D{{Key: "startLocation", Value: "2dsphere"}}},
		},
		"users": {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"reviews": {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "tour", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "tour", Value: 1}}},
		},
	}
}

// EnsureIndexes creates the indexes the stores rely on for uniqueness and
// geo queries. Existing identical indexes are left alone.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	for coll, models := range indexModels() {
		if _, err := database.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}
