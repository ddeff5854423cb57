package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoClient wraps a connected client and the service database
type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// OpenMongo connects and pings the server at uri
func OpenMongo(ctx context.Context, uri, database string) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoClient{Client: client, Database: client.Database(database)}, nil
}

// Close disconnects the client
func (m *MongoClient) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// Ping checks the primary is reachable
func (m *MongoClient) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}
