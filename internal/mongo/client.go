// Package mongo stores the ERM documents (tasks, projects, contacts, events)
// and resolves references into collections owned by other services.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

const (
	collTasks       = "tasks"
	collProjects    = "projects"
	collContacts    = "contacts"
	collEvents      = "events"
	collUsers       = "users"
	collEmployees   = "employees"
	collTeams       = "teams"
	collDepartments = "departments"
)

// Connect opens a client, verifies connectivity and returns the database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(database), nil
}

// Ping reports whether the primary is reachable.
func Ping(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the indexes the repositories query by.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		collTasks: {
			{Keys: bson.D{{Key: "project", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
		},
		collProjects: {
			{Keys: bson.D{{Key: "manager", Value: 1}}},
			{Keys: bson.D{{Key: "department", Value: 1}}},
		},
		collContacts: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		collEvents: {
			{Keys: bson.D{{Key: "date", Value: 1}, {Key: "type", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// translate maps driver errors onto domain errors.
func translate(err error, entity, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return err
}
