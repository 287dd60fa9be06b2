//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"jsonbin/pkg/client"
)

const (
	ConnectionTimeout   = 10 * time.Second
	DocumentsCollection = "documents"
)

// MongoHelper gives tests direct access to the database behind the server.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	mc, err := client.ConnectMongo(context.Background(), mongoURI, ConnectionTimeout)
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   mc,
		Database: mc.Database(dbName),
		DBName:   dbName,
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// DropDatabase removes everything the test wrote.
func (m *MongoHelper) DropDatabase(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Database.Drop(ctx); err != nil {
		t.Fatalf("failed to drop database %s: %v", m.DBName, err)
	}
}

func (m *MongoHelper) CountDocuments(t *testing.T) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.Database.Collection(DocumentsCollection).CountDocuments(ctx, bson.D{})
	if err != nil {
		t.Fatalf("failed to count documents: %v", err)
	}
	return count
}

// FindRaw returns the stored record for id, including _id.
func (m *MongoHelper) FindRaw(t *testing.T, id string) bson.M {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out bson.M
	if err := m.Database.Collection(DocumentsCollection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&out); err != nil {
		t.Fatalf("failed to find document %s: %v", id, err)
	}
	return out
}
