package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"jsonbin/pkg/logger"
)

// DocumentValidator only constrains the identifier; document bodies are opaque.
var DocumentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id": bson.M{"bsonType": "string", "minLength": 1},
		},
	},
}

// RunMigration creates the documents collection up front, which multi-document
// transactions need on servers that cannot create collections inside one.
func RunMigration(ctx context.Context, db *mongo.Database, collection string, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name(), "collection", collection)

	if err := ensureCollection(ctx, db, collection, DocumentValidator, log); err != nil {
		return fmt.Errorf("failed to ensure collection %s: %w", collection, err)
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}
