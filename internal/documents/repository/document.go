package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	documentserrors "jsonbin/internal/documents/errors"
	"jsonbin/pkg/config"
	mongotx "jsonbin/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const idField = "_id"

type mongoDocumentRepository struct {
	cfg        *config.Config
	client     *mongo.Client
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type DocumentRepository interface {
	Create(ctx context.Context, id string, doc bson.D) error
	Get(ctx context.Context, id string) (bson.D, error)
	Set(ctx context.Context, id string, doc bson.D) error
	Delete(ctx context.Context, id string) error
	UpdateField(ctx context.Context, id string, field string, value any) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
	Ping(ctx context.Context) error
}

func NewMongoDocumentRepository(cfg *config.Config) DocumentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)

	txManager := mongotx.NewDirectManager()
	if cfg.MongoUseTransactions {
		txManager = mongotx.NewTransactionManager(cfg.Client.Mongo)
	}

	return &mongoDocumentRepository{
		cfg:        cfg,
		client:     cfg.Client.Mongo,
		collection: db.Collection(cfg.MongoCollection),
		txManager:  txManager,
	}
}

// withTimeout bounds a single store call by timeout or the caller's deadline,
// whichever comes first. Inside a transaction the SessionContext is returned
// unchanged with a no-op cancel, since wrapping it would drop the session.
func (r *mongoDocumentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoDocumentRepository) Create(ctx context.Context, id string, doc bson.D) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	stored := make(bson.D, 0, len(doc)+1)
	stored = append(stored, bson.E{Key: idField, Value: id})
	stored = append(stored, doc...)

	if _, err := r.collection.InsertOne(ctx, stored); err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *mongoDocumentRepository) Get(ctx context.Context, id string) (bson.D, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc bson.D
	err := r.collection.FindOne(ctx, bson.D{{Key: idField, Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", documentserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return stripID(doc), nil
}

func stripID(doc bson.D) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, e := range doc {
		if e.Key != idField {
			out = append(out, e)
		}
	}
	return out
}

func (r *mongoDocumentRepository) Set(ctx context.Context, id string, doc bson.D) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.ReplaceOne(ctx, bson.D{{Key: idField, Value: id}}, doc)
	if err != nil {
		return fmt.Errorf("failed to replace document: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", documentserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoDocumentRepository) UpdateField(ctx context.Context, id string, field string, value any) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.D{{Key: "$set", Value: bson.D{{Key: field, Value: value}}}}
	result, err := r.collection.UpdateOne(ctx, bson.D{{Key: idField, Value: id}}, update)
	if err != nil {
		return fmt.Errorf("failed to update field %q: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", documentserrors.ErrNotFound, id)
	}
	return nil
}

// Delete succeeds whether or not the document exists.
func (r *mongoDocumentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.D{{Key: idField, Value: id}}); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (r *mongoDocumentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoDocumentRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}
