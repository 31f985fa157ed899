package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stockledger/internal/domain/models"
)

// DefaultHistoryLimit caps ListRunReports when the caller passes zero.
const DefaultHistoryLimit = 20

// Repository defines the interface for run audit storage.
type Repository interface {
	SaveRunReport(ctx context.Context, report models.RunReport) error
	ListRunReports(ctx context.Context, limit int64) ([]models.RunReport, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "run_reports",
	}

	index := mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}
	if _, err := repo.collection().Indexes().CreateOne(ctx, index); err != nil {
		return nil, fmt.Errorf("failed to create run_reports index: %w", err)
	}
	return repo, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveRunReport stores the audit record of one rebuild.
func (r *MongoDBRepository) SaveRunReport(ctx context.Context, report models.RunReport) error {
	if _, err := r.collection().InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert run report: %w", err)
	}
	return nil
}

// ListRunReports returns the most recent runs, newest first.
func (r *MongoDBRepository) ListRunReports(ctx context.Context, limit int64) ([]models.RunReport, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	opts := historyOptions(limit)

	cursor, err := r.collection().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query run reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []models.RunReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, fmt.Errorf("failed to decode run reports: %w", err)
	}
	return reports, nil
}

func historyOptions(limit int64) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
