package changelog

import (
	"context"
	"time"

	"go-assetlink/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChangeLogRepository interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter, limit int64) ([]Entry, error)
	EnsureIndexes(ctx context.Context) error
}

type ChangeLogRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewChangeLogRepository(mongodb *database.MongodbDB) ChangeLogRepository {
	return &ChangeLogRepositoryImpl{
		Collection: mongodb.DB.Collection("association_change_log"),
	}
}

func (r *ChangeLogRepositoryImpl) Append(ctx context.Context, entry Entry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.Collection.InsertOne(ctx, entry)
	return err
}

func (r *ChangeLogRepositoryImpl) List(ctx context.Context, filter Filter, limit int64) ([]Entry, error) {
	query := bson.M{}
	if filter.DeviceID != "" {
		query["device_id"] = filter.DeviceID
	}
	if filter.BulkOperationID != "" {
		query["bulk_operation_id"] = filter.BulkOperationID
	}

	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ChangeLogRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "device_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "bulk_operation_id", Value: 1}}},
	})
	return err
}
