package bulkop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-assetlink/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OperationRepository is the single source of truth for operation status.
// Every status change is a conditional update so concurrent callers cannot
// both win the same transition.
type OperationRepository interface {
	Create(ctx context.Context, op *BulkOperation, items []BulkOperationItem) error
	Get(ctx context.Context, id string) (*BulkOperation, error)
	List(ctx context.Context, limit int64) ([]BulkOperation, error)
	ListItems(ctx context.Context, opID string) ([]BulkOperationItem, error)

	// TransitionStatus flips the operation from `from` to `to` atomically.
	// Returns ErrInvalidOperationState when the current status is not `from`.
	TransitionStatus(ctx context.Context, id string, from, to OperationStatus) (*BulkOperation, error)

	// BeginUndo flips Completed -> Undone, but only while now is still
	// before the undo deadline. The deadline predicate is part of the same
	// conditional update as the status check.
	BeginUndo(ctx context.Context, id string, now time.Time) (*BulkOperation, error)

	UpdateItem(ctx context.Context, item *BulkOperationItem) error
	UpdateProgress(ctx context.Context, id string, processed, success, errorCount, skipped int) error
	Finalize(ctx context.Context, id string, status OperationStatus, undoDeadline *time.Time) error

	// DeleteOlderThan removes operations in the given statuses created
	// before cutoff, cascading their items. Returns the number removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, statuses []OperationStatus) (int64, error)

	EnsureIndexes(ctx context.Context) error
}

type OperationRepositoryImpl struct {
	operations *mongo.Collection
	items      *mongo.Collection
}

func NewOperationRepository(db *database.MongodbDB) OperationRepository {
	return &OperationRepositoryImpl{
		operations: db.DB.Collection("bulk_operations"),
		items:      db.DB.Collection("bulk_operation_items"),
	}
}

func (r *OperationRepositoryImpl) Create(ctx context.Context, op *BulkOperation, items []BulkOperationItem) error {
	if op.ID.IsZero() {
		op.ID = primitive.NewObjectID()
	}
	op.CreatedAt = time.Now()
	op.UpdatedAt = time.Now()

	if _, err := r.operations.InsertOne(ctx, op); err != nil {
		return err
	}

	docs := make([]interface{}, 0, len(items))
	for i := range items {
		items[i].ID = primitive.NewObjectID()
		items[i].BulkOperationID = op.ID
		docs = append(docs, items[i])
	}
	if len(docs) == 0 {
		return nil
	}
	_, err := r.items.InsertMany(ctx, docs)
	return err
}

func (r *OperationRepositoryImpl) Get(ctx context.Context, id string) (*BulkOperation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOperationNotFound
	}

	var op BulkOperation
	err = r.operations.FindOne(ctx, bson.M{"_id": objID}).Decode(&op)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOperationNotFound
		}
		return nil, err
	}
	return &op, nil
}

func (r *OperationRepositoryImpl) List(ctx context.Context, limit int64) ([]BulkOperation, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.operations.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ops []BulkOperation
	if err = cursor.All(ctx, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

func (r *OperationRepositoryImpl) ListItems(ctx context.Context, opID string) ([]BulkOperationItem, error) {
	objID, err := primitive.ObjectIDFromHex(opID)
	if err != nil {
		return nil, ErrOperationNotFound
	}

	opts := options.Find().SetSort(bson.D{{Key: "row_number", Value: 1}})
	cursor, err := r.items.Find(ctx, bson.M{"bulk_operation_id": objID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []BulkOperationItem
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *OperationRepositoryImpl) TransitionStatus(ctx context.Context, id string, from, to OperationStatus) (*BulkOperation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOperationNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var op BulkOperation
	err = r.operations.FindOneAndUpdate(ctx,
		bson.M{"_id": objID, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}},
		opts,
	).Decode(&op)
	if err == nil {
		return &op, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Conditional update missed: distinguish unknown id from wrong status.
	current, getErr := r.Get(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: operation is %s, expected %s", ErrInvalidOperationState, current.Status, from)
}

func (r *OperationRepositoryImpl) BeginUndo(ctx context.Context, id string, now time.Time) (*BulkOperation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrOperationNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var op BulkOperation
	err = r.operations.FindOneAndUpdate(ctx,
		bson.M{
			"_id":           objID,
			"status":        StatusCompleted,
			"undo_deadline": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"status": StatusUndone, "updated_at": now}},
		opts,
	).Decode(&op)
	if err == nil {
		return &op, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	current, getErr := r.Get(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: operation is %s, expected %s", ErrInvalidOperationState, current.Status, StatusCompleted)
	}
	return nil, ErrUndoWindowExpired
}

func (r *OperationRepositoryImpl) UpdateItem(ctx context.Context, item *BulkOperationItem) error {
	_, err := r.items.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	return err
}

func (r *OperationRepositoryImpl) UpdateProgress(ctx context.Context, id string, processed, success, errorCount, skipped int) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrOperationNotFound
	}

	_, err = r.operations.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{
		"$set": bson.M{
			"processed_items": processed,
			"success_count":   success,
			"error_count":     errorCount,
			"skipped_count":   skipped,
			"updated_at":      time.Now(),
		},
	})
	return err
}

func (r *OperationRepositoryImpl) Finalize(ctx context.Context, id string, status OperationStatus, undoDeadline *time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrOperationNotFound
	}

	update := bson.M{"status": status, "updated_at": time.Now()}
	if undoDeadline != nil {
		update["undo_deadline"] = undoDeadline
	}

	_, err = r.operations.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": update})
	return err
}

func (r *OperationRepositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time, statuses []OperationStatus) (int64, error) {
	filter := bson.M{
		"status":     bson.M{"$in": statuses},
		"created_at": bson.M{"$lt": cutoff},
	}

	cursor, err := r.operations.Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, err
	}
	var stubs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &stubs); err != nil {
		return 0, err
	}
	if len(stubs) == 0 {
		return 0, nil
	}

	ids := make([]primitive.ObjectID, 0, len(stubs))
	for _, s := range stubs {
		ids = append(ids, s.ID)
	}

	// Items are exclusively owned, so they go with their operation.
	if _, err := r.items.DeleteMany(ctx, bson.M{"bulk_operation_id": bson.M{"$in": ids}}); err != nil {
		return 0, err
	}
	res, err := r.operations.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *OperationRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	if _, err := r.operations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}); err != nil {
		return err
	}
	_, err := r.items.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bulk_operation_id", Value: 1}, {Key: "row_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
