package device

import (
	"context"
	"errors"
	"time"

	"go-assetlink/internal/config"
	"go-assetlink/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("not found")

// AssociationRepository is the read/write surface the bulk engine needs over
// device-asset links. Returned asset ids are empty when no link exists.
type AssociationRepository interface {
	DeviceExists(ctx context.Context, deviceID string) (bool, error)
	AssetExists(ctx context.Context, assetID string) (bool, error)
	GetCurrentAssociation(ctx context.Context, deviceID string) (string, error)
	SetAssociation(ctx context.Context, deviceID, assetID string) error
	ClearAssociation(ctx context.Context, deviceID string) error
}

// Repository adds the CRUD surface used by the device/asset endpoints.
type Repository interface {
	AssociationRepository

	CreateDevice(ctx context.Context, d *Device) error
	GetDevice(ctx context.Context, id string) (*Device, error)
	ListDevices(ctx context.Context, limit int64) ([]Device, error)
	CreateAsset(ctx context.Context, a *Asset) error
	GetAsset(ctx context.Context, id string) (*Asset, error)
	ListAssets(ctx context.Context, limit int64) ([]Asset, error)
	EnsureSchema(ctx context.Context) error
}

// NewRepository picks the backing store from config.
func NewRepository(cfg *config.Config, mongodb *database.MongodbDB, pg *database.PostgresDB) Repository {
	if cfg.DBDriver == "postgres" {
		return NewPostgresRepository(pg)
	}
	return NewMongoRepository(mongodb)
}

type MongoRepository struct {
	devices *mongo.Collection
	assets  *mongo.Collection
}

func NewMongoRepository(db *database.MongodbDB) *MongoRepository {
	return &MongoRepository{
		devices: db.DB.Collection("devices"),
		assets:  db.DB.Collection("assets"),
	}
}

func (r *MongoRepository) DeviceExists(ctx context.Context, deviceID string) (bool, error) {
	count, err := r.devices.CountDocuments(ctx, bson.M{"_id": deviceID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoRepository) AssetExists(ctx context.Context, assetID string) (bool, error) {
	count, err := r.assets.CountDocuments(ctx, bson.M{"_id": assetID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoRepository) GetCurrentAssociation(ctx context.Context, deviceID string) (string, error) {
	var d Device
	err := r.devices.FindOne(ctx, bson.M{"_id": deviceID}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", err
	}
	return d.AssetID, nil
}

func (r *MongoRepository) SetAssociation(ctx context.Context, deviceID, assetID string) error {
	res, err := r.devices.UpdateOne(ctx, bson.M{"_id": deviceID}, bson.M{
		"$set": bson.M{
			"asset_id":   assetID,
			"updated_at": time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ClearAssociation(ctx context.Context, deviceID string) error {
	res, err := r.devices.UpdateOne(ctx, bson.M{"_id": deviceID}, bson.M{
		"$unset": bson.M{"asset_id": ""},
		"$set":   bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) CreateDevice(ctx context.Context, d *Device) error {
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()
	_, err := r.devices.InsertOne(ctx, d)
	return err
}

func (r *MongoRepository) GetDevice(ctx context.Context, id string) (*Device, error) {
	var d Device
	err := r.devices.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *MongoRepository) ListDevices(ctx context.Context, limit int64) ([]Device, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.devices.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var devices []Device
	if err = cursor.All(ctx, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func (r *MongoRepository) CreateAsset(ctx context.Context, a *Asset) error {
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	_, err := r.assets.InsertOne(ctx, a)
	return err
}

func (r *MongoRepository) GetAsset(ctx context.Context, id string) (*Asset, error) {
	var a Asset
	err := r.assets.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *MongoRepository) ListAssets(ctx context.Context, limit int64) ([]Asset, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.assets.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assets []Asset
	if err = cursor.All(ctx, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *MongoRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.devices.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "asset_id", Value: 1}},
	})
	return err
}
