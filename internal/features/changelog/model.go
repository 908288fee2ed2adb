package changelog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Action string

const (
	ActionAssociate  Action = "associate"
	ActionDissociate Action = "dissociate"
	ActionSwap       Action = "swap"
)

// Entry is one append-only record of an association change. BulkOperationID is
// empty for manual changes made outside any batch.
type Entry struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DeviceID         string             `bson:"device_id" json:"device_id"`
	AssetID          string             `bson:"asset_id,omitempty" json:"asset_id,omitempty"`
	Action           Action             `bson:"action" json:"action"`
	PreviousAssetID  string             `bson:"previous_asset_id,omitempty" json:"previous_asset_id,omitempty"`
	PreviousDeviceID string             `bson:"previous_device_id,omitempty" json:"previous_device_id,omitempty"`
	PerformedBy      string             `bson:"performed_by" json:"performed_by"`
	BulkOperationID  string             `bson:"bulk_operation_id,omitempty" json:"bulk_operation_id,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
}

// Filter narrows listing; zero values match everything.
type Filter struct {
	DeviceID        string
	BulkOperationID string
}
