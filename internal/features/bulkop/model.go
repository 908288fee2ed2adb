package bulkop

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OperationStatus string

const (
	StatusValidated  OperationStatus = "validated"
	StatusProcessing OperationStatus = "processing"
	StatusCompleted  OperationStatus = "completed"
	StatusFailed     OperationStatus = "failed"
	StatusCancelled  OperationStatus = "cancelled"
	StatusUndone     OperationStatus = "undone"
)

// IsTerminal reports whether no further transitions are possible.
func (s OperationStatus) IsTerminal() bool {
	switch s {
	case StatusFailed, StatusCancelled, StatusUndone:
		return true
	case StatusCompleted:
		// Completed still admits Undo while the window is open, but it is
		// terminal as far as execution goes.
		return true
	}
	return false
}

type EntityType string

const (
	EntityDeviceAsset EntityType = "device_asset"
)

type ItemStatus string

const (
	ItemPending ItemStatus = "pending"
	ItemSuccess ItemStatus = "success"
	ItemError   ItemStatus = "error"
	ItemSkipped ItemStatus = "skipped"
	ItemUndone  ItemStatus = "undone"
)

// BulkOperation is one tracked batch of association changes
type BulkOperation struct {
	ID             primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	EntityType     EntityType             `json:"entity_type" bson:"entity_type"`
	Status         OperationStatus        `json:"status" bson:"status"`
	TotalItems     int                    `json:"total_items" bson:"total_items"`
	ProcessedItems int                    `json:"processed_items" bson:"processed_items"`
	SuccessCount   int                    `json:"success_count" bson:"success_count"`
	ErrorCount     int                    `json:"error_count" bson:"error_count"`
	SkippedCount   int                    `json:"skipped_count" bson:"skipped_count"`
	CreatedBy      string                 `json:"created_by,omitempty" bson:"created_by,omitempty"`
	UndoDeadline   *time.Time             `json:"undo_deadline,omitempty" bson:"undo_deadline,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at" bson:"updated_at"`
}

// BulkOperationItem records one row's fate within a batch. Previous* fields
// capture the state immediately before the row was applied and exist only so
// undo can restore it.
type BulkOperationItem struct {
	ID               primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	BulkOperationID  primitive.ObjectID     `json:"bulk_operation_id" bson:"bulk_operation_id"`
	RowNumber        int                    `json:"row_number" bson:"row_number"`
	DeviceID         string                 `json:"device_id,omitempty" bson:"device_id,omitempty"`
	AssetID          string                 `json:"asset_id,omitempty" bson:"asset_id,omitempty"`
	PreviousDeviceID *string                `json:"previous_device_id,omitempty" bson:"previous_device_id,omitempty"`
	PreviousAssetID  *string                `json:"previous_asset_id,omitempty" bson:"previous_asset_id,omitempty"`
	Status           ItemStatus             `json:"status" bson:"status"`
	ErrorMessage     string                 `json:"error_message,omitempty" bson:"error_message,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// AssociationRow is one raw submitted pair, already structurally parsed
type AssociationRow struct {
	DeviceID string `json:"device_id"`
	AssetID  string `json:"asset_id"`
}

// ValidationReport is the side-effect-free outcome of validating a batch
type ValidationReport struct {
	Operation    *BulkOperation      `json:"operation"`
	Items        []BulkOperationItem `json:"items"`
	ValidCount   int                 `json:"valid_count"`
	InvalidCount int                 `json:"invalid_count"`
	SkippedCount int                 `json:"skipped_count"`
}
