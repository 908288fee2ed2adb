package bulkop

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const (
	msgMissingIdentifier = "missing identifier"
	msgDeviceNotFound    = "device not found"
	msgAssetNotFound     = "asset not found"
	msgAlreadyAssociated = "no-op, already associated"
)

// Validate applies the per-row rules in row order against current repository
// state. It only reads; the authoritative check is repeated at execution time,
// so two overlapping validations are safe to run concurrently.
func (s *BulkOperationServiceImpl) Validate(ctx context.Context, rows []AssociationRow, createdBy string) (*ValidationReport, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}

	op := &BulkOperation{
		EntityType: EntityDeviceAsset,
		Status:     StatusValidated,
		TotalItems: len(rows),
		CreatedBy:  createdBy,
	}

	report := &ValidationReport{Operation: op}
	items := make([]BulkOperationItem, 0, len(rows))

	for i, row := range rows {
		item := BulkOperationItem{
			RowNumber: i + 1,
			DeviceID:  strings.TrimSpace(row.DeviceID),
			AssetID:   strings.TrimSpace(row.AssetID),
		}

		status, message, err := s.checkRow(ctx, item.DeviceID, item.AssetID)
		if err != nil {
			return nil, err
		}

		item.Status = status
		item.ErrorMessage = message
		switch status {
		case ItemPending:
			report.ValidCount++
		case ItemError:
			report.InvalidCount++
		case ItemSkipped:
			report.SkippedCount++
		}
		items = append(items, item)
	}

	if err := s.OpRepo.Create(ctx, op, items); err != nil {
		return nil, err
	}
	report.Items = items

	s.Logger.Info("bulk operation validated",
		zap.String("operation_id", op.ID.Hex()),
		zap.Int("total", op.TotalItems),
		zap.Int("valid", report.ValidCount),
		zap.Int("invalid", report.InvalidCount),
		zap.Int("skipped", report.SkippedCount),
	)

	return report, nil
}

// checkRow evaluates the validation rules; the first failing rule wins.
// A Pending result means the row is actionable.
func (s *BulkOperationServiceImpl) checkRow(ctx context.Context, deviceID, assetID string) (ItemStatus, string, error) {
	if deviceID == "" || assetID == "" {
		return ItemError, msgMissingIdentifier, nil
	}

	exists, err := s.Assoc.DeviceExists(ctx, deviceID)
	if err != nil {
		return "", "", err
	}
	if !exists {
		return ItemError, msgDeviceNotFound, nil
	}

	exists, err = s.Assoc.AssetExists(ctx, assetID)
	if err != nil {
		return "", "", err
	}
	if !exists {
		return ItemError, msgAssetNotFound, nil
	}

	current, err := s.Assoc.GetCurrentAssociation(ctx, deviceID)
	if err != nil {
		return "", "", err
	}
	if current == assetID {
		return ItemSkipped, msgAlreadyAssociated, nil
	}

	return ItemPending, "", nil
}
