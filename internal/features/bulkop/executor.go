package bulkop

import (
	"context"
	"fmt"
	"time"

	"go-assetlink/internal/features/changelog"

	"go.uber.org/zap"
)

// Confirm executes a Validated operation. The Validated -> Processing flip is
// the sole concurrency guard: it is a conditional update, so at most one
// caller ever executes a given operation. Rows run sequentially in rowNumber
// order; a row-level failure is captured on the item and never aborts the
// batch. Only a repository transport error aborts mid-run, leaving the
// operation Processing for manual reconciliation.
func (s *BulkOperationServiceImpl) Confirm(ctx context.Context, opID string, performedBy string) (*BulkOperation, error) {
	op, err := s.OpRepo.TransitionStatus(ctx, opID, StatusValidated, StatusProcessing)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("bulk operation confirmed",
		zap.String("operation_id", opID),
		zap.String("performed_by", performedBy),
		zap.Int("total", op.TotalItems),
	)

	items, err := s.OpRepo.ListItems(ctx, opID)
	if err != nil {
		return nil, err
	}

	var processed, success, errorCount, skipped int
	for i := range items {
		item := &items[i]

		switch item.Status {
		case ItemPending:
			if err := s.executeRow(ctx, op, item, performedBy); err != nil {
				s.Logger.Error("bulk execution aborted",
					zap.String("operation_id", opID),
					zap.Int("row", item.RowNumber),
					zap.Error(err),
				)
				return nil, fmt.Errorf("row %d: %w", item.RowNumber, err)
			}
			if err := s.OpRepo.UpdateItem(ctx, item); err != nil {
				return nil, err
			}
		case ItemError, ItemSkipped:
			// Settled at validation time; only tallied here.
		}

		switch item.Status {
		case ItemSuccess:
			success++
		case ItemError:
			errorCount++
		case ItemSkipped:
			skipped++
		}
		processed++

		// Persist counters row by row so progress is observable mid-run.
		if err := s.OpRepo.UpdateProgress(ctx, opID, processed, success, errorCount, skipped); err != nil {
			return nil, err
		}
	}

	finalStatus := StatusFailed
	var deadline *time.Time
	if success > 0 {
		finalStatus = StatusCompleted
		d := s.now().Add(s.undoWindow)
		deadline = &d
	}
	if err := s.OpRepo.Finalize(ctx, opID, finalStatus, deadline); err != nil {
		return nil, err
	}

	s.Logger.Info("bulk operation finished",
		zap.String("operation_id", opID),
		zap.String("status", string(finalStatus)),
		zap.Int("success", success),
		zap.Int("errors", errorCount),
		zap.Int("skipped", skipped),
	)

	return s.OpRepo.Get(ctx, opID)
}

// executeRow re-checks the row against live state, captures the prior
// association, writes the new one, and appends the audit entry. Semantic
// failures land on the item; only transport errors are returned.
func (s *BulkOperationServiceImpl) executeRow(ctx context.Context, op *BulkOperation, item *BulkOperationItem, performedBy string) error {
	exists, err := s.Assoc.DeviceExists(ctx, item.DeviceID)
	if err != nil {
		return err
	}
	if !exists {
		item.Status = ItemError
		item.ErrorMessage = msgDeviceNotFound
		return nil
	}

	exists, err = s.Assoc.AssetExists(ctx, item.AssetID)
	if err != nil {
		return err
	}
	if !exists {
		item.Status = ItemError
		item.ErrorMessage = msgAssetNotFound
		return nil
	}

	current, err := s.Assoc.GetCurrentAssociation(ctx, item.DeviceID)
	if err != nil {
		return err
	}
	if current == item.AssetID {
		item.Status = ItemSkipped
		item.ErrorMessage = msgAlreadyAssociated
		return nil
	}

	if err := s.Assoc.SetAssociation(ctx, item.DeviceID, item.AssetID); err != nil {
		return err
	}

	action := changelog.ActionAssociate
	if current != "" {
		action = changelog.ActionSwap
	}
	entry := changelog.Entry{
		DeviceID:         item.DeviceID,
		AssetID:          item.AssetID,
		Action:           action,
		PreviousAssetID:  current,
		PreviousDeviceID: item.DeviceID,
		PerformedBy:      performedBy,
		BulkOperationID:  op.ID.Hex(),
	}
	if err := s.ChangeLog.Record(ctx, entry); err != nil {
		return err
	}

	prevDevice := item.DeviceID
	item.PreviousDeviceID = &prevDevice
	if current != "" {
		prevAsset := current
		item.PreviousAssetID = &prevAsset
	}
	item.Status = ItemSuccess
	item.ErrorMessage = ""
	return nil
}
