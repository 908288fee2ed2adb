package bulkop

import (
	"context"
	"fmt"

	"go-assetlink/internal/features/changelog"

	"go.uber.org/zap"
)

// Undo reverts every Success row of a Completed operation back to its
// captured prior state. The Completed -> Undone flip carries the deadline
// predicate in the same conditional update, so a second caller (or a caller
// past the window) fails before any row is touched. Reversal is best-effort
// per row: a row whose live state no longer matches what execution wrote is
// left Success with a conflict note.
func (s *BulkOperationServiceImpl) Undo(ctx context.Context, opID string, performedBy string) (*BulkOperation, error) {
	op, err := s.OpRepo.BeginUndo(ctx, opID, s.now())
	if err != nil {
		return nil, err
	}

	s.Logger.Info("bulk operation undo started",
		zap.String("operation_id", opID),
		zap.String("performed_by", performedBy),
	)

	items, err := s.OpRepo.ListItems(ctx, opID)
	if err != nil {
		return nil, err
	}

	var reverted, conflicts int
	for i := range items {
		item := &items[i]
		if item.Status != ItemSuccess {
			continue
		}

		current, err := s.Assoc.GetCurrentAssociation(ctx, item.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", item.RowNumber, err)
		}
		if current != item.AssetID {
			// Someone changed the link since execution; leave the row as is.
			item.ErrorMessage = fmt.Sprintf("undo conflict: device %s now linked to %q, expected %q",
				item.DeviceID, current, item.AssetID)
			if err := s.OpRepo.UpdateItem(ctx, item); err != nil {
				return nil, err
			}
			conflicts++
			continue
		}

		action := changelog.ActionDissociate
		restoredAsset := ""
		if item.PreviousAssetID != nil && *item.PreviousAssetID != "" {
			restoredAsset = *item.PreviousAssetID
			action = changelog.ActionSwap
			if err := s.Assoc.SetAssociation(ctx, item.DeviceID, restoredAsset); err != nil {
				return nil, fmt.Errorf("row %d: %w", item.RowNumber, err)
			}
		} else {
			if err := s.Assoc.ClearAssociation(ctx, item.DeviceID); err != nil {
				return nil, fmt.Errorf("row %d: %w", item.RowNumber, err)
			}
		}

		entry := changelog.Entry{
			DeviceID:         item.DeviceID,
			AssetID:          restoredAsset,
			Action:           action,
			PreviousAssetID:  item.AssetID,
			PreviousDeviceID: item.DeviceID,
			PerformedBy:      performedBy,
			BulkOperationID:  op.ID.Hex(),
		}
		if err := s.ChangeLog.Record(ctx, entry); err != nil {
			return nil, fmt.Errorf("row %d: %w", item.RowNumber, err)
		}

		item.Status = ItemUndone
		if err := s.OpRepo.UpdateItem(ctx, item); err != nil {
			return nil, err
		}
		reverted++
	}

	s.Logger.Info("bulk operation undone",
		zap.String("operation_id", opID),
		zap.Int("reverted", reverted),
		zap.Int("conflicts", conflicts),
	)

	return s.OpRepo.Get(ctx, opID)
}
