package bulkop

import (
	"context"
	"time"

	"go-assetlink/internal/config"
	"go-assetlink/internal/features/changelog"
	"go-assetlink/internal/features/device"

	"go.uber.org/zap"
)

type BulkOperationService interface {
	// Validate checks rows against current repository state without mutating
	// anything and persists the resulting operation in status Validated.
	Validate(ctx context.Context, rows []AssociationRow, createdBy string) (*ValidationReport, error)

	// Confirm executes a Validated operation to a terminal status.
	Confirm(ctx context.Context, opID string, performedBy string) (*BulkOperation, error)

	// Cancel discards a Validated operation that was never confirmed.
	Cancel(ctx context.Context, opID string) error

	// Undo reverts a Completed operation while its undo window is open.
	Undo(ctx context.Context, opID string, performedBy string) (*BulkOperation, error)

	GetOperation(ctx context.Context, opID string) (*BulkOperation, error)
	ListOperations(ctx context.Context, limit int64) ([]BulkOperation, error)
	ListItems(ctx context.Context, opID string) ([]BulkOperationItem, error)
}

type BulkOperationServiceImpl struct {
	OpRepo     OperationRepository
	Assoc      device.AssociationRepository
	ChangeLog  changelog.ChangeLogService
	Logger     *zap.Logger
	undoWindow time.Duration
	now        func() time.Time
}

func NewBulkOperationService(
	opRepo OperationRepository,
	assoc device.AssociationRepository,
	changeLog changelog.ChangeLogService,
	logger *zap.Logger,
	cfg *config.Config,
) BulkOperationService {
	return &BulkOperationServiceImpl{
		OpRepo:     opRepo,
		Assoc:      assoc,
		ChangeLog:  changeLog,
		Logger:     logger,
		undoWindow: time.Duration(cfg.UndoWindowMinutes) * time.Minute,
		now:        time.Now,
	}
}

func (s *BulkOperationServiceImpl) Cancel(ctx context.Context, opID string) error {
	_, err := s.OpRepo.TransitionStatus(ctx, opID, StatusValidated, StatusCancelled)
	if err != nil {
		return err
	}
	s.Logger.Info("bulk operation cancelled", zap.String("operation_id", opID))
	return nil
}

func (s *BulkOperationServiceImpl) GetOperation(ctx context.Context, opID string) (*BulkOperation, error) {
	return s.OpRepo.Get(ctx, opID)
}

func (s *BulkOperationServiceImpl) ListOperations(ctx context.Context, limit int64) ([]BulkOperation, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return s.OpRepo.List(ctx, limit)
}

func (s *BulkOperationServiceImpl) ListItems(ctx context.Context, opID string) ([]BulkOperationItem, error) {
	if _, err := s.OpRepo.Get(ctx, opID); err != nil {
		return nil, err
	}
	return s.OpRepo.ListItems(ctx, opID)
}
