package maintenance

import (
	"context"
	"time"

	"go-assetlink/internal/config"
	"go-assetlink/internal/features/bulkop"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OperationPurger is the slice of the operation store the purge job needs.
type OperationPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time, statuses []bulkop.OperationStatus) (int64, error)
}

// Service removes terminal operations once they age past the retention
// window. Validated and Processing operations are never purged.
type Service struct {
	Ops       OperationPurger
	Logger    *zap.Logger
	retention time.Duration
	scheduler *cron.Cron
}

func NewService(ops bulkop.OperationRepository, logger *zap.Logger, cfg *config.Config) *Service {
	return &Service{
		Ops:       ops,
		Logger:    logger,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
	}
}

func (s *Service) Start(ctx context.Context) error {
	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc("@hourly", s.runPurge); err != nil {
		return err
	}
	s.scheduler.Start()
	s.Logger.Info("retention purge scheduled", zap.Duration("retention", s.retention))
	return nil
}

func (s *Service) Stop() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return nil
}

func (s *Service) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := s.Purge(ctx, time.Now()); err != nil {
		s.Logger.Error("retention purge failed", zap.Error(err))
	}
}

// Purge deletes terminal operations created before now minus the retention
// window and reports how many were removed.
func (s *Service) Purge(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.retention)
	statuses := []bulkop.OperationStatus{
		bulkop.StatusCompleted,
		bulkop.StatusFailed,
		bulkop.StatusCancelled,
		bulkop.StatusUndone,
	}

	deleted, err := s.Ops.DeleteOlderThan(ctx, cutoff, statuses)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.Logger.Info("purged expired operations", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}
