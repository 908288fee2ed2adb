package changelog

import (
	"context"
)

type ChangeLogService interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter, limit int64) ([]Entry, error)
}

type ChangeLogServiceImpl struct {
	Repo ChangeLogRepository
}

func NewChangeLogService(repo ChangeLogRepository) ChangeLogService {
	return &ChangeLogServiceImpl{Repo: repo}
}

func (s *ChangeLogServiceImpl) Record(ctx context.Context, entry Entry) error {
	return s.Repo.Append(ctx, entry)
}

func (s *ChangeLogServiceImpl) List(ctx context.Context, filter Filter, limit int64) ([]Entry, error) {
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	return s.Repo.List(ctx, filter, limit)
}
