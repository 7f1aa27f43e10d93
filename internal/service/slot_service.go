package service

import (
	"context"
	"time"

	"brevio/web/internal/logger"
	"brevio/web/internal/repository"
)

// SlotService maintains server-side session slots.
type SlotService interface {
	// PurgeExpired removes slots whose expiry has passed and returns how many.
	PurgeExpired(ctx context.Context) (int64, error)
}

type slotService struct {
	repo repository.SlotRepository
	now  func() time.Time
}

func NewSlotService(repo repository.SlotRepository) SlotService {
	return &slotService{repo: repo, now: time.Now}
}

func (s *slotService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		logger.Warn("slot purge failed", "module", "service", "action", "delete", "resource", "slot", "result", "failed", "error", err)
		return 0, err
	}
	if n > 0 {
		logger.Info("expired slots purged", "module", "service", "action", "delete", "resource", "slot", "result", "ok", "count", n)
	}
	return n, nil
}
