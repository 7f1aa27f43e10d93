package scheduler

import (
	"context"
	"sync"
	"time"

	"brevio/web/internal/logger"
	"brevio/web/internal/service"
)

// Scheduler periodically purges expired session slots.
type Scheduler struct {
	slotService service.SlotService
	interval    time.Duration
	stopCh      chan struct{}
	wg          sync.WaitGroup
	cancelFunc  context.CancelFunc // cancels the current purge
	mu          sync.Mutex         // protects cancelFunc
	stopOnce    sync.Once
}

func New(slotService service.SlotService, interval time.Duration) *Scheduler {
	return &Scheduler{
		slotService: slotService,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	logger.Info("scheduler started", "module", "scheduler", "action", "purge", "resource", "slot", "result", "ok", "interval_ms", s.interval.Milliseconds())
}

// Stop cancels an in-flight purge and waits for the loop to exit. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.mu.Unlock()

		close(s.stopCh)
		s.wg.Wait()
		logger.Info("scheduler stopped", "module", "scheduler", "action", "purge", "resource", "slot", "result", "ok")
	})
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	s.purge()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purge()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)

	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	if _, err := s.slotService.PurgeExpired(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Warn("scheduled purge cancelled", "module", "scheduler", "action", "purge", "resource", "slot", "result", "cancelled")
			return
		}
		logger.Error("scheduled purge failed", "module", "scheduler", "action", "purge", "resource", "slot", "result", "failed", "error", err)
	}
}
