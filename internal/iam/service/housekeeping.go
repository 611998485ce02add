package service

import (
	"log/slog"
	"time"
)

// Sweeper is implemented by caches that can evict expired entries eagerly.
// Correctness does not depend on sweeping; entries are checked lazily on
// read. Sweeping just keeps memory bounded under token churn.
type Sweeper interface {
	Sweep() int
}

// HousekeepingService periodically sweeps expired revocation entries so the
// in-memory blacklist does not grow without bound.
type HousekeepingService struct {
	Cache    Sweeper
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(cache Sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Cache:    cache,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop() to shut
// down gracefully.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the background worker, blocking until any in-progress
// sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := s.Cache.Sweep()
			s.Logger.Debug("swept revocation cache", "removed", removed)
		case <-s.stopCh:
			return
		}
	}
}
