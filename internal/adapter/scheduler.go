package adapter

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSchedulerRunning is returned by Start on a running scheduler
var ErrSchedulerRunning = errors.New("scheduler already running")

// Scheduler runs discovery on startup and then on every interval
type Scheduler struct {
	mu       sync.Mutex
	discover DiscoverFunc
	targets  []string
	interval time.Duration
	logger   *zap.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastRun  time.Time
	lastErr  error
}

// NewScheduler creates a scheduler. It does nothing until Start.
func NewScheduler(discover DiscoverFunc, targets []string, interval time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		discover: discover,
		targets:  targets,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the polling loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrSchedulerRunning
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.run(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("discovery scheduler stopped")
				return
			case <-ticker.C:
				s.run(ctx)
			}
		}
	}()

	s.logger.Info("discovery scheduler started", zap.Duration("interval", s.interval), zap.Strings("targets", s.targets))
	return nil
}

// Stop ends the polling loop and waits for a running discovery to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// LastRun returns when discovery last finished and its error
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

func (s *Scheduler) run(ctx context.Context) {
	refs, err := s.discover(ctx, s.targets)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("scheduled discovery failed", zap.Error(err))
		}
		return
	}
	s.logger.Info("scheduled discovery complete", zap.Int("objects", len(refs)))
}
