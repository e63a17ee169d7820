package scheduler

import (
	"context"
	"fmt"
	"time"

	"finlearn/internal/logger"

	"github.com/go-co-op/gocron"
)

const purgeTimeout = 30 * time.Second

// TokenPurger removes emailed tokens that can no longer be used
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// Scheduler manages scheduled housekeeping tasks
type Scheduler struct {
	scheduler *gocron.Scheduler
	purger    TokenPurger
	log       *logger.Logger
}

// New creates a new scheduler instance
func New(purger TokenPurger, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		purger:    purger,
		log:       log.With("component", "scheduler"),
	}
}

// Start registers the jobs and runs them in the background
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Hour().Do(s.PurgeTokens); err != nil {
		return fmt.Errorf("failed to schedule token purge: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// PurgeTokens deletes expired and consumed auth tokens
func (s *Scheduler) PurgeTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := s.purger.PurgeExpiredTokens(ctx)
	if err != nil {
		s.log.Error("token purge failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("purged auth tokens", "count", n)
	}
}
