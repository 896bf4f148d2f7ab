package scheduler

import (
	"context"
	"log/slog"
	"time"

	"news_scraper/internal/domain"
)

// Runner is one full scrape pass.
type Runner interface {
	Run(ctx context.Context) (*domain.Stats, error)
}

// Scheduler re-runs the pass on a fixed interval. The pass converges on
// re-application, so overlapping schedules only cost time.
type Scheduler struct {
	runner      Runner
	interval    time.Duration
	passTimeout time.Duration
	logger      *slog.Logger
}

func New(runner Runner, interval, passTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:      runner,
		interval:    interval,
		passTimeout: passTimeout,
		logger:      logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runPass(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

func (s *Scheduler) runPass(ctx context.Context) {
	passCtx, cancel := context.WithTimeout(ctx, s.passTimeout)
	defer cancel()

	if _, err := s.runner.Run(passCtx); err != nil {
		s.logger.Error("pass failed", "error", err)
	}
}
