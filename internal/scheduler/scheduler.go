// Package scheduler fires the hourly sample job inside the server process.
// The job is idempotent per hour, so overlapping external triggers are safe.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"artprint-backend/internal/models"
)

type SampleGenerator interface {
	GenerateHourlySample(ctx context.Context, now time.Time) (*models.Artwork, error)
}

type Scheduler struct {
	gen     SampleGenerator
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
	// wait returns how long to sleep before the next run.
	wait func(now time.Time) time.Duration

	wg sync.WaitGroup
}

func New(gen SampleGenerator, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		gen:     gen,
		logger:  logger,
		timeout: time.Minute,
		now:     time.Now,
		wait:    UntilNextHour,
	}
}

// Start runs the job once immediately and then at the top of every hour
// until ctx is canceled. Wait blocks until the loop has exited.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunOnce(ctx)
		for {
			timer := time.NewTimer(s.wait(s.now()))
			select {
			case <-timer.C:
				s.RunOnce(ctx)
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// RunOnce generates the sample for the current hour. Errors are logged; the
// next tick retries.
func (s *Scheduler) RunOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now()
	art, err := s.gen.GenerateHourlySample(runCtx, now)
	if err != nil {
		s.logger.Error("hourly sample failed", zap.Time("at", now), zap.Error(err))
		return
	}
	s.logger.Info("hourly sample ready", zap.String("artwork_id", art.ID), zap.String("trigger", "scheduler"))
}

// UntilNextHour returns the delay to just after the next UTC hour boundary.
func UntilNextHour(now time.Time) time.Duration {
	next := now.UTC().Truncate(time.Hour).Add(time.Hour + 5*time.Second)
	return next.Sub(now)
}
