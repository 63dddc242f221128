package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/medkom/dialog-gateway/internal/platform/leaderlock"
)

// Job is one periodic leader-gated task: an outbox sweep, the archive
// dispatcher or the identity reconciliation.
type Job struct {
	Name         string
	LockKey      int64
	InitialDelay time.Duration
	Interval     time.Duration
	Run          func(ctx context.Context) error
}

// Scheduler runs jobs on independent timers. Every tick first takes the
// job's cluster-wide advisory lock; replicas that lose the race skip the
// tick so concurrent sweeps can never race each other's outbox markers.
type Scheduler struct {
	lock   *leaderlock.Lock
	logger *slog.Logger
}

func NewScheduler(lock *leaderlock.Lock, logger *slog.Logger) *Scheduler {
	return &Scheduler{lock: lock, logger: logger}
}

// Start runs the job until ctx is cancelled. It blocks and is meant to be
// launched in its own goroutine. Cancellation is observed between ticks,
// never inside a run.
func (s *Scheduler) Start(ctx context.Context, job Job) {
	logger := s.logger.With("job", job.Name)

	select {
	case <-ctx.Done():
		return
	case <-time.After(job.InitialDelay):
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		s.tick(ctx, job, logger)

		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "scheduler stopping")
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, job Job, logger *slog.Logger) {
	ran, err := s.lock.TryRun(ctx, job.LockKey, func(ctx context.Context) error {
		timer := prometheus.NewTimer(sweepDurationHist.WithLabelValues(job.Name))
		defer timer.ObserveDuration()
		return job.Run(ctx)
	})
	switch {
	case err != nil:
		sweepRunsCounter.WithLabelValues(job.Name, "failed").Inc()
		logger.ErrorContext(ctx, "job run failed", "error", err)
	case !ran:
		sweepRunsCounter.WithLabelValues(job.Name, "skipped_not_leader").Inc()
		logger.DebugContext(ctx, "tick skipped, another replica holds the lease")
	default:
		sweepRunsCounter.WithLabelValues(job.Name, "ran").Inc()
	}
}
