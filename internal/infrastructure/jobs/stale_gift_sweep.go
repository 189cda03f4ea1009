package jobs

import (
	"context"
	"sync"
	"time"

	"giftchain.backend/pkg/logger"
	"go.uber.org/zap"
)

// StaleGiftStore deletes unverified gifts older than a cutoff
type StaleGiftStore interface {
	DeleteStaleUnverified(ctx context.Context, sender string, cutoff time.Time) (int64, error)
}

// StaleGiftSweepJob removes unverified gifts nobody paid for
type StaleGiftSweepJob struct {
	repo     StaleGiftStore
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewStaleGiftSweepJob(repo StaleGiftStore, ttl, interval time.Duration) *StaleGiftSweepJob {
	if interval <= 0 {
		interval = time.Hour
	}
	return &StaleGiftSweepJob{
		repo:     repo,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (j *StaleGiftSweepJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting stale gift sweep job",
		zap.Duration("ttl", j.ttl),
		zap.Duration("interval", j.interval),
	)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Stale gift sweep job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Stale gift sweep job stopped")
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *StaleGiftSweepJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *StaleGiftSweepJob) sweep(ctx context.Context) {
	if j.ttl <= 0 {
		return
	}
	cutoff := j.now().Add(-j.ttl).UTC()
	deleted, err := j.repo.DeleteStaleUnverified(ctx, "", cutoff)
	if err != nil {
		logger.Error(ctx, "Failed to delete stale unverified gifts", zap.Error(err))
		return
	}
	if deleted == 0 {
		return
	}
	logger.Info(ctx, "Deleted stale unverified gifts",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff),
	)
}
