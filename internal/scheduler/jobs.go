package scheduler

import (
	"context"
	"log/slog"
	"time"

	"marketplace-backend/internal/metrics"
)

const defaultJobTimeout = 5 * time.Minute

// LeaseExpirer deactivates leases whose expiry date has passed.
type LeaseExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// Jobs holds the scheduled units of work.
type Jobs struct {
	Leases  LeaseExpirer
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Timeout time.Duration
}

// ExpireLeases is the daily lease-expiry sweep.
func (j Jobs) ExpireLeases() {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	started := time.Now()
	n, err := j.Leases.ExpireOverdue(ctx)
	if err != nil {
		j.logger().Error("lease expiry sweep failed", "err", err)
		return
	}
	j.Metrics.LeasesExpired(n)
	j.logger().Info("lease expiry sweep done", "expired", n, "duration_ms", time.Since(started).Milliseconds())
}

func (j Jobs) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
