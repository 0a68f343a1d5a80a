package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace-backend/internal/metrics"
)

type stubExpirer struct {
	n     int64
	err   error
	calls int
	gotDL bool
}

func (s *stubExpirer) ExpireOverdue(ctx context.Context) (int64, error) {
	s.calls++
	_, s.gotDL = ctx.Deadline()
	return s.n, s.err
}

func expiredTotal(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "marketplace_scheduler_leases_expired_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatal("expiry counter not registered")
	return 0
}

func TestExpireLeasesCountsExpired(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	exp := &stubExpirer{n: 3}
	Jobs{Leases: exp, Metrics: m}.ExpireLeases()

	assert.Equal(t, 1, exp.calls)
	assert.True(t, exp.gotDL)
	assert.Equal(t, float64(3), expiredTotal(t, reg))
}

func TestExpireLeasesFailureRecordsNothing(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	exp := &stubExpirer{n: 5, err: errors.New("db down")}
	Jobs{Leases: exp, Metrics: m, Timeout: time.Second}.ExpireLeases()

	assert.Equal(t, 1, exp.calls)
	assert.Equal(t, float64(0), expiredTotal(t, reg))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New(Jobs{Leases: &stubExpirer{}}, "not a cron line", time.UTC, nil)
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := New(Jobs{Leases: &stubExpirer{}}, "5 0 * * *", time.FixedZone("UTC+5", 5*3600), nil)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	<-s.Stop().Done()
}
