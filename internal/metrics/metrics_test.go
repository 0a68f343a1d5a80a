package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ClickRequest("prepare", 0)
	m.ClickRequest("prepare", 0)
	m.ClickRequest("complete", -4)
	m.PaymeWebhook("settled")
	m.LeasesExpired(3)
	m.LeasesExpired(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.clickRequests.WithLabelValues("prepare", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clickRequests.WithLabelValues("complete", "-4")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymeWebhooks.WithLabelValues("settled")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.leasesExpired))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ClickRequest("prepare", 0)
		m.PaymeWebhook("ok")
		m.CentralCall("ok")
		m.LeasesExpired(1)
		m.ObserveDebtSummary(0.1)
	})
}
