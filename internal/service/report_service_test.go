package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/ports"
)

func newReportService(now time.Time) ReportService {
	inactive := monthly(3, 900)
	inactive.IsActive = false
	leases := &stubLeases{byID: map[int64]domain.Lease{
		1: monthly(1, 1000),
		2: monthly(2, 500),
		3: inactive,
	}}
	ledger := stubLedger{paid: map[int64]map[billing.Month]decimal.Decimal{
		1: {
			{Year: 2024, Month: time.January}: decimal.NewFromInt(1000),
			{Year: 2024, Month: time.April}:   decimal.NewFromInt(1000),
		},
	}}
	return ReportService{
		Leases:   leases,
		Debt:     billing.DebtAggregator{Store: ledger, Workers: 2, Location: tashkent},
		Clock:    ports.FixedClock(now),
		Location: tashkent,
	}
}

var april27 = time.Date(2024, time.April, 27, 9, 0, 0, 0, tashkent)

func TestMonthlyReport(t *testing.T) {
	svc := newReportService(april27)
	rep, err := svc.Monthly(context.Background(), billing.Month{Year: 2024, Month: time.April})
	require.NoError(t, err)

	require.Len(t, rep.Rows, 2)
	assert.Equal(t, domain.StatusPaid, rep.Rows[0].Status)
	assert.Equal(t, domain.StatusDue, rep.Rows[1].Status)
	assert.True(t, decimal.NewFromInt(1500).Equal(rep.TotalExpected))
	assert.True(t, decimal.NewFromInt(1000).Equal(rep.TotalPaid))
	assert.Equal(t, 1, rep.StatusCounts[domain.StatusPaid])
	assert.Equal(t, 0, rep.StatusCounts[domain.StatusPartiallyPaid])
}

func TestMonthlyReportPastMonthIsNeverDue(t *testing.T) {
	svc := newReportService(april27)
	rep, err := svc.Monthly(context.Background(), billing.Month{Year: 2024, Month: time.March})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.StatusCounts[domain.StatusUnpaid])
	assert.Equal(t, 0, rep.StatusCounts[domain.StatusDue])
}

func TestMonthlyReportRejectsBadMonth(t *testing.T) {
	svc := newReportService(april27)
	_, err := svc.Monthly(context.Background(), billing.Month{Year: 2024, Month: 13})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDashboard(t *testing.T) {
	svc := newReportService(april27)
	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, d.ActiveLeases)
	assert.Equal(t, billing.Month{Year: 2024, Month: time.April}, d.Month)
	assert.True(t, decimal.NewFromInt(1500).Equal(d.Expected))
	assert.True(t, decimal.NewFromInt(1000).Equal(d.Paid))
	// lease 1 misses February and March, lease 2 has paid nothing
	assert.True(t, decimal.NewFromInt(4000).Equal(d.TotalDebt), d.TotalDebt.String())
	assert.Equal(t, 2, d.DebtorCount)
	require.Len(t, d.TopOverdue, 2)
	assert.Equal(t, int64(1), d.TopOverdue[0].Lease.ID)
}

func TestDebtors(t *testing.T) {
	svc := newReportService(april27)
	debtors, err := svc.Debtors(context.Background())
	require.NoError(t, err)
	require.Len(t, debtors, 2)
	assert.Len(t, debtors[0].Months, 4)
	assert.True(t, decimal.NewFromInt(2000).Equal(debtors[1].Total))
}
