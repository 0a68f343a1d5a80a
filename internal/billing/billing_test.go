package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace-backend/internal/domain"
)

func fee(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func monthlyLease(total int64) domain.Lease {
	return domain.Lease{
		ID:              1,
		ShopMonthlyFee:  fee(total),
		PaymentInterval: domain.IntervalMonthly,
		IssueDate:       time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		IsActive:        true,
	}
}

func dailyLease(total int64) domain.Lease {
	l := monthlyLease(total)
	l.PaymentInterval = domain.IntervalDaily
	return l
}

func paidTx(amount int64, at time.Time) domain.Transaction {
	return domain.Transaction{Amount: decimal.NewFromInt(amount), Status: domain.TransactionPaid, CreatedAt: at}
}

func TestMonth_Workdays(t *testing.T) {
	tests := []struct {
		month Month
		want  int
	}{
		{Month{2024, time.April}, 26},
		{Month{2024, time.February}, 25},
		{Month{2023, time.February}, 24},
		{Month{2024, time.September}, 25},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.month.Workdays())
		})
	}
}

func TestMonth_NextWrapsYear(t *testing.T) {
	assert.Equal(t, Month{2025, time.January}, Month{2024, time.December}.Next())
	assert.True(t, Month{2024, time.December}.Before(Month{2025, time.January}))
	assert.False(t, Month{2025, time.January}.Before(Month{2025, time.January}))
}

func TestExpectedAmount_MonthlyIgnoresAttendance(t *testing.T) {
	lease := monthlyLease(500000)
	for _, att := range []int{0, 3, 40} {
		got := ExpectedAmount(lease, att, 2024, time.April)
		assert.True(t, decimal.NewFromInt(500000).Equal(got), "attendance %d: %s", att, got)
	}
}

func TestExpectedAmount_Daily(t *testing.T) {
	lease := dailyLease(10000)
	got := ExpectedAmount(lease, 2, 2024, time.April)
	assert.True(t, decimal.NewFromInt(240000).Equal(got), got.String())
}

func TestExpectedAmount_DailyClampsAtZero(t *testing.T) {
	lease := dailyLease(10000)
	got := ExpectedAmount(lease, 40, 2024, time.April)
	assert.True(t, got.IsZero(), got.String())
}

func TestExpectedAmount_SumsFeesWithNullsAsZero(t *testing.T) {
	lease := domain.Lease{
		ShopMonthlyFee:  fee(100),
		GuardFee:        fee(25),
		PaymentInterval: domain.IntervalMonthly,
	}
	assert.True(t, decimal.NewFromInt(125).Equal(ExpectedAmount(lease, 0, 2024, time.May)))
}

func TestResolveStatus(t *testing.T) {
	mid := time.Date(2024, time.April, 10, 12, 0, 0, 0, time.UTC)
	late := time.Date(2024, time.April, 26, 12, 0, 0, 0, time.UTC)
	fiveLeft := time.Date(2024, time.April, 25, 23, 59, 0, 0, time.UTC)
	sixLeft := time.Date(2024, time.April, 24, 23, 59, 0, 0, time.UTC)
	lastMonth := time.Date(2024, time.March, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		lease domain.Lease
		txs   []domain.Transaction
		today time.Time
		want  domain.LeaseStatus
	}{
		{"fully paid", monthlyLease(1000), []domain.Transaction{paidTx(600, mid), paidTx(400, mid)}, mid, domain.StatusPaid},
		{"overpaid", monthlyLease(1000), []domain.Transaction{paidTx(1500, mid)}, mid, domain.StatusPaid},
		{"partial", monthlyLease(1000), []domain.Transaction{paidTx(400, mid)}, mid, domain.StatusPartiallyPaid},
		{"unpaid mid month", monthlyLease(1000), nil, mid, domain.StatusUnpaid},
		{"due near month end", monthlyLease(1000), nil, late, domain.StatusDue},
		{"due with five days left", monthlyLease(1000), nil, fiveLeft, domain.StatusDue},
		{"unpaid with six days left", monthlyLease(1000), nil, sixLeft, domain.StatusUnpaid},
		{"partial near month end stays partial", monthlyLease(1000), []domain.Transaction{paidTx(1, late)}, late, domain.StatusPartiallyPaid},
		{"daily never due", dailyLease(100), nil, late, domain.StatusUnpaid},
		{"previous month payment ignored", monthlyLease(1000), []domain.Transaction{paidTx(1000, lastMonth)}, mid, domain.StatusUnpaid},
		{"pending ignored", monthlyLease(1000), []domain.Transaction{{Amount: decimal.NewFromInt(1000), Status: domain.TransactionPending, CreatedAt: mid}}, mid, domain.StatusUnpaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStatus(tt.lease, tt.txs, 0, tt.today))
		})
	}
}

func TestResolveStatus_Monotonic(t *testing.T) {
	lease := monthlyLease(1000)
	today := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)
	rank := map[domain.LeaseStatus]int{domain.StatusUnpaid: 0, domain.StatusPartiallyPaid: 1, domain.StatusPaid: 2}
	prev := -1
	for paid := int64(0); paid <= 1000; paid += 50 {
		var txs []domain.Transaction
		if paid > 0 {
			txs = append(txs, paidTx(paid, today))
		}
		st := ResolveStatus(lease, txs, 0, today)
		require.GreaterOrEqual(t, rank[st], prev, "paid %d", paid)
		prev = rank[st]
	}
	assert.Equal(t, 2, prev)
}

type stubLedger struct {
	paid       map[int64]map[Month]decimal.Decimal
	attendance map[int64]map[Month]int
	err        error
}

func inWindow(m Month, from, to time.Time) bool {
	start := m.Start(from.Location())
	return !start.Before(from) && start.Before(to)
}

func (s stubLedger) MonthlyPaid(ctx context.Context, leaseID int64, from, to time.Time) (map[Month]decimal.Decimal, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[Month]decimal.Decimal{}
	for m, v := range s.paid[leaseID] {
		if inWindow(m, from, to) {
			out[m] = v
		}
	}
	return out, nil
}

func (s stubLedger) MonthlyAttendance(ctx context.Context, leaseID int64, from, to time.Time) (map[Month]int, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[Month]int{}
	for m, v := range s.attendance[leaseID] {
		if inWindow(m, from, to) {
			out[m] = v
		}
	}
	return out, nil
}

func TestCumulativeDebt_ThreeMonthsUnpaid(t *testing.T) {
	lease := monthlyLease(1000)
	asOf := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	agg := DebtAggregator{Store: stubLedger{}}

	debt, err := agg.CumulativeDebt(context.Background(), lease, asOf)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3000).Equal(debt), debt.String())
}

func TestCumulativeDebt_OneMonthPaid(t *testing.T) {
	lease := monthlyLease(1000)
	asOf := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	agg := DebtAggregator{Store: stubLedger{paid: map[int64]map[Month]decimal.Decimal{
		1: {{2024, time.February}: decimal.NewFromInt(1000)},
	}}}

	debt, err := agg.CumulativeDebt(context.Background(), lease, asOf)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2000).Equal(debt), debt.String())
}

func TestCumulativeDebt_NoCreditRollover(t *testing.T) {
	lease := monthlyLease(1000)
	asOf := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	agg := DebtAggregator{Store: stubLedger{paid: map[int64]map[Month]decimal.Decimal{
		1: {{2024, time.January}: decimal.NewFromInt(5000)},
	}}}

	debt, err := agg.CumulativeDebt(context.Background(), lease, asOf)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(debt), debt.String())
}

func TestCumulativeDebt_StopsAtExpiry(t *testing.T) {
	lease := monthlyLease(1000)
	exp := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)
	lease.ExpiryDate = &exp
	asOf := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	d, err := DebtAggregator{Store: stubLedger{}}.Breakdown(context.Background(), lease, asOf)
	require.NoError(t, err)
	assert.Len(t, d.Months, 2)
	assert.True(t, decimal.NewFromInt(2000).Equal(d.Total))
}

func TestCumulativeDebt_NotYetIssued(t *testing.T) {
	lease := monthlyLease(1000)
	asOf := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)

	debt, err := DebtAggregator{Store: stubLedger{}}.CumulativeDebt(context.Background(), lease, asOf)
	require.NoError(t, err)
	assert.True(t, debt.IsZero())
}

func TestCumulativeDebt_DailyUsesAttendance(t *testing.T) {
	lease := dailyLease(100)
	lease.IssueDate = time.Date(2024, time.April, 3, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC)
	agg := DebtAggregator{Store: stubLedger{
		attendance: map[int64]map[Month]int{1: {{2024, time.April}: 6}},
		paid:       map[int64]map[Month]decimal.Decimal{1: {{2024, time.April}: decimal.NewFromInt(500)}},
	}}

	debt, err := agg.CumulativeDebt(context.Background(), lease, asOf)
	require.NoError(t, err)
	// (26 - 6) * 100 - 500
	assert.True(t, decimal.NewFromInt(1500).Equal(debt), debt.String())
}

func TestCumulativeDebt_StoreError(t *testing.T) {
	boom := errors.New("boom")
	_, err := DebtAggregator{Store: stubLedger{err: boom}}.CumulativeDebt(context.Background(), monthlyLease(1), time.Now())
	assert.ErrorIs(t, err, boom)
}

func TestSummarize_TopOverdueKeepsInputOrder(t *testing.T) {
	asOf := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)
	var leases []domain.Lease
	for i := int64(1); i <= 8; i++ {
		l := monthlyLease(i * 100)
		l.ID = i
		leases = append(leases, l)
	}
	paid := map[int64]map[Month]decimal.Decimal{
		2: {{2024, time.January}: decimal.NewFromInt(200)},
	}
	agg := DebtAggregator{Store: stubLedger{paid: paid}, Workers: 3}

	sum, err := agg.Summarize(context.Background(), leases, asOf, TopOverdueLimit)
	require.NoError(t, err)
	assert.Equal(t, 8, sum.LeaseCount)
	assert.Equal(t, 7, sum.DebtorCount)
	assert.Len(t, sum.Debtors, 7)
	// 100+300+400+...+800
	assert.True(t, decimal.NewFromInt(3400).Equal(sum.TotalDebt), sum.TotalDebt.String())
	require.Len(t, sum.TopOverdue, 5)
	var ids []int64
	for _, d := range sum.TopOverdue {
		ids = append(ids, d.Lease.ID)
	}
	assert.Equal(t, []int64{1, 3, 4, 5, 6}, ids)
}

func TestMonthStatement(t *testing.T) {
	m := Month{2024, time.April}
	today := time.Date(2024, time.April, 27, 0, 0, 0, 0, time.UTC)
	a, b, c := monthlyLease(1000), monthlyLease(1000), dailyLease(100)
	a.ID, b.ID, c.ID = 1, 2, 3
	agg := DebtAggregator{Store: stubLedger{
		paid:       map[int64]map[Month]decimal.Decimal{1: {m: decimal.NewFromInt(1000)}},
		attendance: map[int64]map[Month]int{3: {m: 26}},
	}}

	rows, err := agg.MonthStatement(context.Background(), []domain.Lease{a, b, c}, m, today)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.StatusPaid, rows[0].Status)
	assert.Equal(t, domain.StatusDue, rows[1].Status)
	assert.Equal(t, domain.StatusPaid, rows[2].Status)
	assert.True(t, rows[2].Expected.IsZero())
}
