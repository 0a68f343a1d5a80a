package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/metrics"
	"marketplace-backend/internal/ports"
)

type ActiveLeaseLister interface {
	ListActive(ctx context.Context) ([]domain.Lease, error)
}

type ReportService struct {
	Leases   ActiveLeaseLister
	Debt     billing.DebtAggregator
	Clock    ports.Clock
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

type MonthlyReport struct {
	Month         billing.Month
	Rows          []billing.LeaseMonth
	TotalExpected decimal.Decimal
	TotalPaid     decimal.Decimal
	StatusCounts  map[domain.LeaseStatus]int
}

type Dashboard struct {
	ActiveLeases int
	Month        billing.Month
	Expected     decimal.Decimal
	Paid         decimal.Decimal
	StatusCounts map[domain.LeaseStatus]int
	TotalDebt    decimal.Decimal
	DebtorCount  int
	TopOverdue   []billing.LeaseDebt
	GeneratedAt  time.Time
}

func (s ReportService) now() time.Time {
	if s.Clock == nil {
		return time.Now().In(locationOr(s.Location))
	}
	return s.Clock.Now().In(locationOr(s.Location))
}

// Monthly evaluates every active lease for month m.
func (s ReportService) Monthly(ctx context.Context, m billing.Month) (MonthlyReport, error) {
	if m.Month < time.January || m.Month > time.December || m.Year < 2000 {
		return MonthlyReport{}, invalid("invalid month %s", m)
	}
	leases, err := s.Leases.ListActive(ctx)
	if err != nil {
		return MonthlyReport{}, err
	}
	rows, err := s.Debt.MonthStatement(ctx, leases, m, s.now())
	if err != nil {
		return MonthlyReport{}, err
	}
	rep := MonthlyReport{
		Month:         m,
		Rows:          rows,
		TotalExpected: decimal.Zero,
		TotalPaid:     decimal.Zero,
		StatusCounts:  statusCounts(rows),
	}
	for _, r := range rows {
		rep.TotalExpected = rep.TotalExpected.Add(r.Expected)
		rep.TotalPaid = rep.TotalPaid.Add(r.Paid)
	}
	return rep, nil
}

// Dashboard combines the current month with lifetime debt over active leases.
func (s ReportService) Dashboard(ctx context.Context) (Dashboard, error) {
	started := time.Now()
	now := s.now()
	leases, err := s.Leases.ListActive(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	m := billing.MonthOf(now)
	rows, err := s.Debt.MonthStatement(ctx, leases, m, now)
	if err != nil {
		return Dashboard{}, err
	}
	sum, err := s.Debt.Summarize(ctx, leases, now, billing.TopOverdueLimit)
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		ActiveLeases: len(leases),
		Month:        m,
		Expected:     decimal.Zero,
		Paid:         decimal.Zero,
		StatusCounts: statusCounts(rows),
		TotalDebt:    sum.TotalDebt,
		DebtorCount:  sum.DebtorCount,
		TopOverdue:   sum.TopOverdue,
		GeneratedAt:  now,
	}
	for _, r := range rows {
		d.Expected = d.Expected.Add(r.Expected)
		d.Paid = d.Paid.Add(r.Paid)
	}
	s.Metrics.ObserveDebtSummary(time.Since(started).Seconds())
	return d, nil
}

// Debtors lists every active lease with outstanding debt.
func (s ReportService) Debtors(ctx context.Context) ([]billing.LeaseDebt, error) {
	leases, err := s.Leases.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	sum, err := s.Debt.Summarize(ctx, leases, s.now(), billing.TopOverdueLimit)
	if err != nil {
		return nil, err
	}
	return sum.Debtors, nil
}

func statusCounts(rows []billing.LeaseMonth) map[domain.LeaseStatus]int {
	out := map[domain.LeaseStatus]int{
		domain.StatusPaid:          0,
		domain.StatusPartiallyPaid: 0,
		domain.StatusUnpaid:        0,
		domain.StatusDue:           0,
	}
	for _, r := range rows {
		out[r.Status]++
	}
	return out
}
