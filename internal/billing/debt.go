package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"marketplace-backend/internal/domain"
)

const defaultWorkers = 4

// TopOverdueLimit bounds the overdue listing on the dashboard.
const TopOverdueLimit = 5

// LedgerStore returns per-month aggregates for a lease over [from, to).
type LedgerStore interface {
	MonthlyPaid(ctx context.Context, leaseID int64, from, to time.Time) (map[Month]decimal.Decimal, error)
	MonthlyAttendance(ctx context.Context, leaseID int64, from, to time.Time) (map[Month]int, error)
}

type MonthDebt struct {
	Month           Month
	Expected        decimal.Decimal
	Paid            decimal.Decimal
	AttendanceCount int
	Shortfall       decimal.Decimal
}

type LeaseDebt struct {
	Lease  domain.Lease
	Total  decimal.Decimal
	Months []MonthDebt
}

type LeaseMonth struct {
	Lease           domain.Lease
	Month           Month
	Expected        decimal.Decimal
	Paid            decimal.Decimal
	AttendanceCount int
	Status          domain.LeaseStatus
}

type DebtSummary struct {
	TotalDebt   decimal.Decimal
	LeaseCount  int
	DebtorCount int
	TopOverdue  []LeaseDebt
	Debtors     []LeaseDebt
}

// DebtAggregator walks lease lifetimes month by month. Fan-out across leases
// is bounded by Workers.
type DebtAggregator struct {
	Store    LedgerStore
	Workers  int
	Location *time.Location
}

func (a DebtAggregator) workers() int {
	if a.Workers <= 0 {
		return defaultWorkers
	}
	return a.Workers
}

func (a DebtAggregator) loc() *time.Location {
	if a.Location == nil {
		return time.UTC
	}
	return a.Location
}

// BillingRange returns the first and last billed month of a lease as of asOf.
// ok is false when the lease has no billed month yet.
func BillingRange(lease domain.Lease, asOf time.Time) (from, to Month, ok bool) {
	from = MonthOf(lease.IssueDate)
	to = MonthOf(asOf)
	if lease.ExpiryDate != nil {
		if exp := MonthOf(*lease.ExpiryDate); exp.Before(to) {
			to = exp
		}
	}
	return from, to, !to.Before(from)
}

// Shortfalls evaluates every month in [from, to] independently. Overpayment
// in one month is never credited to another.
func Shortfalls(lease domain.Lease, from, to Month, paid map[Month]decimal.Decimal, attendance map[Month]int) []MonthDebt {
	var out []MonthDebt
	for m := from; !to.Before(m); m = m.Next() {
		count := attendance[m]
		expected := ExpectedAmount(lease, count, m.Year, m.Month)
		p := paid[m]
		short := decimal.Zero
		if p.LessThan(expected) {
			short = expected.Sub(p)
		}
		out = append(out, MonthDebt{
			Month:           m,
			Expected:        expected,
			Paid:            p,
			AttendanceCount: count,
			Shortfall:       short,
		})
	}
	return out
}

// CumulativeDebt is the sum of monthly shortfalls over the lease lifetime.
func (a DebtAggregator) CumulativeDebt(ctx context.Context, lease domain.Lease, asOf time.Time) (decimal.Decimal, error) {
	d, err := a.Breakdown(ctx, lease, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Total, nil
}

func (a DebtAggregator) Breakdown(ctx context.Context, lease domain.Lease, asOf time.Time) (LeaseDebt, error) {
	res := LeaseDebt{Lease: lease, Total: decimal.Zero}
	from, to, ok := BillingRange(lease, asOf.In(a.loc()))
	if !ok {
		return res, nil
	}
	start, end := from.Start(a.loc()), to.Next().Start(a.loc())
	paid, err := a.Store.MonthlyPaid(ctx, lease.ID, start, end)
	if err != nil {
		return res, fmt.Errorf("monthly paid for lease %d: %w", lease.ID, err)
	}
	attendance, err := a.Store.MonthlyAttendance(ctx, lease.ID, start, end)
	if err != nil {
		return res, fmt.Errorf("monthly attendance for lease %d: %w", lease.ID, err)
	}
	res.Months = Shortfalls(lease, from, to, paid, attendance)
	for _, m := range res.Months {
		res.Total = res.Total.Add(m.Shortfall)
	}
	return res, nil
}

// Summarize computes the debt of every lease and the dashboard totals.
// Debtors lists every indebted lease in input order and TopOverdue holds
// the first topN of them.
func (a DebtAggregator) Summarize(ctx context.Context, leases []domain.Lease, asOf time.Time, topN int) (DebtSummary, error) {
	results := make([]LeaseDebt, len(leases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i := range leases {
		i := i
		g.Go(func() error {
			d, err := a.Breakdown(gctx, leases[i], asOf)
			if err != nil {
				return err
			}
			results[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DebtSummary{}, err
	}

	sum := DebtSummary{TotalDebt: decimal.Zero, LeaseCount: len(leases)}
	for _, d := range results {
		if !d.Total.IsPositive() {
			continue
		}
		sum.DebtorCount++
		sum.TotalDebt = sum.TotalDebt.Add(d.Total)
		sum.Debtors = append(sum.Debtors, d)
		if len(sum.TopOverdue) < topN {
			sum.TopOverdue = append(sum.TopOverdue, d)
		}
	}
	return sum, nil
}

// MonthStatement evaluates every lease for a single month.
func (a DebtAggregator) MonthStatement(ctx context.Context, leases []domain.Lease, m Month, today time.Time) ([]LeaseMonth, error) {
	out := make([]LeaseMonth, len(leases))
	start, end := m.Start(a.loc()), m.Next().Start(a.loc())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i := range leases {
		i := i
		g.Go(func() error {
			lease := leases[i]
			paid, err := a.Store.MonthlyPaid(gctx, lease.ID, start, end)
			if err != nil {
				return fmt.Errorf("monthly paid for lease %d: %w", lease.ID, err)
			}
			attendance, err := a.Store.MonthlyAttendance(gctx, lease.ID, start, end)
			if err != nil {
				return fmt.Errorf("monthly attendance for lease %d: %w", lease.ID, err)
			}
			count := attendance[m]
			expected := ExpectedAmount(lease, count, m.Year, m.Month)
			p := paid[m]
			out[i] = LeaseMonth{
				Lease:           lease,
				Month:           m,
				Expected:        expected,
				Paid:            p,
				AttendanceCount: count,
				Status:          StatusFor(lease, expected, p, m, today.In(a.loc())),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
