package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/repository"
)

type TransactionLister interface {
	List(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, error)
}

type AttendanceCounter interface {
	CountRange(ctx context.Context, leaseID int64, from, to time.Time) (int, error)
}

// LeaseMonthView is the billing state of a lease for the current month.
type LeaseMonthView struct {
	Lease           domain.Lease
	Month           billing.Month
	Expected        decimal.Decimal
	Paid            decimal.Decimal
	Remaining       decimal.Decimal
	AttendanceCount int
	Status          domain.LeaseStatus
}

type monthReader struct {
	Transactions TransactionLister
	Attendance   AttendanceCounter
	Location     *time.Location
}

func (r monthReader) view(ctx context.Context, lease domain.Lease, now time.Time) (LeaseMonthView, error) {
	loc := locationOr(r.Location)
	today := now.In(loc)
	m := billing.MonthOf(today)
	from, to := m.Start(loc), m.Next().Start(loc)

	count, err := r.Attendance.CountRange(ctx, lease.ID, from, to)
	if err != nil {
		return LeaseMonthView{}, fmt.Errorf("count attendance for lease %d: %w", lease.ID, err)
	}
	leaseID := lease.ID
	txs, err := r.Transactions.List(ctx, repository.TransactionFilter{LeaseID: &leaseID, From: &from, To: &to, Limit: 1000})
	if err != nil {
		return LeaseMonthView{}, fmt.Errorf("list transactions for lease %d: %w", lease.ID, err)
	}

	expected := billing.ExpectedAmount(lease, count, m.Year, m.Month)
	paid := billing.PaidInMonth(txs, m, loc)
	return LeaseMonthView{
		Lease:           lease,
		Month:           m,
		Expected:        expected,
		Paid:            paid,
		Remaining:       billing.Remaining(expected, paid),
		AttendanceCount: count,
		Status:          billing.ResolveStatus(lease, txs, count, today),
	}, nil
}

func locationOr(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
