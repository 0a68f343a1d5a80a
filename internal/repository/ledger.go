package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/billing"
)

// Ledger feeds the debt aggregator from the transaction and attendance tables.
type Ledger struct {
	Transactions TransactionRepository
	Attendance   AttendanceRepository
	Location     *time.Location
}

func (l Ledger) MonthlyPaid(ctx context.Context, leaseID int64, from, to time.Time) (map[billing.Month]decimal.Decimal, error) {
	tz := "UTC"
	if l.Location != nil {
		tz = l.Location.String()
	}
	return l.Transactions.MonthlyPaid(ctx, leaseID, from, to, tz)
}

func (l Ledger) MonthlyAttendance(ctx context.Context, leaseID int64, from, to time.Time) (map[billing.Month]int, error) {
	return l.Attendance.MonthlyCounts(ctx, leaseID, from, to)
}
