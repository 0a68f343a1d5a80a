package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/domain"
)

// DueWindowDays is how close to month end an unpaid MONTHLY lease turns DUE.
const DueWindowDays = 5

// ResolveStatus computes the lease status for the month containing today.
// txs may contain transactions of any status and month; only PAID ones
// created in that month are counted.
func ResolveStatus(lease domain.Lease, txs []domain.Transaction, attendanceCount int, today time.Time) domain.LeaseStatus {
	m := MonthOf(today)
	expected := ExpectedAmount(lease, attendanceCount, m.Year, m.Month)
	paid := PaidInMonth(txs, m, today.Location())
	return StatusFor(lease, expected, paid, m, today)
}

// StatusFor classifies a paid total against the expected amount for month m.
// DUE is only reported while today is still inside m.
func StatusFor(lease domain.Lease, expected, paid decimal.Decimal, m Month, today time.Time) domain.LeaseStatus {
	switch {
	case paid.GreaterThanOrEqual(expected):
		return domain.StatusPaid
	case paid.IsPositive():
		return domain.StatusPartiallyPaid
	}
	if lease.PaymentInterval == domain.IntervalMonthly && MonthOf(today) == m && m.Days()-today.Day() <= DueWindowDays {
		return domain.StatusDue
	}
	return domain.StatusUnpaid
}

// PaidInMonth sums PAID transactions whose creation time falls in m.
func PaidInMonth(txs []domain.Transaction, m Month, loc *time.Location) decimal.Decimal {
	if loc == nil {
		loc = time.UTC
	}
	total := decimal.Zero
	for _, t := range txs {
		if t.Status != domain.TransactionPaid {
			continue
		}
		if MonthOf(t.CreatedAt.In(loc)) != m {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total
}

// Remaining is the unpaid part of expected, never negative.
func Remaining(expected, paid decimal.Decimal) decimal.Decimal {
	r := expected.Sub(paid)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}
