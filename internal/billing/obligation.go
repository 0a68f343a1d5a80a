package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/domain"
)

// ExpectedAmount returns what a lease owes for the given month.
//
// MONTHLY leases owe their total fee. DAILY leases owe the total fee for each
// workday of the month minus one day per attendance record; attendance
// records are credited days. The payable day count never drops below zero.
func ExpectedAmount(lease domain.Lease, attendanceCount int, year int, month time.Month) decimal.Decimal {
	fee := lease.TotalFee()
	if lease.PaymentInterval != domain.IntervalDaily {
		return fee
	}
	payable := PayableDays(Month{Year: year, Month: month}, attendanceCount)
	return fee.Mul(decimal.NewFromInt(int64(payable)))
}

// PayableDays is the number of billed days for a DAILY lease.
func PayableDays(m Month, attendanceCount int) int {
	days := m.Workdays() - attendanceCount
	if days < 0 {
		return 0
	}
	return days
}
