package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/ports"
	"marketplace-backend/internal/repository"
)

type LeaseStore interface {
	List(ctx context.Context, f repository.LeaseFilter) ([]domain.Lease, error)
	Get(ctx context.Context, id int64) (*domain.Lease, error)
	Create(ctx context.Context, in repository.LeaseInput) (*domain.Lease, error)
	Update(ctx context.Context, id int64, in repository.LeaseInput) (*domain.Lease, error)
	Deactivate(ctx context.Context, id int64) error
	Reactivate(ctx context.Context, id int64) error
	ExpireBefore(ctx context.Context, day time.Time) (int64, error)
}

type OwnerGetter interface {
	Get(ctx context.Context, id int64) (*domain.Owner, error)
}

type StallGetter interface {
	Get(ctx context.Context, id int64) (*domain.Stall, error)
}

type AttendanceStore interface {
	AttendanceCounter
	Mark(ctx context.Context, in repository.MarkAttendanceInput) (*domain.Attendance, error)
	Unmark(ctx context.Context, leaseID int64, day time.Time) error
	ListRange(ctx context.Context, leaseID int64, from, to time.Time) ([]domain.Attendance, error)
}

type LeaseService struct {
	Leases       LeaseStore
	Owners       OwnerGetter
	Stalls       StallGetter
	Attendance   AttendanceStore
	Transactions TransactionLister
	Debt         billing.DebtAggregator
	Clock        ports.Clock
	Location     *time.Location
	Logger       *slog.Logger
}

type LeaseInput struct {
	OwnerID         int64
	StoreID         *int64
	StallID         *int64
	ShopMonthlyFee  decimal.NullDecimal
	StallMonthlyFee decimal.NullDecimal
	GuardFee        decimal.NullDecimal
	PaymentInterval domain.PaymentInterval
	IssueDate       time.Time
	ExpiryDate      *time.Time
	CertificateNo   string
}

// LeaseDetails is a lease with its current month and lifetime debt.
type LeaseDetails struct {
	Current LeaseMonthView
	Debt    decimal.Decimal
}

func (s LeaseService) now() time.Time {
	if s.Clock == nil {
		return time.Now().In(locationOr(s.Location))
	}
	return s.Clock.Now().In(locationOr(s.Location))
}

func (s LeaseService) months() monthReader {
	return monthReader{Transactions: s.Transactions, Attendance: s.Attendance, Location: s.Location}
}

func (s LeaseService) Create(ctx context.Context, in LeaseInput) (*domain.Lease, error) {
	if (in.StoreID == nil) == (in.StallID == nil) {
		return nil, invalid("exactly one of storeId or stallId is required")
	}
	if err := validateTerms(&in); err != nil {
		return nil, err
	}
	if _, err := s.Owners.Get(ctx, in.OwnerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("owner %d: %w", in.OwnerID, ErrNotFound)
		}
		return nil, err
	}
	lease, err := s.Leases.Create(ctx, toRepoLease(in))
	if err != nil {
		return nil, err
	}
	s.logger().Info("lease created", "lease_id", lease.ID, "owner_id", lease.OwnerID)
	return lease, nil
}

func (s LeaseService) Get(ctx context.Context, id int64) (LeaseDetails, error) {
	lease, err := s.Leases.Get(ctx, id)
	if err != nil {
		return LeaseDetails{}, err
	}
	now := s.now()
	view, err := s.months().view(ctx, *lease, now)
	if err != nil {
		return LeaseDetails{}, err
	}
	debt, err := s.Debt.CumulativeDebt(ctx, *lease, now)
	if err != nil {
		return LeaseDetails{}, err
	}
	return LeaseDetails{Current: view, Debt: debt}, nil
}

func (s LeaseService) List(ctx context.Context, f repository.LeaseFilter) ([]domain.Lease, error) {
	return s.Leases.List(ctx, f)
}

// Update changes fees, interval and dates. The owner and asset stay fixed.
func (s LeaseService) Update(ctx context.Context, id int64, in LeaseInput) (*domain.Lease, error) {
	if err := validateTerms(&in); err != nil {
		return nil, err
	}
	return s.Leases.Update(ctx, id, toRepoLease(in))
}

func (s LeaseService) Deactivate(ctx context.Context, id int64) error {
	if err := s.Leases.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger().Info("lease deactivated", "lease_id", id)
	return nil
}

func (s LeaseService) Reactivate(ctx context.Context, id int64) error {
	lease, err := s.Leases.Get(ctx, id)
	if err != nil {
		return err
	}
	if lease.ExpiryDate != nil && lease.ExpiryDate.Format(dateLayout) < s.now().Format(dateLayout) {
		return conflict("lease %d expired on %s", id, lease.ExpiryDate.Format(dateLayout))
	}
	if err := s.Leases.Reactivate(ctx, id); err != nil {
		return err
	}
	s.logger().Info("lease reactivated", "lease_id", id)
	return nil
}

// ExpireOverdue deactivates active leases whose expiry date has passed.
func (s LeaseService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.Leases.ExpireBefore(ctx, dayStart(s.now()))
	if err != nil {
		return 0, fmt.Errorf("expire leases: %w", err)
	}
	return n, nil
}

func (s LeaseService) DebtBreakdown(ctx context.Context, id int64) (billing.LeaseDebt, error) {
	lease, err := s.Leases.Get(ctx, id)
	if err != nil {
		return billing.LeaseDebt{}, err
	}
	return s.Debt.Breakdown(ctx, *lease, s.now())
}

// MarkAttendance records a credited day for a DAILY lease.
func (s LeaseService) MarkAttendance(ctx context.Context, leaseID int64, day time.Time, status domain.AttendanceStatus) (*domain.Attendance, error) {
	lease, err := s.Leases.Get(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	if lease.PaymentInterval != domain.IntervalDaily {
		return nil, invalid("attendance applies to DAILY leases only")
	}
	if !lease.IsActive {
		return nil, conflict("lease %d is not active", leaseID)
	}
	if day.Weekday() == time.Sunday {
		return nil, invalid("%s is a Sunday", day.Format(dateLayout))
	}
	key := day.Format(dateLayout)
	if key < lease.IssueDate.Format(dateLayout) || (lease.ExpiryDate != nil && key > lease.ExpiryDate.Format(dateLayout)) {
		return nil, invalid("%s is outside the lease period", day.Format(dateLayout))
	}
	switch status {
	case "":
		status = domain.AttendanceUnpaid
	case domain.AttendanceUnpaid, domain.AttendancePaid:
	default:
		return nil, invalid("unknown attendance status %q", status)
	}

	amount := lease.TotalFee()
	if lease.StallID != nil && s.Stalls != nil {
		stall, err := s.Stalls.Get(ctx, *lease.StallID)
		if err == nil && stall.DailyFee.Valid {
			amount = stall.DailyFee.Decimal
		}
	}
	a, err := s.Attendance.Mark(ctx, repository.MarkAttendanceInput{
		LeaseID: lease.ID,
		StallID: lease.StallID,
		Date:    day,
		Status:  status,
		Amount:  amount,
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, conflict("attendance for %s already recorded", day.Format(dateLayout))
	}
	return a, err
}

func (s LeaseService) UnmarkAttendance(ctx context.Context, leaseID int64, day time.Time) error {
	return s.Attendance.Unmark(ctx, leaseID, day)
}

func (s LeaseService) ListAttendance(ctx context.Context, leaseID int64, m billing.Month) ([]domain.Attendance, error) {
	if _, err := s.Leases.Get(ctx, leaseID); err != nil {
		return nil, err
	}
	loc := locationOr(s.Location)
	return s.Attendance.ListRange(ctx, leaseID, m.Start(loc), m.Next().Start(loc))
}

func (s LeaseService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func validateTerms(in *LeaseInput) error {
	switch in.PaymentInterval {
	case "":
		in.PaymentInterval = domain.IntervalMonthly
	case domain.IntervalMonthly, domain.IntervalDaily:
	default:
		return invalid("paymentInterval must be MONTHLY or DAILY")
	}
	for name, fee := range map[string]decimal.NullDecimal{
		"shopMonthlyFee":  in.ShopMonthlyFee,
		"stallMonthlyFee": in.StallMonthlyFee,
		"guardFee":        in.GuardFee,
	} {
		if fee.Valid && fee.Decimal.IsNegative() {
			return invalid("%s must not be negative", name)
		}
	}
	if in.IssueDate.IsZero() {
		return invalid("issueDate is required")
	}
	if in.ExpiryDate != nil && in.ExpiryDate.Before(in.IssueDate) {
		return invalid("expiryDate must not be before issueDate")
	}
	return nil
}

func toRepoLease(in LeaseInput) repository.LeaseInput {
	return repository.LeaseInput{
		OwnerID:         in.OwnerID,
		StoreID:         in.StoreID,
		StallID:         in.StallID,
		ShopMonthlyFee:  in.ShopMonthlyFee,
		StallMonthlyFee: in.StallMonthlyFee,
		GuardFee:        in.GuardFee,
		PaymentInterval: in.PaymentInterval,
		IssueDate:       in.IssueDate,
		ExpiryDate:      in.ExpiryDate,
		CertificateNo:   in.CertificateNo,
	}
}

const dateLayout = "2006-01-02"

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
