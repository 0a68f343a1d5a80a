package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/metrics"
	"marketplace-backend/internal/payment/central"
	"marketplace-backend/internal/ports"
	"marketplace-backend/internal/repository"
)

type LeaseReader interface {
	Get(ctx context.Context, id int64) (*domain.Lease, error)
	ListByOwnerIdentifier(ctx context.Context, identifier string) ([]domain.Lease, error)
}

type OwnerFinder interface {
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Owner, error)
}

type TransactionStore interface {
	TransactionLister
	Create(ctx context.Context, in repository.CreateTransactionInput) (*domain.Transaction, error)
	ReplacePending(ctx context.Context, in repository.CreateTransactionInput) (*domain.Transaction, error)
	MarkFailed(ctx context.Context, id int64) error
}

type CheckoutClient interface {
	CreateTransaction(ctx context.Context, in central.CreateRequest) (string, error)
}

type PaymentService struct {
	Leases       LeaseReader
	Owners       OwnerFinder
	Attendance   AttendanceCounter
	Transactions TransactionStore
	Checkout     CheckoutClient
	Clock        ports.Clock
	Location     *time.Location
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

type OwnerLeases struct {
	Owner  domain.Owner
	Leases []LeaseMonthView
}

type InitiateInput struct {
	LeaseID int64
	Amount  *decimal.Decimal
	Method  domain.PaymentMethod
}

type InitiateResult struct {
	CheckoutURL     string
	TransactionID   int64
	PaymentType     domain.PaymentType
	RemainingAmount decimal.Decimal
}

func (s PaymentService) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s PaymentService) months() monthReader {
	return monthReader{Transactions: s.Transactions, Attendance: s.Attendance, Location: s.Location}
}

// FindLeasesByOwner returns the active leases of an owner with this month's balance.
func (s PaymentService) FindLeasesByOwner(ctx context.Context, identifier string) (OwnerLeases, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return OwnerLeases{}, invalid("identifier is required")
	}
	owner, err := s.Owners.GetByIdentifier(ctx, identifier)
	if err != nil {
		return OwnerLeases{}, err
	}
	leases, err := s.Leases.ListByOwnerIdentifier(ctx, identifier)
	if err != nil {
		return OwnerLeases{}, err
	}
	now := s.now()
	out := OwnerLeases{Owner: *owner, Leases: make([]LeaseMonthView, 0, len(leases))}
	for _, l := range leases {
		v, err := s.months().view(ctx, l, now)
		if err != nil {
			return OwnerLeases{}, err
		}
		out.Leases = append(out.Leases, v)
	}
	return out, nil
}

func (s PaymentService) LeaseForPayment(ctx context.Context, leaseID int64) (LeaseMonthView, error) {
	lease, err := s.Leases.Get(ctx, leaseID)
	if err != nil {
		return LeaseMonthView{}, err
	}
	return s.months().view(ctx, *lease, s.now())
}

// payable loads an active lease and checks amount against this month's
// remaining balance. A nil amount means the whole remainder.
func (s PaymentService) payable(ctx context.Context, leaseID int64, amount *decimal.Decimal) (LeaseMonthView, decimal.Decimal, domain.PaymentType, error) {
	lease, err := s.Leases.Get(ctx, leaseID)
	if err != nil {
		return LeaseMonthView{}, decimal.Zero, "", err
	}
	if !lease.IsActive {
		return LeaseMonthView{}, decimal.Zero, "", conflict("lease %d is not active", leaseID)
	}
	view, err := s.months().view(ctx, *lease, s.now())
	if err != nil {
		return LeaseMonthView{}, decimal.Zero, "", err
	}
	if !view.Remaining.IsPositive() {
		return view, decimal.Zero, "", conflict("lease %d has nothing left to pay for %s", leaseID, view.Month)
	}
	pay := view.Remaining
	if amount != nil {
		pay = *amount
	}
	if !pay.IsPositive() {
		return view, decimal.Zero, "", invalid("amount must be positive")
	}
	if pay.GreaterThan(view.Remaining) {
		return view, decimal.Zero, "", conflict("amount %s exceeds remaining %s", pay, view.Remaining)
	}
	ptype := domain.PaymentPartial
	if pay.Equal(view.Remaining) {
		ptype = domain.PaymentFull
	}
	return view, pay, ptype, nil
}

// Initiate opens an online payment through the central payment service.
// Earlier PENDING transactions of the lease are replaced. When the central
// call fails the new transaction is marked FAILED.
func (s PaymentService) Initiate(ctx context.Context, in InitiateInput) (InitiateResult, error) {
	method := in.Method
	switch method {
	case "":
		method = domain.MethodPayme
	case domain.MethodPayme, domain.MethodClick:
	default:
		return InitiateResult{}, invalid("paymentMethod must be CLICK or PAYME")
	}

	view, amount, ptype, err := s.payable(ctx, in.LeaseID, in.Amount)
	if err != nil {
		return InitiateResult{}, err
	}

	tx, err := s.Transactions.ReplacePending(ctx, repository.CreateTransactionInput{
		LeaseID:       in.LeaseID,
		Amount:        amount,
		Status:        domain.TransactionPending,
		PaymentMethod: method,
		PaymentType:   ptype,
	})
	if err != nil {
		return InitiateResult{}, fmt.Errorf("create pending transaction: %w", err)
	}

	link, err := s.Checkout.CreateTransaction(ctx, central.CreateRequest{
		TransactionID: tx.ID,
		LeaseID:       in.LeaseID,
		Amount:        amount,
		Method:        method,
	})
	if err != nil {
		s.Metrics.CentralCall("error")
		s.logger().Error("central payment call failed", "err", err, "transaction_id", tx.ID, "lease_id", in.LeaseID)
		if ferr := s.Transactions.MarkFailed(ctx, tx.ID); ferr != nil {
			s.logger().Error("mark transaction failed", "err", ferr, "transaction_id", tx.ID)
		}
		return InitiateResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	s.Metrics.CentralCall("ok")
	s.logger().Info("payment initiated", "transaction_id", tx.ID, "lease_id", in.LeaseID, "amount", amount.String(), "method", method)

	return InitiateResult{
		CheckoutURL:     link,
		TransactionID:   tx.ID,
		PaymentType:     ptype,
		RemainingAmount: view.Remaining.Sub(amount),
	}, nil
}

// RecordCash stores a cash payment taken at the desk. It is PAID immediately.
func (s PaymentService) RecordCash(ctx context.Context, leaseID int64, amount decimal.Decimal) (*domain.Transaction, error) {
	_, pay, ptype, err := s.payable(ctx, leaseID, &amount)
	if err != nil {
		return nil, err
	}
	tx, err := s.Transactions.Create(ctx, repository.CreateTransactionInput{
		LeaseID:       leaseID,
		Amount:        pay,
		Status:        domain.TransactionPaid,
		PaymentMethod: domain.MethodCash,
		PaymentType:   ptype,
	})
	if err != nil {
		return nil, err
	}
	s.logger().Info("cash payment recorded", "transaction_id", tx.ID, "lease_id", leaseID, "amount", pay.String())
	return tx, nil
}

func (s PaymentService) ListTransactions(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, error) {
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return nil, invalid("from must be before to")
	}
	return s.Transactions.List(ctx, f)
}

func (s PaymentService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
