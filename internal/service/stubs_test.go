package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/payment/central"
	"marketplace-backend/internal/repository"
)

var tashkent = time.FixedZone("UTC+5", 5*3600)

type stubLeases struct {
	byID        map[int64]domain.Lease
	created     []repository.LeaseInput
	createErr   error
	expiredDay  time.Time
	reactivated []int64
}

func (s *stubLeases) List(_ context.Context, f repository.LeaseFilter) ([]domain.Lease, error) {
	var out []domain.Lease
	for _, l := range s.byID {
		if f.Active != nil && l.IsActive != *f.Active {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubLeases) ListActive(ctx context.Context) ([]domain.Lease, error) {
	active := true
	return s.List(ctx, repository.LeaseFilter{Active: &active})
}

func (s *stubLeases) ListByOwnerIdentifier(ctx context.Context, _ string) ([]domain.Lease, error) {
	return s.ListActive(ctx)
}

func (s *stubLeases) Get(_ context.Context, id int64) (*domain.Lease, error) {
	l, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

func (s *stubLeases) Create(_ context.Context, in repository.LeaseInput) (*domain.Lease, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, in)
	l := domain.Lease{ID: int64(100 + len(s.created)), OwnerID: in.OwnerID, StoreID: in.StoreID, StallID: in.StallID, PaymentInterval: in.PaymentInterval, IsActive: true}
	return &l, nil
}

func (s *stubLeases) Update(_ context.Context, id int64, in repository.LeaseInput) (*domain.Lease, error) {
	l, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	l.PaymentInterval = in.PaymentInterval
	return &l, nil
}

func (s *stubLeases) Deactivate(_ context.Context, id int64) error { return nil }

func (s *stubLeases) Reactivate(_ context.Context, id int64) error {
	s.reactivated = append(s.reactivated, id)
	return nil
}

func (s *stubLeases) ExpireBefore(_ context.Context, day time.Time) (int64, error) {
	s.expiredDay = day
	return 2, nil
}

type stubOwners struct{ owners map[int64]domain.Owner }

func (s stubOwners) Get(_ context.Context, id int64) (*domain.Owner, error) {
	o, ok := s.owners[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (s stubOwners) GetByIdentifier(_ context.Context, identifier string) (*domain.Owner, error) {
	for _, o := range s.owners {
		if o.Identifier == identifier {
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

type stubAttendance struct {
	counts map[int64]int
	marked []repository.MarkAttendanceInput
	dup    bool
}

func (s *stubAttendance) CountRange(_ context.Context, leaseID int64, _, _ time.Time) (int, error) {
	return s.counts[leaseID], nil
}

func (s *stubAttendance) Mark(_ context.Context, in repository.MarkAttendanceInput) (*domain.Attendance, error) {
	if s.dup {
		return nil, repository.ErrConflict
	}
	s.marked = append(s.marked, in)
	return &domain.Attendance{ID: 1, LeaseID: in.LeaseID, Date: in.Date, Status: in.Status, Amount: in.Amount}, nil
}

func (s *stubAttendance) Unmark(_ context.Context, _ int64, _ time.Time) error { return nil }

func (s *stubAttendance) ListRange(_ context.Context, _ int64, _, _ time.Time) ([]domain.Attendance, error) {
	return nil, nil
}

type stubTransactions struct {
	items   []domain.Transaction
	nextID  int64
	pending []repository.CreateTransactionInput
	failed  []int64
}

func (s *stubTransactions) List(_ context.Context, f repository.TransactionFilter) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, t := range s.items {
		if f.LeaseID != nil && t.LeaseID != *f.LeaseID {
			continue
		}
		if f.From != nil && t.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !t.CreatedAt.Before(*f.To) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *stubTransactions) add(in repository.CreateTransactionInput) *domain.Transaction {
	s.nextID++
	t := domain.Transaction{ID: s.nextID, LeaseID: in.LeaseID, Amount: in.Amount, Status: in.Status, PaymentMethod: in.PaymentMethod, PaymentType: in.PaymentType}
	s.items = append(s.items, t)
	return &t
}

func (s *stubTransactions) Create(_ context.Context, in repository.CreateTransactionInput) (*domain.Transaction, error) {
	return s.add(in), nil
}

func (s *stubTransactions) ReplacePending(_ context.Context, in repository.CreateTransactionInput) (*domain.Transaction, error) {
	s.pending = append(s.pending, in)
	return s.add(in), nil
}

func (s *stubTransactions) MarkFailed(_ context.Context, id int64) error {
	s.failed = append(s.failed, id)
	return nil
}

type stubCheckout struct {
	link string
	err  error
	got  []central.CreateRequest
}

func (s *stubCheckout) CreateTransaction(_ context.Context, in central.CreateRequest) (string, error) {
	s.got = append(s.got, in)
	return s.link, s.err
}

type stubLedger struct {
	paid map[int64]map[billing.Month]decimal.Decimal
}

func (s stubLedger) MonthlyPaid(_ context.Context, leaseID int64, _, _ time.Time) (map[billing.Month]decimal.Decimal, error) {
	return s.paid[leaseID], nil
}

func (s stubLedger) MonthlyAttendance(_ context.Context, _ int64, _, _ time.Time) (map[billing.Month]int, error) {
	return nil, nil
}

func monthly(id int64, fee int64) domain.Lease {
	storeID := id
	return domain.Lease{
		ID:              id,
		OwnerID:         1,
		StoreID:         &storeID,
		ShopMonthlyFee:  decimal.NewNullDecimal(decimal.NewFromInt(fee)),
		PaymentInterval: domain.IntervalMonthly,
		IssueDate:       time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		IsActive:        true,
	}
}
