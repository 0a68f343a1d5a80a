package payme

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/metrics"
	"marketplace-backend/internal/payment"
	"marketplace-backend/internal/repository"
)

// SecretHeader carries the shared webhook secret.
const SecretHeader = "x-webhook-secret"

var (
	ErrForbidden = errors.New("invalid webhook secret")
	ErrInvalid   = errors.New("invalid payload")
)

// Store finds and settles the pending payment of a lease.
type Store interface {
	LatestPending(ctx context.Context, leaseID int64) (*domain.Transaction, error)
	SettleExternal(ctx context.Context, id int64, status domain.TransactionStatus, reference string, method domain.PaymentMethod) (*domain.Transaction, error)
}

// StatusUpdate is the body of the status webhook.
type StatusUpdate struct {
	ContractID         payment.FlexString `json:"contract_id"`
	Status             string             `json:"status"`
	PaymeTransactionID payment.FlexString `json:"payme_transaction_id"`
	PaymentMethod      string             `json:"payment_method"`
}

// Result is what the webhook answers on success.
type Result struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	TransactionID int64  `json:"transaction_id,omitempty"`
}

type Service struct {
	Store   Store
	Secret  string
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Authorize compares the header value with the configured secret. An empty
// configured secret rejects everything.
func (s Service) Authorize(header string) error {
	if s.Secret == "" || subtle.ConstantTimeCompare([]byte(header), []byte(s.Secret)) != 1 {
		return ErrForbidden
	}
	return nil
}

// Apply moves the latest PENDING transaction of the lease to the reported
// status. A lease with nothing pending is acknowledged as a no-op.
func (s Service) Apply(ctx context.Context, header string, in StatusUpdate) (Result, error) {
	if err := s.Authorize(header); err != nil {
		s.logger().Warn("payme webhook rejected: bad secret", "contract_id", in.ContractID)
		s.Metrics.PaymeWebhook("forbidden")
		return Result{}, err
	}

	leaseID, err := in.ContractID.Int64()
	if err != nil {
		s.Metrics.PaymeWebhook("invalid")
		return Result{}, fmt.Errorf("%w: contract_id must be a lease id", ErrInvalid)
	}
	status := domain.TransactionStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	switch status {
	case domain.TransactionPaid, domain.TransactionFailed, domain.TransactionPartialPaid:
	default:
		s.Metrics.PaymeWebhook("invalid")
		return Result{}, fmt.Errorf("%w: unsupported status %q", ErrInvalid, in.Status)
	}
	method := domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.PaymentMethod)))
	if method == "" {
		method = domain.MethodPayme
	}

	tx, err := s.Store.LatestPending(ctx, leaseID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger().Info("payme webhook: no pending transaction", "lease_id", leaseID, "status", status)
		s.Metrics.PaymeWebhook("noop")
		return Result{Status: "ok", Message: "already processed or not found"}, nil
	}
	if err != nil {
		s.Metrics.PaymeWebhook("error")
		return Result{}, fmt.Errorf("latest pending for lease %d: %w", leaseID, err)
	}

	settled, err := s.Store.SettleExternal(ctx, tx.ID, status, in.PaymeTransactionID.String(), method)
	if errors.Is(err, repository.ErrConflict) {
		s.logger().Info("payme webhook: transaction settled concurrently", "transaction_id", tx.ID)
		s.Metrics.PaymeWebhook("noop")
		return Result{Status: "ok", Message: "already processed or not found"}, nil
	}
	if err != nil {
		s.Metrics.PaymeWebhook("error")
		return Result{}, fmt.Errorf("settle transaction %d: %w", tx.ID, err)
	}

	s.logger().Info("payme webhook applied", "transaction_id", settled.ID, "lease_id", leaseID, "status", settled.Status)
	s.Metrics.PaymeWebhook("settled")
	return Result{Status: "ok", Message: "transaction updated", TransactionID: settled.ID}, nil
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

var _ Store = repository.TransactionRepository{}
