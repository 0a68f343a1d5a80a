package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/domain"
)

type TransactionRepository struct {
	DB *db.Postgres
}

type TransactionFilter struct {
	LeaseID *int64
	Status  *domain.TransactionStatus
	From    *time.Time
	To      *time.Time
	Limit   int
}

type CreateTransactionInput struct {
	LeaseID            int64
	Amount             decimal.Decimal
	Status             domain.TransactionStatus
	PaymentMethod      domain.PaymentMethod
	PaymentType        domain.PaymentType
	PaymeTransactionID *string
}

const transactionColumns = `id, lease_id, amount, status, payment_method, payment_type, payme_transaction_id, created_at, updated_at`

func (r TransactionRepository) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	t, err := scanTransaction(r.DB.Pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// List returns transactions newest first. From is inclusive, To exclusive.
func (r TransactionRepository) List(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error) {
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE ($1::bigint IS NULL OR lease_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at < $4)
		ORDER BY created_at DESC, id DESC
		LIMIT $5
	`, f.LeaseID, status, f.From, f.To, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

func (r TransactionRepository) Create(ctx context.Context, in CreateTransactionInput) (*domain.Transaction, error) {
	return insertTransaction(ctx, r.DB.Pool, in)
}

// ReplacePending removes every PENDING transaction of the lease and inserts
// a fresh PENDING one in the same database transaction.
func (r TransactionRepository) ReplacePending(ctx context.Context, in CreateTransactionInput) (*domain.Transaction, error) {
	in.Status = domain.TransactionPending
	var created *domain.Transaction
	err := r.DB.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT id FROM leases WHERE id = $1 FOR UPDATE`, in.LeaseID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE lease_id = $1 AND status = $2`, in.LeaseID, domain.TransactionPending); err != nil {
			return err
		}
		t, err := insertTransaction(ctx, tx, in)
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// MarkFailed moves a PENDING transaction to FAILED.
func (r TransactionRepository) MarkFailed(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE transactions SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`, id, domain.TransactionFailed, domain.TransactionPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LatestPending returns the most recently created PENDING transaction of a lease.
func (r TransactionRepository) LatestPending(ctx context.Context, leaseID int64) (*domain.Transaction, error) {
	t, err := scanTransaction(r.DB.Pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE lease_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, leaseID, domain.TransactionPending))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// SettleExternal applies a gateway outcome to a PENDING transaction. It
// returns ErrConflict when the row already left PENDING.
func (r TransactionRepository) SettleExternal(ctx context.Context, id int64, status domain.TransactionStatus, reference string, method domain.PaymentMethod) (*domain.Transaction, error) {
	t, err := scanTransaction(r.DB.Pool.QueryRow(ctx, `
		UPDATE transactions
		SET status = $2, payme_transaction_id = $3, payment_method = $4, updated_at = now()
		WHERE id = $1 AND status = $5
		RETURNING `+transactionColumns,
		id, status, reference, method, domain.TransactionPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %d is not pending", ErrConflict, id)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// MonthlyPaid groups PAID amounts by calendar month in the given time zone.
func (r TransactionRepository) MonthlyPaid(ctx context.Context, leaseID int64, from, to time.Time, tz string) (map[billing.Month]decimal.Decimal, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM created_at AT TIME ZONE $5)::int,
		       EXTRACT(MONTH FROM created_at AT TIME ZONE $5)::int,
		       SUM(amount)
		FROM transactions
		WHERE lease_id = $1 AND status = $2 AND created_at >= $3 AND created_at < $4
		GROUP BY 1, 2
	`, leaseID, domain.TransactionPaid, from, to, tz)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[billing.Month]decimal.Decimal)
	for rows.Next() {
		var (
			year, month int
			sum         decimal.Decimal
		)
		if err := rows.Scan(&year, &month, &sum); err != nil {
			return nil, err
		}
		out[billing.Month{Year: year, Month: time.Month(month)}] = sum
	}
	return out, rows.Err()
}

func insertTransaction(ctx context.Context, q db.Querier, in CreateTransactionInput) (*domain.Transaction, error) {
	t, err := scanTransaction(q.QueryRow(ctx, `
		INSERT INTO transactions (lease_id, amount, status, payment_method, payment_type, payme_transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+transactionColumns,
		in.LeaseID, in.Amount, in.Status, in.PaymentMethod, in.PaymentType, in.PaymeTransactionID))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return t, nil
}

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var (
		t                     domain.Transaction
		status, method, ptype string
	)
	if err := row.Scan(&t.ID, &t.LeaseID, &t.Amount, &status, &method, &ptype, &t.PaymeTransactionID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.TransactionStatus(status)
	t.PaymentMethod = domain.PaymentMethod(method)
	t.PaymentType = domain.PaymentType(ptype)
	return &t, nil
}
