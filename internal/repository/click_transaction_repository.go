package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/domain"
)

type ClickTransactionRepository struct {
	DB *db.Postgres
}

const clickColumns = `id, click_trans_id, service_id, click_paydoc_id, merchant_trans_id, amount, action, status,
	error, error_note, sign_time, created_at, updated_at`

// GetTransaction exposes the payment row a Click request refers to.
func (r ClickTransactionRepository) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	return TransactionRepository{DB: r.DB}.Get(ctx, id)
}

func (r ClickTransactionRepository) GetByClickTransID(ctx context.Context, clickTransID string) (*domain.ClickTransaction, error) {
	c, err := scanClick(r.DB.Pool.QueryRow(ctx, `SELECT `+clickColumns+` FROM click_transactions WHERE click_trans_id = $1`, clickTransID))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// Get looks a row up by its id and the gateway id together.
func (r ClickTransactionRepository) Get(ctx context.Context, id int64, clickTransID string) (*domain.ClickTransaction, error) {
	c, err := scanClick(r.DB.Pool.QueryRow(ctx, `
		SELECT `+clickColumns+` FROM click_transactions WHERE id = $1 AND click_trans_id = $2
	`, id, clickTransID))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// Create stores a prepared row. A repeated click_trans_id yields ErrConflict.
func (r ClickTransactionRepository) Create(ctx context.Context, in domain.ClickTransaction) (*domain.ClickTransaction, error) {
	c, err := scanClick(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO click_transactions (click_trans_id, service_id, click_paydoc_id, merchant_trans_id, amount, action,
		                                status, error, error_note, sign_time, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now(), now())
		RETURNING `+clickColumns,
		in.ClickTransID, in.ServiceID, in.ClickPaydocID, in.MerchantTransID, in.Amount, in.Action,
		int(domain.ClickCreated), in.Error, in.ErrorNote, in.SignTime))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return c, nil
}

// Cancel moves a created row to cancelled and keeps the gateway's error.
func (r ClickTransactionRepository) Cancel(ctx context.Context, id int64, code int, note string) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE click_transactions SET status = $2, error = $3, error_note = $4, action = 1, updated_at = now()
		WHERE id = $1 AND status = $5
	`, id, int(domain.ClickCancelled), code, note, int(domain.ClickCreated))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: click transaction %d is not open", ErrConflict, id)
	}
	return nil
}

// Complete marks the Click row completed and the payment row PAID in one
// database transaction. A payment row that already ended without being paid
// gives ErrPaymentClosed and leaves both rows untouched.
func (r ClickTransactionRepository) Complete(ctx context.Context, clickID, transactionID int64, clickTransID string) error {
	return r.DB.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE click_transactions SET status = $2, action = 1, updated_at = now()
			WHERE id = $1 AND status = $3
		`, clickID, int(domain.ClickCompleted), int(domain.ClickCreated))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: click transaction %d is not open", ErrConflict, clickID)
		}

		tag, err = tx.Exec(ctx, `
			UPDATE transactions
			SET status = $2, payment_method = $3, payme_transaction_id = $4, updated_at = now()
			WHERE id = $1 AND status = $5
		`, transactionID, domain.TransactionPaid, domain.MethodClick, clickTransID, domain.TransactionPending)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		var status string
		err = tx.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1`, transactionID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		switch domain.TransactionStatus(status) {
		case domain.TransactionPaid, domain.TransactionPartialPaid:
			return fmt.Errorf("%w: transaction %d is %s", ErrConflict, transactionID, status)
		}
		return fmt.Errorf("%w: transaction %d is %s", ErrPaymentClosed, transactionID, status)
	})
}

func scanClick(row scanner) (*domain.ClickTransaction, error) {
	var (
		c      domain.ClickTransaction
		status int
	)
	if err := row.Scan(
		&c.ID, &c.ClickTransID, &c.ServiceID, &c.ClickPaydocID, &c.MerchantTransID, &c.Amount, &c.Action, &status,
		&c.Error, &c.ErrorNote, &c.SignTime, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = domain.ClickStatus(status)
	return &c, nil
}
