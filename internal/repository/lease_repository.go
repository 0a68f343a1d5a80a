package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/domain"
)

type LeaseRepository struct {
	DB *db.Postgres
}

type LeaseFilter struct {
	OwnerID *int64
	Active  *bool
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

const leaseColumns = `l.id, l.owner_id, l.store_id, l.stall_id, l.shop_monthly_fee, l.stall_monthly_fee, l.guard_fee,
	l.payment_interval, l.issue_date, l.expiry_date, l.is_active, l.certificate_no, l.created_at, l.updated_at`

func (r LeaseRepository) List(ctx context.Context, f LeaseFilter) ([]domain.Lease, error) {
	return queryLeases(ctx, r.DB.Pool, `
		SELECT `+leaseColumns+`
		FROM leases l
		WHERE ($1::bigint IS NULL OR l.owner_id = $1)
		  AND ($2::boolean IS NULL OR l.is_active = $2)
		ORDER BY l.id ASC
	`, f.OwnerID, f.Active)
}

func (r LeaseRepository) ListActive(ctx context.Context) ([]domain.Lease, error) {
	active := true
	return r.List(ctx, LeaseFilter{Active: &active})
}

// ListByOwnerIdentifier returns the active leases of the owner with the given tax id.
func (r LeaseRepository) ListByOwnerIdentifier(ctx context.Context, identifier string) ([]domain.Lease, error) {
	return queryLeases(ctx, r.DB.Pool, `
		SELECT `+leaseColumns+`
		FROM leases l
		JOIN owners o ON o.id = l.owner_id
		WHERE o.identifier = $1 AND l.is_active
		ORDER BY l.id ASC
	`, identifier)
}

func (r LeaseRepository) Get(ctx context.Context, id int64) (*domain.Lease, error) {
	l, err := scanLease(r.DB.Pool.QueryRow(ctx, `SELECT `+leaseColumns+` FROM leases l WHERE l.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return l, nil
}

// Create inserts an active lease after checking, under row locks, that no
// other active lease holds the same asset.
func (r LeaseRepository) Create(ctx context.Context, in LeaseInput) (*domain.Lease, error) {
	var created *domain.Lease
	err := r.DB.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockAssetFree(ctx, tx, in.StoreID, in.StallID, 0); err != nil {
			return err
		}
		l, err := scanLease(tx.QueryRow(ctx, `
			INSERT INTO leases AS l (owner_id, store_id, stall_id, shop_monthly_fee, stall_monthly_fee, guard_fee,
			                         payment_interval, issue_date, expiry_date, is_active, certificate_no, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, true, $10, now(), now())
			RETURNING `+leaseColumns,
			in.OwnerID, in.StoreID, in.StallID, in.ShopMonthlyFee, in.StallMonthlyFee, in.GuardFee,
			in.PaymentInterval, in.IssueDate, in.ExpiryDate, in.CertificateNo))
		if err != nil {
			return mapWriteErr(err)
		}
		created = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update changes the billing terms of a lease. The asset is immutable.
func (r LeaseRepository) Update(ctx context.Context, id int64, in LeaseInput) (*domain.Lease, error) {
	l, err := scanLease(r.DB.Pool.QueryRow(ctx, `
		UPDATE leases l SET shop_monthly_fee=$2, stall_monthly_fee=$3, guard_fee=$4, payment_interval=$5,
		       issue_date=$6, expiry_date=$7, certificate_no=$8, updated_at=now()
		WHERE l.id = $1
		RETURNING `+leaseColumns,
		id, in.ShopMonthlyFee, in.StallMonthlyFee, in.GuardFee, in.PaymentInterval, in.IssueDate, in.ExpiryDate, in.CertificateNo))
	if err != nil {
		return nil, mapWriteErr(notFound(err))
	}
	return l, nil
}

func (r LeaseRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `UPDATE leases SET is_active=false, updated_at=now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reactivate turns a lease back on unless its asset is held by another
// active lease.
func (r LeaseRepository) Reactivate(ctx context.Context, id int64) error {
	return r.DB.WithTx(ctx, func(tx pgx.Tx) error {
		l, err := scanLease(tx.QueryRow(ctx, `SELECT `+leaseColumns+` FROM leases l WHERE l.id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound(err)
		}
		if l.IsActive {
			return nil
		}
		if err := lockAssetFree(ctx, tx, l.StoreID, l.StallID, l.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE leases SET is_active=true, updated_at=now() WHERE id = $1`, id); err != nil {
			return mapWriteErr(err)
		}
		return nil
	})
}

// ExpireBefore deactivates active leases whose expiry date is before day.
func (r LeaseRepository) ExpireBefore(ctx context.Context, day time.Time) (int64, error) {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE leases SET is_active=false, updated_at=now()
		WHERE is_active AND expiry_date IS NOT NULL AND expiry_date < $1::date
	`, day.Format(dateLayout))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func lockAssetFree(ctx context.Context, tx pgx.Tx, storeID, stallID *int64, exceptLease int64) error {
	var (
		table, column string
		assetID       int64
	)
	switch {
	case storeID != nil:
		table, column, assetID = "stores", "store_id", *storeID
	case stallID != nil:
		table, column, assetID = "stalls", "stall_id", *stallID
	default:
		return fmt.Errorf("lease has no asset")
	}
	var locked int64
	if err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, table), assetID).Scan(&locked); err != nil {
		return notFound(err)
	}
	var taken bool
	err := tx.QueryRow(ctx, fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM leases WHERE is_active AND %s = $1 AND id <> $2)
	`, column), assetID, exceptLease).Scan(&taken)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s %d already has an active lease", ErrConflict, table, assetID)
	}
	return nil
}

func queryLeases(ctx context.Context, q db.Querier, sql string, args ...any) ([]domain.Lease, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *l)
	}
	return items, rows.Err()
}

func scanLease(row scanner) (*domain.Lease, error) {
	var (
		l        domain.Lease
		interval string
	)
	if err := row.Scan(
		&l.ID, &l.OwnerID, &l.StoreID, &l.StallID, &l.ShopMonthlyFee, &l.StallMonthlyFee, &l.GuardFee,
		&interval, &l.IssueDate, &l.ExpiryDate, &l.IsActive, &l.CertificateNo, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.PaymentInterval = domain.PaymentInterval(interval)
	return &l, nil
}
