package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/domain"
)

type StoreRepository struct {
	DB *db.Postgres
}

type StoreInput struct {
	StoreNumber string
	Area        decimal.NullDecimal
	SectionID   *int64
	SaleTypeID  *int64
	Description string
}

const storeColumns = `id, store_number, area, section_id, sale_type_id, description, created_at, updated_at`

func (r StoreRepository) List(ctx context.Context, sectionID *int64) ([]domain.Store, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+storeColumns+`
		FROM stores
		WHERE $1::bigint IS NULL OR section_id = $1
		ORDER BY store_number ASC
	`, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

func (r StoreRepository) Get(ctx context.Context, id int64) (*domain.Store, error) {
	s, err := scanStore(r.DB.Pool.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r StoreRepository) Create(ctx context.Context, in StoreInput) (*domain.Store, error) {
	s, err := scanStore(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO stores (store_number, area, section_id, sale_type_id, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5, now(), now())
		RETURNING `+storeColumns, in.StoreNumber, in.Area, in.SectionID, in.SaleTypeID, in.Description))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return s, nil
}

func (r StoreRepository) Update(ctx context.Context, id int64, in StoreInput) (*domain.Store, error) {
	s, err := scanStore(r.DB.Pool.QueryRow(ctx, `
		UPDATE stores SET store_number=$2, area=$3, section_id=$4, sale_type_id=$5, description=$6, updated_at=now()
		WHERE id = $1
		RETURNING `+storeColumns, id, in.StoreNumber, in.Area, in.SectionID, in.SaleTypeID, in.Description))
	if err != nil {
		return nil, mapWriteErr(notFound(err))
	}
	return s, nil
}

func (r StoreRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStore(row scanner) (*domain.Store, error) {
	var s domain.Store
	if err := row.Scan(&s.ID, &s.StoreNumber, &s.Area, &s.SectionID, &s.SaleTypeID, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
