package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/domain"
)

type StallRepository struct {
	DB *db.Postgres
}

type StallInput struct {
	StallNumber string
	Area        decimal.NullDecimal
	SectionID   *int64
	SaleTypeID  *int64
	DailyFee    decimal.NullDecimal
	Description string
}

const stallColumns = `id, stall_number, area, section_id, sale_type_id, daily_fee, description, created_at, updated_at`

func (r StallRepository) List(ctx context.Context, sectionID *int64) ([]domain.Stall, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+stallColumns+`
		FROM stalls
		WHERE $1::bigint IS NULL OR section_id = $1
		ORDER BY stall_number ASC
	`, sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Stall
	for rows.Next() {
		s, err := scanStall(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	return items, rows.Err()
}

func (r StallRepository) Get(ctx context.Context, id int64) (*domain.Stall, error) {
	s, err := scanStall(r.DB.Pool.QueryRow(ctx, `SELECT `+stallColumns+` FROM stalls WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r StallRepository) Create(ctx context.Context, in StallInput) (*domain.Stall, error) {
	s, err := scanStall(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO stalls (stall_number, area, section_id, sale_type_id, daily_fee, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now(), now())
		RETURNING `+stallColumns, in.StallNumber, in.Area, in.SectionID, in.SaleTypeID, in.DailyFee, in.Description))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return s, nil
}

func (r StallRepository) Update(ctx context.Context, id int64, in StallInput) (*domain.Stall, error) {
	s, err := scanStall(r.DB.Pool.QueryRow(ctx, `
		UPDATE stalls SET stall_number=$2, area=$3, section_id=$4, sale_type_id=$5, daily_fee=$6, description=$7, updated_at=now()
		WHERE id = $1
		RETURNING `+stallColumns, id, in.StallNumber, in.Area, in.SectionID, in.SaleTypeID, in.DailyFee, in.Description))
	if err != nil {
		return nil, mapWriteErr(notFound(err))
	}
	return s, nil
}

func (r StallRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `DELETE FROM stalls WHERE id = $1`, id)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStall(row scanner) (*domain.Stall, error) {
	var s domain.Stall
	if err := row.Scan(&s.ID, &s.StallNumber, &s.Area, &s.SectionID, &s.SaleTypeID, &s.DailyFee, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
