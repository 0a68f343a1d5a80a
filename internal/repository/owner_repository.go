package repository

import (
	"context"

	"marketplace-backend/internal/db"
	"marketplace-backend/internal/domain"
)

type OwnerRepository struct {
	DB *db.Postgres
}

type OwnerInput struct {
	Name       string
	Identifier string
	Phone      string
	Address    string
}

const ownerColumns = `id, name, identifier, phone, address, created_at, updated_at`

func (r OwnerRepository) List(ctx context.Context, search string, limit int) ([]domain.Owner, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+ownerColumns+`
		FROM owners
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR identifier = $1 OR phone = $1
		ORDER BY name ASC
		LIMIT $2
	`, search, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *o)
	}
	return items, rows.Err()
}

func (r OwnerRepository) Get(ctx context.Context, id int64) (*domain.Owner, error) {
	o, err := scanOwner(r.DB.Pool.QueryRow(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (r OwnerRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Owner, error) {
	o, err := scanOwner(r.DB.Pool.QueryRow(ctx, `SELECT `+ownerColumns+` FROM owners WHERE identifier = $1`, identifier))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (r OwnerRepository) Create(ctx context.Context, in OwnerInput) (*domain.Owner, error) {
	o, err := scanOwner(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO owners (name, identifier, phone, address, created_at, updated_at)
		VALUES ($1,$2,$3,$4, now(), now())
		RETURNING `+ownerColumns, in.Name, in.Identifier, in.Phone, in.Address))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return o, nil
}

func (r OwnerRepository) Update(ctx context.Context, id int64, in OwnerInput) (*domain.Owner, error) {
	o, err := scanOwner(r.DB.Pool.QueryRow(ctx, `
		UPDATE owners SET name=$2, identifier=$3, phone=$4, address=$5, updated_at=now()
		WHERE id = $1
		RETURNING `+ownerColumns, id, in.Name, in.Identifier, in.Phone, in.Address))
	if err != nil {
		return nil, mapWriteErr(notFound(err))
	}
	return o, nil
}

func (r OwnerRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `DELETE FROM owners WHERE id = $1`, id)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOwner(row scanner) (*domain.Owner, error) {
	var o domain.Owner
	if err := row.Scan(&o.ID, &o.Name, &o.Identifier, &o.Phone, &o.Address, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
