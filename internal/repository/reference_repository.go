package repository

import (
	"context"
	"fmt"

	"marketplace-backend/internal/db"
)

// Tables served by ReferenceRepository.
const (
	TableSections  = "sections"
	TableSaleTypes = "sale_types"
)

// Reference is a named lookup row (section, sale type).
type Reference struct {
	ID          int64
	Name        string
	Description string
}

// ReferenceRepository serves the simple name/description lookup tables.
// Table must be one of the Table* constants.
type ReferenceRepository struct {
	DB    *db.Postgres
	Table string
}

func (r ReferenceRepository) List(ctx context.Context) ([]Reference, error) {
	rows, err := r.DB.Pool.Query(ctx, fmt.Sprintf(`SELECT id, name, description FROM %s ORDER BY name ASC`, r.Table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Reference
	for rows.Next() {
		var it Reference
		if err := rows.Scan(&it.ID, &it.Name, &it.Description); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r ReferenceRepository) Get(ctx context.Context, id int64) (*Reference, error) {
	var it Reference
	err := r.DB.Pool.QueryRow(ctx, fmt.Sprintf(`SELECT id, name, description FROM %s WHERE id = $1`, r.Table), id).
		Scan(&it.ID, &it.Name, &it.Description)
	if err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}

func (r ReferenceRepository) Create(ctx context.Context, name, description string) (*Reference, error) {
	var it Reference
	err := r.DB.Pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, description, created_at) VALUES ($1, $2, now())
		RETURNING id, name, description`, r.Table), name, description).
		Scan(&it.ID, &it.Name, &it.Description)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return &it, nil
}

func (r ReferenceRepository) Update(ctx context.Context, id int64, name, description string) (*Reference, error) {
	var it Reference
	err := r.DB.Pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE %s SET name = $2, description = $3 WHERE id = $1
		RETURNING id, name, description`, r.Table), id, name, description).
		Scan(&it.ID, &it.Name, &it.Description)
	if err != nil {
		return nil, mapWriteErr(notFound(err))
	}
	return &it, nil
}

func (r ReferenceRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.Table), id)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
