package repository

import (
	"context"

	"marketplace-backend/internal/db"
	"marketplace-backend/internal/domain"
)

type UserRepository struct {
	DB *db.Postgres
}

type CreateUserParams struct {
	Name         string
	Email        string
	Role         domain.UserRole
	PasswordHash *string
}

const userColumns = `id, name, email, role, password_hash, created_at, updated_at`

func (r UserRepository) Create(ctx context.Context, p CreateUserParams) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO users (name, email, role, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4, now(), now())
		RETURNING `+userColumns, p.Name, p.Email, p.Role, p.PasswordHash)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return u, nil
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}
