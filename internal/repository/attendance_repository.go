package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/db"
	"marketplace-backend/internal/domain"
)

const dateLayout = "2006-01-02"

type AttendanceRepository struct {
	DB *db.Postgres
}

type MarkAttendanceInput struct {
	LeaseID int64
	StallID *int64
	Date    time.Time
	Status  domain.AttendanceStatus
	Amount  decimal.Decimal
}

// Mark records a day against a lease. A second record for the same day is a conflict.
func (r AttendanceRepository) Mark(ctx context.Context, in MarkAttendanceInput) (*domain.Attendance, error) {
	if in.Status == "" {
		in.Status = domain.AttendanceUnpaid
	}
	a, err := scanAttendance(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO attendances (lease_id, stall_id, attendance_date, status, amount, created_at)
		VALUES ($1, $2, $3::date, $4, $5, now())
		RETURNING id, lease_id, stall_id, attendance_date, status, amount, created_at
	`, in.LeaseID, in.StallID, in.Date.Format(dateLayout), in.Status, in.Amount))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return a, nil
}

func (r AttendanceRepository) Unmark(ctx context.Context, leaseID int64, day time.Time) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		DELETE FROM attendances WHERE lease_id = $1 AND attendance_date = $2::date
	`, leaseID, day.Format(dateLayout))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRange returns the records of a lease with from <= date < to.
func (r AttendanceRepository) ListRange(ctx context.Context, leaseID int64, from, to time.Time) ([]domain.Attendance, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, lease_id, stall_id, attendance_date, status, amount, created_at
		FROM attendances
		WHERE lease_id = $1 AND attendance_date >= $2::date AND attendance_date < $3::date
		ORDER BY attendance_date ASC
	`, leaseID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

func (r AttendanceRepository) CountRange(ctx context.Context, leaseID int64, from, to time.Time) (int, error) {
	var n int
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM attendances
		WHERE lease_id = $1 AND attendance_date >= $2::date AND attendance_date < $3::date
	`, leaseID, from.Format(dateLayout), to.Format(dateLayout)).Scan(&n)
	return n, err
}

// MonthlyCounts groups the records of a lease by calendar month.
func (r AttendanceRepository) MonthlyCounts(ctx context.Context, leaseID int64, from, to time.Time) (map[billing.Month]int, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT EXTRACT(YEAR FROM attendance_date)::int, EXTRACT(MONTH FROM attendance_date)::int, COUNT(*)
		FROM attendances
		WHERE lease_id = $1 AND attendance_date >= $2::date AND attendance_date < $3::date
		GROUP BY 1, 2
	`, leaseID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[billing.Month]int)
	for rows.Next() {
		var year, month, n int
		if err := rows.Scan(&year, &month, &n); err != nil {
			return nil, err
		}
		out[billing.Month{Year: year, Month: time.Month(month)}] = n
	}
	return out, rows.Err()
}

func scanAttendance(row scanner) (*domain.Attendance, error) {
	var (
		a      domain.Attendance
		status string
	)
	if err := row.Scan(&a.ID, &a.LeaseID, &a.StallID, &a.Date, &status, &a.Amount, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Status = domain.AttendanceStatus(status)
	return &a, nil
}
