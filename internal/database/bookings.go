package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"surfside/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Guard inspects the day's bookings and the current roster inside the write
// transaction. A non-nil error aborts the write and is returned unchanged.
type Guard = func(day []*models.Booking, roster []*models.Instructor) error

var bookingColumns = []string{
	"id", "full_name", "phone", "email", "activity", "date", "time", "duration",
	"status", "instructor_name", "created_at", "updated_at", "version",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.Customer.FullName, &b.Customer.Phone, &b.Customer.Email,
		&b.Activity, &b.Date, &b.Time, &b.Duration,
		&b.Status, &b.InstructorName, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

// CreateBooking inserts b without any availability check.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	return insertBooking(ctx, db, b)
}

// CreateBookingChecked inserts b after guard accepts the state of b's day.
func (db *DB) CreateBookingChecked(ctx context.Context, b *models.Booking, guard Guard) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := runGuard(ctx, tx, b.Date, guard); err != nil {
			return err
		}
		return insertBooking(ctx, tx, b)
	})
}

func insertBooking(ctx context.Context, q querier, b *models.Booking) error {
	now := time.Now()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt == 0 {
		b.CreatedAt = now.UnixMilli()
	}

	query, args, err := sq.Insert("bookings").
		Columns(bookingColumns...).
		Values(
			b.ID, b.Customer.FullName, b.Customer.Phone, b.Customer.Email,
			b.Activity, b.Date, b.Time, b.Duration,
			b.Status, b.InstructorName, b.CreatedAt, now, 1,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	b.UpdatedAt = now
	b.Version = 1
	return nil
}

// UpdateBookingChecked persists every mutable field of b, provided the stored
// version still equals fromVersion and guard accepts the target day.
func (db *DB) UpdateBookingChecked(ctx context.Context, b *models.Booking, fromVersion int64, guard Guard) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := runGuard(ctx, tx, b.Date, guard); err != nil {
			return err
		}

		now := time.Now()
		query, args, err := sq.Update("bookings").
			SetMap(map[string]any{
				"full_name":       b.Customer.FullName,
				"phone":           b.Customer.Phone,
				"email":           b.Customer.Email,
				"activity":        b.Activity,
				"date":            b.Date,
				"time":            b.Time,
				"duration":        b.Duration,
				"status":          b.Status,
				"instructor_name": b.InstructorName,
				"updated_at":      now,
				"version":         sq.Expr("version + 1"),
			}).
			Where(sq.Eq{"id": b.ID, "version": fromVersion}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update: %w", err)
		}

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return missingOrStale(ctx, tx, b.ID)
		}

		b.Version = fromVersion + 1
		b.UpdatedAt = now
		return nil
	})
}

// UpdateBookingStatusWithVersion changes only the status column.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return missingOrStale(ctx, db, id)
	}
	return nil
}

func missingOrStale(ctx context.Context, q querier, id string) error {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookingNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check booking %s: %w", id, err)
	}
	return ErrConcurrentModification
}

func runGuard(ctx context.Context, q querier, date string, guard Guard) error {
	if guard == nil {
		return nil
	}
	day, err := bookingsByDate(ctx, q, date)
	if err != nil {
		return err
	}
	roster, err := listInstructors(ctx, q)
	if err != nil {
		return err
	}
	return guard(day, roster)
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query, args, err := sq.Select(bookingColumns...).From("bookings").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	b, err := scanBooking(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// GetBookingsByDate returns every booking on date regardless of status.
func (db *DB) GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	return bookingsByDate(ctx, db, date)
}

func bookingsByDate(ctx context.Context, q querier, date string) ([]*models.Booking, error) {
	query, args, err := sq.Select(bookingColumns...).
		From("bookings").
		Where(sq.Eq{"date": date}).
		OrderBy("time ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date: %w", err)
	}
	return collectBookings(rows)
}

// GetBookingsByDateRange returns bookings with from <= date <= to, ordered by day and hour.
func (db *DB) GetBookingsByDateRange(ctx context.Context, from, to string) ([]*models.Booking, error) {
	query, args, err := sq.Select(bookingColumns...).
		From("bookings").
		Where(sq.And{sq.GtOrEq{"date": from}, sq.LtOrEq{"date": to}}).
		OrderBy("date ASC", "time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	return collectBookings(rows)
}

// ListBookings returns bookings matching filter, newest first.
func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	builder := sq.Select(bookingColumns...).From("bookings")

	conds := sq.Eq{}
	if filter.Date != "" {
		conds["date"] = filter.Date
	}
	if filter.Status != "" {
		conds["status"] = filter.Status
	}
	if filter.Activity != "" {
		conds["activity"] = filter.Activity
	}
	if filter.InstructorName != "" {
		conds["instructor_name"] = filter.InstructorName
	}
	if len(conds) > 0 {
		builder = builder.Where(conds)
	}

	builder = builder.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return collectBookings(rows)
}

// ListActionableBookings returns requests staff still has to act on:
// pending ones and confirmed ones without an instructor.
func (db *DB) ListActionableBookings(ctx context.Context) ([]*models.Booking, error) {
	query, args, err := sq.Select(bookingColumns...).
		From("bookings").
		Where(sq.Or{
			sq.Eq{"status": models.StatusPending},
			sq.And{sq.Eq{"status": models.StatusConfirmed}, sq.Eq{"instructor_name": ""}},
		}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list actionable bookings: %w", err)
	}
	return collectBookings(rows)
}

func (db *DB) DeleteBooking(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrBookingNotFound
	}
	return nil
}
