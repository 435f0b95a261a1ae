package database

import (
	"context"
	"fmt"
	"time"

	"surfside/internal/models"

	sq "github.com/Masterminds/squirrel"
)

func (db *DB) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO logs (timestamp, type, booking_id, user_name, details) VALUES (?, ?, ?, ?, ?)`,
		entry.Timestamp, entry.Type, entry.BookingID, entry.UserName, entry.Details,
	)
	if err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// ListLogs returns the newest entries first. An empty bookingID lists all.
func (db *DB) ListLogs(ctx context.Context, limit int, bookingID string) ([]*models.LogEntry, error) {
	if limit <= 0 || limit > models.MaxLogEntries {
		limit = models.MaxLogEntries
	}

	builder := sq.Select("id", "timestamp", "type", "booking_id", "user_name", "details").From("logs")
	if bookingID != "" {
		builder = builder.Where(sq.Eq{"booking_id": bookingID})
	}
	query, args, err := builder.OrderBy("timestamp DESC", "id DESC").Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.LogEntry
	for rows.Next() {
		e := &models.LogEntry{}
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Type, &e.BookingID, &e.UserName, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
