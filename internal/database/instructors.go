package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"surfside/internal/models"
)

func (db *DB) ListInstructors(ctx context.Context) ([]*models.Instructor, error) {
	return listInstructors(ctx, db)
}

func listInstructors(ctx context.Context, q querier) ([]*models.Instructor, error) {
	rows, err := q.QueryContext(ctx, `SELECT name, specialties, sort_order FROM instructors ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructors: %w", err)
	}
	defer rows.Close()

	var roster []*models.Instructor
	for rows.Next() {
		var (
			in  models.Instructor
			raw string
		)
		if err := rows.Scan(&in.Name, &raw, &in.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan instructor: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &in.Specialties); err != nil {
			return nil, fmt.Errorf("failed to decode specialties for %s: %w", in.Name, err)
		}
		roster = append(roster, &in)
	}
	return roster, rows.Err()
}

// ReplaceInstructors swaps the whole roster atomically. Order follows the slice.
func (db *DB) ReplaceInstructors(ctx context.Context, roster []*models.Instructor) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM instructors`); err != nil {
			return fmt.Errorf("failed to clear instructors: %w", err)
		}
		return insertInstructors(ctx, tx, roster)
	})
}

// EnsureInstructors seeds the roster when the table is empty and reports
// whether it did.
func (db *DB) EnsureInstructors(ctx context.Context, defaults []*models.Instructor) (bool, error) {
	seeded := false
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM instructors`).Scan(&count); err != nil {
			return fmt.Errorf("failed to count instructors: %w", err)
		}
		if count > 0 {
			return nil
		}
		seeded = true
		return insertInstructors(ctx, tx, defaults)
	})
	if err != nil {
		return false, err
	}
	if seeded {
		db.logger.Info().Int("count", len(defaults)).Msg("instructor roster seeded")
	}
	return seeded, nil
}

func insertInstructors(ctx context.Context, tx *sql.Tx, roster []*models.Instructor) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO instructors (name, specialties, sort_order, updated_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare instructor insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i, in := range roster {
		specialties := in.Specialties
		if specialties == nil {
			specialties = []string{}
		}
		raw, err := json.Marshal(specialties)
		if err != nil {
			return fmt.Errorf("failed to encode specialties for %s: %w", in.Name, err)
		}
		if _, err := stmt.ExecContext(ctx, in.Name, string(raw), int64(i), now); err != nil {
			return fmt.Errorf("failed to insert instructor %s: %w", in.Name, err)
		}
		in.SortOrder = int64(i)
	}
	return nil
}
