package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type ScheduleSQLite struct {
	db *sql.DB
}

func NewScheduleSQLite(db *sql.DB) *ScheduleSQLite { return &ScheduleSQLite{db: db} }

const (
	deleteSchedulesSQL = `DELETE FROM schedules`
	insertScheduleSQL  = `INSERT INTO schedules (time_setting) VALUES (?)`
	listSchedulesSQL   = `SELECT time_setting FROM schedules ORDER BY time_setting ASC`
)

// ReplaceAll atomically swaps the full schedule set: the old rows are
// deleted and the new ones inserted in a single transaction.
func (r *ScheduleSQLite) ReplaceAll(ctx context.Context, times []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schedule replace: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, deleteSchedulesSQL); err != nil {
		return fmt.Errorf("clear schedules: %w", err)
	}
	for _, t := range times {
		if _, err := tx.ExecContext(ctx, insertScheduleSQL, t); err != nil {
			return fmt.Errorf("insert schedule %q: %w", t, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schedule replace: %w", err)
	}
	return nil
}

// List returns all stored schedules in ascending time order.
func (r *ScheduleSQLite) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listSchedulesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 8)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
