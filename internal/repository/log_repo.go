package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"solarcleaner/internal/models"
)

type LogSQLite struct {
	db *sql.DB
}

func NewLogSQLite(db *sql.DB) *LogSQLite { return &LogSQLite{db: db} }

const (
	// SQLite TIMESTAMP format
	sqliteTimeLayout = "2006-01-02 15:04:05"

	insertLogSQL = `
		INSERT INTO logs (timestamp, action, status, type)
		VALUES (?, ?, ?, ?)
	`
	recentLogsSQL = `
		SELECT id, timestamp, action, status, type
		FROM logs ORDER BY timestamp DESC, id DESC LIMIT ?
	`
)

// Append inserts a new log entry. A zero Timestamp is set to UTC now.
func (r *LogSQLite) Append(ctx context.Context, e models.LogEntry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertLogSQL,
		ts.Format(sqliteTimeLayout),
		strings.TrimSpace(e.Action),
		strings.TrimSpace(e.Status),
		e.Type,
	)
	return err
}

// Recent returns the newest entries first, capped at limit.
func (r *LogSQLite) Recent(ctx context.Context, limit int) ([]models.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, recentLogsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.LogEntry, 0, 64)
	for rows.Next() {
		var e models.LogEntry
		var typ sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Action, &e.Status, &typ); err != nil {
			return nil, err
		}
		e.Timestamp = e.Timestamp.UTC()
		if typ.Valid {
			e.Type = typ.String
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
