package db

import (
	"context"
	"fmt"
	"time"
)

// ErrorLog is a persisted crash or failure record.
type ErrorLog struct {
	ID         int64
	Level      string
	Module     string
	Message    string
	Stacktrace string
	Context    string
	CreatedAt  time.Time
}

// InsertErrorLogParams holds the columns for a new error log row.
type InsertErrorLogParams struct {
	Level      string
	Module     string
	Message    string
	Stacktrace string
	Context    string
}

// InsertErrorLog records a failure.
func (s *Store) InsertErrorLog(ctx context.Context, arg InsertErrorLogParams) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO error_logs (level, module, message, stacktrace, context) VALUES (?, ?, ?, ?, ?)`,
		arg.Level, arg.Module, arg.Message, nullString(arg.Stacktrace), nullString(arg.Context))
	if err != nil {
		return fmt.Errorf("insert error log: %w", err)
	}
	return nil
}

// ListErrorLogs returns the most recent error logs, newest first.
func (s *Store) ListErrorLogs(ctx context.Context, limit int) ([]ErrorLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, level, module, message, COALESCE(stacktrace, ''), COALESCE(context, ''), created_at
		 FROM error_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list error logs: %w", err)
	}
	defer rows.Close()

	var out []ErrorLog
	for rows.Next() {
		var (
			e       ErrorLog
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Level, &e.Module, &e.Message, &e.Stacktrace, &e.Context, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = unix(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
