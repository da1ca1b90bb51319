package reminder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS reminders (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	task       TEXT NOT NULL CHECK (task <> ''),
	due        TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
)`

type SQLiteStore struct {
	conn *sql.DB
	now  func() time.Time
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// Writes are serialized through a single connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return &SQLiteStore{conn: conn, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Add(ctx context.Context, task, when string) (Reminder, error) {
	r, err := newReminder(task, when, s.now())
	if err != nil {
		return Reminder{}, err
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO reminders (id, task, due, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Task, r.When, r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Reminder, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, task, due, created_at FROM reminders ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query reminders: %w", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var (
			r       Reminder
			created string
		)
		if err := rows.Scan(&r.ID, &r.Task, &r.When, &created); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", created, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
