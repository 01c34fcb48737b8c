package registry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"notification-hub/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS subscribers (
    topic      TEXT NOT NULL,
    url        TEXT NOT NULL,
    name       TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (topic, url)
);`

// SQLiteRegistry persists subscribers in a SQLite database file.
type SQLiteRegistry struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteRegistry, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create registry directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteRegistry{db: db, path: path}, nil
}

func (r *SQLiteRegistry) Subscribe(ctx context.Context, topic string, s model.Subscriber) error {
	t, s, err := prepare(topic, s)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(
		ctx,
		`INSERT INTO subscribers (topic, url, name, created_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (topic, url) DO NOTHING`,
		t,
		s.URL,
		s.Name,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert subscriber: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subscribe %s to %s: %w", s.URL, t, ErrDuplicateSubscriber)
	}
	return nil
}

func (r *SQLiteRegistry) Unsubscribe(ctx context.Context, topic, url string) error {
	t, err := model.NormalizeTopic(topic)
	if err != nil {
		return err
	}
	url = strings.TrimSpace(url)

	res, err := r.db.ExecContext(ctx, `DELETE FROM subscribers WHERE topic = ? AND url = ?`, t, url)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("unsubscribe %s from %s: %w", url, t, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRegistry) List(ctx context.Context, topic string) ([]model.Subscriber, error) {
	t, err := model.NormalizeTopic(topic)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT url, name FROM subscribers WHERE topic = ? ORDER BY url`, t)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	out := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.URL, &s.Name); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscribers: %w", err)
	}
	return out, nil
}

func (r *SQLiteRegistry) Topics(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT topic FROM subscribers ORDER BY topic`)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRegistry) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
