// Package store persists conversation history and login attempts in
// SQLite. Timestamps are assigned by the database at insertion time.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pymentor/agent-server/internal/model"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=30000&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under the request-at-a-time model.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_role ON messages(role)`,
		`CREATE TABLE IF NOT EXISTS login_attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			identifier TEXT NOT NULL,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_login_attempts_identifier_timestamp
			ON login_attempts(identifier, timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save appends a message. The database assigns the timestamp.
func (s *Store) Save(ctx context.Context, role model.Role, content string) error {
	if _, err := model.ParseRole(string(role)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (role, content) VALUES (?, ?)`, string(role), content)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// LoadRecent returns the most recent limit messages in chronological
// order, oldest first.
func (s *Store) LoadRecent(ctx context.Context, limit int) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, timestamp FROM messages
		ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent messages: %w", err)
	}
	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	return msgs, nil
}

// LoadAll returns the full history in chronological order.
func (s *Store) LoadAll(ctx context.Context) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, timestamp FROM messages
		ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load all messages: %w", err)
	}
	return scanMessages(rows)
}

// LoadBetween returns messages with timestamps in [start, end],
// chronological order.
func (s *Store) LoadBetween(ctx context.Context, start, end time.Time) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, timestamp FROM messages
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC, id ASC`,
		start.UTC().Format(timeLayout), end.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("load messages between: %w", err)
	}
	return scanMessages(rows)
}

// DeleteAll removes every message. Destructive.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("delete all messages: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes messages older than the given number of days and
// returns how many were removed. Non-positive days is a no-op.
func (s *Store) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old messages: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RecordLoginAttempt logs a failed login for the identifier.
func (s *Store) RecordLoginAttempt(ctx context.Context, identifier string) error {
	if identifier == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO login_attempts (identifier) VALUES (?)`, identifier)
	if err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

// CountRecentLoginAttempts counts attempts for the identifier within the
// rolling window.
func (s *Store) CountRecentLoginAttempts(ctx context.Context, identifier string, window time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-window).Format(timeLayout)
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE identifier = ? AND timestamp > ?`, identifier, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count login attempts: %w", err)
	}
	return count, nil
}

// PurgeOldLoginAttempts deletes attempt records older than days.
func (s *Store) PurgeOldLoginAttempts(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("purge login attempts: %w", err)
	}
	return nil
}

// Ping reports database reachability for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const timeLayout = "2006-01-02 15:04:05"

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	defer rows.Close()
	var out []model.Message
	for rows.Next() {
		var roleStr, content string
		var ts time.Time
		if err := rows.Scan(&roleStr, &content, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		role, err := model.ParseRole(roleStr)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Message{Role: role, Content: content, Timestamp: ts})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

func reverse(msgs []model.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
