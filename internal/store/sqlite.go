// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides session key-value persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeFormat keeps timestamps lexically ordered so they can be compared in SQL.
const timeFormat = "2006-01-02T15:04:05.000000Z"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS session_values (
			session_id TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      BLOB NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (session_id, key)
		);

		CREATE INDEX IF NOT EXISTS idx_session_values_updated
			ON session_values(session_id, updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get retrieves a session value.
// Returns ErrNotFound if the key has never been set.
func (s *SQLiteStore) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	query := `SELECT value FROM session_values WHERE session_id = ? AND key = ?`

	var value []byte
	err := s.db.QueryRowContext(ctx, query, sessionID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session value: %w", err)
	}

	return value, nil
}

// Set saves or updates a session value.
// Uses INSERT OR REPLACE to handle both insert and update cases.
func (s *SQLiteStore) Set(ctx context.Context, sessionID, key string, value []byte) error {
	query := `
		INSERT OR REPLACE INTO session_values (session_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		sessionID,
		key,
		value,
		time.Now().UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("saving session value: %w", err)
	}

	s.logger.Debug("saved session value", "session_id", sessionID, "key", key, "size", len(value))
	return nil
}

// Delete removes a session value.
func (s *SQLiteStore) Delete(ctx context.Context, sessionID, key string) error {
	query := `DELETE FROM session_values WHERE session_id = ? AND key = ?`

	if _, err := s.db.ExecContext(ctx, query, sessionID, key); err != nil {
		return fmt.Errorf("deleting session value: %w", err)
	}
	return nil
}

// Prune removes all values of sessions whose latest write is older than cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	stale := `
		SELECT session_id FROM session_values
		GROUP BY session_id
		HAVING MAX(updated_at) < ?
	`

	rows, err := s.db.QueryContext(ctx, stale, cutoff.UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("querying stale sessions: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning stale session: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating stale sessions: %w", err)
	}

	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM session_values WHERE session_id = ?`, id); err != nil {
			return 0, fmt.Errorf("pruning session %s: %w", id, err)
		}
	}

	if len(ids) > 0 {
		s.logger.Info("pruned sessions", "count", len(ids))
	}
	return int64(len(ids)), nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
