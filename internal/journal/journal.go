package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Storage constants.
const (
	// dirPermissions is the permission mode for the journal directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the journal file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectTimeout is the timeout for verifying connectivity on open.
	connectTimeout = 5 * time.Second

	// defaultListLimit and maxListLimit bound List pagination.
	defaultListLimit = 50
	maxListLimit     = 200
)

// Lifecycle event names recorded by the journal. They mirror the session's
// lifecycle events one-to-one.
const (
	EventConnecting   = "connecting"
	EventConnected    = "connected"
	EventFailed       = "connection_failed"
	EventLost         = "connection_lost"
	EventDisconnected = "disconnected"
)

// schema is created on open. One table does not warrant a migration
// framework.
const schema = `
CREATE TABLE IF NOT EXISTS lifecycle_events (
    id         TEXT PRIMARY KEY,
    event      TEXT NOT NULL,
    broker     TEXT NOT NULL,
    detail     TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lifecycle_events_event
    ON lifecycle_events(event, created_at);
`

// Entry is one recorded lifecycle transition.
type Entry struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Broker    string    `json:"broker"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter controls which journal entries List returns.
type Filter struct {
	Event  string // optional: filter by event name
	Limit  int    // default 50, max 200
	Offset int    // pagination offset
}

// Config contains journal storage options.
// These map to the journal section of config.yaml.
type Config struct {
	// Path is the filesystem path to the SQLite journal file.
	// The directory will be created if it doesn't exist.
	Path string

	// WALMode enables Write-Ahead Logging for better concurrent access.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int
}

// Store records session lifecycle transitions in SQLite so flaky broker
// links can be diagnosed after the fact.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates the journal store at the configured path.
//
// It performs the following setup:
//  1. Creates the journal directory if it doesn't exist
//  2. Opens the database file with busy-timeout and foreign-key pragmas
//  3. Enables WAL mode if configured
//  4. Restricts file permissions (0600)
//  5. Verifies the connection and creates the schema
//
// Returns:
//   - *Store: Ready for Record/List
//   - error: If opening or schema creation fails
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal: path is required")
	}

	// Ensure directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	// Build connection string with pragmas
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)
	if cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("verifying journal connection: %w", err)
	}

	// The file exists after the ping; restrict its permissions.
	if err := os.Chmod(cfg.Path, filePermissions); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal file permissions: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	return &Store{db: db, path: cfg.Path}, nil
}

// Record inserts one lifecycle transition. The ID and timestamp are
// generated here.
func (s *Store) Record(ctx context.Context, event, broker, detail string) error {
	id := "lce-" + uuid.NewString()[:8]

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lifecycle_events (id, event, broker, detail, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, event, broker, nullable(detail), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording lifecycle event: %w", err)
	}
	return nil
}

// List returns journal entries newest first, optionally filtered by event
// name.
func (s *Store) List(ctx context.Context, filter Filter) ([]Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var (
		where []string
		args  []any
	)
	if filter.Event != "" {
		where = append(where, "event = ?")
		args = append(args, filter.Event)
	}

	query := "SELECT id, event, broker, detail, created_at FROM lifecycle_events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing lifecycle events: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			detail sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Event, &e.Broker, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning lifecycle event: %w", err)
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lifecycle events: %w", err)
	}

	return entries, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// nullable maps an empty string to NULL.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
