package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"pathguard/internal/journal"
)

// HistoryDB manages the SQLite database for mutation history.
// It implements journal.Journal, so it can be set on any guarded component.
type HistoryDB struct {
	db *sql.DB
}

// Record represents a single journaled item
type Record struct {
	ID           int64
	Timestamp    time.Time
	Operation    string
	Action       string
	Path         string
	FileName     string
	Line         string
	ErrorMessage string
}

// NewHistoryDB creates a new database connection and initializes schema
func NewHistoryDB(dbPath string) (*HistoryDB, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// file: prefix with _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Ping does not create the file; a real statement does
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	// Enable WAL mode for better concurrency (multiple readers, one writer)
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	hdb := &HistoryDB{db: db}
	if err = hdb.initSchema(); err != nil {
		return nil, err
	}
	return hdb, nil
}

// initSchema creates tables and indexes if they don't exist
func (h *HistoryDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		operation TEXT NOT NULL,
		action TEXT NOT NULL,
		path TEXT NOT NULL,
		file_name TEXT,
		line TEXT,
		error_message TEXT,

		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_timestamp ON operations(timestamp);
	CREATE INDEX IF NOT EXISTS idx_operation ON operations(operation);
	CREATE INDEX IF NOT EXISTS idx_action ON operations(action);
	CREATE INDEX IF NOT EXISTS idx_path ON operations(path);

	-- Metadata table for schema versioning
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := h.db.Exec(schema)
	return err
}

// Record inserts a journal entry into the database
func (h *HistoryDB) Record(e journal.Entry) error {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := h.db.Exec(`
	INSERT INTO operations (
		timestamp, operation, action, path, file_name, line, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		ts.UTC(),
		string(e.Operation),
		string(e.Action),
		e.Path,
		filepath.Base(e.Path),
		e.Line,
		e.Error,
	)
	return err
}

// Close closes the database connection
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Vacuum optimizes the database (run periodically)
func (h *HistoryDB) Vacuum() error {
	_, err := h.db.Exec("VACUUM")
	return err
}

// DatabaseStats describes the store itself rather than its contents
type DatabaseStats struct {
	TotalRecords int64
	SizeBytes    int64
	OldestRecord time.Time
	NewestRecord time.Time
}

// GetDatabaseStats returns database statistics
func (h *HistoryDB) GetDatabaseStats() (*DatabaseStats, error) {
	stats := &DatabaseStats{}

	if err := h.db.QueryRow("SELECT COUNT(*) FROM operations").Scan(&stats.TotalRecords); err != nil {
		return nil, err
	}

	var pageCount, pageSize int64
	if err := h.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, err
	}
	if err := h.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, err
	}
	stats.SizeBytes = pageCount * pageSize

	var oldest, newest sql.NullString
	err := h.db.QueryRow("SELECT MIN(timestamp), MAX(timestamp) FROM operations").Scan(&oldest, &newest)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if oldest.Valid {
		stats.OldestRecord, _ = parseTimestamp(oldest.String)
	}
	if newest.Valid {
		stats.NewestRecord, _ = parseTimestamp(newest.String)
	}

	return stats, nil
}

// timestampLayouts are the forms go-sqlite3 and SQLite itself write DATETIME in
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// parseTimestamp parses aggregate results, which SQLite returns as plain text
func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
