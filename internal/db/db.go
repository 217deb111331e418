package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a database connection
type DB struct {
	*sql.DB
}

// LookupRecord is one completed lookup attempt.
type LookupRecord struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"-"`
	ReportID  string    `json:"report_id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDB opens the SQLite database at path and ensures the schema exists.
func NewDB(path string) (*DB, error) {
	if path == "" {
		path = "wxlookup.db"
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS lookups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			report_id TEXT NOT NULL,
			success INTEGER NOT NULL,
			message TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_lookups_session ON lookups(session_id, id);
	`)
	return err
}

// RecordLookup stores a completed lookup and returns its row id.
func (d *DB) RecordLookup(ctx context.Context, rec LookupRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	res, err := d.ExecContext(ctx,
		"INSERT INTO lookups (session_id, report_id, success, message, created_at) VALUES (?, ?, ?, ?, ?)",
		rec.SessionID, rec.ReportID, rec.Success, rec.Message, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record lookup: %w", err)
	}
	return res.LastInsertId()
}

// RecentLookups returns up to limit lookups for a session, newest first.
func (d *DB) RecentLookups(ctx context.Context, sessionID string, limit int) ([]LookupRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := d.QueryContext(ctx,
		"SELECT id, session_id, report_id, success, message, created_at FROM lookups WHERE session_id = ? ORDER BY id DESC LIMIT ?",
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups: %w", err)
	}
	defer rows.Close()

	var records []LookupRecord
	for rows.Next() {
		var r LookupRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.ReportID, &r.Success, &r.Message, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
