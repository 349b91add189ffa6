// Package repository is the SQLite-backed case store. Two tables, Notice
// and Reply, mirror the legacy schema; list-valued fields are stored as
// JSON-serialized text columns.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS Notice (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	pan_number TEXT,
	date TEXT,
	din_number TEXT,
	address TEXT,
	sections TEXT,
	assessment_year TEXT,
	annexure TEXT,
	fileLocation TEXT,
	fileType TEXT,
	filename TEXT,
	full_text TEXT,
	status TEXT DEFAULT 'open'
);

CREATE TABLE IF NOT EXISTS Reply (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	pan_number TEXT,
	notice_id INTEGER,
	notice_date TEXT,
	reply_date TEXT,
	subject TEXT,
	assessment_year TEXT,
	reply_from TEXT,
	reply_email TEXT,
	reply_mobile TEXT,
	reply_content TEXT,
	summary TEXT,
	fileLocation TEXT,
	fileType TEXT,
	finalOpinion TEXT,
	filename TEXT,
	full_text TEXT,
	status TEXT DEFAULT 'open',
	FOREIGN KEY (notice_id) REFERENCES Notice(id)
);
`

// Open opens (and creates if absent) the SQLite database at path and
// applies the schema. WAL mode and a busy timeout keep concurrent request
// handlers from tripping over each other on writes.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Pragmas ride on the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite",
		path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("database ready", "path", path)
	return db, nil
}
