package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// SQLiteProvider persists context observations in a local SQLite database
// and serves them back as routing signals.
type SQLiteProvider struct {
	db        *sql.DB
	workspace string
	limit     int
}

// OpenSQLite opens (creating if needed) the context database under baseDir
// and scopes reads to the given workspace.
func OpenSQLite(baseDir, workspace string) (*SQLiteProvider, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create memory directory: %w", err)
	}

	dbPath := filepath.Join(baseDir, "context.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open context database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteProvider{db: db, workspace: workspace, limit: 20}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}

	schema := `
	CREATE TABLE IF NOT EXISTS context_files (
	  workspace  TEXT NOT NULL,
	  path       TEXT NOT NULL,
	  last_seen  INTEGER NOT NULL,
	  PRIMARY KEY (workspace, path)
	);
	CREATE TABLE IF NOT EXISTS prior_patterns (
	  workspace  TEXT NOT NULL,
	  pattern    TEXT NOT NULL,
	  hits       INTEGER NOT NULL DEFAULT 1,
	  last_seen  INTEGER NOT NULL,
	  PRIMARY KEY (workspace, pattern)
	);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (p *SQLiteProvider) Close() error {
	return p.db.Close()
}

// RememberFile records that a file was part of recent work.
func (p *SQLiteProvider) RememberFile(ctx context.Context, path string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO context_files (workspace, path, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(workspace, path) DO UPDATE SET last_seen = excluded.last_seen`,
		p.workspace, path, time.Now().Unix())
	return err
}

// RememberPattern records a prompt phrase that led to a confirmed routing.
func (p *SQLiteProvider) RememberPattern(ctx context.Context, pattern string) error {
	pattern = strings.TrimSpace(strings.ToLower(pattern))
	if pattern == "" {
		return nil
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO prior_patterns (workspace, pattern, hits, last_seen) VALUES (?, ?, 1, ?)
		ON CONFLICT(workspace, pattern) DO UPDATE SET hits = hits + 1, last_seen = excluded.last_seen`,
		p.workspace, pattern, time.Now().Unix())
	return err
}

// GetContextSignals returns the most recently seen files and the most
// frequently confirmed patterns for the workspace.
func (p *SQLiteProvider) GetContextSignals(ctx context.Context, prompt string) (Signals, error) {
	var sig Signals

	rows, err := p.db.QueryContext(ctx, `
		SELECT path FROM context_files WHERE workspace = ?
		ORDER BY last_seen DESC LIMIT ?`, p.workspace, p.limit)
	if err != nil {
		return sig, fmt.Errorf("query context files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return sig, err
		}
		sig.Files = append(sig.Files, path)
	}
	if err := rows.Err(); err != nil {
		return sig, err
	}

	patterns, err := p.db.QueryContext(ctx, `
		SELECT pattern FROM prior_patterns WHERE workspace = ?
		ORDER BY hits DESC, last_seen DESC LIMIT ?`, p.workspace, p.limit)
	if err != nil {
		return sig, fmt.Errorf("query prior patterns: %w", err)
	}
	defer patterns.Close()
	for patterns.Next() {
		var pattern string
		if err := patterns.Scan(&pattern); err != nil {
			return sig, err
		}
		sig.PriorPatterns = append(sig.PriorPatterns, pattern)
	}
	return sig, patterns.Err()
}
