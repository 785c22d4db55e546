package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db *sql.DB

	// nowMs stamps mutation watermarks; overridable in tests.
	nowMs func() int64
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	// Configure pragmas.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, nowMs: func() int64 { return time.Now().UnixMilli() }}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS meta (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		updated_at  INTEGER NOT NULL DEFAULT 0
	);
	INSERT OR IGNORE INTO meta (id, updated_at) VALUES (1, 0);

	CREATE TABLE IF NOT EXISTS categories (
		id     TEXT PRIMARY KEY,
		name   TEXT NOT NULL,
		color  TEXT NOT NULL DEFAULT '#64748b'
	);

	CREATE TABLE IF NOT EXISTS topics (
		id     TEXT PRIMARY KEY,
		name   TEXT NOT NULL,
		color  TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS reading_items (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		authors     TEXT NOT NULL DEFAULT '',
		year        TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL DEFAULT 'article',
		status      TEXT NOT NULL DEFAULT 'to_read',
		tags        TEXT NOT NULL DEFAULT '',
		url         TEXT NOT NULL DEFAULT '',
		doi         TEXT NOT NULL DEFAULT '',
		notes       TEXT NOT NULL DEFAULT '',
		updated_at  INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS projects (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		type         TEXT NOT NULL DEFAULT 'thesis',
		goal         INTEGER NOT NULL DEFAULT 0,
		deadline     INTEGER NOT NULL DEFAULT 0,
		category_id  TEXT NOT NULL DEFAULT '',
		created_at   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS chapters (
		id             TEXT PRIMARY KEY,
		title          TEXT NOT NULL,
		project_id     TEXT NOT NULL,
		word_goal      INTEGER NOT NULL DEFAULT 0,
		current_words  INTEGER NOT NULL DEFAULT 0,
		status         TEXT NOT NULL DEFAULT 'draft',
		sort_order     INTEGER NOT NULL DEFAULT 0,
		deadline       INTEGER NOT NULL DEFAULT 0,
		notes          TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id           TEXT PRIMARY KEY,
		category_id  TEXT NOT NULL,
		topic_id     TEXT NOT NULL DEFAULT '',
		source_id    TEXT NOT NULL DEFAULT '',
		project_id   TEXT NOT NULL DEFAULT '',
		chapter_id   TEXT NOT NULL DEFAULT '',
		label        TEXT NOT NULL DEFAULT '',
		start_ms     INTEGER NOT NULL,
		end_ms       INTEGER NOT NULL,
		paused_ms    INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_start    ON sessions(start_ms);
	CREATE INDEX IF NOT EXISTS idx_sessions_category ON sessions(category_id);

	CREATE TABLE IF NOT EXISTS daily_logs (
		date        TEXT PRIMARY KEY,
		word_count  INTEGER NOT NULL DEFAULT 0,
		breakdown   TEXT NOT NULL DEFAULT '',
		note        TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS milestones (
		id     TEXT PRIMARY KEY,
		title  TEXT NOT NULL,
		date   INTEGER NOT NULL,
		done   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS dismissed_reminders (
		id            TEXT PRIMARY KEY,
		dismissed_at  INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('daily_target_hours', '2');

	INSERT OR IGNORE INTO categories (id, name, color) VALUES
		('phd',     'PhD / Tez', '#6366f1'),
		('work',    'İş',        '#3b82f6'),
		('reading', 'Okuma',     '#10b981'),
		('writing', 'Yazma',     '#f43f5e'),
		('admin',   'İdari',     '#f59e0b'),
		('other',   'Diğer',     '#64748b');

	INSERT OR IGNORE INTO topics (id, name, color) VALUES
		('lit',      'Literatür Tarama', '#0ea5e9'),
		('methods',  'Yöntem',           '#8b5cf6'),
		('analysis', 'Analiz',           '#f97316');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// mutate runs fn inside a transaction that also advances the
// last-modified watermark, so data and watermark never diverge.
func (s *Store) mutate(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`UPDATE meta SET updated_at = ? WHERE id = 1`, s.nowMs()); err != nil {
		tx.Rollback()
		return fmt.Errorf("advance watermark: %w", err)
	}
	return tx.Commit()
}

// LastModified returns the store's watermark in epoch milliseconds.
// Zero means no mutation has ever been recorded.
func (s *Store) LastModified() (int64, error) {
	var ms int64
	if err := s.db.QueryRow(`SELECT updated_at FROM meta WHERE id = 1`).Scan(&ms); err != nil {
		return 0, fmt.Errorf("read watermark: %w", err)
	}
	return ms, nil
}

// SetLastModified overwrites the watermark. The sync engine uses this
// when adopting a remote snapshot or acknowledging a push.
func (s *Store) SetLastModified(ms int64) error {
	if _, err := s.db.Exec(`UPDATE meta SET updated_at = ? WHERE id = 1`, ms); err != nil {
		return fmt.Errorf("set watermark: %w", err)
	}
	return nil
}

// DefaultDBPath returns ~/.config/calisalim/calisalim.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "calisalim", "calisalim.db"), nil
}
