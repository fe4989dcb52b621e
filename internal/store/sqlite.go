// Package store provides storage backends for gajabot.
//
// This file implements the SQLite-backed store for sessions and the dedup
// ledger.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/gajahardware/gajabot/internal/models"
	"github.com/gajahardware/gajabot/internal/util"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db          *sql.DB
	sessionTTL  time.Duration
	dedupWindow time.Duration
}

// NewSQLiteStore creates a new SQLite store. The DSN is a file path to the
// database file; its directory is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.applyDefaults()
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db, sessionTTL: cfg.SessionTTL, dedupWindow: cfg.DedupWindow}, nil
}

// GetSession returns the stored session or a fresh default when absent or
// expired. Expired rows are deleted on access.
func (s *SQLiteStore) GetSession(phone string) (models.Session, error) {
	row := s.db.QueryRow(
		`SELECT language, state, carpenter_code, months, warranty_token, updated_at, expires_at
		 FROM sessions WHERE phone = ?`, phone)

	sess, expiresAt, err := scanSession(row)
	if err == sql.ErrNoRows {
		return models.NewSession(), nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "phone", util.MaskPhone(phone))
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	if time.Now().After(expiresAt) {
		if _, err := s.db.Exec(`DELETE FROM sessions WHERE phone = ?`, phone); err != nil {
			slog.Warn("SQLiteStore expired session cleanup failed", "error", err)
		}
		return models.NewSession(), nil
	}
	return sess, nil
}

// SaveSession overwrites the session and resets its expiry to now+TTL.
func (s *SQLiteStore) SaveSession(phone string, sess models.Session) error {
	monthsJSON, err := encodeMonths(sess.Months)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO sessions (phone, language, state, carpenter_code, months, warranty_token, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		phone, string(sess.Language), string(sess.State), nilIfEmpty(sess.CarpenterCode),
		nilIfEmpty(monthsJSON), nilIfEmpty(sess.WarrantyToken), now, now.Add(s.sessionTTL))
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "phone", util.MaskPhone(phone))
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// DeleteSession removes the session.
func (s *SQLiteStore) DeleteSession(phone string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE phone = ?`, phone); err != nil {
		slog.Error("SQLiteStore DeleteSession failed", "error", err, "phone", util.MaskPhone(phone))
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// HasSeen reports whether messageID was recorded within the dedup window,
// recording it on first sight. Rows older than the window are cleared so the
// id becomes reusable.
func (s *SQLiteStore) HasSeen(messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}
	cutoff := time.Now().Add(-s.dedupWindow)
	if _, err := s.db.Exec(`DELETE FROM inbound_dedup WHERE received_at < ?`, cutoff); err != nil {
		slog.Warn("SQLiteStore dedup sweep failed", "error", err)
	}
	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO inbound_dedup (message_id, received_at) VALUES (?, ?)`,
		messageID, time.Now())
	if err != nil {
		return false, fmt.Errorf("record inbound: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record inbound: %w", err)
	}
	if n == 0 {
		slog.Info("SQLiteStore duplicate message ignored", "message_id", messageID)
		return true, nil
	}
	return false, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}
