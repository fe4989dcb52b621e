// Package store provides storage backends for gajabot.
//
// This file implements the PostgreSQL-backed store for sessions and the
// dedup ledger.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/gajahardware/gajabot/internal/models"
	"github.com/gajahardware/gajabot/internal/util"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants.
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db          *sql.DB
	sessionTTL  time.Duration
	dedupWindow time.Duration
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.applyDefaults()
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db, sessionTTL: cfg.SessionTTL, dedupWindow: cfg.DedupWindow}, nil
}

// GetSession returns the stored session or a fresh default when absent or
// expired.
func (s *PostgresStore) GetSession(phone string) (models.Session, error) {
	row := s.db.QueryRow(
		`SELECT language, state, carpenter_code, months, warranty_token, updated_at, expires_at
		 FROM sessions WHERE phone = $1`, phone)

	sess, expiresAt, err := scanSession(row)
	if err == sql.ErrNoRows {
		return models.NewSession(), nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "phone", util.MaskPhone(phone))
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	if time.Now().After(expiresAt) {
		if _, err := s.db.Exec(`DELETE FROM sessions WHERE phone = $1`, phone); err != nil {
			slog.Warn("PostgresStore expired session cleanup failed", "error", err)
		}
		return models.NewSession(), nil
	}
	return sess, nil
}

// SaveSession overwrites the session and resets its expiry to now+TTL.
func (s *PostgresStore) SaveSession(phone string, sess models.Session) error {
	monthsJSON, err := encodeMonths(sess.Months)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO sessions (phone, language, state, carpenter_code, months, warranty_token, updated_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (phone) DO UPDATE SET
			language = EXCLUDED.language,
			state = EXCLUDED.state,
			carpenter_code = EXCLUDED.carpenter_code,
			months = EXCLUDED.months,
			warranty_token = EXCLUDED.warranty_token,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at`,
		phone, string(sess.Language), string(sess.State), nilIfEmpty(sess.CarpenterCode),
		nilIfEmpty(monthsJSON), nilIfEmpty(sess.WarrantyToken), now, now.Add(s.sessionTTL))
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "phone", util.MaskPhone(phone))
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// DeleteSession removes the session.
func (s *PostgresStore) DeleteSession(phone string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE phone = $1`, phone); err != nil {
		slog.Error("PostgresStore DeleteSession failed", "error", err, "phone", util.MaskPhone(phone))
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// HasSeen reports whether messageID was recorded within the dedup window,
// recording it on first sight.
func (s *PostgresStore) HasSeen(messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}
	cutoff := time.Now().Add(-s.dedupWindow)
	if _, err := s.db.Exec(`DELETE FROM inbound_dedup WHERE received_at < $1`, cutoff); err != nil {
		slog.Warn("PostgresStore dedup sweep failed", "error", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO inbound_dedup (message_id, received_at) VALUES ($1, $2)
		 ON CONFLICT (message_id) DO NOTHING`,
		messageID, time.Now())
	if err != nil {
		return false, fmt.Errorf("record inbound: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record inbound: %w", err)
	}
	if n == 0 {
		slog.Info("PostgresStore duplicate message ignored", "message_id", messageID)
		return true, nil
	}
	return false, nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}
