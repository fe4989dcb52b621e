// Package store provides the conversation storage backends for gajabot.
//
// It covers two concerns behind one interface: the session store (one
// conversation state per phone number with a sliding expiry) and the dedup
// ledger (recently seen inbound message ids, used to absorb webhook
// redeliveries). Backends: in-memory (default), SQLite, and PostgreSQL.
package store

import (
	"strings"
	"time"

	"github.com/gajahardware/gajabot/internal/models"
)

// Default expiry windows. Both are deliberately short: sessions are a
// conversation convenience, not durable user data.
const (
	// DefaultSessionTTL is the inactivity window after which a session is
	// treated as absent. Reset on every write.
	DefaultSessionTTL = 30 * time.Minute
	// DefaultDedupWindow is how long an inbound message id is remembered.
	// A retransmission outside the window is reprocessed; bounded memory is
	// the accepted tradeoff.
	DefaultDedupWindow = 10 * time.Minute
)

// SessionRepo is the session store contract.
type SessionRepo interface {
	// GetSession returns the session for a phone number, or a fresh default
	// session when none exists or the stored one has expired.
	GetSession(phone string) (models.Session, error)

	// SaveSession overwrites the session and resets its expiry to now+TTL.
	SaveSession(phone string, s models.Session) error

	// DeleteSession removes the session; the next contact starts fresh.
	DeleteSession(phone string) error
}

// DedupRepo is the dedup ledger contract.
type DedupRepo interface {
	// HasSeen reports whether a message id was recorded within the dedup
	// window, recording it on first sight. An empty id is never recorded and
	// always reports false.
	HasSeen(messageID string) (bool, error)
}

// Store combines both storage concerns.
type Store interface {
	SessionRepo
	DedupRepo
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN         string
	SessionTTL  time.Duration
	DedupWindow time.Duration
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithDSN sets the database connection string (SQLite path or Postgres URL).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSessionTTL overrides the session expiry window.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.SessionTTL = ttl }
}

// WithDedupWindow overrides the dedup window.
func WithDedupWindow(w time.Duration) Option {
	return func(o *Opts) { o.DedupWindow = w }
}

func (o *Opts) applyDefaults() {
	if o.SessionTTL <= 0 {
		o.SessionTTL = DefaultSessionTTL
	}
	if o.DedupWindow <= 0 {
		o.DedupWindow = DefaultDedupWindow
	}
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite" based on its shape.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}
