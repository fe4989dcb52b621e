// Package store provides storage backends for gajabot.
//
// This file implements the default in-memory store: mutex-guarded maps with
// lazy expiry sweeps, mirroring the single-process deployment the bot was
// built for.
package store

import (
	"log/slog"
	"time"

	"github.com/gajahardware/gajabot/internal/models"
	"github.com/gajahardware/gajabot/internal/util"

	"sync"
)

// Compile-time check that InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)

type sessionEntry struct {
	session   models.Session
	expiresAt time.Time
}

// InMemoryStore keeps sessions and the dedup ledger in process memory.
type InMemoryStore struct {
	mu          sync.Mutex
	sessions    map[string]sessionEntry
	seen        map[string]time.Time
	sessionTTL  time.Duration
	dedupWindow time.Duration
	now         func() time.Time
}

// NewInMemoryStore creates an in-memory store with the given options.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.applyDefaults()
	slog.Debug("InMemoryStore created", "session_ttl", cfg.SessionTTL, "dedup_window", cfg.DedupWindow)
	return &InMemoryStore{
		sessions:    make(map[string]sessionEntry),
		seen:        make(map[string]time.Time),
		sessionTTL:  cfg.SessionTTL,
		dedupWindow: cfg.DedupWindow,
		now:         time.Now,
	}
}

// GetSession returns the stored session or a fresh default when absent or
// expired. Expired entries are removed on access.
func (s *InMemoryStore) GetSession(phone string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[phone]
	if !ok {
		return models.NewSession(), nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.sessions, phone)
		slog.Debug("InMemoryStore session expired", "phone", util.MaskPhone(phone))
		return models.NewSession(), nil
	}
	return entry.session, nil
}

// SaveSession overwrites the session and resets its expiry to now+TTL.
func (s *InMemoryStore) SaveSession(phone string, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.UpdatedAt = s.now()
	s.sessions[phone] = sessionEntry{session: sess, expiresAt: s.now().Add(s.sessionTTL)}
	return nil
}

// DeleteSession removes the session.
func (s *InMemoryStore) DeleteSession(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, phone)
	return nil
}

// HasSeen reports whether messageID was recorded within the dedup window,
// recording it on first sight. Expired entries are swept on every call, which
// bounds memory by the ids arriving within one window.
func (s *InMemoryStore) HasSeen(messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.dedupWindow)
	for id, at := range s.seen {
		if at.Before(cutoff) {
			delete(s.seen, id)
		}
	}

	if _, ok := s.seen[messageID]; ok {
		slog.Info("InMemoryStore duplicate message ignored", "message_id", messageID)
		return true, nil
	}
	s.seen[messageID] = now
	return false, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
