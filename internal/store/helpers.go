package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gajahardware/gajabot/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// encodeMonths serializes the month list for a nullable text column.
func encodeMonths(months []string) (string, error) {
	if len(months) == 0 {
		return "", nil
	}
	b, err := json.Marshal(months)
	if err != nil {
		return "", fmt.Errorf("encode months: %w", err)
	}
	return string(b), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSession reads one sessions row. Returns sql.ErrNoRows untouched so
// callers can map it to a fresh default session.
func scanSession(row rowScanner) (models.Session, time.Time, error) {
	var (
		sess                       models.Session
		lang, state                string
		code, monthsJSON, token    sql.NullString
		updatedAt, expiresAt       time.Time
	)
	err := row.Scan(&lang, &state, &code, &monthsJSON, &token, &updatedAt, &expiresAt)
	if err != nil {
		return sess, time.Time{}, err
	}
	sess.Language = models.Language(lang)
	sess.State = models.State(state)
	sess.CarpenterCode = code.String
	sess.WarrantyToken = token.String
	sess.UpdatedAt = updatedAt
	if monthsJSON.Valid && monthsJSON.String != "" {
		if err := json.Unmarshal([]byte(monthsJSON.String), &sess.Months); err != nil {
			return sess, time.Time{}, fmt.Errorf("decode months: %w", err)
		}
	}
	return sess, expiresAt, nil
}
