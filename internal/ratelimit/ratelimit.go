// Package ratelimit caps how many inbound messages a single user may send
// per UTC day. Counters live in memory and roll over lazily at midnight.
package ratelimit

import (
	"sync"
	"time"
)

// DailyLimiter counts messages per user per UTC calendar day.
// A limit of zero disables the cap entirely.
type DailyLimiter struct {
	mu     sync.Mutex
	limit  int
	day    string
	counts map[string]int
	now    func() time.Time
}

// NewDailyLimiter creates a limiter allowing limit messages per user per day.
func NewDailyLimiter(limit int) *DailyLimiter {
	return &DailyLimiter{
		limit:  limit,
		counts: make(map[string]int),
		now:    time.Now,
	}
}

// Allow records one message for userID and reports whether it is within the
// daily cap. The first call after a UTC date change resets all counters.
func (l *DailyLimiter) Allow(userID string) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	today := l.now().UTC().Format("2006-01-02")
	if today != l.day {
		l.day = today
		l.counts = make(map[string]int)
	}
	if l.counts[userID] >= l.limit {
		return false
	}
	l.counts[userID]++
	return true
}
