// Package common holds small value types shared by every CaseIntel layer.
package common

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ID is a string alias for UUID v4.
type ID string

// NewID generates a new UUID v4.
func NewID() ID {
	return ID(uuid.New().String())
}

// GenerateID generates a unique ID with an optional prefix ("run-<uuid>").
func GenerateID(prefix string) string {
	if prefix == "" {
		return uuid.New().String()
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String())
}

// IsValidID reports whether s parses as a UUID.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Clock
// ─────────────────────────────────────────────────────────────────────────────

// Clock supplies timestamps to the pipeline stages so tests can pin them.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the current UTC time truncated to microseconds, the
// resolution PostgreSQL stores.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

// FixedClock always returns the same instant until Advance is called.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedClock returns a FixedClock set to t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t.UTC()}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// ─────────────────────────────────────────────────────────────────────────────
// Paging
// ─────────────────────────────────────────────────────────────────────────────

// PageRequest is a keyset page: rows with a key strictly greater than After,
// at most Limit of them.
type PageRequest struct {
	After int64 `json:"after"`
	Limit int   `json:"limit"`
}

// Normalize clamps Limit into [1, max].
func (p PageRequest) Normalize(max int) PageRequest {
	if p.Limit <= 0 || p.Limit > max {
		p.Limit = max
	}
	if p.After < 0 {
		p.After = 0
	}
	return p
}

//Personal.AI order the ending
