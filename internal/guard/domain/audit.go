package domain

import (
	"fmt"
	"time"
)

// AuditEntry is one appended record of a navigation attempt, allowed or
// blocked. Entries are immutable once written; the only later change is a
// title backfill supplied by the browser after the page loads.
type AuditEntry struct {
	ID          string
	URL         string
	Title       string
	Timestamp   time.Time
	WasBlocked  bool
	BlockReason BlockReason // ReasonNone unless WasBlocked
	BlockedBy   string      // matched domain/keyword/prayer name/rule id
}

// Validate checks the fields required of every entry.
func (e AuditEntry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("audit entry id must not be empty")
	}
	if e.URL == "" {
		return fmt.Errorf("audit entry url must not be empty")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("audit entry timestamp must be set")
	}
	if !e.WasBlocked && e.BlockReason != ReasonNone {
		return fmt.Errorf("allowed entry must not carry a block reason")
	}
	return nil
}

// DayActivity summarizes the audit trail for one calendar day, for the
// parent dashboard's grouped history view.
type DayActivity struct {
	Day     string `json:"day"` // "YYYY-MM-DD" in the store's timezone
	Total   int    `json:"total"`
	Blocked int    `json:"blocked"`
}
