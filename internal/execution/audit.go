package execution

import (
	"sync"
	"time"
)

// maxAuditEntries bounds the audit trail.
const maxAuditEntries = 200

// AuditEntry is one diagnostic record of a runtime decision.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Event     string         `json:"event"`
	Data      map[string]any `json:"data,omitempty"`
}

// AuditLog is a bounded, most-recent-first trail of state mutations and
// decisions. It is diagnostic only and carries no control authority.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	now     func() time.Time
}

// NewAuditLog creates an empty audit log.
func NewAuditLog() *AuditLog {
	return NewAuditLogWithClock(time.Now)
}

// NewAuditLogWithClock is NewAuditLog with an injectable clock for
// tests.
func NewAuditLogWithClock(now func() time.Time) *AuditLog {
	return &AuditLog{now: now}
}

// Append records one event at the head, evicting the oldest entry past
// capacity.
func (l *AuditLog) Append(event string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := AuditEntry{
		Timestamp: l.now(),
		Event:     event,
		Data:      data,
	}

	l.entries = append([]AuditEntry{entry}, l.entries...)
	if len(l.entries) > maxAuditEntries {
		l.entries = l.entries[:maxAuditEntries]
	}
}

// Entries returns a copy of the trail, most recent first.
func (l *AuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)

	return out
}
