// Package alert buffers the day's alert events and fans each alert out to
// the configured notification channels.
package alert

import (
	"sync"

	"OptAlert/internal/domain/models"
)

// Journal is the in-memory buffer of the day's alerts. Drain hands the
// buffer over and clears it, so end-of-day export reads each event once.
type Journal struct {
	mu     sync.Mutex
	events []models.AlertEvent
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) Append(e models.AlertEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

// Snapshot returns a copy of the buffered events without clearing them.
func (j *Journal) Snapshot() []models.AlertEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]models.AlertEvent, len(j.events))
	copy(out, j.events)
	return out
}

// Drain returns the buffered events and resets the buffer. A second Drain
// with no new alerts returns nil.
func (j *Journal) Drain() []models.AlertEvent {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := j.events
	j.events = nil
	return out
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.events)
}
