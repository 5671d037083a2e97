// Package audit provides audit logging for device configuration operations.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event represents one executed (or suppressed) configuration operation.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	Device    string        `json:"device"`
	Operation string        `json:"operation"`
	Changed   bool          `json:"changed"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	CheckMode bool          `json:"check_mode"`
	Duration  time.Duration `json:"duration"`
}

// NewEvent creates a new audit event.
func NewEvent(user, device, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Device:    device,
		Operation: operation,
	}
}

// WithChanged records whether the operation mutated device state.
func (e *Event) WithChanged(changed bool) *Event {
	e.Changed = changed
	return e
}

// WithSuccess marks the event as successful.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed.
func (e *Event) WithError(msg string) *Event {
	e.Success = false
	e.Error = msg
	return e
}

// WithCheckMode marks the event as a dry run.
func (e *Event) WithCheckMode(check bool) *Event {
	e.CheckMode = check
	return e
}

// WithDuration sets the operation duration.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func generateID() string {
	return uuid.NewString()
}
