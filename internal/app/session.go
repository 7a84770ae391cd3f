package app

import (
	"time"
)

// Session tracks one CLI invocation. Its ID tags every log line written
// while the command runs.
type Session struct {
	ID        string
	Command   string
	StartedAt time.Time
	Status    string // "success" or "error"
}

// NewSession starts a session for command at now.
func NewSession(command string, now time.Time) *Session {
	now = now.UTC()
	return &Session{
		ID:        now.Format("20060102T150405.000Z"),
		Command:   command,
		StartedAt: now,
		Status:    "success",
	}
}

// Finish records the outcome of the command.
func (s *Session) Finish(err error) {
	if err != nil {
		s.Status = "error"
	}
}

// Elapsed returns the time since the session started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}
