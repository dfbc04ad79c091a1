package domain

import "time"

// SessionStore persists the artifacts of one session directory.
// Implementations must guarantee that a reader never observes a partially
// written backlog: writes are all-or-nothing.
type SessionStore interface {
	// ReadBacklog reads and validates the backlog file.
	// Parse and validation failures both surface as *SessionFileError.
	ReadBacklog(dir string) (*Backlog, error)

	// WriteBacklog serializes the backlog with stable, human-diffable
	// formatting and commits it atomically.
	WriteBacklog(dir string, b *Backlog) error

	// ReadPRDSnapshot reads the frozen PRD text byte-for-byte.
	ReadPRDSnapshot(dir string) (string, error)

	// WritePRDSnapshot writes the frozen PRD text byte-for-byte.
	WritePRDSnapshot(dir string, content string) error

	// ReadParentLink reads the parent session link. Absence or a malformed
	// link yields "" with a nil error; the link is best-effort.
	ReadParentLink(dir string) (string, error)

	// WriteParentLink records the parent session's ID for a delta session.
	WriteParentLink(dir string, parent string) error
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
