// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"time"

	"github.com/runoshun/prdflow/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// MockSessionStore is a test double for domain.SessionStore backed by
// in-memory maps keyed by session directory.
type MockSessionStore struct {
	Backlogs    map[string]*domain.Backlog
	Snapshots   map[string]string
	ParentLinks map[string]string

	// Error injection, checked before the corresponding operation.
	ReadBacklogErr  error
	WriteBacklogErr error

	// BacklogWrites counts WriteBacklog calls per directory, including
	// failed ones.
	BacklogWrites map[string]int
}

// NewMockSessionStore creates a new MockSessionStore with initialized maps.
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		Backlogs:      make(map[string]*domain.Backlog),
		Snapshots:     make(map[string]string),
		ParentLinks:   make(map[string]string),
		BacklogWrites: make(map[string]int),
	}
}

// ReadBacklog returns the stored backlog for dir.
func (m *MockSessionStore) ReadBacklog(dir string) (*domain.Backlog, error) {
	if m.ReadBacklogErr != nil {
		return nil, m.ReadBacklogErr
	}
	b, ok := m.Backlogs[dir]
	if !ok {
		return nil, &domain.SessionFileError{
			Op:   "read backlog",
			Path: dir + "/" + domain.BacklogFileName,
			Err:  domain.ErrSessionNotFound,
		}
	}
	return b.Clone(), nil
}

// WriteBacklog stores a clone of the backlog for dir.
func (m *MockSessionStore) WriteBacklog(dir string, b *domain.Backlog) error {
	m.BacklogWrites[dir]++
	if m.WriteBacklogErr != nil {
		return m.WriteBacklogErr
	}
	m.Backlogs[dir] = b.Clone()
	return nil
}

// ReadPRDSnapshot returns the stored PRD text for dir.
func (m *MockSessionStore) ReadPRDSnapshot(dir string) (string, error) {
	content, ok := m.Snapshots[dir]
	if !ok {
		return "", &domain.SessionFileError{
			Op:   "read prd snapshot",
			Path: dir + "/" + domain.PRDSnapshotFileName,
			Err:  domain.ErrSessionNotFound,
		}
	}
	return content, nil
}

// WritePRDSnapshot stores the PRD text for dir.
func (m *MockSessionStore) WritePRDSnapshot(dir string, content string) error {
	m.Snapshots[dir] = content
	return nil
}

// ReadParentLink returns the stored parent link, or "" when absent.
func (m *MockSessionStore) ReadParentLink(dir string) (string, error) {
	return m.ParentLinks[dir], nil
}

// WriteParentLink stores the parent link for dir.
func (m *MockSessionStore) WriteParentLink(dir string, parent string) error {
	m.ParentLinks[dir] = parent
	return nil
}
