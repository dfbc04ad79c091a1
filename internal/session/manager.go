// Package session implements the session lifecycle facade: discovery and
// resume by PRD content hash, delta-session creation, in-memory update
// batching, and atomic flushes through the session store.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/runoshun/prdflow/internal/domain"
)

// batch accumulates updates recorded since the last successful flush.
// Its working copy starts as a clone of the most recent backlog state, so
// the baseline is never mutated in place.
type batch struct {
	working     *domain.Backlog
	updates     int  // accepted update calls
	dirty       bool // anything to persist
	depsChanged bool // dependency edges changed, flush must re-run cycle detection
}

// Manager is the facade over one session. It owns the persistence state
// machine: Clean -> (update) -> Dirty -> (flush success) -> Clean, with a
// failed flush preserving the dirty batch for retry.
type Manager struct {
	store  domain.SessionStore
	clock  domain.Clock
	logger zerolog.Logger

	mu       sync.Mutex // guards state, pending, inflight
	state    *domain.SessionState
	pending  *batch
	inflight *batch

	flushMu sync.Mutex // serializes flushes against this session
}

// NewManager creates a session manager. A manager handles at most one
// session at a time; Initialize or LoadSession binds it.
func NewManager(store domain.SessionStore, clock domain.Clock, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Initialize binds the manager to the session for prdContent: it computes
// the PRD content hash, resumes the existing session whose directory name
// carries that hash, or creates a new session directory. When no match is
// found but prior sessions exist, the new session is a delta session linked
// to the newest prior session.
func (m *Manager) Initialize(ctx context.Context, prdContent, sessionsRoot string) (*domain.SessionState, error) {
	if prdContent == "" {
		return nil, domain.ErrEmptyPRD
	}
	hash := domain.HashPRD(prdContent)

	if err := os.MkdirAll(sessionsRoot, 0o750); err != nil {
		return nil, &domain.SessionFileError{Op: "create sessions root", Path: sessionsRoot, Err: err}
	}
	entries, err := os.ReadDir(sessionsRoot)
	if err != nil {
		return nil, &domain.SessionFileError{Op: "scan sessions root", Path: sessionsRoot, Err: err}
	}

	maxSeq := 0
	newest := ""
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		seq, dirHash, ok := domain.ParseSessionDirName(entry.Name())
		if !ok {
			continue
		}
		if dirHash == hash {
			return m.LoadSession(ctx, filepath.Join(sessionsRoot, entry.Name()))
		}
		if seq > maxSeq {
			maxSeq = seq
			newest = entry.Name()
		}
	}

	return m.createSession(prdContent, sessionsRoot, hash, maxSeq+1, newest)
}

// createSession creates and seeds a new session directory. parent is the
// newest prior session's ID, empty when this is the first session.
func (m *Manager) createSession(prdContent, sessionsRoot, hash string, sequence int, parent string) (*domain.SessionState, error) {
	dirName := domain.SessionDirName(sequence, hash)
	path := filepath.Join(sessionsRoot, dirName)
	if err := os.Mkdir(path, 0o750); err != nil {
		return nil, &domain.SessionFileError{Op: "create session dir", Path: path, Err: err}
	}

	seed := domain.NewBacklog()
	if err := domain.DetectCycles(seed); err != nil {
		return nil, err
	}
	if err := m.store.WritePRDSnapshot(path, prdContent); err != nil {
		return nil, err
	}
	if err := m.store.WriteBacklog(path, seed); err != nil {
		return nil, err
	}
	if parent != "" {
		if err := m.store.WriteParentLink(path, parent); err != nil {
			return nil, err
		}
	}

	state := &domain.SessionState{
		Metadata: domain.SessionMetadata{
			ID:            dirName,
			Hash:          hash,
			Path:          path,
			CreatedAt:     m.clock.Now(),
			ParentSession: parent,
		},
		PRDSnapshot:  prdContent,
		TaskRegistry: seed,
	}

	m.mu.Lock()
	m.state = state
	m.pending = nil
	m.inflight = nil
	m.mu.Unlock()

	m.logger.Info().Str("session", dirName).Str("parent", parent).Msg("created session")
	return state, nil
}

// LoadSession binds the manager to an existing session directory. The
// backlog and PRD snapshot are required; the parent link is best-effort.
func (m *Manager) LoadSession(_ context.Context, sessionPath string) (*domain.SessionState, error) {
	name := filepath.Base(sessionPath)
	_, hash, ok := domain.ParseSessionDirName(name)
	if !ok {
		return nil, fmt.Errorf("invalid session directory name %q: %w", name, domain.ErrSessionNotFound)
	}

	info, err := os.Stat(sessionPath)
	if err != nil {
		return nil, &domain.SessionFileError{Op: "stat session dir", Path: sessionPath, Err: err}
	}

	backlog, err := m.store.ReadBacklog(sessionPath)
	if err != nil {
		return nil, err
	}
	prd, err := m.store.ReadPRDSnapshot(sessionPath)
	if err != nil {
		return nil, err
	}
	parent, err := m.store.ReadParentLink(sessionPath)
	if err != nil {
		m.logger.Warn().Err(err).Str("session", name).Msg("failed to read parent link")
		parent = ""
	}

	state := &domain.SessionState{
		Metadata: domain.SessionMetadata{
			ID:            name,
			Hash:          hash,
			Path:          sessionPath,
			CreatedAt:     info.ModTime(),
			ParentSession: parent,
		},
		PRDSnapshot:  prd,
		TaskRegistry: backlog,
	}

	m.mu.Lock()
	m.state = state
	m.pending = nil
	m.inflight = nil
	m.mu.Unlock()

	m.logger.Info().Str("session", name).Msg("loaded session")
	return state, nil
}

// State returns the last committed session state, or nil if no session is
// bound.
func (m *Manager) State() *domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Dirty reports whether updates are buffered and awaiting a flush.
func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil && m.pending.dirty
}

// PendingUpdates returns the number of buffered update calls.
func (m *Manager) PendingUpdates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return 0
	}
	return m.pending.updates
}

// ensureBatchLocked returns the current batch, creating one from the most
// recent backlog state if none exists. When a flush is in flight, the new
// batch clones the in-flight working copy so its updates are not lost.
// Callers must hold mu.
func (m *Manager) ensureBatchLocked() *batch {
	if m.pending != nil {
		return m.pending
	}
	src := m.state.TaskRegistry
	if m.inflight != nil {
		src = m.inflight.working
	}
	m.pending = &batch{working: src.Clone()}
	return m.pending
}

// UpdateItemStatus records a status change against the in-memory working
// copy. Multiple calls for the same item before a flush collapse to the
// last value. An unknown item returns ErrItemNotFound without invalidating
// the batch; other buffered updates still apply. Disk is not touched.
func (m *Manager) UpdateItemStatus(itemID string, status domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return domain.ErrNoSession
	}
	b := m.ensureBatchLocked()
	if !b.working.SetItemStatus(itemID, status) {
		return fmt.Errorf("update %q: %w", itemID, domain.ErrItemNotFound)
	}
	b.updates++
	b.dirty = true
	return nil
}

// SetDependencies replaces a subtask's dependency set in the working copy
// and marks dependency edges dirty, so the next flush re-runs cycle
// detection before committing.
func (m *Manager) SetDependencies(subtaskID string, deps []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return domain.ErrNoSession
	}
	b := m.ensureBatchLocked()
	st := b.working.Subtask(subtaskID)
	if st == nil {
		if b.working.HasItem(subtaskID) {
			return fmt.Errorf("set dependencies on %q: %w", subtaskID, domain.ErrNotASubtask)
		}
		return fmt.Errorf("set dependencies on %q: %w", subtaskID, domain.ErrItemNotFound)
	}
	st.Dependencies = slices.Clone(deps)
	b.updates++
	b.dirty = true
	b.depsChanged = true
	return nil
}

// ReplaceBacklog validates and installs a full new backlog (typically the
// planner layer's output) as the working copy. The replacement is buffered
// like any other update and persisted on the next flush.
func (m *Manager) ReplaceBacklog(b *domain.Backlog) error {
	if errs := domain.ValidateBacklog(b); errs != nil {
		return errs
	}
	if err := domain.DetectCycles(b); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return domain.ErrNoSession
	}
	m.pending = &batch{
		working:     b.Clone(),
		updates:     1,
		dirty:       true,
		depsChanged: true,
	}
	return nil
}

// SetCurrentItem stores the caller-owned pointer to the item currently
// being executed. The core never sets this on its own.
func (m *Manager) SetCurrentItem(itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return domain.ErrNoSession
	}
	if itemID != "" && !m.state.TaskRegistry.HasItem(itemID) {
		if m.pending == nil || !m.pending.working.HasItem(itemID) {
			return fmt.Errorf("set current item %q: %w", itemID, domain.ErrItemNotFound)
		}
	}
	m.state.CurrentItemID = itemID
	return nil
}

// FlushUpdates commits the buffered batch atomically. It is a no-op when
// nothing is dirty. Flushes against the same session are serialized;
// updates arriving during an in-flight flush open a new batch cloned from
// the in-flight working copy instead of blocking.
//
// On success the working copy becomes the new committed baseline. On
// failure the baseline and pending batch are preserved unchanged so the
// caller may retry; nothing on disk is altered.
func (m *Manager) FlushUpdates(_ context.Context) error {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	m.mu.Lock()
	if m.state == nil {
		m.mu.Unlock()
		return domain.ErrNoSession
	}
	if m.pending == nil || !m.pending.dirty {
		m.mu.Unlock()
		return nil
	}
	flushing := m.pending
	m.pending = nil
	m.inflight = flushing
	path := m.state.Metadata.Path
	m.mu.Unlock()

	if errs := domain.ValidateBacklog(flushing.working); errs != nil {
		m.restorePending(flushing)
		return errs
	}
	if flushing.depsChanged {
		if err := domain.DetectCycles(flushing.working); err != nil {
			m.restorePending(flushing)
			return err
		}
	}
	if err := m.store.WriteBacklog(path, flushing.working); err != nil {
		m.restorePending(flushing)
		return err
	}

	m.mu.Lock()
	m.inflight = nil
	m.state = &domain.SessionState{
		Metadata:      m.state.Metadata,
		PRDSnapshot:   m.state.PRDSnapshot,
		TaskRegistry:  flushing.working,
		CurrentItemID: m.state.CurrentItemID,
	}
	m.mu.Unlock()

	m.logger.Debug().Str("session", m.State().Metadata.ID).Int("updates", flushing.updates).Msg("flushed updates")
	return nil
}

// restorePending re-attaches a failed flush's batch. If newer updates
// opened a fresh batch during the flush, that batch was cloned from the
// failed working copy and already contains every pending change; only the
// counters and flags need merging.
func (m *Manager) restorePending(flushing *batch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight = nil
	if m.pending != nil {
		m.pending.updates += flushing.updates
		m.pending.dirty = m.pending.dirty || flushing.dirty
		m.pending.depsChanged = m.pending.depsChanged || flushing.depsChanged
		return
	}
	m.pending = flushing
}

// LatestSessionPath returns the path of the highest-sequence session
// directory under sessionsRoot, or ErrSessionNotFound when none exists.
func LatestSessionPath(sessionsRoot string) (string, error) {
	entries, err := os.ReadDir(sessionsRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.ErrSessionNotFound
		}
		return "", &domain.SessionFileError{Op: "scan sessions root", Path: sessionsRoot, Err: err}
	}
	maxSeq := -1
	latest := ""
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		seq, _, ok := domain.ParseSessionDirName(entry.Name())
		if !ok {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
			latest = entry.Name()
		}
	}
	if latest == "" {
		return "", domain.ErrSessionNotFound
	}
	return filepath.Join(sessionsRoot, latest), nil
}
