package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/prdflow/internal/domain"
	"github.com/runoshun/prdflow/internal/testutil"
)

const testPRD = "# Product\n\nBuild the session store.\n"

func testBacklog() *domain.Backlog {
	return &domain.Backlog{
		Phases: []domain.Phase{{
			ID: "P1", Type: domain.ItemTypePhase, Title: "Foundation", Status: domain.StatusPlanned,
			Milestones: []domain.Milestone{{
				ID: "P1.M1", Type: domain.ItemTypeMilestone, Title: "Skeleton", Status: domain.StatusPlanned,
				Tasks: []domain.Task{{
					ID: "P1.M1.T1", Type: domain.ItemTypeTask, Title: "Setup", Status: domain.StatusPlanned,
					Subtasks: []domain.Subtask{
						{ID: "P1.M1.T1.S1", Type: domain.ItemTypeSubtask, Title: "Create repo", Status: domain.StatusPlanned, StoryPoints: 1},
						{ID: "P1.M1.T1.S2", Type: domain.ItemTypeSubtask, Title: "Add CI", Status: domain.StatusPlanned, StoryPoints: 2,
							Dependencies: []string{"P1.M1.T1.S1"}},
						{ID: "P1.M1.T1.S3", Type: domain.ItemTypeSubtask, Title: "Write readme", Status: domain.StatusPlanned, StoryPoints: 3},
					},
				}},
			}},
		}},
	}
}

func newTestManager(store domain.SessionStore) *Manager {
	clock := &testutil.MockClock{NowTime: time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)}
	return NewManager(store, clock, zerolog.Nop())
}

// seedManager initializes a fresh session under a temp root and installs
// the standard test backlog as the committed baseline.
func seedManager(t *testing.T) (*Manager, *testutil.MockSessionStore, string) {
	t.Helper()
	store := testutil.NewMockSessionStore()
	mgr := newTestManager(store)

	state, err := mgr.Initialize(context.Background(), testPRD, t.TempDir())
	require.NoError(t, err)

	require.NoError(t, mgr.ReplaceBacklog(testBacklog()))
	require.NoError(t, mgr.FlushUpdates(context.Background()))
	return mgr, store, state.Metadata.Path
}

func TestManager_InitializeNewSession(t *testing.T) {
	store := testutil.NewMockSessionStore()
	mgr := newTestManager(store)
	root := t.TempDir()

	state, err := mgr.Initialize(context.Background(), testPRD, root)
	require.NoError(t, err)

	wantID := "001_" + domain.HashPRD(testPRD)
	require.Equal(t, wantID, state.Metadata.ID)
	require.Equal(t, filepath.Join(root, wantID), state.Metadata.Path)
	require.Empty(t, state.Metadata.ParentSession)
	require.False(t, state.Metadata.IsDelta())
	require.Equal(t, testPRD, state.PRDSnapshot)
	require.Empty(t, state.TaskRegistry.Phases)

	// The session directory exists and the store was seeded.
	require.DirExists(t, state.Metadata.Path)
	require.Equal(t, testPRD, store.Snapshots[state.Metadata.Path])
	require.NotNil(t, store.Backlogs[state.Metadata.Path])
	require.NotContains(t, store.ParentLinks, state.Metadata.Path)
}

func TestManager_InitializeEmptyPRD(t *testing.T) {
	mgr := newTestManager(testutil.NewMockSessionStore())
	_, err := mgr.Initialize(context.Background(), "", t.TempDir())
	require.ErrorIs(t, err, domain.ErrEmptyPRD)
}

func TestManager_InitializeResumesByHash(t *testing.T) {
	store := testutil.NewMockSessionStore()
	root := t.TempDir()

	first, err := newTestManager(store).Initialize(context.Background(), testPRD, root)
	require.NoError(t, err)

	// Same PRD content through a fresh manager resumes the same session.
	second, err := newTestManager(store).Initialize(context.Background(), testPRD, root)
	require.NoError(t, err)
	require.Equal(t, first.Metadata.ID, second.Metadata.ID)
	require.Equal(t, first.Metadata.Path, second.Metadata.Path)
	require.Equal(t, testPRD, second.PRDSnapshot)
}

func TestManager_InitializeCreatesDeltaSession(t *testing.T) {
	store := testutil.NewMockSessionStore()
	root := t.TempDir()

	first, err := newTestManager(store).Initialize(context.Background(), testPRD, root)
	require.NoError(t, err)

	changedPRD := testPRD + "\nNew requirement.\n"
	second, err := newTestManager(store).Initialize(context.Background(), changedPRD, root)
	require.NoError(t, err)

	require.Equal(t, "002_"+domain.HashPRD(changedPRD), second.Metadata.ID)
	require.Equal(t, first.Metadata.ID, second.Metadata.ParentSession)
	require.True(t, second.Metadata.IsDelta())
	require.Equal(t, first.Metadata.ID, store.ParentLinks[second.Metadata.Path])
}

func TestManager_LoadSessionMissingBacklog(t *testing.T) {
	store := testutil.NewMockSessionStore()
	mgr := newTestManager(store)
	root := t.TempDir()

	state, err := mgr.Initialize(context.Background(), testPRD, root)
	require.NoError(t, err)

	delete(store.Backlogs, state.Metadata.Path)
	_, err = newTestManager(store).LoadSession(context.Background(), state.Metadata.Path)

	var ferr *domain.SessionFileError
	require.ErrorAs(t, err, &ferr)
	require.Contains(t, ferr.Path, domain.BacklogFileName)
}

func TestManager_LoadSessionBadDirName(t *testing.T) {
	mgr := newTestManager(testutil.NewMockSessionStore())
	_, err := mgr.LoadSession(context.Background(), filepath.Join(t.TempDir(), "not-a-session"))
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_UpdateItemStatusNoSession(t *testing.T) {
	mgr := newTestManager(testutil.NewMockSessionStore())
	err := mgr.UpdateItemStatus("P1", domain.StatusImplementing)
	require.ErrorIs(t, err, domain.ErrNoSession)
}

func TestManager_UpdateItemStatusUnknownItem(t *testing.T) {
	mgr, store, path := seedManager(t)

	err := mgr.UpdateItemStatus("P9.M9.T9.S9", domain.StatusComplete)
	require.ErrorIs(t, err, domain.ErrItemNotFound)

	// The miss does not invalidate the batch: a following valid update
	// still flushes cleanly.
	require.NoError(t, mgr.UpdateItemStatus("P1.M1.T1.S1", domain.StatusImplementing))
	require.NoError(t, mgr.FlushUpdates(context.Background()))
	st := store.Backlogs[path].Subtask("P1.M1.T1.S1")
	require.Equal(t, domain.StatusImplementing, st.Status)
}

func TestManager_UpdatesCoalesceLastWriteWins(t *testing.T) {
	mgr, store, path := seedManager(t)
	writesBefore := store.BacklogWrites[path]

	require.NoError(t, mgr.UpdateItemStatus("P1.M1.T1.S1", domain.StatusResearching))
	require.NoError(t, mgr.UpdateItemStatus("P1.M1.T1.S1", domain.StatusImplementing))
	require.NoError(t, mgr.UpdateItemStatus("P1.M1.T1.S1", domain.StatusComplete))
	require.Equal(t, 3, mgr.PendingUpdates())
	require.True(t, mgr.Dirty())

	// Disk untouched until the flush.
	require.Equal(t, writesBefore, store.BacklogWrites[path])
	require.Equal(t, domain.StatusPlanned, store.Backlogs[path].Subtask("P1.M1.T1.S1").Status)

	require.NoError(t, mgr.FlushUpdates(context.Background()))
	require.Equal(t, writesBefore+1, store.BacklogWrites[path])
	require.Equal(t, domain.StatusComplete, store.Backlogs[path].Subtask("P1.M1.T1.S1").Status)
	require.False(t, mgr.Dirty())
	require.Zero(t, mgr.PendingUpdates())
}

func TestManager_FlushCleanIsNoOp(t *testing.T) {
	mgr, store, path := seedManager(t)
	writesBefore := store.BacklogWrites[path]

	require.NoError(t, mgr.FlushUpdates(context.Background()))
	require.NoError(t, mgr.FlushUpdates(context.Background()))
	require.Equal(t, writesBefore, store.BacklogWrites[path])
}

func TestManager_FlushReplacesBaseline(t *testing.T) {
	mgr, _, _ := seedManager(t)
	before := mgr.State()

	require.NoError(t, mgr.UpdateItemStatus("P1", domain.StatusImplementing))
	require.NoError(t, mgr.FlushUpdates(context.Background()))
	after := mgr.State()

	// Flush installs a new state and registry; the old one is untouched.
	require.NotSame(t, before, after)
	require.NotSame(t, before.TaskRegistry, after.TaskRegistry)
	require.Equal(t, domain.StatusPlanned, before.TaskRegistry.Phases[0].Status)
	require.Equal(t, domain.StatusImplementing, after.TaskRegistry.Phases[0].Status)
}

func TestManager_FlushFailurePreservesBatch(t *testing.T) {
	mgr, store, path := seedManager(t)
	committed := mgr.State().TaskRegistry

	require.NoError(t, mgr.UpdateItemStatus("P1.M1.T1.S1", domain.StatusImplementing))
	store.WriteBacklogErr = errors.New("disk full")

	err := mgr.FlushUpdates(context.Background())
	require.ErrorContains(t, err, "disk full")

	// Baseline and store are unchanged, the batch survives for retry.
	require.Same(t, committed, mgr.State().TaskRegistry)
	require.Equal(t, domain.StatusPlanned, store.Backlogs[path].Subtask("P1.M1.T1.S1").Status)
	require.True(t, mgr.Dirty())
	require.Equal(t, 1, mgr.PendingUpdates())

	store.WriteBacklogErr = nil
	require.NoError(t, mgr.FlushUpdates(context.Background()))
	require.Equal(t, domain.StatusImplementing, store.Backlogs[path].Subtask("P1.M1.T1.S1").Status)
	require.False(t, mgr.Dirty())
}

func TestManager_FlushRejectsInvalidStatus(t *testing.T) {
	mgr, store, path := seedManager(t)

	// Status values are not vetted at update time; the flush gate catches them.
	require.NoError(t, mgr.UpdateItemStatus("P1.M1.T1.S1", domain.Status("Bogus")))

	err := mgr.FlushUpdates(context.Background())
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Equal(t, domain.StatusPlanned, store.Backlogs[path].Subtask("P1.M1.T1.S1").Status)
	require.True(t, mgr.Dirty())
}

func TestManager_SetDependencies(t *testing.T) {
	mgr, store, path := seedManager(t)

	require.NoError(t, mgr.SetDependencies("P1.M1.T1.S3", []string{"P1.M1.T1.S1", "P1.M1.T1.S2"}))
	require.NoError(t, mgr.FlushUpdates(context.Background()))
	st := store.Backlogs[path].Subtask("P1.M1.T1.S3")
	require.Equal(t, []string{"P1.M1.T1.S1", "P1.M1.T1.S2"}, st.Dependencies)
}

func TestManager_SetDependenciesNotASubtask(t *testing.T) {
	mgr, _, _ := seedManager(t)

	err := mgr.SetDependencies("P1.M1.T1", []string{"P1.M1.T1.S1"})
	require.ErrorIs(t, err, domain.ErrNotASubtask)

	err = mgr.SetDependencies("P9.M9.T9.S9", nil)
	require.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestManager_FlushRejectsDependencyCycle(t *testing.T) {
	mgr, store, path := seedManager(t)

	// S2 already depends on S1; closing the loop must fail at flush time.
	require.NoError(t, mgr.SetDependencies("P1.M1.T1.S1", []string{"P1.M1.T1.S2"}))

	err := mgr.FlushUpdates(context.Background())
	var cerr *domain.CycleError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, []string{"P1.M1.T1.S1", "P1.M1.T1.S2", "P1.M1.T1.S1"}, cerr.Cycle)

	// Nothing was written, the batch survives.
	require.Empty(t, store.Backlogs[path].Subtask("P1.M1.T1.S1").Dependencies)
	require.True(t, mgr.Dirty())

	// Dropping the bad edge in the same batch unblocks the flush.
	require.NoError(t, mgr.SetDependencies("P1.M1.T1.S1", nil))
	require.NoError(t, mgr.FlushUpdates(context.Background()))
}

func TestManager_ReplaceBacklogValidates(t *testing.T) {
	mgr, _, _ := seedManager(t)

	bad := testBacklog()
	bad.Phases[0].ID = "X1"
	var verrs domain.ValidationErrors
	require.ErrorAs(t, mgr.ReplaceBacklog(bad), &verrs)

	cyclic := testBacklog()
	cyclic.Phases[0].Milestones[0].Tasks[0].Subtasks[0].Dependencies = []string{"P1.M1.T1.S2"}
	var cerr *domain.CycleError
	require.ErrorAs(t, mgr.ReplaceBacklog(cyclic), &cerr)
}

func TestManager_SetCurrentItem(t *testing.T) {
	mgr, _, _ := seedManager(t)

	require.NoError(t, mgr.SetCurrentItem("P1.M1.T1.S2"))
	require.Equal(t, "P1.M1.T1.S2", mgr.State().CurrentItemID)

	require.ErrorIs(t, mgr.SetCurrentItem("P9"), domain.ErrItemNotFound)

	// Clearing is always allowed.
	require.NoError(t, mgr.SetCurrentItem(""))
	require.Empty(t, mgr.State().CurrentItemID)
}

func TestManager_SetCurrentItemFromPendingBatch(t *testing.T) {
	mgr, _, _ := seedManager(t)

	// An item that only exists in the unflushed working copy is addressable.
	next := testBacklog()
	next.Phases = append(next.Phases, domain.Phase{
		ID: "P2", Type: domain.ItemTypePhase, Title: "Expansion", Status: domain.StatusPlanned,
	})
	require.NoError(t, mgr.ReplaceBacklog(next))
	require.NoError(t, mgr.SetCurrentItem("P2"))
}

// blockingStore parks WriteBacklog until released, so a test can overlap
// updates with an in-flight flush.
type blockingStore struct {
	*testutil.MockSessionStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) WriteBacklog(dir string, b *domain.Backlog) error {
	s.entered <- struct{}{}
	<-s.release
	return s.MockSessionStore.WriteBacklog(dir, b)
}

func TestManager_UpdatesDuringFlushAreNotLost(t *testing.T) {
	inner := testutil.NewMockSessionStore()
	store := &blockingStore{
		MockSessionStore: inner,
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	mgr := newTestManager(store)

	_, err := mgr.Initialize(context.Background(), testPRD, t.TempDir())
	require.NoError(t, err)
	require.NoError(t, mgr.ReplaceBacklog(testBacklog()))

	done := make(chan error, 1)
	go func() { done <- mgr.FlushUpdates(context.Background()) }()
	<-store.entered // first flush is inside WriteBacklog

	// This update lands in a fresh batch cloned from the in-flight copy.
	require.NoError(t, mgr.UpdateItemStatus("P1.M1.T1.S1", domain.StatusImplementing))

	store.release <- struct{}{}
	require.NoError(t, <-done)

	// The overlapping update is still pending, and the follow-up flush
	// persists a superset of the first one.
	require.True(t, mgr.Dirty())
	go func() { done <- mgr.FlushUpdates(context.Background()) }()
	<-store.entered
	store.release <- struct{}{}
	require.NoError(t, <-done)

	path := mgr.State().Metadata.Path
	require.Equal(t, domain.StatusImplementing, inner.Backlogs[path].Subtask("P1.M1.T1.S1").Status)
	require.Equal(t, "P1.M1.T1.S1", inner.Backlogs[path].Subtask("P1.M1.T1.S2").Dependencies[0])
	require.False(t, mgr.Dirty())
}

func TestLatestSessionPath(t *testing.T) {
	root := t.TempDir()
	_, err := LatestSessionPath(root)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	store := testutil.NewMockSessionStore()
	_, err = newTestManager(store).Initialize(context.Background(), "prd one", root)
	require.NoError(t, err)
	second, err := newTestManager(store).Initialize(context.Background(), "prd two", root)
	require.NoError(t, err)

	latest, err := LatestSessionPath(root)
	require.NoError(t, err)
	require.Equal(t, second.Metadata.Path, latest)
}
