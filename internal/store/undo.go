package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nicunursekatie/adhd-planner/internal/models"
)

const (
	// DefaultUndoWindow is how long a deleted task stays restorable.
	DefaultUndoWindow = 5 * time.Second
	// DefaultSweepInterval is how often expired snapshots are purged.
	DefaultSweepInterval = 1 * time.Second
)

type undoEntry struct {
	task      *models.Task
	deletedAt time.Time
}

// undoBuffer holds pre-deletion snapshots, newest restored first. Entries
// expire after the window; expiry is enforced both by a background sweep
// and lazily on every access, so a stopped sweeper never extends the
// window.
type undoBuffer struct {
	mu      sync.Mutex
	entries []undoEntry
	window  time.Duration
	now     func() time.Time
}

func newUndoBuffer(window time.Duration, now func() time.Time) *undoBuffer {
	return &undoBuffer{window: window, now: now}
}

func (b *undoBuffer) push(t *models.Task, deletedAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trimLocked()
	b.entries = append(b.entries, undoEntry{task: t, deletedAt: deletedAt})
}

// pop returns the newest unexpired snapshot, removing it from the buffer.
func (b *undoBuffer) pop() (*models.Task, time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trimLocked()
	if len(b.entries) == 0 {
		return nil, time.Time{}, false
	}
	e := b.entries[len(b.entries)-1]
	b.entries = b.entries[:len(b.entries)-1]
	return e.task, e.deletedAt, true
}

func (b *undoBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trimLocked()
	return len(b.entries)
}

// trimLocked drops entries older than the window. Entries are appended in
// time order, so everything before the first fresh one is expired.
func (b *undoBuffer) trimLocked() {
	cutoff := b.now().Add(-b.window)
	i := 0
	for i < len(b.entries) && !b.entries[i].deletedAt.After(cutoff) {
		i++
	}
	if i > 0 {
		b.entries = append([]undoEntry(nil), b.entries[i:]...)
	}
}

// sweep purges expired snapshots on a ticker until ctx is cancelled.
func (b *undoBuffer) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.mu.Lock()
			b.trimLocked()
			b.mu.Unlock()
		}
	}
}

// RunUndoSweep expires undo snapshots in the background until ctx is
// cancelled. The session manager starts one per session.
func (s *Store) RunUndoSweep(ctx context.Context) {
	s.undo.sweep(ctx, DefaultSweepInterval)
}

// HasRecentlyDeleted reports whether an undoable deletion is pending.
func (s *Store) HasRecentlyDeleted() bool {
	return s.undo.len() > 0
}

// UndoDelete restores the most recently deleted task under its original id.
// It returns (nil, nil) when nothing is restorable. Only the root of a
// cascade was snapshotted, so descendants stay deleted; the restored task's
// edge lists may reference tasks that no longer exist until Repair runs.
func (s *Store) UndoDelete(ctx context.Context) (*models.Task, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	snap, deletedAt, ok := s.undo.pop()
	if !ok {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, err := s.gw.Tasks.Create(ctx, snap, s.owner)
	if err != nil {
		// Keep the snapshot so the user can retry while the window
		// lasts.
		s.undo.push(snap, deletedAt)
		return nil, fmt.Errorf("failed to restore task: %w", err)
	}
	s.tasks[stored.ID] = stored
	return stored.Clone(), nil
}
