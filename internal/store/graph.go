package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/nicunursekatie/adhd-planner/internal/models"
)

// AddDependency records that taskID depends on dependsOnID. The edge is
// kept on both sides: DependsOn on the dependent, DependedOnBy on the
// dependency. Edges that would make the relation cyclic are rejected before
// anything is written.
func (s *Store) AddDependency(ctx context.Context, taskID, dependsOnID string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	d, ok := s.tasks[dependsOnID]
	if !ok {
		return fmt.Errorf("task %s: %w", dependsOnID, ErrNotFound)
	}
	if taskID == dependsOnID {
		return fmt.Errorf("task %s cannot depend on itself: %w", taskID, ErrDependencyCycle)
	}
	if t.DependsOnTask(dependsOnID) {
		return nil
	}
	// The new edge taskID -> dependsOnID closes a cycle exactly when
	// dependsOnID already reaches taskID through DependsOn edges.
	if s.reachesLocked(dependsOnID, taskID) {
		return fmt.Errorf("task %s -> %s: %w", taskID, dependsOnID, ErrDependencyCycle)
	}

	now := s.now()
	tu := t.Clone()
	tu.DependsOn = append(tu.DependsOn, dependsOnID)
	tu.UpdatedAt = now
	persisted, err := s.gw.Tasks.Update(ctx, tu.ID, tu, s.owner)
	if err != nil {
		return fmt.Errorf("failed to persist dependency: %w", err)
	}
	s.tasks[persisted.ID] = persisted

	du := d.Clone()
	if !slices.Contains(du.DependedOnBy, taskID) {
		du.DependedOnBy = append(du.DependedOnBy, taskID)
	}
	du.UpdatedAt = now
	persisted, err = s.gw.Tasks.Update(ctx, du.ID, du, s.owner)
	if err != nil {
		// One-sided edge: DependsOn is authoritative, Repair rebuilds
		// the inverse side.
		return fmt.Errorf("failed to persist inverse dependency: %w", err)
	}
	s.tasks[persisted.ID] = persisted
	return nil
}

// RemoveDependency deletes the edge taskID -> dependsOnID from both sides.
// A missing edge is a no-op.
func (s *Store) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	if !t.DependsOnTask(dependsOnID) {
		return nil
	}

	now := s.now()
	tu := t.Clone()
	tu.DependsOn = removeString(tu.DependsOn, dependsOnID)
	tu.UpdatedAt = now
	persisted, err := s.gw.Tasks.Update(ctx, tu.ID, tu, s.owner)
	if err != nil {
		return fmt.Errorf("failed to persist dependency removal: %w", err)
	}
	s.tasks[persisted.ID] = persisted

	if d, ok := s.tasks[dependsOnID]; ok {
		du := d.Clone()
		du.DependedOnBy = removeString(du.DependedOnBy, taskID)
		du.UpdatedAt = now
		persisted, err = s.gw.Tasks.Update(ctx, du.ID, du, s.owner)
		if err != nil {
			return fmt.Errorf("failed to persist inverse dependency removal: %w", err)
		}
		s.tasks[persisted.ID] = persisted
	}
	return nil
}

// reachesLocked reports whether target is reachable from id by following
// DependsOn edges.
func (s *Store) reachesLocked(id, target string) bool {
	seen := make(map[string]bool)
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if t, ok := s.tasks[cur]; ok {
			stack = append(stack, t.DependsOn...)
		}
	}
	return false
}

// CanCompleteTask reports whether every direct dependency of the task is
// completed. Unknown task ids and dangling dependency references both
// report false. Start dates do not factor in here; they gate CompleteTask
// separately.
func (s *Store) CanCompleteTask(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canCompleteLocked(id)
}

func (s *Store) canCompleteLocked(id string) bool {
	t, ok := s.tasks[id]
	if !ok {
		return false
	}
	for _, depID := range t.DependsOn {
		dep, ok := s.tasks[depID]
		if !ok || !dep.Completed {
			return false
		}
	}
	return true
}

// CompleteTask marks the task done, stamping CompletedAt. It refuses while
// the start date is in the future or any dependency is incomplete.
// Completing an already-completed task refreshes its timestamps.
func (s *Store) CompleteTask(ctx context.Context, id string) (*models.Task, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	now := s.now()
	if !t.StartDateReached(now) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotStarted)
	}
	if !s.canCompleteLocked(id) {
		return nil, fmt.Errorf("task %s: %w", id, ErrDependenciesIncomplete)
	}

	upd := t.Clone()
	upd.Completed = true
	at := now
	upd.CompletedAt = &at
	upd.UpdatedAt = now
	persisted, err := s.gw.Tasks.Update(ctx, upd.ID, upd, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist completion: %w", err)
	}
	s.tasks[persisted.ID] = persisted
	return persisted.Clone(), nil
}

// ReopenTask clears the completed flag and CompletedAt.
func (s *Store) ReopenTask(ctx context.Context, id string) (*models.Task, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	upd := t.Clone()
	upd.Completed = false
	upd.CompletedAt = nil
	upd.UpdatedAt = s.now()
	persisted, err := s.gw.Tasks.Update(ctx, upd.ID, upd, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist reopen: %w", err)
	}
	s.tasks[persisted.ID] = persisted
	return persisted.Clone(), nil
}

// MoveUnderParent reparents a task: it is detached from its current parent,
// if any, and appended to the new parent's subtask list. Moving a task under
// itself or under one of its own descendants is rejected.
func (s *Store) MoveUnderParent(ctx context.Context, id, parentID string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	parent, ok := s.tasks[parentID]
	if !ok {
		return fmt.Errorf("parent task %s: %w", parentID, ErrNotFound)
	}
	if id == parentID || s.inSubtreeLocked(parentID, id) {
		return fmt.Errorf("task %s cannot be nested under its own subtree", id)
	}
	if t.ParentID == parentID {
		return nil
	}

	now := s.now()
	if t.ParentID != "" {
		if old, ok := s.tasks[t.ParentID]; ok {
			upd := old.Clone()
			upd.Subtasks = removeString(upd.Subtasks, id)
			upd.UpdatedAt = now
			persisted, err := s.gw.Tasks.Update(ctx, upd.ID, upd, s.owner)
			if err != nil {
				return fmt.Errorf("failed to detach task from parent: %w", err)
			}
			s.tasks[persisted.ID] = persisted
		}
	}

	tu := t.Clone()
	tu.ParentID = parentID
	tu.UpdatedAt = now
	persisted, err := s.gw.Tasks.Update(ctx, tu.ID, tu, s.owner)
	if err != nil {
		return fmt.Errorf("failed to persist reparent: %w", err)
	}
	s.tasks[persisted.ID] = persisted

	pu := parent.Clone()
	if !slices.Contains(pu.Subtasks, id) {
		pu.Subtasks = append(pu.Subtasks, id)
	}
	pu.UpdatedAt = now
	persisted, err = s.gw.Tasks.Update(ctx, pu.ID, pu, s.owner)
	if err != nil {
		return fmt.Errorf("failed to attach subtask to parent: %w", err)
	}
	s.tasks[persisted.ID] = persisted
	return nil
}

// inSubtreeLocked reports whether id lies in the subtree rooted at root,
// following ParentID links upward from id.
func (s *Store) inSubtreeLocked(id, root string) bool {
	seen := make(map[string]bool)
	for cur := id; cur != "" && !seen[cur]; {
		seen[cur] = true
		t, ok := s.tasks[cur]
		if !ok {
			return false
		}
		if t.ParentID == root {
			return true
		}
		cur = t.ParentID
	}
	return false
}
