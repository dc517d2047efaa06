package store

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/nicunursekatie/adhd-planner/internal/models"
)

// AddTask persists a new task and caches it. When ParentID is set the
// parent must already exist; the child is appended to the parent's subtask
// list as a second write.
func (s *Store) AddTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTaskLocked(ctx, t)
}

func (s *Store) addTaskLocked(ctx context.Context, t *models.Task) (*models.Task, error) {
	if t.ParentID != "" {
		if _, ok := s.tasks[t.ParentID]; !ok {
			return nil, fmt.Errorf("parent task %s: %w", t.ParentID, ErrNotFound)
		}
	}
	s.stampNew(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	stored, err := s.gw.Tasks.Create(ctx, t, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}
	s.tasks[stored.ID] = stored

	if stored.ParentID != "" {
		parent := s.tasks[stored.ParentID].Clone()
		if !slices.Contains(parent.Subtasks, stored.ID) {
			parent.Subtasks = append(parent.Subtasks, stored.ID)
		}
		parent.UpdatedAt = s.now()
		persisted, err := s.gw.Tasks.Update(ctx, parent.ID, parent, s.owner)
		if err != nil {
			// The child exists but the parent's mirror does not list it.
			// Repair rebuilds subtask lists from ParentID.
			return stored.Clone(), fmt.Errorf("failed to attach subtask to parent: %w", err)
		}
		s.tasks[persisted.ID] = persisted
	}
	return stored.Clone(), nil
}

// UpdateTask persists field changes to an existing task. Structural edges
// are managed by the dedicated operations, not here: ParentID, Subtasks,
// DependsOn and DependedOnBy are carried over from the current record.
func (s *Store) UpdateTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.tasks[t.ID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	t.ParentID = current.ParentID
	t.Subtasks = slices.Clone(current.Subtasks)
	t.DependsOn = slices.Clone(current.DependsOn)
	t.DependedOnBy = slices.Clone(current.DependedOnBy)
	t.CreatedAt = current.CreatedAt
	t.UpdatedAt = s.now()
	stored, err := s.gw.Tasks.Update(ctx, t.ID, t, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}
	s.tasks[stored.ID] = stored
	return stored.Clone(), nil
}

// GetTask returns a deep copy of the task, if present. Callers mutate the
// copy and hand it back through UpdateTask.
func (s *Store) GetTask(id string) (*models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// ListTasks returns copies of every task, newest first.
func (s *Store) ListTasks() []*models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DeleteTask removes a task and, recursively, its whole subtree. The
// deletion order is: detach the root from its parent, then delete subtrees
// depth first so children go before their parents, unlinking each task's
// dependency edges as it goes. Only the root's pre-deletion snapshot enters
// the undo buffer; undo restores the root alone.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	snapshot := t.Clone()
	now := s.now()

	if t.ParentID != "" {
		if parent, ok := s.tasks[t.ParentID]; ok {
			upd := parent.Clone()
			upd.Subtasks = removeString(upd.Subtasks, id)
			upd.UpdatedAt = now
			persisted, err := s.gw.Tasks.Update(ctx, upd.ID, upd, s.owner)
			if err != nil {
				return fmt.Errorf("failed to detach task from parent: %w", err)
			}
			s.tasks[persisted.ID] = persisted
		}
	}

	if err := s.deleteSubtreeLocked(ctx, id); err != nil {
		// A partial cascade is not rolled back; already-deleted
		// descendants stay gone and Repair reconciles the leftovers.
		return err
	}

	s.undo.push(snapshot, now)
	return nil
}

func (s *Store) deleteSubtreeLocked(ctx context.Context, id string) error {
	var children []string
	for _, c := range s.tasks {
		if c.ParentID == id {
			children = append(children, c.ID)
		}
	}
	sort.Strings(children)
	for _, cid := range children {
		if err := s.deleteSubtreeLocked(ctx, cid); err != nil {
			return err
		}
	}

	t, ok := s.tasks[id]
	if !ok {
		return nil
	}
	if err := s.unlinkEdgesLocked(ctx, t); err != nil {
		return err
	}
	if err := s.gw.Tasks.Delete(ctx, id, s.owner); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	delete(s.tasks, id)
	return nil
}

// unlinkEdgesLocked removes every dependency edge touching t from the
// tasks on the other side, one persisted write per touched task.
func (s *Store) unlinkEdgesLocked(ctx context.Context, t *models.Task) error {
	now := s.now()
	drop := func(otherID string, field func(*models.Task) *[]string) error {
		other, ok := s.tasks[otherID]
		if !ok {
			return nil
		}
		upd := other.Clone()
		list := field(upd)
		next := removeString(*list, t.ID)
		if len(next) == len(*list) {
			return nil
		}
		*list = next
		upd.UpdatedAt = now
		persisted, err := s.gw.Tasks.Update(ctx, upd.ID, upd, s.owner)
		if err != nil {
			return fmt.Errorf("failed to unlink dependency edge: %w", err)
		}
		s.tasks[persisted.ID] = persisted
		return nil
	}

	for _, depID := range t.DependsOn {
		if err := drop(depID, func(x *models.Task) *[]string { return &x.DependedOnBy }); err != nil {
			return err
		}
	}
	for _, depID := range t.DependedOnBy {
		if err := drop(depID, func(x *models.Task) *[]string { return &x.DependsOn }); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveTask sets or clears the archived flag.
func (s *Store) ArchiveTask(ctx context.Context, id string, archived bool) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if t.Archived == archived {
		return nil
	}
	upd := t.Clone()
	upd.Archived = archived
	upd.UpdatedAt = s.now()
	persisted, err := s.gw.Tasks.Update(ctx, upd.ID, upd, s.owner)
	if err != nil {
		return fmt.Errorf("failed to persist task: %w", err)
	}
	s.tasks[persisted.ID] = persisted
	return nil
}

// MoveTaskToProject reassigns the task's project. An empty projectID clears
// the assignment.
func (s *Store) MoveTaskToProject(ctx context.Context, id, projectID string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if projectID != "" {
		if _, ok := s.projects[projectID]; !ok {
			return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
		}
	}
	if t.ProjectID == projectID {
		return nil
	}
	upd := t.Clone()
	upd.ProjectID = projectID
	upd.UpdatedAt = s.now()
	persisted, err := s.gw.Tasks.Update(ctx, upd.ID, upd, s.owner)
	if err != nil {
		return fmt.Errorf("failed to persist task: %w", err)
	}
	s.tasks[persisted.ID] = persisted
	return nil
}

// AssignCategories adds the given category ids to the task, keeping ones it
// already carries.
func (s *Store) AssignCategories(ctx context.Context, id string, categoryIDs []string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	upd := t.Clone()
	changed := false
	for _, cid := range categoryIDs {
		if !slices.Contains(upd.CategoryIDs, cid) {
			upd.CategoryIDs = append(upd.CategoryIDs, cid)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	upd.UpdatedAt = s.now()
	persisted, err := s.gw.Tasks.Update(ctx, upd.ID, upd, s.owner)
	if err != nil {
		return fmt.Errorf("failed to persist task: %w", err)
	}
	s.tasks[persisted.ID] = persisted
	return nil
}
