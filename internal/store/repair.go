package store

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"

	"github.com/nicunursekatie/adhd-planner/internal/models"
)

// RepairReport summarizes what a reconciliation pass changed.
type RepairReport struct {
	ParentsCleared      int `json:"parents_cleared"`
	DependenciesDropped int `json:"dependencies_dropped"`
	SubtaskListsRebuilt int `json:"subtask_lists_rebuilt"`
	InverseEdgesRebuilt int `json:"inverse_edges_rebuilt"`
	TasksPersisted      int `json:"tasks_persisted"`
}

// Changed reports whether the pass touched anything.
func (r *RepairReport) Changed() bool {
	return r.TasksPersisted > 0
}

// Repair reconciles the task graph after partial failures. ParentID and
// DependsOn are the authoritative sides of their relations: dangling
// references in them are dropped, then the Subtasks and DependedOnBy
// mirrors are rebuilt from scratch. Only tasks whose record actually
// changed are persisted.
func (s *Store) Repair(ctx context.Context) (*RepairReport, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &RepairReport{}
	updated := make(map[string]*models.Task)
	work := func(id string) *models.Task {
		if u, ok := updated[id]; ok {
			return u
		}
		u := s.tasks[id].Clone()
		updated[id] = u
		return u
	}

	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Pass 1: drop dangling authoritative references.
	for _, id := range ids {
		t := s.tasks[id]
		if t.ParentID != "" {
			if _, ok := s.tasks[t.ParentID]; !ok {
				work(id).ParentID = ""
				report.ParentsCleared++
			}
		}
		kept := t.DependsOn[:0:0]
		for _, depID := range t.DependsOn {
			if _, ok := s.tasks[depID]; ok {
				kept = append(kept, depID)
			}
		}
		if len(kept) != len(t.DependsOn) {
			report.DependenciesDropped += len(t.DependsOn) - len(kept)
			work(id).DependsOn = kept
		}
	}

	// Pass 2: rebuild mirrors from the (now clean) authoritative sides.
	children := make(map[string][]string)
	inverse := make(map[string][]string)
	current := func(id string) *models.Task {
		if u, ok := updated[id]; ok {
			return u
		}
		return s.tasks[id]
	}
	for _, id := range ids {
		t := current(id)
		if t.ParentID != "" {
			children[t.ParentID] = append(children[t.ParentID], id)
		}
		for _, depID := range t.DependsOn {
			inverse[depID] = append(inverse[depID], id)
		}
	}
	// Child order follows creation time so rebuilt lists match the order
	// normal attachment would have produced.
	for pid := range children {
		cs := children[pid]
		sort.Slice(cs, func(i, j int) bool {
			a, b := s.tasks[cs[i]], s.tasks[cs[j]]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})
	}

	for _, id := range ids {
		t := current(id)
		if !sameSet(t.Subtasks, children[id]) {
			work(id).Subtasks = children[id]
			report.SubtaskListsRebuilt++
		}
		if !sameSet(t.DependedOnBy, inverse[id]) {
			work(id).DependedOnBy = inverse[id]
			report.InverseEdgesRebuilt++
		}
	}

	changed := make([]string, 0, len(updated))
	for id := range updated {
		changed = append(changed, id)
	}
	sort.Strings(changed)
	now := s.now()
	for _, id := range changed {
		u := updated[id]
		u.UpdatedAt = now
		persisted, err := s.gw.Tasks.Update(ctx, u.ID, u, s.owner)
		if err != nil {
			return report, fmt.Errorf("failed to persist repaired task %s: %w", id, err)
		}
		s.tasks[persisted.ID] = persisted
		report.TasksPersisted++
	}

	if report.Changed() {
		s.log.Info("graph_repaired",
			zap.String("owner_id", s.owner),
			zap.Int("parents_cleared", report.ParentsCleared),
			zap.Int("dependencies_dropped", report.DependenciesDropped),
			zap.Int("subtask_lists_rebuilt", report.SubtaskListsRebuilt),
			zap.Int("inverse_edges_rebuilt", report.InverseEdgesRebuilt))
	}
	return report, nil
}

// sameSet compares two id lists ignoring order.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := slices.Clone(a)
	bs := slices.Clone(b)
	sort.Strings(as)
	sort.Strings(bs)
	return slices.Equal(as, bs)
}
