package store

import (
	"context"
	"errors"
	"testing"

	"github.com/nicunursekatie/adhd-planner/internal/gateway"
	"github.com/nicunursekatie/adhd-planner/internal/models"
)

// corruptTask rewrites a task's structural fields straight through the
// gateway and reloads the session, simulating the leftovers of a partial
// cascade.
func corruptTask(t *testing.T, s *Store, id string, mutate func(*models.Task)) *Store {
	t.Helper()
	ctx := context.Background()
	task, ok := s.GetTask(id)
	if !ok {
		t.Fatalf("task %s not found", id)
	}
	mutate(task)
	if _, err := s.gw.Tasks.Update(ctx, id, task, s.owner); err != nil {
		t.Fatalf("raw update error = %v", err)
	}
	reloaded := New(s.gw, s.owner, nil, WithClock(s.now))
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return reloaded
}

func TestRepairClearsDanglingParent(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()
	task := mustAddTask(t, s, &models.Task{Title: "orphan"})

	s = corruptTask(t, s, task.ID, func(x *models.Task) { x.ParentID = "deleted-parent" })

	report, err := s.Repair(ctx)
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report.ParentsCleared != 1 {
		t.Errorf("ParentsCleared = %d, want 1", report.ParentsCleared)
	}
	got, _ := s.GetTask(task.ID)
	if got.ParentID != "" {
		t.Errorf("ParentID = %q, want cleared", got.ParentID)
	}
}

func TestRepairDropsDanglingDependencies(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()
	task := mustAddTask(t, s, &models.Task{Title: "task"})
	dep := mustAddTask(t, s, &models.Task{Title: "dep"})
	if err := s.AddDependency(ctx, task.ID, dep.ID); err != nil {
		t.Fatalf("AddDependency() error = %v", err)
	}

	s = corruptTask(t, s, task.ID, func(x *models.Task) {
		x.DependsOn = append(x.DependsOn, "long-gone")
	})

	report, err := s.Repair(ctx)
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report.DependenciesDropped != 1 {
		t.Errorf("DependenciesDropped = %d, want 1", report.DependenciesDropped)
	}
	got, _ := s.GetTask(task.ID)
	if len(got.DependsOn) != 1 || got.DependsOn[0] != dep.ID {
		t.Errorf("DependsOn = %v, want [%s]: real edge must survive", got.DependsOn, dep.ID)
	}
}

func TestRepairRebuildsMirrors(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()
	parent := mustAddTask(t, s, &models.Task{Title: "parent"})
	child := mustAddTask(t, s, &models.Task{Title: "child", ParentID: parent.ID})
	a := mustAddTask(t, s, &models.Task{Title: "a"})
	b := mustAddTask(t, s, &models.Task{Title: "b"})
	if err := s.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency() error = %v", err)
	}

	// Wreck both mirror sides: the parent forgets its child, the
	// dependency forgets its dependent.
	s = corruptTask(t, s, parent.ID, func(x *models.Task) { x.Subtasks = nil })
	s = corruptTask(t, s, b.ID, func(x *models.Task) { x.DependedOnBy = nil })

	report, err := s.Repair(ctx)
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report.SubtaskListsRebuilt != 1 {
		t.Errorf("SubtaskListsRebuilt = %d, want 1", report.SubtaskListsRebuilt)
	}
	if report.InverseEdgesRebuilt != 1 {
		t.Errorf("InverseEdgesRebuilt = %d, want 1", report.InverseEdgesRebuilt)
	}

	gp, _ := s.GetTask(parent.ID)
	if len(gp.Subtasks) != 1 || gp.Subtasks[0] != child.ID {
		t.Errorf("parent.Subtasks = %v, want [%s]", gp.Subtasks, child.ID)
	}
	gb, _ := s.GetTask(b.ID)
	if len(gb.DependedOnBy) != 1 || gb.DependedOnBy[0] != a.ID {
		t.Errorf("b.DependedOnBy = %v, want [%s]", gb.DependedOnBy, a.ID)
	}
}

func TestRepairCleanGraphIsIdempotent(t *testing.T) {
	t.Parallel()

	s, ctl, _ := newTestStore(t)
	ctx := context.Background()
	parent := mustAddTask(t, s, &models.Task{Title: "parent"})
	mustAddTask(t, s, &models.Task{Title: "child", ParentID: parent.ID})
	a := mustAddTask(t, s, &models.Task{Title: "a"})
	b := mustAddTask(t, s, &models.Task{Title: "b"})
	if err := s.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency() error = %v", err)
	}

	before := ctl.Calls(gateway.OpUpdate, gateway.KindTask)
	report, err := s.Repair(ctx)
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report.Changed() {
		t.Errorf("Repair() on a clean graph reported changes: %+v", report)
	}
	if n := ctl.Calls(gateway.OpUpdate, gateway.KindTask) - before; n != 0 {
		t.Errorf("clean repair persisted %d tasks, want 0", n)
	}
}

func TestRepairUnauthenticated(t *testing.T) {
	t.Parallel()

	gw, _ := gateway.NewMemory()
	s := New(gw, "", nil)
	if _, err := s.Repair(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Repair() error = %v, want ErrUnauthenticated", err)
	}
}
