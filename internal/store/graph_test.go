package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nicunursekatie/adhd-planner/internal/gateway"
	"github.com/nicunursekatie/adhd-planner/internal/models"
)

func TestAddDependencySymmetric(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()
	a := mustAddTask(t, s, &models.Task{Title: "a"})
	b := mustAddTask(t, s, &models.Task{Title: "b"})

	if err := s.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency() error = %v", err)
	}

	ga, _ := s.GetTask(a.ID)
	gb, _ := s.GetTask(b.ID)
	if !ga.DependsOnTask(b.ID) {
		t.Errorf("a.DependsOn = %v, want to contain %s", ga.DependsOn, b.ID)
	}
	if len(gb.DependedOnBy) != 1 || gb.DependedOnBy[0] != a.ID {
		t.Errorf("b.DependedOnBy = %v, want [%s]", gb.DependedOnBy, a.ID)
	}

	// Re-adding the same edge is a no-op, not a duplicate.
	if err := s.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency() second call error = %v", err)
	}
	ga, _ = s.GetTask(a.ID)
	if len(ga.DependsOn) != 1 {
		t.Errorf("a.DependsOn = %v, want exactly one entry", ga.DependsOn)
	}
}

func TestAddDependencyRejectsCycles(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()
	a := mustAddTask(t, s, &models.Task{Title: "a"})
	b := mustAddTask(t, s, &models.Task{Title: "b"})
	c := mustAddTask(t, s, &models.Task{Title: "c"})

	if err := s.AddDependency(ctx, a.ID, a.ID); !errors.Is(err, ErrDependencyCycle) {
		t.Errorf("self dependency error = %v, want ErrDependencyCycle", err)
	}

	if err := s.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency(a, b) error = %v", err)
	}
	if err := s.AddDependency(ctx, b.ID, c.ID); err != nil {
		t.Fatalf("AddDependency(b, c) error = %v", err)
	}
	// c -> a would close a -> b -> c -> a.
	if err := s.AddDependency(ctx, c.ID, a.ID); !errors.Is(err, ErrDependencyCycle) {
		t.Errorf("transitive cycle error = %v, want ErrDependencyCycle", err)
	}

	// The rejected edge must not appear on either side.
	gc, _ := s.GetTask(c.ID)
	if gc.DependsOnTask(a.ID) {
		t.Error("rejected edge was recorded on c.DependsOn")
	}
	ga, _ := s.GetTask(a.ID)
	if len(ga.DependedOnBy) != 0 {
		t.Errorf("a.DependedOnBy = %v, want empty", ga.DependedOnBy)
	}
}

func TestAddDependencyUnknownTask(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()
	a := mustAddTask(t, s, &models.Task{Title: "a"})

	if err := s.AddDependency(ctx, a.ID, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddDependency() error = %v, want ErrNotFound", err)
	}
	if err := s.AddDependency(ctx, "ghost", a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddDependency() error = %v, want ErrNotFound", err)
	}
}

func TestRemoveDependency(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()
	a := mustAddTask(t, s, &models.Task{Title: "a"})
	b := mustAddTask(t, s, &models.Task{Title: "b"})

	if err := s.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency() error = %v", err)
	}
	if err := s.RemoveDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("RemoveDependency() error = %v", err)
	}

	ga, _ := s.GetTask(a.ID)
	gb, _ := s.GetTask(b.ID)
	if len(ga.DependsOn) != 0 || len(gb.DependedOnBy) != 0 {
		t.Errorf("edge survives removal: a.DependsOn=%v b.DependedOnBy=%v", ga.DependsOn, gb.DependedOnBy)
	}

	// Removing a missing edge is a no-op.
	if err := s.RemoveDependency(ctx, a.ID, b.ID); err != nil {
		t.Errorf("RemoveDependency() on missing edge error = %v, want nil", err)
	}
}

func TestCanCompleteTask(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()
	dep := mustAddTask(t, s, &models.Task{Title: "dep"})
	task := mustAddTask(t, s, &models.Task{Title: "task"})
	if err := s.AddDependency(ctx, task.ID, dep.ID); err != nil {
		t.Fatalf("AddDependency() error = %v", err)
	}

	if s.CanCompleteTask(task.ID) {
		t.Error("CanCompleteTask() = true with an incomplete dependency")
	}
	if _, err := s.CompleteTask(ctx, dep.ID); err != nil {
		t.Fatalf("CompleteTask(dep) error = %v", err)
	}
	if !s.CanCompleteTask(task.ID) {
		t.Error("CanCompleteTask() = false after completing the dependency")
	}
	if s.CanCompleteTask("ghost") {
		t.Error("CanCompleteTask() = true for an unknown id")
	}
}

func TestCompleteTaskGating(t *testing.T) {
	t.Parallel()

	s, _, clock := newTestStore(t)
	ctx := context.Background()

	dep := mustAddTask(t, s, &models.Task{Title: "dep"})
	task := mustAddTask(t, s, &models.Task{Title: "task"})
	if err := s.AddDependency(ctx, task.ID, dep.ID); err != nil {
		t.Fatalf("AddDependency() error = %v", err)
	}

	if _, err := s.CompleteTask(ctx, task.ID); !errors.Is(err, ErrDependenciesIncomplete) {
		t.Errorf("CompleteTask() error = %v, want ErrDependenciesIncomplete", err)
	}

	if _, err := s.CompleteTask(ctx, dep.ID); err != nil {
		t.Fatalf("CompleteTask(dep) error = %v", err)
	}
	done, err := s.CompleteTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	if !done.Completed || done.CompletedAt == nil {
		t.Errorf("completed task = %+v, want Completed with CompletedAt set", done)
	}
	if !done.CompletedAt.Equal(clock.Now()) {
		t.Errorf("CompletedAt = %v, want %v", done.CompletedAt, clock.Now())
	}
}

func TestCompleteTaskBeforeStartDate(t *testing.T) {
	t.Parallel()

	s, _, clock := newTestStore(t)
	ctx := context.Background()

	future := clock.Now().AddDate(0, 0, 3).Format(models.DateOnly)
	task := mustAddTask(t, s, &models.Task{Title: "later", StartDate: &future})

	if _, err := s.CompleteTask(ctx, task.ID); !errors.Is(err, ErrNotStarted) {
		t.Errorf("CompleteTask() error = %v, want ErrNotStarted", err)
	}

	clock.Advance(4 * 24 * time.Hour)
	if _, err := s.CompleteTask(ctx, task.ID); err != nil {
		t.Errorf("CompleteTask() after start date error = %v", err)
	}
}

func TestCascadeDelete(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()

	root := mustAddTask(t, s, &models.Task{Title: "root"})
	child := mustAddTask(t, s, &models.Task{Title: "child", ParentID: root.ID})
	grand := mustAddTask(t, s, &models.Task{Title: "grand", ParentID: child.ID})
	outside := mustAddTask(t, s, &models.Task{Title: "outside"})
	if err := s.AddDependency(ctx, outside.ID, grand.ID); err != nil {
		t.Fatalf("AddDependency() error = %v", err)
	}

	if err := s.DeleteTask(ctx, root.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}

	for _, id := range []string{root.ID, child.ID, grand.ID} {
		if _, ok := s.GetTask(id); ok {
			t.Errorf("task %s survives cascade delete", id)
		}
	}
	got, _ := s.GetTask(outside.ID)
	if len(got.DependsOn) != 0 {
		t.Errorf("outside.DependsOn = %v, want empty: edges into the subtree must be unlinked", got.DependsOn)
	}
}

func TestDeleteDetachesFromParent(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()

	parent := mustAddTask(t, s, &models.Task{Title: "parent"})
	child := mustAddTask(t, s, &models.Task{Title: "child", ParentID: parent.ID})

	if err := s.DeleteTask(ctx, child.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	got, _ := s.GetTask(parent.ID)
	if len(got.Subtasks) != 0 {
		t.Errorf("parent.Subtasks = %v, want empty", got.Subtasks)
	}
}

func TestDeleteTaskPartialCascade(t *testing.T) {
	t.Parallel()

	s, ctl, _ := newTestStore(t)
	ctx := context.Background()

	root := mustAddTask(t, s, &models.Task{Title: "root"})
	childA := mustAddTask(t, s, &models.Task{Title: "a", ParentID: root.ID})
	childB := mustAddTask(t, s, &models.Task{Title: "b", ParentID: root.ID})

	// Fail exactly one descendant delete; child ids sort the cascade
	// order, so block whichever comes second.
	blocked := childB.ID
	if childA.ID > childB.ID {
		blocked = childA.ID
	}
	ctl.SetHook(func(op gateway.Op, kind, id string) error {
		if op == gateway.OpDelete && id == blocked {
			return errors.New("backend down")
		}
		return nil
	})

	err := s.DeleteTask(ctx, root.ID)
	if err == nil {
		t.Fatal("DeleteTask() error = nil, want cascade failure")
	}

	// The first child is gone for good, the blocked one and the root
	// remain. No rollback.
	survivors := 0
	for _, id := range []string{root.ID, childA.ID, childB.ID} {
		if _, ok := s.GetTask(id); ok {
			survivors++
		}
	}
	if survivors != 2 {
		t.Errorf("survivors = %d, want 2 (root plus the blocked child)", survivors)
	}
	if s.HasRecentlyDeleted() {
		t.Error("failed cascade must not push an undo snapshot")
	}
}

func TestMoveUnderParent(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()

	oldParent := mustAddTask(t, s, &models.Task{Title: "old"})
	newParent := mustAddTask(t, s, &models.Task{Title: "new"})
	task := mustAddTask(t, s, &models.Task{Title: "task", ParentID: oldParent.ID})

	if err := s.MoveUnderParent(ctx, task.ID, newParent.ID); err != nil {
		t.Fatalf("MoveUnderParent() error = %v", err)
	}

	gt, _ := s.GetTask(task.ID)
	if gt.ParentID != newParent.ID {
		t.Errorf("ParentID = %q, want %q", gt.ParentID, newParent.ID)
	}
	gOld, _ := s.GetTask(oldParent.ID)
	if len(gOld.Subtasks) != 0 {
		t.Errorf("old parent Subtasks = %v, want empty", gOld.Subtasks)
	}
	gNew, _ := s.GetTask(newParent.ID)
	if len(gNew.Subtasks) != 1 || gNew.Subtasks[0] != task.ID {
		t.Errorf("new parent Subtasks = %v, want [%s]", gNew.Subtasks, task.ID)
	}
}

func TestMoveUnderParentRejectsOwnSubtree(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	ctx := context.Background()

	root := mustAddTask(t, s, &models.Task{Title: "root"})
	child := mustAddTask(t, s, &models.Task{Title: "child", ParentID: root.ID})

	if err := s.MoveUnderParent(ctx, root.ID, root.ID); err == nil {
		t.Error("moving a task under itself must fail")
	}
	if err := s.MoveUnderParent(ctx, root.ID, child.ID); err == nil {
		t.Error("moving a task under its own descendant must fail")
	}
}
