package store

import (
	"context"
	"errors"
	"fmt"
)

// BulkOp names a multi-select operation.
type BulkOp string

const (
	BulkComplete         BulkOp = "complete"
	BulkDelete           BulkOp = "delete"
	BulkArchive          BulkOp = "archive"
	BulkMoveToProject    BulkOp = "move_to_project"
	BulkCategorize       BulkOp = "categorize"
	BulkConvertToSubtask BulkOp = "convert_to_subtask"
)

// BulkRequest describes one operation applied to a selection of tasks.
type BulkRequest struct {
	Op      BulkOp   `json:"op" validate:"required"`
	TaskIDs []string `json:"task_ids" validate:"required,min=1,dive,required"`

	// Operation parameters; which one applies depends on Op.
	ProjectID   string   `json:"project_id,omitempty"`
	CategoryIDs []string `json:"category_ids,omitempty"`
	ParentID    string   `json:"parent_task_id,omitempty"`
}

// ApplyBulk runs the operation over the selection strictly in order, one
// task at a time. Per-task failures are collected and do not stop the run;
// every task either went through its full single-task path or failed
// cleanly. The joined error reports every failure.
func (s *Store) ApplyBulk(ctx context.Context, req BulkRequest) error {
	if err := s.authed(); err != nil {
		return err
	}

	var errs []error
	for _, id := range req.TaskIDs {
		var err error
		switch req.Op {
		case BulkComplete:
			_, err = s.CompleteTask(ctx, id)
		case BulkDelete:
			err = s.DeleteTask(ctx, id)
			// A selection containing both a parent and its descendant
			// cascades the descendant away first; the later delete
			// finding nothing is not a failure.
			if errors.Is(err, ErrNotFound) {
				err = nil
			}
		case BulkArchive:
			err = s.ArchiveTask(ctx, id, true)
		case BulkMoveToProject:
			err = s.MoveTaskToProject(ctx, id, req.ProjectID)
		case BulkCategorize:
			err = s.AssignCategories(ctx, id, req.CategoryIDs)
		case BulkConvertToSubtask:
			err = s.MoveUnderParent(ctx, id, req.ParentID)
		default:
			return fmt.Errorf("unknown bulk operation %q", req.Op)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
