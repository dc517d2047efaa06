package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/nicunursekatie/adhd-planner/internal/models"
	"github.com/nicunursekatie/adhd-planner/internal/recurrence"
)

// GenerateTaskFromRecurring stamps one task out of the template and
// advances the template's schedule. An unknown template id is a quiet
// no-op returning (nil, nil): generation is fired by sweeps and queue
// messages that may race template deletion. Task creation and the
// template re-stamp are two independent writes; when the second fails the
// task still exists and the error says so.
func (s *Store) GenerateTaskFromRecurring(ctx context.Context, id string) (*models.Task, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.recurring[id]
	if !ok {
		return nil, nil
	}

	task, err := s.addTaskLocked(ctx, rt.SeedTask())
	if err != nil {
		return nil, fmt.Errorf("failed to generate task from recurring %s: %w", id, err)
	}

	now := s.now()
	upd := rt.Clone()
	upd.NextDue = recurrence.NextDue(upd.Pattern, upd.NextDue, now, upd.StartDateTime(now.Location()))
	upd.LastGenerated = &now
	upd.UpdatedAt = now
	persisted, err := s.gw.RecurringTasks.Update(ctx, upd.ID, upd, s.owner)
	if err != nil {
		return task, fmt.Errorf("task generated but failed to advance recurring schedule: %w", err)
	}
	s.recurring[persisted.ID] = persisted

	s.log.Info("recurring_task_generated",
		zap.String("owner_id", s.owner),
		zap.String("recurring_task_id", id),
		zap.String("task_id", task.ID),
		zap.Time("next_due", persisted.NextDue))
	return task, nil
}

// GenerateDueRecurring generates a task for every active template whose
// NextDue is at or before now. Failures do not stop the sweep; the joined
// error reports every template that failed.
func (s *Store) GenerateDueRecurring(ctx context.Context, now time.Time) ([]*models.Task, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var due []string
	for id, rt := range s.recurring {
		if rt.Active && !rt.NextDue.After(now) {
			due = append(due, id)
		}
	}
	s.mu.RUnlock()
	sort.Strings(due)

	var (
		generated []*models.Task
		errs      []error
	)
	for _, id := range due {
		t, err := s.GenerateTaskFromRecurring(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("recurring task %s: %w", id, err))
			continue
		}
		if t != nil {
			generated = append(generated, t)
		}
	}
	return generated, errors.Join(errs...)
}
