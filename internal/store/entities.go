package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/nicunursekatie/adhd-planner/internal/models"
	"github.com/nicunursekatie/adhd-planner/internal/recurrence"
)

// AddProject persists a new project and caches it.
func (s *Store) AddProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stampNew(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	stored, err := s.gw.Projects.Create(ctx, p, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist project: %w", err)
	}
	s.projects[stored.ID] = stored
	return stored, nil
}

// UpdateProject persists changes to an existing project.
func (s *Store) UpdateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return nil, fmt.Errorf("project %s: %w", p.ID, ErrNotFound)
	}
	p.UpdatedAt = s.now()
	stored, err := s.gw.Projects.Update(ctx, p.ID, p, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist project: %w", err)
	}
	s.projects[stored.ID] = stored
	return stored, nil
}

// DeleteProject removes a project. Tasks keep their project reference; list
// views treat an unknown project id as "no project".
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err := s.gw.Projects.Delete(ctx, id, s.owner); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	delete(s.projects, id)
	return nil
}

// GetProject returns a copy of the project, if present.
func (s *Store) GetProject(id string) (*models.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, false
	}
	c := *p
	return &c, true
}

// ListProjects returns all projects ordered by creation time.
func (s *Store) ListProjects() []*models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AddCategory persists a new category and caches it.
func (s *Store) AddCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stampNew(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	stored, err := s.gw.Categories.Create(ctx, c, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist category: %w", err)
	}
	s.categories[stored.ID] = stored
	return stored, nil
}

// UpdateCategory persists changes to an existing category.
func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return nil, fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
	}
	c.UpdatedAt = s.now()
	stored, err := s.gw.Categories.Update(ctx, c.ID, c, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist category: %w", err)
	}
	s.categories[stored.ID] = stored
	return stored, nil
}

// DeleteCategory removes a category. Task category lists keep the id; views
// skip ids that no longer resolve.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	if err := s.gw.Categories.Delete(ctx, id, s.owner); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	delete(s.categories, id)
	return nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories() []*models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SaveDailyPlan creates or replaces the plan for its date. Plans are keyed
// by date, so saving twice for the same day overwrites.
func (s *Store) SaveDailyPlan(ctx context.Context, p *models.DailyPlan) (*models.DailyPlan, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	if p.Date == "" {
		return nil, fmt.Errorf("daily plan requires a date")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = p.Date
	now := s.now()
	if existing, ok := s.plans[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	stored, err := s.gw.DailyPlans.Create(ctx, p, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist daily plan: %w", err)
	}
	s.plans[stored.ID] = stored
	return stored, nil
}

// DeleteDailyPlan removes the plan for a date.
func (s *Store) DeleteDailyPlan(ctx context.Context, date string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[date]; !ok {
		return fmt.Errorf("daily plan %s: %w", date, ErrNotFound)
	}
	if err := s.gw.DailyPlans.Delete(ctx, date, s.owner); err != nil {
		return fmt.Errorf("failed to delete daily plan: %w", err)
	}
	delete(s.plans, date)
	return nil
}

// GetDailyPlan returns a copy of the plan for a date, if one exists.
func (s *Store) GetDailyPlan(date string) (*models.DailyPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[date]
	if !ok {
		return nil, false
	}
	c := *p
	c.TimeBlocks = append([]models.TimeBlock(nil), p.TimeBlocks...)
	return &c, true
}

// ListDailyPlans returns all plans ordered by date.
func (s *Store) ListDailyPlans() []*models.DailyPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.DailyPlan, 0, len(s.plans))
	for _, p := range s.plans {
		c := *p
		c.TimeBlocks = append([]models.TimeBlock(nil), p.TimeBlocks...)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// AddRecurringTask persists a new template. When NextDue is unset it is
// derived from the pattern, anchored at the current time.
func (s *Store) AddRecurringTask(ctx context.Context, r *models.RecurringTask) (*models.RecurringTask, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	if err := r.Pattern.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stampNew(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	now := s.now()
	if r.NextDue.IsZero() {
		r.NextDue = recurrence.NextDue(r.Pattern, now, now, r.StartDateTime(now.Location()))
	}
	stored, err := s.gw.RecurringTasks.Create(ctx, r, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist recurring task: %w", err)
	}
	s.recurring[stored.ID] = stored
	return stored, nil
}

// UpdateRecurringTask persists changes to an existing template.
func (s *Store) UpdateRecurringTask(ctx context.Context, r *models.RecurringTask) (*models.RecurringTask, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	if err := r.Pattern.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recurring[r.ID]; !ok {
		return nil, fmt.Errorf("recurring task %s: %w", r.ID, ErrNotFound)
	}
	r.UpdatedAt = s.now()
	stored, err := s.gw.RecurringTasks.Update(ctx, r.ID, r, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist recurring task: %w", err)
	}
	s.recurring[stored.ID] = stored
	return stored, nil
}

// DeleteRecurringTask removes a template. Tasks already generated from it
// are untouched.
func (s *Store) DeleteRecurringTask(ctx context.Context, id string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recurring[id]; !ok {
		return fmt.Errorf("recurring task %s: %w", id, ErrNotFound)
	}
	if err := s.gw.RecurringTasks.Delete(ctx, id, s.owner); err != nil {
		return fmt.Errorf("failed to delete recurring task: %w", err)
	}
	delete(s.recurring, id)
	return nil
}

// GetRecurringTask returns a copy of the template, if present.
func (s *Store) GetRecurringTask(id string) (*models.RecurringTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recurring[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// ListRecurringTasks returns all templates ordered by creation time.
func (s *Store) ListRecurringTasks() []*models.RecurringTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.RecurringTask, 0, len(s.recurring))
	for _, r := range s.recurring {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GetSettings returns the owner's settings, or defaults when none are
// stored yet.
func (s *Store) GetSettings() *models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.settings[SettingsKey]; ok {
		c := *rec
		return &c
	}
	return &models.Settings{
		ID:            SettingsKey,
		Theme:         "system",
		TimeFormat:    "12h",
		ShowCompleted: false,
	}
}

// SaveSettings creates or replaces the owner's settings record.
func (s *Store) SaveSettings(ctx context.Context, rec *models.Settings) (*models.Settings, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = SettingsKey
	now := s.now()
	if existing, ok := s.settings[SettingsKey]; ok {
		rec.CreatedAt = existing.CreatedAt
	} else if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	stored, err := s.gw.Settings.Create(ctx, rec, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist settings: %w", err)
	}
	s.settings[stored.ID] = stored
	return stored, nil
}

// SaveWorkSchedule creates or updates a schedule depending on whether its
// id is already known.
func (s *Store) SaveWorkSchedule(ctx context.Context, w *models.WorkSchedule) (*models.WorkSchedule, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stampNew(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	stored, err := s.gw.WorkSchedules.Create(ctx, w, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist work schedule: %w", err)
	}
	s.schedules[stored.ID] = stored
	return stored, nil
}

// DeleteWorkSchedule removes a schedule.
func (s *Store) DeleteWorkSchedule(ctx context.Context, id string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return fmt.Errorf("work schedule %s: %w", id, ErrNotFound)
	}
	if err := s.gw.WorkSchedules.Delete(ctx, id, s.owner); err != nil {
		return fmt.Errorf("failed to delete work schedule: %w", err)
	}
	delete(s.schedules, id)
	return nil
}

// ListWorkSchedules returns all schedules ordered by creation time.
func (s *Store) ListWorkSchedules() []*models.WorkSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.WorkSchedule, 0, len(s.schedules))
	for _, w := range s.schedules {
		c := *w
		c.Shifts = append([]models.WorkShift(nil), w.Shifts...)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// AddJournalEntry persists a new journal entry.
func (s *Store) AddJournalEntry(ctx context.Context, j *models.JournalEntry) (*models.JournalEntry, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stampNew(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	if j.Date == "" {
		j.Date = s.now().Format(models.DateOnly)
	}
	stored, err := s.gw.JournalEntries.Create(ctx, j, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist journal entry: %w", err)
	}
	s.journal[stored.ID] = stored
	return stored, nil
}

// UpdateJournalEntry persists changes to an existing entry.
func (s *Store) UpdateJournalEntry(ctx context.Context, j *models.JournalEntry) (*models.JournalEntry, error) {
	if err := s.authed(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.journal[j.ID]; !ok {
		return nil, fmt.Errorf("journal entry %s: %w", j.ID, ErrNotFound)
	}
	j.UpdatedAt = s.now()
	stored, err := s.gw.JournalEntries.Update(ctx, j.ID, j, s.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to persist journal entry: %w", err)
	}
	s.journal[stored.ID] = stored
	return stored, nil
}

// DeleteJournalEntry removes an entry.
func (s *Store) DeleteJournalEntry(ctx context.Context, id string) error {
	if err := s.authed(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.journal[id]; !ok {
		return fmt.Errorf("journal entry %s: %w", id, ErrNotFound)
	}
	if err := s.gw.JournalEntries.Delete(ctx, id, s.owner); err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	delete(s.journal, id)
	return nil
}

// ListJournalEntries returns all entries ordered by date, newest first.
func (s *Store) ListJournalEntries() []*models.JournalEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.JournalEntry, 0, len(s.journal))
	for _, j := range s.journal {
		c := *j
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
