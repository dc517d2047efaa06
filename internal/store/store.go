// Package store implements the per-owner planner session: an in-memory
// working set of every entity collection, loaded once from the persistence
// gateway and kept consistent with it write-through on every mutation.
// Structural invariants of the task graph (parent/subtask mirroring,
// dependency symmetry, acyclicity) are enforced here, not in the gateway.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nicunursekatie/adhd-planner/internal/gateway"
	"github.com/nicunursekatie/adhd-planner/internal/models"
)

// SettingsKey is the fixed record id of the single per-owner settings
// document.
const SettingsKey = "settings"

// Store is one owner's session. All reads are served from memory; every
// mutation persists through the gateway first and updates the cache only on
// success, so a failed write leaves the local state untouched.
type Store struct {
	gw    *gateway.Gateway
	log   *zap.Logger
	owner string
	now   func() time.Time

	mu         sync.RWMutex
	tasks      map[string]*models.Task
	projects   map[string]*models.Project
	categories map[string]*models.Category
	plans      map[string]*models.DailyPlan
	recurring  map[string]*models.RecurringTask
	settings   map[string]*models.Settings
	schedules  map[string]*models.WorkSchedule
	journal    map[string]*models.JournalEntry

	undoWindow time.Duration
	undo       *undoBuffer
}

// Option customizes a Store at construction time.
type Option func(*Store)

// WithClock overrides the store's time source. Tests pin it.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithUndoWindow overrides how long deleted tasks stay restorable.
func WithUndoWindow(window time.Duration) Option {
	return func(s *Store) { s.undoWindow = window }
}

// New builds an empty session for ownerID. Call Load before serving reads.
func New(gw *gateway.Gateway, ownerID string, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		gw:         gw,
		log:        log,
		owner:      ownerID,
		now:        time.Now,
		tasks:      make(map[string]*models.Task),
		projects:   make(map[string]*models.Project),
		categories: make(map[string]*models.Category),
		plans:      make(map[string]*models.DailyPlan),
		recurring:  make(map[string]*models.RecurringTask),
		settings:   make(map[string]*models.Settings),
		schedules:  make(map[string]*models.WorkSchedule),
		journal:    make(map[string]*models.JournalEntry),
	}
	s.undoWindow = DefaultUndoWindow
	for _, opt := range opts {
		opt(s)
	}
	s.undo = newUndoBuffer(s.undoWindow, s.now)
	return s
}

// Owner returns the owner id the session is bound to.
func (s *Store) Owner() string { return s.owner }

func (s *Store) authed() error {
	if s.owner == "" {
		return ErrUnauthenticated
	}
	return nil
}

// Load fetches every collection concurrently. Collections settle
// independently: a failed fetch degrades to an empty collection with a
// warning rather than failing the whole session, so one bad table never
// locks the owner out of the rest of their data.
func (s *Store) Load(ctx context.Context) error {
	if err := s.authed(); err != nil {
		return err
	}

	var (
		wg        sync.WaitGroup
		tasks     []*models.Task
		projects  []*models.Project
		cats      []*models.Category
		plans     []*models.DailyPlan
		recurring []*models.RecurringTask
		settings  []*models.Settings
		schedules []*models.WorkSchedule
		journal   []*models.JournalEntry
	)

	fetch := func(name string, do func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := do(); err != nil {
				s.log.Warn("collection_load_failed",
					zap.String("collection", name),
					zap.String("owner_id", s.owner),
					zap.Error(err))
			}
		}()
	}

	fetch("tasks", func() (err error) { tasks, err = s.gw.Tasks.List(ctx, s.owner); return })
	fetch("projects", func() (err error) { projects, err = s.gw.Projects.List(ctx, s.owner); return })
	fetch("categories", func() (err error) { cats, err = s.gw.Categories.List(ctx, s.owner); return })
	fetch("daily_plans", func() (err error) { plans, err = s.gw.DailyPlans.List(ctx, s.owner); return })
	fetch("recurring_tasks", func() (err error) { recurring, err = s.gw.RecurringTasks.List(ctx, s.owner); return })
	fetch("settings", func() (err error) { settings, err = s.gw.Settings.List(ctx, s.owner); return })
	fetch("work_schedules", func() (err error) { schedules, err = s.gw.WorkSchedules.List(ctx, s.owner); return })
	fetch("journal_entries", func() (err error) { journal, err = s.gw.JournalEntries.List(ctx, s.owner); return })
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = indexByKey(tasks, func(t *models.Task) string { return t.ID })
	s.projects = indexByKey(projects, func(p *models.Project) string { return p.ID })
	s.categories = indexByKey(cats, func(c *models.Category) string { return c.ID })
	s.plans = indexByKey(plans, func(p *models.DailyPlan) string { return p.ID })
	s.recurring = indexByKey(recurring, func(r *models.RecurringTask) string { return r.ID })
	s.settings = indexByKey(settings, func(r *models.Settings) string { return r.ID })
	s.schedules = indexByKey(schedules, func(w *models.WorkSchedule) string { return w.ID })
	s.journal = indexByKey(journal, func(j *models.JournalEntry) string { return j.ID })

	s.log.Info("session_loaded",
		zap.String("owner_id", s.owner),
		zap.Int("tasks", len(s.tasks)),
		zap.Int("projects", len(s.projects)),
		zap.Int("recurring_tasks", len(s.recurring)))
	return nil
}

func indexByKey[T any](recs []*T, key func(*T) string) map[string]*T {
	m := make(map[string]*T, len(recs))
	for _, r := range recs {
		m[key(r)] = r
	}
	return m
}

func (s *Store) stampNew(id *string, created, updated *time.Time) {
	now := s.now()
	if *id == "" {
		*id = uuid.NewString()
	}
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	if len(out) == len(list) {
		return list
	}
	return out
}
