// Package gateway defines the persistence contract the planner core talks
// to. Every call is scoped by an opaque owner id; the core never issues an
// unscoped query. Implementations provide at-least-once semantics and no
// transactions across entity types.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/nicunursekatie/adhd-planner/internal/models"
)

// ErrNotFound is returned by Update and Delete when no record with the
// given id exists for the owner.
var ErrNotFound = errors.New("record not found")

// Record is implemented by every persisted entity type.
type Record interface {
	Key() string
}

// CRUD is the per-entity persistence contract. Create returns the
// authoritative stored form of the record; callers must use the returned
// value rather than the one they passed in.
type CRUD[T any] interface {
	List(ctx context.Context, ownerID string) ([]*T, error)
	Create(ctx context.Context, rec *T, ownerID string) (*T, error)
	Update(ctx context.Context, id string, rec *T, ownerID string) (*T, error)
	Delete(ctx context.Context, id string, ownerID string) error
}

// Gateway bundles one CRUD store per entity type. Ping is nil for
// backends with nothing meaningful to probe, and Owners is nil for
// backends that cannot enumerate owners (the in-memory fake).
type Gateway struct {
	Ping   func(ctx context.Context) error
	Owners func(ctx context.Context) ([]string, error)

	Tasks          CRUD[models.Task]
	Projects       CRUD[models.Project]
	Categories     CRUD[models.Category]
	DailyPlans     CRUD[models.DailyPlan]
	RecurringTasks CRUD[models.RecurringTask]
	Settings       CRUD[models.Settings]
	WorkSchedules  CRUD[models.WorkSchedule]
	JournalEntries CRUD[models.JournalEntry]
}

// Kind names used as the document discriminator by the SQL-backed stores.
const (
	KindTask          = "task"
	KindProject       = "project"
	KindCategory      = "category"
	KindDailyPlan     = "daily_plan"
	KindRecurringTask = "recurring_task"
	KindSettings      = "settings"
	KindWorkSchedule  = "work_schedule"
	KindJournalEntry  = "journal_entry"
)

// Open constructs a Gateway for the given driver. Supported drivers are
// "postgres" (dsn is a lib/pq connection string) and "sqlite" (dsn is a
// file path). The returned closer shuts the underlying pool.
func Open(driver, dsn string) (*Gateway, func() error, error) {
	switch driver {
	case "postgres":
		db, err := OpenPostgres(dsn)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresGateway(db), db.Close, nil
	case "sqlite":
		db, err := OpenSQLite(dsn)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLiteGateway(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown gateway driver %q", driver)
	}
}
