package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nicunursekatie/adhd-planner/internal/models"
)

// docQueries holds the dialect-specific SQL for one document table. Both
// SQL backends store every entity as a JSON document in a single records
// table keyed by (owner_id, kind, id).
type docQueries struct {
	list   string
	upsert string
	update string
	delete string
}

// ownersQuery is dialect-neutral: no placeholders, same table name.
const ownersQuery = `SELECT DISTINCT owner_id FROM records ORDER BY owner_id`

// newSQLGateway wires one docStore per entity kind over a shared table.
func newSQLGateway(db *sql.DB, q docQueries) *Gateway {
	return &Gateway{
		Ping:           db.PingContext,
		Owners:         func(ctx context.Context) ([]string, error) { return listOwners(ctx, db) },
		Tasks:          &docStore[models.Task, *models.Task]{db: db, kind: KindTask, q: q},
		Projects:       &docStore[models.Project, *models.Project]{db: db, kind: KindProject, q: q},
		Categories:     &docStore[models.Category, *models.Category]{db: db, kind: KindCategory, q: q},
		DailyPlans:     &docStore[models.DailyPlan, *models.DailyPlan]{db: db, kind: KindDailyPlan, q: q},
		RecurringTasks: &docStore[models.RecurringTask, *models.RecurringTask]{db: db, kind: KindRecurringTask, q: q},
		Settings:       &docStore[models.Settings, *models.Settings]{db: db, kind: KindSettings, q: q},
		WorkSchedules:  &docStore[models.WorkSchedule, *models.WorkSchedule]{db: db, kind: KindWorkSchedule, q: q},
		JournalEntries: &docStore[models.JournalEntry, *models.JournalEntry]{db: db, kind: KindJournalEntry, q: q},
	}
}

// listOwners enumerates every distinct owner with at least one record.
func listOwners(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, ownersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan owner id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owners: %w", err)
	}
	return out, nil
}

// docStore implements CRUD[T] on top of a SQL document table.
type docStore[T any, PT interface {
	Record
	*T
}] struct {
	db   *sql.DB
	kind string
	q    docQueries
}

func (s *docStore[T, PT]) List(ctx context.Context, ownerID string) ([]*T, error) {
	rows, err := s.db.QueryContext(ctx, s.q.list, ownerID, s.kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", s.kind, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", s.kind, err)
		}
		rec := new(T)
		if err := json.Unmarshal(doc, rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s record: %w", s.kind, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s records: %w", s.kind, err)
	}
	return out, nil
}

func (s *docStore[T, PT]) Create(ctx context.Context, rec *T, ownerID string) (*T, error) {
	id := PT(rec).Key()
	if id == "" {
		return nil, fmt.Errorf("cannot create %s record without an id", s.kind)
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s record: %w", s.kind, err)
	}
	// Upsert rather than plain insert: the undo path re-creates a record
	// under its original id and at-least-once delivery may replay creates.
	if _, err := s.db.ExecContext(ctx, s.q.upsert, ownerID, s.kind, id, doc); err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", s.kind, err)
	}
	return rec, nil
}

func (s *docStore[T, PT]) Update(ctx context.Context, id string, rec *T, ownerID string) (*T, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s record: %w", s.kind, err)
	}
	res, err := s.db.ExecContext(ctx, s.q.update, ownerID, s.kind, id, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s record: %w", s.kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s %s: %w", s.kind, id, ErrNotFound)
	}
	return rec, nil
}

func (s *docStore[T, PT]) Delete(ctx context.Context, id string, ownerID string) error {
	res, err := s.db.ExecContext(ctx, s.q.delete, ownerID, s.kind, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s record: %w", s.kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", s.kind, id, ErrNotFound)
	}
	return nil
}
