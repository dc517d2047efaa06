package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/nicunursekatie/adhd-planner/internal/models"
)

// Op names a gateway operation, used by the memory gateway's failure hook.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// MemoryControl steers a memory gateway from tests: failure injection and
// call counting.
type MemoryControl struct {
	mu    sync.Mutex
	hook  func(op Op, kind, id string) error
	calls map[string]int
}

// SetHook installs a function consulted before every operation; returning a
// non-nil error makes the operation fail without touching stored data.
func (c *MemoryControl) SetHook(hook func(op Op, kind, id string) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hook = hook
}

// Calls returns how many times the given operation ran against the kind.
func (c *MemoryControl) Calls(op Op, kind string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[string(op)+"/"+kind]
}

func (c *MemoryControl) before(op Op, kind, id string) error {
	c.mu.Lock()
	hook := c.hook
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[string(op)+"/"+kind]++
	c.mu.Unlock()
	if hook != nil {
		return hook(op, kind, id)
	}
	return nil
}

// memStore keeps records as marshaled JSON so callers never share memory
// with the "backend", matching the isolation a real gateway gives.
type memStore[T any, PT interface {
	Record
	*T
}] struct {
	kind string
	ctl  *MemoryControl

	mu   sync.RWMutex
	data map[string]map[string][]byte // ownerID -> id -> doc
	seq  map[string]map[string]int    // insertion order for stable listing
	next int
}

// NewMemory builds an in-memory Gateway plus its control handle. Used by
// tests and by the core's own unit tests as the fake persistence backend.
func NewMemory() (*Gateway, *MemoryControl) {
	ctl := &MemoryControl{}
	return &Gateway{
		Tasks:          &memStore[models.Task, *models.Task]{kind: KindTask, ctl: ctl},
		Projects:       &memStore[models.Project, *models.Project]{kind: KindProject, ctl: ctl},
		Categories:     &memStore[models.Category, *models.Category]{kind: KindCategory, ctl: ctl},
		DailyPlans:     &memStore[models.DailyPlan, *models.DailyPlan]{kind: KindDailyPlan, ctl: ctl},
		RecurringTasks: &memStore[models.RecurringTask, *models.RecurringTask]{kind: KindRecurringTask, ctl: ctl},
		Settings:       &memStore[models.Settings, *models.Settings]{kind: KindSettings, ctl: ctl},
		WorkSchedules:  &memStore[models.WorkSchedule, *models.WorkSchedule]{kind: KindWorkSchedule, ctl: ctl},
		JournalEntries: &memStore[models.JournalEntry, *models.JournalEntry]{kind: KindJournalEntry, ctl: ctl},
	}, ctl
}

func (s *memStore[T, PT]) List(ctx context.Context, ownerID string) ([]*T, error) {
	if err := s.ctl.before(OpList, s.kind, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.data[ownerID]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.seq[ownerID][ids[i]] < s.seq[ownerID][ids[j]] })

	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		rec := new(T)
		if err := json.Unmarshal(docs[id], rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s record: %w", s.kind, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *memStore[T, PT]) Create(ctx context.Context, rec *T, ownerID string) (*T, error) {
	id := PT(rec).Key()
	if id == "" {
		return nil, fmt.Errorf("cannot create %s record without an id", s.kind)
	}
	if err := s.ctl.before(OpCreate, s.kind, id); err != nil {
		return nil, err
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s record: %w", s.kind, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]map[string][]byte)
		s.seq = make(map[string]map[string]int)
	}
	if s.data[ownerID] == nil {
		s.data[ownerID] = make(map[string][]byte)
		s.seq[ownerID] = make(map[string]int)
	}
	s.data[ownerID][id] = doc
	if _, seen := s.seq[ownerID][id]; !seen {
		s.next++
		s.seq[ownerID][id] = s.next
	}

	stored := new(T)
	if err := json.Unmarshal(doc, stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s record: %w", s.kind, err)
	}
	return stored, nil
}

func (s *memStore[T, PT]) Update(ctx context.Context, id string, rec *T, ownerID string) (*T, error) {
	if err := s.ctl.before(OpUpdate, s.kind, id); err != nil {
		return nil, err
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s record: %w", s.kind, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[ownerID] == nil {
		return nil, fmt.Errorf("%s %s: %w", s.kind, id, ErrNotFound)
	}
	if _, ok := s.data[ownerID][id]; !ok {
		return nil, fmt.Errorf("%s %s: %w", s.kind, id, ErrNotFound)
	}
	s.data[ownerID][id] = doc

	stored := new(T)
	if err := json.Unmarshal(doc, stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s record: %w", s.kind, err)
	}
	return stored, nil
}

func (s *memStore[T, PT]) Delete(ctx context.Context, id string, ownerID string) error {
	if err := s.ctl.before(OpDelete, s.kind, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[ownerID] == nil {
		return fmt.Errorf("%s %s: %w", s.kind, id, ErrNotFound)
	}
	if _, ok := s.data[ownerID][id]; !ok {
		return fmt.Errorf("%s %s: %w", s.kind, id, ErrNotFound)
	}
	delete(s.data[ownerID], id)
	delete(s.seq[ownerID], id)
	return nil
}
