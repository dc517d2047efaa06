package models

import (
	"slices"
	"time"
)

// Priority expresses how important a task is. Display/filter metadata only;
// nothing in the scheduling core branches on it.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Urgency expresses how time-pressed a task is.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// EmotionalWeight tags how a task feels to approach. ADHD users plan around
// this as much as around due dates.
type EmotionalWeight string

const (
	WeightEasy      EmotionalWeight = "easy"
	WeightNeutral   EmotionalWeight = "neutral"
	WeightStressful EmotionalWeight = "stressful"
	WeightDreading  EmotionalWeight = "dreading"
)

// EnergyLevel tags how much energy a task demands.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

// DateOnly is the calendar-date layout used for due and start dates.
const DateOnly = "2006-01-02"

// Task is the central entity. Structural fields carry two adjacency
// relations: the parent/subtask tree (ParentID authoritative, Subtasks a
// maintained mirror) and the dependency graph (DependsOn authoritative,
// DependedOnBy the maintained inverse). The store keeps both sides of each
// relation consistent under every mutation.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	Completed bool `json:"completed"`
	Archived  bool `json:"archived"`

	DueDate   *string `json:"due_date,omitempty"`   // calendar date, DateOnly layout
	StartDate *string `json:"start_date,omitempty"` // gates completion until reached

	ParentID     string   `json:"parent_task_id,omitempty"`
	Subtasks     []string `json:"subtasks,omitempty"`
	DependsOn    []string `json:"depends_on,omitempty"`
	DependedOnBy []string `json:"depended_on_by,omitempty"`

	ProjectID       string          `json:"project_id,omitempty"`
	CategoryIDs     []string        `json:"category_ids,omitempty"`
	Priority        Priority        `json:"priority,omitempty"`
	Urgency         Urgency         `json:"urgency,omitempty"`
	EmotionalWeight EmotionalWeight `json:"emotional_weight,omitempty"`
	EnergyRequired  EnergyLevel     `json:"energy_required,omitempty"`

	EstimatedMinutes   int `json:"estimated_minutes,omitempty"`
	ActualMinutesSpent int `json:"actual_minutes_spent,omitempty"`

	RecurringTaskID string `json:"recurring_task_id,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Key returns the persistence key for the task.
func (t *Task) Key() string { return t.ID }

// Clone returns a deep copy. Undo snapshots and gateway fakes rely on the
// copy sharing no slices with the original.
func (t *Task) Clone() *Task {
	c := *t
	c.Subtasks = slices.Clone(t.Subtasks)
	c.DependsOn = slices.Clone(t.DependsOn)
	c.DependedOnBy = slices.Clone(t.DependedOnBy)
	c.CategoryIDs = slices.Clone(t.CategoryIDs)
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.StartDate != nil {
		d := *t.StartDate
		c.StartDate = &d
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// DependsOnTask reports whether id is a direct dependency of the task.
func (t *Task) DependsOnTask(id string) bool {
	return slices.Contains(t.DependsOn, id)
}

// StartDateReached reports whether the task's start date, if any, is now or
// in the past. Tasks without a start date are always startable.
func (t *Task) StartDateReached(now time.Time) bool {
	if t.StartDate == nil || *t.StartDate == "" {
		return true
	}
	start, err := time.ParseInLocation(DateOnly, *t.StartDate, now.Location())
	if err != nil {
		return true
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return !start.After(today)
}
