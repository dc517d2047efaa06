package models

import (
	"slices"
	"time"

	"github.com/nicunursekatie/adhd-planner/internal/recurrence"
)

// RecurringTask is a template that stamps out Tasks on a schedule. It is
// created by the user, re-stamped on every generation (NextDue recomputed,
// LastGenerated set) and never deleted automatically.
type RecurringTask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	Pattern   recurrence.Pattern `json:"pattern"`
	StartDate *string            `json:"start_date,omitempty"` // schedule begins here when in the future
	NextDue   time.Time          `json:"next_due"`
	Active    bool               `json:"active"`

	LastGenerated *time.Time `json:"last_generated,omitempty"`

	// Classification and time-tracking fields a generated Task inherits.
	ProjectID        string      `json:"project_id,omitempty"`
	CategoryIDs      []string    `json:"category_ids,omitempty"`
	Priority         Priority    `json:"priority,omitempty"`
	EnergyRequired   EnergyLevel `json:"energy_required,omitempty"`
	EstimatedMinutes int         `json:"estimated_minutes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the persistence key for the recurring task.
func (r *RecurringTask) Key() string { return r.ID }

// Clone returns a deep copy sharing no slices or pointers with the
// original.
func (r *RecurringTask) Clone() *RecurringTask {
	c := *r
	c.CategoryIDs = slices.Clone(r.CategoryIDs)
	if r.StartDate != nil {
		d := *r.StartDate
		c.StartDate = &d
	}
	if r.LastGenerated != nil {
		at := *r.LastGenerated
		c.LastGenerated = &at
	}
	return &c
}

// StartDateTime parses StartDate in loc, or returns nil when unset or
// malformed.
func (r *RecurringTask) StartDateTime(loc *time.Location) *time.Time {
	if r.StartDate == nil || *r.StartDate == "" {
		return nil
	}
	t, err := time.ParseInLocation(DateOnly, *r.StartDate, loc)
	if err != nil {
		return nil
	}
	return &t
}

// SeedTask builds a fresh Task carrying the template's classification and
// time-tracking fields, due at the template's current NextDue. The caller
// assigns the id and timestamps.
func (r *RecurringTask) SeedTask() *Task {
	due := r.NextDue.Format(DateOnly)
	return &Task{
		Title:            r.Title,
		Description:      r.Description,
		DueDate:          &due,
		ProjectID:        r.ProjectID,
		CategoryIDs:      slices.Clone(r.CategoryIDs),
		Priority:         r.Priority,
		EnergyRequired:   r.EnergyRequired,
		EstimatedMinutes: r.EstimatedMinutes,
		RecurringTaskID:  r.ID,
	}
}
