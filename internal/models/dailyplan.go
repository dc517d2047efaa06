package models

import "time"

// TimeBlock is one slot inside a daily plan. A block carries either a
// single task (TaskID) or a batch (TaskIDs); both may be empty for
// free-form blocks like "lunch".
type TimeBlock struct {
	ID        string   `json:"id"`
	StartTime string   `json:"start_time"` // "HH:MM"
	EndTime   string   `json:"end_time"`   // "HH:MM"
	Title     string   `json:"title,omitempty"`
	TaskID    string   `json:"task_id,omitempty"`
	TaskIDs   []string `json:"task_ids,omitempty"`
}

// DailyPlan is an ordered set of time blocks for one calendar date. Plans
// are keyed by date: the store uses the date string as the record id.
type DailyPlan struct {
	ID         string      `json:"id"`
	Date       string      `json:"date"` // DateOnly layout
	TimeBlocks []TimeBlock `json:"time_blocks"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Key returns the persistence key for the plan.
func (p *DailyPlan) Key() string { return p.ID }
