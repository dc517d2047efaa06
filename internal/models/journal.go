package models

import "time"

// Settings holds per-owner display preferences. A single record per owner,
// stored under a fixed key.
type Settings struct {
	ID             string    `json:"id"`
	Theme          string    `json:"theme,omitempty"`
	TimeFormat     string    `json:"time_format,omitempty"` // "12h" or "24h"
	FirstDayOfWeek string    `json:"first_day_of_week,omitempty"`
	ShowCompleted  bool      `json:"show_completed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Key returns the persistence key for the settings record.
func (s *Settings) Key() string { return s.ID }

// WorkShift is one working window on a weekday.
type WorkShift struct {
	Weekday   time.Weekday `json:"weekday"`
	StartTime string       `json:"start_time"` // "HH:MM"
	EndTime   string       `json:"end_time"`   // "HH:MM"
}

// WorkSchedule describes when the owner is available for planned blocks.
type WorkSchedule struct {
	ID        string      `json:"id"`
	Name      string      `json:"name,omitempty"`
	Shifts    []WorkShift `json:"shifts"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Key returns the persistence key for the schedule.
func (w *WorkSchedule) Key() string { return w.ID }

// JournalEntry is a dated free-text note with an optional mood tag.
type JournalEntry struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"` // DateOnly layout
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the persistence key for the entry.
func (j *JournalEntry) Key() string { return j.ID }
