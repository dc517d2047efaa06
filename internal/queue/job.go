package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType names a kind of background work.
type JobType string

const (
	// JobTypeGenerateRecurring generates one task from a single recurring
	// template.
	JobTypeGenerateRecurring JobType = "generate_recurring"
	// JobTypeOwnerSweep generates tasks for every due template an owner
	// has. Enqueued when a session first loads and on the periodic sweep.
	JobTypeOwnerSweep JobType = "owner_sweep"
)

// Job is one unit of background work. OwnerID scopes it; RecurringTaskID is
// set for single-template generation jobs only.
type Job struct {
	ID              uuid.UUID  `json:"id"`
	Type            JobType    `json:"type"`
	OwnerID         string     `json:"owner_id"`
	RecurringTaskID string     `json:"recurring_task_id,omitempty"`
	NotBefore       *time.Time `json:"not_before,omitempty"` // earliest processing time, nil = immediate
	NotAfter        *time.Time `json:"not_after,omitempty"`  // expiry, nil = never
	CreatedAt       time.Time  `json:"created_at"`
	RetryCount      int        `json:"retry_count"`
	MaxRetries      int        `json:"max_retries"`
}

// NewJob creates a job with defaults. recurringTaskID may be empty for
// owner-wide jobs.
func NewJob(jobType JobType, ownerID, recurringTaskID string) *Job {
	return &Job{
		ID:              uuid.New(),
		Type:            jobType,
		OwnerID:         ownerID,
		RecurringTaskID: recurringTaskID,
		CreatedAt:       time.Now(),
		MaxRetries:      3,
	}
}

// ShouldProcess reports whether the job is inside its processing window.
func (j *Job) ShouldProcess() bool {
	now := time.Now()
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired reports whether the job's NotAfter has passed.
func (j *Job) IsExpired() bool {
	return j.NotAfter != nil && time.Now().After(*j.NotAfter)
}

// CanRetry reports whether the job has retry budget left.
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry consumes one retry.
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
