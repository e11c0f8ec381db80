package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeTagTrendRefresh recomputes and caches the tag trend snapshot.
	JobTypeTagTrendRefresh JobType = "tag_trend_refresh"

	defaultMaxRetries = 3
)

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       JobType    `json:"type"`
	Reason     string     `json:"reason,omitempty"`     // what triggered the job, for logs
	NotBefore  *time.Time `json:"not_before,omitempty"` // nil = immediate
	NotAfter   *time.Time `json:"not_after,omitempty"`  // nil = never expires
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, reason string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Reason:     reason,
		CreatedAt:  time.Now(),
		MaxRetries: defaultMaxRetries,
	}
}

// NewTrendRefreshJob creates a refresh job that runs no earlier than delay from now
// and is dropped if still queued after ttl. Non-positive values disable either bound.
func NewTrendRefreshJob(reason string, delay, ttl time.Duration) *Job {
	j := NewJob(JobTypeTagTrendRefresh, reason)
	if delay > 0 {
		nb := j.CreatedAt.Add(delay)
		j.NotBefore = &nb
	}
	if ttl > 0 {
		na := j.CreatedAt.Add(delay + ttl)
		j.NotAfter = &na
	}
	return j
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
