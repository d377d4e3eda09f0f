package models

import (
	"time"

	"gorm.io/gorm"
)

// Publish job states
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusRetrying  = "retrying"
	JobStatusPublished = "published"
	JobStatusFailed    = "failed"
	JobStatusCanceled  = "canceled"
)

// PublishJob is the durable record of publishing one calendar entry to one
// platform. (entry_id, platform) is unique, which is what makes enqueueing
// idempotent.
type PublishJob struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	EntryID   string  `gorm:"not null;uniqueIndex:idx_publish_jobs_entry_platform" json:"entry_id"`
	UserID    string  `gorm:"not null;index" json:"user_id"`
	Platform  string  `gorm:"not null;uniqueIndex:idx_publish_jobs_entry_platform" json:"platform"`
	AccountID *string `gorm:"type:uuid" json:"account_id,omitempty"`

	Status        string     `gorm:"not null;default:'pending';index" json:"status"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts   int        `gorm:"not null;default:5" json:"max_attempts"`
	NextAttemptAt *time.Time `gorm:"index" json:"next_attempt_at,omitempty"`
	LockedAt      *time.Time `json:"-"`
	LastError     string     `gorm:"type:text" json:"last_error,omitempty"`

	RemotePostID string     `json:"remote_post_id,omitempty"`
	RemoteURL    string     `json:"remote_url,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (j *PublishJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = generateUUID()
	}
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	return nil
}

// Terminal reports whether the job will not run again without intervention.
func (j *PublishJob) Terminal() bool {
	switch j.Status {
	case JobStatusPublished, JobStatusFailed, JobStatusCanceled:
		return true
	}
	return false
}

// AggregateEntryStatus derives a calendar entry status from its jobs.
// Entries whose jobs were all canceled are canceled, not failed.
func AggregateEntryStatus(jobs []PublishJob) string {
	if len(jobs) == 0 {
		return EntryStatusPublishing
	}
	published, failed, canceled := 0, 0, 0
	for _, j := range jobs {
		switch j.Status {
		case JobStatusPublished:
			published++
		case JobStatusFailed:
			failed++
		case JobStatusCanceled:
			canceled++
		default:
			return EntryStatusPublishing
		}
	}
	switch {
	case published == len(jobs):
		return EntryStatusPublished
	case published > 0:
		return EntryStatusPartiallyPublished
	case canceled == len(jobs):
		return EntryStatusCanceled
	default:
		return EntryStatusFailed
	}
}
