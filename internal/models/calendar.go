package models

import (
	"time"

	"gorm.io/gorm"
)

// Calendar entry states
const (
	EntryStatusDraft              = "draft"
	EntryStatusScheduled          = "scheduled"
	EntryStatusPublishing         = "publishing"
	EntryStatusPublished          = "published"
	EntryStatusPartiallyPublished = "partially_published"
	EntryStatusFailed             = "failed"
	EntryStatusCanceled           = "canceled"
)

// Calendar entry sources
const (
	EntrySourceManual = "manual"
	EntrySourcePlan   = "plan"
)

// CalendarEntry is one piece of content on the content calendar. A single
// entry can target several platforms; each gets its own PublishJob.
type CalendarEntry struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string  `gorm:"not null;index" json:"user_id"`
	BrandProfileID *string `gorm:"type:uuid;index" json:"brand_profile_id,omitempty"`

	Platforms []string `gorm:"type:text;serializer:json;not null" json:"platforms"`
	Kind      string   `gorm:"not null;default:'text'" json:"kind"`
	Title     string   `json:"title"`
	Content   string   `gorm:"type:text" json:"content"`
	LinkURL   string   `json:"link_url,omitempty"`
	MediaURL  string   `json:"media_url,omitempty"`

	MediaAssetID *string     `gorm:"type:uuid" json:"media_asset_id,omitempty"`
	MediaAsset   *MediaAsset `gorm:"foreignKey:MediaAssetID" json:"media_asset,omitempty"`

	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at,omitempty"`
	Status      string     `gorm:"not null;default:'draft';index" json:"status"`
	Source      string     `gorm:"not null;default:'manual'" json:"source"`
	PublishedAt *time.Time `json:"published_at,omitempty"`

	Jobs []PublishJob `gorm:"foreignKey:EntryID" json:"jobs,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *CalendarEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = generateUUID()
	}
	if e.Status == "" {
		e.Status = EntryStatusDraft
	}
	if e.Source == "" {
		e.Source = EntrySourceManual
	}
	return nil
}

// Editable reports whether the entry content may still change.
func (e *CalendarEntry) Editable() bool {
	switch e.Status {
	case EntryStatusPublishing, EntryStatusPublished, EntryStatusPartiallyPublished:
		return false
	}
	return true
}
