package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// MediaAsset is an image or video the user uploaded, stored in S3
type MediaAsset struct {
	ID               string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID           string `gorm:"not null;index" json:"user_id"`
	StorageKey       string `gorm:"not null" json:"-"`
	URL              string `gorm:"not null" json:"url"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `gorm:"not null" json:"content_type"`
	Size             int64  `json:"size"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *MediaAsset) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}

// Kind returns "image" or "video" from the content type.
func (m *MediaAsset) Kind() string {
	if strings.HasPrefix(m.ContentType, "video/") {
		return "video"
	}
	return "image"
}
