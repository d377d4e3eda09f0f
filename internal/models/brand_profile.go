package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// BrandProfile captures how a brand talks; the content planner feeds it to
// the completion service as context.
type BrandProfile struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`

	Name        string   `gorm:"not null" json:"name"`
	Industry    string   `json:"industry"`
	Description string   `gorm:"type:text" json:"description"`
	Audience    string   `gorm:"type:text" json:"audience"`
	Tone        string   `json:"tone"`
	Keywords    []string `gorm:"type:text;serializer:json" json:"keywords"`
	Hashtags    []string `gorm:"type:text;serializer:json" json:"hashtags"`
	Colors      []string `gorm:"type:text;serializer:json" json:"colors"`
	Website     string   `json:"website"`
	LogoURL     string   `json:"logo_url"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *BrandProfile) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = generateUUID()
	}
	return nil
}

// Summary renders the profile as short prose for prompts.
func (b *BrandProfile) Summary() string {
	var sb strings.Builder
	sb.WriteString("Brand: " + b.Name + "\n")
	if b.Industry != "" {
		sb.WriteString("Industry: " + b.Industry + "\n")
	}
	if b.Description != "" {
		sb.WriteString("About: " + b.Description + "\n")
	}
	if b.Audience != "" {
		sb.WriteString("Audience: " + b.Audience + "\n")
	}
	if b.Tone != "" {
		sb.WriteString("Tone of voice: " + b.Tone + "\n")
	}
	if len(b.Keywords) > 0 {
		sb.WriteString("Keywords: " + strings.Join(b.Keywords, ", ") + "\n")
	}
	if len(b.Hashtags) > 0 {
		sb.WriteString("Preferred hashtags: " + strings.Join(b.Hashtags, " ") + "\n")
	}
	if b.Website != "" {
		sb.WriteString("Website: " + b.Website + "\n")
	}
	return sb.String()
}
