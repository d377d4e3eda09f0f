package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a brandcast customer account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Company     string `json:"company"`
	Timezone    string `gorm:"default:'UTC'" json:"timezone"`

	PasswordHash *string `gorm:"type:text" json:"-"`

	// Notify by email when a scheduled post permanently fails
	NotifyOnFailure bool `gorm:"default:true" json:"notify_on_failure"`

	LastActiveAt *time.Time `json:"last_active_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func generateUUID() string {
	return uuid.New().String()
}
