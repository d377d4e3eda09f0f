package models

import (
	"time"

	"gorm.io/gorm"
)

// Social account connection states
const (
	AccountStatusActive         = "active"
	AccountStatusReauthRequired = "reauth_required"
)

// SocialAccount is a publishing destination the user connected: a Facebook
// page, an Instagram business account, a Twitter user or a LinkedIn member
// or organization. Tokens are stored sealed; see internal/secrets.
type SocialAccount struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_social_accounts_owner_external" json:"user_id"`

	Platform   string `gorm:"not null;uniqueIndex:idx_social_accounts_owner_external" json:"platform"`
	ExternalID string `gorm:"not null;uniqueIndex:idx_social_accounts_owner_external" json:"external_id"`
	Name       string `json:"name"`

	// For Instagram accounts, the Facebook page they are linked through
	ParentID *string `gorm:"type:uuid" json:"parent_id,omitempty"`

	AccessToken    string     `gorm:"type:text;not null" json:"-"`
	RefreshToken   string     `gorm:"type:text" json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	Scopes         []string   `gorm:"type:text;serializer:json" json:"scopes,omitempty"`

	Status    string `gorm:"not null;default:'active';index" json:"status"`
	IsDefault bool   `gorm:"default:false" json:"is_default"`

	LastUsedAt *time.Time `json:"last_used_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *SocialAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = generateUUID()
	}
	if a.Status == "" {
		a.Status = AccountStatusActive
	}
	return nil
}

// TokenExpired reports whether the access token is expired, or will be within skew.
// Tokens without an expiry never expire (e.g. Facebook page tokens).
func (a *SocialAccount) TokenExpired(now time.Time, skew time.Duration) bool {
	if a.TokenExpiresAt == nil {
		return false
	}
	return !now.Add(skew).Before(*a.TokenExpiresAt)
}
