package api

import "time"

// ErrorResponse is the error body every API failure carries
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"display_name"`
	Company         string     `json:"company"`
	Timezone        string     `json:"timezone"`
	NotifyOnFailure bool       `json:"notify_on_failure"`
	LastActiveAt    *time.Time `json:"last_active_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Company     string `json:"company,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Account struct {
	ID             string     `json:"id"`
	Platform       string     `json:"platform"`
	ExternalID     string     `json:"external_id"`
	Name           string     `json:"name"`
	ParentID       *string    `json:"parent_id,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	Scopes         []string   `json:"scopes,omitempty"`
	Status         string     `json:"status"`
	IsDefault      bool       `json:"is_default"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ConnectRequest carries a Twitter or LinkedIn token set obtained elsewhere
type ConnectRequest struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresIn    int      `json:"expires_in,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	ExternalID   string   `json:"external_id"`
	Name         string   `json:"name,omitempty"`
}

type Brand struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Industry    string    `json:"industry"`
	Description string    `json:"description"`
	Audience    string    `json:"audience"`
	Tone        string    `json:"tone"`
	Keywords    []string  `json:"keywords"`
	Hashtags    []string  `json:"hashtags"`
	Colors      []string  `json:"colors"`
	Website     string    `json:"website"`
	LogoURL     string    `json:"logo_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type BrandRequest struct {
	Name        string   `json:"name"`
	Industry    string   `json:"industry,omitempty"`
	Description string   `json:"description,omitempty"`
	Audience    string   `json:"audience,omitempty"`
	Tone        string   `json:"tone,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Hashtags    []string `json:"hashtags,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	Website     string   `json:"website,omitempty"`
}

type MediaAsset struct {
	ID               string    `json:"id"`
	URL              string    `json:"url"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	Size             int64     `json:"size"`
	CreatedAt        time.Time `json:"created_at"`
}

type Job struct {
	ID            string     `json:"id"`
	EntryID       string     `json:"entry_id"`
	Platform      string     `json:"platform"`
	AccountID     *string    `json:"account_id,omitempty"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
	RemotePostID  string     `json:"remote_post_id,omitempty"`
	RemoteURL     string     `json:"remote_url,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Entry struct {
	ID             string      `json:"id"`
	BrandProfileID *string     `json:"brand_profile_id,omitempty"`
	Platforms      []string    `json:"platforms"`
	Kind           string      `json:"kind"`
	Title          string      `json:"title"`
	Content        string      `json:"content"`
	LinkURL        string      `json:"link_url,omitempty"`
	MediaURL       string      `json:"media_url,omitempty"`
	MediaAssetID   *string     `json:"media_asset_id,omitempty"`
	MediaAsset     *MediaAsset `json:"media_asset,omitempty"`
	ScheduledAt    *time.Time  `json:"scheduled_at,omitempty"`
	Status         string      `json:"status"`
	Source         string      `json:"source"`
	PublishedAt    *time.Time  `json:"published_at,omitempty"`
	Jobs           []Job       `json:"jobs,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

type EntryRequest struct {
	BrandProfileID *string    `json:"brand_profile_id,omitempty"`
	Platforms      []string   `json:"platforms"`
	Kind           string     `json:"kind,omitempty"`
	Title          string     `json:"title,omitempty"`
	Content        string     `json:"content,omitempty"`
	LinkURL        string     `json:"link_url,omitempty"`
	MediaURL       string     `json:"media_url,omitempty"`
	MediaAssetID   *string    `json:"media_asset_id,omitempty"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
}

// EntryFilter narrows ListEntries. Zero values are left out of the query.
type EntryFilter struct {
	From     string
	To       string
	Platform string
	Status   string
	Limit    int
	Offset   int
}

type JobFilter struct {
	Status  string
	EntryID string
	Limit   int
	Offset  int
}

type PlanRequest struct {
	BrandID      string   `json:"brand_id"`
	From         string   `json:"from"`
	To           string   `json:"to"`
	Platforms    []string `json:"platforms"`
	PostsPerWeek int      `json:"posts_per_week,omitempty"`
	Theme        string   `json:"theme,omitempty"`
}

type accountResponse struct {
	Account Account `json:"account"`
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
	Count    int       `json:"count"`
}

type brandResponse struct {
	Brand Brand `json:"brand"`
}

type brandsResponse struct {
	Brands []Brand `json:"brands"`
	Count  int     `json:"count"`
}

type entryResponse struct {
	Entry Entry `json:"entry"`
}

type entriesResponse struct {
	Entries []Entry `json:"entries"`
	Count   int     `json:"count"`
}

type mediaResponse struct {
	Media MediaAsset `json:"media"`
}

type mediaListResponse struct {
	Media []MediaAsset `json:"media"`
	Count int          `json:"count"`
}

type jobResponse struct {
	Job Job `json:"job"`
}

type jobsResponse struct {
	Jobs  []Job `json:"jobs"`
	Count int   `json:"count"`
}

type userResponse struct {
	User User `json:"user"`
}
