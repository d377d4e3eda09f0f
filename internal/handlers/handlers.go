package handlers

import (
	"context"
	"time"

	"github.com/zfogg/brandcast/internal/cache"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/planner"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/storage"
	"github.com/zfogg/brandcast/internal/tokens"
)

// AccountService connects and manages social accounts
type AccountService interface {
	ConnectFacebook(ctx context.Context, userID, shortToken string) ([]models.SocialAccount, error)
	ConnectOAuth2(ctx context.Context, userID string, platform platforms.Platform, tok tokens.TokenSet, externalID, name string) (*models.SocialAccount, error)
	SetDefault(ctx context.Context, userID, accountID string) (*models.SocialAccount, error)
	Disconnect(ctx context.Context, userID, accountID string) error
}

// PublishService drives the publish pipeline
type PublishService interface {
	Enqueue(ctx context.Context, entryID string) ([]models.PublishJob, error)
	Retry(ctx context.Context, userID, jobID string) (*models.PublishJob, error)
	CancelEntry(ctx context.Context, userID, entryID string) (*models.CalendarEntry, error)
}

// PlanGenerator produces content plans
type PlanGenerator interface {
	Generate(ctx context.Context, brand *models.BrandProfile, req planner.PlanRequest) ([]planner.PlannedEntry, error)
}

// QueueStats reports publish queue depth
type QueueStats interface {
	Pending() int
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	accounts  AccountService
	publisher PublishService
	planner   PlanGenerator
	media     storage.MediaUploader
	cache     *cache.RedisClient
	queue     QueueStats
	now       func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(accounts AccountService, publisher PublishService) *Handlers {
	return &Handlers{
		accounts:  accounts,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetPlanner sets the content plan generator
func (h *Handlers) SetPlanner(p PlanGenerator) {
	h.planner = p
}

// SetMediaUploader sets where uploads are stored
func (h *Handlers) SetMediaUploader(u storage.MediaUploader) {
	h.media = u
}

// SetCache sets the Redis cache used for brand profiles
func (h *Handlers) SetCache(c *cache.RedisClient) {
	h.cache = c
}

// SetQueue sets the publish queue reported by the health check
func (h *Handlers) SetQueue(q QueueStats) {
	h.queue = q
}
