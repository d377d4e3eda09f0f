package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/brandcast/internal/database"
	apierrors "github.com/zfogg/brandcast/internal/errors"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type entryRequest struct {
	BrandProfileID *string    `json:"brand_profile_id" binding:"omitempty,uuid"`
	Platforms      []string   `json:"platforms" binding:"required,min=1,max=4,dive,platform"`
	Kind           string     `json:"kind" binding:"content_kind"`
	Title          string     `json:"title" binding:"max=200"`
	Content        string     `json:"content" binding:"max=10000"`
	LinkURL        string     `json:"link_url" binding:"omitempty,http_url"`
	MediaURL       string     `json:"media_url" binding:"omitempty,http_url"`
	MediaAssetID   *string    `json:"media_asset_id" binding:"omitempty,uuid"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
}

// buildEntry checks the request against the user's brands and media and
// against what every target platform accepts, then copies it onto entry.
func (h *Handlers) buildEntry(c *gin.Context, userID string, req *entryRequest, entry *models.CalendarEntry) *apierrors.APIError {
	ctx := c.Request.Context()

	targets := make([]string, 0, len(req.Platforms))
	seen := make(map[platforms.Platform]bool, len(req.Platforms))
	for _, name := range req.Platforms {
		p, err := platforms.ParsePlatform(name)
		if err != nil {
			return apierrors.ValidationError("platforms", err.Error())
		}
		if !seen[p] {
			seen[p] = true
			targets = append(targets, string(p))
		}
	}

	if req.BrandProfileID != nil {
		var count int64
		if err := database.DB.WithContext(ctx).Model(&models.BrandProfile{}).
			Where("id = ? AND user_id = ?", *req.BrandProfileID, userID).
			Count(&count).Error; err != nil {
			return apierrors.InternalError("failed to load brand profile")
		}
		if count == 0 {
			return apierrors.NotFound("brand profile")
		}
	}

	var asset *models.MediaAsset
	if req.MediaAssetID != nil {
		if req.MediaURL != "" {
			return apierrors.ValidationError("media_url", "use either media_url or media_asset_id")
		}
		asset = &models.MediaAsset{}
		if err := database.DB.WithContext(ctx).Where("id = ? AND user_id = ?", *req.MediaAssetID, userID).First(asset).Error; err != nil {
			return apierrors.NotFound("media asset")
		}
	}

	kindName := req.Kind
	if kindName == "" {
		switch {
		case asset != nil:
			kindName = asset.Kind()
		case req.MediaURL != "":
			kindName = string(platforms.KindImage)
		case req.LinkURL != "":
			kindName = string(platforms.KindLink)
		}
	}
	kind, err := platforms.ParseContentKind(kindName)
	if err != nil {
		return apierrors.ValidationError("kind", err.Error())
	}

	content := platforms.Content{
		Kind:  kind,
		Text:  strings.TrimSpace(req.Content),
		Title: strings.TrimSpace(req.Title),
		Link:  req.LinkURL,
	}
	switch {
	case asset != nil:
		content.Media = &platforms.MediaSource{File: &platforms.LocalFile{
			Name:        asset.OriginalFilename,
			ContentType: asset.ContentType,
			PublicURL:   asset.URL,
		}}
	case req.MediaURL != "":
		content.Media = &platforms.MediaSource{URL: req.MediaURL}
	}
	if err := content.Validate(); err != nil {
		return apierrors.ValidationError("content", err.Error())
	}
	for _, name := range targets {
		if err := platforms.CheckSupported(platforms.Platform(name), content); err != nil {
			return apierrors.ValidationError("platforms", err.Error())
		}
	}

	entry.UserID = userID
	entry.BrandProfileID = req.BrandProfileID
	entry.Platforms = targets
	entry.Kind = string(kind)
	entry.Title = content.Title
	entry.Content = content.Text
	entry.LinkURL = req.LinkURL
	entry.MediaURL = req.MediaURL
	entry.MediaAssetID = req.MediaAssetID
	entry.MediaAsset = asset
	if req.ScheduledAt != nil {
		at := req.ScheduledAt.UTC()
		entry.ScheduledAt = &at
	} else {
		entry.ScheduledAt = nil
	}
	return nil
}

// CreateEntry adds a draft to the content calendar
// POST /api/v1/calendar
func (h *Handlers) CreateEntry(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req entryRequest
	if !bindJSON(c, &req) {
		return
	}

	entry := &models.CalendarEntry{
		Status: models.EntryStatusDraft,
		Source: models.EntrySourceManual,
	}
	if apiErr := h.buildEntry(c, userID, &req, entry); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}

	if err := database.DB.WithContext(c.Request.Context()).Omit("MediaAsset").Create(entry).Error; err != nil {
		respondError(c, err, "calendar entry")
		return
	}

	logger.Log.Info("Calendar entry created",
		logger.WithUserID(userID),
		logger.WithEntryID(entry.ID),
		zap.Strings("platforms", entry.Platforms),
	)
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// ListEntries returns calendar entries ordered by scheduled time
// GET /api/v1/calendar?from=&to=&platform=&status=
func (h *Handlers) ListEntries(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	query := database.DB.WithContext(c.Request.Context()).Where("user_id = ?", userID)

	if raw := c.Query("from"); raw != "" {
		from, err := util.ParseTime(raw)
		if err != nil {
			util.RespondValidationError(c, "from", err.Error())
			return
		}
		query = query.Where("scheduled_at >= ?", from)
	}
	if raw := c.Query("to"); raw != "" {
		to, err := util.ParseTime(raw)
		if err != nil {
			util.RespondValidationError(c, "to", err.Error())
			return
		}
		// a plain date means the whole day
		if !strings.Contains(raw, "T") {
			to = to.Add(24 * time.Hour)
		}
		query = query.Where("scheduled_at < ?", to)
	}
	if raw := c.Query("platform"); raw != "" {
		p, err := platforms.ParsePlatform(raw)
		if err != nil {
			util.RespondValidationError(c, "platform", err.Error())
			return
		}
		// platforms is a JSON array column
		query = query.Where("platforms LIKE ?", fmt.Sprintf("%%%q%%", string(p)))
	}
	if statuses := util.ParseList(c.Query("status")); len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	limit, offset := pagination(c, 100, 500)

	var entries []models.CalendarEntry
	if err := query.
		Order("scheduled_at ASC").
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&entries).Error; err != nil {
		respondError(c, err, "calendar entries")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
		"limit":   limit,
		"offset":  offset,
	})
}

// GetEntry returns one entry with its publish jobs
// GET /api/v1/calendar/:id
func (h *Handlers) GetEntry(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var entry models.CalendarEntry
	if err := database.DB.WithContext(c.Request.Context()).
		Preload("Jobs", func(db *gorm.DB) *gorm.DB {
			return db.Order("platform ASC")
		}).
		Preload("MediaAsset").
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&entry).Error; err != nil {
		respondError(c, err, "calendar entry")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// UpdateEntry replaces an entry's content. Entries that are publishing or
// already went out cannot change.
// PUT /api/v1/calendar/:id
func (h *Handlers) UpdateEntry(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req entryRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	var entry models.CalendarEntry
	if err := database.DB.WithContext(ctx).Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&entry).Error; err != nil {
		respondError(c, err, "calendar entry")
		return
	}
	if !entry.Editable() {
		util.RespondConflict(c, fmt.Sprintf("entry is %s and can no longer be edited", entry.Status))
		return
	}

	if apiErr := h.buildEntry(c, userID, &req, &entry); apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	if entry.Status == models.EntryStatusScheduled && entry.ScheduledAt == nil {
		entry.Status = models.EntryStatusDraft
	}

	if err := database.DB.WithContext(ctx).Omit("MediaAsset", "Jobs").Save(&entry).Error; err != nil {
		respondError(c, err, "calendar entry")
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// DeleteEntry removes an entry that is not publishing
// DELETE /api/v1/calendar/:id
func (h *Handlers) DeleteEntry(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var entry models.CalendarEntry
	if err := database.DB.WithContext(ctx).Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&entry).Error; err != nil {
		respondError(c, err, "calendar entry")
		return
	}
	if entry.Status == models.EntryStatusPublishing {
		util.RespondConflict(c, "entry is publishing; cancel it first")
		return
	}

	if err := database.DB.WithContext(ctx).Delete(&entry).Error; err != nil {
		respondError(c, err, "calendar entry")
		return
	}

	logger.Log.Info("Calendar entry deleted", logger.WithUserID(userID), logger.WithEntryID(entry.ID))
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ScheduleEntry queues an entry to publish at a future time
// POST /api/v1/calendar/:id/schedule
func (h *Handlers) ScheduleEntry(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ScheduledAt *time.Time `json:"scheduled_at"`
	}
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	var entry models.CalendarEntry
	if err := database.DB.WithContext(ctx).Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&entry).Error; err != nil {
		respondError(c, err, "calendar entry")
		return
	}

	switch entry.Status {
	case models.EntryStatusDraft, models.EntryStatusScheduled, models.EntryStatusFailed, models.EntryStatusCanceled:
	default:
		util.RespondConflict(c, fmt.Sprintf("entry is %s and cannot be scheduled", entry.Status))
		return
	}

	at := entry.ScheduledAt
	if req.ScheduledAt != nil {
		t := req.ScheduledAt.UTC()
		at = &t
	}
	if at == nil {
		util.RespondValidationError(c, "scheduled_at", "scheduled_at is required")
		return
	}
	if !at.After(h.now()) {
		util.RespondValidationError(c, "scheduled_at", "scheduled_at must be in the future")
		return
	}

	if err := database.DB.WithContext(ctx).Model(&entry).Updates(map[string]interface{}{
		"status":       models.EntryStatusScheduled,
		"scheduled_at": *at,
	}).Error; err != nil {
		respondError(c, err, "calendar entry")
		return
	}
	entry.Status = models.EntryStatusScheduled
	entry.ScheduledAt = at

	logger.Log.Info("Calendar entry scheduled",
		logger.WithUserID(userID),
		logger.WithEntryID(entry.ID),
		zap.Time("scheduled_at", *at),
	)
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// PublishEntry publishes an entry now. Platforms that already succeeded are
// left alone, so publishing a partially published entry retries the rest.
// POST /api/v1/calendar/:id/publish
func (h *Handlers) PublishEntry(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var entry models.CalendarEntry
	if err := database.DB.WithContext(ctx).Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&entry).Error; err != nil {
		respondError(c, err, "calendar entry")
		return
	}
	if entry.Status == models.EntryStatusPublished {
		util.RespondConflict(c, "entry is already published")
		return
	}

	jobs, err := h.publisher.Enqueue(ctx, entry.ID)
	if err != nil {
		respondError(c, err, "calendar entry")
		return
	}

	if err := database.DB.WithContext(ctx).First(&entry, "id = ?", entry.ID).Error; err != nil {
		respondError(c, err, "calendar entry")
		return
	}
	entry.Jobs = jobs

	c.JSON(http.StatusAccepted, gin.H{"entry": entry})
}

// CancelEntry stops jobs that have not started yet
// POST /api/v1/calendar/:id/cancel
func (h *Handlers) CancelEntry(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	entry, err := h.publisher.CancelEntry(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "calendar entry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}
