package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/zfogg/brandcast/internal/database"
	apierrors "github.com/zfogg/brandcast/internal/errors"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/util"
	"go.uber.org/zap"
)

const (
	maxImageSize = 8 << 20
	maxVideoSize = 512 << 20
)

// mediaLimits maps every accepted upload type to its size limit
var mediaLimits = map[string]int64{
	"image/jpeg":      maxImageSize,
	"image/png":       maxImageSize,
	"image/gif":       maxImageSize,
	"image/webp":      maxImageSize,
	"video/mp4":       maxVideoSize,
	"video/quicktime": maxVideoSize,
}

// detectMediaType sniffs the content type and returns its size limit.
// The declared Content-Type of the upload is never trusted.
func detectMediaType(data []byte) (string, int64, bool) {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		base, _, _ := strings.Cut(m.String(), ";")
		if limit, ok := mediaLimits[base]; ok {
			return base, limit, true
		}
	}
	return "", 0, false
}

// UploadMedia stores an image or video for use in calendar entries
// POST /api/v1/media
func (h *Handlers) UploadMedia(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if h.media == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("media storage"))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		util.RespondValidationError(c, "file", "file is required")
		return
	}
	if err := util.ValidateFilename(file.Filename); err != nil {
		util.RespondValidationError(c, "file", err.Error())
		return
	}

	data, err := util.ReadUploadedFile(file, maxVideoSize)
	if err != nil {
		if errors.Is(err, util.ErrFileTooLarge) {
			util.RespondWithAPIError(c, apierrors.PayloadTooLarge("uploads are limited to 512 MiB"))
			return
		}
		util.RespondBadRequest(c, "failed to read upload")
		return
	}

	contentType, limit, ok := detectMediaType(data)
	if !ok {
		util.RespondValidationError(c, "file", fmt.Sprintf("unsupported file type %s", mimetype.Detect(data).String()))
		return
	}
	if int64(len(data)) > limit {
		util.RespondWithAPIError(c, apierrors.PayloadTooLarge(fmt.Sprintf("%s uploads are limited to %d MiB", contentType, limit>>20)))
		return
	}

	ctx := c.Request.Context()
	filename := util.SanitizeFilename(file.Filename)
	result, err := h.media.UploadMedia(ctx, data, userID, filename, contentType)
	if err != nil {
		logger.Log.Error("Media upload failed", logger.WithUserID(userID), zap.Error(err))
		util.RespondInternalError(c, "failed to store upload")
		return
	}

	asset := &models.MediaAsset{
		UserID:           userID,
		StorageKey:       result.Key,
		URL:              result.URL,
		OriginalFilename: filename,
		ContentType:      contentType,
		Size:             int64(len(data)),
	}
	if err := database.DB.WithContext(ctx).Create(asset).Error; err != nil {
		// don't leave an orphan behind
		if delErr := h.media.DeleteFile(ctx, result.Key); delErr != nil {
			logger.Log.Warn("Failed to remove orphaned upload", zap.String("key", result.Key), zap.Error(delErr))
		}
		respondError(c, err, "media")
		return
	}

	logger.Log.Info("Media uploaded",
		logger.WithUserID(userID),
		zap.String("asset_id", asset.ID),
		zap.String("content_type", contentType),
		zap.Int64("size", asset.Size),
	)
	c.JSON(http.StatusCreated, gin.H{"media": asset})
}

// ListMedia returns the user's uploads, newest first
// GET /api/v1/media
func (h *Handlers) ListMedia(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit, offset := pagination(c, 50, 200)

	var assets []models.MediaAsset
	if err := database.DB.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&assets).Error; err != nil {
		respondError(c, err, "media")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"media":  assets,
		"count":  len(assets),
		"limit":  limit,
		"offset": offset,
	})
}

// DeleteMedia removes an upload that no pending entry still needs
// DELETE /api/v1/media/:id
func (h *Handlers) DeleteMedia(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var asset models.MediaAsset
	if err := database.DB.WithContext(ctx).Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&asset).Error; err != nil {
		respondError(c, err, "media")
		return
	}

	var inUse int64
	if err := database.DB.WithContext(ctx).Model(&models.CalendarEntry{}).
		Where("media_asset_id = ? AND status IN ?", asset.ID, []string{models.EntryStatusScheduled, models.EntryStatusPublishing}).
		Count(&inUse).Error; err != nil {
		respondError(c, err, "media")
		return
	}
	if inUse > 0 {
		util.RespondConflict(c, "media is used by scheduled entries")
		return
	}

	if err := database.DB.WithContext(ctx).Delete(&asset).Error; err != nil {
		respondError(c, err, "media")
		return
	}
	if h.media != nil {
		if err := h.media.DeleteFile(ctx, asset.StorageKey); err != nil {
			logger.Log.Warn("Failed to delete stored media", zap.String("key", asset.StorageKey), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
