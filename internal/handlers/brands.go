package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

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
	brandCacheTTL = 10 * time.Minute
	maxLogoSize   = 2 << 20
)

var logoTypes = []string{"image/png", "image/jpeg", "image/webp"}

type brandRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=120"`
	Industry    string   `json:"industry" binding:"max=120"`
	Description string   `json:"description" binding:"max=2000"`
	Audience    string   `json:"audience" binding:"max=1000"`
	Tone        string   `json:"tone" binding:"max=200"`
	Keywords    []string `json:"keywords" binding:"max=30,dive,max=60"`
	Hashtags    []string `json:"hashtags" binding:"max=30,dive,max=60"`
	Colors      []string `json:"colors" binding:"max=10,dive,hexcolor"`
	Website     string   `json:"website" binding:"omitempty,http_url"`
}

func (r *brandRequest) apply(b *models.BrandProfile) {
	b.Name = strings.TrimSpace(r.Name)
	b.Industry = strings.TrimSpace(r.Industry)
	b.Description = strings.TrimSpace(r.Description)
	b.Audience = strings.TrimSpace(r.Audience)
	b.Tone = strings.TrimSpace(r.Tone)
	b.Keywords = util.NormalizeList(r.Keywords)
	b.Hashtags = util.NormalizeHashtags(r.Hashtags)
	b.Colors = util.NormalizeList(r.Colors)
	b.Website = strings.TrimSpace(r.Website)
}

func brandCacheKey(id string) string {
	return "brand:" + id
}

// loadBrand returns the user's brand profile, reading through the cache
func (h *Handlers) loadBrand(c *gin.Context, userID, brandID string) (*models.BrandProfile, error) {
	ctx := c.Request.Context()
	var brand models.BrandProfile
	if err := h.cache.GetJSON(ctx, "brand", brandCacheKey(brandID), &brand); err == nil {
		if brand.UserID == userID {
			return &brand, nil
		}
	}

	if err := database.DB.WithContext(ctx).Where("id = ? AND user_id = ?", brandID, userID).First(&brand).Error; err != nil {
		return nil, err
	}
	h.cache.SetJSON(ctx, brandCacheKey(brand.ID), &brand, brandCacheTTL)
	return &brand, nil
}

// CreateBrand creates a brand profile
// POST /api/v1/brands
func (h *Handlers) CreateBrand(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req brandRequest
	if !bindJSON(c, &req) {
		return
	}

	brand := &models.BrandProfile{UserID: userID}
	req.apply(brand)
	if err := database.DB.WithContext(c.Request.Context()).Create(brand).Error; err != nil {
		respondError(c, err, "brand profile")
		return
	}

	logger.Log.Info("Brand profile created", logger.WithUserID(userID), zap.String("brand_id", brand.ID))
	c.JSON(http.StatusCreated, gin.H{"brand": brand})
}

// ListBrands returns the user's brand profiles
// GET /api/v1/brands
func (h *Handlers) ListBrands(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var brands []models.BrandProfile
	if err := database.DB.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&brands).Error; err != nil {
		respondError(c, err, "brand profiles")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"brands": brands,
		"count":  len(brands),
	})
}

// GetBrand returns one brand profile
// GET /api/v1/brands/:id
func (h *Handlers) GetBrand(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	brand, err := h.loadBrand(c, userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "brand profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"brand": brand})
}

// UpdateBrand replaces a brand profile's fields
// PUT /api/v1/brands/:id
func (h *Handlers) UpdateBrand(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req brandRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	var brand models.BrandProfile
	if err := database.DB.WithContext(ctx).Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&brand).Error; err != nil {
		respondError(c, err, "brand profile")
		return
	}

	req.apply(&brand)
	if err := database.DB.WithContext(ctx).Save(&brand).Error; err != nil {
		respondError(c, err, "brand profile")
		return
	}
	h.cache.Del(ctx, brandCacheKey(brand.ID))

	c.JSON(http.StatusOK, gin.H{"brand": brand})
}

// DeleteBrand deletes a brand profile. Calendar entries keep their content.
// DELETE /api/v1/brands/:id
func (h *Handlers) DeleteBrand(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	res := database.DB.WithContext(ctx).Where("id = ? AND user_id = ?", c.Param("id"), userID).Delete(&models.BrandProfile{})
	if res.Error != nil {
		respondError(c, res.Error, "brand profile")
		return
	}
	if res.RowsAffected == 0 {
		util.RespondNotFound(c, "brand profile")
		return
	}
	h.cache.Del(ctx, brandCacheKey(c.Param("id")))

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// UploadBrandLogo stores a logo image and points the profile at it
// POST /api/v1/brands/:id/logo
func (h *Handlers) UploadBrandLogo(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if h.media == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("media storage"))
		return
	}

	ctx := c.Request.Context()
	var brand models.BrandProfile
	if err := database.DB.WithContext(ctx).Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&brand).Error; err != nil {
		respondError(c, err, "brand profile")
		return
	}

	file, err := c.FormFile("logo")
	if err != nil {
		util.RespondValidationError(c, "logo", "logo file is required")
		return
	}
	data, err := util.ReadUploadedFile(file, maxLogoSize)
	if err != nil {
		if errors.Is(err, util.ErrFileTooLarge) {
			util.RespondWithAPIError(c, apierrors.PayloadTooLarge("logo must be 2 MiB or smaller"))
			return
		}
		util.RespondBadRequest(c, "failed to read logo")
		return
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), logoTypes...) {
		util.RespondValidationError(c, "logo", "logo must be a PNG, JPEG or WebP image")
		return
	}

	result, err := h.media.UploadLogo(ctx, data, userID, brand.ID, mtype.String())
	if err != nil {
		logger.Log.Error("Logo upload failed", logger.WithUserID(userID), zap.Error(err))
		util.RespondInternalError(c, "failed to store logo")
		return
	}

	if err := database.DB.WithContext(ctx).Model(&brand).Update("logo_url", result.URL).Error; err != nil {
		respondError(c, err, "brand profile")
		return
	}
	brand.LogoURL = result.URL
	h.cache.Del(ctx, brandCacheKey(brand.ID))

	c.JSON(http.StatusOK, gin.H{"brand": brand})
}
