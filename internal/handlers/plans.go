package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/brandcast/internal/database"
	apierrors "github.com/zfogg/brandcast/internal/errors"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/planner"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GeneratePlan asks the planner for posts and stores them as draft entries
// POST /api/v1/plans
func (h *Handlers) GeneratePlan(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if h.planner == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("content planner"))
		return
	}

	var req struct {
		BrandID      string   `json:"brand_id" binding:"required,uuid"`
		From         string   `json:"from" binding:"required"`
		To           string   `json:"to" binding:"required"`
		Platforms    []string `json:"platforms" binding:"required,min=1,max=4,dive,platform"`
		PostsPerWeek int      `json:"posts_per_week" binding:"min=0,max=21"`
		Theme        string   `json:"theme" binding:"max=500"`
	}
	if !bindJSON(c, &req) {
		return
	}

	from, err := util.ParseTime(req.From)
	if err != nil {
		util.RespondValidationError(c, "from", err.Error())
		return
	}
	to, err := util.ParseTime(req.To)
	if err != nil {
		util.RespondValidationError(c, "to", err.Error())
		return
	}

	targets := make([]platforms.Platform, 0, len(req.Platforms))
	for _, name := range req.Platforms {
		p, err := platforms.ParsePlatform(name)
		if err != nil {
			util.RespondValidationError(c, "platforms", err.Error())
			return
		}
		if p == platforms.Instagram {
			util.RespondValidationError(c, "platforms", "instagram posts need media; plans only draft text")
			return
		}
		targets = append(targets, p)
	}

	brand, err := h.loadBrand(c, userID, req.BrandID)
	if err != nil {
		respondError(c, err, "brand profile")
		return
	}

	planned, err := h.planner.Generate(c.Request.Context(), brand, planner.PlanRequest{
		From:         from,
		To:           to,
		Platforms:    targets,
		PostsPerWeek: req.PostsPerWeek,
		Theme:        req.Theme,
	})
	if err != nil {
		respondError(c, err, "plan")
		return
	}

	entries := make([]models.CalendarEntry, 0, len(planned))
	dropped := 0
	for _, p := range planned {
		if !planner.Publishable(p.Platform, p.Content) {
			dropped++
			continue
		}
		at := p.Date
		entries = append(entries, models.CalendarEntry{
			UserID:         userID,
			BrandProfileID: &brand.ID,
			Platforms:      []string{string(p.Platform)},
			Kind:           string(platforms.KindText),
			Title:          p.Title,
			Content:        p.Content,
			ScheduledAt:    &at,
			Status:         models.EntryStatusDraft,
			Source:         models.EntrySourcePlan,
		})
	}

	if len(entries) > 0 {
		err = database.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			return tx.Create(&entries).Error
		})
		if err != nil {
			respondError(c, err, "plan")
			return
		}
	}

	logger.Log.Info("Content plan generated",
		logger.WithUserID(userID),
		zap.String("brand_id", brand.ID),
		zap.Int("entries", len(entries)),
		zap.Int("dropped", dropped),
	)
	c.JSON(http.StatusCreated, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}
