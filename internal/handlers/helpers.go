package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/zfogg/brandcast/internal/errors"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/planner"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/publish"
	"github.com/zfogg/brandcast/internal/tokens"
	"github.com/zfogg/brandcast/internal/util"
	"github.com/zfogg/brandcast/internal/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// bindJSON binds the request body, responding with a validation error on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		util.RespondWithAPIError(c, validation.ToAPIError(err))
		return false
	}
	return true
}

// respondError maps service errors onto API errors
func respondError(c *gin.Context, err error, resource string) {
	var pe *platforms.PlatformError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, publish.ErrEntryNotFound),
		errors.Is(err, publish.ErrJobNotFound),
		errors.Is(err, tokens.ErrAccountNotFound):
		util.RespondNotFound(c, resource)
	case errors.Is(err, publish.ErrNotFailed), errors.Is(err, publish.ErrNotTargeted):
		util.RespondConflict(c, err.Error())
	case errors.Is(err, publish.ErrNoAccount):
		util.RespondConflict(c, "connect an account for this platform first")
	case errors.Is(err, tokens.ErrReauthRequired):
		util.RespondWithAPIError(c, apierrors.ReauthRequired(resource))
	case errors.Is(err, platforms.ErrInvalidContent), errors.Is(err, platforms.ErrUnsupportedContent):
		util.RespondValidationError(c, "content", err.Error())
	case errors.Is(err, planner.ErrInvalidRequest):
		util.RespondValidationError(c, "plan", err.Error())
	case errors.Is(err, planner.ErrNotConfigured):
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("content planner"))
	case errors.Is(err, planner.ErrBadCompletion):
		util.RespondWithAPIError(c, apierrors.Upstream("planner", err.Error()))
	case errors.As(err, &pe):
		util.RespondWithAPIError(c, apierrors.Upstream(string(pe.Platform), pe.Message))
	default:
		logger.Log.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("resource", resource),
			zap.Error(err),
		)
		util.RespondInternalError(c, "failed to process "+resource)
	}
}

// pagination reads limit and offset query parameters
func pagination(c *gin.Context, defaultLimit, maxLimit int) (int, int) {
	limit := util.ParseInt(c.Query("limit"), defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset := util.ParseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
