package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/brandcast/internal/database"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/util"
)

// ListJobs returns the user's publish jobs, newest first
// GET /api/v1/jobs?status=&entry_id=
func (h *Handlers) ListJobs(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	query := database.DB.WithContext(c.Request.Context()).Where("user_id = ?", userID)
	if statuses := util.ParseList(c.Query("status")); len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if entryID := c.Query("entry_id"); entryID != "" {
		query = query.Where("entry_id = ?", entryID)
	}
	limit, offset := pagination(c, 50, 200)

	var jobs []models.PublishJob
	if err := query.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&jobs).Error; err != nil {
		respondError(c, err, "publish jobs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":   jobs,
		"count":  len(jobs),
		"limit":  limit,
		"offset": offset,
	})
}

// RetryJob puts a failed or canceled job back in the queue
// POST /api/v1/jobs/:id/retry
func (h *Handlers) RetryJob(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	job, err := h.publisher.Retry(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "publish job")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}
