package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/brandcast/internal/database"
)

// Health reports whether the backing services respond
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	services := gin.H{}

	if err := database.Health(); err != nil {
		status = http.StatusServiceUnavailable
		services["database"] = err.Error()
	} else {
		services["database"] = "ok"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			// the cache is optional, so it degrades rather than fails
			services["redis"] = err.Error()
		} else {
			services["redis"] = "ok"
		}
	}

	body := gin.H{
		"status":    "ok",
		"timestamp": h.now(),
		"service":   "brandcast-backend",
		"services":  services,
	}
	if status != http.StatusOK {
		body["status"] = "unavailable"
	}
	if h.queue != nil {
		body["publish_queue_pending"] = h.queue.Pending()
	}
	c.JSON(status, body)
}
