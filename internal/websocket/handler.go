package websocket

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/zfogg/brandcast/internal/auth"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/util"
	"go.uber.org/zap"
)

// Handler handles WebSocket HTTP upgrade requests
type Handler struct {
	hub            *Hub
	validator      auth.TokenValidator
	originPatterns []string
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, validator auth.TokenValidator) *Handler {
	return &Handler{
		hub:       hub,
		validator: validator,
	}
}

// SetAllowedOrigins restricts browser origins; "*" allows any
func (h *Handler) SetAllowedOrigins(patterns []string) {
	h.originPatterns = patterns
}

// HandleWebSocket upgrades an authenticated request. The JWT comes from the
// Authorization header or, for browsers, the ?token= query parameter.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := auth.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		util.RespondUnauthorized(c, "no authentication token provided")
		return
	}

	user, err := h.validator.ValidateToken(token)
	if err != nil {
		logger.Log.Debug("WebSocket auth failed", zap.Error(err))
		util.RespondUnauthorized(c, "invalid or expired token")
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, h.acceptOptions())
	if err != nil {
		logger.Log.Warn("WebSocket upgrade failed", logger.WithUserID(user.ID), zap.Error(err))
		return
	}

	client := NewClient(h.hub, conn, user.ID)
	client.RemoteAddr = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register(client)

	_ = client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event: "connected",
		Data: map[string]interface{}{
			"user_id":     user.ID,
			"server_time": time.Now().UTC().UnixMilli(),
		},
	}))

	go client.WritePump()
	client.ReadPump()
}

func (h *Handler) acceptOptions() *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, p := range h.originPatterns {
		if p == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
	}
	opts.OriginPatterns = h.originPatterns
	return opts
}

// HandleMetrics returns WebSocket metrics
func (h *Handler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"websocket": h.hub.GetMetrics(),
		"timestamp": time.Now().UTC(),
	})
}

// Shutdown gracefully shuts down the WebSocket handler
func (h *Handler) Shutdown(ctx context.Context) error {
	if err := h.hub.Shutdown(ctx); err != nil {
		return fmt.Errorf("websocket shutdown: %w", err)
	}
	return nil
}
