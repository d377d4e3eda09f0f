package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/brandcast/internal/database"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/tokens"
	"github.com/zfogg/brandcast/internal/util"
	"go.uber.org/zap"
)

// ListAccounts returns the user's connected accounts. Tokens never leave the server.
// GET /api/v1/accounts
func (h *Handlers) ListAccounts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	query := database.DB.WithContext(c.Request.Context()).Where("user_id = ?", userID)
	if p := c.Query("platform"); p != "" {
		platform, err := platforms.ParsePlatform(p)
		if err != nil {
			util.RespondValidationError(c, "platform", err.Error())
			return
		}
		query = query.Where("platform = ?", string(platform))
	}

	var accounts []models.SocialAccount
	if err := query.Order("platform ASC, created_at ASC").Find(&accounts).Error; err != nil {
		respondError(c, err, "accounts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// ConnectFacebook stores every page (and linked Instagram account) the user manages
// POST /api/v1/accounts/facebook
func (h *Handlers) ConnectFacebook(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		AccessToken string `json:"access_token" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	accounts, err := h.accounts.ConnectFacebook(c.Request.Context(), userID, req.AccessToken)
	if err != nil {
		respondError(c, err, "facebook")
		return
	}

	logger.Log.Info("Connected Facebook accounts", logger.WithUserID(userID), zap.Int("count", len(accounts)))
	c.JSON(http.StatusCreated, gin.H{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// ConnectOAuth2 stores a Twitter or LinkedIn token set obtained by the client
// POST /api/v1/accounts/:platform
func (h *Handlers) ConnectOAuth2(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	platform, err := platforms.ParsePlatform(c.Param("platform"))
	if err != nil {
		util.RespondNotFound(c, "platform")
		return
	}
	if platform == platforms.Facebook || platform == platforms.Instagram {
		util.RespondBadRequest(c, "facebook and instagram accounts connect through /accounts/facebook")
		return
	}

	var req struct {
		AccessToken  string   `json:"access_token" binding:"required"`
		RefreshToken string   `json:"refresh_token"`
		ExpiresIn    int      `json:"expires_in" binding:"min=0"`
		Scopes       []string `json:"scopes"`
		ExternalID   string   `json:"external_id" binding:"required"`
		Name         string   `json:"name" binding:"max=200"`
	}
	if !bindJSON(c, &req) {
		return
	}

	tok := tokens.TokenSet{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		Scopes:       req.Scopes,
	}
	if req.ExpiresIn > 0 {
		expires := h.now().Add(time.Duration(req.ExpiresIn) * time.Second)
		tok.ExpiresAt = &expires
	}

	account, err := h.accounts.ConnectOAuth2(c.Request.Context(), userID, platform, tok, req.ExternalID, req.Name)
	if err != nil {
		respondError(c, err, string(platform))
		return
	}

	logger.Log.Info("Connected account", logger.WithUserID(userID), logger.WithPlatform(string(platform)))
	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// SetDefaultAccount makes an account the one used for its platform
// PUT /api/v1/accounts/:id/default
func (h *Handlers) SetDefaultAccount(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	account, err := h.accounts.SetDefault(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err, "account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DisconnectAccount removes an account
// DELETE /api/v1/accounts/:id
func (h *Handlers) DisconnectAccount(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.accounts.Disconnect(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err, "account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}
