package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/util"
)

// TokenValidator resolves a bearer token to a user
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer ..." header
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthMiddleware requires a valid bearer token and stores the user in the
// context under "user" and "user_id".
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			util.RespondUnauthorized(c, "no token provided")
			return
		}

		user, err := validator.ValidateToken(token)
		if err != nil {
			util.RespondUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}
