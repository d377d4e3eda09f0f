package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCorrelationFallsBackToRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware(), CorrelationMiddleware())

	var fromCtx string
	router.GET("/x", func(c *gin.Context) {
		fromCtx = CorrelationIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-123", w.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "req-123", fromCtx)

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Correlation-ID", "flow-9")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "flow-9", w.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "flow-9", fromCtx)
}
