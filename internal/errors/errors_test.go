package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		code   ErrorCode
		status int
	}{
		{"not found", NotFound("calendar entry"), ErrNotFound, http.StatusNotFound},
		{"unauthorized", Unauthorized("no token"), ErrUnauthorized, http.StatusUnauthorized},
		{"validation", ValidationError("platforms", "unknown platform"), ErrValidation, http.StatusUnprocessableEntity},
		{"upstream", Upstream("facebook", "boom"), ErrUpstream, http.StatusBadGateway},
		{"reauth", ReauthRequired("twitter"), ErrReauthRequired, http.StatusConflict},
		{"too large", PayloadTooLarge("file too big"), ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.status, tt.code.StatusCode())
		})
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: brand profile not found", NotFound("brand profile").Error())
	assert.Equal(t, "VALIDATION_ERROR: bad (field: title)", ValidationError("title", "bad").Error())
}

func TestRateLimitedDefaultMessage(t *testing.T) {
	assert.Equal(t, "rate limit exceeded", RateLimited("").Message)
}

func TestUnknownCodeMapsTo500(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("NOPE").StatusCode())
}
