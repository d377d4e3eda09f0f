package platforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	// ErrInvalidContent means the content can never be published as is
	ErrInvalidContent = errors.New("invalid content")
	// ErrUnsupportedContent means the platform does not accept this kind of post
	ErrUnsupportedContent = errors.New("unsupported content for platform")
	// ErrTokenInvalid means the platform rejected the access token
	ErrTokenInvalid = errors.New("access token invalid or expired")
)

// Graph API error codes that are worth retrying
var graphTransientCodes = map[int]bool{
	1:   true, // unknown, usually transient
	2:   true, // service temporarily unavailable
	4:   true, // app request limit
	17:  true, // user request limit
	32:  true, // page request limit
	341: true, // application limit
	368: true, // temporarily blocked for policy
	613: true, // calls exceed rate limit
}

// Graph API codes that mean the token is unusable
var graphAuthCodes = map[int]bool{
	102: true,
	190: true,
}

// PlatformError is an error response from a platform API
type PlatformError struct {
	Platform   Platform
	StatusCode int
	Code       int
	Subcode    int
	Message    string
	RetryAfter time.Duration
}

func (e *PlatformError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: status %d code %d: %s", e.Platform, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Platform, e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrTokenInvalid) match auth failures
func (e *PlatformError) Is(target error) bool {
	return target == ErrTokenInvalid && e.authFailure()
}

func (e *PlatformError) authFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || graphAuthCodes[e.Code]
}

// Retryable reports whether repeating the call later may succeed
func (e *PlatformError) Retryable() bool {
	if e.authFailure() {
		return false
	}
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 {
		return true
	}
	return graphTransientCodes[e.Code]
}

// IsRetryable classifies any error coming out of a Publisher
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidContent) || errors.Is(err, ErrUnsupportedContent) || errors.Is(err, ErrTokenInvalid) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// RetryAfter extracts a server-provided retry delay, if any
func RetryAfter(err error) time.Duration {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}

// errorEnvelope covers the error bodies of the supported APIs:
// Graph {"error":{...}}, Twitter v2 {"title","detail"} / {"errors":[...]},
// LinkedIn {"message","serviceErrorCode"}.
type errorEnvelope struct {
	Error *struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
	Errors []struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"errors"`
	Title            string `json:"title"`
	Detail           string `json:"detail"`
	Message          string `json:"message"`
	ServiceErrorCode int    `json:"serviceErrorCode"`
}

func newPlatformError(platform Platform, resp *http.Response, body []byte) *PlatformError {
	pe := &PlatformError{
		Platform:   platform,
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		RetryAfter: parseRetryAfter(resp.Header, time.Now()),
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		if len(body) > 0 && len(body) < 512 {
			pe.Message = string(body)
		}
		return pe
	}

	switch {
	case env.Error != nil:
		pe.Message = env.Error.Message
		pe.Code = env.Error.Code
		pe.Subcode = env.Error.ErrorSubcode
	case len(env.Errors) > 0:
		pe.Message = env.Errors[0].Message
		pe.Code = env.Errors[0].Code
	case env.Detail != "":
		pe.Message = env.Detail
	case env.Message != "":
		pe.Message = env.Message
		pe.Code = env.ServiceErrorCode
	case env.Title != "":
		pe.Message = env.Title
	}
	return pe
}

// parseRetryAfter reads Retry-After (seconds or HTTP date) or Twitter's
// x-rate-limit-reset (unix seconds).
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		if t, err := http.ParseTime(v); err == nil && t.After(now) {
			return t.Sub(now)
		}
	}
	if v := h.Get("x-rate-limit-reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			if reset := time.Unix(epoch, 0); reset.After(now) {
				return reset.Sub(now)
			}
		}
	}
	return 0
}
