package platforms

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransport() *Transport {
	return NewTransport(TransportConfig{
		Timeout:      5 * time.Second,
		RetryMax:     2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
	})
}

func TestParsePlatform(t *testing.T) {
	p, err := ParsePlatform(" LinkedIn ")
	require.NoError(t, err)
	assert.Equal(t, LinkedIn, p)

	_, err = ParsePlatform("myspace")
	assert.Error(t, err)
}

func TestParseContentKind(t *testing.T) {
	k, err := ParseContentKind("")
	require.NoError(t, err)
	assert.Equal(t, KindText, k)

	k, err = ParseContentKind("VIDEO")
	require.NoError(t, err)
	assert.Equal(t, KindVideo, k)

	_, err = ParseContentKind("carousel")
	assert.Error(t, err)
}

func TestContentValidate(t *testing.T) {
	file := &LocalFile{Name: "a.png", ContentType: "image/png", Data: []byte{1}}

	cases := []struct {
		name    string
		content Content
		valid   bool
	}{
		{"text", Content{Kind: KindText, Text: "hello"}, true},
		{"blank text", Content{Kind: KindText, Text: "  "}, false},
		{"link", Content{Kind: KindLink, Link: "https://example.com/a"}, true},
		{"relative link", Content{Kind: KindLink, Link: "/a"}, false},
		{"ftp link", Content{Kind: KindLink, Link: "ftp://example.com"}, false},
		{"image url", Content{Kind: KindImage, Media: &MediaSource{URL: "https://cdn.example.com/a.png"}}, true},
		{"image file", Content{Kind: KindImage, Media: &MediaSource{File: file}}, true},
		{"image both", Content{Kind: KindImage, Media: &MediaSource{URL: "https://x.io/a", File: file}}, false},
		{"image none", Content{Kind: KindImage}, false},
		{"video empty file", Content{Kind: KindVideo, Media: &MediaSource{File: &LocalFile{}}}, false},
		{"unknown", Content{Kind: "poll", Text: "x"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.content.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidContent)
			}
		})
	}
}

type stubPublisher struct{ p Platform }

func (s stubPublisher) Platform() Platform { return s.p }
func (s stubPublisher) Publish(context.Context, Account, Content) (*Result, error) {
	return &Result{Platform: s.p, RemoteID: "1"}, nil
}

func TestCheckSupported(t *testing.T) {
	text := Content{Kind: KindText, Text: "hello"}
	image := Content{Kind: KindImage, Text: "look", Media: &MediaSource{URL: "https://cdn.example.com/a.png"}}

	assert.ErrorIs(t, CheckSupported(Instagram, text), ErrUnsupportedContent)
	assert.NoError(t, CheckSupported(Instagram, image))
	assert.NoError(t, CheckSupported(Facebook, text))
	assert.NoError(t, CheckSupported(LinkedIn, text))

	long := Content{Kind: KindText, Text: strings.Repeat("a", MaxTweetLength+1)}
	assert.ErrorIs(t, CheckSupported(Twitter, long), ErrInvalidContent)
	assert.NoError(t, CheckSupported(Facebook, long))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(stubPublisher{Facebook})

	p, err := r.Get(Facebook)
	require.NoError(t, err)
	assert.Equal(t, Facebook, p.Platform())

	_, err = r.Get(Twitter)
	assert.ErrorIs(t, err, ErrUnsupportedContent)
}

func TestPlatformErrorClassification(t *testing.T) {
	resp := &http.Response{StatusCode: 400, Header: http.Header{}}

	pe := newPlatformError(Facebook, resp, []byte(`{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`))
	assert.True(t, errors.Is(pe, ErrTokenInvalid))
	assert.False(t, IsRetryable(pe))
	assert.Equal(t, 190, pe.Code)

	pe = newPlatformError(Facebook, resp, []byte(`{"error":{"message":"Application request limit reached","code":4}}`))
	assert.False(t, errors.Is(pe, ErrTokenInvalid))
	assert.True(t, IsRetryable(pe))

	pe = newPlatformError(Facebook, resp, []byte(`{"error":{"message":"Invalid parameter","code":100}}`))
	assert.False(t, IsRetryable(pe))

	limited := &http.Response{StatusCode: 429, Header: http.Header{"Retry-After": {"120"}}}
	pe = newPlatformError(Twitter, limited, []byte(`{"title":"Too Many Requests","detail":"Too Many Requests"}`))
	assert.True(t, IsRetryable(pe))
	assert.Equal(t, 2*time.Minute, RetryAfter(pe))
	assert.Equal(t, "Too Many Requests", pe.Message)

	pe = newPlatformError(LinkedIn, &http.Response{StatusCode: 401, Header: http.Header{}}, []byte(`{"message":"Expired token","serviceErrorCode":65601}`))
	assert.ErrorIs(t, pe, ErrTokenInvalid)
	assert.Equal(t, "Expired token", pe.Message)

	pe = newPlatformError(LinkedIn, &http.Response{StatusCode: 502, Header: http.Header{}}, []byte("<html>bad gateway</html>"))
	assert.True(t, IsRetryable(pe))
	assert.Equal(t, "<html>bad gateway</html>", pe.Message)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(ErrInvalidContent))
	assert.False(t, IsRetryable(ErrUnsupportedContent))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&url.Error{Op: "Post", URL: "https://x", Err: errors.New("connection reset")}))
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	h := http.Header{}
	h.Set("x-rate-limit-reset", "1700000090")
	assert.Equal(t, 90*time.Second, parseRetryAfter(h, now))

	h = http.Header{}
	h.Set("Retry-After", now.Add(30*time.Second).UTC().Format(http.TimeFormat))
	assert.Equal(t, 30*time.Second, parseRetryAfter(h, now))

	assert.Zero(t, parseRetryAfter(http.Header{}, now))
}
