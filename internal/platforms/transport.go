package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/zfogg/brandcast/internal/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// maxMediaDownload caps remote media fetched for re-upload
const maxMediaDownload = 512 << 20

// maxErrorBody caps how much of an error response is read
const maxErrorBody = 64 << 10

// Transport is the HTTP layer shared by all adapters. Idempotent requests
// (GET, HEAD, PUT) are retried on connection errors and 5xx responses;
// POSTs go out exactly once because a lost response may still mean a
// published post.
type Transport struct {
	single   *http.Client
	retrying *retryablehttp.Client
}

// TransportConfig tunes the shared HTTP client
type TransportConfig struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// DefaultTransportConfig returns sensible defaults
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		Timeout:      60 * time.Second,
		RetryMax:     3,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
	}
}

// NewTransport creates a traced transport
func NewTransport(cfg TransportConfig) *Transport {
	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = base
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.Logger = zapLeveled{logger.Log.Sugar()}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Transport{single: base, retrying: rc}
}

// Do sends the request, retrying only idempotent methods
func (t *Transport) Do(req *http.Request) (*http.Response, error) {
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodPut:
		rreq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		return t.retrying.Do(rreq)
	default:
		return t.single.Do(req)
	}
}

// doJSON sends req and decodes a 2xx JSON body into out (if non-nil).
// Non-2xx responses become *PlatformError.
func (t *Transport) doJSON(platform Platform, req *http.Request, out interface{}) (http.Header, error) {
	resp, err := t.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", platform, scrubURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.Header, newPlatformError(platform, resp, body)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return resp.Header, fmt.Errorf("%s: decode response: %w", platform, err)
	}
	return resp.Header, nil
}

func (t *Transport) postForm(ctx context.Context, platform Platform, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = t.doJSON(platform, req, out)
	return err
}

func (t *Transport) postJSON(ctx context.Context, platform Platform, endpoint string, header http.Header, payload, out interface{}) (http.Header, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	return t.doJSON(platform, req, out)
}

func (t *Transport) getJSON(ctx context.Context, platform Platform, endpoint string, header http.Header, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	_, err = t.doJSON(platform, req, out)
	return err
}

// bearer puts the token in a header so it never shows up in a request URL
func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

// multipartBody builds a multipart/form-data body with plain fields and one file part
func multipartBody(fields map[string]string, fileField string, file *LocalFile) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, file.Name))
		ct := file.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// loadMedia returns the media bytes, downloading remote URLs
func (t *Transport) loadMedia(ctx context.Context, platform Platform, src *MediaSource) (*LocalFile, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: missing media", ErrInvalidContent)
	}
	if src.File != nil && len(src.File.Data) > 0 {
		return src.File, nil
	}
	remote := src.URL
	if remote == "" && src.File != nil {
		remote = src.File.PublicURL
	}
	if remote == "" {
		return nil, fmt.Errorf("%w: missing media", ErrInvalidContent)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remote, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: download media: %w", platform, scrubURLError(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		pe := newPlatformError(platform, resp, body)
		pe.Message = "media download failed: " + pe.Message
		return nil, pe
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaDownload+1))
	if err != nil {
		return nil, fmt.Errorf("%s: read media: %w", platform, err)
	}
	if len(data) > maxMediaDownload {
		return nil, fmt.Errorf("%w: media larger than %d bytes", ErrInvalidContent, maxMediaDownload)
	}

	name := "media"
	if u, err := url.Parse(remote); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." {
			name = base
		}
	}
	return &LocalFile{
		Name:        name,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
		PublicURL:   remote,
	}, nil
}

// sleepCtx waits for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// redactURL drops credentials, query and fragment. Signed media URLs and
// paging links carry secrets in the query string.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid url]"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// scrubURLError rewrites a *url.Error so its text no longer carries the
// request query. The type is kept for IsRetryable.
func scrubURLError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: redactURL(ue.URL), Err: ue.Err}
}

// zapLeveled adapts zap to retryablehttp.LeveledLogger
type zapLeveled struct {
	s *zap.SugaredLogger
}

func (z zapLeveled) Error(msg string, kv ...interface{}) { z.s.Errorw(msg, scrubKV(kv)...) }
func (z zapLeveled) Info(msg string, kv ...interface{})  { z.s.Debugw(msg, scrubKV(kv)...) }
func (z zapLeveled) Debug(msg string, kv ...interface{}) { z.s.Debugw(msg, scrubKV(kv)...) }
func (z zapLeveled) Warn(msg string, kv ...interface{})  { z.s.Warnw(msg, scrubKV(kv)...) }

func scrubKV(kv []interface{}) []interface{} {
	out := make([]interface{}, len(kv))
	for i, v := range kv {
		switch val := v.(type) {
		case *url.URL:
			out[i] = redactURL(val.String())
		case error:
			out[i] = scrubURLError(val)
		case string:
			if i > 0 && kv[i-1] == "url" {
				out[i] = redactURL(val)
			} else {
				out[i] = val
			}
		default:
			out[i] = v
		}
	}
	return out
}
