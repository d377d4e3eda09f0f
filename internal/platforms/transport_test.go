package platforms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// dropConnection closes the connection without answering
func dropConnection(t *testing.T, w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !assert.True(t, ok) {
		return
	}
	conn, _, err := hj.Hijack()
	if assert.NoError(t, err) {
		conn.Close()
	}
}

func TestTransportRetriesIdempotentRequests(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	err := testTransport().getJSON(context.Background(), Facebook, srv.URL, nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTransportNeverRetriesPost(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := testTransport().postForm(context.Background(), Facebook, srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTransportGivesUpWithLastResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"An unexpected error has occurred","code":2}}`))
	}))
	defer srv.Close()

	err := testTransport().getJSON(context.Background(), Facebook, srv.URL, nil, nil)
	var pe *PlatformError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 500, pe.StatusCode)
	assert.Equal(t, 2, pe.Code)
}

func TestLoadMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/missing.png") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	tr := testTransport()

	file, err := tr.loadMedia(context.Background(), Twitter, &MediaSource{URL: srv.URL + "/img/logo.png"})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), file.Data)
	assert.Equal(t, "image/png", file.ContentType)
	assert.Equal(t, "logo.png", file.Name)

	local := &LocalFile{Name: "a.png", Data: []byte("local")}
	file, err = tr.loadMedia(context.Background(), Twitter, &MediaSource{File: local})
	require.NoError(t, err)
	assert.Same(t, local, file)

	_, err = tr.loadMedia(context.Background(), Twitter, &MediaSource{URL: srv.URL + "/missing.png"})
	var pe *PlatformError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 404, pe.StatusCode)
	assert.False(t, IsRetryable(err))
}

func TestTransportErrorsOmitQuerySecrets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dropConnection(t, w)
	}))
	defer srv.Close()

	tr := testTransport()
	err := tr.getJSON(context.Background(), Instagram, srv.URL+"/c1?access_token=SECRET-PAGE-TOKEN&fields=status", nil, nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-PAGE-TOKEN")
	assert.Contains(t, err.Error(), "/c1")
	assert.True(t, IsRetryable(err))

	_, err = tr.loadMedia(context.Background(), Twitter, &MediaSource{URL: srv.URL + "/v.mp4?X-Amz-Signature=SIGNED"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SIGNED")
}

func TestRetryLoggerScrubsURLs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := zapLeveled{zap.New(core).Sugar()}

	reqErr := &url.Error{Op: "Get", URL: "https://graph.example/c1?access_token=SECRET", Err: errors.New("EOF")}
	l.Error("request failed", "error", reqErr, "method", "GET", "url", "https://graph.example/c1?access_token=SECRET")
	l.Debug("performing request", "url", &url.URL{Scheme: "https", Host: "graph.example", Path: "/c1", RawQuery: "access_token=SECRET"})

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		for _, f := range entry.Context {
			assert.NotContains(t, f.String, "SECRET")
			if f.Interface != nil {
				if e, ok := f.Interface.(error); ok {
					assert.NotContains(t, e.Error(), "SECRET")
				}
			}
		}
	}
	assert.Equal(t, "https://graph.example/c1", logs.All()[1].ContextMap()["url"])
}
