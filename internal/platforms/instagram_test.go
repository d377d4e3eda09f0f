package platforms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstagram(url string) *InstagramClient {
	c := NewInstagramClient(GraphConfig{BaseURL: url}, testTransport())
	c.PollInterval = time.Millisecond
	c.PollAttempts = 5
	return c
}

func TestInstagramPublishImage(t *testing.T) {
	var published int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/ig1/media":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "https://cdn.example/a.jpg", r.PostForm.Get("image_url"))
			assert.Equal(t, "caption", r.PostForm.Get("caption"))
			assert.Empty(t, r.PostForm.Get("media_type"))
			w.Write([]byte(`{"id":"container1"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/ig1/media_publish":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "container1", r.PostForm.Get("creation_id"))
			atomic.AddInt32(&published, 1)
			w.Write([]byte(`{"id":"media1"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/media1":
			w.Write([]byte(`{"permalink":"https://www.instagram.com/p/abc/"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	res, err := newInstagram(srv.URL).Publish(context.Background(), Account{ExternalID: "ig1", AccessToken: "t"}, Content{
		Kind:  KindImage,
		Text:  "caption",
		Media: &MediaSource{URL: "https://cdn.example/a.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "media1", res.RemoteID)
	assert.Equal(t, "https://www.instagram.com/p/abc/", res.URL)
	assert.Equal(t, int32(1), atomic.LoadInt32(&published))
}

func TestInstagramPublishVideoWaitsForContainer(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/ig1/media":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "REELS", r.PostForm.Get("media_type"))
			assert.Equal(t, "https://cdn.example/stored.mp4", r.PostForm.Get("video_url"))
			w.Write([]byte(`{"id":"c2"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/c2":
			assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
			assert.Empty(t, r.URL.Query().Get("access_token"))
			if atomic.AddInt32(&polls, 1) < 3 {
				w.Write([]byte(`{"status_code":"IN_PROGRESS"}`))
				return
			}
			w.Write([]byte(`{"status_code":"FINISHED"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/ig1/media_publish":
			assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
			w.Write([]byte(`{"id":"reel1"}`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	// uploaded files are published through their stored public URL
	res, err := newInstagram(srv.URL).Publish(context.Background(), Account{ExternalID: "ig1", AccessToken: "t"}, Content{
		Kind:  KindVideo,
		Media: &MediaSource{File: &LocalFile{Name: "v.mp4", PublicURL: "https://cdn.example/stored.mp4"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "reel1", res.RemoteID)
}

func TestInstagramPollFailureKeepsTokenOutOfError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/ig1/media":
			w.Write([]byte(`{"id":"container1"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/container1":
			dropConnection(t, w)
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	_, err := newInstagram(srv.URL).Publish(context.Background(), Account{ExternalID: "ig1", AccessToken: "SECRET-PAGE-TOKEN"}, Content{
		Kind:  KindVideo,
		Media: &MediaSource{URL: "https://cdn.example/clip.mp4"},
	})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-PAGE-TOKEN")
	assert.True(t, IsRetryable(err))
}

func TestInstagramContainerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"id":"c3"}`))
			return
		}
		w.Write([]byte(`{"status_code":"ERROR","status":"Unsupported codec"}`))
	}))
	defer srv.Close()

	_, err := newInstagram(srv.URL).Publish(context.Background(), Account{ExternalID: "ig1", AccessToken: "t"}, Content{
		Kind:  KindVideo,
		Media: &MediaSource{URL: "https://cdn.example/v.mp4"},
	})
	assert.ErrorIs(t, err, ErrInvalidContent)
	assert.False(t, IsRetryable(err))
}

func TestInstagramContainerStillProcessingIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Write([]byte(`{"id":"c4"}`))
			return
		}
		w.Write([]byte(`{"status_code":"IN_PROGRESS"}`))
	}))
	defer srv.Close()

	_, err := newInstagram(srv.URL).Publish(context.Background(), Account{ExternalID: "ig1", AccessToken: "t"}, Content{
		Kind:  KindVideo,
		Media: &MediaSource{URL: "https://cdn.example/v.mp4"},
	})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestInstagramUnsupportedContent(t *testing.T) {
	ig := newInstagram("http://127.0.0.1:1")
	acct := Account{ExternalID: "ig1", AccessToken: "t"}

	_, err := ig.Publish(context.Background(), acct, Content{Kind: KindText, Text: "hi"})
	assert.ErrorIs(t, err, ErrUnsupportedContent)

	_, err = ig.Publish(context.Background(), acct, Content{Kind: KindLink, Link: "https://example.com"})
	assert.ErrorIs(t, err, ErrUnsupportedContent)

	_, err = ig.Publish(context.Background(), acct, Content{
		Kind:  KindImage,
		Media: &MediaSource{File: &LocalFile{Name: "a.png", Data: []byte{1}}},
	})
	assert.ErrorIs(t, err, ErrUnsupportedContent)
	assert.False(t, IsRetryable(err))
}
