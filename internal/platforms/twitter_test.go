package platforms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTweetText(t *testing.T) {
	text, err := TweetText(Content{Kind: KindLink, Text: "Read this", Link: "https://example.com/post"})
	require.NoError(t, err)
	assert.Equal(t, "Read this https://example.com/post", text)

	text, err = TweetText(Content{Kind: KindLink, Link: "https://example.com/post"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/post", text)

	// runes, not bytes
	_, err = TweetText(Content{Kind: KindText, Text: strings.Repeat("é", MaxTweetLength)})
	assert.NoError(t, err)

	_, err = TweetText(Content{Kind: KindText, Text: strings.Repeat("a", MaxTweetLength+1)})
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestTwitterPublishText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/tweets", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["text"])
		assert.NotContains(t, body, "media")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"1789","text":"hello"}}`))
	}))
	defer srv.Close()

	tw := NewTwitterClient(TwitterConfig{APIURL: srv.URL, UploadURL: srv.URL}, testTransport())
	res, err := tw.Publish(context.Background(), Account{AccessToken: "user-token"}, Content{Kind: KindText, Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "1789", res.RemoteID)
	assert.Equal(t, "https://twitter.com/i/web/status/1789", res.URL)
}

func TestTwitterPublishImageDownloadsRemoteMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cdn/a.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("png"))
		case "/media/upload.json":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			f, _, err := r.FormFile("media")
			require.NoError(t, err)
			data, _ := io.ReadAll(f)
			assert.Equal(t, []byte("png"), data)
			w.Write([]byte(`{"media_id":42,"media_id_string":"42"}`))
		case "/2/tweets":
			var body tweetRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.NotNil(t, body.Media)
			assert.Equal(t, []string{"42"}, body.Media.MediaIDs)
			w.Write([]byte(`{"data":{"id":"t1"}}`))
		}
	}))
	defer srv.Close()

	tw := NewTwitterClient(TwitterConfig{APIURL: srv.URL, UploadURL: srv.URL}, testTransport())
	res, err := tw.Publish(context.Background(), Account{AccessToken: "t"}, Content{
		Kind:  KindImage,
		Text:  "look",
		Media: &MediaSource{URL: srv.URL + "/cdn/a.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", res.RemoteID)
}

func TestTwitterChunkedVideoUpload(t *testing.T) {
	video := make([]byte, 9<<20)
	for i := range video {
		video[i] = byte(i)
	}

	var (
		mu       sync.Mutex
		commands []string
		received int
		statuses int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()

		if r.URL.Path == "/2/tweets" {
			w.Write([]byte(`{"data":{"id":"vt1"}}`))
			return
		}

		if r.Method == http.MethodGet {
			assert.Equal(t, "STATUS", r.URL.Query().Get("command"))
			statuses++
			commands = append(commands, "STATUS")
			w.Write([]byte(`{"media_id_string":"m1","processing_info":{"state":"succeeded"}}`))
			return
		}

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			require.NoError(t, r.ParseMultipartForm(8<<20))
			assert.Equal(t, "APPEND", r.FormValue("command"))
			assert.Equal(t, "m1", r.FormValue("media_id"))
			f, _, err := r.FormFile("media")
			require.NoError(t, err)
			data, _ := io.ReadAll(f)
			received += len(data)
			commands = append(commands, "APPEND:"+r.FormValue("segment_index"))
			w.WriteHeader(http.StatusNoContent)
			return
		}

		require.NoError(t, r.ParseForm())
		cmd := r.PostForm.Get("command")
		commands = append(commands, cmd)
		switch cmd {
		case "INIT":
			assert.Equal(t, "9437184", r.PostForm.Get("total_bytes"))
			assert.Equal(t, "tweet_video", r.PostForm.Get("media_category"))
			w.Write([]byte(`{"media_id_string":"m1"}`))
		case "FINALIZE":
			w.Write([]byte(`{"media_id_string":"m1","processing_info":{"state":"pending"}}`))
		}
	}))
	defer srv.Close()

	tw := NewTwitterClient(TwitterConfig{APIURL: srv.URL, UploadURL: srv.URL}, testTransport())
	tw.StatusInterval = time.Millisecond

	res, err := tw.Publish(context.Background(), Account{AccessToken: "t"}, Content{
		Kind:  KindVideo,
		Media: &MediaSource{File: &LocalFile{Name: "v.mp4", ContentType: "video/mp4", Data: video}},
	})
	require.NoError(t, err)
	assert.Equal(t, "vt1", res.RemoteID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"INIT", "APPEND:0", "APPEND:1", "APPEND:2", "FINALIZE", "STATUS"}, commands)
	assert.Equal(t, len(video), received)
	assert.Equal(t, 1, statuses)
}

func TestTwitterVideoProcessingFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		r.ParseForm()
		if r.PostForm.Get("command") == "INIT" {
			w.Write([]byte(`{"media_id_string":"m2"}`))
			return
		}
		w.Write([]byte(`{"media_id_string":"m2","processing_info":{"state":"failed","error":{"message":"InvalidMedia"}}}`))
	}))
	defer srv.Close()

	tw := NewTwitterClient(TwitterConfig{APIURL: srv.URL, UploadURL: srv.URL}, testTransport())
	_, err := tw.Publish(context.Background(), Account{AccessToken: "t"}, Content{
		Kind:  KindVideo,
		Media: &MediaSource{File: &LocalFile{Name: "v.mp4", Data: []byte("tiny")}},
	})
	assert.ErrorIs(t, err, ErrInvalidContent)
	assert.Contains(t, err.Error(), "InvalidMedia")
}

func TestTwitterRateLimited(t *testing.T) {
	reset := time.Now().Add(5 * time.Minute).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-rate-limit-reset", strconv.FormatInt(reset, 10))
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"title":"Too Many Requests","detail":"Too Many Requests","type":"about:blank","status":429}`))
	}))
	defer srv.Close()

	tw := NewTwitterClient(TwitterConfig{APIURL: srv.URL, UploadURL: srv.URL}, testTransport())
	_, err := tw.Publish(context.Background(), Account{AccessToken: "t"}, Content{Kind: KindText, Text: "hi"})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.InDelta(t, (5 * time.Minute).Seconds(), RetryAfter(err).Seconds(), 2)
}
