package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultTwitterAPIURL    = "https://api.twitter.com"
	DefaultTwitterUploadURL = "https://upload.twitter.com/1.1"

	// MaxTweetLength is the tweet text limit in runes
	MaxTweetLength = 280

	chunkSize = 4 << 20
)

// TwitterConfig points the client at the API hosts
type TwitterConfig struct {
	APIURL    string
	UploadURL string
}

// TwitterClient publishes tweets with an OAuth 2.0 user-context token
type TwitterClient struct {
	cfg       TwitterConfig
	transport *Transport

	// MaxStatusPolls bounds how long a video may stay in processing;
	// StatusInterval is used when the server gives no check_after_secs
	MaxStatusPolls int
	StatusInterval time.Duration
}

// NewTwitterClient creates a Twitter publisher
func NewTwitterClient(cfg TwitterConfig, transport *Transport) *TwitterClient {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultTwitterAPIURL
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultTwitterUploadURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.UploadURL = strings.TrimRight(cfg.UploadURL, "/")
	return &TwitterClient{cfg: cfg, transport: transport, MaxStatusPolls: 60, StatusInterval: time.Second}
}

func (c *TwitterClient) Platform() Platform { return Twitter }

// TweetText builds the tweet body for content and enforces the length limit
func TweetText(content Content) (string, error) {
	text := strings.TrimSpace(content.Text)
	if content.Kind == KindLink {
		if text == "" {
			text = content.Link
		} else {
			text = text + " " + content.Link
		}
	}
	if n := utf8.RuneCountInString(text); n > MaxTweetLength {
		return "", fmt.Errorf("%w: tweet is %d characters, limit is %d", ErrInvalidContent, n, MaxTweetLength)
	}
	return text, nil
}

type tweetRequest struct {
	Text  string      `json:"text,omitempty"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

// Publish posts a tweet, uploading media first when needed
func (c *TwitterClient) Publish(ctx context.Context, account Account, content Content) (*Result, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}
	text, err := TweetText(content)
	if err != nil {
		return nil, err
	}

	req := tweetRequest{Text: text}
	if content.Kind == KindImage || content.Kind == KindVideo {
		file, err := c.transport.loadMedia(ctx, Twitter, content.Media)
		if err != nil {
			return nil, err
		}
		var mediaID string
		if content.Kind == KindVideo {
			mediaID, err = c.uploadChunked(ctx, account.AccessToken, file)
		} else {
			mediaID, err = c.uploadSimple(ctx, account.AccessToken, file)
		}
		if err != nil {
			return nil, err
		}
		req.Media = &tweetMedia{MediaIDs: []string{mediaID}}
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if _, err := c.transport.postJSON(ctx, Twitter, c.cfg.APIURL+"/2/tweets", bearer(account.AccessToken), req, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, fmt.Errorf("twitter: response missing tweet id")
	}
	return &Result{
		Platform: Twitter,
		RemoteID: resp.Data.ID,
		URL:      "https://twitter.com/i/web/status/" + resp.Data.ID,
	}, nil
}

type uploadResponse struct {
	MediaIDString  string          `json:"media_id_string"`
	ProcessingInfo *processingInfo `json:"processing_info"`
}

type processingInfo struct {
	State          string `json:"state"`
	CheckAfterSecs int    `json:"check_after_secs"`
	Error          *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *TwitterClient) uploadSimple(ctx context.Context, token string, file *LocalFile) (string, error) {
	var out uploadResponse
	if err := c.uploadMultipart(ctx, token, nil, file, &out); err != nil {
		return "", err
	}
	if out.MediaIDString == "" {
		return "", fmt.Errorf("twitter: upload returned no media id")
	}
	return out.MediaIDString, nil
}

// uploadChunked runs INIT, APPEND per segment, FINALIZE and waits on STATUS
func (c *TwitterClient) uploadChunked(ctx context.Context, token string, file *LocalFile) (string, error) {
	mediaType := file.ContentType
	if mediaType == "" {
		mediaType = "video/mp4"
	}

	var initResp uploadResponse
	err := c.uploadForm(ctx, token, url.Values{
		"command":        {"INIT"},
		"total_bytes":    {strconv.Itoa(len(file.Data))},
		"media_type":     {mediaType},
		"media_category": {"tweet_video"},
	}, &initResp)
	if err != nil {
		return "", err
	}
	mediaID := initResp.MediaIDString
	if mediaID == "" {
		return "", fmt.Errorf("twitter: INIT returned no media id")
	}

	for segment, offset := 0, 0; offset < len(file.Data); segment, offset = segment+1, offset+chunkSize {
		end := min(offset+chunkSize, len(file.Data))
		chunk := &LocalFile{Name: file.Name, ContentType: "application/octet-stream", Data: file.Data[offset:end]}
		fields := map[string]string{
			"command":       "APPEND",
			"media_id":      mediaID,
			"segment_index": strconv.Itoa(segment),
		}
		if err := c.uploadMultipart(ctx, token, fields, chunk, nil); err != nil {
			return "", fmt.Errorf("twitter: APPEND segment %d: %w", segment, err)
		}
	}

	var fin uploadResponse
	if err := c.uploadForm(ctx, token, url.Values{"command": {"FINALIZE"}, "media_id": {mediaID}}, &fin); err != nil {
		return "", err
	}

	info := fin.ProcessingInfo
	for polls := 0; info != nil; polls++ {
		switch info.State {
		case "succeeded":
			return mediaID, nil
		case "failed":
			msg := "video processing failed"
			if info.Error != nil && info.Error.Message != "" {
				msg = info.Error.Message
			}
			return "", fmt.Errorf("%w: %s", ErrInvalidContent, msg)
		}
		if polls >= c.MaxStatusPolls {
			return "", &PlatformError{Platform: Twitter, StatusCode: 503, Message: "video still processing"}
		}
		wait := c.StatusInterval
		if info.CheckAfterSecs > 0 {
			wait = time.Duration(info.CheckAfterSecs) * time.Second
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return "", err
		}

		var status uploadResponse
		q := url.Values{"command": {"STATUS"}, "media_id": {mediaID}}
		if err := c.transport.getJSON(ctx, Twitter, c.cfg.UploadURL+"/media/upload.json?"+q.Encode(), bearer(token), &status); err != nil {
			return "", err
		}
		info = status.ProcessingInfo
	}
	return mediaID, nil
}

func (c *TwitterClient) uploadForm(ctx context.Context, token string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL+"/media/upload.json", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	_, err = c.transport.doJSON(Twitter, req, out)
	return err
}

func (c *TwitterClient) uploadMultipart(ctx context.Context, token string, fields map[string]string, file *LocalFile, out interface{}) error {
	body, contentType, err := multipartBody(fields, "media", file)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL+"/media/upload.json", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	_, err = c.transport.doJSON(Twitter, req, out)
	return err
}
