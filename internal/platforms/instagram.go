package platforms

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// InstagramClient publishes to Instagram business accounts with the Graph
// API container flow: create a media container, wait for it, publish it.
type InstagramClient struct {
	cfg       GraphConfig
	transport *Transport

	// PollInterval and PollAttempts bound the wait for video containers
	PollInterval time.Duration
	PollAttempts int
}

// NewInstagramClient creates an Instagram publisher
func NewInstagramClient(cfg GraphConfig, transport *Transport) *InstagramClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGraphURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &InstagramClient{
		cfg:          cfg,
		transport:    transport,
		PollInterval: 5 * time.Second,
		PollAttempts: 60,
	}
}

func (c *InstagramClient) Platform() Platform { return Instagram }

// Publish creates and publishes a container for the account in account.ExternalID
func (c *InstagramClient) Publish(ctx context.Context, account Account, content Content) (*Result, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}
	switch content.Kind {
	case KindText, KindLink:
		return nil, fmt.Errorf("%w: instagram posts need an image or video", ErrUnsupportedContent)
	}

	mediaURL := content.mediaURL()
	if mediaURL == "" {
		return nil, fmt.Errorf("%w: instagram only accepts media by public url", ErrUnsupportedContent)
	}

	ig := url.PathEscape(account.ExternalID)
	form := url.Values{"access_token": {account.AccessToken}}
	if content.Text != "" {
		form.Set("caption", content.Text)
	}
	if content.Kind == KindVideo {
		form.Set("media_type", "REELS")
		form.Set("video_url", mediaURL)
	} else {
		form.Set("image_url", mediaURL)
	}

	var container graphID
	if err := c.transport.postForm(ctx, Instagram, c.cfg.BaseURL+"/"+ig+"/media", form, &container); err != nil {
		return nil, err
	}
	if container.ID == "" {
		return nil, fmt.Errorf("instagram: response missing container id")
	}

	if content.Kind == KindVideo {
		if err := c.waitForContainer(ctx, container.ID, account.AccessToken); err != nil {
			return nil, err
		}
	}

	var published graphID
	err := c.transport.postForm(ctx, Instagram, c.cfg.BaseURL+"/"+ig+"/media_publish", url.Values{
		"creation_id":  {container.ID},
		"access_token": {account.AccessToken},
	}, &published)
	if err != nil {
		return nil, err
	}
	if published.ID == "" {
		return nil, fmt.Errorf("instagram: response missing media id")
	}

	res := &Result{Platform: Instagram, RemoteID: published.ID}
	res.URL = c.permalink(ctx, published.ID, account.AccessToken)
	return res, nil
}

// waitForContainer polls status_code until the video finished processing
func (c *InstagramClient) waitForContainer(ctx context.Context, containerID, token string) error {
	q := url.Values{"fields": {"status_code,status"}}
	endpoint := c.cfg.BaseURL + "/" + url.PathEscape(containerID) + "?" + q.Encode()

	for attempt := 0; attempt < c.PollAttempts; attempt++ {
		var status struct {
			StatusCode string `json:"status_code"`
			Status     string `json:"status"`
		}
		if err := c.transport.getJSON(ctx, Instagram, endpoint, bearer(token), &status); err != nil {
			return err
		}
		switch status.StatusCode {
		case "FINISHED", "PUBLISHED":
			return nil
		case "ERROR":
			return fmt.Errorf("%w: instagram rejected the video: %s", ErrInvalidContent, status.Status)
		case "EXPIRED":
			return &PlatformError{Platform: Instagram, StatusCode: 200, Message: "media container expired"}
		}
		if err := sleepCtx(ctx, c.PollInterval); err != nil {
			return err
		}
	}
	return &PlatformError{
		Platform:   Instagram,
		StatusCode: 503,
		Message:    fmt.Sprintf("media container %s still processing", containerID),
	}
}

// permalink looks up the public URL; failures only cost the link
func (c *InstagramClient) permalink(ctx context.Context, mediaID, token string) string {
	q := url.Values{"fields": {"permalink"}}
	var out struct {
		Permalink string `json:"permalink"`
	}
	if err := c.transport.getJSON(ctx, Instagram, c.cfg.BaseURL+"/"+url.PathEscape(mediaID)+"?"+q.Encode(), bearer(token), &out); err != nil {
		return ""
	}
	return out.Permalink
}
