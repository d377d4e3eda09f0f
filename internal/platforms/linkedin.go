package platforms

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	DefaultLinkedInAPIURL  = "https://api.linkedin.com"
	DefaultLinkedInVersion = "202405"
)

// LinkedInConfig points the client at the REST API
type LinkedInConfig struct {
	APIURL  string
	Version string
}

// LinkedInClient publishes through the versioned posts API. Account
// ExternalID is a person or organization URN.
type LinkedInClient struct {
	cfg       LinkedInConfig
	transport *Transport
}

// NewLinkedInClient creates a LinkedIn publisher
func NewLinkedInClient(cfg LinkedInConfig, transport *Transport) *LinkedInClient {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultLinkedInAPIURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultLinkedInVersion
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &LinkedInClient{cfg: cfg, transport: transport}
}

func (c *LinkedInClient) Platform() Platform { return LinkedIn }

// AuthorURN normalizes an external id to a URN; bare ids are members
func AuthorURN(externalID string) string {
	if strings.HasPrefix(externalID, "urn:li:") {
		return externalID
	}
	return "urn:li:person:" + externalID
}

type linkedInPost struct {
	Author                    string               `json:"author"`
	Commentary                string               `json:"commentary"`
	Visibility                string               `json:"visibility"`
	Distribution              linkedInDistribution `json:"distribution"`
	Content                   *linkedInContent     `json:"content,omitempty"`
	LifecycleState            string               `json:"lifecycleState"`
	IsReshareDisabledByAuthor bool                 `json:"isReshareDisabledByAuthor"`
}

type linkedInDistribution struct {
	FeedDistribution               string   `json:"feedDistribution"`
	TargetEntities                 []string `json:"targetEntities"`
	ThirdPartyDistributionChannels []string `json:"thirdPartyDistributionChannels"`
}

type linkedInContent struct {
	Article *linkedInArticle `json:"article,omitempty"`
	Media   *linkedInMedia   `json:"media,omitempty"`
}

type linkedInArticle struct {
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
}

type linkedInMedia struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Publish creates a post as the author in account.ExternalID
func (c *LinkedInClient) Publish(ctx context.Context, account Account, content Content) (*Result, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}

	author := AuthorURN(account.ExternalID)
	post := linkedInPost{
		Author:     author,
		Commentary: content.Text,
		Visibility: "PUBLIC",
		Distribution: linkedInDistribution{
			FeedDistribution:               "MAIN_FEED",
			TargetEntities:                 []string{},
			ThirdPartyDistributionChannels: []string{},
		},
		LifecycleState: "PUBLISHED",
	}

	switch content.Kind {
	case KindLink:
		post.Content = &linkedInContent{Article: &linkedInArticle{Source: content.Link, Title: content.Title}}
	case KindImage, KindVideo:
		file, err := c.transport.loadMedia(ctx, LinkedIn, content.Media)
		if err != nil {
			return nil, err
		}
		var urn string
		if content.Kind == KindVideo {
			urn, err = c.uploadVideo(ctx, account.AccessToken, author, file)
		} else {
			urn, err = c.uploadImage(ctx, account.AccessToken, author, file)
		}
		if err != nil {
			return nil, err
		}
		post.Content = &linkedInContent{Media: &linkedInMedia{ID: urn, Title: content.Title}}
	}

	header, err := c.transport.postJSON(ctx, LinkedIn, c.cfg.APIURL+"/rest/posts", c.headers(account.AccessToken), post, nil)
	if err != nil {
		return nil, err
	}
	id := header.Get("x-restli-id")
	if id == "" {
		return nil, fmt.Errorf("linkedin: response missing x-restli-id")
	}
	return &Result{
		Platform: LinkedIn,
		RemoteID: id,
		URL:      "https://www.linkedin.com/feed/update/" + id,
	}, nil
}

func (c *LinkedInClient) uploadImage(ctx context.Context, token, owner string, file *LocalFile) (string, error) {
	payload := map[string]interface{}{
		"initializeUploadRequest": map[string]string{"owner": owner},
	}
	var initResp struct {
		Value struct {
			UploadURL string `json:"uploadUrl"`
			Image     string `json:"image"`
		} `json:"value"`
	}
	if _, err := c.transport.postJSON(ctx, LinkedIn, c.cfg.APIURL+"/rest/images?action=initializeUpload", c.headers(token), payload, &initResp); err != nil {
		return "", err
	}
	if initResp.Value.UploadURL == "" || initResp.Value.Image == "" {
		return "", fmt.Errorf("linkedin: image initializeUpload returned no upload url")
	}
	if _, err := c.put(ctx, token, initResp.Value.UploadURL, file.ContentType, file.Data); err != nil {
		return "", err
	}
	return initResp.Value.Image, nil
}

func (c *LinkedInClient) uploadVideo(ctx context.Context, token, owner string, file *LocalFile) (string, error) {
	payload := map[string]interface{}{
		"initializeUploadRequest": map[string]interface{}{
			"owner":           owner,
			"fileSizeBytes":   len(file.Data),
			"uploadCaptions":  false,
			"uploadThumbnail": false,
		},
	}
	var initResp struct {
		Value struct {
			Video              string `json:"video"`
			UploadToken        string `json:"uploadToken"`
			UploadInstructions []struct {
				UploadURL string `json:"uploadUrl"`
				FirstByte int64  `json:"firstByte"`
				LastByte  int64  `json:"lastByte"`
			} `json:"uploadInstructions"`
		} `json:"value"`
	}
	if _, err := c.transport.postJSON(ctx, LinkedIn, c.cfg.APIURL+"/rest/videos?action=initializeUpload", c.headers(token), payload, &initResp); err != nil {
		return "", err
	}
	if initResp.Value.Video == "" || len(initResp.Value.UploadInstructions) == 0 {
		return "", fmt.Errorf("linkedin: video initializeUpload returned no instructions")
	}

	size := int64(len(file.Data))
	etags := make([]string, 0, len(initResp.Value.UploadInstructions))
	for i, part := range initResp.Value.UploadInstructions {
		if part.FirstByte < 0 || part.LastByte >= size || part.FirstByte > part.LastByte {
			return "", fmt.Errorf("linkedin: upload part %d has invalid range %d-%d", i, part.FirstByte, part.LastByte)
		}
		header, err := c.put(ctx, token, part.UploadURL, "application/octet-stream", file.Data[part.FirstByte:part.LastByte+1])
		if err != nil {
			return "", fmt.Errorf("linkedin: upload part %d: %w", i, err)
		}
		etags = append(etags, header.Get("ETag"))
	}

	finalize := map[string]interface{}{
		"finalizeUploadRequest": map[string]interface{}{
			"video":           initResp.Value.Video,
			"uploadToken":     initResp.Value.UploadToken,
			"uploadedPartIds": etags,
		},
	}
	if _, err := c.transport.postJSON(ctx, LinkedIn, c.cfg.APIURL+"/rest/videos?action=finalizeUpload", c.headers(token), finalize, nil); err != nil {
		return "", err
	}
	return initResp.Value.Video, nil
}

// put uploads raw bytes to a LinkedIn-issued upload URL
func (c *LinkedInClient) put(ctx context.Context, token, uploadURL, contentType string, data []byte) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	return c.transport.doJSON(LinkedIn, req, nil)
}

func (c *LinkedInClient) headers(token string) http.Header {
	return http.Header{
		"Authorization":             {"Bearer " + token},
		"Linkedin-Version":          {c.cfg.Version},
		"X-Restli-Protocol-Version": {"2.0.0"},
	}
}
