package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGraphURL is the versioned Graph API base
const DefaultGraphURL = "https://graph.facebook.com/v19.0"

// GraphConfig configures the Facebook and Instagram clients
type GraphConfig struct {
	BaseURL   string
	AppID     string
	AppSecret string
}

// FacebookClient publishes to Facebook pages through the Graph API
type FacebookClient struct {
	cfg       GraphConfig
	transport *Transport
}

// NewFacebookClient creates a Facebook publisher
func NewFacebookClient(cfg GraphConfig, transport *Transport) *FacebookClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGraphURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &FacebookClient{cfg: cfg, transport: transport}
}

func (c *FacebookClient) Platform() Platform { return Facebook }

type graphID struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}

// Publish posts content to the page identified by account.ExternalID
func (c *FacebookClient) Publish(ctx context.Context, account Account, content Content) (*Result, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}

	page := url.PathEscape(account.ExternalID)
	var (
		out graphID
		err error
	)

	switch content.Kind {
	case KindText:
		err = c.postForm(ctx, "/"+page+"/feed", account.AccessToken, url.Values{
			"message": {content.Text},
		}, &out)
	case KindLink:
		form := url.Values{"link": {content.Link}}
		if content.Text != "" {
			form.Set("message", content.Text)
		}
		err = c.postForm(ctx, "/"+page+"/feed", account.AccessToken, form, &out)
	case KindImage:
		err = c.publishMedia(ctx, page+"/photos", "url", "caption", account.AccessToken, content, &out)
	case KindVideo:
		err = c.publishMedia(ctx, page+"/videos", "file_url", "description", account.AccessToken, content, &out)
	}
	if err != nil {
		return nil, err
	}

	// photos return both id and post_id; the post is what shows on the page
	id := out.PostID
	if id == "" {
		id = out.ID
	}
	if id == "" {
		return nil, fmt.Errorf("facebook: response missing post id")
	}
	return &Result{
		Platform: Facebook,
		RemoteID: id,
		URL:      "https://www.facebook.com/" + id,
	}, nil
}

// publishMedia posts a photo or video either by URL or as a multipart upload
func (c *FacebookClient) publishMedia(ctx context.Context, edge, urlField, textField, token string, content Content, out interface{}) error {
	if content.Media.URL != "" {
		form := url.Values{urlField: {content.Media.URL}}
		if content.Text != "" {
			form.Set(textField, content.Text)
		}
		return c.postForm(ctx, "/"+edge, token, form, out)
	}

	file, err := c.transport.loadMedia(ctx, Facebook, content.Media)
	if err != nil {
		return err
	}
	fields := map[string]string{"access_token": token}
	if content.Text != "" {
		fields[textField] = content.Text
	}
	body, contentType, err := multipartBody(fields, "source", file)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/"+edge, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	_, err = c.transport.doJSON(Facebook, req, out)
	return err
}

func (c *FacebookClient) postForm(ctx context.Context, path, token string, form url.Values, out interface{}) error {
	form.Set("access_token", token)
	return c.transport.postForm(ctx, Facebook, c.cfg.BaseURL+path, form, out)
}

// LongLivedToken is the result of a token exchange
type LongLivedToken struct {
	AccessToken string
	ExpiresAt   *time.Time
}

// ExchangeLongLivedToken swaps a short-lived user token for a long-lived one
func (c *FacebookClient) ExchangeLongLivedToken(ctx context.Context, shortToken string) (*LongLivedToken, error) {
	if c.cfg.AppID == "" || c.cfg.AppSecret == "" {
		return nil, fmt.Errorf("facebook: app credentials not configured")
	}
	form := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {c.cfg.AppID},
		"client_secret":     {c.cfg.AppSecret},
		"fb_exchange_token": {shortToken},
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := c.transport.postForm(ctx, Facebook, c.cfg.BaseURL+"/oauth/access_token", form, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("facebook: token exchange returned no token")
	}

	tok := &LongLivedToken{AccessToken: resp.AccessToken}
	if resp.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
		tok.ExpiresAt = &exp
	}
	return tok, nil
}

// Page is a Facebook page the user manages
type Page struct {
	ID          string
	Name        string
	AccessToken string
	Instagram   *InstagramAccount
}

// InstagramAccount is an Instagram business account linked to a page
type InstagramAccount struct {
	ID       string
	Username string
}

// ListPages returns the pages the user token manages, with page tokens
func (c *FacebookClient) ListPages(ctx context.Context, userToken string) ([]Page, error) {
	q := url.Values{
		"fields": {"id,name,access_token,instagram_business_account{id,username}"},
		"limit":  {"100"},
	}
	next := c.cfg.BaseURL + "/me/accounts?" + q.Encode()

	var pages []Page
	for next != "" {
		var resp struct {
			Data []struct {
				ID                       string `json:"id"`
				Name                     string `json:"name"`
				AccessToken              string `json:"access_token"`
				InstagramBusinessAccount *struct {
					ID       string `json:"id"`
					Username string `json:"username"`
				} `json:"instagram_business_account"`
			} `json:"data"`
			Paging struct {
				Next string `json:"next"`
			} `json:"paging"`
		}
		if err := c.transport.getJSON(ctx, Facebook, next, bearer(userToken), &resp); err != nil {
			return nil, err
		}
		for _, d := range resp.Data {
			p := Page{ID: d.ID, Name: d.Name, AccessToken: d.AccessToken}
			if d.InstagramBusinessAccount != nil && d.InstagramBusinessAccount.ID != "" {
				p.Instagram = &InstagramAccount{
					ID:       d.InstagramBusinessAccount.ID,
					Username: d.InstagramBusinessAccount.Username,
				}
			}
			pages = append(pages, p)
		}
		next = withoutToken(resp.Paging.Next)
		if len(pages) >= 1000 {
			break
		}
	}
	return pages, nil
}

// withoutToken strips access_token from a Graph paging link; the token
// travels in the Authorization header instead.
func withoutToken(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Del("access_token")
	u.RawQuery = q.Encode()
	return u.String()
}
