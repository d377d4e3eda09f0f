// Package platforms adapts brandcast content to the publishing APIs of each
// social network. Every adapter turns one Content into exactly one remote post.
package platforms

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Platform identifies a social network
type Platform string

const (
	Facebook  Platform = "facebook"
	Instagram Platform = "instagram"
	Twitter   Platform = "twitter"
	LinkedIn  Platform = "linkedin"
)

// All lists every supported platform
var All = []Platform{Facebook, Instagram, Twitter, LinkedIn}

// ParsePlatform parses a platform name, case-insensitively
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// ContentKind is the shape of a post
type ContentKind string

const (
	KindText  ContentKind = "text"
	KindImage ContentKind = "image"
	KindVideo ContentKind = "video"
	KindLink  ContentKind = "link"
)

// ParseContentKind parses a content kind; empty means text
func ParseContentKind(s string) (ContentKind, error) {
	switch k := ContentKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindText, nil
	case KindText, KindImage, KindVideo, KindLink:
		return k, nil
	}
	return "", fmt.Errorf("unknown content kind %q", s)
}

// LocalFile is media uploaded to brandcast. PublicURL is the CDN address of
// the stored copy for platforms that only accept URLs.
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
	PublicURL   string
}

// MediaSource is either a remote URL or an uploaded file, never both
type MediaSource struct {
	URL  string
	File *LocalFile
}

// Content is what gets published
type Content struct {
	Kind  ContentKind
	Text  string
	Title string
	Link  string
	Media *MediaSource
}

// Validate checks the content is well formed for its kind
func (c Content) Validate() error {
	switch c.Kind {
	case KindText:
		if strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("%w: text post requires text", ErrInvalidContent)
		}
	case KindLink:
		if !isHTTPURL(c.Link) {
			return fmt.Errorf("%w: link post requires an absolute http(s) link", ErrInvalidContent)
		}
	case KindImage, KindVideo:
		if c.Media == nil {
			return fmt.Errorf("%w: %s post requires media", ErrInvalidContent, c.Kind)
		}
		hasURL := c.Media.URL != ""
		hasFile := c.Media.File != nil
		if hasURL == hasFile {
			return fmt.Errorf("%w: media needs exactly one of url or file", ErrInvalidContent)
		}
		if hasURL && !isHTTPURL(c.Media.URL) {
			return fmt.Errorf("%w: media url must be absolute http(s)", ErrInvalidContent)
		}
		if hasFile && len(c.Media.File.Data) == 0 && c.Media.File.PublicURL == "" {
			return fmt.Errorf("%w: media file is empty", ErrInvalidContent)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidContent, c.Kind)
	}
	return nil
}

// CheckSupported reports whether the platform can take this content at all.
// Content that passes here can still fail upstream for other reasons.
func CheckSupported(p Platform, c Content) error {
	switch p {
	case Instagram:
		if c.Kind == KindText || c.Kind == KindLink {
			return fmt.Errorf("%w: instagram posts need an image or video", ErrUnsupportedContent)
		}
	case Twitter:
		if _, err := TweetText(c); err != nil {
			return err
		}
	}
	return nil
}

// mediaURL returns a URL for the media, falling back to the stored copy
func (c Content) mediaURL() string {
	if c.Media == nil {
		return ""
	}
	if c.Media.URL != "" {
		return c.Media.URL
	}
	if c.Media.File != nil {
		return c.Media.File.PublicURL
	}
	return ""
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Account is the identity a post is published as
type Account struct {
	Platform    Platform
	ExternalID  string
	AccessToken string
}

// Result describes a published post
type Result struct {
	Platform Platform `json:"platform"`
	RemoteID string   `json:"remote_id"`
	URL      string   `json:"url,omitempty"`
}

// Publisher publishes content to one platform
type Publisher interface {
	Platform() Platform
	Publish(ctx context.Context, account Account, content Content) (*Result, error)
}

// Registry maps platforms to their publishers
type Registry struct {
	mu         sync.RWMutex
	publishers map[Platform]Publisher
}

// NewRegistry creates a registry holding the given publishers
func NewRegistry(publishers ...Publisher) *Registry {
	r := &Registry{publishers: make(map[Platform]Publisher)}
	for _, p := range publishers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the publisher for its platform
func (r *Registry) Register(p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[p.Platform()] = p
}

// Get returns the publisher for a platform
func (r *Registry) Get(platform Platform) (Publisher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.publishers[platform]
	if !ok {
		return nil, fmt.Errorf("%w: no publisher for %s", ErrUnsupportedContent, platform)
	}
	return p, nil
}
