package config

import (
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"
)

// TwitterEndpoint is the OAuth 2.0 endpoint for Twitter/X user-context tokens.
var TwitterEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// OAuthConfig holds the OAuth provider configurations used to refresh
// platform tokens. The browser authorization flow happens client side;
// the server only stores and refreshes the resulting tokens.
type OAuthConfig struct {
	TwitterConfig  *oauth2.Config
	LinkedInConfig *oauth2.Config
}

// LoadOAuthConfig loads OAuth configuration from environment variables
// - TWITTER_CLIENT_ID / TWITTER_CLIENT_SECRET
// - LINKEDIN_CLIENT_ID / LINKEDIN_CLIENT_SECRET
// - OAUTH_REDIRECT_URL: base URL registered with the providers
func LoadOAuthConfig() *OAuthConfig {
	redirectURL := getEnvOrDefault("OAUTH_REDIRECT_URL", "http://localhost:3000")

	return &OAuthConfig{
		TwitterConfig: &oauth2.Config{
			ClientID:     os.Getenv("TWITTER_CLIENT_ID"),
			ClientSecret: os.Getenv("TWITTER_CLIENT_SECRET"),
			RedirectURL:  redirectURL + "/integrations/twitter/callback",
			Scopes:       []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
			Endpoint:     TwitterEndpoint,
		},
		LinkedInConfig: &oauth2.Config{
			ClientID:     os.Getenv("LINKEDIN_CLIENT_ID"),
			ClientSecret: os.Getenv("LINKEDIN_CLIENT_SECRET"),
			RedirectURL:  redirectURL + "/integrations/linkedin/callback",
			Scopes:       []string{"openid", "profile", "w_member_social", "w_organization_social"},
			Endpoint:     linkedin.Endpoint,
		},
	}
}

// ForPlatform returns the refresh configuration for a platform, or nil when
// the platform does not use refreshable OAuth2 tokens.
func (o *OAuthConfig) ForPlatform(platform string) *oauth2.Config {
	if o == nil {
		return nil
	}
	switch platform {
	case "twitter":
		return o.TwitterConfig
	case "linkedin":
		return o.LinkedInConfig
	default:
		return nil
	}
}
