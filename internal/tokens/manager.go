// Package tokens owns the lifecycle of platform access tokens: storing them
// sealed, refreshing them before they expire and flagging accounts that
// need the user to reconnect.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/zfogg/brandcast/internal/config"
	"github.com/zfogg/brandcast/internal/database"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/metrics"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/secrets"
	"github.com/zfogg/brandcast/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// RefreshSkew is how early a token is refreshed before it expires
const RefreshSkew = 5 * time.Minute

var (
	// ErrReauthRequired means the user must reconnect the account
	ErrReauthRequired = errors.New("account requires re-authorization")
	// ErrAccountNotFound means no such account for the user
	ErrAccountNotFound = errors.New("social account not found")
)

// GraphClient is the part of the Facebook client used to connect pages
type GraphClient interface {
	ExchangeLongLivedToken(ctx context.Context, shortToken string) (*platforms.LongLivedToken, error)
	ListPages(ctx context.Context, userToken string) ([]platforms.Page, error)
}

// TokenSet is an OAuth2 token obtained by the client
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	Scopes       []string
}

// Manager stores, opens and refreshes platform tokens
type Manager struct {
	box   *secrets.Box
	graph GraphClient
	oauth *config.OAuthConfig

	// HTTPClient is used for token refresh calls when set
	HTTPClient *http.Client
	now        func() time.Time

	locks sync.Map // account id -> *sync.Mutex
}

// NewManager creates a token manager
func NewManager(box *secrets.Box, graph GraphClient, oauth *config.OAuthConfig) *Manager {
	return &Manager{
		box:   box,
		graph: graph,
		oauth: oauth,
		now:   time.Now,
	}
}

// ConnectFacebook exchanges a short-lived user token, then stores every page
// the user manages and every Instagram business account linked to one.
func (m *Manager) ConnectFacebook(ctx context.Context, userID, shortToken string) ([]models.SocialAccount, error) {
	if m.graph == nil {
		return nil, fmt.Errorf("facebook is not configured")
	}
	long, err := m.graph.ExchangeLongLivedToken(ctx, shortToken)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange facebook token: %w", err)
	}
	pages, err := m.graph.ListPages(ctx, long.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list facebook pages: %w", err)
	}

	var accounts []models.SocialAccount
	for _, page := range pages {
		if page.AccessToken == "" {
			continue
		}
		// page tokens minted from a long-lived user token do not expire
		pageAcct, err := m.upsert(userID, string(platforms.Facebook), page.ID, page.Name, nil,
			TokenSet{AccessToken: page.AccessToken})
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *pageAcct)

		if page.Instagram == nil {
			continue
		}
		name := page.Instagram.Username
		if name == "" {
			name = page.Name
		}
		igAcct, err := m.upsert(userID, string(platforms.Instagram), page.Instagram.ID, name, &pageAcct.ID,
			TokenSet{AccessToken: page.AccessToken})
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *igAcct)
	}

	logger.Log.Info("Connected facebook accounts",
		logger.WithUserID(userID),
		zap.Int("pages", len(pages)),
		zap.Int("accounts", len(accounts)),
	)
	return accounts, nil
}

// ConnectOAuth2 stores a Twitter or LinkedIn token set
func (m *Manager) ConnectOAuth2(ctx context.Context, userID string, platform platforms.Platform, tok TokenSet, externalID, name string) (*models.SocialAccount, error) {
	switch platform {
	case platforms.Twitter, platforms.LinkedIn:
	default:
		return nil, fmt.Errorf("%s does not connect with an oauth2 token set", platform)
	}
	if tok.AccessToken == "" || externalID == "" {
		return nil, fmt.Errorf("access token and external id are required")
	}
	if platform == platforms.LinkedIn {
		externalID = platforms.AuthorURN(externalID)
	}
	acct, err := m.upsert(userID, string(platform), externalID, name, nil, tok)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Connected account",
		logger.WithUserID(userID),
		logger.WithPlatform(string(platform)),
		logger.WithAccountID(acct.ID),
	)
	return acct, nil
}

// upsert creates or reactivates the account identified by (user, platform, external id)
func (m *Manager) upsert(userID, platform, externalID, name string, parentID *string, tok TokenSet) (*models.SocialAccount, error) {
	access, err := m.box.Seal(tok.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := m.box.Seal(tok.RefreshToken)
	if err != nil {
		return nil, err
	}

	var acct models.SocialAccount
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Unscoped().
			Where("user_id = ? AND platform = ? AND external_id = ?", userID, platform, externalID).
			First(&acct).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found := err == nil

		var defaults int64
		if err := tx.Model(&models.SocialAccount{}).
			Where("user_id = ? AND platform = ? AND is_default = ? AND external_id <> ?", userID, platform, true, externalID).
			Count(&defaults).Error; err != nil {
			return err
		}

		acct.UserID = userID
		acct.Platform = platform
		acct.ExternalID = externalID
		if name != "" {
			acct.Name = name
		}
		acct.ParentID = parentID
		acct.AccessToken = access
		acct.RefreshToken = refresh
		acct.TokenExpiresAt = tok.ExpiresAt
		if len(tok.Scopes) > 0 {
			acct.Scopes = tok.Scopes
		}
		acct.Status = models.AccountStatusActive
		acct.DeletedAt = gorm.DeletedAt{}
		if defaults == 0 {
			acct.IsDefault = true
		}

		if found {
			return tx.Unscoped().Save(&acct).Error
		}
		return tx.Create(&acct).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save %s account: %w", platform, err)
	}
	return &acct, nil
}

// Ensure returns a usable access token for the account, refreshing it when
// it expires within RefreshSkew. The account is updated in place.
func (m *Manager) Ensure(ctx context.Context, account *models.SocialAccount) (string, error) {
	if account.Status == models.AccountStatusReauthRequired {
		return "", ErrReauthRequired
	}
	now := m.now()
	if !account.TokenExpired(now, RefreshSkew) {
		return m.box.Open(account.AccessToken)
	}

	mu := m.lockFor(account.ID)
	mu.Lock()
	defer mu.Unlock()

	// another worker may have refreshed while we waited
	var fresh models.SocialAccount
	if err := database.DB.WithContext(ctx).First(&fresh, "id = ?", account.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrAccountNotFound
		}
		return "", err
	}
	*account = fresh
	if account.Status == models.AccountStatusReauthRequired {
		return "", ErrReauthRequired
	}
	if !account.TokenExpired(now, RefreshSkew) {
		return m.box.Open(account.AccessToken)
	}

	refreshToken, err := m.box.Open(account.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to open refresh token: %w", err)
	}
	cfg := m.oauth.ForPlatform(account.Platform)
	if refreshToken == "" || cfg == nil {
		if account.TokenExpired(now, 0) {
			m.markReauth(ctx, account, "token expired without refresh token")
			return "", ErrReauthRequired
		}
		// still valid for a little while
		return m.box.Open(account.AccessToken)
	}

	if m.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.HTTPClient)
	}
	ctx, span := telemetry.GetBusinessEvents().TraceTokenRefresh(ctx, account.Platform, account.ID)
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken, Expiry: now.Add(-time.Minute)})
	tok, err := src.Token()
	telemetry.EndSpan(span, err)
	if err != nil {
		metrics.Get().TokenRefreshTotal.WithLabelValues(account.Platform, "error").Inc()
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode < 500 {
			m.markReauth(ctx, account, "refresh rejected: "+re.ErrorCode)
			return "", ErrReauthRequired
		}
		return "", fmt.Errorf("failed to refresh %s token: %w", account.Platform, err)
	}

	if err := m.storeRefreshed(ctx, account, tok); err != nil {
		return "", err
	}
	metrics.Get().TokenRefreshTotal.WithLabelValues(account.Platform, "success").Inc()
	logger.Log.Info("Refreshed access token",
		logger.WithAccountID(account.ID),
		logger.WithPlatform(account.Platform),
	)
	return tok.AccessToken, nil
}

func (m *Manager) storeRefreshed(ctx context.Context, account *models.SocialAccount, tok *oauth2.Token) error {
	access, err := m.box.Seal(tok.AccessToken)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{"access_token": access}
	// providers that rotate refresh tokens return a new one
	if tok.RefreshToken != "" {
		refresh, err := m.box.Seal(tok.RefreshToken)
		if err != nil {
			return err
		}
		updates["refresh_token"] = refresh
	}
	var expires *time.Time
	if !tok.Expiry.IsZero() {
		e := tok.Expiry
		expires = &e
	}
	updates["token_expires_at"] = expires

	if err := database.DB.WithContext(ctx).Model(&models.SocialAccount{}).
		Where("id = ?", account.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to store refreshed token: %w", err)
	}

	account.AccessToken = access
	if r, ok := updates["refresh_token"].(string); ok {
		account.RefreshToken = r
	}
	account.TokenExpiresAt = expires
	return nil
}

// Invalidate marks the account as needing re-authorization after the
// platform rejected its token.
func (m *Manager) Invalidate(ctx context.Context, account *models.SocialAccount) error {
	return m.markReauth(ctx, account, "token rejected by platform")
}

func (m *Manager) markReauth(ctx context.Context, account *models.SocialAccount, reason string) error {
	account.Status = models.AccountStatusReauthRequired
	err := database.DB.WithContext(ctx).Model(&models.SocialAccount{}).
		Where("id = ?", account.ID).
		Update("status", models.AccountStatusReauthRequired).Error
	if err != nil {
		logger.ErrorWithFields("Failed to mark account for re-authorization", err)
		return err
	}
	logger.Log.Warn("Account requires re-authorization",
		logger.WithAccountID(account.ID),
		logger.WithPlatform(account.Platform),
		zap.String("reason", reason),
	)
	return nil
}

// DefaultAccount returns the user's default active account on a platform,
// falling back to the oldest active one.
func (m *Manager) DefaultAccount(ctx context.Context, userID string, platform platforms.Platform) (*models.SocialAccount, error) {
	var acct models.SocialAccount
	err := database.DB.WithContext(ctx).
		Where("user_id = ? AND platform = ? AND status = ?", userID, string(platform), models.AccountStatusActive).
		Order("is_default DESC, created_at ASC").
		First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// SetDefault makes the account the default for its platform
func (m *Manager) SetDefault(ctx context.Context, userID, accountID string) (*models.SocialAccount, error) {
	var acct models.SocialAccount
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", accountID, userID).First(&acct).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if err := tx.Model(&models.SocialAccount{}).
			Where("user_id = ? AND platform = ? AND id <> ?", userID, acct.Platform, acct.ID).
			Update("is_default", false).Error; err != nil {
			return err
		}
		acct.IsDefault = true
		return tx.Model(&acct).Update("is_default", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// Disconnect removes the account; Instagram accounts linked to a Facebook
// page go with it.
func (m *Manager) Disconnect(ctx context.Context, userID, accountID string) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acct models.SocialAccount
		if err := tx.Where("id = ? AND user_id = ?", accountID, userID).First(&acct).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if err := tx.Where("parent_id = ?", acct.ID).Delete(&models.SocialAccount{}).Error; err != nil {
			return err
		}
		return tx.Delete(&acct).Error
	})
}

func (m *Manager) lockFor(accountID string) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(accountID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
