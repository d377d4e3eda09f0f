package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/tokens"
	"github.com/zfogg/brandcast/internal/util"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user
const DefaultPassword = "password123"

// AccountConnector stores platform tokens for seeded users
type AccountConnector interface {
	ConnectOAuth2(ctx context.Context, userID string, platform platforms.Platform, tok tokens.TokenSet, externalID, name string) (*models.SocialAccount, error)
}

// Seeder handles database seeding operations
type Seeder struct {
	db       *gorm.DB
	accounts AccountConnector
	rng      *rand.Rand
	now      func() time.Time
}

// NewSeeder creates a seeder. The same seed always produces the same data.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	// Seed only fails for invalid sources
	_ = gofakeit.Seed(seed)
	return &Seeder{
		db:  db,
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// SetAccountConnector enables seeding of Twitter and LinkedIn accounts.
// Their tokens are fake, so publishing to them fails until reconnected.
func (s *Seeder) SetAccountConnector(a AccountConnector) {
	s.accounts = a
}

// Counts summarises what a seed run created
type Counts struct {
	Users    int
	Brands   int
	Accounts int
	Entries  int
}

// SeedDev fills a development database with users, brands and a month of
// calendar entries
func (s *Seeder) SeedDev(ctx context.Context, users int) (*Counts, error) {
	counts := &Counts{}

	logger.Log.Info("Creating users...", zap.Int("count", users))
	created, err := s.seedUsers(users)
	if err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	counts.Users = len(created)

	for i := range created {
		user := &created[i]

		brands, err := s.seedBrands(user, 1+s.rng.Intn(3))
		if err != nil {
			return nil, fmt.Errorf("failed to seed brands: %w", err)
		}
		counts.Brands += len(brands)

		n, err := s.seedAccounts(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("failed to seed accounts: %w", err)
		}
		counts.Accounts += n

		entries, err := s.seedEntries(user, brands, 10+s.rng.Intn(20))
		if err != nil {
			return nil, fmt.Errorf("failed to seed calendar entries: %w", err)
		}
		counts.Entries += entries
	}

	logger.Log.Info("Seeding complete",
		zap.Int("users", counts.Users),
		zap.Int("brands", counts.Brands),
		zap.Int("accounts", counts.Accounts),
		zap.Int("entries", counts.Entries),
	)
	return counts, nil
}

// SeedTest creates a small fixed set of users for end-to-end tests
func (s *Seeder) SeedTest(ctx context.Context) (*Counts, error) {
	specs := []struct {
		email       string
		displayName string
		company     string
	}{
		{"alice@example.com", "Alice Smith", "Alice's Bakery"},
		{"bob@example.com", "Bob Johnson", "Johnson Hardware"},
		{"charlie@example.com", "Charlie Brown", "Brown Cycles"},
	}

	hash, err := hashPassword()
	if err != nil {
		return nil, err
	}

	counts := &Counts{}
	for _, spec := range specs {
		var user models.User
		err := s.db.Where("email = ?", spec.email).First(&user).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		user = models.User{
			Email:        spec.email,
			DisplayName:  spec.displayName,
			Company:      spec.company,
			Timezone:     "UTC",
			PasswordHash: &hash,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create test user %s: %w", spec.email, err)
		}
		counts.Users++

		brand := models.BrandProfile{
			UserID:   user.ID,
			Name:     spec.company,
			Industry: "Retail",
			Tone:     "friendly",
			Keywords: []string{"local", "handmade"},
			Hashtags: []string{"#shoplocal"},
		}
		if err := s.db.Create(&brand).Error; err != nil {
			return nil, fmt.Errorf("failed to create test brand: %w", err)
		}
		counts.Brands++

		entry := models.CalendarEntry{
			UserID:         user.ID,
			BrandProfileID: &brand.ID,
			Platforms:      []string{string(platforms.Facebook)},
			Kind:           string(platforms.KindText),
			Title:          "Welcome",
			Content:        fmt.Sprintf("Welcome to %s!", spec.company),
			Status:         models.EntryStatusDraft,
			Source:         models.EntrySourceManual,
		}
		if err := s.db.Create(&entry).Error; err != nil {
			return nil, fmt.Errorf("failed to create test entry: %w", err)
		}
		counts.Entries++
	}
	return counts, nil
}

// Clean removes all brandcast data (use with caution!)
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	tables := []string{"publish_jobs", "calendar_entries", "media_assets", "brand_profiles", "social_accounts", "users"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func hashPassword() (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// seedUsers creates users with realistic data
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := hashPassword()
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		first, last := gofakeit.FirstName(), gofakeit.LastName()
		user := models.User{
			Email:        strings.ToLower(fmt.Sprintf("%s.%s.%d@example.com", first, last, gofakeit.Number(100, 9999))),
			DisplayName:  first + " " + last,
			Company:      gofakeit.Company(),
			Timezone:     gofakeit.RandomString([]string{"UTC", "America/New_York", "Europe/London", "Asia/Tokyo"}),
			PasswordHash: &hash,
		}
		if err := s.db.Create(&user).Error; err != nil {
			logger.Log.Warn("Skipping seed user", zap.String("email", user.Email), zap.Error(err))
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

var tones = []string{"friendly", "witty", "authoritative", "warm, playful", "calm and expert"}

// seedBrands creates brand profiles for a user
func (s *Seeder) seedBrands(user *models.User, count int) ([]models.BrandProfile, error) {
	brands := make([]models.BrandProfile, 0, count)
	for i := 0; i < count; i++ {
		name := user.Company
		if i > 0 {
			name = gofakeit.Company()
		}
		keywords := []string{gofakeit.BuzzWord(), gofakeit.BuzzWord(), gofakeit.HipsterWord()}
		brand := models.BrandProfile{
			UserID:      user.ID,
			Name:        name,
			Industry:    gofakeit.JobDescriptor(),
			Description: gofakeit.HipsterSentence(),
			Audience:    gofakeit.JobTitle() + "s",
			Tone:        tones[s.rng.Intn(len(tones))],
			Keywords:    util.NormalizeList(keywords),
			Hashtags:    util.NormalizeHashtags([]string{gofakeit.HipsterWord(), gofakeit.BuzzWord()}),
			Colors:      []string{gofakeit.HexColor(), gofakeit.HexColor()},
			Website:     "https://" + gofakeit.DomainName(),
		}
		if err := s.db.Create(&brand).Error; err != nil {
			return nil, err
		}
		brands = append(brands, brand)
	}
	return brands, nil
}

// seedAccounts connects fake Twitter and LinkedIn accounts
func (s *Seeder) seedAccounts(ctx context.Context, user *models.User) (int, error) {
	if s.accounts == nil {
		return 0, nil
	}
	n := 0
	for _, p := range []platforms.Platform{platforms.Twitter, platforms.LinkedIn} {
		if s.rng.Intn(3) == 0 {
			continue
		}
		expires := s.now().Add(2 * time.Hour)
		tok := tokens.TokenSet{
			AccessToken:  gofakeit.UUID(),
			RefreshToken: gofakeit.UUID(),
			ExpiresAt:    &expires,
		}
		if _, err := s.accounts.ConnectOAuth2(ctx, user.ID, p, tok, gofakeit.DigitN(10), gofakeit.Username()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// seedEntries spreads entries over the last and next two weeks. Past
// entries are drafts that were never scheduled; future ones are a mix of
// drafts and scheduled posts.
func (s *Seeder) seedEntries(user *models.User, brands []models.BrandProfile, count int) (int, error) {
	now := s.now().UTC()
	entries := make([]models.CalendarEntry, 0, count)
	for i := 0; i < count; i++ {
		brand := brands[s.rng.Intn(len(brands))]
		at := now.Add(time.Duration(s.rng.Intn(28*24)-14*24) * time.Hour).Truncate(time.Hour)

		targets := []string{string(platforms.Facebook)}
		if s.rng.Intn(2) == 0 {
			targets = append(targets, string(platforms.LinkedIn))
		}

		text := gofakeit.HipsterSentence()
		if len(brand.Hashtags) > 0 {
			text += " " + strings.Join(brand.Hashtags, " ")
		}
		if len(text) <= platforms.MaxTweetLength && s.rng.Intn(2) == 0 {
			targets = append(targets, string(platforms.Twitter))
		}

		status := models.EntryStatusDraft
		if at.After(now) && s.rng.Intn(2) == 0 {
			status = models.EntryStatusScheduled
		}
		source := models.EntrySourceManual
		if s.rng.Intn(3) == 0 {
			source = models.EntrySourcePlan
		}

		scheduled := at
		entries = append(entries, models.CalendarEntry{
			UserID:         user.ID,
			BrandProfileID: &brand.ID,
			Platforms:      targets,
			Kind:           string(platforms.KindText),
			Title:          gofakeit.HackerPhrase(),
			Content:        text,
			ScheduledAt:    &scheduled,
			Status:         status,
			Source:         source,
		})
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := s.db.Create(&entries).Error; err != nil {
		return 0, err
	}
	return len(entries), nil
}
