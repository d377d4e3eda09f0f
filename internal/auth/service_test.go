package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/brandcast/internal/database"
	"github.com/zfogg/brandcast/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *Service
}

// SetupTest gives every test a fresh in-memory database
func (suite *AuthServiceTestSuite) SetupTest() {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), database.MigrateDB(db))
	database.DB = db
	suite.db = db

	suite.authService = NewService([]byte("test_jwt_secret_key"))
	suite.authService.bcryptCost = bcrypt.MinCost
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	if sqlDB, err := suite.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (suite *AuthServiceTestSuite) TestRegister() {
	t := suite.T()

	req := RegisterRequest{
		Email:       "Owner@Acme.io",
		Password:    "password123",
		DisplayName: "Acme Owner",
		Company:     "Acme",
	}

	authResp, err := suite.authService.Register(req)
	require.NoError(t, err)

	assert.NotEmpty(t, authResp.Token)
	assert.Equal(t, "owner@acme.io", authResp.User.Email)
	assert.Equal(t, "Acme", authResp.User.Company)
	assert.Equal(t, "UTC", authResp.User.Timezone)
	assert.NotNil(t, authResp.User.PasswordHash)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), authResp.ExpiresAt, time.Minute)

	// Duplicate email, any case
	req.Email = "OWNER@acme.io"
	_, err = suite.authService.Register(req)
	assert.ErrorIs(t, err, ErrUserExists)
}

func (suite *AuthServiceTestSuite) TestLogin() {
	t := suite.T()

	_, err := suite.authService.Register(RegisterRequest{
		Email:       "login@test.com",
		Password:    "testpass123",
		DisplayName: "Login Test",
	})
	require.NoError(t, err)

	authResp, err := suite.authService.Login(LoginRequest{Email: "LOGIN@test.com", Password: "testpass123"})
	require.NoError(t, err)
	assert.NotEmpty(t, authResp.Token)
	assert.NotNil(t, authResp.User.LastActiveAt)

	_, err = suite.authService.Login(LoginRequest{Email: "nobody@test.com", Password: "testpass123"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = suite.authService.Login(LoginRequest{Email: "login@test.com", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestTokenRoundTrip() {
	t := suite.T()

	user := models.User{Email: "jwt@test.com", DisplayName: "JWT Test"}
	require.NoError(t, suite.db.Create(&user).Error)

	authResp, err := suite.authService.GenerateTokenForUser(&user)
	require.NoError(t, err)

	validated, err := suite.authService.ValidateToken(authResp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.ID)

	_, err = suite.authService.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService([]byte("different_secret"))
	_, err = other.ValidateToken(authResp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestExpiredToken() {
	t := suite.T()

	user := models.User{Email: "old@test.com", DisplayName: "Old"}
	require.NoError(t, suite.db.Create(&user).Error)

	suite.authService.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }
	authResp, err := suite.authService.GenerateTokenForUser(&user)
	require.NoError(t, err)

	suite.authService.now = time.Now
	_, err = suite.authService.ValidateToken(authResp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestRejectsNoneAlgorithm() {
	t := suite.T()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "someone"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = suite.authService.ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestTokenForDeletedUser() {
	t := suite.T()

	user := models.User{Email: "gone@test.com", DisplayName: "Gone"}
	require.NoError(t, suite.db.Create(&user).Error)
	authResp, err := suite.authService.GenerateTokenForUser(&user)
	require.NoError(t, err)

	require.NoError(t, suite.db.Delete(&user).Error)
	_, err = suite.authService.ValidateToken(authResp.Token)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mock := NewMockAuthService()
	mock.AddUser(&models.User{ID: "u1", Email: "a@b.c"})

	r := gin.New()
	r.GET("/me", AuthMiddleware(mock), func(c *gin.Context) {
		user := c.MustGet("user").(*models.User)
		c.String(http.StatusOK, c.GetString("user_id")+":"+user.Email)
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid", "Bearer mock_token_u1", http.StatusOK, "u1:a@b.c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}
