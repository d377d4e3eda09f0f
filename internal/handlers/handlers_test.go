package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/brandcast/internal/auth"
	"github.com/zfogg/brandcast/internal/config"
	"github.com/zfogg/brandcast/internal/database"
	"github.com/zfogg/brandcast/internal/models"
	"github.com/zfogg/brandcast/internal/planner"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/publish"
	"github.com/zfogg/brandcast/internal/secrets"
	"github.com/zfogg/brandcast/internal/storage"
	"github.com/zfogg/brandcast/internal/tokens"
	"github.com/zfogg/brandcast/internal/validation"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fakeUploader struct {
	mu      sync.Mutex
	stored  map[string][]byte
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{stored: make(map[string][]byte)}
}

func (f *fakeUploader) put(key string, data []byte, contentType string) *storage.UploadResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[key] = data
	return &storage.UploadResult{Key: key, URL: "https://cdn.test/" + key, ContentType: contentType, Size: int64(len(data))}
}

func (f *fakeUploader) UploadMedia(ctx context.Context, data []byte, userID, originalFilename, contentType string) (*storage.UploadResult, error) {
	return f.put("media/"+userID+"/"+originalFilename, data, contentType), nil
}

func (f *fakeUploader) UploadLogo(ctx context.Context, data []byte, userID, brandID, contentType string) (*storage.UploadResult, error) {
	return f.put("logos/"+brandID, data, contentType), nil
}

func (f *fakeUploader) Download(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[key], nil
}

func (f *fakeUploader) DeleteFile(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stored, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type fakePlanner struct {
	entries []planner.PlannedEntry
	err     error
	brand   *models.BrandProfile
	req     planner.PlanRequest
}

func (f *fakePlanner) Generate(ctx context.Context, brand *models.BrandProfile, req planner.PlanRequest) ([]planner.PlannedEntry, error) {
	f.brand = brand
	f.req = req
	return f.entries, f.err
}

type fakeGraph struct{}

func (fakeGraph) ExchangeLongLivedToken(ctx context.Context, short string) (*platforms.LongLivedToken, error) {
	return &platforms.LongLivedToken{AccessToken: "long-" + short}, nil
}

func (fakeGraph) ListPages(ctx context.Context, userToken string) ([]platforms.Page, error) {
	return []platforms.Page{
		{ID: "page1", Name: "Acme", AccessToken: "page-token-1", Instagram: &platforms.InstagramAccount{ID: "ig1", Username: "acme"}},
		{ID: "page2", Name: "Acme Outlet", AccessToken: "page-token-2"},
	}, nil
}

// HandlersSuite runs the API against an in-memory database
type HandlersSuite struct {
	suite.Suite
	router   *gin.Engine
	handlers *Handlers
	manager  *tokens.Manager
	media    *fakeUploader
	planner  *fakePlanner
	user     *models.User
	other    *models.User
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(validation.RegisterBindings())
}

func (s *HandlersSuite) SetupTest() {
	db, err := database.OpenSQLite(":memory:")
	s.Require().NoError(err)
	s.Require().NoError(database.MigrateDB(db))
	database.DB = db

	s.user = &models.User{Email: "owner@example.com", DisplayName: "Owner"}
	s.other = &models.User{Email: "other@example.com", DisplayName: "Other"}
	s.Require().NoError(db.Create(s.user).Error)
	s.Require().NoError(db.Create(s.other).Error)

	box, err := secrets.NewBox("handler-tests")
	s.Require().NoError(err)
	s.manager = tokens.NewManager(box, fakeGraph{}, config.LoadOAuthConfig())
	service := publish.NewService(platforms.NewRegistry(), s.manager, publish.Options{MaxAttempts: 3})

	s.media = newFakeUploader()
	s.planner = &fakePlanner{}
	s.handlers = NewHandlers(s.manager, service)
	s.handlers.SetMediaUploader(s.media)
	s.handlers.SetPlanner(s.planner)

	s.router = gin.New()
	s.setupRoutes()
}

func (s *HandlersSuite) TearDownTest() {
	database.Close()
}

// setupRoutes mounts the handlers behind a header-based auth stub
func (s *HandlersSuite) setupRoutes() {
	authMiddleware := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		var user models.User
		if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		c.Set("user", &user)
		c.Set("user_id", user.ID)
		c.Next()
	}

	s.router.GET("/health", s.handlers.Health)

	api := s.router.Group("/api/v1")
	api.Use(authMiddleware)
	RegisterRoutes(api, s.handlers, RouteMiddleware{})
}

func (s *HandlersSuite) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersSuite) upload(path, userID, field, filename string, data []byte) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, filename)
	s.Require().NoError(err)
	_, err = part.Write(data)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", userID)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

func (s *HandlersSuite) TestHealth() {
	s.handlers.SetQueue(publish.NewQueue(nil, publish.QueueConfig{Workers: 1, Size: 5}))
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)

	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
		Pending  int               `json:"publish_queue_pending"`
	}
	s.decode(w, &body)
	s.Equal("ok", body.Status)
	s.Equal("ok", body.Services["database"])
	s.Equal(0, body.Pending)
}

func (s *HandlersSuite) TestRequiresAuthentication() {
	w := s.do(http.MethodGet, "/api/v1/brands", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersSuite) TestAuthFlow() {
	service := auth.NewService([]byte("test-secret"))
	ah := NewAuthHandlers(service)
	r := gin.New()
	r.POST("/auth/register", ah.Register)
	r.POST("/auth/login", ah.Login)
	r.GET("/auth/me", auth.AuthMiddleware(service), ah.Me)

	send := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != nil {
			raw, _ := json.Marshal(body)
			reader = bytes.NewReader(raw)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	register := map[string]string{"email": "New@Example.com", "password": "correct horse", "display_name": "New"}
	w := send(http.MethodPost, "/auth/register", "", register)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created auth.AuthResponse
	s.decode(w, &created)
	s.NotEmpty(created.Token)
	s.Equal("new@example.com", created.User.Email)

	w = send(http.MethodPost, "/auth/register", "", register)
	s.Equal(http.StatusConflict, w.Code)

	w = send(http.MethodPost, "/auth/register", "", map[string]string{"email": "bad", "password": "x"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = send(http.MethodPost, "/auth/login", "", map[string]string{"email": "new@example.com", "password": "wrong password"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = send(http.MethodPost, "/auth/login", "", map[string]string{"email": "nobody@example.com", "password": "whatever1"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = send(http.MethodPost, "/auth/login", "", map[string]string{"email": "new@example.com", "password": "correct horse"})
	s.Require().Equal(http.StatusOK, w.Code)
	var loggedIn auth.AuthResponse
	s.decode(w, &loggedIn)

	w = send(http.MethodGet, "/auth/me", loggedIn.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var me struct {
		User models.User `json:"user"`
	}
	s.decode(w, &me)
	s.Equal(created.User.ID, me.User.ID)

	w = send(http.MethodGet, "/auth/me", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}
