package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zfogg/brandcast/internal/auth"
	"github.com/zfogg/brandcast/internal/cache"
	"github.com/zfogg/brandcast/internal/config"
	"github.com/zfogg/brandcast/internal/database"
	"github.com/zfogg/brandcast/internal/email"
	"github.com/zfogg/brandcast/internal/handlers"
	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/metrics"
	"github.com/zfogg/brandcast/internal/middleware"
	"github.com/zfogg/brandcast/internal/planner"
	"github.com/zfogg/brandcast/internal/platforms"
	"github.com/zfogg/brandcast/internal/publish"
	"github.com/zfogg/brandcast/internal/secrets"
	"github.com/zfogg/brandcast/internal/storage"
	"github.com/zfogg/brandcast/internal/telemetry"
	"github.com/zfogg/brandcast/internal/tokens"
	"github.com/zfogg/brandcast/internal/validation"
	"github.com/zfogg/brandcast/internal/websocket"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Brandcast server starting ===", zap.String("environment", cfg.Environment))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tp, err := telemetry.InitTracer(context.Background(), telemetry.Config{
		ServiceName:  "brandcast-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.TracingEnabled,
		SamplingRate: cfg.TracingSampling,
	})
	if err != nil {
		logger.Log.Warn("Tracing disabled", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()
	}

	metrics.Initialize()

	if err := validation.RegisterBindings(); err != nil {
		logger.Log.Fatal("Failed to register validators", zap.Error(err))
	}

	// Initialize database
	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is optional: rate limits fall back to memory and brands are read uncached
	var redisClient *cache.RedisClient
	if cfg.RedisHost != "" {
		redisClient, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable, continuing without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var s3Uploader *storage.S3Uploader
	if cfg.AWSBucket != "" {
		s3Uploader, err = storage.NewS3Uploader(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL, cfg.S3Endpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize S3 uploader", zap.Error(err))
		}
		if err := s3Uploader.CheckBucketAccess(context.Background()); err != nil {
			logger.Log.Warn("S3 bucket access failed, uploads will fail", zap.Error(err))
		}
	} else {
		logger.Log.Warn("AWS_BUCKET not set, media uploads are disabled")
	}

	serviceValidator := validation.NewServiceValidator(cfg.RequiredServices)
	serviceValidator.Register("postgres", func(ctx context.Context) error { return database.Health() })
	if redisClient != nil {
		serviceValidator.Register("redis", redisClient.Ping)
	}
	if s3Uploader != nil {
		serviceValidator.Register("s3", s3Uploader.CheckBucketAccess)
	}
	if err := serviceValidator.ValidateServices(context.Background()); err != nil {
		logger.Log.Fatal("Required service check failed", zap.Error(err))
	}

	if cfg.TokenKey == "" {
		logger.Log.Fatal("TOKEN_ENCRYPTION_KEY environment variable is required")
	}
	box, err := secrets.NewBox(cfg.TokenKey)
	if err != nil {
		logger.Log.Fatal("Invalid TOKEN_ENCRYPTION_KEY", zap.Error(err))
	}

	// Platform clients share one retrying transport
	transport := platforms.NewTransport(platforms.DefaultTransportConfig())
	facebook := platforms.NewFacebookClient(platforms.GraphConfig{
		BaseURL:   cfg.Facebook.GraphURL + "/" + cfg.Facebook.APIVersion,
		AppID:     cfg.Facebook.AppID,
		AppSecret: cfg.Facebook.AppSecret,
	}, transport)
	registry := platforms.NewRegistry(
		facebook,
		platforms.NewInstagramClient(platforms.GraphConfig{
			BaseURL: cfg.Facebook.GraphURL + "/" + cfg.Facebook.APIVersion,
		}, transport),
		platforms.NewTwitterClient(platforms.TwitterConfig{}, transport),
		platforms.NewLinkedInClient(platforms.LinkedInConfig{}, transport),
	)

	tokenManager := tokens.NewManager(box, facebook, cfg.OAuth)

	// Publish pipeline
	publishService := publish.NewService(registry, tokenManager, publish.Options{
		MaxAttempts: cfg.Publish.MaxAttempts,
		Guards: publish.GuardConfig{
			RatePerMinute:   cfg.Publish.RatePerMinute,
			BreakerFailures: cfg.Publish.BreakerFailures,
			BreakerOpenFor:  cfg.Publish.BreakerOpenFor,
		},
	})
	if s3Uploader != nil {
		publishService.SetMediaStore(s3Uploader)
	}

	authService := auth.NewService(cfg.JWTSecret)

	// Initialize WebSocket hub and handler
	wsHub := websocket.NewHub()
	go wsHub.Run()
	wsHandler := websocket.NewHandler(wsHub, authService)
	wsHandler.SetAllowedOrigins(cfg.CORSOrigins)

	var mailer publish.FailureMailer
	if cfg.SESFromEmail != "" {
		emailService, err := email.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
		if err != nil {
			logger.Log.Warn("Email disabled", zap.Error(err))
		} else {
			mailer = emailService
		}
	}
	publishService.SetNotifier(publish.NewEventNotifier(wsHub, mailer))

	queue := publish.NewQueue(publishService, publish.QueueConfig{
		Workers: cfg.Publish.Workers,
		Size:    cfg.Publish.QueueSize,
	})
	publishService.SetDispatcher(queue)
	queue.Start()
	defer queue.Stop()

	scheduler := publish.NewScheduler(publishService, queue, publish.SchedulerConfig{
		Interval:     cfg.Publish.ScanInterval,
		LeaseTimeout: cfg.Publish.LeaseTimeout,
	})
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize handlers
	h := handlers.NewHandlers(tokenManager, publishService)
	h.SetQueue(queue)
	if redisClient != nil {
		h.SetCache(redisClient)
	}
	if s3Uploader != nil {
		h.SetMediaUploader(s3Uploader)
	}
	if contentPlanner := planner.New(cfg.LLM); contentPlanner.Configured() {
		h.SetPlanner(contentPlanner)
	}
	authHandlers := handlers.NewAuthHandlers(authService)

	rawRedis := redisClient.Client()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CorrelationMiddleware())
	r.Use(middleware.TracingMiddleware("brandcast-backend"))
	r.Use(middleware.GinLoggerMiddleware("/health", "/metrics"))
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/ws"})))

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID", "X-Correlation-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RedisRateLimitMiddleware(rawRedis, "api", middleware.DefaultRateLimitConfig()))
	{
		authGroup := api.Group("/auth")
		{
			authLimit := middleware.RedisRateLimitMiddleware(rawRedis, "auth", middleware.AuthRateLimitConfig())
			authGroup.POST("/register", authLimit, authHandlers.Register)
			authGroup.POST("/login", authLimit, authHandlers.Login)
			authGroup.GET("/me", auth.AuthMiddleware(authService), authHandlers.Me)
		}

		// WebSocket routes, auth via ?token= or Authorization header
		ws := api.Group("/ws")
		{
			ws.GET("", wsHandler.HandleWebSocket)
			ws.GET("/metrics", auth.AuthMiddleware(authService), wsHandler.HandleMetrics)
		}

		protected := api.Group("")
		protected.Use(auth.AuthMiddleware(authService))
		handlers.RegisterRoutes(protected, h, handlers.RouteMiddleware{
			Upload: []gin.HandlerFunc{middleware.RedisRateLimitMiddleware(rawRedis, "upload", middleware.UploadRateLimitConfig())},
			Plan:   []gin.HandlerFunc{middleware.RedisRateLimitMiddleware(rawRedis, "plan", middleware.PlanRateLimitConfig())},
		})
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info("Brandcast backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wsHandler.Shutdown(ctx); err != nil {
		logger.Log.Warn("WebSocket shutdown warning", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
