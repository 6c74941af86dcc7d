// Package main runs the Gatherly HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gatherly/backend/config"
	"github.com/gatherly/backend/internal/auth"
	"github.com/gatherly/backend/internal/checkin"
	"github.com/gatherly/backend/internal/events"
	"github.com/gatherly/backend/internal/feed"
	"github.com/gatherly/backend/internal/groups"
	"github.com/gatherly/backend/internal/middleware"
	"github.com/gatherly/backend/internal/registrations"
	"github.com/gatherly/backend/internal/similarity"
	"github.com/gatherly/backend/pkg/database"
	"github.com/gatherly/backend/pkg/queue"
	"github.com/gatherly/backend/pkg/redis"
	"github.com/gatherly/backend/pkg/response"
	"github.com/gatherly/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Events + duplicate detection
	eventRepo := events.NewRepository(pool)
	simService := similarity.NewService(eventRepo, similarity.DefaultConfig())
	eventHandler := events.NewHandler(eventRepo, simService, s3Client, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationHandler := registrations.NewHandler(registrationRepo, eventRepo, jobQueue, logger)

	// QR check-in
	tokenService := checkin.NewService(cfg.QR.Secret, cfg.QR.BaseURL, nil)
	checkinHandler := checkin.NewHandler(tokenService, registrationRepo, eventRepo, logger)

	// Groups
	groupRepo := groups.NewRepository(pool)
	groupHandler := groups.NewHandler(groupRepo)

	// Feed
	feedRepo := feed.NewRepository(pool)
	feedHandler := feed.NewHandler(feedRepo, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public browsing and registration. Registration links to an account when
	// a valid bearer token happens to be present.
	router.GET("/events", eventHandler.List)
	router.GET("/events/:id", eventHandler.GetByID)
	router.GET("/events/:id/cover-url", eventHandler.CoverURL)
	router.POST("/events/:id/register", middleware.OptionalJWT(jwtService), registrationHandler.Register)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Events (organizer-facing)
		api.POST("/events", middleware.RequireRole("organizer", "admin"), eventHandler.Create)
		api.PATCH("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.POST("/events/:id/cover", eventHandler.UploadCover)
		api.GET("/events/:id/registrations", registrationHandler.ListByEvent)
		api.GET("/events/:id/stats", registrationHandler.Stats)

		// QR check-in
		api.POST("/api/qr/generate",
			middleware.RateLimitDaily(rdb.Client, logger, "qr_generate", cfg.QR.DailyQuota),
			checkinHandler.Generate)
		api.POST("/api/qr/verify", middleware.RequireRole("organizer", "admin"), checkinHandler.Verify)

		// Groups
		api.GET("/groups", groupHandler.ListMine)
		api.POST("/groups", groupHandler.Create)
		api.POST("/groups/join", groupHandler.Join)
		api.GET("/groups/:id/members", groupHandler.ListMembers)

		// Feed
		api.GET("/posts", feedHandler.ListPosts)
		api.POST("/posts", feedHandler.CreatePost)
		api.DELETE("/posts/:id", feedHandler.DeletePost)
		api.GET("/posts/:id/comments", feedHandler.ListComments)
		api.POST("/posts/:id/comments", feedHandler.CreateComment)
		api.POST("/posts/:id/like", feedHandler.Like)
		api.DELETE("/posts/:id/like", feedHandler.Unlike)
		api.POST("/posts/:id/bookmark", feedHandler.Bookmark)
		api.DELETE("/posts/:id/bookmark", feedHandler.Unbookmark)
		api.GET("/bookmarks", feedHandler.ListBookmarks)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
