package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yildiz-fatih/lazybook/internal/auth"
	"github.com/yildiz-fatih/lazybook/internal/cache"
	"github.com/yildiz-fatih/lazybook/internal/config"
	"github.com/yildiz-fatih/lazybook/internal/domain"
	"github.com/yildiz-fatih/lazybook/internal/handler"
	"github.com/yildiz-fatih/lazybook/internal/hub"
	"github.com/yildiz-fatih/lazybook/internal/repository"
	"github.com/yildiz-fatih/lazybook/internal/service"
	"github.com/yildiz-fatih/lazybook/pkg/database"
	"github.com/yildiz-fatih/lazybook/pkg/log"
	"github.com/yildiz-fatih/lazybook/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	l := log.L()

	// Database
	db, err := database.New(&cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.FollowModel{},
		&domain.PostModel{},
		&domain.MessageModel{},
	); err != nil {
		l.Fatal().Err(err).Msg("failed to run migrations")
	}
	l.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	// Repositories
	userRepo := repository.NewGormUserRepository(db)
	followRepo := repository.NewGormFollowRepository(db)
	postRepo := repository.NewGormPostRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)

	// Optional redis cache for user lookups
	var userCache cache.UserCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisUserCache(cfg.Redis, "lazybook:users")
		if err != nil {
			l.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		userCache = redisCache
		l.Info().Str("address", cfg.Redis.Address).Msg("redis cache ready")
	}

	// File storage for profile pictures
	files, err := newStorage(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Tokens
	tokens, err := auth.NewManager(cfg.JWT)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize token manager")
	}

	// Services
	identitySvc := service.NewIdentityService(userRepo, followRepo, userCache, cfg.Redis.CacheTTL, tokens, files)
	socialSvc := service.NewSocialService(userRepo, followRepo)
	postSvc := service.NewPostService(postRepo)

	registry := hub.NewRegistry()
	chatSvc := service.NewChatService(registry, identitySvc, messageRepo)

	// Handlers
	authMiddleware := handler.NewAuthMiddleware(tokens)
	httpHandler := handler.NewHTTPHandler(identitySvc, socialSvc, postSvc, chatSvc, authMiddleware)
	wsHandler := handler.NewWSHandler(registry, identitySvc, chatSvc, cfg.WebSocket)

	// Router
	r := gin.New()
	r.Use(log.GinMiddleware(log.L()), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	httpHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)

	// Picture keys are written under an uploads/ prefix inside the
	// store; the static route must point at that subdirectory so the
	// /uploads/<name> URLs GetURL hands out resolve.
	if local, ok := files.(*storage.LocalStorage); ok {
		r.Static("/uploads", filepath.Join(local.GetBasePath(), "uploads"))
	}

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("lazybook listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("forced shutdown")
	}

	l.Info().Msg("stopped")
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return storage.NewS3Storage(context.Background(), cfg.Storage.S3)
	default:
		return storage.NewLocalStorage(cfg.Storage.Local)
	}
}
