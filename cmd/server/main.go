package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/social-core/internal/api/handler"
	"github.com/d60-Lab/social-core/internal/api/router"
	"github.com/d60-Lab/social-core/internal/cache"
	"github.com/d60-Lab/social-core/internal/config"
	"github.com/d60-Lab/social-core/internal/model"
	"github.com/d60-Lab/social-core/internal/repository"
	"github.com/d60-Lab/social-core/internal/service"
	"github.com/d60-Lab/social-core/pkg/logger"
	"github.com/d60-Lab/social-core/pkg/tracing"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, "social-core", cfg.Trace.Endpoint)
	if err != nil {
		logger.Error("tracing init failed", zap.Error(err))
		os.Exit(1)
	}
	defer func() { _ = shutdownTracing(ctx) }()

	db, err := openDB(cfg.DB)
	if err != nil {
		logger.Error("open db", zap.Error(err))
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Post{}, &model.PostLike{},
		&model.Comment{}, &model.CommentLike{},
		&model.Friendship{},
		&model.ChatRoom{}, &model.ChatRoomMember{}, &model.ChatMessage{}, &model.LastMessageSeen{},
	); err != nil {
		logger.Error("migrate", zap.Error(err))
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	friendshipRepo := repository.NewFriendshipRepository(db)
	chatRepo := repository.NewChatRepository(db)

	// friend ids feed the privacy predicate on every authenticated read;
	// front them with redis when configured
	var friendSource service.FriendIDSource = friendshipRepo
	var invalidator service.FriendCacheInvalidator
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		fc := cache.NewFriendSetCache(friendshipRepo, rdb, cfg.Redis.TTL)
		friendSource = fc
		invalidator = fc
	}

	userSvc := service.NewUserService(userRepo)
	postSvc := service.NewPostService(postRepo, userRepo, friendSource)
	commentSvc := service.NewCommentService(commentRepo, postRepo, userRepo, friendSource)
	friendshipSvc := service.NewFriendshipService(friendshipRepo, userRepo, invalidator)
	chatSvc := service.NewChatService(chatRepo, userRepo)

	h := handler.New(userSvc, postSvc, commentSvc, friendshipSvc, chatSvc)
	engine := router.New(cfg, userSvc, h)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: engine}
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func openDB(cfg config.DBConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	default:
		return gorm.Open(sqlite.Open(cfg.DSN), &gorm.Config{})
	}
}
