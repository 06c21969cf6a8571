package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/franckabsuser/bam/internal/auth"
	"github.com/franckabsuser/bam/internal/config"
	"github.com/franckabsuser/bam/internal/events"
	"github.com/franckabsuser/bam/internal/handlers"
	"github.com/franckabsuser/bam/internal/logger"
	"github.com/franckabsuser/bam/internal/metrics"
	"github.com/franckabsuser/bam/internal/middleware"
	"github.com/franckabsuser/bam/internal/presence"
	"github.com/franckabsuser/bam/internal/repository"
	"github.com/franckabsuser/bam/internal/routes"
	"github.com/franckabsuser/bam/internal/service"
	"github.com/franckabsuser/bam/internal/ws"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zlog, err := logger.New(logger.Config{Development: cfg.Server.Development})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mc, err := repository.NewMongoClient(ctx, cfg.Mongo.URI)
	cancel()
	if err != nil {
		zlog.Fatalw("mongo init", "err", err)
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	db := mc.Database(cfg.Mongo.Database)
	userRepo := repository.NewUserMongoRepository(db.Collection("users"))
	convRepo := repository.NewConversationMongoRepository(db.Collection("conversations"))
	msgRepo := repository.NewMessageMongoRepository(db.Collection("messages"))
	pauseRepo := repository.NewPauseMongoRepository(db.Collection("pauses"))

	mets := metrics.New()
	pres := presence.NewStore(rdb, cfg.Redis.Prefix)
	hub := ws.NewHub(pres, mets, zlog)

	pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, zlog)
	defer func() { _ = pub.Close() }()
	notifier := events.NewFanOut(hub, pub)

	tokens := auth.NewJWTManager(cfg.Auth.Secret, cfg.TokenTTL)

	userSvc := service.NewUserService(userRepo, tokens, notifier, zlog)
	convSvc := service.NewConversationService(convRepo, msgRepo, userRepo, notifier, zlog)
	msgSvc := service.NewMessageService(msgRepo, convRepo, userRepo, notifier, zlog)
	pauseSvc := service.NewPauseService(pauseRepo, userRepo, zlog)

	eventHandler := ws.NewEventHandler(hub, userSvc, convSvc, msgSvc, pauseSvc, zlog)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(rdb, cfg.Redis.Prefix,
			cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	routes.Register(app, routes.Deps{
		Users:         handlers.NewUserHandler(userSvc, zlog),
		Conversations: handlers.NewConversationHandler(convSvc, zlog),
		Messages:      handlers.NewMessageHandler(msgSvc, zlog),
		Pauses:        handlers.NewPauseHandler(pauseSvc, zlog),
		Events:        eventHandler,
		Auth:          middleware.JWTAuth(tokens),
		RateLimit:     routes.RateLimitFromLimiter(limiter, cfg.RateLimit.Enabled),
	})

	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			zlog.Fatalw("server listen", "err", err)
		}
	}()
	zlog.Infow("server started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	zlog.Infow("server stopped")
}
