package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authsvc "tradepost/internal/app/services/auth"
	chatsvc "tradepost/internal/app/services/chat"
	listingsvc "tradepost/internal/app/services/listing"
	notifsvc "tradepost/internal/app/services/notification"
	"tradepost/internal/infra/broker/kafka"
	"tradepost/internal/infra/config"
	mongodb "tradepost/internal/infra/db/mongo"
	ginserver "tradepost/internal/infra/http/gin"
	"tradepost/internal/infra/obs"
	"tradepost/internal/infra/realtime"
	"tradepost/internal/infra/security"
	"tradepost/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	db, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connect failed", "error", err)
		os.Exit(1)
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Error("mongo index setup failed", "error", err)
		os.Exit(1)
	}

	var uploader s3.Uploader = s3.NoopUploader{}
	if s3Client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger); err != nil {
		logger.Warn("s3 uploader unavailable", "error", err)
	} else {
		uploader = s3Client
	}

	var events *kafka.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Warn("kafka unavailable, domain events disabled", "error", err)
		} else {
			defer producer.Close()
			events = &kafka.EventPublisher{
				Producer:    producer,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Logger:      logger,
			}
		}
	}

	users := mongodb.NewUserRepository(db.DB)
	sessions := mongodb.NewSessionStore(db.DB)
	listings := mongodb.NewListingRepository(db.DB)
	conversations := mongodb.NewConversationRepository(db.DB)
	messages := mongodb.NewMessageRepository(db.DB)
	notifications := mongodb.NewNotificationRepository(db.DB)

	registry := realtime.NewRegistry(logger)
	dispatcher := &realtime.Dispatcher{Registry: registry, Logger: logger}
	gateway := &realtime.Gateway{
		Registry:     registry,
		Logger:       logger,
		SendBuffer:   cfg.WSSendBuffer,
		WriteTimeout: cfg.WSWriteTimeout,
	}

	authService := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		Avatars:    uploader,
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	notificationService := &notifsvc.Service{Repo: notifications, Logger: logger}
	chatService := &chatsvc.Service{
		Listings:      listings,
		Users:         users,
		Conversations: conversations,
		Messages:      messages,
		Notifications: notificationService,
		Dispatcher:    dispatcher,
		Events:        events,
		Logger:        logger,
	}
	listingService := &listingsvc.Service{
		Listings:      listings,
		Chat:          chatService,
		Notifications: notificationService,
		Uploader:      uploader,
		Events:        events,
		Logger:        logger,
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.Ping(pingCtx)
		},
	}, ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		Listing:        ginserver.ListingHandler{Service: listingService, Logger: logger},
		Chat:           ginserver.ChatHandler{Service: chatService, Logger: logger},
		Notification:   ginserver.NotificationHandler{Service: notificationService, Logger: logger},
		Realtime:       ginserver.RealtimeHandler{Gateway: gateway, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
