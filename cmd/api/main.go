package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/tryvocalcat/fediprofile/internal/config"
	"github.com/tryvocalcat/fediprofile/internal/database"
	"github.com/tryvocalcat/fediprofile/internal/handler"
	"github.com/tryvocalcat/fediprofile/internal/middleware"
	"github.com/tryvocalcat/fediprofile/internal/router"
	"github.com/tryvocalcat/fediprofile/internal/service"
	"github.com/tryvocalcat/fediprofile/internal/store"
	"github.com/tryvocalcat/fediprofile/pkg/httpsig"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	resolver := store.NewResolver(cfg.DataDir, cfg.ReservedSlugs, logger)

	signingClient := httpsig.NewClient(logger, cfg.DeliveryTimeout)
	fetcher := service.NewActorFetcher(signingClient, redisClient, cfg.ActorCacheTTL, logger)

	followService := service.NewFollowService(signingClient, fetcher, logger)
	announceService := service.NewAnnounceService(signingClient, fetcher, followService, logger)
	dispatchService := service.NewDispatchService(followService, announceService, logger)
	actorService := service.NewActorService(logger)

	redirectURI := "https://" + cfg.PrimaryDomain + "/auth/callback"
	appService := service.NewAppRegistrationService(cfg.AppName, redirectURI, cfg.DeliveryTimeout, logger)

	inboxHandler := handler.NewInboxHandler(resolver, dispatchService, logger)
	actorHandler := handler.NewActorHandler(resolver, actorService, logger)
	authHandler := handler.NewAuthHandler(appService, redirectURI, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		InboxHandler: inboxHandler,
		ActorHandler: actorHandler,
		AuthHandler:  authHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
