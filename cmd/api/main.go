package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-brindes-ws/internal/app"
	"go-brindes-ws/internal/config"
	"go-brindes-ws/internal/handler"
	"go-brindes-ws/internal/identity"
	"go-brindes-ws/internal/notify"
	"go-brindes-ws/internal/repository"
	"go-brindes-ws/internal/service"
	"go-brindes-ws/internal/ws"
	"go-brindes-ws/pkg/database"
	"go-brindes-ws/pkg/jwt"
	"go-brindes-ws/pkg/logger"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	log := logger.Get()

	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found")
	}
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	if cfg.DirectusURL == "" {
		log.Fatal("DIRECTUS_URL is required")
	}

	// 2. Setup Database
	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := repository.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 4. Optional protocol sinks
	ctx := context.Background()
	var (
		store notify.DocumentStore
		sink  notify.EventSink
	)
	if cfg.PubSubProjectID != "" && cfg.PubSubTopic != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSubProjectID)
		if err != nil {
			log.WithError(err).Fatal("failed to create pubsub client")
		}
		defer client.Close()
		publisher, err := notify.NewPubSubPublisher(client, cfg.PubSubTopic)
		if err != nil {
			log.WithError(err).Fatal("failed to set up protocol topic")
		}
		defer publisher.Stop()
		sink = publisher
	}
	if cfg.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			log.WithError(err).Fatal("failed to create storage client")
		}
		defer client.Close()
		archive, err := notify.NewGCSArchive(client, cfg.GCSBucket)
		if err != nil {
			log.WithError(err).Fatal("failed to set up document archive")
		}
		store = archive
	}

	// 5. Dependency Injection (Wiring Layers)
	svc := app.New(db, cfg, wsHub, store, sink)
	authService := service.NewAuthService(
		identity.NewDirectusClient(cfg.DirectusURL, cfg.DirectusInsecureTLS),
		jwt.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
	)

	// 6. Setup Fiber
	server := fiber.New(fiber.Config{
		AppName: "Brindes Inventory v1.0",
	})

	server.Use(fiberlogger.New())
	server.Use(recover.New())
	server.Use(cors.New())

	// 7. Routes
	handler.Register(server, handler.Routes{
		AuthService: authService,
		BotKeyHash:  cfg.BotKeyHash,
		Auth:        handler.NewAuthHandler(authService),
		Dashboard:   handler.NewDashboardHandler(svc.Dashboard),
		Inventory:   handler.NewInventoryHandler(svc.Stock),
		Samples:     handler.NewSampleHandler(svc.Samples),
		Protocols:   handler.NewProtocolHandler(svc.Protocols),
		Assistant:   handler.NewAssistantHandler(svc.Tools),
	})

	server.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// WebSocket Route
	server.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	server.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Panic("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := server.Shutdown(); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	svc.Protocols.Wait()

	log.Info("Server exited")
}
