package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Gokul221/mindfulhaven-app/internal/cache"
	"github.com/Gokul221/mindfulhaven-app/internal/config"
	"github.com/Gokul221/mindfulhaven-app/internal/database"
	"github.com/Gokul221/mindfulhaven-app/internal/events"
	"github.com/Gokul221/mindfulhaven-app/internal/metrics"
	"github.com/Gokul221/mindfulhaven-app/internal/middleware"
	"github.com/Gokul221/mindfulhaven-app/internal/obs"
	"github.com/Gokul221/mindfulhaven-app/internal/payments"
	"github.com/Gokul221/mindfulhaven-app/internal/routes"
	"github.com/Gokul221/mindfulhaven-app/internal/services"
	notifyws "github.com/Gokul221/mindfulhaven-app/internal/websocket"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Observability
	shutdownTracer, err := obs.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to init tracer: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}()
	metrics.Register()

	// 3. Connect to Database
	db, err := database.Open(ctx, cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// 4. Optional infrastructure
	var classCache *cache.ClassCache
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cache.RedisConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		if err := cache.Ping(ctx, client); err != nil {
			log.Printf("Catalog cache disabled: %v", err)
		} else {
			classCache = cache.NewClassCache(client, cfg.CatalogCacheTTL)
			log.Printf("Catalog cache enabled at %s", cfg.RedisAddr)
		}
	}

	hub := notifyws.NewHub()
	go hub.Run(ctx)

	publisher := events.Fanout{hub}
	if cfg.RabbitURL != "" {
		mq, err := events.NewMQPublisher(cfg.RabbitURL, cfg.EventsExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer mq.Close()
		publisher = append(publisher, mq)
		log.Printf("Publishing events to exchange %s", cfg.EventsExchange)
	}

	if !cfg.PaymentsConfigured() {
		log.Println("RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET not set; payment orders will fail")
	}
	gateway := payments.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	verifier := payments.NewSignatureVerifier(cfg.RazorpayKeySecret)

	// 5. Services
	stores := services.NewStores(db.Pool)
	transactor := services.NewTransactor(db)
	deps := routes.Dependencies{
		Accounts: services.NewAccountService(stores, transactor, services.TokenConfig{
			Secret:    cfg.JWTSecret,
			LoginTTL:  cfg.LoginTokenTTL,
			SignupTTL: cfg.SignupTokenTTL,
		}),
		Catalog:  services.NewCatalogService(stores, transactor, classCache),
		Trainers: services.NewTrainerService(stores),
		Bookings: services.NewBookingService(stores, transactor, gateway, verifier, publisher, services.BookingConfig{
			Currency:     cfg.PaymentCurrency,
			VerifyRemote: cfg.PaymentVerifyRemote,
		}),
		Hub: hub,
		DB:  db,
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      "mindfulhaven-api",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Tracing(cfg.ServiceName))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${latency} ${method} ${path}\n",
	}))
	app.Use(helmet.New())
	app.Use(cors.New())
	app.Use(compress.New())
	app.Use(etag.New())

	if err := routes.RegisterRoutes(app, cfg, deps); err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	// 7. Start Server
	go func() {
		<-ctx.Done()
		log.Println("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
