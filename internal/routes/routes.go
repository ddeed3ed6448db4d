package routes

import (
	"context"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Gokul221/mindfulhaven-app/internal/config"
	"github.com/Gokul221/mindfulhaven-app/internal/handlers"
	"github.com/Gokul221/mindfulhaven-app/internal/middleware"
	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/services"
	notifyws "github.com/Gokul221/mindfulhaven-app/internal/websocket"
)

// Pinger reports store health for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Accounts *services.AccountService
	Catalog  *services.CatalogService
	Trainers *services.TrainerService
	Bookings *services.BookingService
	Hub      *notifyws.Hub
	DB       Pinger
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, deps Dependencies) error {
	authHandler := handlers.NewAuthHandler(deps.Accounts)
	classHandler := handlers.NewClassHandler(deps.Catalog)
	trainerHandler := handlers.NewTrainerHandler(deps.Trainers)
	bookingHandler := handlers.NewBookingHandler(deps.Bookings)
	paymentHandler := handlers.NewPaymentHandler(deps.Bookings)
	notificationHandler := handlers.NewNotificationHandler(deps.Hub, deps.Accounts)

	app.Get("/health", healthHandler(deps.DB))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if err := registerDocsRoutes(app, cfg); err != nil {
		return err
	}

	api := app.Group("/api", middleware.Authenticate(deps.Accounts))
	staff := middleware.RequireRoles(models.RoleTrainer, models.RoleAdmin)

	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        cfg.RateLimitPerMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
		},
	}))
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(), authHandler.Me)

	classes := api.Group("/classes")
	classes.Get("", classHandler.ListClasses)
	classes.Get("/:id", classHandler.GetClass)
	classes.Post("", staff, classHandler.CreateClass)
	classes.Put("/:id", middleware.AuthRequired(), classHandler.UpdateClass)
	classes.Delete("/:id", middleware.AuthRequired(), classHandler.DeleteClass)

	trainers := api.Group("/trainers")
	trainers.Get("", trainerHandler.ListTrainers)
	trainers.Put("/me", middleware.RequireRoles(models.RoleTrainer), trainerHandler.UpdateMySpecialties)
	trainers.Get("/:id", trainerHandler.GetTrainer)

	bookings := api.Group("/bookings", middleware.AuthRequired())
	bookings.Post("", bookingHandler.CreateBooking)
	bookings.Get("", bookingHandler.ListBookings)
	bookings.Get("/:id", bookingHandler.GetBooking)

	payments := api.Group("/payments", middleware.AuthRequired())
	payments.Post("/order", paymentHandler.CreateOrder)
	payments.Post("/verify", paymentHandler.VerifyPayment)

	api.Use("/ws", notificationHandler.WebSocketAuth)
	api.Get("/ws", websocket.New(notificationHandler.HandleWebSocket))

	return nil
}

func healthHandler(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":   "degraded",
					"database": "unreachable",
				})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
