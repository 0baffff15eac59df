package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/vaxpoint/bookings/internal/cache"
	"github.com/vaxpoint/bookings/internal/http/handlers"
	httpmw "github.com/vaxpoint/bookings/internal/http/middleware"
	"github.com/vaxpoint/bookings/internal/mailer"
	"github.com/vaxpoint/bookings/internal/notify"
	"github.com/vaxpoint/bookings/internal/repo/postgres"
	"github.com/vaxpoint/bookings/internal/service"
	"github.com/vaxpoint/bookings/pkg/config"
	"github.com/vaxpoint/bookings/pkg/database"
	"github.com/vaxpoint/bookings/pkg/events"
	"github.com/vaxpoint/bookings/pkg/logger"
	mw "github.com/vaxpoint/bookings/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	var availability cache.AvailabilityCache
	availability, err = cache.NewRedis(cfg.Redis.URL, cfg.Redis.AvailabilityTTL)
	if err != nil {
		logger.Warn("Redis unavailable, availability cache disabled", "error", err)
		availability = cache.Noop{}
	}

	var mail mailer.Service
	if cfg.Email.DevMode {
		mail = mailer.NewDevMailer()
	} else {
		mail = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	consumer := notify.NewConsumer(eventBus, mail)
	if err := consumer.Start(); err != nil {
		logger.Error("Failed to start mail consumer", "error", err)
		os.Exit(1)
	}

	userRepo := postgres.NewUserRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)

	authService := service.NewAuthService(userRepo, eventBus, cfg)
	bookingService := service.NewBookingService(bookingRepo, userRepo, availability, eventBus)

	h := handlers.New(authService, bookingService)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("bookings"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(httpmw.RequireAuth(cfg.Auth.JWTSecret, ""))
		r.Get("/slots/available", h.AvailableSlots)
		r.Post("/bookings", h.CreateBooking)
		r.Put("/bookings", h.RescheduleBooking)
		r.Get("/bookings/me", h.MyBooking)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(httpmw.RequireAuth(cfg.Auth.JWTSecret, "admin"))
		r.Get("/users", h.ListUsers)
		r.Get("/bookings", h.ListBookings)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down bookings service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Bookings service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting bookings service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Bookings service error", "error", err)
		os.Exit(1)
	}
}
