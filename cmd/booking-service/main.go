package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vacme/vacme-backend/internal/odi/distance"
	"github.com/vacme/vacme-backend/internal/odi/geocode"
	odihandler "github.com/vacme/vacme-backend/internal/odi/handler"
	odirepo "github.com/vacme/vacme-backend/internal/odi/repository"
	odiservice "github.com/vacme/vacme-backend/internal/odi/service"
	"github.com/vacme/vacme-backend/internal/registration/consumers"
	"github.com/vacme/vacme-backend/internal/registration/events"
	"github.com/vacme/vacme-backend/internal/registration/handler"
	"github.com/vacme/vacme-backend/internal/registration/repository"
	"github.com/vacme/vacme-backend/internal/registration/service"
	"github.com/vacme/vacme-backend/internal/registration/session"
	"github.com/vacme/vacme-backend/pkg/config"
	"github.com/vacme/vacme-backend/pkg/database"
	"github.com/vacme/vacme-backend/pkg/httputil"
	"github.com/vacme/vacme-backend/pkg/i18n"
	"github.com/vacme/vacme-backend/pkg/logger"
	"github.com/vacme/vacme-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("booking-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("booking-service", cfg.Server.Environment)
	log.Info().Msg("starting Booking Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewRegistrationEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	dossierRepo := repository.NewDossierRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	locationRepo := odirepo.NewLocationRepository(db)

	// Session store and distance cache
	sessions := session.NewStore(&cfg.Booking)
	geocoder := geocode.NewClient(cfg.Geo.GeocoderURL, log)
	distanceCache := distance.NewCache(geocoder, cfg.Geo.Enabled, log)

	// Initialize services
	bookingService := service.NewBookingService(dossierRepo, slotRepo, locationRepo, sessions, publisher, log)
	locationService := odiservice.NewLocationService(locationRepo, distanceCache, &cfg.Geo, log)

	// Initialize handlers
	bookingHandler := handler.NewBookingHandler(bookingService, sessions, log)
	locationHandler := odihandler.NewLocationHandler(locationService, sessions, log)

	// Start event consumers
	addressConsumer, err := consumers.NewAddressEventConsumer(rmq, distanceCache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create address event consumer")
	}
	migrationConsumer, err := consumers.NewMigrationEventConsumer(rmq, dossierRepo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create migration event consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := addressConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start address event consumer")
	}
	if err := migrationConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start migration event consumer")
	}

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			// Local portal development
			if origin == "http://localhost:3000" || origin == "http://localhost:4200" {
				return true
			}
			// Cantonal portal deployments
			return strings.HasSuffix(origin, ".vacme.ch")
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Accept-Language", "X-Session-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware)
	r.Use(httputil.Auth(&cfg.JWT)) // JWT auth with /health exception

	// Health check (no auth required - handled by middleware)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "booking-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes (auth + tenant required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/registrations", func(r chi.Router) {
			r.Get("/session", bookingHandler.GetSession)
			r.Post("/dossier", bookingHandler.LoadDossier)
			r.Put("/location", bookingHandler.ChooseLocation)
			r.Get("/slots", bookingHandler.ListSlots)
			r.Put("/slots", bookingHandler.SelectSlot)
			r.Put("/illness-declaration", bookingHandler.ConfirmIllnessDeclaration)
			r.Post("/book", bookingHandler.Book)
			r.Post("/cancel", bookingHandler.Cancel)
		})

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", locationHandler.List)
			r.Get("/{id}", locationHandler.Get)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced server shutdown")
	}

	log.Info().Msg("server stopped")
}
