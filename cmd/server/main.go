package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"carpool/internal/app"
	"carpool/internal/bus"
	"carpool/internal/config"
	"carpool/internal/eta"
	"carpool/internal/handler"
	internalRedis "carpool/internal/redis"
	"carpool/internal/repository/postgres"
	"carpool/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize the event bus.
	eventBus := bus.New()

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	admissionRepo := postgres.NewAdmissionRepository(db)
	rewardRepo := postgres.NewRewardRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	alertRepo := postgres.NewSafetyAlertRepository(db)
	contactRepo := postgres.NewTrustedContactRepository(db)
	contactRegistrar := postgres.NewContactRegistrar(db)
	verificationRepo := postgres.NewRideVerificationRepository(db)

	// Initialize services.
	estimator := eta.NewScheduleEstimator()
	notifier := service.NewLogContactNotifier()
	rideService := service.NewRideService(rideRepo, bookingRepo, admissionRepo, userRepo, messageRepo, cacheStore, locationStore, eventBus)
	bookingService := service.NewBookingService(
		admissionRepo, rideRepo, bookingRepo, userRepo, rewardRepo, messageRepo,
		lockStore, cacheStore, eventBus, cfg.Booking.LockTTL, cfg.Booking.LockWait)
	locationService := service.NewLocationService(rideRepo, locationStore, estimator, eventBus)
	safetyService := service.NewSafetyService(
		alertRepo, contactRepo, contactRegistrar, verificationRepo,
		rideRepo, bookingRepo, userRepo, messageRepo, rewardRepo, notifier, eventBus)
	userService := service.NewUserService(userRepo, rewardRepo, messageRepo)

	// Initialize handlers.
	rideHandler := handler.NewRideHandler(rideService, locationService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	safetyHandler := handler.NewSafetyHandler(safetyService)
	userHandler := handler.NewUserHandler(userService, rideService)
	wsHandler := handler.NewWSHandler(eventBus)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		RideHandler:    rideHandler,
		BookingHandler: bookingHandler,
		SafetyHandler:  safetyHandler,
		UserHandler:    userHandler,
		WSHandler:      wsHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
