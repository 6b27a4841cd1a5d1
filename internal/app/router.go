package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"carpool/internal/handler"
	"carpool/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler    *handler.RideHandler
	BookingHandler *handler.BookingHandler
	SafetyHandler  *handler.SafetyHandler
	UserHandler    *handler.UserHandler
	WSHandler      *handler.WSHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Real-time event stream.
	router.GET("/ws", deps.WSHandler.Serve)

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("", deps.UserHandler.CreateUser)
			users.GET("", deps.UserHandler.ListUsers)
			users.GET("/:id", deps.UserHandler.GetUser)
			users.GET("/:id/rides", deps.UserHandler.ListUserRides)
			users.GET("/:id/bookings", deps.BookingHandler.ListUserBookings)
			users.GET("/:id/rewards", deps.UserHandler.ListUserRewards)
			users.GET("/:id/messages", deps.UserHandler.ListUserMessages)
			users.GET("/:id/alerts", deps.SafetyHandler.ListUserAlerts)
			users.GET("/:id/contacts", deps.SafetyHandler.ListTrustedContacts)
		}

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("", deps.RideHandler.ListRides)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.GET("/:id/details", deps.RideHandler.GetRideDetails)
			rides.POST("/:id/start", deps.RideHandler.StartRide)
			rides.POST("/:id/complete", deps.RideHandler.CompleteRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
			rides.POST("/:id/location", deps.RideHandler.ReportLocation)
			rides.GET("/:id/location", deps.RideHandler.GetLocation)
			rides.POST("/:id/verification", deps.SafetyHandler.GenerateVerificationCode)
			rides.POST("/:id/verification/confirm", deps.SafetyHandler.ConfirmVerificationCode)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.BookRide)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
		}

		// Safety routes.
		safety := v1.Group("/safety")
		{
			safety.POST("/alerts", deps.SafetyHandler.CreateAlert)
			safety.POST("/alerts/:id/resolve", deps.SafetyHandler.ResolveAlert)
			safety.POST("/contacts", deps.SafetyHandler.AddTrustedContact)
		}

		// Message routes.
		messages := v1.Group("/messages")
		{
			messages.POST("/:id/read", deps.UserHandler.MarkMessageRead)
		}
	}

	return router
}
