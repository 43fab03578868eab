package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"

	"example.com/community/services/events/config"
	"example.com/community/services/events/internal/api/handlers"
	"example.com/community/services/events/internal/api/middleware"
	"example.com/community/services/events/internal/metrics"
	"example.com/community/services/events/internal/services"
	"example.com/community/services/events/internal/tracing"
)

// Services carries the wired application services the router exposes
type Services struct {
	Events        *services.EventService
	Ratings       *services.RatingService
	Registrations *services.RegistrationService
	Reports       *services.ReportService
	Users         *services.UserService
	Geocoder      services.Geocoder
}

// Server wraps the HTTP server and its router
type Server struct {
	httpServer *http.Server
}

// NewServer builds the router and returns a server ready to start
func NewServer(cfg *config.Config, svcs Services, collector *metrics.Collector, tracer tracing.Tracer) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RequestMetrics(collector))
	if app := tracer.Application(); app != nil {
		router.Use(nrgin.Middleware(app))
	}

	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": "method not allowed"})
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "not found"})
	})

	router.GET("/health", handlers.Health)
	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, collector.Snapshot())
	})

	eventHandler := handlers.NewEventHandler(svcs.Events)
	ratingHandler := handlers.NewRatingHandler(svcs.Ratings)
	registrationHandler := handlers.NewRegistrationHandler(svcs.Registrations)
	chartHandler := handlers.NewChartHandler(svcs.Reports)
	userHandler := handlers.NewUserHandler(svcs.Users)
	geocodeHandler := handlers.NewGeocodeHandler(svcs.Geocoder)

	requireSession := middleware.RequireSession(svcs.Users)
	requireAdmin := middleware.RequireAdmin()

	v1 := router.Group("/api/v1")
	{
		events := v1.Group("/events")
		{
			events.GET("/recent", eventHandler.Recent)
			events.GET("/search", eventHandler.Search)
			events.POST("", requireSession, requireAdmin, eventHandler.Create)
			events.DELETE("/:id", requireSession, requireAdmin, eventHandler.Delete)

			events.GET("/:id/ratings", ratingHandler.Get)
			events.POST("/:id/ratings", requireSession, ratingHandler.Submit)

			events.GET("/:id/registrations/:uid", registrationHandler.Status)
			events.POST("/:id/registrations", requireSession, registrationHandler.Action)
		}

		v1.GET("/charts/daily-totals", chartHandler.DailyTotals)

		users := v1.Group("/users")
		{
			users.POST("", userHandler.Create)
			users.GET("", requireSession, requireAdmin, userHandler.List)
			users.GET("/:uid", requireSession, userHandler.Get)
			users.DELETE("/:uid", requireSession, requireAdmin, userHandler.Delete)
		}

		v1.POST("/session/verify", requireSession, userHandler.Session)
		v1.POST("/geocode", requireSession, geocodeHandler.Geocode)
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.ServerAddress,
			Handler:      router,
			ReadTimeout:  cfg.ServerTimeout,
			WriteTimeout: cfg.ServerTimeout,
		},
	}
}

// Start begins serving HTTP requests, blocking until shutdown or failure
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
