package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nexconsult/zipcase/internal/api/handlers"
	"github.com/nexconsult/zipcase/internal/api/middleware"
	"github.com/nexconsult/zipcase/internal/config"
	"github.com/nexconsult/zipcase/internal/services"
)

// Server represents the HTTP server
type Server struct {
	Router   *gin.Engine
	config   *config.Config
	logger   *logrus.Logger
	services *services.Container
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, services *services.Container) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
	}

	server.setupRouter()
	return server
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() {
	s.Router = gin.New()

	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())
	s.Router.Use(middleware.RequestID())

	rateLimiter := middleware.NewRateLimiter(s.config.Security.RateLimit)
	s.Router.Use(rateLimiter.Middleware())

	// Health checks are unauthenticated so a load balancer can probe them.
	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)

	if s.config.Server.Environment != "production" {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	// Every other endpoint requires a bearer token verified against the
	// identity provider's public key, per spec.md §6.
	authed := s.Router.Group("/")
	authed.Use(middleware.Auth(s.config.Security.JWTPublicKey))
	{
		searchHandler := handlers.NewSearchHandler(s.services.CSP, s.services.CSS, s.logger)
		authed.POST("/search", searchHandler.Search)

		nameSearchHandler := handlers.NewNameSearchHandler(s.services.NSP, s.services.StatusAPI, s.services.CSS, s.logger)
		authed.POST("/name-search", nameSearchHandler.Create)
		authed.GET("/name-search/:searchId", nameSearchHandler.Get)

		statusHandler := handlers.NewStatusHandler(s.services.StatusAPI, s.services.CSS, s.logger)
		authed.POST("/status", statusHandler.Status)
		authed.GET("/case/:caseNumber", statusHandler.Case)

		exportHandler := handlers.NewExportHandler(s.services.StatusAPI, s.services.CSS, s.logger)
		authed.POST("/export", exportHandler.Export)
	}

	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "not_found",
			"message":   "the requested resource was not found",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
		})
	})

	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "method_not_allowed",
			"message":   "the requested method is not allowed for this resource",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		})
	})
}
