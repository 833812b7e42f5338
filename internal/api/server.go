package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"masterspa/internal/api/handlers"
	"masterspa/internal/api/middleware"
	"masterspa/internal/cart"
	"masterspa/internal/config"
	"masterspa/internal/database"
	"masterspa/internal/importlog"
	"masterspa/internal/logger"
	"masterspa/internal/orders"
	"masterspa/internal/settings"

	"github.com/gin-gonic/gin"
)

// Services are the components the admin API routes to.
type Services struct {
	DB        *database.Database
	Settings  *settings.Store
	Importer  handlers.Importer
	Scheduler handlers.Rescheduler
	Logs      *importlog.Repository
	Orders    *orders.Service
	Carts     cart.SessionStore
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, svc Services) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Initialize handlers
	settingsHandler := handlers.NewSettingsHandler(svc.Settings, svc.Scheduler, logger)
	importHandler := handlers.NewImportHandler(svc.Importer, svc.Settings, logger)
	logHandler := handlers.NewLogHandler(svc.Logs, logger)
	productHandler := handlers.NewProductHandler(svc.DB.DB, logger)
	orderHandler := handlers.NewOrderHandler(svc.Orders, logger)
	cartHandler := handlers.NewCartHandler(svc.Carts, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AdminToken(cfg.AdminToken))
	{
		// Settings
		v1.GET("/settings", settingsHandler.Get)
		v1.PUT("/settings", settingsHandler.Update)

		// Import
		v1.POST("/import", importHandler.Run)
		v1.GET("/import/summary", importHandler.Summary)

		// Import log
		v1.GET("/logs", logHandler.List)
		v1.DELETE("/logs", logHandler.Clear)

		// Products
		products := v1.Group("/products")
		{
			products.GET("", productHandler.List)
			products.GET("/:id", productHandler.Get)
		}

		// Orders
		ordersGroup := v1.Group("/orders")
		{
			ordersGroup.PUT("/:id/status", orderHandler.UpdateStatus)
			ordersGroup.POST("/:id/items/:itemId/subscribers", orderHandler.AttachSubscribers)
		}

		// Cart sessions
		carts := v1.Group("/carts")
		{
			carts.GET("/:session/items/:key/subscribers", cartHandler.GetSubscribers)
			carts.PUT("/:session/items/:key/subscribers", cartHandler.SaveSubscribers)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the configured gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}
