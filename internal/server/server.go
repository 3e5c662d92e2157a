// Package server
//
// @title BookHub API
// @version 1.0
// @description Library management service API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bookhub-dev/bookhub/internal/auth"
	"github.com/bookhub-dev/bookhub/internal/config"
	"github.com/bookhub-dev/bookhub/internal/events"
	"github.com/bookhub-dev/bookhub/internal/identity"
	"github.com/bookhub-dev/bookhub/internal/models"
	"github.com/bookhub-dev/bookhub/internal/seed"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	validator   *validator.Validate
	asynqClient *asynq.Client
	publisher   *events.Publisher
	identity    *identity.Service
	version     string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Initialize JWT authentication. The secret comes from the
	// environment so server and worker agree across restarts.
	auth.InitializeJWT(cfg.Identity.JWTSecret)

	// Initialize validator
	validate := validator.New()

	// Verification codes are always six digits
	validate.RegisterValidation("verifycode", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if len(value) != 6 {
			return false
		}
		for _, char := range value {
			if char < '0' || char > '9' {
				return false
			}
		}
		return true
	})

	// Initialize Asynq client for publishing domain events
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})
	publisher := events.NewPublisher(asynqClient, zlog)

	// Apply optional seed file (admin allowlist merge + starter catalog)
	adminEmails := cfg.Identity.AdminEmails
	if cfg.SeedPath != "" {
		seeded, err := seed.Apply(db, cfg.SeedPath, zlog)
		if err != nil {
			zlog.Warn().Err(err).Str("path", cfg.SeedPath).Msg("Failed to apply seed file")
		} else {
			adminEmails = append(adminEmails, seeded.AdminEmails...)
		}
	}

	identityService := identity.NewService(db, publisher, zlog, adminEmails)

	server := &Server{
		db:          db,
		config:      cfg,
		logger:      zlog,
		validator:   validate,
		asynqClient: asynqClient,
		publisher:   publisher,
		identity:    identityService,
		version:     version,
	}

	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 300 * time.Second
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: gormlogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormlogger.Config{
				LogLevel:                  gormlogger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	// WAL mode first for concurrency, then the rest of the pragmas
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Identity endpoints (no auth required)
	s.router.POST("/signup", s.signup)
	s.router.POST("/verify-email", s.verifyEmail)
	s.router.POST("/login", s.login)
	s.router.POST("/forgot-password", s.forgotPassword)
	s.router.POST("/reset-password", s.resetPassword)

	// Authenticated API routes (bearer access token required)
	api := s.router.Group("/api")
	api.Use(BearerAuthMiddleware(s.db, s.logger))
	{
		// Catalog
		api.GET("/books", s.listBooks)
		api.GET("/search", s.searchBooks)
		api.POST("/add_book", s.addBook)

		// Borrowing
		api.PUT("/borrow", s.borrowBook)
		api.PUT("/return", s.returnBook)

		// Collections & resources
		api.GET("/collections_list", s.listCollections)
		api.GET("/collections_list/:collection_name/resources", s.listResources)
		api.POST("/add_collection", s.addCollection)
		api.POST("/add_resource", s.addResource)

		// Admin only
		adminRoutes := api.Group("")
		adminRoutes.Use(AdminOnlyMiddleware(s.logger))
		{
			adminRoutes.DELETE("/delete_book/:book_name", s.deleteBook)
			adminRoutes.DELETE("/delete_collection/:collection_name", s.deleteCollection)
			adminRoutes.DELETE("/delete_resource/:collection_name/:resource_name", s.deleteResource)
			adminRoutes.GET("/list-users", s.listUsers)
			adminRoutes.POST("/update-role", s.updateRole)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "bookhub-api",
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Router exposes the configured engine for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Server.Address,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("addr", s.config.Server.Address).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	return nil
}
