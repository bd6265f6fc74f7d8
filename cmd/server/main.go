package main

import (
	"notes-service/internal/handler"
	"notes-service/internal/middleware"
	"notes-service/internal/store"
	"notes-service/internal/subscription"
	"notes-service/pkg/config"
	"notes-service/pkg/database"
	"notes-service/pkg/jwtutil"
	"notes-service/pkg/logger"
	"notes-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting notes service...", cfg.LogConfig()...)

	// Initialize database and the single store instance shared by all handlers
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")
	st := store.NewGormStore(db)

	// Token service and subscription gate, both constructed from config
	jwt := jwtutil.NewJWTUtil(&cfg.JWT)
	gate := subscription.NewGate(st, cfg.Notes.FreePlanLimit)

	h := handler.New(st, jwt, gate)
	auth := middleware.NewAuthenticator(jwt, st)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	authGroup := e.Group("/auth")
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.GET("/me", h.Me, auth.Authenticate)

	// Notes - any tenant member
	notes := e.Group("/notes")
	notes.Use(auth.Authenticate, middleware.RequireMember)
	notes.GET("", h.ListNotes)
	notes.POST("", h.CreateNote)
	notes.GET("/recommendations", h.Recommendations)
	notes.GET("/:id", h.GetNote)
	notes.PUT("/:id", h.UpdateNote)
	notes.DELETE("/:id", h.DeleteNote)
	notes.POST("/:id/toggle-sticky", h.ToggleSticky)

	// Tenant routes - current is open to all members, the rest admin only
	tenants := e.Group("/tenants")
	tenants.Use(auth.Authenticate)
	tenants.GET("/current", h.CurrentTenant)
	tenants.POST("/:slug/upgrade", h.UpgradeTenant, middleware.RequireAdmin)
	tenants.GET("/:slug/stats", h.TenantStats, middleware.RequireAdmin)

	// User management - admin only
	users := e.Group("/users")
	users.Use(auth.Authenticate, middleware.RequireAdmin)
	users.GET("", h.ListUsers)
	users.POST("/invite", h.InviteUser)
	users.GET("/:id", h.GetUser)
	users.PUT("/:id/role", h.UpdateUserRole)
	users.DELETE("/:id", h.DeleteUser)

	// Start server
	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
