package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/cliffauth/internal/auth"
	"github.com/mrlokans/cliffauth/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTS {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	if cfg.AuthService == nil {
		return router
	}

	middleware := auth.NewMiddleware(cfg.AuthService)
	authController := NewAuthController(cfg.AuthService)
	adminController := NewAdminController(cfg.AuthService, cfg.Audit)

	api := router.Group("/api/auth")

	// Public endpoints
	api.POST("/signup", authController.Signup)
	api.POST("/login", authController.Login)
	api.POST("/logout", authController.Logout)
	api.POST("/forgot-password", authController.ForgotPassword)
	api.PATCH("/reset-password/:token", authController.ResetPassword)

	// Bearer token required
	protected := api.Group("", middleware.RequireAuth())
	protected.GET("/profile", authController.Profile)
	protected.POST("/logout-all", authController.LogoutAll)

	admin := protected.Group("/admin", middleware.RequireRole(entities.UserRoleAdmin))
	admin.GET("/users", adminController.ListUsers)
	admin.GET("/audit", adminController.AuditEvents)

	return router
}
