package v1

import (
	"api/handlers/auth"
	"api/handlers/newsletter"
	"api/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Register the endpoints for the v1 API
func Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")

	// Add metrics middleware to all routes
	v1.Use(middleware.MetricsMiddleware())

	// Coarse per-instance flood protection; sensitive routes carry their
	// own distributed abuse limits on top.
	rateLimiter := middleware.NewRateLimiter(10000, 1500)
	v1.Use(middleware.RateLimiterMiddleware(rateLimiter))

	RegisterPingRoutes(v1)
	RegisterSupportRoutes(v1)
	auth.RegisterRoutes(v1)
	newsletter.RegisterRoutes(v1)

	// Register metrics endpoint
	RegisterMetricsRoutes(v1)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
