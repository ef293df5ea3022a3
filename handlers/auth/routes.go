package auth

import (
	"api/config"
	"api/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all routes related to authentication
// r: the RouterGroup to which routes are added
func RegisterRoutes(r *gin.RouterGroup) {

	auth := r.Group("/auth")
	{
		auth.POST("/login", middleware.AbuseLimit("login", config.LoginRateLimit), Login)
		auth.GET("/check", CheckAuth)
		auth.POST("/logout", Logout)
		auth.POST("/request-reset", middleware.AbuseLimit("forgot_password", config.ForgotPasswordRateLimit), RequestPasswordReset)
		auth.POST("/reset-password", ResetPassword)
	}
}
