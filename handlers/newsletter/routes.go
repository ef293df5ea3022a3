package newsletter

import (
	"api/config"
	"api/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all routes related to the newsletter
// r: the RouterGroup to which routes are added
func RegisterRoutes(r *gin.RouterGroup) {

	newsletter := r.Group("/newsletter")
	{
		newsletter.POST("/subscribe", middleware.AbuseLimit("newsletter_subscribe", config.NewsletterSubscribeRateLimit), Subscribe)
		newsletter.GET("/confirm", Confirm)
		newsletter.GET("/unsubscribe", Unsubscribe)
	}
}
