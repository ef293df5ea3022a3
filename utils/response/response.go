package response

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Error sends a standardized error response
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// Success sends a standardized success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

// RateLimited sends a 429 with the retry hint in both the Retry-After header
// and the structured body, then aborts the request
func RateLimited(c *gin.Context, message string, retryAfter time.Duration) {
	retrySecs := int(retryAfter / time.Second)
	if retrySecs < 1 {
		retrySecs = 1
	}
	c.Header("Retry-After", strconv.Itoa(retrySecs))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":      message,
		"retryAfter": retrySecs,
	})
}
