package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"api/database"
	"api/metrics"
	"api/services/abuselimiter"
	"api/utils/response"

	"github.com/gin-gonic/gin"
)

// AbuseLimit gates a sensitive route with the abuse limiter, keyed by client
// IP. Every request through the route counts as one attempt, including
// requests made while a block is active. Blocked requests get a 429 with a
// Retry-After hint; when the limiter store is unreachable the route fails
// closed with a 503.
func AbuseLimit(action string, cfg abuselimiter.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := action + ":" + c.ClientIP()

		decision, err := database.AbuseLimiter.Check(c.Request.Context(), key, cfg)
		if err != nil {
			metrics.AbuseLimiterFailures.WithLabelValues(action).Inc()
			if errors.Is(err, abuselimiter.ErrProtocol) {
				log.Println("abuse limiter protocol error: ", err)
				response.Error(c, http.StatusInternalServerError, "Internal server error")
			} else {
				log.Println("abuse limiter unavailable: ", err)
				response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable")
			}
			c.Abort()
			return
		}

		if decision.Allowed {
			metrics.AbuseLimiterDecisions.WithLabelValues(action, "allowed").Inc()
			c.Next()
			return
		}

		outcome := string(decision.Scope)
		if decision.Existing {
			outcome = "existing"
		}
		metrics.AbuseLimiterDecisions.WithLabelValues(action, outcome).Inc()

		retrySecs := int64(decision.RetryAfter.Seconds())
		response.RateLimited(c,
			fmt.Sprintf("Too many attempts. Please try again in %d seconds", retrySecs),
			decision.RetryAfter)
	}
}
