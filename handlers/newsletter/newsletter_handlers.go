package newsletter

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"time"

	"api/config"
	"api/database"
	"api/metrics"
	"api/models"
	"api/services"
	"api/services/abuselimiter"
	"api/utils/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Subscribe registers a newsletter signup and sends the confirmation email
// @Summary Subscribe to the newsletter
// @Description Register an email address and send a confirmation link
// @Tags Newsletter
// @Accept json
// @Produce json
// @Param request body SubscribeRequest true "Subscription request"
// @Success 200 {object} map[string]string
// @Failure 400,429,503 {object} map[string]string
// @Router /newsletter/subscribe [post]
func Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	// Per-address gate on top of the route's per-IP gate, so one mailbox
	// cannot be flooded with confirmation mail from many hosts.
	err := database.AbuseLimiter.Limit(c.Request.Context(),
		"newsletter_subscribe:"+req.Email, config.NewsletterSubscribeRateLimit)
	if err != nil {
		var rle *abuselimiter.RateLimitError
		switch {
		case abuselimiter.IsTooManyAttempts(err):
			errors.As(err, &rle)
			response.RateLimited(c, rle.Message, rle.RetryAfter)
		case errors.As(err, &rle):
			response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable")
		default:
			log.Println("abuse limiter protocol error: ", err)
			response.Error(c, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	var existing models.NewsletterSubscriber
	err = database.DB.Where("email = ?", req.Email).First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		response.Error(c, http.StatusInternalServerError, "Failed to process subscription")
		return
	}
	if err == nil {
		if existing.Confirmed && existing.UnsubscribedAt == nil {
			// Same reply as a fresh signup to prevent address probing
			c.JSON(http.StatusOK, gin.H{"message": MsgSubscriptionPending})
			return
		}
		// Re-subscribe: issue a fresh token and clear the opt-out
		token, err := newConfirmToken()
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to process subscription")
			return
		}
		updates := map[string]interface{}{
			"confirm_token":   token,
			"confirmed":       false,
			"unsubscribed_at": nil,
		}
		if err := database.DB.Model(&existing).Updates(updates).Error; err != nil {
			response.Error(c, http.StatusInternalServerError, "Failed to process subscription")
			return
		}
		sendConfirmation(c, req.Email, token)
		return
	}

	token, err := newConfirmToken()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to process subscription")
		return
	}
	subscriber := models.NewsletterSubscriber{
		Email:        req.Email,
		ConfirmToken: token,
	}

	start := time.Now()
	if err := database.DB.Create(&subscriber).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to process subscription")
		return
	}
	metrics.RecordDBOperation("create", "newsletter_subscribers", start)

	sendConfirmation(c, req.Email, token)
}

// Confirm activates a subscription from the emailed token
// @Summary Confirm a newsletter subscription
// @Tags Newsletter
// @Produce json
// @Param token query string true "Confirmation token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /newsletter/confirm [get]
func Confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusBadRequest, ErrInvalidConfirmToken)
		return
	}

	var subscriber models.NewsletterSubscriber
	if err := database.DB.Where("confirm_token = ?", token).First(&subscriber).Error; err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidConfirmToken)
		return
	}

	if err := database.DB.Model(&subscriber).Update("confirmed", true).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to confirm subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": MsgSubscribed})
}

// Unsubscribe opts a subscriber out using their confirmation token
// @Summary Unsubscribe from the newsletter
// @Tags Newsletter
// @Produce json
// @Param token query string true "Confirmation token"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /newsletter/unsubscribe [get]
func Unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusBadRequest, ErrInvalidConfirmToken)
		return
	}

	var subscriber models.NewsletterSubscriber
	if err := database.DB.Where("confirm_token = ?", token).First(&subscriber).Error; err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidConfirmToken)
		return
	}

	now := time.Now()
	if err := database.DB.Model(&subscriber).Update("unsubscribed_at", &now).Error; err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to unsubscribe")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": MsgUnsubscribed})
}

func newConfirmToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func sendConfirmation(c *gin.Context, email, token string) {
	emailService := services.NewEmailService()
	if err := emailService.SendNewsletterConfirmationEmail(email, token); err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to send confirmation email")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": MsgSubscriptionPending})
}
