package newsletter

// SubscribeRequest model for newsletter signup
type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Constants for messages exposed to clients
const (
	MsgSubscriptionPending = "Check your inbox to confirm your subscription"
	MsgSubscribed          = "Subscription confirmed"
	MsgUnsubscribed        = "You have been unsubscribed"
	ErrInvalidConfirmToken = "Invalid confirmation token"
)
