package models

import "time"

// NewsletterSubscriber represents one newsletter signup. A subscriber only
// receives issues once Confirmed is set through the emailed token.
type NewsletterSubscriber struct {
	ID             string     `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	Email          string     `gorm:"type:varchar(255);unique;not null" json:"email"`
	Confirmed      bool       `gorm:"default:false" json:"confirmed"`
	ConfirmToken   string     `gorm:"type:varchar(255);unique" json:"-"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at"`
	CreatedAt      time.Time  `json:"created_at"`
}
