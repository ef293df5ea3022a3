package models

import "time"

// PasswordReset stores a single-use reset token. Entries older than one hour
// are treated as expired and removed when used.
type PasswordReset struct {
	ID        string    `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Token     string    `gorm:"type:varchar(255);not null;unique" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
