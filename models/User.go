package models

import "time"

// User represents an account able to sign in to the blog dashboard
type User struct {
	ID                 string     `gorm:"type:uuid;default:gen_random_uuid();primary_key" json:"id"`
	Email              string     `gorm:"type:varchar(255);unique;not null" json:"email"`
	Firstname          string     `gorm:"type:varchar(100)" json:"firstname"`
	Lastname           string     `gorm:"type:varchar(100)" json:"lastname"`
	Password           string     `gorm:"type:varchar(255);not null" json:"-"`
	Blocked            bool       `gorm:"default:false" json:"blocked"`
	HasDefaultPassword bool       `gorm:"default:false" json:"has_default_password"`
	LastConnected      *time.Time `json:"last_connected"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
