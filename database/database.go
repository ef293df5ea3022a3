package database

import (
	"fmt"
	"log"

	"api/config"
	"api/models"
	"api/utils"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

var DefaultPassword = "admin"

// InitDB initializes the database connection, migrates the models and seeds
// the default admin account if the database is empty
func InitDB() {
	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=disable TimeZone=UTC",
		config.PostgresHost, config.PostgresPort, config.PostgresUser, config.PostgresDB, config.PostgresPassword)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database: ", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.NewsletterSubscriber{},
	)
	if err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	Populate()
}

// Populate seeds the default admin user when the users table is empty
func Populate() {
	var countUser int64
	DB.Model(&models.User{}).Count(&countUser)
	if countUser != 0 {
		return
	}

	// Default password comes from the .env file when set, otherwise the
	// DefaultPassword constant. The account is flagged so the dashboard
	// forces a change on first login.
	password := DefaultPassword
	if config.DefaultPassword != "" {
		password = config.DefaultPassword
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		panic(err)
	}

	admin := models.User{
		Email:              "admin@admin.com",
		Firstname:          "Admin",
		Lastname:           "Admin",
		Password:           hashed,
		HasDefaultPassword: true,
		LastConnected:      nil,
	}
	DB.Create(&admin)
	log.Println("Default user admin created")
}
