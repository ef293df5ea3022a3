package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	ServerPort string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	MailHost     string
	MailPort     string
	MailUsername string
	MailPassword string

	ClientUrl       string
	JWTSecret       string
	DefaultPassword string
)

// LoadConfig reads the .env file if present and populates the configuration
// from environment variables
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	ServerPort = getEnv("PORT", "8080")

	PostgresHost = getEnv("POSTGRES_HOST", "localhost")
	PostgresPort = getEnv("POSTGRES_PORT", "5432")
	PostgresUser = getEnv("POSTGRES_USER", "postgres")
	PostgresPassword = getEnv("POSTGRES_PASSWORD", "postgres")
	PostgresDB = getEnv("POSTGRES_DB", "inkwell")

	RedisHost = getEnv("REDIS_HOST", "localhost")
	RedisPort = getEnv("REDIS_PORT", "6379")
	RedisPassword = os.Getenv("REDIS_PASSWORD")

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		log.Fatal("invalid REDIS_DB: ", err)
	}
	RedisDB = db

	MailHost = getEnv("MAIL_HOST", "localhost")
	MailPort = getEnv("MAIL_PORT", "587")
	MailUsername = os.Getenv("MAIL_USERNAME")
	MailPassword = os.Getenv("MAIL_PASSWORD")

	ClientUrl = getEnv("CLIENT_URL", "http://localhost:3000")
	JWTSecret = getEnv("JWT_SECRET", "change-me")
	DefaultPassword = os.Getenv("DEFAULT_ADMIN_PASSWORD")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
