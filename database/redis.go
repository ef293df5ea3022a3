package database

import (
	"context"
	"log"
	"time"

	"api/config"
	"api/services/abuselimiter"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// AbuseLimiter is the shared limiter instance backing all sensitive routes.
// It is stateless; the Redis keys are the single source of truth.
var AbuseLimiter *abuselimiter.Limiter

// InitRedis connects the Redis client and wires the abuse limiter on top of it
func InitRedis() {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.RedisHost + ":" + config.RedisPort,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect redis: ", err)
	}

	AbuseLimiter = abuselimiter.New(abuselimiter.NewRedisRunner(RDB))
}
