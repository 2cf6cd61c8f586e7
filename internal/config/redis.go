package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a Redis client from environment variables.
// Redis backs the rate limiter on disclosure endpoints and the unread-count
// hint written by the notification consumer.  It returns nil when REDIS_ADDR
// is unset or the server is unreachable; callers treat a nil client as
// "limiter disabled" and fail open.
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}

	db := atoi(getenv("REDIS_DB", "0"))

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable at %s: %v (rate limiting disabled)", addr, err)
		return nil
	}
	return client
}
