package database

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil when Redis is unavailable; the summary cache
// falls back to an in-process cache in that case.
func ConnectRedis(redisURL string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		log.Println("⚠️  Redis not available, running with in-process cache:", err)
		return nil
	}

	log.Println("✅ Redis connected successfully")
	return client
}
