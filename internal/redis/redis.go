package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// redisClient holds the Redis client connection
var redisClient *redis.Client

// Init initializes the Redis connection and sets the global client
func Init(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err = client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	log.Info("Successfully connected to Redis")
	redisClient = client

	return client
}

// GetClient returns the global Redis client connection
func GetClient() *redis.Client {
	return redisClient
}

// Close closes the Redis client connection
func Close() error {
	if redisClient != nil {
		log.Info("Closing Redis connection...")
		return redisClient.Close()
	}
	return nil
}

// SetNX stores a key only if it does not already exist, with an expiration.
// Returns true when the key was set (i.e. no previous holder).
func SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return redisClient.SetNX(ctx, key, value, expiration).Result()
}

// Delete removes a key from Redis
func Delete(ctx context.Context, key string) error {
	return redisClient.Del(ctx, key).Err()
}
