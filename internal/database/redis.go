package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewRedisClient connects to Redis for rate limiting. It returns nil when the
// server does not answer a ping, and callers then run without limits.
func NewRedisClient(addr, password string, db int, log *logrus.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).WithField("addr", addr).Warn("redis unavailable, rate limiting disabled")
		_ = client.Close()
		return nil
	}
	return client
}
