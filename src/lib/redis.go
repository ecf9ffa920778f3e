package lib

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient(url string) *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	redisClient = redis.NewClient(opt)
	return redisClient
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// QrCache keeps rendered ticket QR images in redis.
type QrCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewQrCache(rdb *redis.Client, ttl time.Duration) *QrCache {
	return &QrCache{rdb: rdb, ttl: ttl}
}

func qrCacheKey(ticketID uuid.UUID) string {
	return fmt.Sprintf("ticketcode_%s", ticketID)
}

func (c *QrCache) Get(ctx context.Context, ticketID uuid.UUID) ([]byte, error) {
	img, err := c.rdb.Get(ctx, qrCacheKey(ticketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (c *QrCache) Set(ctx context.Context, ticketID uuid.UUID, image []byte) error {
	return c.rdb.SetEx(ctx, qrCacheKey(ticketID), image, c.ttl).Err()
}
