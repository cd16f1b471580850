package utils

import (
	"context"
	"errors"
	"log"
	"time"

	"coachly/config"

	"github.com/go-redis/redis/v8"
)

var (
	// SessionCacheClient holds in-flight booking sessions. Keys carry a TTL
	// equal to the idle timeout, so abandoned sessions expire on their own.
	SessionCacheClient *redis.Client
	// CacheClient is the generic cache client.
	CacheClient *redis.Client
)

// InitSessionCache initializes the Redis client backing booking sessions.
func InitSessionCache() {
	SessionCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := SessionCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Sessions): %v", err)
	}
}

// GetSessionCacheClient returns the booking session cache client.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		InitSessionCache()
	}
	return SessionCacheClient
}

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// ErrCacheMiss is returned when a cached payload is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// ByteCache stores opaque payloads with a TTL. Redis backs it in production.
type ByteCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisByteCache implements ByteCache on the generic cache client.
type RedisByteCache struct {
	Client *redis.Client
}

func NewRedisByteCache(client *redis.Client) *RedisByteCache {
	return &RedisByteCache{Client: client}
}

func (c *RedisByteCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *RedisByteCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.Client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisByteCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}
