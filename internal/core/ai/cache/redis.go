package cache

import (
	"context"
	"fmt"

	"cart-assistant/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// RedisCache redis 緩存後端
type RedisCache struct {
	client *redis.Client
	config *config.CacheConfig
}

// NewRedisCache 創建 redis 緩存後端
func NewRedisCache(cfg *config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		config: cfg,
	}, nil
}

// Get 獲取緩存
func (s *RedisCache) Get(ctx context.Context, key string) (string, error) {
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("cache miss")
		}
		return "", fmt.Errorf("failed to get cache: %w", err)
	}
	return data, nil
}

// Set 設置緩存
func (s *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉連接
func (s *RedisCache) Close() error {
	return s.client.Close()
}
