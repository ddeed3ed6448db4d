package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Gokul221/mindfulhaven-app/internal/models"
)

const classListKey = "catalog:classes:v1"

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// ClassCache caches the public class listing. A nil *ClassCache is a valid
// cache that never hits.
type ClassCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClassCache(client *redis.Client, ttl time.Duration) *ClassCache {
	if client == nil {
		return nil
	}
	return &ClassCache{client: client, ttl: ttl}
}

func (c *ClassCache) GetClasses(ctx context.Context) ([]models.YogaClass, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, classListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var classes []models.YogaClass
	if err := json.Unmarshal(raw, &classes); err != nil {
		return nil, false, err
	}
	return classes, true, nil
}

func (c *ClassCache) SetClasses(ctx context.Context, classes []models.YogaClass) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(classes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, classListKey, raw, c.ttl).Err()
}

func (c *ClassCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Del(ctx, classListKey).Err()
}
