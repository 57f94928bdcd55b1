package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/PhotoShare/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// PrincipalCache кэширует субъекта по id пользователя.
type PrincipalCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Principal, error)
	Set(ctx context.Context, p domain.Principal) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// NewRedisClient разбирает REDIS_URL и проверяет соединение.
func NewRedisClient(ctx context.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	logger.Info("redis client connected", "addr", options.Addr)
	return client, nil
}

// RedisPrincipalCache хранит субъекта в Redis с TTL.
type RedisPrincipalCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPrincipalCache(client *redis.Client, ttl time.Duration) *RedisPrincipalCache {
	return &RedisPrincipalCache{client: client, ttl: ttl}
}

func cacheKey(userID uuid.UUID) string {
	return "photoshare:principal:" + userID.String()
}

// Get возвращает nil без ошибки при промахе.
func (c *RedisPrincipalCache) Get(ctx context.Context, userID uuid.UUID) (*domain.Principal, error) {
	raw, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis principal get: %w", err)
	}

	var p domain.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("redis principal decode: %w", err)
	}
	return &p, nil
}

func (c *RedisPrincipalCache) Set(ctx context.Context, p domain.Principal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("redis principal encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(p.UserID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis principal set: %w", err)
	}
	return nil
}

func (c *RedisPrincipalCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis principal delete: %w", err)
	}
	return nil
}
