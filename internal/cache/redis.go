package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fjod/foodclub/internal/domain"
)

const menuKey = "menu:all"

func NewRedisCache(client *redis.Client, menuTTL, adminTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   client,
		menuTTL:  menuTTL,
		adminTTL: adminTTL,
	}
}

type RedisCache struct {
	client   *redis.Client
	menuTTL  time.Duration
	adminTTL time.Duration
}

func (r RedisCache) GetMenu(ctx context.Context) ([]domain.MenuItem, error) {
	var items []domain.MenuItem
	if err := r.get(ctx, menuKey, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r RedisCache) SetMenu(ctx context.Context, items []domain.MenuItem) error {
	// jitter keeps replicas from refetching the menu at the same moment
	ttl := r.menuTTL
	if spread := int64(r.menuTTL / 5); spread > 0 {
		ttl += time.Duration(rand.Int63n(spread))
	}
	return r.set(ctx, menuKey, items, ttl)
}

func (r RedisCache) DeleteMenu(ctx context.Context) error {
	return r.del(ctx, menuKey)
}

func (r RedisCache) GetAdmin(ctx context.Context, sessionID string) (*domain.AdminProfile, error) {
	var profile domain.AdminProfile
	if err := r.get(ctx, adminKey(sessionID), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r RedisCache) SetAdmin(ctx context.Context, sessionID string, profile *domain.AdminProfile) error {
	return r.set(ctx, adminKey(sessionID), profile, r.adminTTL)
}

func (r RedisCache) DeleteAdmin(ctx context.Context, sessionID string) error {
	return r.del(ctx, adminKey(sessionID))
}

func (r RedisCache) get(ctx context.Context, key string, out interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r RedisCache) set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func adminKey(sessionID string) string {
	return fmt.Sprintf("admin:%s", sessionID)
}
