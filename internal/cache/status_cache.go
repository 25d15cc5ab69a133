// Package cache кэширует ответы процессора на опрос статуса, чтобы частый поллинг
// с фронтенда не превращался в такой же частый поток запросов к процессору.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bif_backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "bif:status:"

// CachedStatus - последний ответ процессора по инвойсу
type CachedStatus struct {
	InvoiceID string    `json:"invoice_id"`
	Paid      bool      `json:"paid"`
	RawStatus string    `json:"raw_status"`
	CheckedAt time.Time `json:"checked_at"`
}

type StatusCache interface {
	Get(ctx context.Context, invoiceID string) (*CachedStatus, bool)
	Set(ctx context.Context, status CachedStatus) error
	Delete(ctx context.Context, invoiceID string) error
}

// ConnectRedis открывает клиент и проверяет соединение
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	logger.Info("Redis connected", "addr", addr, "db", db)
	return client, nil
}

type redisStatusCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStatusCache(client redis.Cmdable, ttl time.Duration) StatusCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &redisStatusCache{client: client, ttl: ttl}
}

// Get: любая ошибка Redis трактуется как промах, опрос идет к процессору
func (c *redisStatusCache) Get(ctx context.Context, invoiceID string) (*CachedStatus, bool) {
	data, err := c.client.Get(ctx, keyPrefix+invoiceID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Status cache read failed", "invoice_id", invoiceID, "error", err)
		}
		return nil, false
	}
	var status CachedStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, false
	}
	return &status, true
}

func (c *redisStatusCache) Set(ctx context.Context, status CachedStatus) error {
	if status.CheckedAt.IsZero() {
		status.CheckedAt = time.Now()
	}
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+status.InvoiceID, data, c.ttl).Err()
}

func (c *redisStatusCache) Delete(ctx context.Context, invoiceID string) error {
	return c.client.Del(ctx, keyPrefix+invoiceID).Err()
}

type noopStatusCache struct{}

// NewNoopStatusCache - когда Redis не настроен
func NewNoopStatusCache() StatusCache {
	return noopStatusCache{}
}

func (noopStatusCache) Get(context.Context, string) (*CachedStatus, bool) { return nil, false }
func (noopStatusCache) Set(context.Context, CachedStatus) error          { return nil }
func (noopStatusCache) Delete(context.Context, string) error             { return nil }
