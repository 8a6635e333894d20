package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/colcamenterprises-collab/restaurant-management-system-sub005/internal/domain"
)

type RedisReconciliationCache struct {
	client *redis.Client
}

func NewRedisClient(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisReconciliationCache(client *redis.Client) *RedisReconciliationCache {
	return &RedisReconciliationCache{client: client}
}

func (c *RedisReconciliationCache) Get(ctx context.Context, shiftDate string) (*domain.Reconciliation, bool, error) {
	val, err := c.client.Get(ctx, reconciliationKey(shiftDate)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rec domain.Reconciliation
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (c *RedisReconciliationCache) Set(ctx context.Context, rec *domain.Reconciliation, ttl time.Duration) error {
	if rec == nil {
		return nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, reconciliationKey(rec.ShiftDate), payload, ttl).Err()
}

func (c *RedisReconciliationCache) Delete(ctx context.Context, shiftDate string) error {
	return c.client.Del(ctx, reconciliationKey(shiftDate)).Err()
}
