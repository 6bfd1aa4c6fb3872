package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps Redis for the two things this service keeps there: purchase
// idempotency records and the event detail cache. Ticket capacity is never
// stored in Redis.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and checks connectivity
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing redis client
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Ping checks Redis connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func purchaseKey(userID int64, key string) string {
	return fmt.Sprintf("idempotency:purchase:%d:%s", userID, key)
}

func purchaseLockKey(userID int64, key string) string {
	return fmt.Sprintf("lock:purchase:%d:%s", userID, key)
}

func eventKey(eventID int64) string {
	return fmt.Sprintf("event:%d", eventID)
}

// GetPurchaseResult loads the stored outcome of a purchase made with an
// idempotency key. found is false when the key was never completed.
func (c *Client) GetPurchaseResult(ctx context.Context, userID int64, key string, dest interface{}) (bool, error) {
	return c.getJSON(ctx, purchaseKey(userID, key), dest)
}

// SetPurchaseResult records the outcome of a purchase under its idempotency key
func (c *Client) SetPurchaseResult(ctx context.Context, userID int64, key string, result interface{}, ttl time.Duration) error {
	return c.setJSON(ctx, purchaseKey(userID, key), result, ttl)
}

// AcquirePurchaseLock marks an idempotency key as in flight. It returns false
// when another request already holds it.
func (c *Client) AcquirePurchaseLock(ctx context.Context, userID int64, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, purchaseLockKey(userID, key), "1", ttl).Result()
}

// ReleasePurchaseLock releases an in-flight idempotency key
func (c *Client) ReleasePurchaseLock(ctx context.Context, userID int64, key string) error {
	return c.rdb.Del(ctx, purchaseLockKey(userID, key)).Err()
}

// GetCachedEvent loads a cached event detail into dest
func (c *Client) GetCachedEvent(ctx context.Context, eventID int64, dest interface{}) (bool, error) {
	return c.getJSON(ctx, eventKey(eventID), dest)
}

// CacheEvent stores an event detail for ttl
func (c *Client) CacheEvent(ctx context.Context, eventID int64, event interface{}, ttl time.Duration) error {
	return c.setJSON(ctx, eventKey(eventID), event, ttl)
}

// InvalidateEvent drops the cached detail of an event
func (c *Client) InvalidateEvent(ctx context.Context, eventID int64) error {
	return c.rdb.Del(ctx, eventKey(eventID)).Err()
}

func (c *Client) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Client) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, string(data), ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
