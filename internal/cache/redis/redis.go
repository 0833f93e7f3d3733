package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jdufresne12/web-portal/internal/cache"
	"github.com/jdufresne12/web-portal/internal/domain"
)

// DefaultKey is the Redis key of the single snapshot slot.
const DefaultKey = "sponsors-hub:snapshot"

// Cache implements cache.Cache on one Redis key holding a JSON snapshot.
type Cache struct {
	client *redis.Client
	key    string
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now for freshness checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(c *Cache) { c.key = key }
}

// New creates a Redis-backed snapshot cache.
func New(client *redis.Client, window time.Duration, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		key:    DefaultKey,
		window: window,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save writes the snapshot. The key expires with the window so abandoned
// slots do not linger.
func (c *Cache) Save(ctx context.Context, items []domain.SponsorData, category domain.Category) error {
	data, err := json.Marshal(cache.NewSnapshot(items, category, c.now()))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.window).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

// Load reads the slot. Stale, mismatched and corrupt slots are deleted and
// reported as a miss.
func (c *Cache) Load(ctx context.Context, category domain.Category) ([]domain.SponsorData, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get snapshot: %w", err)
	}

	var snap cache.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.WarnContext(ctx, "evicting corrupt cached snapshot",
			slog.String("error", err.Error()),
		)
		return nil, false, c.evict(ctx)
	}

	if miss := snap.Check(category, c.now(), c.window); miss != cache.MissNone {
		c.logger.DebugContext(ctx, "evicting cached snapshot",
			slog.String("reason", string(miss)),
			slog.String("stored_category", string(snap.Category)),
			slog.String("category", string(category)),
		)
		return nil, false, c.evict(ctx)
	}

	if snap.Items == nil {
		snap.Items = []domain.SponsorData{}
	}
	return snap.Items, true, nil
}

// Clear deletes the slot.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis del snapshot: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) evict(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis evict snapshot: %w", err)
	}
	return nil
}
