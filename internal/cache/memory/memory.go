package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jdufresne12/web-portal/internal/cache"
	"github.com/jdufresne12/web-portal/internal/domain"
)

// Cache implements cache.Cache in process memory.
type Cache struct {
	mu     sync.Mutex
	slot   *cache.Snapshot
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty in-memory cache.
func New(window time.Duration, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{window: window, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Save replaces the slot.
func (c *Cache) Save(_ context.Context, items []domain.SponsorData, category domain.Category) error {
	snap := cache.NewSnapshot(items, category, c.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot = &snap
	return nil
}

// Load returns a copy of the slot's items on a hit and evicts on a miss.
func (c *Cache) Load(ctx context.Context, category domain.Category) ([]domain.SponsorData, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.slot == nil {
		return nil, false, nil
	}
	if miss := c.slot.Check(category, c.now(), c.window); miss != cache.MissNone {
		c.logger.DebugContext(ctx, "evicting cached snapshot",
			slog.String("reason", string(miss)),
			slog.String("stored_category", string(c.slot.Category)),
			slog.String("category", string(category)),
		)
		c.slot = nil
		return nil, false, nil
	}

	out := make([]domain.SponsorData, 0, len(c.slot.Items))
	for _, it := range c.slot.Items {
		out = append(out, it.Clone())
	}
	return out, true, nil
}

// Clear empties the slot.
func (c *Cache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot = nil
	return nil
}

// Ping always succeeds.
func (c *Cache) Ping(_ context.Context) error { return nil }
