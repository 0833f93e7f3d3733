package memory

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdufresne12/web-portal/internal/cache"
	"github.com/jdufresne12/web-portal/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache() (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(cache.DefaultWindow, logger, WithClock(clock.Now)), clock
}

func TestCache_HitWithinWindow(t *testing.T) {
	c, clock := newTestCache()
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, []domain.SponsorData{{ID: "a"}}, domain.CategoryTitle))
	clock.Advance(29 * time.Minute)

	items, ok, err := c.Load(ctx, domain.CategoryTitle)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
}

func TestCache_ExpiredEvicts(t *testing.T) {
	c, clock := newTestCache()
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, []domain.SponsorData{{ID: "a"}}, domain.CategoryTitle))
	clock.Advance(31 * time.Minute)

	_, ok, err := c.Load(ctx, domain.CategoryTitle)
	require.NoError(t, err)
	assert.False(t, ok)

	clock.t = clock.t.Add(-31 * time.Minute)
	_, ok, _ = c.Load(ctx, domain.CategoryTitle)
	assert.False(t, ok, "slot was evicted")
}

func TestCache_CategoryMismatchEvicts(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, []domain.SponsorData{{ID: "a"}}, domain.CategoryTitle))

	_, ok, err := c.Load(ctx, domain.CategoryStar)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = c.Load(ctx, domain.CategoryTitle)
	assert.False(t, ok, "slot was evicted")
}

func TestCache_Clear(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, []domain.SponsorData{{ID: "a"}}, domain.CategoryTitle))
	require.NoError(t, c.Clear(ctx))

	_, ok, err := c.Load(ctx, domain.CategoryTitle)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Ping(ctx))
}
