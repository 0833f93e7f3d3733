package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdufresne12/web-portal/internal/cache"
	"github.com/jdufresne12/web-portal/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func setupTestRedis(t *testing.T) (*Cache, *miniredis.Miniredis, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(client, cache.DefaultWindow, logger, WithClock(clock.Now)), mr, clock
}

func sampleItems() []domain.SponsorData {
	return []domain.SponsorData{
		{ID: "a", Type: domain.TypeStarStore, Title: "Hoodie", PurpleCoins: "300", Active: true},
		{ID: "b", Type: domain.TypeStarStore, Title: "Mug", BeginDate: domain.Dates{"2024-01-01", "2024-02-01"}},
	}
}

func TestCache_SaveWritesSingleSlot(t *testing.T) {
	c, mr, clock := setupTestRedis(t)

	require.NoError(t, c.Save(context.Background(), sampleItems(), domain.CategoryStar))

	raw, err := mr.Get(DefaultKey)
	require.NoError(t, err)

	var snap cache.Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Equal(t, domain.CategoryStar, snap.Category)
	assert.Equal(t, clock.t.UnixMilli(), snap.Timestamp)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, cache.DefaultWindow, mr.TTL(DefaultKey))
}

func TestCache_HitAt29Minutes(t *testing.T) {
	c, _, clock := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, sampleItems(), domain.CategoryStar))
	clock.Advance(29 * time.Minute)

	items, ok, err := c.Load(ctx, domain.CategoryStar)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, domain.Numeric("300"), items[0].PurpleCoins)
	assert.True(t, items[1].BeginDate.IsMulti())
}

func TestCache_MissAt31MinutesEvicts(t *testing.T) {
	c, mr, clock := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, sampleItems(), domain.CategoryStar))
	clock.Advance(31 * time.Minute)

	items, ok, err := c.Load(ctx, domain.CategoryStar)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, items)
	assert.False(t, mr.Exists(DefaultKey))
}

func TestCache_CategoryMismatchEvicts(t *testing.T) {
	c, mr, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, sampleItems(), domain.CategoryStar))

	_, ok, err := c.Load(ctx, domain.CategoryRedeem)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(DefaultKey))
}

func TestCache_CorruptSlotEvicts(t *testing.T) {
	c, mr, _ := setupTestRedis(t)
	require.NoError(t, mr.Set(DefaultKey, "{not json"))

	_, ok, err := c.Load(context.Background(), domain.CategoryTitle)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(DefaultKey))
}

func TestCache_EmptyIsMiss(t *testing.T) {
	c, _, _ := setupTestRedis(t)

	_, ok, err := c.Load(context.Background(), domain.CategoryTitle)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c, mr, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Save(ctx, sampleItems(), domain.CategoryTitle))
	require.NoError(t, c.Clear(ctx))
	assert.False(t, mr.Exists(DefaultKey))
	assert.NoError(t, c.Ping(ctx))
}

func TestCache_BackendDown(t *testing.T) {
	c, mr, _ := setupTestRedis(t)
	mr.Close()

	_, ok, err := c.Load(context.Background(), domain.CategoryTitle)
	assert.Error(t, err)
	assert.False(t, ok)
}
