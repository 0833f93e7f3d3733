package cache

import (
	"context"
	"time"

	"github.com/jdufresne12/web-portal/internal/domain"
)

// DefaultWindow is how long a snapshot stays fresh.
const DefaultWindow = 30 * time.Minute

// Cache is the single-slot snapshot of the last fetched category. A read is a
// hit only for the stored category inside the freshness window; any other
// read evicts the slot.
type Cache interface {
	// Save replaces the slot with items for category.
	Save(ctx context.Context, items []domain.SponsorData, category domain.Category) error

	// Load returns the stored items when the slot holds category and is fresh.
	// A miss is (nil, false, nil); err is only set when the backend itself failed.
	Load(ctx context.Context, category domain.Category) ([]domain.SponsorData, bool, error)

	// Clear empties the slot.
	Clear(ctx context.Context) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// Snapshot is the persisted slot.
type Snapshot struct {
	Items     []domain.SponsorData `json:"items"`
	Category  domain.Category      `json:"category"`
	Timestamp int64                `json:"timestamp"`
}

// NewSnapshot stamps items with now in Unix milliseconds.
func NewSnapshot(items []domain.SponsorData, category domain.Category, now time.Time) Snapshot {
	out := make([]domain.SponsorData, 0, len(items))
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return Snapshot{Items: out, Category: category, Timestamp: now.UnixMilli()}
}

// Miss explains why a stored snapshot cannot serve a read.
type Miss string

const (
	MissNone     Miss = ""
	MissCategory Miss = "category_mismatch"
	MissExpired  Miss = "expired"
)

// Check reports whether the snapshot serves a read for category at now.
func (s Snapshot) Check(category domain.Category, now time.Time, window time.Duration) Miss {
	if s.Category != category {
		return MissCategory
	}
	if now.Sub(time.UnixMilli(s.Timestamp)) >= window {
		return MissExpired
	}
	return MissNone
}
