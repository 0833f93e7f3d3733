// Package draft holds uploaded media that has been validated but not yet
// attached to a saved record.
package draft

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/jdufresne12/web-portal/pkg/errors"

	"github.com/jdufresne12/web-portal/internal/domain"
)

// PreviewPath is the route prefix drafts are previewed under.
const PreviewPath = "/api/v1/media/drafts/"

// Draft is a validated upload waiting for its record to be saved.
type Draft struct {
	ID          string
	FileName    string
	ContentType string
	Size        int64
	Width       int
	Height      int
	Tag         domain.MediaTag
	Order       int
	Owner       domain.RecordKind
	Data        []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Medium returns the transient media entry the admin UI attaches to a form.
func (d *Draft) Medium() domain.MediaDTO {
	return domain.MediaDTO{
		ID:          domain.NewID(),
		Tag:         d.Tag,
		Order:       d.Order,
		Width:       d.Width,
		Height:      d.Height,
		ContentType: d.ContentType,
		DraftID:     d.ID,
		PreviewURL:  PreviewPath + d.ID,
	}
}

// Store keeps drafts in memory until they are consumed, released or expire.
type Store struct {
	mu      sync.Mutex
	drafts  map[string]*Draft
	ttl     time.Duration
	nowFunc func() time.Time
	logger  *slog.Logger
}

// NewStore creates a draft store whose entries live for ttl.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		drafts:  make(map[string]*Draft),
		ttl:     ttl,
		nowFunc: time.Now,
		logger:  logger,
	}
}

// Put stores d under a new id and stamps its lifetime.
func (s *Store) Put(d *Draft) *Draft {
	now := s.nowFunc()
	d.ID = domain.NewID()
	d.CreatedAt = now
	d.ExpiresAt = now.Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[d.ID] = d
	return d
}

// Get returns a live draft. Expired drafts are dropped and reported missing.
func (s *Store) Get(id string) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[id]
	if !ok {
		return nil, apperrors.NotFound("draft", id)
	}
	if !s.nowFunc().Before(d.ExpiresAt) {
		delete(s.drafts, id)
		return nil, apperrors.NotFound("draft", id)
	}
	return d, nil
}

// Release drops a draft. It reports whether the draft existed.
func (s *Store) Release(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.drafts[id]
	delete(s.drafts, id)
	return ok
}

// Sweep drops every expired draft and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	removed := 0
	for id, d := range s.drafts {
		if !now.Before(d.ExpiresAt) {
			delete(s.drafts, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of held drafts, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}

// Run sweeps expired drafts every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.DebugContext(ctx, "released expired media drafts", slog.Int("count", n))
			}
		}
	}
}
