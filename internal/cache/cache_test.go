package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jdufresne12/web-portal/internal/domain"
)

func TestSnapshot_Check(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	snap := NewSnapshot([]domain.SponsorData{{ID: "a"}}, domain.CategoryStar, now)

	assert.Equal(t, MissNone, snap.Check(domain.CategoryStar, now.Add(29*time.Minute), DefaultWindow))
	assert.Equal(t, MissExpired, snap.Check(domain.CategoryStar, now.Add(31*time.Minute), DefaultWindow))
	assert.Equal(t, MissExpired, snap.Check(domain.CategoryStar, now.Add(DefaultWindow), DefaultWindow))
	assert.Equal(t, MissCategory, snap.Check(domain.CategoryTitle, now, DefaultWindow))
}

func TestNewSnapshot_CopiesItems(t *testing.T) {
	items := []domain.SponsorData{{ID: "a", Media: []domain.MediaDTO{{ID: "m"}}}}
	snap := NewSnapshot(items, domain.CategoryTitle, time.Now())
	items[0].Media[0].ID = "changed"
	assert.Equal(t, "m", snap.Items[0].Media[0].ID)
}
