package service

import (
	"context"

	"github.com/jdufresne12/web-portal/internal/domain"
	"github.com/jdufresne12/web-portal/internal/draft"
)

// Backend is the subset of the backend REST client the service calls.
type Backend interface {
	ListSponsors(ctx context.Context) ([]domain.SponsorDTO, error)
	ListProducts(ctx context.Context) ([]domain.ProductDTO, error)
	ListProductsByUserLevel(ctx context.Context, levelID string) ([]domain.ProductDTO, error)
	ListUserLevels(ctx context.Context) ([]domain.UserLevelDTO, error)
	SaveRecord(ctx context.Context, dto domain.RecordDTO) error
	DeleteRecord(ctx context.Context, kind domain.RecordKind, id string) error
}

// CouponBackend persists coupons.
type CouponBackend interface {
	ListCoupons(ctx context.Context, kind domain.RecordKind, ownerID string) ([]domain.CouponDTO, error)
	SaveCoupon(ctx context.Context, coupon domain.CouponDTO) error
	DeleteCoupon(ctx context.Context, id string) error
}

// MediaBackend persists media metadata once the binary is stored.
type MediaBackend interface {
	SaveMedium(ctx context.Context, m domain.MediaDTO) error
	DeleteMedium(ctx context.Context, id string) error
}

// AuthBackend exchanges identity tokens for session tokens.
type AuthBackend interface {
	SignInGoogle(ctx context.Context, idToken string) (*domain.SignInResult, error)
}

// DraftStore holds validated uploads until their record is saved.
type DraftStore interface {
	Put(d *draft.Draft) *draft.Draft
	Get(id string) (*draft.Draft, error)
	Release(id string) bool
}

// EventPublisher announces record lifecycle events.
type EventPublisher interface {
	PublishRecordCreated(ctx context.Context, v domain.SponsorData, report *domain.MutationReport) error
	PublishRecordUpdated(ctx context.Context, v domain.SponsorData, report *domain.MutationReport) error
	PublishRecordDeleted(ctx context.Context, v domain.SponsorData, report *domain.MutationReport) error
}
