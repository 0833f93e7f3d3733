package service

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/jdufresne12/web-portal/internal/domain"
	"github.com/jdufresne12/web-portal/internal/repository"
)

// --- Mock Backend ---

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListSponsors(ctx context.Context) ([]domain.SponsorDTO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SponsorDTO), args.Error(1)
}

func (m *mockBackend) ListProducts(ctx context.Context) ([]domain.ProductDTO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductDTO), args.Error(1)
}

func (m *mockBackend) ListProductsByUserLevel(ctx context.Context, levelID string) ([]domain.ProductDTO, error) {
	args := m.Called(ctx, levelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductDTO), args.Error(1)
}

func (m *mockBackend) ListUserLevels(ctx context.Context) ([]domain.UserLevelDTO, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserLevelDTO), args.Error(1)
}

func (m *mockBackend) SaveRecord(ctx context.Context, dto domain.RecordDTO) error {
	args := m.Called(ctx, dto)
	return args.Error(0)
}

func (m *mockBackend) DeleteRecord(ctx context.Context, kind domain.RecordKind, id string) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

func (m *mockBackend) ListCoupons(ctx context.Context, kind domain.RecordKind, ownerID string) ([]domain.CouponDTO, error) {
	args := m.Called(ctx, kind, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CouponDTO), args.Error(1)
}

func (m *mockBackend) SaveCoupon(ctx context.Context, coupon domain.CouponDTO) error {
	args := m.Called(ctx, coupon)
	return args.Error(0)
}

func (m *mockBackend) DeleteCoupon(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockBackend) SaveMedium(ctx context.Context, medium domain.MediaDTO) error {
	args := m.Called(ctx, medium)
	return args.Error(0)
}

func (m *mockBackend) DeleteMedium(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockBackend) SignInGoogle(ctx context.Context, idToken string) (*domain.SignInResult, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignInResult), args.Error(1)
}

// --- Mock Report Repository ---

type mockReportRepository struct {
	mock.Mock
}

func (m *mockReportRepository) Create(ctx context.Context, report *domain.MutationReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *mockReportRepository) GetByID(ctx context.Context, id string) (*domain.MutationReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MutationReport), args.Error(1)
}

func (m *mockReportRepository) List(ctx context.Context, filter repository.ReportFilter, offset, limit int) ([]domain.MutationReport, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.MutationReport), args.Int(1), args.Error(2)
}

// --- Mock Event Publisher ---

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishRecordCreated(ctx context.Context, v domain.SponsorData, report *domain.MutationReport) error {
	return m.Called(ctx, v, report).Error(0)
}

func (m *mockEvents) PublishRecordUpdated(ctx context.Context, v domain.SponsorData, report *domain.MutationReport) error {
	return m.Called(ctx, v, report).Error(0)
}

func (m *mockEvents) PublishRecordDeleted(ctx context.Context, v domain.SponsorData, report *domain.MutationReport) error {
	return m.Called(ctx, v, report).Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}
