package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jdufresne12/web-portal/internal/domain"
)

// CouponSyncer keeps a record's coupons in line with its quantity and usage
// count. When disabled every call is a no-op.
type CouponSyncer struct {
	backend CouponBackend
	enabled bool
	newID   func() string
	logger  *slog.Logger
}

// NewCouponSyncer creates a coupon syncer.
func NewCouponSyncer(backend CouponBackend, enabled bool, logger *slog.Logger) *CouponSyncer {
	return &CouponSyncer{
		backend: backend,
		enabled: enabled,
		newID:   domain.NewID,
		logger:  logger,
	}
}

// Enabled reports whether coupon writes are issued.
func (c *CouponSyncer) Enabled() bool {
	return c != nil && c.enabled
}

// CouponResult counts applied writes and collects the ones that failed.
type CouponResult struct {
	Created  int
	Updated  int
	Deleted  int
	Failures []domain.ReportItem
}

// ForAdd creates one coupon per unit of couponsAvailable.
func (c *CouponSyncer) ForAdd(ctx context.Context, v domain.SponsorData) CouponResult {
	if !c.Enabled() {
		return CouponResult{}
	}
	return c.apply(ctx, v, domain.PlanCouponsForAdd(v, c.newID))
}

// ForEdit reconciles coupons after an edit. Nothing is fetched when neither
// the quantity nor the usage count changed.
func (c *CouponSyncer) ForEdit(ctx context.Context, prev, next domain.SponsorData) CouponResult {
	if !c.Enabled() {
		return CouponResult{}
	}
	if prev.CouponsAvailable.Int() == next.CouponsAvailable.Int() &&
		prev.CouponUsageCount.Int() == next.CouponUsageCount.Int() {
		return CouponResult{}
	}

	existing, err := c.backend.ListCoupons(ctx, next.Type.Kind(), next.ID)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to list coupons",
			slog.String("record_id", next.ID),
			slog.String("error", err.Error()),
		)
		return CouponResult{Failures: []domain.ReportItem{{
			Step:     domain.StepCoupons,
			Action:   "list",
			TargetID: next.ID,
			Error:    err.Error(),
		}}}
	}
	return c.apply(ctx, next, domain.PlanCouponSync(prev, next, existing, c.newID))
}

func (c *CouponSyncer) apply(ctx context.Context, v domain.SponsorData, plan domain.CouponPlan) CouponResult {
	var res CouponResult
	fail := func(action string, coupon domain.CouponDTO, err error) {
		c.logger.ErrorContext(ctx, "coupon write failed",
			slog.String("record_id", v.ID),
			slog.String("record_type", string(v.Type)),
			slog.String("action", action),
			slog.String("coupon_id", coupon.ID),
			slog.String("error", err.Error()),
		)
		res.Failures = append(res.Failures, domain.ReportItem{
			Step:     domain.StepCoupons,
			Action:   action,
			TargetID: coupon.ID,
			Error:    fmt.Sprintf("%s %s: %v", action, coupon.Code, err),
		})
	}

	for _, coupon := range plan.Create {
		if err := c.backend.SaveCoupon(ctx, coupon); err != nil {
			fail("create", coupon, err)
			continue
		}
		res.Created++
	}
	for _, coupon := range plan.Update {
		if err := c.backend.SaveCoupon(ctx, coupon); err != nil {
			fail("update", coupon, err)
			continue
		}
		res.Updated++
	}
	for _, coupon := range plan.Delete {
		if err := c.backend.DeleteCoupon(ctx, coupon.ID); err != nil {
			fail("delete", coupon, err)
			continue
		}
		res.Deleted++
	}

	if !plan.Empty() {
		c.logger.InfoContext(ctx, "coupons synced",
			slog.String("record_id", v.ID),
			slog.Int("created", res.Created),
			slog.Int("updated", res.Updated),
			slog.Int("deleted", res.Deleted),
		)
	}
	return res
}
