package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jdufresne12/web-portal/internal/domain"
)

func TestCouponSyncer_DisabledIsNoop(t *testing.T) {
	backend := new(mockBackend)
	c := NewCouponSyncer(backend, false, newTestLogger())

	v := titleSponsor("sp-1", true)
	v.CouponsAvailable = domain.NumericInt(5)

	assert.Equal(t, CouponResult{}, c.ForAdd(context.Background(), v))
	assert.Equal(t, CouponResult{}, c.ForEdit(context.Background(), titleSponsor("sp-1", true), v))
	backend.AssertNotCalled(t, "SaveCoupon", mock.Anything, mock.Anything)
	backend.AssertNotCalled(t, "ListCoupons", mock.Anything, mock.Anything, mock.Anything)
}

func TestCouponSyncer_ForAddProductUsesSKU(t *testing.T) {
	backend := new(mockBackend)
	c := NewCouponSyncer(backend, true, newTestLogger())
	n := 0
	c.newID = func() string {
		n++
		return "ID-" + string(rune('0'+n))
	}

	v := domain.SponsorData{
		ID:               "p-1",
		Type:             domain.TypeRedeemShop,
		StockKeepingUnit: "SKU9",
		CouponsAvailable: domain.NumericInt(2),
		CouponUsageCount: domain.NumericInt(1),
	}
	backend.On("SaveCoupon", mock.Anything, domain.CouponDTO{ID: "id-1", ProductID: "p-1", Code: "SKU9-1", UsageCount: 1}).Return(nil).Once()
	backend.On("SaveCoupon", mock.Anything, domain.CouponDTO{ID: "id-2", ProductID: "p-1", Code: "SKU9-2", UsageCount: 1}).Return(errors.New("boom")).Once()

	res := c.ForAdd(context.Background(), v)
	assert.Equal(t, 1, res.Created)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, domain.StepCoupons, res.Failures[0].Step)
	assert.Equal(t, "create", res.Failures[0].Action)
	backend.AssertExpectations(t)
}

func TestCouponSyncer_ForEditUnchangedSkipsFetch(t *testing.T) {
	backend := new(mockBackend)
	c := NewCouponSyncer(backend, true, newTestLogger())

	v := titleSponsor("sp-1", true)
	v.CouponsAvailable = domain.NumericInt(2)

	res := c.ForEdit(context.Background(), v, v)
	assert.Equal(t, CouponResult{}, res)
	backend.AssertNotCalled(t, "ListCoupons", mock.Anything, mock.Anything, mock.Anything)
}

func TestCouponSyncer_ForEditUsageChange(t *testing.T) {
	backend := new(mockBackend)
	c := NewCouponSyncer(backend, true, newTestLogger())
	c.newID = func() string { return "new" }

	prev := titleSponsor("sp-1", true)
	prev.CouponCode = "X"
	prev.CouponsAvailable = domain.NumericInt(1)
	next := prev.Clone()
	next.CouponsAvailable = domain.NumericInt(2)
	next.CouponUsageCount = domain.NumericInt(4)

	backend.On("ListCoupons", mock.Anything, domain.KindSponsor, "sp-1").
		Return([]domain.CouponDTO{{ID: "c1", SponsorID: "sp-1", Code: "X-1"}}, nil)
	backend.On("SaveCoupon", mock.Anything, mock.Anything).Return(nil)

	res := c.ForEdit(context.Background(), prev, next)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	backend.AssertCalled(t, "SaveCoupon", mock.Anything, domain.CouponDTO{ID: "new", SponsorID: "sp-1", Code: "X-2", UsageCount: 4})
	backend.AssertCalled(t, "SaveCoupon", mock.Anything, domain.CouponDTO{ID: "c1", SponsorID: "sp-1", Code: "X-1", UsageCount: 4})
}

func TestCouponSyncer_ForEditListFailure(t *testing.T) {
	backend := new(mockBackend)
	c := NewCouponSyncer(backend, true, newTestLogger())

	prev := titleSponsor("sp-1", true)
	next := prev.Clone()
	next.CouponsAvailable = domain.NumericInt(3)

	backend.On("ListCoupons", mock.Anything, domain.KindSponsor, "sp-1").Return(nil, errors.New("down"))

	res := c.ForEdit(context.Background(), prev, next)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "list", res.Failures[0].Action)
}
