package domain

import (
	"fmt"
	"strings"
)

// MapToSponsor converts a backend record into the unified view model. It never
// fails: absent fields fall back to empty strings, zero, null or false.
// Identifiers on the record and its media are lowercased.
func MapToSponsor(dto RecordDTO, t SponsorType) SponsorData {
	return dto.toSponsorData(t)
}

func (d *SponsorDTO) toSponsorData(t SponsorType) SponsorData {
	active := d.Title != ""
	if d.Active != nil {
		active = *d.Active
	}

	v := SponsorData{
		ID:               strings.ToLower(d.ID),
		Type:             t,
		Sponsor:          d.Title,
		Title:            d.Title,
		Subtitle:         d.Subtitle,
		Summary:          d.Summary,
		Description:      d.SponsorDescription,
		CouponCode:       d.CouponCode,
		DiscountAmount:   OptionalFloat(d.DiscountAmount),
		DiscountPercent:  OptionalFloat(d.DiscountPercent),
		CouponsAvailable: NumericInt(d.CouponsAvailable),
		CouponsToRedeem:  NumericInt(d.CouponsToRedeem),
		CouponUsageCount: NumericInt(d.CouponUsageCount),
		URL:              d.URL,
		URLTitle:         d.URLTitle,
		Glowing:          d.Glowing,
		Order:            NumericInt(d.Order),
		BeginDate:        append(Dates(nil), d.BeginDate...),
		EndDate:          append(Dates(nil), d.EndDate...),
		Active:           active,
		Media:            mapMediaIn(d.Media),
	}
	v.NormalizeDiscount()
	return v
}

func (d *ProductDTO) toSponsorData(t SponsorType) SponsorData {
	var level *UserLevelDTO
	if d.UserLevel != nil {
		lvl := *d.UserLevel
		level = &lvl
	}

	v := SponsorData{
		ID:               strings.ToLower(d.ID),
		Type:             t,
		Sponsor:          d.Title,
		Title:            d.Title,
		UserLevelID:      d.UserLevelID,
		UserLevel:        level,
		StockKeepingUnit: d.StockKeepingUnit,
		ShortDescription: d.ShortDescription,
		LongDescription:  d.LongDescription,
		URL:              d.URL,
		Level:            OptionalInt(d.Level),
		Priority:         OptionalInt(d.Priority),
		DiscountAmount:   OptionalFloat(d.DiscountAmount),
		DiscountPercent:  OptionalFloat(d.DiscountPercent),
		CouponsAvailable: OptionalInt(d.CouponsAvailable),
		CouponsToRedeem:  OptionalInt(d.CouponsToRedeem),
		CouponUsageCount: OptionalInt(d.CouponUsageCount),
		PurpleCoins:      OptionalInt(d.PurpleCoins),
		BeginDate:        append(Dates(nil), d.BeginDate...),
		EndDate:          append(Dates(nil), d.EndDate...),
		Active:           d.Active,
		Media:            mapMediaIn(d.Media),
	}
	v.NormalizeDiscount()
	return v
}

func mapMediaIn(in []MediaDTO) []MediaDTO {
	out := make([]MediaDTO, 0, len(in))
	for _, m := range in {
		m.ID = strings.ToLower(m.ID)
		m.SponsorID = strings.ToLower(m.SponsorID)
		m.ProductID = strings.ToLower(m.ProductID)
		m.ClearTransient()
		out = append(out, m)
	}
	return out
}

// MapToDTO converts the view model into the backend shape selected by t.
// Numeric fields are parsed, defaulting to 0. Media are persisted through
// their own endpoint and are not part of the record payload.
func MapToDTO(v SponsorData, t SponsorType) RecordDTO {
	switch kind := t.Kind(); kind {
	case KindProduct:
		return productDTOFrom(v)
	case KindSponsor:
		return sponsorDTOFrom(v)
	default:
		panic(fmt.Sprintf("domain: unhandled record kind %d", kind))
	}
}

func sponsorDTOFrom(v SponsorData) *SponsorDTO {
	active := v.Active
	return &SponsorDTO{
		ID:                 v.ID,
		Title:              v.Title,
		Subtitle:           v.Subtitle,
		Summary:            v.Summary,
		SponsorDescription: v.Description,
		CouponCode:         v.CouponCode,
		DiscountAmount:     v.DiscountAmount.Float(),
		DiscountPercent:    v.DiscountPercent.Float(),
		CouponsAvailable:   v.CouponsAvailable.Int(),
		CouponsToRedeem:    v.CouponsToRedeem.Int(),
		CouponUsageCount:   v.CouponUsageCount.Int(),
		URL:                v.URL,
		URLTitle:           v.URLTitle,
		Glowing:            v.Glowing,
		Order:              v.Order.Int(),
		Active:             &active,
		BeginDate:          append(Dates(nil), v.BeginDate...),
		EndDate:            append(Dates(nil), v.EndDate...),
	}
}

func productDTOFrom(v SponsorData) *ProductDTO {
	var level *UserLevelDTO
	if v.UserLevel != nil {
		lvl := *v.UserLevel
		level = &lvl
	}
	return &ProductDTO{
		ID:               v.ID,
		Title:            v.Title,
		UserLevelID:      v.UserLevelID,
		UserLevel:        level,
		StockKeepingUnit: v.StockKeepingUnit,
		ShortDescription: v.ShortDescription,
		LongDescription:  v.LongDescription,
		URL:              v.URL,
		Level:            v.Level.Int(),
		Priority:         v.Priority.Int(),
		DiscountAmount:   v.DiscountAmount.Float(),
		DiscountPercent:  v.DiscountPercent.Float(),
		CouponsAvailable: v.CouponsAvailable.Int(),
		// Products are redeemed with purple coins; the backend reads the
		// redemption price from couponsToRedeem.
		CouponsToRedeem:  v.PurpleCoins.Int(),
		CouponUsageCount: v.CouponUsageCount.Int(),
		PurpleCoins:      v.PurpleCoins.Int(),
		BeginDate:        append(Dates(nil), v.BeginDate...),
		EndDate:          append(Dates(nil), v.EndDate...),
		Active:           v.Active,
	}
}

// MapToCouponDTO builds one coupon for the record identified by ownerID.
func MapToCouponDTO(id, ownerID string, kind RecordKind, code string, usageCount int) CouponDTO {
	c := CouponDTO{
		ID:         strings.ToLower(id),
		Code:       code,
		UsageCount: usageCount,
	}
	if kind == KindProduct {
		c.ProductID = ownerID
	} else {
		c.SponsorID = ownerID
	}
	return c
}
