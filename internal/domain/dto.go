package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// RecordDTO is a backend record: exactly one of *SponsorDTO or *ProductDTO.
// The unexported method seals the union so no other variant can exist.
type RecordDTO interface {
	RecordID() string
	toSponsorData(t SponsorType) SponsorData
}

// SponsorDTO is the backend shape for Title and Hot Flash records.
type SponsorDTO struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Subtitle           string          `json:"subtitle"`
	Summary            string          `json:"summary"`
	SponsorDescription string          `json:"sponsorDescription"`
	CouponCode         string          `json:"couponCode"`
	DiscountAmount     float64         `json:"discountAmount"`
	DiscountPercent    float64         `json:"discountPercent"`
	CouponsAvailable   int             `json:"couponsAvailable"`
	CouponsToRedeem    int             `json:"couponsToRedeem"`
	CouponUsageCount   int             `json:"couponUsageCount"`
	Media              []MediaDTO      `json:"media,omitempty"`
	URL                string          `json:"url"`
	URLTitle           string          `json:"urlTitle"`
	Glowing            bool            `json:"glowing"`
	Order              int             `json:"order"`
	Active             *bool           `json:"active,omitempty"`
	BeginDate          Dates           `json:"beginDate,omitempty"`
	EndDate            Dates           `json:"endDate,omitempty"`
	Created            json.RawMessage `json:"created,omitempty"`
	Updated            json.RawMessage `json:"updated,omitempty"`
}

// RecordID returns the backend identifier.
func (d *SponsorDTO) RecordID() string { return d.ID }

// IsHotFlash reports whether the backend stored the sponsor with a list of
// creation windows, which is how Hot Flash sponsors are distinguished.
func (d *SponsorDTO) IsHotFlash() bool {
	raw := bytes.TrimSpace(d.Created)
	return len(raw) > 0 && raw[0] == '['
}

// ClassifiedType returns Hot Flash or Title for a fetched sponsor.
func (d *SponsorDTO) ClassifiedType() SponsorType {
	if d.IsHotFlash() {
		return TypeHotFlash
	}
	return TypeTitle
}

// ProductDTO is the backend shape for Redeem Shop and Star Store records.
type ProductDTO struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	UserLevelID      string        `json:"userLevelID,omitempty"`
	UserLevel        *UserLevelDTO `json:"userLevel,omitempty"`
	StockKeepingUnit string        `json:"stockKeepingUnit"`
	ShortDescription string        `json:"shortDescription"`
	LongDescription  string        `json:"longDescription"`
	URL              string        `json:"url"`
	Level            int           `json:"level"`
	Priority         int           `json:"priority"`
	DiscountAmount   float64       `json:"discountAmount"`
	DiscountPercent  float64       `json:"discountPercent"`
	CouponsAvailable int           `json:"couponsAvailable"`
	CouponsToRedeem  int           `json:"couponsToRedeem"`
	CouponUsageCount int           `json:"couponUsageCount"`
	PurpleCoins      int           `json:"purpleCoins"`
	Media            []MediaDTO    `json:"media,omitempty"`
	BeginDate        Dates         `json:"beginDate,omitempty"`
	EndDate          Dates         `json:"endDate,omitempty"`
	Active           bool          `json:"active"`
}

// RecordID returns the backend identifier.
func (d *ProductDTO) RecordID() string { return d.ID }

// HasUserLevel reports whether the product is gated by a user level.
func (d *ProductDTO) HasUserLevel() bool {
	return strings.TrimSpace(d.UserLevelID) != "" || d.UserLevel != nil
}

// ClassifiedType returns Star Store for level-gated products, else Redeem Shop.
func (d *ProductDTO) ClassifiedType() SponsorType {
	if d.HasUserLevel() {
		return TypeStarStore
	}
	return TypeRedeemShop
}

// MediaDTO is an image or video attached to a record. URL and S3Key are set
// once the binary is uploaded; DraftID and PreviewURL identify a local draft
// that has not been uploaded yet and are never sent to the backend.
type MediaDTO struct {
	ID                     string   `json:"id"`
	SponsorID              string   `json:"sponsorID,omitempty"`
	ProductID              string   `json:"productID,omitempty"`
	Tag                    MediaTag `json:"tag,omitempty"`
	URL                    string   `json:"url,omitempty"`
	Order                  int      `json:"order"`
	S3Key                  string   `json:"s3Key,omitempty"`
	Width                  int      `json:"width,omitempty"`
	Height                 int      `json:"height,omitempty"`
	ContentType            string   `json:"contentType"`
	ThumbnailURL           string   `json:"thumbnailURL,omitempty"`
	VideoDurationInSeconds float64  `json:"videoDurationInSeconds,omitempty"`
	DraftID                string   `json:"draftId,omitempty"`
	PreviewURL             string   `json:"previewUrl,omitempty"`
}

// IsDraft reports whether the medium still needs uploading.
func (m MediaDTO) IsDraft() bool {
	return m.URL == "" && m.DraftID != ""
}

// IsVideo reports whether the content type selects the video branch.
func (m MediaDTO) IsVideo() bool {
	return strings.HasPrefix(strings.ToLower(m.ContentType), "video/")
}

// ClearTransient drops the local-only draft fields.
func (m *MediaDTO) ClearTransient() {
	m.DraftID = ""
	m.PreviewURL = ""
}

// UserLevelDTO gates which Star Store products a mobile user may redeem.
type UserLevelDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	StarsNeeded int    `json:"starsNeeded"`
}

// CouponDTO is one redemption code tied to a sponsor or product.
type CouponDTO struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"productID,omitempty"`
	SponsorID  string     `json:"sponsorID,omitempty"`
	UserID     string     `json:"userID,omitempty"`
	Code       string     `json:"code,omitempty"`
	UsageCount int        `json:"usageCount"`
	Redeemed   *time.Time `json:"redeemed,omitempty"`
}

// SignInResult is the backend's answer to an identity-token exchange.
type SignInResult struct {
	AxisToken  string `json:"axisToken"`
	UserID     string `json:"userID"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
	Picture    string `json:"picture"`
}
