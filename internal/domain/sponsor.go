package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// SponsorType identifies which of the four campaign kinds a record is.
type SponsorType string

// Sponsor type constants.
const (
	TypeTitle      SponsorType = "Title"
	TypeHotFlash   SponsorType = "Hot Flash"
	TypeRedeemShop SponsorType = "Redeem Shop"
	TypeStarStore  SponsorType = "Star Store"
)

// ValidTypes returns the set of valid sponsor types.
func ValidTypes() []SponsorType {
	return []SponsorType{TypeTitle, TypeHotFlash, TypeRedeemShop, TypeStarStore}
}

// IsValidType checks whether the given type string is a valid sponsor type.
func IsValidType(t string) bool {
	for _, v := range ValidTypes() {
		if string(v) == t {
			return true
		}
	}
	return false
}

// RecordKind selects the backend record family a sponsor type is stored in.
type RecordKind int

const (
	KindSponsor RecordKind = iota
	KindProduct
)

func (k RecordKind) String() string {
	if k == KindProduct {
		return "product"
	}
	return "sponsor"
}

// Kind reports whether records of this type live behind the product or the
// sponsor endpoints.
func (t SponsorType) Kind() RecordKind {
	if t == TypeRedeemShop || t == TypeStarStore {
		return KindProduct
	}
	return KindSponsor
}

// Category is the tab key the admin UI fetches by.
type Category string

// Category constants.
const (
	CategoryTitle  Category = "Title"
	CategoryFlash  Category = "Flash"
	CategoryRedeem Category = "Redeem"
	CategoryStar   Category = "Star"
)

// ValidCategories returns every fetchable category.
func ValidCategories() []Category {
	return []Category{CategoryTitle, CategoryFlash, CategoryRedeem, CategoryStar}
}

// ParseCategory accepts a category key ("Star") or a full type name ("Star Store").
func ParseCategory(s string) (Category, bool) {
	for _, c := range ValidCategories() {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, string(c.Type())) {
			return c, true
		}
	}
	return "", false
}

// Type returns the sponsor type held by records of this category.
func (c Category) Type() SponsorType {
	switch c {
	case CategoryFlash:
		return TypeHotFlash
	case CategoryRedeem:
		return TypeRedeemShop
	case CategoryStar:
		return TypeStarStore
	default:
		return TypeTitle
	}
}

// CategoryOf returns the category a sponsor type is listed under.
func CategoryOf(t SponsorType) Category {
	switch t {
	case TypeHotFlash:
		return CategoryFlash
	case TypeRedeemShop:
		return CategoryRedeem
	case TypeStarStore:
		return CategoryStar
	default:
		return CategoryTitle
	}
}

// DiscountType is derived from which discount field is populated.
type DiscountType string

const (
	DiscountNone    DiscountType = ""
	DiscountDollar  DiscountType = "dollar"
	DiscountPercent DiscountType = "percent"
)

// SponsorData is the unified view model for sponsor and product records.
type SponsorData struct {
	ID               string        `json:"id"`
	Type             SponsorType   `json:"type"`
	Sponsor          string        `json:"sponsor"`
	Title            string        `json:"title"`
	Subtitle         string        `json:"subtitle,omitempty"`
	Summary          string        `json:"summary,omitempty"`
	Description      string        `json:"description,omitempty"`
	ShortDescription string        `json:"shortDescription,omitempty"`
	LongDescription  string        `json:"longDescription,omitempty"`
	StockKeepingUnit string        `json:"stockKeepingUnit,omitempty"`
	CouponCode       string        `json:"couponCode,omitempty"`
	DiscountType     DiscountType  `json:"discountType,omitempty"`
	DiscountAmount   Numeric       `json:"discountAmount"`
	DiscountPercent  Numeric       `json:"discountPercent"`
	CouponsAvailable Numeric       `json:"couponsAvailable"`
	CouponsToRedeem  Numeric       `json:"couponsToRedeem"`
	CouponUsageCount Numeric       `json:"couponUsageCount"`
	PurpleCoins      Numeric       `json:"purpleCoins"`
	Media            []MediaDTO    `json:"media"`
	URL              string        `json:"url,omitempty"`
	URLTitle         string        `json:"urlTitle,omitempty"`
	Glowing          bool          `json:"glowing"`
	Order            Numeric       `json:"order"`
	Level            Numeric       `json:"level"`
	Priority         Numeric       `json:"priority"`
	UserLevelID      string        `json:"userLevelID,omitempty"`
	UserLevel        *UserLevelDTO `json:"userLevel,omitempty"`
	BeginDate        Dates         `json:"beginDate"`
	EndDate          Dates         `json:"endDate"`
	Active           bool          `json:"active"`
}

// InferDiscountType derives the discount type: dollar when an amount is set,
// else percent when a percentage is set.
func InferDiscountType(amount, percent Numeric) DiscountType {
	switch {
	case amount.Truthy():
		return DiscountDollar
	case percent.Truthy():
		return DiscountPercent
	default:
		return DiscountNone
	}
}

// SetDiscountAmount sets a dollar discount and clears the percentage.
func (s *SponsorData) SetDiscountAmount(v Numeric) {
	s.DiscountAmount = v
	s.DiscountPercent = ""
	s.DiscountType = InferDiscountType(s.DiscountAmount, s.DiscountPercent)
}

// SetDiscountPercent sets a percentage discount and clears the amount.
func (s *SponsorData) SetDiscountPercent(v Numeric) {
	s.DiscountPercent = v
	s.DiscountAmount = ""
	s.DiscountType = InferDiscountType(s.DiscountAmount, s.DiscountPercent)
}

// NormalizeDiscount enforces that at most one discount field is populated.
// A discountType sent by the form picks the surviving field; otherwise the
// dollar amount wins. discountType is then re-derived.
func (s *SponsorData) NormalizeDiscount() {
	switch s.DiscountType {
	case DiscountPercent:
		s.DiscountAmount = ""
	case DiscountDollar:
		s.DiscountPercent = ""
	default:
		if s.DiscountAmount.Truthy() {
			s.DiscountPercent = ""
		} else if s.DiscountPercent.Truthy() {
			s.DiscountAmount = ""
		}
	}
	s.DiscountType = InferDiscountType(s.DiscountAmount, s.DiscountPercent)
}

// Clone returns a copy that shares no slices with s.
func (s SponsorData) Clone() SponsorData {
	out := s
	out.Media = slices.Clone(s.Media)
	out.BeginDate = slices.Clone(s.BeginDate)
	out.EndDate = slices.Clone(s.EndDate)
	if s.UserLevel != nil {
		lvl := *s.UserLevel
		out.UserLevel = &lvl
	}
	return out
}

// Numeric is a form number that may arrive as a JSON number, a numeric
// string, or null. The empty value means absent.
type Numeric string

// NumericInt builds a Numeric from an int; zero stays explicit.
func NumericInt(v int) Numeric {
	return Numeric(strconv.Itoa(v))
}

// NumericFloat builds a Numeric from a float.
func NumericFloat(v float64) Numeric {
	return Numeric(strconv.FormatFloat(v, 'f', -1, 64))
}

// OptionalInt returns the empty Numeric for zero.
func OptionalInt(v int) Numeric {
	if v == 0 {
		return ""
	}
	return NumericInt(v)
}

// OptionalFloat returns the empty Numeric for zero.
func OptionalFloat(v float64) Numeric {
	if v == 0 {
		return ""
	}
	return NumericFloat(v)
}

// IsEmpty reports whether no value was supplied.
func (n Numeric) IsEmpty() bool {
	return strings.TrimSpace(string(n)) == ""
}

// Valid reports whether a supplied value parses as a finite number.
func (n Numeric) Valid() bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Truthy reports whether the value is present and non-zero.
func (n Numeric) Truthy() bool {
	if n.IsEmpty() {
		return false
	}
	if !n.Valid() {
		return true
	}
	return n.Float() != 0
}

// Float parses the value, returning 0 when absent or unparseable.
func (n Numeric) Float() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int parses the value as an integer, truncating decimals and returning 0 when
// absent or unparseable.
func (n Numeric) Int() int {
	s := strings.TrimSpace(string(n))
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return int(n.Float())
}

// UnmarshalJSON accepts numbers, strings and null.
func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*n = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numeric(strings.TrimSpace(s))
	case bytes.Equal(b, []byte("true")), bytes.Equal(b, []byte("false")):
		return fmt.Errorf("numeric: unexpected boolean %s", b)
	default:
		var num json.Number
		if err := json.Unmarshal(b, &num); err != nil {
			return fmt.Errorf("numeric: %w", err)
		}
		*n = Numeric(num.String())
	}
	return nil
}

// MarshalJSON writes null when absent, a number when parseable, and the raw
// string otherwise.
func (n Numeric) MarshalJSON() ([]byte, error) {
	if n.IsEmpty() {
		return []byte("null"), nil
	}
	if n.Valid() {
		return []byte(strconv.FormatFloat(n.Float(), 'f', -1, 64)), nil
	}
	return json.Marshal(string(n))
}

// Dates is a campaign date: one ISO-8601 timestamp, or an ordered sequence of
// window starts/ends for multi-window campaigns.
type Dates []string

// Single wraps one timestamp; an empty string yields no dates.
func Single(ts string) Dates {
	if ts == "" {
		return nil
	}
	return Dates{ts}
}

// First returns the leading timestamp or "".
func (d Dates) First() string {
	if len(d) == 0 {
		return ""
	}
	return d[0]
}

// IsMulti reports whether the date describes more than one window.
func (d Dates) IsMulti() bool {
	return len(d) > 1
}

// SortKey returns the leading timestamp, or the Unix epoch when missing or
// unparseable.
func (d Dates) SortKey() time.Time {
	if t, ok := ParseTimestamp(d.First()); ok {
		return t
	}
	return time.Unix(0, 0).UTC()
}

// UnmarshalJSON accepts a string, an array of strings, or null.
func (d *Dates) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*d = nil
		return nil
	}
	if b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return fmt.Errorf("dates: %w", err)
		}
		out := make(Dates, 0, len(list))
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*d = out
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("dates: %w", err)
	}
	*d = Single(strings.TrimSpace(s))
	return nil
}

// MarshalJSON writes null, a single string, or an array for multiple windows.
func (d Dates) MarshalJSON() ([]byte, error) {
	switch len(d) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(d[0])
	default:
		return json.Marshal([]string(d))
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the date formats the admin UI and backend emit.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
