package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Result is the outcome of one field rule: Ok or Invalid(reason).
type Result struct {
	reason string
}

// Ok is the passing result.
func Ok() Result { return Result{} }

// Invalid is a failing result with a user-facing reason.
func Invalid(reason string) Result { return Result{reason: reason} }

// IsOk reports whether the rule passed.
func (r Result) IsOk() bool { return r.reason == "" }

// Reason returns the failure reason, empty when Ok.
func (r Result) Reason() string { return r.reason }

// FieldRule validates one field of a record. Required rules fail on an empty
// value; optional rules only check the format of a supplied value.
type FieldRule struct {
	Field    string
	Required bool
	Check    func(v SponsorData) Result
}

// ValidationErrors maps field names to failure reasons.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", k, e[k]))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the per-field reasons.
func (e ValidationErrors) Fields() map[string]string { return e }

var commonRules = []FieldRule{
	{Field: "sponsor", Required: true, Check: func(v SponsorData) Result { return requiredString(v.Sponsor) }},
	{Field: "title", Required: true, Check: func(v SponsorData) Result { return requiredString(v.Title) }},
	{Field: "discountAmount", Check: checkDiscountAmount},
	{Field: "discountPercent", Check: checkDiscountPercent},
	{Field: "couponsAvailable", Check: func(v SponsorData) Result { return boundedInt(v.CouponsAvailable, MaxCoupons) }},
	{Field: "couponUsageCount", Check: func(v SponsorData) Result { return nonNegativeInt(v.CouponUsageCount) }},
	{Field: "url", Check: func(v SponsorData) Result { return optionalURL(v.URL) }},
	{Field: "beginDate", Check: func(v SponsorData) Result { return parsableDates(v.BeginDate) }},
	{Field: "endDate", Check: checkDateWindows},
}

var sponsorRules = []FieldRule{
	{Field: "couponsToRedeem", Check: func(v SponsorData) Result { return nonNegativeInt(v.CouponsToRedeem) }},
	{Field: "order", Check: func(v SponsorData) Result { return nonNegativeInt(v.Order) }},
}

var productRules = []FieldRule{
	{Field: "purpleCoins", Check: func(v SponsorData) Result { return nonNegativeInt(v.PurpleCoins) }},
	{Field: "level", Check: func(v SponsorData) Result { return nonNegativeInt(v.Level) }},
	{Field: "priority", Check: func(v SponsorData) Result { return nonNegativeInt(v.Priority) }},
}

var starStoreRules = []FieldRule{
	{Field: "userLevelID", Required: true, Check: func(v SponsorData) Result { return requiredString(v.UserLevelID) }},
}

// RulesFor returns the field table for a sponsor type.
func RulesFor(t SponsorType) []FieldRule {
	rules := append([]FieldRule(nil), commonRules...)
	switch t {
	case TypeTitle, TypeHotFlash:
		rules = append(rules, sponsorRules...)
	case TypeRedeemShop:
		rules = append(rules, productRules...)
	case TypeStarStore:
		rules = append(rules, productRules...)
		rules = append(rules, starStoreRules...)
	}
	return rules
}

// Validate runs every rule for the record's type plus the media rules and
// returns ValidationErrors when any field is invalid.
func Validate(v SponsorData) error {
	errs := ValidationErrors{}
	if !IsValidType(string(v.Type)) {
		errs["type"] = fmt.Sprintf("must be one of: %s", joinTypes())
		return errs
	}
	for _, rule := range RulesFor(v.Type) {
		if r := rule.Check(v); !r.IsOk() {
			errs[rule.Field] = r.Reason()
		}
	}
	for i, m := range v.Media {
		for field, r := range checkMedium(v.Type.Kind(), m) {
			errs[fmt.Sprintf("media[%d].%s", i, field)] = r.Reason()
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func checkMedium(kind RecordKind, m MediaDTO) map[string]Result {
	out := map[string]Result{}
	if m.Order < 1 {
		out["order"] = Invalid("must be at least 1")
	}
	if kind == KindSponsor {
		if m.Tag == "" {
			out["tag"] = Invalid("is required")
		} else if _, ok := ParseTag(string(m.Tag)); !ok {
			out["tag"] = Invalid("must be one of: Main, Header, Section1, Section2")
		}
	}
	if m.URL == "" && m.DraftID == "" {
		out["url"] = Invalid("is required unless a draft is attached")
	}
	return out
}

func joinTypes() string {
	names := make([]string, 0, len(ValidTypes()))
	for _, t := range ValidTypes() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

func requiredString(s string) Result {
	if strings.TrimSpace(s) == "" {
		return Invalid("is required")
	}
	return Ok()
}

func nonNegativeInt(n Numeric) Result {
	if n.IsEmpty() {
		return Ok()
	}
	if !n.Valid() {
		return Invalid("must be a number")
	}
	f := n.Float()
	if f < 0 {
		return Invalid("must be greater than or equal to 0")
	}
	if f != float64(int64(f)) {
		return Invalid("must be a whole number")
	}
	return Ok()
}

func boundedInt(n Numeric, limit int) Result {
	if n.Valid() && n.Float() > float64(limit) {
		return Invalid(fmt.Sprintf("must be at most %d", limit))
	}
	return nonNegativeInt(n)
}

func checkDiscountAmount(v SponsorData) Result {
	if v.DiscountType == DiscountDollar && v.DiscountAmount.IsEmpty() {
		return Invalid("is required for a dollar discount")
	}
	if v.DiscountAmount.IsEmpty() {
		return Ok()
	}
	if !v.DiscountAmount.Valid() {
		return Invalid("must be a number")
	}
	if v.DiscountAmount.Float() < 0 {
		return Invalid("must be greater than or equal to 0")
	}
	return Ok()
}

func checkDiscountPercent(v SponsorData) Result {
	if v.DiscountType == DiscountPercent && v.DiscountPercent.IsEmpty() {
		return Invalid("is required for a percent discount")
	}
	if v.DiscountPercent.IsEmpty() {
		return Ok()
	}
	if !v.DiscountPercent.Valid() {
		return Invalid("must be a number")
	}
	if p := v.DiscountPercent.Float(); p <= 0 || p > 100 {
		return Invalid("must be greater than 0 and at most 100")
	}
	return Ok()
}

func optionalURL(s string) Result {
	if strings.TrimSpace(s) == "" {
		return Ok()
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Invalid("must be an absolute http or https URL")
	}
	return Ok()
}

func parsableDates(d Dates) Result {
	for _, ts := range d {
		if ts == "" {
			continue
		}
		if _, ok := ParseTimestamp(ts); !ok {
			return Invalid(fmt.Sprintf("%q is not a valid timestamp", ts))
		}
	}
	return Ok()
}

// checkDateWindows pairs begin and end dates by index. A window with only one
// side set is open-ended.
func checkDateWindows(v SponsorData) Result {
	if r := parsableDates(v.EndDate); !r.IsOk() {
		return r
	}
	for i, end := range v.EndDate {
		if i >= len(v.BeginDate) || end == "" || v.BeginDate[i] == "" {
			continue
		}
		b, okB := ParseTimestamp(v.BeginDate[i])
		e, okE := ParseTimestamp(end)
		if okB && okE && e.Before(b) {
			return Invalid("must not be before beginDate")
		}
	}
	return Ok()
}
