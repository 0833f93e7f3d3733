package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a lowercase time-ordered identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// MaxCoupons caps the coupons generated for one record.
const MaxCoupons = 10000

// couponQuantity is the record's coupon count clamped to [0, MaxCoupons].
func couponQuantity(v SponsorData) int {
	return min(max(v.CouponsAvailable.Int(), 0), MaxCoupons)
}

// CouponPlan is the set of coupon writes needed to bring the backend in line
// with a record's coupon quantity and usage count.
type CouponPlan struct {
	Create []CouponDTO
	Update []CouponDTO
	Delete []CouponDTO
}

// Empty reports whether the plan has no writes.
func (p CouponPlan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// CouponCodeBase is the prefix each coupon code is suffixed from: the coupon
// code for sponsors, else the SKU, else the record id.
func CouponCodeBase(v SponsorData) string {
	switch {
	case strings.TrimSpace(v.CouponCode) != "":
		return strings.TrimSpace(v.CouponCode)
	case strings.TrimSpace(v.StockKeepingUnit) != "":
		return strings.TrimSpace(v.StockKeepingUnit)
	default:
		return v.ID
	}
}

// CouponCode returns the code of the i-th coupon (1-based).
func CouponCode(base string, i int) string {
	return fmt.Sprintf("%s-%d", base, i)
}

// couponSuffix extracts the numeric suffix of a generated coupon code. Codes
// without one sort first so generated coupons are removed before them.
func couponSuffix(code string) int {
	idx := strings.LastIndex(code, "-")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(code[idx+1:])
	if err != nil {
		return 0
	}
	return n
}

// PlanCouponsForAdd creates one coupon per unit of couponsAvailable.
func PlanCouponsForAdd(v SponsorData, newID func() string) CouponPlan {
	n := couponQuantity(v)
	base := CouponCodeBase(v)
	usage := v.CouponUsageCount.Int()

	var plan CouponPlan
	for i := 1; i <= n; i++ {
		plan.Create = append(plan.Create,
			MapToCouponDTO(newID(), v.ID, v.Type.Kind(), CouponCode(base, i), usage))
	}
	return plan
}

// PlanCouponSync diffs an edit against the coupons the backend holds. A
// quantity increase creates the missing suffixes, a decrease deletes the
// highest suffixes, and a usage-count change rewrites the survivors.
func PlanCouponSync(prev, next SponsorData, existing []CouponDTO, newID func() string) CouponPlan {
	var plan CouponPlan

	want := couponQuantity(next)
	usage := next.CouponUsageCount.Int()
	usageChanged := prev.CouponUsageCount.Int() != usage

	held := append([]CouponDTO(nil), existing...)
	sort.SliceStable(held, func(i, j int) bool {
		return couponSuffix(held[i].Code) < couponSuffix(held[j].Code)
	})

	keep := held
	if len(held) > want {
		keep = held[:want]
		plan.Delete = append(plan.Delete, held[want:]...)
	}

	if len(held) < want {
		base := CouponCodeBase(next)
		suffix := maxSuffix(held)
		for i := len(held); i < want; i++ {
			suffix++
			plan.Create = append(plan.Create,
				MapToCouponDTO(newID(), next.ID, next.Type.Kind(), CouponCode(base, suffix), usage))
		}
	}

	if usageChanged {
		for _, c := range keep {
			c.UsageCount = usage
			plan.Update = append(plan.Update, c)
		}
	}
	return plan
}

func maxSuffix(coupons []CouponDTO) int {
	highest := 0
	for _, c := range coupons {
		if n := couponSuffix(c.Code); n > highest {
			highest = n
		}
	}
	return highest
}
