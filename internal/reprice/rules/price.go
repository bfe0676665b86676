package rules

import (
	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/pkg/enums"
	"github.com/angelmondragon/repricer/pkg/money"
)

// effectiveOffset keeps every offset price strictly below its reference.
func effectiveOffset(policy reprice.Policy) float64 {
	if policy.Offset < money.Cent {
		return money.Cent
	}
	return policy.Offset
}

// priceAgainst undercuts ref and runs the ceiling, floor, unchanged and
// direction checks in that order.
func priceAgainst(d reprice.Decision, ref entry, policy reprice.Policy, q int, reason enums.ReasonCode) reprice.Decision {
	d.TriggeredByVendor = ref.listing.VendorName
	d.Explanation = reprice.Explain(reason)

	price := money.Sub(ref.price, effectiveOffset(policy))
	if policy.BadgeIndicator == enums.BadgeAllPercentage && policy.BadgePercentage > 0 && ref.listing.HasBadge() {
		if badgePrice := money.Mul(ref.price, 1-policy.BadgePercentage); badgePrice < ref.price {
			price = badgePrice
		}
	}

	if policy.PercentageDown != 0 && q == 1 {
		pct := money.Mul(ref.price, 1-policy.PercentageDown)
		if pct > policy.Floor() && pct < ref.price {
			price = pct
			d = d.WithTag(enums.TagPercentageDown)
		} else {
			d = d.WithTag(enums.TagFloorFallback)
		}
	}

	if policy.HasMaxPrice() && price > policy.MaxPrice {
		price = money.FloorCents(policy.MaxPrice)
		d = d.WithTag(enums.TagMaxCapped)
	}

	if price <= policy.Floor() || price <= 0 {
		d.GoToPrice = reprice.Ptr(price)
		d.Explanation = reprice.Explanation{Reason: enums.ReasonFloorHit, Tags: d.Explanation.Tags}
		return d
	}
	if money.Equal2(price, d.OldPrice) {
		d.Explanation = reprice.Explanation{Reason: enums.ReasonIgnoreSamePrice, Tags: d.Explanation.Tags}
		return d
	}
	return applyDirection(d, policy, price)
}

// applyDirection sets price as the new price unless the direction rule forbids the move.
func applyDirection(d reprice.Decision, policy reprice.Policy, price float64) reprice.Decision {
	d.NewPrice = reprice.Ptr(price)
	d.IsRepriced = true
	switch dir := policy.EffectiveDirection(); {
	case dir.Allows(d.OldPrice, price):
		return d
	case dir == enums.DirectionUpOnly:
		return d.Suppress(enums.ReasonIgnoreUpOnly)
	default:
		return d.Suppress(enums.ReasonIgnoreDownOnly)
	}
}

// EnforceHierarchy sorts decisions by MinQty and withdraws any change that
// would leave a higher break priced at or above an active lower break.
func EnforceHierarchy(decisions []reprice.Decision) []reprice.Decision {
	out := reprice.SortDecisions(decisions)
	for j := range out {
		if !out[j].IsRepriced || out[j].NewPrice == nil {
			continue
		}
		for i := 0; i < j; i++ {
			if !out[i].Active || out[i].MinQty == out[j].MinQty {
				continue
			}
			if *out[j].NewPrice >= out[i].Price() {
				out[j] = out[j].Suppress(enums.ReasonIgnoreBreakHierarchy)
				break
			}
		}
	}
	return out
}
