package buybox

import (
	"slices"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/pkg/enums"
	"github.com/angelmondragon/repricer/pkg/money"
)

// Decisions projects the best solution of a break onto one decision per
// assigned identity. Solution-less breaks yield nothing.
func Decisions(result BreakResult, listings []reprice.Listing) []reprice.Decision {
	best, ok := result.Best()
	if !ok {
		return nil
	}

	var lowestName string
	var lowestPrice *float64
	for _, l := range listings {
		if !l.InStock || slices.Contains(result.Owned, l.VendorID) {
			continue
		}
		if p, ok := l.PriceAt(result.MinQty); ok && (lowestPrice == nil || p < *lowestPrice) {
			lowestName, lowestPrice = l.VendorName, reprice.Ptr(p)
		}
	}

	out := make([]reprice.Decision, 0, len(best.Assignments))
	for _, a := range best.Assignments {
		d := reprice.Decision{
			MinQty:            result.MinQty,
			OldPrice:          a.OldPrice,
			VendorID:          a.VendorID,
			Active:            true,
			LowestVendor:      lowestName,
			LowestVendorPrice: lowestPrice,
			GoToPrice:         reprice.Ptr(a.Price),
			Explanation:       reprice.Explain(enums.ReasonBuyBoxSolution),
		}
		if money.Equal2(a.Price, a.OldPrice) {
			d.Explanation = reprice.Explain(enums.ReasonIgnoreSamePrice)
		} else {
			d.NewPrice = reprice.Ptr(a.Price)
			d.IsRepriced = true
		}
		out = append(out, d)
	}
	return out
}
