package rules

import (
	"slices"
	"time"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/internal/reprice/filters"
	"github.com/angelmondragon/repricer/pkg/money"
)

type entry struct {
	listing reprice.Listing
	price   float64
}

// eligible keeps one listing per vendor priced at q. A competitor promo
// ending inside the promo window is skipped in favour of the vendor's next
// active break at q; vendors left without one are dropped.
func (e *Engine) eligible(listings []reprice.Listing, ownID int64, q int, asOf time.Time) []reprice.Listing {
	seen := make(map[int64]struct{}, len(listings))
	out := make([]reprice.Listing, 0, len(listings))
	for _, l := range listings {
		if _, dup := seen[l.VendorID]; dup {
			continue
		}
		resolved, ok := l.ResolveBreak(q, func(b reprice.PriceBreak) bool {
			return l.VendorID == ownID || !b.ExpiresWithin(asOf, e.opts.PromoWindow)
		})
		if !ok {
			continue
		}
		seen[l.VendorID] = struct{}{}
		out = append(out, resolved)
	}
	return out
}

// rank sorts listings by their price at q. The own listing sorts after
// others at the same price so a tie is never read as "own is cheapest".
func rank(listings []reprice.Listing, q int, ownID int64) []entry {
	seen := make(map[int64]struct{}, len(listings))
	out := make([]entry, 0, len(listings))
	for _, l := range listings {
		if _, dup := seen[l.VendorID]; dup {
			continue
		}
		price, ok := l.PriceAt(q)
		if !ok {
			continue
		}
		seen[l.VendorID] = struct{}{}
		out = append(out, entry{listing: l, price: price})
	}
	slices.SortStableFunc(out, func(a, b entry) int {
		switch {
		case !money.Equal2(a.price, b.price) && a.price < b.price:
			return -1
		case !money.Equal2(a.price, b.price):
			return 1
		case a.listing.VendorID == ownID && b.listing.VendorID != ownID:
			return 1
		case b.listing.VendorID == ownID && a.listing.VendorID != ownID:
			return -1
		}
		return 0
	})
	return out
}

// isOwnTie reports whether the two cheapest listings, ignoring exclusions,
// share a price and both belong to the vendor or its sisters.
func isOwnTie(eligible []reprice.Listing, policy reprice.Policy, q int) bool {
	relaxed := policy.WithoutExclusions()
	own, _ := reprice.FindVendor(eligible, policy.OwnVendorID)
	params := filters.Params{Policy: relaxed, MinQty: q}
	if own.VendorID != 0 {
		params.Own = &own
	}
	sorted := rank(filters.StandardPipeline(relaxed).Run(eligible, params), q, policy.OwnVendorID)
	if len(sorted) < 2 {
		return false
	}
	if !money.Equal2(sorted[0].price, sorted[1].price) {
		return false
	}
	return policy.IsOwnOrSister(sorted[0].listing.VendorID) && policy.IsOwnOrSister(sorted[1].listing.VendorID)
}

// nextCompetitor walks sorted from start, skipping the vendor's own and
// sister listings and excluded vendors.
func nextCompetitor(sorted []entry, start int, policy reprice.Policy) (entry, bool) {
	for i := start; i < len(sorted); i++ {
		id := sorted[i].listing.VendorID
		if policy.IsOwnOrSister(id) || policy.IsExcluded(id) {
			continue
		}
		return sorted[i], true
	}
	return entry{}, false
}
