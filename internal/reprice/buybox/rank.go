package buybox

import (
	"math"
	"slices"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/pkg/money"
)

const (
	bucketAllowance = 0.995
	badgeAllowance  = 0.9
	epsilon         = 1e-9
)

// Mode selects which price the competitiveness rule compares.
type Mode int

const (
	// ModeShipping compares landed cost for the break quantity.
	ModeShipping Mode = iota
	// ModeUnit compares unit price alone.
	ModeUnit
)

func (m Mode) String() string {
	if m == ModeShipping {
		return "shipping"
	}
	return "unit"
}

// ShippingBucket groups shipping days: up to 2 is 1, up to 5 is 2, else 3.
func ShippingBucket(days int) int {
	switch {
	case days <= 2:
		return 1
	case days <= 5:
		return 2
	default:
		return 3
	}
}

// LandedCost is the buyer's cost for q units. Shipping is waived once
// unit*q reaches unit+freeShippingGap.
func LandedCost(unit float64, q int, shipping, freeShippingGap float64) float64 {
	total := unit * float64(q)
	if total+epsilon >= unit+freeShippingGap {
		return total
	}
	return total + shipping
}

// offer is one listing priced at one break, as the ranking sees it.
type offer struct {
	vendorID int64
	name     string
	unit     float64
	q        int
	badge    bool
	bucket   int
	shipping float64
	gap      float64
}

func newOffer(l reprice.Listing, unit float64, q int) offer {
	return offer{
		vendorID: l.VendorID,
		name:     l.VendorName,
		unit:     unit,
		q:        q,
		badge:    l.HasBadge(),
		bucket:   ShippingBucket(l.ShippingTime),
		shipping: l.StandardShipping,
		gap:      l.FreeShippingGap,
	}
}

func (o offer) at(unit float64) offer {
	o.unit = unit
	return o
}

func (o offer) price(mode Mode) float64 {
	if mode == ModeShipping {
		return LandedCost(o.unit, o.q, o.shipping, o.gap)
	}
	return o.unit
}

func le(a, b float64) bool {
	return a <= b+epsilon
}

// Beats reports whether a outranks b under the competitiveness rule.
func beats(a, b offer, mode Mode) bool {
	pa, pb := a.price(mode), b.price(mode)
	if a.badge == b.badge {
		switch {
		case a.bucket < b.bucket:
			return le(pa*bucketAllowance, pb)
		case a.bucket > b.bucket:
			return le(pa, pb*bucketAllowance)
		default:
			return le(pa, pb-money.Cent)
		}
	}
	if a.badge {
		return le(pa*badgeAllowance, pb)
	}
	return le(pa, pb*badgeAllowance)
}

// threshold is the highest compared price at which own still beats c.
func threshold(own, c offer, mode Mode) float64 {
	pc := c.price(mode)
	if own.badge == c.badge {
		switch {
		case own.bucket < c.bucket:
			return pc / bucketAllowance
		case own.bucket > c.bucket:
			return pc * bucketAllowance
		default:
			return pc - money.Cent
		}
	}
	if own.badge {
		return pc / badgeAllowance
	}
	return pc * badgeAllowance
}

// undercut returns the highest cent price at which own beats c, or false
// when no positive price does.
func undercut(own, c offer, mode Mode) (float64, bool) {
	limit := threshold(own, c, mode)
	best := math.Inf(-1)
	if mode == ModeUnit {
		best = limit
	} else {
		q := float64(own.q)
		if u := (limit - own.shipping) / q; LandedCost(u, own.q, own.shipping, own.gap) <= limit+epsilon {
			best = u
		}
		if u := limit / q; u*q+epsilon >= u+own.gap && u > best {
			best = u
		}
	}
	if math.IsInf(best, -1) {
		return 0, false
	}
	price := money.FloorCents(best + epsilon)
	for i := 0; i < 3 && price > 0; i++ {
		if beats(own.at(price), c, mode) {
			return price, true
		}
		price = money.Sub(price, money.Cent)
	}
	return 0, false
}

// rankOf is 1 plus the number of competitors o fails to outrank.
func rankOf(o offer, competitors []offer, mode Mode) int {
	rank := 1
	for _, c := range competitors {
		if !beats(o, c, mode) {
			rank++
		}
	}
	return rank
}

// order sorts competitors best-first: most rivals outranked, then cheapest.
func order(competitors []offer, mode Mode) []offer {
	wins := make(map[int64]int, len(competitors))
	for _, a := range competitors {
		for _, b := range competitors {
			if a.vendorID != b.vendorID && beats(a, b, mode) {
				wins[a.vendorID]++
			}
		}
	}
	out := slices.Clone(competitors)
	slices.SortStableFunc(out, func(a, b offer) int {
		if wins[a.vendorID] != wins[b.vendorID] {
			return wins[b.vendorID] - wins[a.vendorID]
		}
		switch pa, pb := a.price(mode), b.price(mode); {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	})
	return out
}
