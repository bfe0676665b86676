// Package reprice holds the value records shared by the filter pipeline and
// both decision engines.
package reprice

import (
	"slices"
	"time"
)

// PriceBreak is one volume tier of a listing.
type PriceBreak struct {
	MinQty         int        `json:"minQty"`
	UnitPrice      float64    `json:"unitPrice"`
	Active         bool       `json:"active"`
	PromoExpiresAt *time.Time `json:"promoExpiresAt,omitempty"`
}

// ExpiresWithin reports whether the break is a promotion ending inside window of asOf.
func (b PriceBreak) ExpiresWithin(asOf time.Time, window time.Duration) bool {
	if b.PromoExpiresAt == nil || window <= 0 {
		return false
	}
	return b.PromoExpiresAt.Sub(asOf) < window
}

// Listing is one vendor's offer for a product as reported by the marketplace.
type Listing struct {
	VendorID         int64        `json:"vendorId"`
	VendorName       string       `json:"vendorName"`
	InStock          bool         `json:"inStock"`
	Inventory        int          `json:"inventory"`
	ShippingTime     int          `json:"shippingTime"`
	StandardShipping float64      `json:"standardShipping"`
	FreeShippingGap  float64      `json:"freeShippingGap"`
	BadgeID          int          `json:"badgeId"`
	BadgeName        string       `json:"badgeName"`
	PriceBreaks      []PriceBreak `json:"priceBreaks"`
}

// HasBadge reports whether the vendor holds a marketplace badge.
func (l Listing) HasBadge() bool {
	return l.BadgeID > 0 && l.BadgeName != ""
}

// BreakAt returns the active break for minQty.
func (l Listing) BreakAt(minQty int) (PriceBreak, bool) {
	for _, b := range l.PriceBreaks {
		if b.Active && b.MinQty == minQty {
			return b, true
		}
	}
	return PriceBreak{}, false
}

// AnyBreakAt returns the break for minQty regardless of its active flag,
// preferring an active one.
func (l Listing) AnyBreakAt(minQty int) (PriceBreak, bool) {
	if b, ok := l.BreakAt(minQty); ok {
		return b, true
	}
	for _, b := range l.PriceBreaks {
		if b.MinQty == minQty {
			return b, true
		}
	}
	return PriceBreak{}, false
}

// PriceAt returns the active unit price for minQty.
func (l Listing) PriceAt(minQty int) (float64, bool) {
	b, ok := l.BreakAt(minQty)
	if !ok {
		return 0, false
	}
	return b.UnitPrice, true
}

// ResolveBreak returns a copy whose only active break at minQty is the first
// active one accepted by keep. It reports false when none is accepted.
func (l Listing) ResolveBreak(minQty int, keep func(PriceBreak) bool) (Listing, bool) {
	breaks := make([]PriceBreak, 0, len(l.PriceBreaks))
	found := false
	for _, b := range l.PriceBreaks {
		if b.Active && b.MinQty == minQty {
			if found || !keep(b) {
				continue
			}
			found = true
		}
		breaks = append(breaks, b)
	}
	if !found {
		return Listing{}, false
	}
	l.PriceBreaks = breaks
	return l, true
}

// Normalize returns copies of listings where each MinQty has at most one
// active break. The first active break encountered wins.
func Normalize(listings []Listing) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		seen := make(map[int]struct{}, len(l.PriceBreaks))
		breaks := make([]PriceBreak, 0, len(l.PriceBreaks))
		for _, b := range l.PriceBreaks {
			if b.Active {
				if _, dup := seen[b.MinQty]; dup {
					continue
				}
				seen[b.MinQty] = struct{}{}
			}
			breaks = append(breaks, b)
		}
		l.PriceBreaks = breaks
		out = append(out, l)
	}
	return out
}

// FindVendor returns the listing of vendorID.
func FindVendor(listings []Listing, vendorID int64) (Listing, bool) {
	for _, l := range listings {
		if l.VendorID == vendorID {
			return l, true
		}
	}
	return Listing{}, false
}

// BreakQuantities returns the sorted distinct MinQty values of a listing.
func BreakQuantities(l Listing) []int {
	seen := map[int]struct{}{}
	out := []int{}
	for _, b := range l.PriceBreaks {
		if _, ok := seen[b.MinQty]; ok {
			continue
		}
		seen[b.MinQty] = struct{}{}
		out = append(out, b.MinQty)
	}
	slices.Sort(out)
	return out
}
