// Package filters narrows competitor listings before a price decision.
package filters

import (
	"errors"
	"fmt"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/pkg/enums"
)

// ErrUnknownFilter is returned by Validate for names no filter is registered under.
var ErrUnknownFilter = errors.New("unknown filter")

// Params carries what a filter may consult besides the listings.
type Params struct {
	Policy reprice.Policy
	MinQty int
	// Own is re-admitted by filters that always keep the vendor's listing.
	Own *reprice.Listing
}

// Func is a pure, order-preserving filter.
type Func func(listings []reprice.Listing, params Params) []reprice.Listing

var registry = map[enums.FilterName]Func{
	enums.FilterExcludedVendor:     excludedVendor,
	enums.FilterInventoryThreshold: inventoryThreshold,
	enums.FilterHandlingTime:       handlingTime,
	enums.FilterBadgeIndicator:     badgeIndicator,
	enums.FilterPhantomPriceBreak:  phantomPriceBreak,
	enums.FilterSisterVendor:       sisterVendor,
}

// Apply runs the named filter. Unknown names pass listings through unchanged.
func Apply(name enums.FilterName, listings []reprice.Listing, params Params) []reprice.Listing {
	fn, ok := registry[name]
	if !ok {
		return keep(listings, func(reprice.Listing) bool { return true })
	}
	return fn(listings, params)
}

// Validate reports whether every name maps to a registered filter.
func Validate(names ...enums.FilterName) error {
	for _, name := range names {
		if _, ok := registry[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownFilter, name)
		}
	}
	return nil
}

// Pipeline is an ordered list of filters.
type Pipeline []enums.FilterName

// NewPipeline composes filters in the given order.
func NewPipeline(names ...enums.FilterName) Pipeline {
	return Pipeline(names)
}

// StandardPipeline is the V1 order: excluded, inventory, phantom (when
// enabled and relevant), handling time, badge.
func StandardPipeline(policy reprice.Policy) Pipeline {
	p := Pipeline{enums.FilterExcludedVendor, enums.FilterInventoryThreshold}
	if policy.IgnorePhantomQBreak {
		p = append(p, enums.FilterPhantomPriceBreak)
	}
	return append(p, enums.FilterHandlingTime, enums.FilterBadgeIndicator)
}

// Run applies each filter to the output of the previous one.
func (p Pipeline) Run(listings []reprice.Listing, params Params) []reprice.Listing {
	out := listings
	for _, name := range p {
		out = Apply(name, out, params)
	}
	return out
}

// With returns a copy of the pipeline with extra filters appended.
func (p Pipeline) With(names ...enums.FilterName) Pipeline {
	out := make(Pipeline, 0, len(p)+len(names))
	out = append(out, p...)
	return append(out, names...)
}

func excludedVendor(listings []reprice.Listing, params Params) []reprice.Listing {
	return keep(listings, func(l reprice.Listing) bool {
		return !params.Policy.IsExcluded(l.VendorID)
	})
}

func inventoryThreshold(listings []reprice.Listing, params Params) []reprice.Listing {
	threshold := params.Policy.InventoryThreshold
	if threshold <= 0 {
		return keep(listings, func(reprice.Listing) bool { return true })
	}
	return keep(listings, func(l reprice.Listing) bool {
		if params.Policy.ExcludeInactive && !l.InStock {
			return false
		}
		return l.Inventory > threshold
	})
}

func handlingTime(listings []reprice.Listing, params Params) []reprice.Listing {
	bucket := params.Policy.HandlingTime
	out := keep(listings, func(l reprice.Listing) bool {
		return bucket == "" || bucket.Admits(l.ShippingTime)
	})
	return readmitOwn(out, params.Own)
}

func badgeIndicator(listings []reprice.Listing, params Params) []reprice.Listing {
	indicator := params.Policy.BadgeIndicator
	if !indicator.Filters() {
		return keep(listings, func(reprice.Listing) bool { return true })
	}
	wantBadge := indicator == enums.BadgeOnly
	out := keep(listings, func(l reprice.Listing) bool {
		return l.HasBadge() == wantBadge
	})
	return readmitOwn(out, params.Own)
}

func phantomPriceBreak(listings []reprice.Listing, params Params) []reprice.Listing {
	if params.MinQty == 1 {
		return keep(listings, func(reprice.Listing) bool { return true })
	}
	return keep(listings, func(l reprice.Listing) bool {
		return l.InStock && l.Inventory >= params.MinQty
	})
}

func sisterVendor(listings []reprice.Listing, params Params) []reprice.Listing {
	return keep(listings, func(l reprice.Listing) bool {
		return !params.Policy.IsSister(l.VendorID)
	})
}

func keep(listings []reprice.Listing, pred func(reprice.Listing) bool) []reprice.Listing {
	out := make([]reprice.Listing, 0, len(listings))
	for _, l := range listings {
		if pred(l) {
			out = append(out, l)
		}
	}
	return out
}

// readmitOwn appends own when a filter dropped it. It never duplicates.
func readmitOwn(listings []reprice.Listing, own *reprice.Listing) []reprice.Listing {
	if own == nil {
		return listings
	}
	if _, ok := reprice.FindVendor(listings, own.VendorID); ok {
		return listings
	}
	return append(listings, *own)
}
