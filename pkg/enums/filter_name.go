package enums

import "fmt"

// FilterName identifies a competitor filter.
type FilterName string

const (
	FilterExcludedVendor     FilterName = "EXCLUDED_VENDOR"
	FilterInventoryThreshold FilterName = "INVENTORY_THRESHOLD"
	FilterHandlingTime       FilterName = "HANDLING_TIME"
	FilterBadgeIndicator     FilterName = "BADGE_INDICATOR"
	FilterPhantomPriceBreak  FilterName = "PHANTOM_PRICE_BREAK"
	FilterSisterVendor       FilterName = "SISTER_VENDOR_EXCLUSION"
)

var validFilterNames = []FilterName{
	FilterExcludedVendor,
	FilterInventoryThreshold,
	FilterHandlingTime,
	FilterBadgeIndicator,
	FilterPhantomPriceBreak,
	FilterSisterVendor,
}

// String implements fmt.Stringer.
func (f FilterName) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FilterName.
func (f FilterName) IsValid() bool {
	for _, candidate := range validFilterNames {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFilterName converts raw input into a FilterName.
func ParseFilterName(value string) (FilterName, error) {
	for _, candidate := range validFilterNames {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid filter name %q", value)
}
