package reprice

import (
	"slices"

	"github.com/angelmondragon/repricer/pkg/enums"
)

// Unset marks a numeric policy field that was absent or unparsable.
const Unset = -1.0

// Policy is a vendor's pricing configuration for one product and channel.
// PercentageDown and BadgePercentage are fractions (0.05 is five percent).
type Policy struct {
	OwnVendorID         int64                `json:"ownVendorId" validate:"required,gt=0"`
	Channel             string               `json:"channel"`
	Priority            int                  `json:"priority" validate:"gte=0"`
	FloorPrice          float64              `json:"floorPrice"`
	MaxPrice            float64              `json:"maxPrice"`
	PercentageDown      float64              `json:"percentageDown" validate:"gte=0,lt=1"`
	Offset              float64              `json:"offset"`
	Direction           enums.Direction      `json:"direction"`
	ExcludedVendors     []int64              `json:"excludedVendors"`
	SisterVendorIDs     []int64              `json:"sisterVendorIds"`
	InventoryThreshold  int                  `json:"inventoryThreshold"`
	ExcludeInactive     bool                 `json:"excludeInactive"`
	HandlingTime        enums.HandlingTime   `json:"handlingTime"`
	BadgeIndicator      enums.BadgeIndicator `json:"badgeIndicator"`
	BadgePercentage     float64              `json:"badgePercentage"`
	CompeteWithNext     bool                 `json:"competeWithNext"`
	IgnorePhantomQBreak bool                 `json:"ignorePhantomQBreak"`
}

// HasFloorPrice reports whether a floor is configured.
func (p Policy) HasFloorPrice() bool {
	return p.FloorPrice > Unset
}

// HasMaxPrice reports whether a ceiling is configured.
func (p Policy) HasMaxPrice() bool {
	return p.MaxPrice > Unset
}

// Floor returns the effective floor; an unset floor behaves as zero.
func (p Policy) Floor() float64 {
	if !p.HasFloorPrice() {
		return 0
	}
	return p.FloorPrice
}

// IsExcluded reports whether vendorID is in the excluded list.
func (p Policy) IsExcluded(vendorID int64) bool {
	return slices.Contains(p.ExcludedVendors, vendorID)
}

// IsSister reports whether vendorID is a declared sister identity.
func (p Policy) IsSister(vendorID int64) bool {
	return slices.Contains(p.SisterVendorIDs, vendorID)
}

// IsOwnOrSister reports whether vendorID belongs to the vendor's allowed set.
func (p Policy) IsOwnOrSister(vendorID int64) bool {
	return vendorID == p.OwnVendorID || p.IsSister(vendorID)
}

// EffectiveDirection defaults an empty direction to UP_DOWN.
func (p Policy) EffectiveDirection() enums.Direction {
	if p.Direction == "" {
		return enums.DirectionUpDown
	}
	return p.Direction
}

// WithoutExclusions returns a copy with excluded and sister lists cleared.
func (p Policy) WithoutExclusions() Policy {
	p.ExcludedVendors = nil
	p.SisterVendorIDs = nil
	return p
}

// SortByPriority orders policies by ascending priority, keeping input order on ties.
func SortByPriority(policies []Policy) []Policy {
	out := slices.Clone(policies)
	slices.SortStableFunc(out, func(a, b Policy) int {
		return a.Priority - b.Priority
	})
	return out
}
