package enums

import (
	"fmt"
	"strings"
)

// BadgeIndicator selects competitors by marketplace badge.
type BadgeIndicator string

const (
	BadgeOnly          BadgeIndicator = "BADGE_ONLY"
	BadgeNonBadgeOnly  BadgeIndicator = "NON_BADGE_ONLY"
	BadgeAllZero       BadgeIndicator = "ALL_ZERO"
	BadgeAllPercentage BadgeIndicator = "ALL_PERCENTAGE"
)

var validBadgeIndicators = []BadgeIndicator{
	BadgeOnly,
	BadgeNonBadgeOnly,
	BadgeAllZero,
	BadgeAllPercentage,
}

// String implements fmt.Stringer.
func (b BadgeIndicator) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BadgeIndicator.
func (b BadgeIndicator) IsValid() bool {
	for _, candidate := range validBadgeIndicators {
		if candidate == b {
			return true
		}
	}
	return false
}

// Filters reports whether the indicator narrows the competitor set.
func (b BadgeIndicator) Filters() bool {
	return b == BadgeOnly || b == BadgeNonBadgeOnly
}

// ParseBadgeIndicator converts raw input into a BadgeIndicator. Empty input means ALL_ZERO.
func ParseBadgeIndicator(value string) (BadgeIndicator, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return BadgeAllZero, nil
	}
	for _, candidate := range validBadgeIndicators {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid badge indicator %q", value)
}
