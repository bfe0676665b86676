package enums

import (
	"fmt"
	"strings"
)

// Direction limits which way a price may move.
type Direction string

const (
	DirectionDownOnly Direction = "DOWN_ONLY"
	DirectionUpOnly   Direction = "UP_ONLY"
	DirectionUpDown   Direction = "UP_DOWN"
)

var validDirections = []Direction{
	DirectionDownOnly,
	DirectionUpOnly,
	DirectionUpDown,
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	return string(d)
}

// IsValid reports whether the value is a known Direction.
func (d Direction) IsValid() bool {
	for _, candidate := range validDirections {
		if candidate == d {
			return true
		}
	}
	return false
}

// Allows reports whether moving from old to next respects the direction.
func (d Direction) Allows(old, next float64) bool {
	switch d {
	case DirectionUpOnly:
		return next >= old
	case DirectionDownOnly:
		return next <= old
	default:
		return true
	}
}

// ParseDirection converts raw input into a Direction. Empty input means UP_DOWN.
func ParseDirection(value string) (Direction, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return DirectionUpDown, nil
	}
	for _, candidate := range validDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid direction %q", value)
}
