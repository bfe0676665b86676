package enums

import (
	"fmt"
	"strings"
)

// HandlingTime selects competitors by shipping time.
type HandlingTime string

const (
	HandlingTimeFast    HandlingTime = "FAST"
	HandlingTimeStocked HandlingTime = "STOCKED"
	HandlingTimeLong    HandlingTime = "LONG"
	HandlingTimeAll     HandlingTime = "ALL"
)

var validHandlingTimes = []HandlingTime{
	HandlingTimeFast,
	HandlingTimeStocked,
	HandlingTimeLong,
	HandlingTimeAll,
}

// String implements fmt.Stringer.
func (h HandlingTime) String() string {
	return string(h)
}

// IsValid reports whether the value is a known HandlingTime.
func (h HandlingTime) IsValid() bool {
	for _, candidate := range validHandlingTimes {
		if candidate == h {
			return true
		}
	}
	return false
}

// Admits reports whether a listing shipping in days falls in the bucket.
func (h HandlingTime) Admits(days int) bool {
	switch h {
	case HandlingTimeFast:
		return days <= 2
	case HandlingTimeStocked:
		return days <= 5
	case HandlingTimeLong:
		return days >= 6
	default:
		return true
	}
}

// ParseHandlingTime converts raw input into a HandlingTime. Empty input means ALL.
func ParseHandlingTime(value string) (HandlingTime, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return HandlingTimeAll, nil
	}
	for _, candidate := range validHandlingTimes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid handling time %q", value)
}
