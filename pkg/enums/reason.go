package enums

import "fmt"

// ReasonCode is the primary explanation attached to a price decision.
type ReasonCode string

const (
	ReasonDefault               ReasonCode = "DEFAULT"
	ReasonNoCompetitor          ReasonCode = "NO_COMPETITOR"
	ReasonOwnLowestUndercutNext ReasonCode = "OWN_LOWEST_UNDERCUT_NEXT"
	ReasonUndercutLowest        ReasonCode = "UNDERCUT_LOWEST"
	ReasonSisterLowest          ReasonCode = "SISTER_LOWEST"
	ReasonSisterFloorEscalated  ReasonCode = "SISTER_FLOOR_ESCALATED"
	ReasonFloorHit              ReasonCode = "FLOOR_HIT"
	ReasonIgnoreSamePrice       ReasonCode = "IGNORE_SAME_PRICE"
	ReasonIgnoreUpOnly          ReasonCode = "IGNORE_UP_ONLY"
	ReasonIgnoreDownOnly        ReasonCode = "IGNORE_DOWN_ONLY"
	ReasonIgnoreBreakHierarchy  ReasonCode = "IGNORE_BREAK_HIERARCHY"
	ReasonNoOwnListing          ReasonCode = "NO_OWN_LISTING"
	ReasonBreakDeactivated      ReasonCode = "BREAK_DEACTIVATED"
	ReasonBuyBoxSolution        ReasonCode = "BUYBOX_SOLUTION"
)

var validReasonCodes = []ReasonCode{
	ReasonDefault,
	ReasonNoCompetitor,
	ReasonOwnLowestUndercutNext,
	ReasonUndercutLowest,
	ReasonSisterLowest,
	ReasonSisterFloorEscalated,
	ReasonFloorHit,
	ReasonIgnoreSamePrice,
	ReasonIgnoreUpOnly,
	ReasonIgnoreDownOnly,
	ReasonIgnoreBreakHierarchy,
	ReasonNoOwnListing,
	ReasonBreakDeactivated,
	ReasonBuyBoxSolution,
}

// String implements fmt.Stringer.
func (r ReasonCode) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReasonCode.
func (r ReasonCode) IsValid() bool {
	for _, candidate := range validReasonCodes {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsIgnore reports whether the code records a suppressed change.
func (r ReasonCode) IsIgnore() bool {
	switch r {
	case ReasonIgnoreSamePrice, ReasonIgnoreUpOnly, ReasonIgnoreDownOnly, ReasonIgnoreBreakHierarchy, ReasonFloorHit:
		return true
	}
	return false
}

// ParseReasonCode converts raw input into a ReasonCode.
func ParseReasonCode(value string) (ReasonCode, error) {
	for _, candidate := range validReasonCodes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reason code %q", value)
}

// ReasonTag is a modifier appended to a reason code.
type ReasonTag string

const (
	TagTie            ReasonTag = "#TIE"
	TagPercentageDown ReasonTag = "#%Down"
	TagFloorFallback  ReasonTag = "#Floor-MovedFrom%to$"
	TagMaxCapped      ReasonTag = "#MaxCapped"
)

var validReasonTags = []ReasonTag{
	TagTie,
	TagPercentageDown,
	TagFloorFallback,
	TagMaxCapped,
}

// String implements fmt.Stringer.
func (t ReasonTag) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ReasonTag.
func (t ReasonTag) IsValid() bool {
	for _, candidate := range validReasonTags {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseReasonTag converts raw input into a ReasonTag.
func ParseReasonTag(value string) (ReasonTag, error) {
	for _, candidate := range validReasonTags {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reason tag %q", value)
}
