package enums

import (
	"fmt"
	"strings"
)

// Engine names the decision engine that produced an envelope.
type Engine string

const (
	EngineRules  Engine = "V1"
	EngineBuyBox Engine = "V2"
)

var validEngines = []Engine{EngineRules, EngineBuyBox}

// String implements fmt.Stringer.
func (e Engine) String() string {
	return string(e)
}

// IsValid reports whether the value is a known Engine.
func (e Engine) IsValid() bool {
	for _, candidate := range validEngines {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEngine converts raw input into an Engine.
func ParseEngine(value string) (Engine, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validEngines {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid engine %q", value)
}
