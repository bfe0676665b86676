package enums

import "testing"

func TestParseDirection(t *testing.T) {
	cases := map[string]Direction{
		"":           DirectionUpDown,
		"up_only":    DirectionUpOnly,
		" DOWN_ONLY": DirectionDownOnly,
	}
	for raw, want := range cases {
		got, err := ParseDirection(raw)
		if err != nil {
			t.Fatalf("ParseDirection(%q) error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseDirection(%q) = %s want %s", raw, got, want)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestDirectionAllows(t *testing.T) {
	if DirectionUpOnly.Allows(10, 9.99) {
		t.Fatal("UP_ONLY must reject a lower price")
	}
	if !DirectionUpOnly.Allows(10, 10.5) {
		t.Fatal("UP_ONLY must allow a higher price")
	}
	if DirectionDownOnly.Allows(10, 10.01) {
		t.Fatal("DOWN_ONLY must reject a higher price")
	}
	if !DirectionUpDown.Allows(10, 1) || !DirectionUpDown.Allows(10, 100) {
		t.Fatal("UP_DOWN must allow both ways")
	}
}

func TestHandlingTimeAdmits(t *testing.T) {
	tests := []struct {
		bucket HandlingTime
		days   int
		want   bool
	}{
		{HandlingTimeFast, 2, true},
		{HandlingTimeFast, 3, false},
		{HandlingTimeStocked, 5, true},
		{HandlingTimeStocked, 6, false},
		{HandlingTimeLong, 5, false},
		{HandlingTimeLong, 6, true},
		{HandlingTimeAll, 30, true},
	}
	for _, tc := range tests {
		if got := tc.bucket.Admits(tc.days); got != tc.want {
			t.Fatalf("%s.Admits(%d) = %v want %v", tc.bucket, tc.days, got, tc.want)
		}
	}
}

func TestBadgeIndicatorFilters(t *testing.T) {
	if !BadgeOnly.Filters() || !BadgeNonBadgeOnly.Filters() {
		t.Fatal("badge-only indicators must filter")
	}
	if BadgeAllZero.Filters() || BadgeAllPercentage.Filters() {
		t.Fatal("ALL_* indicators must pass through")
	}
	got, err := ParseBadgeIndicator("")
	if err != nil || got != BadgeAllZero {
		t.Fatalf("expected ALL_ZERO default, got %s err=%v", got, err)
	}
}

func TestReasonCodes(t *testing.T) {
	for _, code := range validReasonCodes {
		parsed, err := ParseReasonCode(code.String())
		if err != nil || parsed != code {
			t.Fatalf("round trip failed for %s", code)
		}
	}
	if !ReasonIgnoreSamePrice.IsIgnore() || !ReasonFloorHit.IsIgnore() {
		t.Fatal("expected ignore codes to report IsIgnore")
	}
	if ReasonUndercutLowest.IsIgnore() {
		t.Fatal("undercut is not an ignore code")
	}
	if _, err := ParseReasonTag("#Nope"); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestParseEngine(t *testing.T) {
	got, err := ParseEngine("v2")
	if err != nil || got != EngineBuyBox {
		t.Fatalf("expected V2, got %s err=%v", got, err)
	}
	if _, err := ParseEngine("V9"); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}
