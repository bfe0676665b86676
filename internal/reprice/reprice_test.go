package reprice

import (
	"testing"
	"time"

	"github.com/angelmondragon/repricer/pkg/enums"
)

func TestNormalizeCollapsesDuplicateActiveBreaks(t *testing.T) {
	in := []Listing{{
		VendorID: 1,
		PriceBreaks: []PriceBreak{
			{MinQty: 1, UnitPrice: 10, Active: true},
			{MinQty: 1, UnitPrice: 9, Active: true},
			{MinQty: 1, UnitPrice: 8, Active: false},
			{MinQty: 5, UnitPrice: 7, Active: true},
		},
	}}

	out := Normalize(in)
	if len(out[0].PriceBreaks) != 3 {
		t.Fatalf("expected 3 breaks after normalize, got %d", len(out[0].PriceBreaks))
	}
	price, ok := out[0].PriceAt(1)
	if !ok || price != 10 {
		t.Fatalf("expected first active break to win, got %v %v", price, ok)
	}
	if len(in[0].PriceBreaks) != 4 {
		t.Fatal("normalize must not mutate its input")
	}
}

func TestResolveBreakSkipsRejectedBreaks(t *testing.T) {
	soon := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	l := Listing{
		VendorID: 2,
		PriceBreaks: []PriceBreak{
			{MinQty: 1, UnitPrice: 9, Active: true, PromoExpiresAt: &soon},
			{MinQty: 1, UnitPrice: 9.5, Active: true},
			{MinQty: 1, UnitPrice: 9.7, Active: true},
			{MinQty: 5, UnitPrice: 8, Active: true},
		},
	}
	regular := func(b PriceBreak) bool { return b.PromoExpiresAt == nil }

	got, ok := l.ResolveBreak(1, regular)
	if !ok {
		t.Fatal("expected a regular break at quantity 1")
	}
	if price, _ := got.PriceAt(1); price != 9.5 {
		t.Fatalf("expected 9.5, got %v", price)
	}
	if len(got.PriceBreaks) != 2 || len(l.PriceBreaks) != 4 {
		t.Fatalf("unexpected breaks %+v (input %d)", got.PriceBreaks, len(l.PriceBreaks))
	}

	if _, ok := l.ResolveBreak(1, func(PriceBreak) bool { return false }); ok {
		t.Fatal("expected no break when every break is rejected")
	}
}

func TestPriceBreakExpiresWithin(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	soon := now.Add(3 * time.Hour)
	later := now.Add(48 * time.Hour)

	if !(PriceBreak{PromoExpiresAt: &soon}).ExpiresWithin(now, 24*time.Hour) {
		t.Fatal("expected promo ending in 3h to be short-expiry")
	}
	if (PriceBreak{PromoExpiresAt: &later}).ExpiresWithin(now, 24*time.Hour) {
		t.Fatal("expected promo ending in 48h to be kept")
	}
	if (PriceBreak{}).ExpiresWithin(now, 24*time.Hour) {
		t.Fatal("non-promo break never expires")
	}
}

func TestBreakQuantitiesSorted(t *testing.T) {
	l := Listing{PriceBreaks: []PriceBreak{{MinQty: 10}, {MinQty: 1}, {MinQty: 5}, {MinQty: 1}}}
	got := BreakQuantities(l)
	want := []int{1, 5, 10}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestHasBadge(t *testing.T) {
	if (Listing{BadgeID: 3}).HasBadge() {
		t.Fatal("badge id without name is not a badge")
	}
	if !(Listing{BadgeID: 3, BadgeName: "Gold"}).HasBadge() {
		t.Fatal("expected badge")
	}
}

func TestPolicyHelpers(t *testing.T) {
	p := Policy{OwnVendorID: 1, FloorPrice: Unset, MaxPrice: 20, SisterVendorIDs: []int64{2}, ExcludedVendors: []int64{3}}
	if p.HasFloorPrice() || p.Floor() != 0 {
		t.Fatal("unset floor should behave as zero")
	}
	if !p.HasMaxPrice() {
		t.Fatal("expected ceiling")
	}
	if !p.IsOwnOrSister(1) || !p.IsOwnOrSister(2) || p.IsOwnOrSister(3) {
		t.Fatal("unexpected allowed set")
	}
	cleared := p.WithoutExclusions()
	if cleared.IsExcluded(3) || cleared.IsSister(2) {
		t.Fatal("expected exclusions cleared")
	}
	if !p.IsExcluded(3) {
		t.Fatal("original policy must keep its exclusions")
	}
	if p.EffectiveDirection() != enums.DirectionUpDown {
		t.Fatal("expected UP_DOWN default")
	}
}

func TestSortByPriority(t *testing.T) {
	in := []Policy{{Channel: "b", Priority: 2}, {Channel: "a", Priority: 1}, {Channel: "c", Priority: 2}}
	out := SortByPriority(in)
	if out[0].Channel != "a" || out[1].Channel != "b" || out[2].Channel != "c" {
		t.Fatalf("unexpected order %+v", out)
	}
}

func TestExplanationRoundTrip(t *testing.T) {
	e := Explain(enums.ReasonUndercutLowest, enums.TagTie, enums.TagPercentageDown, enums.TagTie)
	if got := e.String(); got != "UNDERCUT_LOWEST #TIE #%Down" {
		t.Fatalf("unexpected render %q", got)
	}
	parsed, err := ParseExplanation(e.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Reason != e.Reason || len(parsed.Tags) != 2 || !parsed.Has(enums.TagPercentageDown) {
		t.Fatalf("round trip lost data: %+v", parsed)
	}
	if _, err := ParseExplanation("BOGUS"); err == nil {
		t.Fatal("expected error for unknown reason")
	}
}

func TestDecisionTransformsReturnCopies(t *testing.T) {
	d := Decision{MinQty: 1, OldPrice: 10, NewPrice: Ptr(9.49), IsRepriced: true, Active: true,
		Explanation: Explain(enums.ReasonUndercutLowest, enums.TagTie)}

	suppressed := d.Suppress(enums.ReasonIgnoreUpOnly)
	if suppressed.IsRepriced || suppressed.NewPrice != nil {
		t.Fatal("suppressed decision must not change price")
	}
	if suppressed.GoToPrice == nil || *suppressed.GoToPrice != 9.49 {
		t.Fatal("suppressed decision should keep the would-be price")
	}
	if !suppressed.Explanation.Has(enums.TagTie) || suppressed.Explanation.Reason != enums.ReasonIgnoreUpOnly {
		t.Fatalf("unexpected explanation %s", suppressed.Explanation)
	}
	if !d.IsRepriced || d.NewPrice == nil {
		t.Fatal("original decision was mutated")
	}
	if suppressed.Price() != 10 || d.Price() != 9.49 {
		t.Fatal("unexpected resulting prices")
	}

	tagged := d.WithTag(enums.TagMaxCapped)
	if d.Explanation.Has(enums.TagMaxCapped) || !tagged.Explanation.Has(enums.TagMaxCapped) {
		t.Fatal("WithTag must not mutate the receiver")
	}

	off := d.Deactivate()
	if off.Active || off.IsRepriced || off.Explanation.Reason != enums.ReasonBreakDeactivated {
		t.Fatalf("unexpected deactivated decision %+v", off)
	}
}

func TestEnvelopeRepriced(t *testing.T) {
	env := Envelope{Decisions: []Decision{
		{MinQty: 5, IsRepriced: true, NewPrice: Ptr(8)},
		{MinQty: 1},
	}}
	if got := env.Repriced(); len(got) != 1 || got[0].MinQty != 5 {
		t.Fatalf("unexpected repriced set %+v", got)
	}
	sorted := SortDecisions(env.Decisions)
	if sorted[0].MinQty != 1 || env.Decisions[0].MinQty != 5 {
		t.Fatal("SortDecisions must sort a copy")
	}
}
