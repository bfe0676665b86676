package filters

import (
	"errors"
	"testing"

	"github.com/angelmondragon/repricer/internal/reprice"
	"github.com/angelmondragon/repricer/pkg/enums"
)

func vendors(listings []reprice.Listing) []int64 {
	out := make([]int64, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.VendorID)
	}
	return out
}

func assertVendors(t *testing.T, got []reprice.Listing, want ...int64) {
	t.Helper()
	ids := vendors(got)
	if len(ids) != len(want) {
		t.Fatalf("got vendors %v want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got vendors %v want %v", ids, want)
		}
	}
}

func TestExcludedVendor(t *testing.T) {
	in := []reprice.Listing{{VendorID: 1}, {VendorID: 2}, {VendorID: 3}}
	out := Apply(enums.FilterExcludedVendor, in, Params{Policy: reprice.Policy{ExcludedVendors: []int64{2}}})
	assertVendors(t, out, 1, 3)
	assertVendors(t, in, 1, 2, 3)
}

func TestInventoryThreshold(t *testing.T) {
	in := []reprice.Listing{
		{VendorID: 1, Inventory: 5, InStock: true},
		{VendorID: 2, Inventory: 10, InStock: false},
		{VendorID: 3, Inventory: 11, InStock: true},
	}

	assertVendors(t, Apply(enums.FilterInventoryThreshold, in, Params{}), 1, 2, 3)

	policy := reprice.Policy{InventoryThreshold: 5}
	assertVendors(t, Apply(enums.FilterInventoryThreshold, in, Params{Policy: policy}), 2, 3)

	policy.ExcludeInactive = true
	assertVendors(t, Apply(enums.FilterInventoryThreshold, in, Params{Policy: policy}), 3)
}

func TestHandlingTimeReadmitsOwnOnce(t *testing.T) {
	own := reprice.Listing{VendorID: 9, ShippingTime: 10}
	in := []reprice.Listing{
		{VendorID: 1, ShippingTime: 1},
		own,
		{VendorID: 2, ShippingTime: 4},
		{VendorID: 3, ShippingTime: 7},
	}

	fast := Apply(enums.FilterHandlingTime, in, Params{Policy: reprice.Policy{HandlingTime: enums.HandlingTimeFast}, Own: &own})
	assertVendors(t, fast, 1, 9)

	long := Apply(enums.FilterHandlingTime, in, Params{Policy: reprice.Policy{HandlingTime: enums.HandlingTimeLong}, Own: &own})
	assertVendors(t, long, 9, 3)

	all := Apply(enums.FilterHandlingTime, in, Params{Policy: reprice.Policy{HandlingTime: enums.HandlingTimeAll}, Own: &own})
	assertVendors(t, all, 1, 9, 2, 3)
}

func TestBadgeIndicator(t *testing.T) {
	own := reprice.Listing{VendorID: 9}
	in := []reprice.Listing{
		{VendorID: 1, BadgeID: 1, BadgeName: "Gold"},
		{VendorID: 2, BadgeID: 1},
		own,
	}

	badge := Apply(enums.FilterBadgeIndicator, in, Params{Policy: reprice.Policy{BadgeIndicator: enums.BadgeOnly}, Own: &own})
	assertVendors(t, badge, 1, 9)

	nonBadge := Apply(enums.FilterBadgeIndicator, in, Params{Policy: reprice.Policy{BadgeIndicator: enums.BadgeNonBadgeOnly}, Own: &own})
	assertVendors(t, nonBadge, 2, 9)

	for _, indicator := range []enums.BadgeIndicator{enums.BadgeAllZero, enums.BadgeAllPercentage} {
		out := Apply(enums.FilterBadgeIndicator, in, Params{Policy: reprice.Policy{BadgeIndicator: indicator}, Own: &own})
		assertVendors(t, out, 1, 2, 9)
	}
}

func TestPhantomPriceBreak(t *testing.T) {
	in := []reprice.Listing{
		{VendorID: 1, InStock: true, Inventory: 3},
		{VendorID: 2, InStock: true, Inventory: 10},
		{VendorID: 3, InStock: false, Inventory: 50},
	}
	assertVendors(t, Apply(enums.FilterPhantomPriceBreak, in, Params{MinQty: 1}), 1, 2, 3)
	assertVendors(t, Apply(enums.FilterPhantomPriceBreak, in, Params{MinQty: 10}), 2)
}

func TestSisterVendor(t *testing.T) {
	in := []reprice.Listing{{VendorID: 1}, {VendorID: 2}}
	out := Apply(enums.FilterSisterVendor, in, Params{Policy: reprice.Policy{SisterVendorIDs: []int64{1}}})
	assertVendors(t, out, 2)
}

func TestUnknownFilterPassesThrough(t *testing.T) {
	in := []reprice.Listing{{VendorID: 1}}
	assertVendors(t, Apply("NOPE", in, Params{}), 1)

	err := Validate(enums.FilterExcludedVendor, "NOPE")
	if !errors.Is(err, ErrUnknownFilter) {
		t.Fatalf("expected ErrUnknownFilter, got %v", err)
	}
	if err := Validate(StandardPipeline(reprice.Policy{IgnorePhantomQBreak: true})...); err != nil {
		t.Fatalf("standard pipeline should validate: %v", err)
	}
}

func TestStandardPipelineOrder(t *testing.T) {
	plain := StandardPipeline(reprice.Policy{})
	if len(plain) != 4 || plain[0] != enums.FilterExcludedVendor || plain[3] != enums.FilterBadgeIndicator {
		t.Fatalf("unexpected pipeline %v", plain)
	}
	phantom := StandardPipeline(reprice.Policy{IgnorePhantomQBreak: true})
	if len(phantom) != 5 || phantom[2] != enums.FilterPhantomPriceBreak {
		t.Fatalf("unexpected phantom pipeline %v", phantom)
	}
	extended := plain.With(enums.FilterSisterVendor)
	if len(extended) != 5 || len(plain) != 4 {
		t.Fatal("With must not grow the receiver")
	}
}

func TestPipelineRunComposes(t *testing.T) {
	own := reprice.Listing{VendorID: 9, ShippingTime: 9, InStock: true, Inventory: 100}
	in := []reprice.Listing{
		{VendorID: 1, ShippingTime: 1, InStock: true, Inventory: 100},
		{VendorID: 2, ShippingTime: 1, InStock: true, Inventory: 1},
		{VendorID: 3, ShippingTime: 9, InStock: true, Inventory: 100},
		{VendorID: 4, ShippingTime: 1, InStock: true, Inventory: 100},
		own,
	}
	policy := reprice.Policy{
		OwnVendorID:        9,
		ExcludedVendors:    []int64{4},
		InventoryThreshold: 5,
		HandlingTime:       enums.HandlingTimeFast,
		BadgeIndicator:     enums.BadgeAllZero,
	}
	out := StandardPipeline(policy).Run(in, Params{Policy: policy, MinQty: 1, Own: &own})
	assertVendors(t, out, 1, 9)
}
