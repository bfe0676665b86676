package money

import "testing"

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{10.005, 10.01},
		{9.994, 9.99},
		{0.1 + 0.2, 0.3},
		{-1.005, -1.01},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v) = %v want %v", tc.in, got, tc.want)
		}
	}
}

func TestFloorAndCeilCents(t *testing.T) {
	if got := FloorCents(9.9999); got != 9.99 {
		t.Fatalf("FloorCents = %v", got)
	}
	if got := CeilCents(9.9901); got != 10.00 {
		t.Fatalf("CeilCents = %v", got)
	}
}

func TestEqual2(t *testing.T) {
	if !Equal2(9.999, 10.0) {
		t.Fatal("expected 9.999 and 10 to match at two decimals")
	}
	if Equal2(9.98, 9.99) {
		t.Fatal("expected different cents to differ")
	}
}

func TestArithmetic(t *testing.T) {
	if got := Sub(10.00, 0.01); got != 9.99 {
		t.Fatalf("Sub = %v", got)
	}
	if got := Mul(10.00, 0.95); got != 9.5 {
		t.Fatalf("Mul = %v", got)
	}
}

func TestParse(t *testing.T) {
	if v, ok := Parse("12.50"); !ok || v != 12.5 {
		t.Fatalf("Parse(12.50) = %v %v", v, ok)
	}
	if _, ok := Parse(""); ok {
		t.Fatal("empty input must not parse")
	}
	if _, ok := Parse("abc"); ok {
		t.Fatal("malformed input must not parse")
	}
	if got := Format(3); got != "3.00" {
		t.Fatalf("Format(3) = %s", got)
	}
}
