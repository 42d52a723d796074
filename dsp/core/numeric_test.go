package core

import (
	"math"
	"testing"
)

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := map[float64]int{0.5: 1, 1.5: 2, 2.5: 3, -0.5: -1, -2.5: -3, 2.4999: 2}
	for in, want := range cases {
		if got := Round(in); got != want {
			t.Fatalf("Round(%v)=%d want=%d", in, got, want)
		}
		if got := Round(float32(in)); got != want {
			t.Fatalf("Round(float32(%v))=%d want=%d", in, got, want)
		}
	}
}

func TestRoundClamp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{"inside", 2.5, 3},
		{"below", -7, -4},
		{"above", 9.6, 8},
		{"beyond int range", 1e30, 8},
		{"positive infinity", math.Inf(1), 8},
		{"negative infinity", math.Inf(-1), -4},
		{"nan", math.NaN(), -4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RoundClamp(tc.in, -4, 8); got != tc.want {
				t.Fatalf("RoundClamp(%v)=%d, want %d", tc.in, got, tc.want)
			}
		})
	}
	if got := RoundClamp(float32(1e20), 0, 4); got != 4 {
		t.Fatalf("float32 RoundClamp=%d, want 4", got)
	}
}

func TestNearlyEqual(t *testing.T) {
	if !NearlyEqual(1.0, 1.0+1e-13, 1e-12) {
		t.Fatal("expected values to be nearly equal")
	}
	if NearlyEqual(1.0, 1.1, 1e-3) {
		t.Fatal("expected values to differ")
	}
	if !NearlyEqual(float32(1), float32(1.0000001), 1e-6) {
		t.Fatal("expected float32 values to be nearly equal")
	}
	if !NearlyEqual(0, 1e-13, 0) {
		t.Fatal("zero eps should fall back to the default epsilon")
	}
}

func TestLegalTransformLength(t *testing.T) {
	legal := []int{1, 2, 3, 5, 7, 8, 12, 14, 30, 210, 1024, 4096, 6 * 7 * 25}
	for _, n := range legal {
		if !LegalTransformLength(n) {
			t.Fatalf("LegalTransformLength(%d)=false, want true", n)
		}
	}
	illegal := []int{0, -8, 11, 13, 22, 1023, 2 * 11}
	for _, n := range illegal {
		if LegalTransformLength(n) {
			t.Fatalf("LegalTransformLength(%d)=true, want false", n)
		}
	}
}
