package testutil

import (
	"math"
	"testing"
)

func TestSine(t *testing.T) {
	s := Sine[float64](1000, 48000, 1.0, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	// First sample of a sine at phase 0 should be 0.
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	for i, v := range s {
		if v < -1 || v > 1 {
			t.Fatalf("s[%d] = %v out of range", i, v)
		}
	}
}

func TestBinToneRepeatsPerSegment(t *testing.T) {
	s := BinTone[float32](3, 16, 1, 48)
	for i := range 16 {
		if s[i] != s[i+16] || s[i] != s[i+32] {
			t.Fatalf("segment sample %d differs across segments", i)
		}
	}
	if s[0] != 1 {
		t.Fatalf("s[0] = %v, want 1", s[0])
	}
}

func TestNoiseDeterministic(t *testing.T) {
	a := Noise[float32](42, 1.0, 64)
	b := Noise[float32](42, 1.0, 64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise not deterministic at index %d", i)
		}
	}
}

func TestNoiseDifferentSeeds(t *testing.T) {
	a := Noise[float64](1, 1.0, 16)
	b := Noise[float64](2, 1.0, 16)
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestImpulse(t *testing.T) {
	imp := Impulse[float32](8, 3)
	for i, v := range imp {
		want := float32(0)
		if i == 3 {
			want = 1
		}
		if v != want {
			t.Fatalf("imp[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestImpulseOutOfBounds(t *testing.T) {
	for i, v := range Impulse[float64](4, 10) {
		if v != 0 {
			t.Fatalf("imp[%d] = %v, want all zeros for out-of-bounds pos", i, v)
		}
	}
}

func TestDC(t *testing.T) {
	for i, v := range DC[float32](0.5, 4) {
		if v != 0.5 {
			t.Fatalf("DC[%d] = %v, want 0.5", i, v)
		}
	}
}
