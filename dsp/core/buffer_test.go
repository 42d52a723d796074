package core

import "testing"

func TestWidenNarrow(t *testing.T) {
	src := []float32{1.5, -2, 0}
	wide := make([]float64, len(src))
	Widen(wide, src)
	back := make([]float32, len(src))
	Narrow(back, wide)
	for i := range src {
		if back[i] != src[i] {
			t.Fatalf("index %d: got %v want %v", i, back[i], src[i])
		}
	}
}

func TestFillZero(t *testing.T) {
	buf := []float32{1, 2, 3}
	Fill(buf, 7)
	if buf[0] != 7 || buf[2] != 7 {
		t.Fatalf("Fill: %v", buf)
	}
	Zero(buf)
	for _, v := range buf {
		if v != 0 {
			t.Fatalf("Zero: %v", buf)
		}
	}
}
