package window

import (
	"strconv"
	"testing"
)

func BenchmarkGenerate(b *testing.B) {
	for _, n := range []int{256, 1024, 4096} {
		b.Run("kaiser/"+strconv.Itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_, _ = Generate(TypeKaiser, n)
			}
		})
	}
}

func BenchmarkTaperApply(b *testing.B) {
	for _, n := range []int{256, 1024, 4096} {
		b.Run("hann/"+strconv.Itoa(n), func(b *testing.B) {
			tp, _ := NewTaper(TypeHann, n)
			buf := make([]float32, 8*n)
			b.ReportAllocs()
			for b.Loop() {
				_ = tp.Apply(buf, buf)
			}
		})
	}
}
