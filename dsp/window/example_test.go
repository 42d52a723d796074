package window

import "fmt"

func ExampleGenerate() {
	w, _ := Generate(TypeHann, 4, WithSymmetric())
	fmt.Printf("%.2f %.2f %.2f %.2f\n", w[0], w[1], w[2], w[3])
	// Output:
	// 0.00 0.75 0.75 0.00
}

func ExampleTaper_Apply() {
	tp, _ := NewTaper(TypeHann, 4)
	buf := []float32{1, 1, 1, 1}
	_ = tp.Apply(buf, buf)
	fmt.Printf("%.2f %.2f %.2f %.2f\n", buf[0], buf[1], buf[2], buf[3])
	// Output:
	// 0.00 0.50 1.00 0.50
}
