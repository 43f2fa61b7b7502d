package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(150, 0, 100); got != 100 {
		t.Fatalf("Clamp high = %d", got)
	}
	if got := Clamp(-3, 0, 100); got != 0 {
		t.Fatalf("Clamp low = %d", got)
	}
	if got := Clamp(5, 10, 0); got != 5 {
		t.Fatalf("Clamp swapped bounds = %d", got)
	}
	if got := Percent(-5.5); got != 0 {
		t.Fatalf("Percent = %v", got)
	}
}

func TestMinMax(t *testing.T) {
	lo, hi, ok := MinMax([]float64{3.9, 4.1, 3.7, 4.0})
	if !ok || lo != 3.7 || hi != 4.1 {
		t.Fatalf("MinMax = %v %v %v", lo, hi, ok)
	}
	if _, _, ok := MinMax([]int(nil)); ok {
		t.Fatal("MinMax(nil) should report !ok")
	}
	if s := Sum([]int{1, 2, 3}); s != 6 {
		t.Fatalf("Sum = %d", s)
	}
}
