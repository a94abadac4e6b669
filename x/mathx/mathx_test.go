package mathx

import "testing"

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-3, 0, 10, 0},
		{42, 0, 10, 10},
		{5, 10, 0, 5}, // swapped bounds
	}
	for _, tt := range tests {
		if got := Clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestRoundDiv(t *testing.T) {
	// The 9600-baud divisor case: 16 MHz over 8*9600 rounds to 208.
	if got := RoundDiv(uint32(16_000_000), 8*9600); got != 208 {
		t.Fatalf("RoundDiv = %d, want 208", got)
	}
	if got := RoundDiv(uint32(10), 0); got != 0 {
		t.Fatalf("RoundDiv by zero = %d, want 0", got)
	}
}

func TestCeilDiv(t *testing.T) {
	if got := CeilDiv(uint32(10), 3); got != 4 {
		t.Fatalf("CeilDiv = %d, want 4", got)
	}
	if got := CeilDiv(uint32(9), 3); got != 3 {
		t.Fatalf("CeilDiv = %d, want 3", got)
	}
}

func TestMinMax(t *testing.T) {
	if Min(2, 7) != 2 || Max(2, 7) != 7 {
		t.Fatalf("Min/Max broken")
	}
}
