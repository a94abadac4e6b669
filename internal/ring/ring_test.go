package ring

import "testing"

func TestPutGetOrder(t *testing.T) {
	var b Buffer
	for i := 0; i < 10; i++ {
		if !b.Put(byte(i)) {
			t.Fatalf("Put(%d) failed", i)
		}
	}
	for i := 0; i < 10; i++ {
		v, ok := b.Get()
		if !ok || v != byte(i) {
			t.Fatalf("Get %d = (%d,%v)", i, v, ok)
		}
	}
	if _, ok := b.Get(); ok {
		t.Fatal("Get on empty buffer succeeded")
	}
}

func TestDropWhenFull(t *testing.T) {
	var b Buffer
	for i := uint8(0); i < Size; i++ {
		if !b.Put(byte(i)) {
			t.Fatalf("Put %d rejected before full", i)
		}
	}
	if b.Put(0xFF) {
		t.Fatal("Put on full buffer accepted")
	}
	if b.Used() != Size {
		t.Fatalf("Used = %d, want %d", b.Used(), Size)
	}
	// Oldest data survives an overflow attempt.
	if v, _ := b.Get(); v != 0 {
		t.Fatalf("oldest byte = %d, want 0", v)
	}
}

func TestWrapAround(t *testing.T) {
	var b Buffer
	for round := 0; round < 5; round++ {
		for i := uint8(0); i < Size; i++ {
			b.Put(byte(i))
			v, ok := b.Get()
			if !ok || v != byte(i) {
				t.Fatalf("round %d byte %d: (%d,%v)", round, i, v, ok)
			}
		}
	}
}

func TestClear(t *testing.T) {
	var b Buffer
	b.Put(1)
	b.Put(2)
	b.Clear()
	if b.Used() != 0 {
		t.Fatalf("Used after Clear = %d", b.Used())
	}
}
