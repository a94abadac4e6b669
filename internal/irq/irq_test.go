package irq

import "testing"

func TestRaiseDispatchesWhenEnabled(t *testing.T) {
	c := NewController(4)
	hits := 0
	c.Handle(2, func() { hits++ })
	c.Enable()
	c.Raise(2)
	if hits != 1 {
		t.Fatalf("hits = %d, want 1", hits)
	}
}

func TestRaisePendsWhileDisabled(t *testing.T) {
	c := NewController(4)
	hits := 0
	c.Handle(1, func() { hits++ })

	c.Raise(1)
	if hits != 0 {
		t.Fatal("dispatched with interrupts disabled")
	}
	c.Enable()
	if hits != 1 {
		t.Fatalf("pending vector not delivered on enable, hits = %d", hits)
	}
	// Pending state must be consumed.
	c.Disable()
	c.Enable()
	if hits != 1 {
		t.Fatalf("pending vector delivered twice, hits = %d", hits)
	}
}

func TestCriticalRestoresState(t *testing.T) {
	c := NewController(2)
	c.Enable()
	c.Critical(func() {
		if c.Enabled() {
			t.Fatal("interrupts enabled inside critical section")
		}
	})
	if !c.Enabled() {
		t.Fatal("enable state not restored")
	}

	c.Disable()
	c.Critical(func() {})
	if c.Enabled() {
		t.Fatal("critical section enabled interrupts that were off")
	}
}

func TestCriticalDefersRaises(t *testing.T) {
	c := NewController(2)
	hits := 0
	c.Handle(0, func() { hits++ })
	c.Enable()
	c.Critical(func() {
		c.Raise(0)
		if hits != 0 {
			t.Fatal("handler ran inside critical section")
		}
	})
	if hits != 1 {
		t.Fatalf("deferred vector not delivered, hits = %d", hits)
	}
}

func TestHandleReplaceAndClear(t *testing.T) {
	c := NewController(1)
	a, b := 0, 0
	c.Enable()
	c.Handle(0, func() { a++ })
	c.Handle(0, func() { b++ })
	c.Raise(0)
	if a != 0 || b != 1 {
		t.Fatalf("replacement not effective: a=%d b=%d", a, b)
	}
	c.Handle(0, nil)
	c.Raise(0) // dropped, no panic
	if b != 1 {
		t.Fatalf("cleared handler still ran")
	}
}

func TestOutOfRangeVectorIgnored(t *testing.T) {
	c := NewController(1)
	c.Enable()
	c.Raise(9) // no panic
}

func TestReset(t *testing.T) {
	c := NewController(2)
	hits := 0
	c.Handle(0, func() { hits++ })
	c.Raise(0) // pends
	c.Reset()
	c.Enable()
	if hits != 0 {
		t.Fatal("reset did not clear pending/handlers")
	}
}
