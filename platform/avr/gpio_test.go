package avr_test

import (
	"testing"

	"eerhal-go/errcode"
	"eerhal-go/hal"
	"eerhal-go/platform/avr"
	"eerhal-go/platform/avr/sim"
)

func newTestHAL(t *testing.T) (*avr.Chip, *sim.Machine, hal.HAL) {
	t.Helper()
	c := avr.NewChip()
	m := sim.New(c)
	return c, m, avr.New(c)
}

func TestGPIOWriteReadToggle(t *testing.T) {
	c, _, h := newTestHAL(t)
	if err := h.GPIO.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	pin := c.PB(0)
	if err := h.GPIO.Configure(pin, &hal.GPIOConfig{Mode: hal.GPIOOutput}); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if err := h.GPIO.Write(pin, true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var state bool
	if err := h.GPIO.Read(pin, &state); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !state {
		t.Fatalf("pin low after Write(true)")
	}

	// Two toggles return to the original level.
	for i := 0; i < 2; i++ {
		if err := h.GPIO.Toggle(pin); err != nil {
			t.Fatalf("Toggle %d: %v", i, err)
		}
	}
	if err := h.GPIO.Read(pin, &state); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !state {
		t.Fatalf("pin changed after double toggle")
	}
}

func TestGPIOConfigureUnsupportedModes(t *testing.T) {
	c, _, h := newTestHAL(t)
	if err := h.GPIO.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for _, mode := range []hal.GPIOMode{
		hal.GPIOInputPulldown, hal.GPIOOutputOD, hal.GPIOAlternate, hal.GPIOAlternateOD,
	} {
		err := h.GPIO.Configure(c.PB(0), &hal.GPIOConfig{Mode: mode})
		if errcode.Of(err) != errcode.NotSupported {
			t.Fatalf("mode %d: got %v, want not_supported", mode, err)
		}
	}
}

func TestGPIOPullupSetsPortBit(t *testing.T) {
	c, _, h := newTestHAL(t)
	if err := h.GPIO.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := h.GPIO.Configure(c.PC(3), &hal.GPIOConfig{Mode: hal.GPIOInputPullup}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if c.PortC.DDR.HasBits(1 << 3) {
		t.Fatalf("DDR bit set for input")
	}
	if !c.PortC.PORT.HasBits(1 << 3) {
		t.Fatalf("PORT bit clear, pullup not engaged")
	}
}

func TestGPIOExternalInterruptRisingEdge(t *testing.T) {
	c, m, h := newTestHAL(t)
	if err := h.GPIO.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	pin := c.INT0Pin()
	cfg := &hal.GPIOConfig{Mode: hal.GPIOInput, Trigger: hal.GPIOTriggerRising}
	if err := h.GPIO.Configure(pin, cfg); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	var events []hal.GPIOEvent
	err := h.GPIO.RegisterIRQ(pin, func(ev *hal.GPIOEvent) {
		events = append(events, *ev)
	}, "ctx")
	if err != nil {
		t.Fatalf("RegisterIRQ: %v", err)
	}
	h.System.EnableInterrupts()

	m.DrivePin(pin, true)  // rising: fires
	m.DrivePin(pin, false) // falling: must not
	m.DrivePin(pin, true)  // rising: fires

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].UserData != "ctx" {
		t.Fatalf("user data not delivered: %v", events[0].UserData)
	}
}

func TestGPIOPinChangeInterrupt(t *testing.T) {
	c, m, h := newTestHAL(t)
	if err := h.GPIO.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	pin := c.PB(4)

	// Only any-change triggers exist on pin-change pins.
	err := h.GPIO.Configure(pin, &hal.GPIOConfig{Mode: hal.GPIOInput, Trigger: hal.GPIOTriggerRising})
	if errcode.Of(err) != errcode.NotSupported {
		t.Fatalf("rising on PCINT pin: got %v, want not_supported", err)
	}

	if err := h.GPIO.Configure(pin, &hal.GPIOConfig{Mode: hal.GPIOInput, Trigger: hal.GPIOTriggerBoth}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	count := 0
	if err := h.GPIO.RegisterIRQ(pin, func(*hal.GPIOEvent) { count++ }, nil); err != nil {
		t.Fatalf("RegisterIRQ: %v", err)
	}
	h.System.EnableInterrupts()

	m.DrivePin(pin, true)
	m.DrivePin(pin, false)
	if count != 2 {
		t.Fatalf("got %d callbacks, want 2", count)
	}

	if err := h.GPIO.UnregisterIRQ(pin); err != nil {
		t.Fatalf("UnregisterIRQ: %v", err)
	}
	m.DrivePin(pin, true)
	if count != 2 {
		t.Fatalf("callback fired after unregister")
	}
}

func TestGPIOInvalidPin(t *testing.T) {
	_, _, h := newTestHAL(t)
	if err := h.GPIO.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := h.GPIO.Write("not a pin", true); errcode.Of(err) != errcode.InvalidParam {
		t.Fatalf("got %v, want invalid_param", err)
	}
}
