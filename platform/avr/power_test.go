package avr_test

import (
	"testing"

	"eerhal-go/errcode"
	"eerhal-go/hal"
	"eerhal-go/platform/avr"
)

func TestPowerSleepWakesOnPin(t *testing.T) {
	c, m, h := newTestHAL(t)
	if err := h.Power.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := h.Power.EnableWakeupSource(hal.WakeupPin, 0); err != nil {
		t.Fatalf("EnableWakeupSource: %v", err)
	}

	// Raise INT0 while the core is parked in the sleep loop.
	armed := false
	m.OnIdle = func() {
		if !armed {
			armed = true
			c.IRQ.Raise(avr.VectInt0)
		}
	}

	if err := h.Power.SetMode(hal.PowerModeSleep); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	var mode hal.PowerMode
	if err := h.Power.GetMode(&mode); err != nil || mode != hal.PowerModeRun {
		t.Fatalf("mode after wake = %v, %v", mode, err)
	}
	var src hal.WakeupSource
	var id uint8
	if err := h.Power.GetWakeupSource(&src, &id); err != nil {
		t.Fatalf("GetWakeupSource: %v", err)
	}
	if src != hal.WakeupPin || id != 0 {
		t.Fatalf("wake source = %v/%d, want pin/0", src, id)
	}
}

func TestPowerDeepSleepWakesOnWatchdog(t *testing.T) {
	c, m, h := newTestHAL(t)
	if err := h.Power.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := h.Power.EnableWakeupSource(hal.WakeupWatchdog, 0); err != nil {
		t.Fatalf("EnableWakeupSource: %v", err)
	}
	fired := false
	m.OnIdle = func() {
		if !fired {
			fired = true
			c.IRQ.Raise(avr.VectWDT)
		}
	}
	if err := h.Power.SetMode(hal.PowerModeDeepSleep); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	var src hal.WakeupSource
	var id uint8
	if err := h.Power.GetWakeupSource(&src, &id); err != nil || src != hal.WakeupWatchdog {
		t.Fatalf("wake source = %v, %v", src, err)
	}
}

func TestPowerPinWakeChainsGPIOHandler(t *testing.T) {
	c, m, h := newTestHAL(t)
	if err := h.GPIO.Init(); err != nil {
		t.Fatalf("GPIO Init: %v", err)
	}
	if err := h.Power.Init(); err != nil {
		t.Fatalf("Power Init: %v", err)
	}
	pin := c.INT0Pin()
	if err := h.GPIO.Configure(pin, &hal.GPIOConfig{Mode: hal.GPIOInput, Trigger: hal.GPIOTriggerRising}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	fired := 0
	if err := h.GPIO.RegisterIRQ(pin, func(*hal.GPIOEvent) { fired++ }, nil); err != nil {
		t.Fatalf("RegisterIRQ: %v", err)
	}
	h.System.EnableInterrupts()

	m.DrivePin(pin, true)
	if fired != 1 {
		t.Fatalf("fired %d times before wake enable, want 1", fired)
	}

	// The wake source shares the vector with the edge dispatch; both must
	// keep working.
	if err := h.Power.EnableWakeupSource(hal.WakeupPin, 0); err != nil {
		t.Fatalf("EnableWakeupSource: %v", err)
	}
	m.DrivePin(pin, false)
	m.DrivePin(pin, true)
	if fired != 2 {
		t.Fatalf("fired %d times with wake enabled, want 2", fired)
	}
	var src hal.WakeupSource
	var id uint8
	if err := h.Power.GetWakeupSource(&src, &id); err != nil || src != hal.WakeupPin || id != 0 {
		t.Fatalf("wake source = %v/%d, %v", src, id, err)
	}

	// Disabling the wake source hands the vector back intact.
	if err := h.Power.DisableWakeupSource(hal.WakeupPin, 0); err != nil {
		t.Fatalf("DisableWakeupSource: %v", err)
	}
	m.DrivePin(pin, false)
	m.DrivePin(pin, true)
	if fired != 3 {
		t.Fatalf("fired %d times after wake disable, want 3", fired)
	}
}

func TestPowerRTCNotSupported(t *testing.T) {
	_, _, h := newTestHAL(t)
	if err := h.Power.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	err := h.Power.EnableWakeupSource(hal.WakeupRTC, 0)
	if errcode.Of(err) != errcode.NotSupported {
		t.Fatalf("got %v, want not_supported", err)
	}
}

func TestPowerWakeupSourceBeforeSleep(t *testing.T) {
	_, _, h := newTestHAL(t)
	if err := h.Power.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var src hal.WakeupSource
	var id uint8
	if err := h.Power.GetWakeupSource(&src, &id); errcode.Of(err) != errcode.Error {
		t.Fatalf("got %v, want error before any wake", err)
	}
}

func TestPowerConsumptionByMode(t *testing.T) {
	_, _, h := newTestHAL(t)
	if err := h.Power.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var mw uint16
	if err := h.Power.GetPowerConsumption(&mw); err != nil {
		t.Fatalf("GetPowerConsumption: %v", err)
	}
	if mw == 0 {
		t.Fatalf("run-mode consumption reported as zero")
	}
	var mv uint16
	if err := h.Power.GetVoltage(&mv); err != nil || mv != 5000 {
		t.Fatalf("GetVoltage = %d, %v", mv, err)
	}
}
