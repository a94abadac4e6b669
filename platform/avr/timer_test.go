package avr_test

import (
	"testing"

	"eerhal-go/errcode"
	"eerhal-go/hal"
)

func TestTimerUnitConversions(t *testing.T) {
	_, _, h := newTestHAL(t)
	if err := h.Timer.Init(&hal.TimerConfig{Mode: hal.TimerModeContinuous}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// 2 MHz counter clock: two ticks per microsecond.
	if got := h.Timer.UsToTicks(500); got != 1000 {
		t.Fatalf("UsToTicks(500) = %d, want 1000", got)
	}
	if got := h.Timer.TicksToUs(1000); got != 500 {
		t.Fatalf("TicksToUs(1000) = %d, want 500", got)
	}
}

func TestTimerPWMDutyCycle(t *testing.T) {
	c, _, h := newTestHAL(t)
	cfg := &hal.TimerConfig{Mode: hal.TimerModePWM, Period: 20000, Channel: 0}
	if err := h.Timer.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := c.ICR1.Get(); got != 20000 {
		t.Fatalf("ICR1 = %d, want 20000", got)
	}

	if err := h.Timer.SetPWMDutyCycle(0, 50); err != nil {
		t.Fatalf("SetPWMDutyCycle: %v", err)
	}
	if got := c.OCR1A.Get(); got != 10000 {
		t.Fatalf("OCR1A = %d, want 10000", got)
	}

	// Out-of-range duty leaves the compare register alone.
	err := h.Timer.SetPWMDutyCycle(0, 101)
	if errcode.Of(err) != errcode.InvalidParam {
		t.Fatalf("duty 101: got %v, want invalid_param", err)
	}
	if got := c.OCR1A.Get(); got != 10000 {
		t.Fatalf("OCR1A changed to %d on rejected duty", got)
	}
}

func TestTimerPWMRequiresPeriod(t *testing.T) {
	_, _, h := newTestHAL(t)
	err := h.Timer.Init(&hal.TimerConfig{Mode: hal.TimerModePWM, Period: 0})
	if errcode.Of(err) != errcode.InvalidParam {
		t.Fatalf("got %v, want invalid_param", err)
	}
}

func TestTimerOneShotStopsItself(t *testing.T) {
	c, m, h := newTestHAL(t)
	cfg := &hal.TimerConfig{Mode: hal.TimerModeOneShot, Period: 1000}
	if err := h.Timer.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	count := 0
	err := h.Timer.RegisterCallback(hal.TimerEventOverflow, 0, func(ev *hal.TimerEventInfo) {
		count++
	}, nil)
	if err != nil {
		t.Fatalf("RegisterCallback: %v", err)
	}
	if err := h.Timer.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.Timer1Step(5000)
	if count != 1 {
		t.Fatalf("overflow fired %d times, want 1", count)
	}
	if c.TCCR1B.Get()&0b111 != 0 {
		t.Fatalf("clock still selected after one-shot expiry")
	}
}

func TestTimerContinuousKeepsRunning(t *testing.T) {
	_, m, h := newTestHAL(t)
	cfg := &hal.TimerConfig{Mode: hal.TimerModeContinuous, Period: 1000}
	if err := h.Timer.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	count := 0
	h.Timer.RegisterCallback(hal.TimerEventOverflow, 0, func(*hal.TimerEventInfo) { count++ }, nil)
	if err := h.Timer.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Timer1Step(3500)
	if count != 3 {
		t.Fatalf("overflow fired %d times, want 3", count)
	}
}

func TestTimerSetPeriodQuirkWithoutCallback(t *testing.T) {
	c, _, h := newTestHAL(t)
	if err := h.Timer.Init(&hal.TimerConfig{Mode: hal.TimerModeContinuous}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// No overflow callback: the call succeeds and programs the top, but
	// the overflow interrupt stays unarmed so nothing fires.
	if err := h.Timer.SetPeriod(2000); err != nil {
		t.Fatalf("SetPeriod without callback: %v", err)
	}
	if got := c.ICR1.Get(); got != 2000 {
		t.Fatalf("ICR1 = %d, want 2000", got)
	}
	if c.TIMSK1.HasBits(1 << 0) {
		t.Fatalf("overflow interrupt armed without a callback")
	}

	h.Timer.RegisterCallback(hal.TimerEventOverflow, 0, func(*hal.TimerEventInfo) {}, nil)
	if err := h.Timer.SetPeriod(3000); err != nil {
		t.Fatalf("SetPeriod: %v", err)
	}
	if got := c.ICR1.Get(); got != 3000 {
		t.Fatalf("ICR1 = %d, want 3000", got)
	}
}

func TestTimerOneShotStopsOnCompareA(t *testing.T) {
	c, m, h := newTestHAL(t)
	if err := h.Timer.Init(&hal.TimerConfig{Mode: hal.TimerModeOneShot, Period: 1000}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := h.Timer.SetCompare(0, 400); err != nil {
		t.Fatalf("SetCompare: %v", err)
	}
	fired := 0
	h.Timer.RegisterCallback(hal.TimerEventCompare, 0, func(*hal.TimerEventInfo) { fired++ }, nil)
	if err := h.Timer.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.Timer1Compare(0)
	if fired != 1 {
		t.Fatalf("compare fired %d times, want 1", fired)
	}
	if c.TCCR1B.Get()&0b111 != 0 {
		t.Fatalf("clock still selected after one-shot compare match")
	}
}

func TestTimerDutyCycleOutsidePWMMode(t *testing.T) {
	_, _, h := newTestHAL(t)
	if err := h.Timer.Init(&hal.TimerConfig{Mode: hal.TimerModeContinuous, Period: 1000}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := h.Timer.SetPWMDutyCycle(0, 50); errcode.Of(err) != errcode.InvalidParam {
		t.Fatalf("got %v, want invalid_param outside PWM mode", err)
	}
}

func TestTimerGetValue(t *testing.T) {
	_, m, h := newTestHAL(t)
	if err := h.Timer.Init(&hal.TimerConfig{Mode: hal.TimerModeContinuous, Period: 60000}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	h.Timer.RegisterCallback(hal.TimerEventOverflow, 0, func(*hal.TimerEventInfo) {}, nil)
	if err := h.Timer.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Timer1Step(1234)
	var v uint32
	if err := h.Timer.GetValue(&v); err != nil {
		t.Fatalf("GetValue: %v", err)
	}
	if v != 1234 {
		t.Fatalf("counter = %d, want 1234", v)
	}
}

func TestTimerCompareCallbackChannelB(t *testing.T) {
	c, m, h := newTestHAL(t)
	if err := h.Timer.Init(&hal.TimerConfig{Mode: hal.TimerModeContinuous, Period: 1000}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := h.Timer.SetCompare(1, 250); err != nil {
		t.Fatalf("SetCompare: %v", err)
	}
	if got := c.OCR1B.Get(); got != 250 {
		t.Fatalf("OCR1B = %d, want 250", got)
	}
	var got *hal.TimerEventInfo
	h.Timer.RegisterCallback(hal.TimerEventCompare, 1, func(ev *hal.TimerEventInfo) { got = ev }, nil)
	m.Timer1Compare(1)
	if got == nil || got.Event != hal.TimerEventCompare || got.Value != 250 {
		t.Fatalf("compare event = %+v", got)
	}
}
