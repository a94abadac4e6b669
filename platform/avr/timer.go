package avr

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
)

// timerDriver runs Timer1. The prescaler is fixed at 8, which at 16 MHz
// clocks the counter at 2 MHz: two ticks per microsecond, so the unit
// conversions are a shift. PWM uses fast PWM with ICR1 as top (mode 14)
// on OC1A/OC1B; non-PWM modes count to ICR1 and fire the overflow vector.
type timerDriver struct {
	chip *Chip

	mode    hal.TimerMode
	period  uint32
	running bool

	overflow timerSlot
	compare  [2]timerSlot
	capture  timerSlot

	initialized bool
}

type timerSlot struct {
	handler  hal.TimerEventHandler
	userData any
}

const timerPrescaler = 8

func newTimer(c *Chip) *timerDriver { return &timerDriver{chip: c} }

func (t *timerDriver) Init(cfg *hal.TimerConfig) error {
	if cfg == nil || cfg.Channel > 1 {
		return errcode.InvalidParam
	}
	switch cfg.Mode {
	case hal.TimerModeOneShot, hal.TimerModeContinuous:
	case hal.TimerModePWM:
		if cfg.Period == 0 {
			return errcode.InvalidParam
		}
	default:
		return errcode.InvalidParam
	}
	if cfg.Period > 0xFFFF {
		return errcode.InvalidParam
	}

	c := t.chip
	c.TCCR1A.Set(0)
	c.TCCR1B.Set(0)
	c.TIMSK1.Set(0)
	c.TCNT1.Set(0)

	t.mode = cfg.Mode
	t.period = cfg.Period

	switch cfg.Mode {
	case hal.TimerModePWM:
		// Fast PWM, ICR1 top, non-inverting on both compare outputs.
		c.ICR1.Set(uint16(cfg.Period))
		c.TCCR1A.Set(COM1A1 | COM1B1 | WGM11)
		c.TCCR1B.Set(WGM13 | WGM12)
		if cfg.Channel == 0 {
			c.PortB.DDR.SetBits(c.PB(1).mask()) // OC1A
		} else {
			c.PortB.DDR.SetBits(c.PB(2).mask()) // OC1B
		}
	default:
		// CTC-style: fast PWM waveform bits stay clear, ICR1 unused
		// until SetPeriod programs it.
		if cfg.Period != 0 {
			c.ICR1.Set(uint16(cfg.Period))
			c.TCCR1B.Set(WGM13 | WGM12)
			c.TCCR1A.Set(WGM11)
		}
	}

	c.IRQ.Handle(VectTimer1Ovf, t.overflowISR)
	c.IRQ.Handle(VectTimer1CompA, func() { t.compareISR(0) })
	c.IRQ.Handle(VectTimer1CompB, func() { t.compareISR(1) })
	c.IRQ.Handle(VectTimer1Capt, t.captureISR)
	c.IRQ.Enable()
	t.initialized = true
	return nil
}

func (t *timerDriver) Deinit() error {
	c := t.chip
	c.TCCR1A.Set(0)
	c.TCCR1B.Set(0)
	c.TIMSK1.Set(0)
	c.IRQ.Handle(VectTimer1Ovf, nil)
	c.IRQ.Handle(VectTimer1CompA, nil)
	c.IRQ.Handle(VectTimer1CompB, nil)
	c.IRQ.Handle(VectTimer1Capt, nil)
	t.overflow = timerSlot{}
	t.compare[0] = timerSlot{}
	t.compare[1] = timerSlot{}
	t.capture = timerSlot{}
	t.running = false
	t.initialized = false
	return nil
}

func (t *timerDriver) Start() error {
	if !t.initialized {
		return errcode.Error
	}
	c := t.chip
	c.TCNT1.Set(0)
	c.TCCR1B.Set(c.TCCR1B.Get()&^cs1Mask | CS11) // prescaler 8
	t.running = true
	return nil
}

func (t *timerDriver) Stop() error {
	if !t.initialized {
		return errcode.Error
	}
	c := t.chip
	c.TCCR1B.ClearBits(cs1Mask)
	t.running = false
	return nil
}

// SetPeriod rewrites the counter top. Outside PWM mode the overflow
// interrupt is what makes the period observable: without a registered
// overflow callback the call succeeds but nothing fires, a documented
// quirk callers must respect.
func (t *timerDriver) SetPeriod(period uint32) error {
	if !t.initialized {
		return errcode.Error
	}
	if period == 0 || period > 0xFFFF {
		return errcode.InvalidParam
	}
	c := t.chip
	c.ICR1.Set(uint16(period))
	if t.mode != hal.TimerModePWM {
		c.TCCR1B.SetBits(WGM13 | WGM12)
		c.TCCR1A.SetBits(WGM11)
	}
	t.period = period
	return nil
}

func (t *timerDriver) GetValue(value *uint32) error {
	if value == nil {
		return errcode.InvalidParam
	}
	if !t.initialized {
		return errcode.Error
	}
	var v uint16
	t.chip.IRQ.Critical(func() { v = t.chip.TCNT1.Get() })
	*value = uint32(v)
	return nil
}

func (t *timerDriver) SetCompare(channel uint8, value uint32) error {
	if channel > 1 || value > 0xFFFF {
		return errcode.InvalidParam
	}
	if !t.initialized {
		return errcode.Error
	}
	if channel == 0 {
		t.chip.OCR1A.Set(uint16(value))
	} else {
		t.chip.OCR1B.Set(uint16(value))
	}
	return nil
}

func (t *timerDriver) SetPWMDutyCycle(channel uint8, dutyCycle uint8) error {
	// Calling outside PWM mode is a caller error, same class as a duty
	// above 100.
	if channel > 1 || dutyCycle > 100 || t.mode != hal.TimerModePWM {
		return errcode.InvalidParam
	}
	if !t.initialized {
		return errcode.Error
	}
	top := uint32(t.chip.ICR1.Get())
	value := top * uint32(dutyCycle) / 100
	return t.SetCompare(channel, value)
}

func (t *timerDriver) UsToTicks(us uint32) uint32 {
	return us * (CPUHz / timerPrescaler / 1_000_000)
}

func (t *timerDriver) TicksToUs(ticks uint32) uint32 {
	return ticks / (CPUHz / timerPrescaler / 1_000_000)
}

func (t *timerDriver) RegisterCallback(event hal.TimerEvent, channel uint8, handler hal.TimerEventHandler, userData any) error {
	if handler == nil {
		return errcode.InvalidParam
	}
	slot, irqBit, err := t.slot(event, channel)
	if err != nil {
		return err
	}
	*slot = timerSlot{handler: handler, userData: userData}
	t.chip.TIMSK1.SetBits(irqBit)
	return nil
}

func (t *timerDriver) UnregisterCallback(event hal.TimerEvent, channel uint8) error {
	slot, irqBit, err := t.slot(event, channel)
	if err != nil {
		return err
	}
	*slot = timerSlot{}
	t.chip.TIMSK1.ClearBits(irqBit)
	return nil
}

func (t *timerDriver) slot(event hal.TimerEvent, channel uint8) (*timerSlot, uint8, error) {
	switch event {
	case hal.TimerEventOverflow:
		return &t.overflow, TOIE1, nil
	case hal.TimerEventCompare:
		if channel > 1 {
			return nil, 0, errcode.InvalidParam
		}
		bit := uint8(OCIE1A)
		if channel == 1 {
			bit = OCIE1B
		}
		return &t.compare[channel], bit, nil
	case hal.TimerEventCapture:
		return &t.capture, ICIE1, nil
	default:
		return nil, 0, errcode.InvalidParam
	}
}

func (t *timerDriver) overflowISR() {
	if t.mode == hal.TimerModeOneShot {
		// One-shot stops itself at the period boundary.
		t.chip.TCCR1B.ClearBits(cs1Mask)
		t.running = false
	}
	t.dispatch(&t.overflow, hal.TimerEventOverflow, uint32(t.chip.ICR1.Get()))
}

func (t *timerDriver) compareISR(channel uint8) {
	v := t.chip.OCR1A.Get()
	if channel == 1 {
		v = t.chip.OCR1B.Get()
	}
	// A one-shot armed on compare A stops at the match, same as the
	// overflow path.
	if channel == 0 && t.mode == hal.TimerModeOneShot {
		t.chip.TCCR1B.ClearBits(cs1Mask)
		t.running = false
	}
	t.dispatch(&t.compare[channel], hal.TimerEventCompare, uint32(v))
}

func (t *timerDriver) captureISR() {
	t.dispatch(&t.capture, hal.TimerEventCapture, uint32(t.chip.TCNT1.Get()))
}

func (t *timerDriver) dispatch(slot *timerSlot, event hal.TimerEvent, value uint32) {
	if slot.handler == nil {
		return
	}
	ev := hal.TimerEventInfo{Event: event, Value: value, UserData: slot.userData}
	slot.handler(&ev)
}
