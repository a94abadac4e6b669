package rv32

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
)

// pwmScale divides the 16 MHz core clock down to 1 MHz, one tick per
// microsecond.
const pwmScale = 4

// timerDriver runs PWM0. cmp0 is the period top; cmp1 and cmp2 are the
// two exposed compare/duty channels. The comparator pending bits in
// pwmcfg identify the source when the shared interrupt fires.
type timerDriver struct {
	chip *Chip

	mode    hal.TimerMode
	period  uint32
	running bool

	overflow timerSlot
	compare  [2]timerSlot

	initialized bool
}

type timerSlot struct {
	handler  hal.TimerEventHandler
	userData any
}

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
	c.PWM0.Cfg.Set(pwmScale | PWMZeroCmp)
	c.PWM0.Count.Set(0)
	if cfg.Period != 0 {
		c.PWM0.Cmp0.Set(cfg.Period)
	}
	t.mode = cfg.Mode
	t.period = cfg.Period

	c.IRQ.Handle(VectPWM0, t.isr)
	c.IRQ.Enable()
	t.initialized = true
	return nil
}

func (t *timerDriver) Deinit() error {
	c := t.chip
	c.PWM0.Cfg.Set(0)
	c.IRQ.Handle(VectPWM0, nil)
	t.overflow = timerSlot{}
	t.compare[0] = timerSlot{}
	t.compare[1] = timerSlot{}
	t.running = false
	t.initialized = false
	return nil
}

func (t *timerDriver) Start() error {
	if !t.initialized {
		return errcode.Error
	}
	c := t.chip
	c.PWM0.Count.Set(0)
	en := uint32(PWMEnAlways)
	if t.mode == hal.TimerModeOneShot {
		en = PWMEnOneShot
	}
	c.PWM0.Cfg.Set(c.PWM0.Cfg.Get()&^uint32(PWMEnAlways|PWMEnOneShot) | en)
	t.running = true
	return nil
}

func (t *timerDriver) Stop() error {
	if !t.initialized {
		return errcode.Error
	}
	t.chip.PWM0.Cfg.ClearBits(PWMEnAlways | PWMEnOneShot)
	t.running = false
	return nil
}

// SetPeriod rewrites cmp0. Outside PWM mode nothing observable happens
// until an overflow callback is registered; the call still succeeds.
func (t *timerDriver) SetPeriod(period uint32) error {
	if !t.initialized {
		return errcode.Error
	}
	if period == 0 || period > 0xFFFF {
		return errcode.InvalidParam
	}
	t.chip.PWM0.Cmp0.Set(period)
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
	*value = t.chip.PWM0.Count.Get()
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
		t.chip.PWM0.Cmp1.Set(value)
	} else {
		t.chip.PWM0.Cmp2.Set(value)
	}
	return nil
}

func (t *timerDriver) SetPWMDutyCycle(channel uint8, dutyCycle uint8) error {
	if channel > 1 || dutyCycle > 100 || t.mode != hal.TimerModePWM {
		return errcode.InvalidParam
	}
	if !t.initialized {
		return errcode.Error
	}
	top := t.chip.PWM0.Cmp0.Get()
	return t.SetCompare(channel, top*uint32(dutyCycle)/100)
}

func (t *timerDriver) UsToTicks(us uint32) uint32 { return us }

func (t *timerDriver) TicksToUs(ticks uint32) uint32 { return ticks }

func (t *timerDriver) RegisterCallback(event hal.TimerEvent, channel uint8, handler hal.TimerEventHandler, userData any) error {
	if handler == nil {
		return errcode.InvalidParam
	}
	slot, err := t.slot(event, channel)
	if err != nil {
		return err
	}
	*slot = timerSlot{handler: handler, userData: userData}
	return nil
}

func (t *timerDriver) UnregisterCallback(event hal.TimerEvent, channel uint8) error {
	slot, err := t.slot(event, channel)
	if err != nil {
		return err
	}
	*slot = timerSlot{}
	return nil
}

func (t *timerDriver) slot(event hal.TimerEvent, channel uint8) (*timerSlot, error) {
	switch event {
	case hal.TimerEventOverflow:
		return &t.overflow, nil
	case hal.TimerEventCompare:
		if channel > 1 {
			return nil, errcode.InvalidParam
		}
		return &t.compare[channel], nil
	case hal.TimerEventCapture:
		// No input capture on this block.
		return nil, errcode.NotSupported
	default:
		return nil, errcode.InvalidParam
	}
}

// isr demultiplexes the shared PWM interrupt by comparator pending bit:
// cmp0 is the period rollover, cmp1/cmp2 the compare channels.
func (t *timerDriver) isr() {
	c := t.chip
	cfg := c.PWM0.Cfg.Get()
	if cfg&PWMCmpIP0 != 0 {
		if t.mode == hal.TimerModeOneShot {
			c.PWM0.Cfg.ClearBits(PWMEnAlways | PWMEnOneShot)
			t.running = false
		}
		t.dispatch(&t.overflow, hal.TimerEventOverflow, c.PWM0.Cmp0.Get())
	}
	if cfg&(PWMCmpIP0<<1) != 0 {
		if t.mode == hal.TimerModeOneShot {
			c.PWM0.Cfg.ClearBits(PWMEnAlways | PWMEnOneShot)
			t.running = false
		}
		t.dispatch(&t.compare[0], hal.TimerEventCompare, c.PWM0.Cmp1.Get())
	}
	if cfg&(PWMCmpIP0<<2) != 0 {
		t.dispatch(&t.compare[1], hal.TimerEventCompare, c.PWM0.Cmp2.Get())
	}
}

func (t *timerDriver) dispatch(slot *timerSlot, event hal.TimerEvent, value uint32) {
	if slot.handler == nil {
		return
	}
	ev := hal.TimerEventInfo{Event: event, Value: value, UserData: slot.userData}
	slot.handler(&ev)
}
