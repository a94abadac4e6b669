package sim

import "eerhal-go/platform/rv32"

// PWM0 is not modeled cycle by cycle; tests advance the counter.

// PWMStep advances the PWM0 counter by ticks, wrapping at the cmp0 top
// and raising the block interrupt with the cmp0 pending bit at each wrap.
func (m *Machine) PWMStep(ticks uint32) {
	c := m.chip
	for ticks > 0 {
		cfg := c.PWM0.Cfg.Get()
		if cfg&(rv32.PWMEnAlways|rv32.PWMEnOneShot) == 0 {
			return
		}
		top := c.PWM0.Cmp0.Get()
		if top == 0 {
			top = 0xFFFF
		}
		cnt := c.PWM0.Count.Get()
		if cnt >= top {
			c.PWM0.Count.Poke(0)
			c.PWM0.Cfg.Poke(cfg | rv32.PWMCmpIP0)
			c.IRQ.Raise(rv32.VectPWM0)
			c.PWM0.Cfg.Poke(c.PWM0.Cfg.Get() &^ uint32(rv32.PWMCmpIP0))
			continue
		}
		step := ticks
		if remaining := top - cnt; step > remaining {
			step = remaining
		}
		c.PWM0.Count.Poke(cnt + step)
		ticks -= step
	}
}

// PWMCompare raises the block interrupt with the pending bit for compare
// channel 0 or 1.
func (m *Machine) PWMCompare(channel uint8) {
	c := m.chip
	bit := uint32(rv32.PWMCmpIP0) << (1 + channel)
	cfg := c.PWM0.Cfg.Get()
	c.PWM0.Cfg.Poke(cfg | bit)
	c.IRQ.Raise(rv32.VectPWM0)
	c.PWM0.Cfg.Poke(c.PWM0.Cfg.Get() &^ bit)
}
