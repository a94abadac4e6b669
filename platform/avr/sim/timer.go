package sim

import "eerhal-go/platform/avr"

// Timer1 is not modeled cycle by cycle; tests advance it explicitly.

// Timer1Step advances TCNT1 by ticks, wrapping at the ICR1 top and raising
// the overflow vector at each wrap while the timer is clocked and the
// interrupt armed.
func (m *Machine) Timer1Step(ticks uint32) {
	c := m.chip
	if c.TCCR1B.Get()&(avr.CS12|avr.CS11|avr.CS10) == 0 {
		return
	}
	top := uint32(c.ICR1.Get())
	if top == 0 {
		top = 0xFFFF
	}
	cnt := uint32(c.TCNT1.Get())
	for ticks > 0 {
		if cnt >= top {
			cnt = 0
			c.TCNT1.Poke(0)
			if c.TIMSK1.HasBits(avr.TOIE1) {
				c.IRQ.Raise(avr.VectTimer1Ovf)
			}
			if c.TCCR1B.Get()&(avr.CS12|avr.CS11|avr.CS10) == 0 {
				return // one-shot stopped itself in the ISR
			}
			continue
		}
		step := ticks
		if remaining := top - cnt; step > remaining {
			step = remaining
		}
		cnt += step
		ticks -= step
	}
	c.TCNT1.Poke(uint16(cnt))
}

// Timer1Compare raises the compare vector for channel 0 or 1 if armed.
func (m *Machine) Timer1Compare(channel uint8) {
	c := m.chip
	if channel == 0 && c.TIMSK1.HasBits(avr.OCIE1A) {
		c.IRQ.Raise(avr.VectTimer1CompA)
	}
	if channel == 1 && c.TIMSK1.HasBits(avr.OCIE1B) {
		c.IRQ.Raise(avr.VectTimer1CompB)
	}
}
