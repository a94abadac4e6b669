package sim

import (
	"eerhal-go/platform/avr"
	"eerhal-go/x/mathx"
)

// The ADC model converts instantly: starting a conversion latches the
// value configured for the selected channel and clears ADSC before the
// driver ever polls it.

func (m *Machine) adcControl(v uint8) {
	c := m.chip
	if v&avr.ADEN == 0 || v&avr.ADSC == 0 {
		return
	}
	channel := c.ADMUX.Get() & 0x07
	c.ADCW.Poke(m.adcValues[channel])
	c.ADCSRA.PokeClear(avr.ADSC)
	if v&avr.ADIE != 0 {
		c.IRQ.Raise(avr.VectADC)
	}
}

// ADCSetChannel fixes the raw sample a channel will produce, saturated at
// the 10-bit full scale.
func (m *Machine) ADCSetChannel(channel uint8, value uint16) {
	m.adcValues[channel&0x07] = mathx.Min(value, 0x3FF)
}
