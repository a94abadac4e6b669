package sim

import "eerhal-go/platform/avr"

// The USART model has an instantaneous shifter: any byte written to UDR is
// captured and the data-register-empty flag stays asserted.

func (m *Machine) uartWrite(b uint8) {
	c := m.chip
	m.uartTx = append(m.uartTx, b)
	c.UCSRA.PokeBits(avr.UDRE0 | avr.TXC0)
	if c.UCSRB.HasBits(avr.TXCIE0) {
		c.IRQ.Raise(avr.VectUSARTTx)
	}
}

// uartControl keeps UDRE0 asserted across driver writes to UCSRA, which on
// hardware is a read-only status bit.
func (m *Machine) uartControl(uint8) {
	m.chip.UCSRA.PokeBits(avr.UDRE0)
}

// UARTFeed delivers bytes as if received on the line, one receive-complete
// interrupt per byte.
func (m *Machine) UARTFeed(data ...byte) {
	c := m.chip
	for _, b := range data {
		c.UDR.Poke(b)
		c.UCSRA.PokeBits(avr.RXC0)
		if c.UCSRB.HasBits(avr.RXCIE0) {
			c.IRQ.Raise(avr.VectUSARTRx)
		}
	}
}

// UARTTransmitted returns every byte the driver has sent so far.
func (m *Machine) UARTTransmitted() []byte { return m.uartTx }
