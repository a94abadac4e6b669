package sim

import "eerhal-go/platform/avr"

// The SPI model completes a shift per SPDR write: the outgoing byte is
// captured, the slave's reply (from the queued responses, 0xFF once the
// queue drains) lands in SPDR, and SPIF comes up before the store returns.

func (m *Machine) spiWrite(b uint8) {
	c := m.chip
	if !c.SPCR.HasBits(avr.SPE) {
		return
	}
	m.spiTx = append(m.spiTx, b)
	in := uint8(0xFF)
	if len(m.spiResp) > 0 {
		in = m.spiResp[0]
		m.spiResp = m.spiResp[1:]
	}
	c.SPDR.Poke(in)
	c.SPSR.PokeBits(avr.SPIF)
	if c.SPCR.HasBits(avr.SPIE) {
		c.IRQ.Raise(avr.VectSPI)
	}
}

// SPIQueueResponse appends bytes the modeled slave will clock back.
func (m *Machine) SPIQueueResponse(data ...byte) {
	m.spiResp = append(m.spiResp, data...)
}

// SPITransmitted returns every byte shifted out so far.
func (m *Machine) SPITransmitted() []byte { return m.spiTx }
