package sim

import "eerhal-go/platform/rv32"

// The SPI model completes one shift per txdata write: the outgoing byte
// is captured, the queued response (0xFF once drained) appears in rxdata,
// and the pop write returns rxdata to empty.

func (m *Machine) spiTxWrite(v uint32) {
	c := m.chip
	if v&rv32.SPITxFull != 0 {
		return
	}
	m.spiTx = append(m.spiTx, byte(v))
	c.SPI1.TxData.Poke(0)

	in := byte(0xFF)
	if len(m.spiResp) > 0 {
		in = m.spiResp[0]
		m.spiResp = m.spiResp[1:]
	}
	c.SPI1.RxData.Poke(uint32(in))
}

func (m *Machine) spiRxPop(uint32) {
	m.chip.SPI1.RxData.Poke(rv32.SPIRxEmpty)
}

// SPIQueueResponse appends bytes the modeled slave will clock back.
func (m *Machine) SPIQueueResponse(data ...byte) {
	m.spiResp = append(m.spiResp, data...)
}

// SPITransmitted returns every byte shifted out so far.
func (m *Machine) SPITransmitted() []byte { return m.spiTx }
