package sim

import "eerhal-go/platform/rv32"

// The UART model has bottomless FIFOs: the transmit side never reads
// full, the receive side presents one queued byte at a time and refills
// on each pop.

func (m *Machine) uartTxWrite(v uint32) {
	c := m.chip
	if v&rv32.UARTTxFull != 0 || !c.UART0.TxCtrl.HasBits(rv32.UARTTxEn) {
		return
	}
	m.uartTx = append(m.uartTx, byte(v))
	c.UART0.TxData.Poke(0) // full stays clear
}

// uartRxPop services the FIFO-pop write: present the next queued byte or
// go empty.
func (m *Machine) uartRxPop(uint32) {
	m.uartPresent()
}

func (m *Machine) uartPresent() {
	c := m.chip
	if len(m.uartRx) == 0 {
		c.UART0.RxData.Poke(rv32.UARTRxEmpty)
		return
	}
	c.UART0.RxData.Poke(uint32(m.uartRx[0]))
	m.uartRx = m.uartRx[1:]
}

// UARTFeed queues bytes on the receive side, one watermark interrupt per
// byte while the receive interrupt is armed.
func (m *Machine) UARTFeed(data ...byte) {
	c := m.chip
	for _, b := range data {
		m.uartRx = append(m.uartRx, b)
		if c.UART0.RxData.HasBits(rv32.UARTRxEmpty) {
			m.uartPresent()
		}
		if c.UART0.IE.HasBits(rv32.UARTIERxWM) {
			c.IRQ.Raise(rv32.VectUART0)
		}
	}
}

// UARTTransmitted returns every byte sent so far.
func (m *Machine) UARTTransmitted() []byte { return m.uartTx }
