package avr

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
)

// spiDriver runs the hardware SPI block in master mode. Each byte is
// shifted by writing SPDR and polling SPIF; the returned byte is whatever
// the slave clocked back. Slave mode and 16-bit words are not implemented.
type spiDriver struct {
	chip *Chip
	now  func() uint32

	handler  hal.SPITransferHandler
	userData any

	initialized bool
}

func newSPI(c *Chip, now func() uint32) *spiDriver {
	return &spiDriver{chip: c, now: now}
}

func (s *spiDriver) Init(cfg *hal.SPIConfig) error {
	if cfg == nil {
		return errcode.InvalidParam
	}
	if !cfg.Master || cfg.DataSize != hal.SPIDataSize8 {
		return errcode.NotSupported
	}

	var spcr uint8 = SPE | MSTR
	var spi2x uint8
	switch cfg.Prescaler {
	case hal.SPIPrescaler2:
		spi2x = SPI2X
	case hal.SPIPrescaler4:
	case hal.SPIPrescaler8:
		spcr |= SPR0
		spi2x = SPI2X
	case hal.SPIPrescaler16:
		spcr |= SPR0
	case hal.SPIPrescaler32:
		spcr |= SPR1
		spi2x = SPI2X
	case hal.SPIPrescaler64:
		spcr |= SPR1
	case hal.SPIPrescaler128:
		spcr |= SPR1 | SPR0
	default:
		return errcode.InvalidParam
	}
	switch cfg.Mode {
	case hal.SPIMode0:
	case hal.SPIMode1:
		spcr |= CPHA
	case hal.SPIMode2:
		spcr |= CPOL
	case hal.SPIMode3:
		spcr |= CPOL | CPHA
	default:
		return errcode.InvalidParam
	}
	if cfg.BitOrder == hal.SPIBitOrderLSB {
		spcr |= DORD
	}

	c := s.chip
	// SS must be an output before MSTR takes; a floating low SS would
	// knock the block back into slave mode.
	ss, mosi, sck := c.SS(), c.MOSI(), c.SCK()
	c.PortB.DDR.SetBits(ss.mask() | mosi.mask() | sck.mask())
	c.PortB.DDR.ClearBits(c.MISO().mask())
	c.PortB.PORT.SetBits(ss.mask())

	c.SPCR.Set(spcr)
	c.SPSR.Set(c.SPSR.Get()&^SPI2X | spi2x)
	s.initialized = true
	return nil
}

func (s *spiDriver) Deinit() error {
	s.chip.SPCR.Set(0)
	s.handler = nil
	s.userData = nil
	s.initialized = false
	return nil
}

func (s *spiDriver) Transfer(tx, rx []byte, timeoutMS uint32) error {
	n := len(tx)
	if n == 0 {
		n = len(rx)
	}
	if n == 0 || (len(tx) != 0 && len(rx) != 0 && len(tx) != len(rx)) {
		return errcode.InvalidParam
	}
	if !s.initialized {
		return errcode.Error
	}
	c := s.chip
	for i := 0; i < n; i++ {
		out := byte(0xFF)
		if tx != nil {
			out = tx[i]
		}
		c.SPDR.Set(out)
		if err := waitBits(c, &c.SPSR, SPIF, s.now, timeoutMS); err != nil {
			return err
		}
		in := c.SPDR.Get()
		if rx != nil {
			rx[i] = in
		}
	}
	if s.handler != nil {
		ev := hal.SPITransferEvent{TxData: tx, RxData: rx, Size: n, UserData: s.userData}
		s.handler(&ev)
	}
	return nil
}

func (s *spiDriver) Transmit(data []byte, timeoutMS uint32) error {
	return s.Transfer(data, nil, timeoutMS)
}

func (s *spiDriver) Receive(buf []byte, timeoutMS uint32) error {
	return s.Transfer(nil, buf, timeoutMS)
}

func (s *spiDriver) IsReady(ready *bool) error {
	if ready == nil {
		return errcode.InvalidParam
	}
	*ready = s.initialized && !s.chip.SPCR.HasBits(SPIE)
	return nil
}

func (s *spiDriver) ChipSelect(pin hal.Pin, state bool) error {
	p, ok := pin.(Pin)
	if !ok || p.port == nil {
		return errcode.InvalidParam
	}
	p.port.DDR.SetBits(p.mask())
	if state {
		p.port.PORT.ClearBits(p.mask())
	} else {
		p.port.PORT.SetBits(p.mask())
	}
	return nil
}

func (s *spiDriver) RegisterCallback(handler hal.SPITransferHandler, userData any) error {
	if handler == nil {
		return errcode.InvalidParam
	}
	s.handler = handler
	s.userData = userData
	return nil
}

func (s *spiDriver) UnregisterCallback() error {
	s.handler = nil
	s.userData = nil
	return nil
}
