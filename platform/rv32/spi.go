package rv32

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
)

// spiDriver runs SPI1 in master mode with 8-bit frames. Each byte goes
// out through txdata; the reply is polled out of rxdata, whose write side
// pops the FIFO.
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

	// sckdiv divides the core clock by 2*(div+1).
	var presc uint32
	switch cfg.Prescaler {
	case hal.SPIPrescaler2:
		presc = 2
	case hal.SPIPrescaler4:
		presc = 4
	case hal.SPIPrescaler8:
		presc = 8
	case hal.SPIPrescaler16:
		presc = 16
	case hal.SPIPrescaler32:
		presc = 32
	case hal.SPIPrescaler64:
		presc = 64
	case hal.SPIPrescaler128:
		presc = 128
	default:
		return errcode.InvalidParam
	}

	var mode uint32
	switch cfg.Mode {
	case hal.SPIMode0:
	case hal.SPIMode1:
		mode = SPISckPha
	case hal.SPIMode2:
		mode = SPISckPol
	case hal.SPIMode3:
		mode = SPISckPol | SPISckPha
	default:
		return errcode.InvalidParam
	}

	fmt := uint32(SPIFmtLen8)
	if cfg.BitOrder == hal.SPIBitOrderLSB {
		fmt |= SPIFmtEndian
	}

	c := s.chip
	c.SPI1.SckDiv.Set(presc/2 - 1)
	c.SPI1.SckMode.Set(mode)
	c.SPI1.Fmt.Set(fmt)
	s.initialized = true
	return nil
}

func (s *spiDriver) Deinit() error {
	s.chip.SPI1.SckMode.Set(0)
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
		if err := waitClear(c, &c.SPI1.TxData, SPITxFull, s.now, timeoutMS); err != nil {
			return err
		}
		c.SPI1.TxData.Set(uint32(out))
		if err := waitClear(c, &c.SPI1.RxData, SPIRxEmpty, s.now, timeoutMS); err != nil {
			return err
		}
		in := byte(c.SPI1.RxData.Get())
		c.SPI1.RxData.Set(0) // pop
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
	*ready = s.initialized && !s.chip.SPI1.TxData.HasBits(SPITxFull)
	return nil
}

func (s *spiDriver) ChipSelect(pin hal.Pin, state bool) error {
	p, ok := pin.(Pin)
	if !ok || p >= NumPins {
		return errcode.InvalidParam
	}
	mask := uint32(1) << p
	g := &s.chip.GPIO
	g.OutputEn.SetBits(mask)
	if state {
		g.OutputVal.ClearBits(mask)
	} else {
		g.OutputVal.SetBits(mask)
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
