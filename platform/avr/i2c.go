package avr

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
)

// i2cDriver runs the TWI block as a polled master. Each bus phase writes
// TWCR, waits for TWINT, then checks the status field against the expected
// code for that phase. A mismatch aborts the transaction, but STOP is
// issued first so a misbehaving slave never leaves SDA held.
type i2cDriver struct {
	chip *Chip
	now  func() uint32

	handler  hal.I2CTransferHandler
	userData any

	initialized bool
}

func newI2C(c *Chip, now func() uint32) *i2cDriver {
	return &i2cDriver{chip: c, now: now}
}

func (d *i2cDriver) Init(cfg *hal.I2CConfig) error {
	if cfg == nil {
		return errcode.InvalidParam
	}
	if cfg.AddrMode == hal.I2CAddr10Bit {
		return errcode.NotSupported
	}

	clock := cfg.ClockHz
	if clock == 0 {
		switch cfg.Speed {
		case hal.I2CSpeedStandard:
			clock = 100_000
		case hal.I2CSpeedFast:
			clock = 400_000
		case hal.I2CSpeedFastPlus:
			return errcode.NotSupported
		default:
			return errcode.InvalidParam
		}
	}
	// SCL = F_CPU / (16 + 2*TWBR*prescaler), prescaler fixed at 1.
	if clock == 0 || clock > CPUHz/16 {
		return errcode.InvalidParam
	}
	twbr := (CPUHz/clock - 16) / 2
	if twbr > 0xFF {
		return errcode.InvalidParam
	}

	c := d.chip
	c.TWSR.Set(c.TWSR.Get() & TWStatusMask) // prescaler bits = 0
	c.TWBR.Set(uint8(twbr))
	c.TWCR.Set(TWEN)
	d.initialized = true
	return nil
}

func (d *i2cDriver) Deinit() error {
	d.chip.TWCR.Set(0)
	d.handler = nil
	d.userData = nil
	d.initialized = false
	return nil
}

func (d *i2cDriver) status() uint8 {
	return d.chip.TWSR.Get() & TWStatusMask
}

// step writes a control value, waits for TWINT, and validates the
// resulting status code.
func (d *i2cDriver) step(control, want uint8, timeoutMS uint32) error {
	c := d.chip
	c.TWCR.Set(control | TWINT | TWEN)
	if err := waitBits(c, &c.TWCR, TWINT, d.now, timeoutMS); err != nil {
		return err
	}
	if d.status() != want {
		return errcode.Error
	}
	return nil
}

func (d *i2cDriver) start(repeated bool, timeoutMS uint32) error {
	want := uint8(TWStartSent)
	if repeated {
		want = TWRestartSent
	}
	return d.step(TWSTA, want, timeoutMS)
}

func (d *i2cDriver) stop() {
	c := d.chip
	c.TWCR.Set(TWSTO | TWINT | TWEN)
}

func (d *i2cDriver) sendAddr(address uint16, read bool, timeoutMS uint32) error {
	sla := uint8(address) << 1
	want := uint8(TWSlaWAck)
	if read {
		sla |= 1
		want = TWSlaRAck
	}
	d.chip.TWDR.Set(sla)
	return d.step(0, want, timeoutMS)
}

func (d *i2cDriver) writeBytes(data []byte, timeoutMS uint32) error {
	for _, b := range data {
		d.chip.TWDR.Set(b)
		if err := d.step(0, TWDataSentAck, timeoutMS); err != nil {
			return err
		}
	}
	return nil
}

func (d *i2cDriver) readBytes(buf []byte, timeoutMS uint32) error {
	for i := range buf {
		// NACK the final byte so the slave releases the bus.
		control, want := uint8(TWEA), uint8(TWDataReceivedAck)
		if i == len(buf)-1 {
			control, want = 0, TWDataReceivedNack
		}
		if err := d.step(control, want, timeoutMS); err != nil {
			return err
		}
		buf[i] = d.chip.TWDR.Get()
	}
	return nil
}

func (d *i2cDriver) checkAddr(address uint16) error {
	if address < hal.I2CScanFirst || address > hal.I2CScanLast {
		return errcode.InvalidParam
	}
	return nil
}

func (d *i2cDriver) transact(address uint16, fn func() error, timeoutMS uint32) error {
	if !d.initialized {
		return errcode.Error
	}
	if err := d.checkAddr(address); err != nil {
		return err
	}
	if err := d.start(false, timeoutMS); err != nil {
		return err
	}
	if err := fn(); err != nil {
		d.stop()
		return err
	}
	d.stop()
	return nil
}

func (d *i2cDriver) MasterTransmit(address uint16, data []byte, timeoutMS uint32) error {
	if len(data) == 0 {
		return errcode.InvalidParam
	}
	err := d.transact(address, func() error {
		if err := d.sendAddr(address, false, timeoutMS); err != nil {
			return err
		}
		return d.writeBytes(data, timeoutMS)
	}, timeoutMS)
	if err != nil {
		return err
	}
	d.fire(address, data, nil, len(data))
	return nil
}

func (d *i2cDriver) MasterReceive(address uint16, buf []byte, timeoutMS uint32) error {
	if len(buf) == 0 {
		return errcode.InvalidParam
	}
	err := d.transact(address, func() error {
		if err := d.sendAddr(address, true, timeoutMS); err != nil {
			return err
		}
		return d.readBytes(buf, timeoutMS)
	}, timeoutMS)
	if err != nil {
		return err
	}
	d.fire(address, nil, buf, len(buf))
	return nil
}

func (d *i2cDriver) MasterTransmitReceive(address uint16, tx, rx []byte, timeoutMS uint32) error {
	if len(tx) == 0 || len(rx) == 0 {
		return errcode.InvalidParam
	}
	err := d.transact(address, func() error {
		if err := d.sendAddr(address, false, timeoutMS); err != nil {
			return err
		}
		if err := d.writeBytes(tx, timeoutMS); err != nil {
			return err
		}
		if err := d.start(true, timeoutMS); err != nil {
			return err
		}
		if err := d.sendAddr(address, true, timeoutMS); err != nil {
			return err
		}
		return d.readBytes(rx, timeoutMS)
	}, timeoutMS)
	if err != nil {
		return err
	}
	d.fire(address, tx, rx, len(tx)+len(rx))
	return nil
}

func (d *i2cDriver) IsBusy(busy *bool) error {
	if busy == nil {
		return errcode.InvalidParam
	}
	// TWSTO reads back until the stop condition has gone out.
	*busy = d.chip.TWCR.HasBits(TWSTO)
	return nil
}

// Scan probes every non-reserved 7-bit address with a bare START,
// SLA+W, STOP sequence and records the ones that acknowledge.
func (d *i2cDriver) Scan(found []uint16) (int, error) {
	if found == nil {
		return 0, errcode.InvalidParam
	}
	if !d.initialized {
		return 0, errcode.Error
	}
	const probeTimeout = 10 // ms per address
	n := 0
	for addr := uint16(hal.I2CScanFirst); addr <= hal.I2CScanLast; addr++ {
		if err := d.start(false, probeTimeout); err != nil {
			d.stop()
			continue
		}
		if d.sendAddr(addr, false, probeTimeout) == nil {
			if n < len(found) {
				found[n] = addr
			}
			n++
		}
		d.stop()
	}
	if n > len(found) {
		return len(found), errcode.Error
	}
	return n, nil
}

func (d *i2cDriver) RegisterCallback(handler hal.I2CTransferHandler, userData any) error {
	if handler == nil {
		return errcode.InvalidParam
	}
	d.handler = handler
	d.userData = userData
	return nil
}

func (d *i2cDriver) UnregisterCallback() error {
	d.handler = nil
	d.userData = nil
	return nil
}

func (d *i2cDriver) fire(address uint16, tx, rx []byte, size int) {
	if d.handler == nil {
		return
	}
	ev := hal.I2CTransferEvent{Address: address, TxData: tx, RxData: rx, Size: size, UserData: d.userData}
	d.handler(&ev)
}
