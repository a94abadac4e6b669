package avr

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
	"eerhal-go/internal/ring"
	"eerhal-go/x/mathx"
)

// uartDriver runs USART0. Transmit is polled per byte on UDRE0; receive is
// interrupt driven into a fixed ring, with Receive draining the ring. A
// full ring drops the incoming byte and bumps the overrun counter rather
// than stalling the ISR.
type uartDriver struct {
	chip *Chip
	now  func() uint32

	rx       ring.Buffer
	overruns uint32

	rxHandler  hal.UARTRxHandler
	rxUserData any
	txHandler  hal.UARTTxHandler
	txUserData any

	initialized bool
}

func newUART(c *Chip, now func() uint32) *uartDriver {
	return &uartDriver{chip: c, now: now}
}

func (u *uartDriver) Init(cfg *hal.UARTConfig) error {
	if cfg == nil || cfg.Baudrate == 0 {
		return errcode.InvalidParam
	}
	if cfg.FlowControl {
		return errcode.NotSupported
	}

	var ucsrc uint8
	switch cfg.DataBits {
	case hal.UARTDataBits5:
		// UCSZ = 0
	case hal.UARTDataBits6:
		ucsrc |= UCSZ00
	case hal.UARTDataBits7:
		ucsrc |= UCSZ01
	case hal.UARTDataBits8:
		ucsrc |= UCSZ01 | UCSZ00
	case hal.UARTDataBits9:
		return errcode.NotSupported
	default:
		return errcode.InvalidParam
	}
	switch cfg.Parity {
	case hal.UARTParityNone:
	case hal.UARTParityEven:
		ucsrc |= UPM01
	case hal.UARTParityOdd:
		ucsrc |= UPM01 | UPM00
	default:
		return errcode.InvalidParam
	}
	switch cfg.StopBits {
	case hal.UARTStopBits1:
	case hal.UARTStopBits2:
		ucsrc |= USBS0
	default:
		return errcode.InvalidParam
	}

	c := u.chip
	// Double-speed divisor: rounds better at 115200 on a 16 MHz part.
	ubrr := mathx.RoundDiv(CPUHz, 8*cfg.Baudrate)
	if ubrr == 0 || ubrr-1 > 0xFFF {
		return errcode.InvalidParam
	}
	ubrr--

	c.UCSRA.Set(U2X0)
	c.UBRRH.Set(uint8(ubrr >> 8))
	c.UBRRL.Set(uint8(ubrr))
	c.UCSRC.Set(ucsrc)

	u.rx.Clear()
	u.overruns = 0
	c.IRQ.Handle(VectUSARTRx, u.rxISR)
	c.IRQ.Handle(VectUSARTTx, u.txISR)

	c.UCSRB.Set(RXEN0 | TXEN0 | RXCIE0)
	c.IRQ.Enable()
	u.initialized = true
	return nil
}

func (u *uartDriver) Deinit() error {
	c := u.chip
	c.UCSRB.Set(0)
	c.IRQ.Handle(VectUSARTRx, nil)
	c.IRQ.Handle(VectUSARTTx, nil)
	u.rx.Clear()
	u.rxHandler = nil
	u.txHandler = nil
	u.initialized = false
	return nil
}

func (u *uartDriver) Transmit(data []byte, timeoutMS uint32) error {
	if len(data) == 0 {
		return errcode.InvalidParam
	}
	if !u.initialized {
		return errcode.Error
	}
	c := u.chip
	for _, b := range data {
		if err := waitBits(c, &c.UCSRA, UDRE0, u.now, timeoutMS); err != nil {
			return err
		}
		c.UDR.Set(b)
	}
	return nil
}

func (u *uartDriver) Receive(buf []byte, timeoutMS uint32) error {
	if len(buf) == 0 {
		return errcode.InvalidParam
	}
	if !u.initialized {
		return errcode.Error
	}
	c := u.chip
	start := u.now()
	for i := range buf {
		for {
			if b, ok := u.rx.Get(); ok {
				buf[i] = b
				break
			}
			if timeoutMS != 0 && u.now()-start >= timeoutMS {
				return errcode.Timeout
			}
			c.idle()
		}
	}
	return nil
}

func (u *uartDriver) IsTxReady(ready *bool) error {
	if ready == nil {
		return errcode.InvalidParam
	}
	*ready = u.chip.UCSRA.HasBits(UDRE0)
	return nil
}

func (u *uartDriver) IsRxReady(ready *bool) error {
	if ready == nil {
		return errcode.InvalidParam
	}
	*ready = u.rx.Used() != 0
	return nil
}

func (u *uartDriver) RegisterRxCallback(handler hal.UARTRxHandler, userData any) error {
	if handler == nil {
		return errcode.InvalidParam
	}
	u.rxHandler = handler
	u.rxUserData = userData
	return nil
}

func (u *uartDriver) UnregisterRxCallback() error {
	u.rxHandler = nil
	u.rxUserData = nil
	return nil
}

func (u *uartDriver) RegisterTxCallback(handler hal.UARTTxHandler, userData any) error {
	if handler == nil {
		return errcode.InvalidParam
	}
	u.txHandler = handler
	u.txUserData = userData
	u.chip.UCSRB.SetBits(TXCIE0)
	return nil
}

func (u *uartDriver) UnregisterTxCallback() error {
	u.txHandler = nil
	u.txUserData = nil
	u.chip.UCSRB.ClearBits(TXCIE0)
	return nil
}

func (u *uartDriver) RxOverruns() uint32 { return u.overruns }

func (u *uartDriver) rxISR() {
	b := u.chip.UDR.Get()
	if !u.rx.Put(b) {
		u.overruns++
		return
	}
	if u.rxHandler != nil {
		scratch := [1]byte{b}
		ev := hal.UARTRxEvent{Data: scratch[:], UserData: u.rxUserData}
		u.rxHandler(&ev)
	}
}

func (u *uartDriver) txISR() {
	if u.txHandler != nil {
		ev := hal.UARTTxEvent{UserData: u.txUserData}
		u.txHandler(&ev)
	}
}
