package rv32

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
	"eerhal-go/internal/ring"
)

// uartDriver runs UART0. The block is fixed at 8N1, so any other frame
// format is rejected. Transmit polls the FIFO-full bit; receive is
// interrupt driven into a ring, one watermark interrupt per byte, with a
// write to rxdata popping the hardware FIFO.
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
	if cfg.DataBits != hal.UARTDataBits8 || cfg.Parity != hal.UARTParityNone ||
		cfg.StopBits != hal.UARTStopBits1 || cfg.FlowControl {
		return errcode.NotSupported
	}
	div := CPUHz/cfg.Baudrate - 1
	if div == 0 {
		return errcode.InvalidParam
	}

	c := u.chip
	c.UART0.Div.Set(div)
	c.UART0.TxCtrl.Set(UARTTxEn)
	c.UART0.RxCtrl.Set(UARTRxEn)
	u.rx.Clear()
	u.overruns = 0
	c.IRQ.Handle(VectUART0, u.rxISR)
	c.UART0.IE.Set(UARTIERxWM)
	c.IRQ.Enable()
	u.initialized = true
	return nil
}

func (u *uartDriver) Deinit() error {
	c := u.chip
	c.UART0.TxCtrl.Set(0)
	c.UART0.RxCtrl.Set(0)
	c.UART0.IE.Set(0)
	c.IRQ.Handle(VectUART0, nil)
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
		if err := waitClear(c, &c.UART0.TxData, UARTTxFull, u.now, timeoutMS); err != nil {
			return err
		}
		c.UART0.TxData.Set(uint32(b))
	}
	if u.txHandler != nil {
		ev := hal.UARTTxEvent{UserData: u.txUserData}
		u.txHandler(&ev)
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
	*ready = !u.chip.UART0.TxData.HasBits(UARTTxFull)
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
	return nil
}

func (u *uartDriver) UnregisterTxCallback() error {
	u.txHandler = nil
	u.txUserData = nil
	return nil
}

func (u *uartDriver) RxOverruns() uint32 { return u.overruns }

func (u *uartDriver) rxISR() {
	c := u.chip
	v := c.UART0.RxData.Get()
	if v&UARTRxEmpty != 0 {
		return
	}
	c.UART0.RxData.Set(0) // pop
	b := byte(v)
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
