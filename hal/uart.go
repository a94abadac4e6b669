package hal

// UARTParity selects the parity mode of the frame format.
type UARTParity uint8

const (
	UARTParityNone UARTParity = iota
	UARTParityEven
	UARTParityOdd
)

// UARTStopBits selects one or two stop bits.
type UARTStopBits uint8

const (
	UARTStopBits1 UARTStopBits = iota
	UARTStopBits2
)

// UARTDataBits selects the word length.
type UARTDataBits uint8

const (
	UARTDataBits5 UARTDataBits = iota
	UARTDataBits6
	UARTDataBits7
	UARTDataBits8
	UARTDataBits9
)

// UARTConfig describes the desired line settings. The driver derives its
// divisor from Baudrate and the platform clock at Init.
type UARTConfig struct {
	Baudrate    uint32
	Parity      UARTParity
	StopBits    UARTStopBits
	DataBits    UARTDataBits
	FlowControl bool
}

// UARTRxEvent is delivered from the receive-complete interrupt. Data
// references the byte just buffered; it is valid only for the duration of
// the callback.
type UARTRxEvent struct {
	Data     []byte
	UserData any
}

// UARTTxEvent is delivered when the transmit shifter drains.
type UARTTxEvent struct {
	UserData any
}

// Handlers run in interrupt context: bounded work only, no blocking calls.
type (
	UARTRxHandler func(ev *UARTRxEvent)
	UARTTxHandler func(ev *UARTTxEvent)
)

// UART is a byte-wise polled transmit/receive port with an independent
// interrupt-driven receive path.
//
// Transmit and Receive poll the hardware ready flag per byte; timeoutMS
// bounds the whole call (0 blocks indefinitely). The interrupt path appends
// each received byte to a small fixed ring buffer, dropping on overflow,
// and invokes the registered receive callback with a reference to that one
// byte. The two callback registrations are independent.
type UART interface {
	Init(cfg *UARTConfig) error
	Deinit() error

	Transmit(data []byte, timeoutMS uint32) error
	Receive(buf []byte, timeoutMS uint32) error
	IsTxReady(ready *bool) error
	IsRxReady(ready *bool) error

	RegisterRxCallback(handler UARTRxHandler, userData any) error
	UnregisterRxCallback() error
	RegisterTxCallback(handler UARTTxHandler, userData any) error
	UnregisterTxCallback() error

	// RxOverruns reports how many interrupt-received bytes were dropped
	// because the ring buffer was full.
	RxOverruns() uint32
}
