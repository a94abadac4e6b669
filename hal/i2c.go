package hal

// I2CAddrMode selects 7- or 10-bit addressing. 10-bit is a declared
// capability that current platforms reject with NotSupported rather than
// mis-encode.
type I2CAddrMode uint8

const (
	I2CAddr7Bit I2CAddrMode = iota
	I2CAddr10Bit
)

// I2CSpeed is the bus speed class.
type I2CSpeed uint8

const (
	I2CSpeedStandard I2CSpeed = iota // 100 kHz
	I2CSpeedFast                     // 400 kHz
	I2CSpeedFastPlus                 // 1 MHz
)

// I2CConfig describes the master setup. A non-zero ClockHz overrides the
// speed class.
type I2CConfig struct {
	AddrMode  I2CAddrMode
	Speed     I2CSpeed
	ClockHz   uint32
	DutyCycle bool // true for 16/9, false for 2
}

// I2CTransferEvent reports a completed master transaction. It fires once,
// synchronously, after STOP.
type I2CTransferEvent struct {
	Address  uint16
	TxData   []byte
	RxData   []byte
	Size     int
	UserData any
}

type I2CTransferHandler func(ev *I2CTransferEvent)

// Reserved 7-bit address ranges excluded from Scan.
const (
	I2CScanFirst = 0x08
	I2CScanLast  = 0x77
)

// I2C is a master-mode two-wire bus. Every master operation is the phase
// sequence START, ADDRESS(+R/W), DATA..., optional RESTART+ADDRESS+DATA,
// STOP; a hardware status code that mismatches the expected value for its
// phase aborts the transaction with Error, after STOP has been issued, so
// the bus is never left mid-transaction.
type I2C interface {
	Init(cfg *I2CConfig) error
	Deinit() error

	MasterTransmit(address uint16, data []byte, timeoutMS uint32) error
	MasterReceive(address uint16, buf []byte, timeoutMS uint32) error
	// MasterTransmitReceive writes then reads within one transaction using
	// a repeated start.
	MasterTransmitReceive(address uint16, tx, rx []byte, timeoutMS uint32) error
	IsBusy(busy *bool) error

	// Scan sweeps the 7-bit space excluding reserved ranges, recording
	// addresses that acknowledge a write-address phase.
	Scan(found []uint16) (int, error)

	RegisterCallback(handler I2CTransferHandler, userData any) error
	UnregisterCallback() error
}
