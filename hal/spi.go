package hal

// SPIMode is one of the four canonical CPOL/CPHA combinations.
type SPIMode uint8

const (
	SPIMode0 SPIMode = iota // CPOL=0 CPHA=0
	SPIMode1                // CPOL=0 CPHA=1
	SPIMode2                // CPOL=1 CPHA=0
	SPIMode3                // CPOL=1 CPHA=1
)

// SPIBitOrder selects which bit leaves the shift register first.
type SPIBitOrder uint8

const (
	SPIBitOrderMSB SPIBitOrder = iota
	SPIBitOrderLSB
)

// SPIDataSize selects the transfer word size.
type SPIDataSize uint8

const (
	SPIDataSize8 SPIDataSize = iota
	SPIDataSize16
)

// SPIPrescaler divides the peripheral clock to form SCK.
type SPIPrescaler uint8

const (
	SPIPrescaler2 SPIPrescaler = iota
	SPIPrescaler4
	SPIPrescaler8
	SPIPrescaler16
	SPIPrescaler32
	SPIPrescaler64
	SPIPrescaler128
)

// SPIConfig describes the bus setup applied at Init.
type SPIConfig struct {
	Mode      SPIMode
	BitOrder  SPIBitOrder
	DataSize  SPIDataSize
	Prescaler SPIPrescaler
	Master    bool
}

// SPITransferEvent reports a completed transfer to the registered callback.
// Delivery is best-effort: it fires after a polled Transfer completes or
// from a transfer-complete interrupt, depending on the platform.
type SPITransferEvent struct {
	TxData   []byte
	RxData   []byte
	Size     int
	UserData any
}

type SPITransferHandler func(ev *SPITransferEvent)

// SPI is a full-duplex shift-register bus. Transfer is the canonical
// per-byte write/poll/read loop; Transmit and Receive are Transfer with one
// side nil (0xFF dummy out, received bytes discarded). Chip select is plain
// GPIO, active low, because many platforms have no hardware-managed CS.
type SPI interface {
	Init(cfg *SPIConfig) error
	Deinit() error

	Transfer(tx, rx []byte, timeoutMS uint32) error
	Transmit(data []byte, timeoutMS uint32) error
	Receive(buf []byte, timeoutMS uint32) error
	IsReady(ready *bool) error

	// ChipSelect drives pin low when state is true (select) and high when
	// false (deselect).
	ChipSelect(pin Pin, state bool) error

	RegisterCallback(handler SPITransferHandler, userData any) error
	UnregisterCallback() error
}
