// Package rv32 implements the peripheral drivers for an FE310-class
// RISC-V microcontroller: GPIO with per-pin edge interrupts, UART0, SPI1,
// the PWM0 timer block, the CLINT machine timer and the AON power domain.
// The part has no ADC and no I2C controller; those drivers reject Init.
package rv32

import (
	"eerhal-go/internal/irq"
	"eerhal-go/internal/mmio"
)

// CPUHz is the core and peripheral clock.
const CPUHz = 16_000_000

// LFClkHz clocks the CLINT machine timer and the AON counters.
const LFClkHz = 32_768

// Interrupt sources, one slot per PLIC source plus the CLINT timer.
const (
	VectMachineTimer irq.Vector = iota + 1
	VectUART0
	VectSPI1
	VectPWM0
	VectRTC
	VectWDog
	VectGPIOBase // pins occupy VectGPIOBase..VectGPIOBase+31

	numVectors = int(VectGPIOBase) + 32
)

// GPIOVector returns the interrupt source for a pin.
func GPIOVector(pin uint8) irq.Vector { return VectGPIOBase + irq.Vector(pin) }

// UART0 register bits.
const (
	UARTTxFull  = 1 << 31 // txdata
	UARTRxEmpty = 1 << 31 // rxdata
	UARTTxEn    = 1 << 0  // txctrl
	UARTRxEn    = 1 << 0  // rxctrl
	UARTIERxWM  = 1 << 1  // ie
)

// SPI1 register bits.
const (
	SPITxFull     = 1 << 31 // txdata
	SPIRxEmpty    = 1 << 31 // rxdata
	SPISckPol     = 1 << 1  // sckmode
	SPISckPha     = 1 << 0
	SPIFmtEndian  = 1 << 2 // fmt, set = LSB first
	SPIFmtLenMask = 0xF << 16
	SPIFmtLen8    = 8 << 16
)

// PWM0 register bits.
const (
	PWMEnAlways  = 1 << 12 // pwmcfg
	PWMEnOneShot = 1 << 13
	PWMZeroCmp   = 1 << 9
	PWMCmpIP0    = 1 << 28
	PWMScaleMask = 0xF
)

// AON register bits.
const (
	WDogEnable = 1 << 12 // wdogcfg
	RTCEnable  = 1 << 12 // rtccfg
)

// Pin is a GPIO index on the single 32-bit port.
type Pin uint8

const NumPins = 32

// GPIOBlock is the memory-mapped GPIO instance. Pending bits are
// write-one-to-clear.
type GPIOBlock struct {
	InputVal  mmio.Reg32
	InputEn   mmio.Reg32
	OutputEn  mmio.Reg32
	OutputVal mmio.Reg32
	PUE       mmio.Reg32
	RiseIE    mmio.Reg32
	RiseIP    mmio.Reg32
	FallIE    mmio.Reg32
	FallIP    mmio.Reg32
	IofEn     mmio.Reg32
}

// UARTBlock is the UART0 instance. The FIFO view: the high bit of txdata
// reads as full, the high bit of rxdata as empty. A write to rxdata pops
// the receive FIFO.
type UARTBlock struct {
	TxData mmio.Reg32
	RxData mmio.Reg32
	TxCtrl mmio.Reg32
	RxCtrl mmio.Reg32
	IE     mmio.Reg32
	IP     mmio.Reg32
	Div    mmio.Reg32
}

// SPIBlock is the SPI1 instance. As with the UART, a write to rxdata pops
// the receive FIFO.
type SPIBlock struct {
	SckDiv  mmio.Reg32
	SckMode mmio.Reg32
	CSID    mmio.Reg32
	CSDef   mmio.Reg32
	CSMode  mmio.Reg32
	Fmt     mmio.Reg32
	TxData  mmio.Reg32
	RxData  mmio.Reg32
	IE      mmio.Reg32
	IP      mmio.Reg32
}

// PWMBlock is the PWM0 instance: a scaled counter with four comparators,
// cmp0 doubling as the period top.
type PWMBlock struct {
	Cfg   mmio.Reg32
	Count mmio.Reg32
	Cmp0  mmio.Reg32
	Cmp1  mmio.Reg32
	Cmp2  mmio.Reg32
	Cmp3  mmio.Reg32
}

// CLINTBlock is the machine timer.
type CLINTBlock struct {
	MTime    mmio.Reg64
	MTimeCmp mmio.Reg64
}

// AONBlock holds the always-on domain: watchdog, RTC and sleep control.
type AONBlock struct {
	WDogCfg   mmio.Reg32
	WDogCount mmio.Reg32
	RTCCfg    mmio.Reg32
	RTCCount  mmio.Reg32
	RTCCmp    mmio.Reg32
	PMUSleep  mmio.Reg32
	PMUCause  mmio.Reg32
}

// Chip is the register map plus the interrupt fabric.
type Chip struct {
	GPIO  GPIOBlock
	UART0 UARTBlock
	SPI1  SPIBlock
	PWM0  PWMBlock
	CLINT CLINTBlock
	AON   AONBlock

	IRQ *irq.Controller

	// Idle is called once per busy-wait iteration, nil on hardware.
	Idle func()
}

// NewChip returns a register map in reset state.
func NewChip() *Chip {
	c := &Chip{IRQ: irq.NewController(numVectors)}
	c.UART0.RxData.Poke(UARTRxEmpty)
	c.SPI1.RxData.Poke(SPIRxEmpty)
	return c
}

func (c *Chip) idle() {
	if c.Idle != nil {
		c.Idle()
	}
}
