// Package avr implements the HAL peripheral contracts for ATmega328P-class
// parts: GPIO over the port registers, USART0, SPI, TWI, Timer1 (+PWM),
// Timer0 as the system tick, the ADC, and sleep/wake power management.
//
// The drivers are written against the Chip register block. On a hardware
// build the block is aliased onto the part's I/O space by the platform link
// step; on host builds the cells are plain memory that the avr/sim models
// (or a test) drive from the far side.
package avr

import (
	"eerhal-go/internal/irq"
	"eerhal-go/internal/mmio"
)

// CPUHz is the assumed system clock. The UART divisor, TWI bit rate and
// timer tick maths all derive from it.
const CPUHz = 16_000_000

// Interrupt vectors, numbered as in the ATmega328P vector table.
const (
	VectInt0 irq.Vector = iota + 1
	VectInt1
	VectPCInt0
	VectPCInt1
	VectPCInt2
	VectWDT
	VectTimer2CompA
	VectTimer2CompB
	VectTimer2Ovf
	VectTimer1Capt
	VectTimer1CompA
	VectTimer1CompB
	VectTimer1Ovf
	VectTimer0CompA
	VectTimer0CompB
	VectTimer0Ovf
	VectSPI
	VectUSARTRx
	VectUSARTUDRE
	VectUSARTTx
	VectADC
	VectTWI

	numVectors = int(VectTWI) + 1
)

// USART0 flag and control bits.
const (
	RXC0  = 1 << 7 // UCSRA: receive complete
	TXC0  = 1 << 6 // UCSRA: transmit complete
	UDRE0 = 1 << 5 // UCSRA: data register empty
	U2X0  = 1 << 1 // UCSRA: double speed

	RXCIE0 = 1 << 7 // UCSRB: rx complete interrupt enable
	TXCIE0 = 1 << 6 // UCSRB: tx complete interrupt enable
	RXEN0  = 1 << 4 // UCSRB: receiver enable
	TXEN0  = 1 << 3 // UCSRB: transmitter enable
	UCSZ02 = 1 << 2 // UCSRB: data size bit 2

	UPM01  = 1 << 5 // UCSRC: parity mode
	UPM00  = 1 << 4
	USBS0  = 1 << 3 // UCSRC: stop bit select
	UCSZ01 = 1 << 2
	UCSZ00 = 1 << 1
)

// SPI control and status bits.
const (
	SPIE = 1 << 7 // SPCR
	SPE  = 1 << 6
	DORD = 1 << 5
	MSTR = 1 << 4
	CPOL = 1 << 3
	CPHA = 1 << 2
	SPR1 = 1 << 1
	SPR0 = 1 << 0

	SPIF  = 1 << 7 // SPSR
	SPI2X = 1 << 0
)

// TWI control bits and masked status codes.
const (
	TWINT = 1 << 7
	TWEA  = 1 << 6
	TWSTA = 1 << 5
	TWSTO = 1 << 4
	TWEN  = 1 << 2

	TWStatusMask = 0xF8

	TWStartSent        = 0x08
	TWRestartSent      = 0x10
	TWSlaWAck          = 0x18
	TWSlaWNack         = 0x20
	TWDataSentAck      = 0x28
	TWDataSentNack     = 0x30
	TWArbitrationLost  = 0x38
	TWSlaRAck          = 0x40
	TWSlaRNack         = 0x48
	TWDataReceivedAck  = 0x50
	TWDataReceivedNack = 0x58
)

// Timer1 bits.
const (
	COM1A1 = 1 << 7 // TCCR1A
	COM1A0 = 1 << 6
	COM1B1 = 1 << 5
	COM1B0 = 1 << 4
	WGM11  = 1 << 1
	WGM10  = 1 << 0

	WGM13 = 1 << 4 // TCCR1B
	WGM12 = 1 << 3
	CS12  = 1 << 2
	CS11  = 1 << 1
	CS10  = 1 << 0

	ICIE1  = 1 << 5 // TIMSK1
	OCIE1B = 1 << 2
	OCIE1A = 1 << 1
	TOIE1  = 1 << 0

	cs1Mask = CS12 | CS11 | CS10
)

// Timer0 (system tick) bits.
const (
	WGM01  = 1 << 1 // TCCR0A: CTC
	CS01   = 1 << 1 // TCCR0B
	CS00   = 1 << 0
	OCIE0A = 1 << 1 // TIMSK0
)

// Timer2 bits (wake source only).
const TOIE2 = 1 << 0 // TIMSK2

// ADC bits.
const (
	ADEN  = 1 << 7 // ADCSRA
	ADSC  = 1 << 6
	ADIE  = 1 << 3
	ADPS2 = 1 << 2
	ADPS1 = 1 << 1
	ADPS0 = 1 << 0

	REFS1 = 1 << 7 // ADMUX
	REFS0 = 1 << 6

	admuxChannelMask = 0x07
)

// External and pin-change interrupt bits.
const (
	INT0 = 1 << 0 // EIMSK
	INT1 = 1 << 1

	PCIE0 = 1 << 0 // PCICR, port B
	PCIE1 = 1 << 1 // port C
	PCIE2 = 1 << 2 // port D
)

// Sleep and watchdog bits.
const (
	SE            = 1 << 0 // SMCR: sleep enable
	smMask        = 0b1110 // SMCR: sleep mode select
	smIdle        = 0b0000
	smPowerSave   = 0b0110
	smPowerDown   = 0b0100

	WDIE = 1 << 6 // WDTCSR
	WDCE = 1 << 4
	WDE  = 1 << 3
)

// Port is one 8-bit GPIO port: data direction, output and input registers.
type Port struct {
	DDR  mmio.Reg8
	PORT mmio.Reg8
	PIN  mmio.Reg8
}

// Port identifiers for pin bookkeeping.
const (
	portB = iota
	portC
	portD
	numPorts
)

const pinsPerPort = 8

// Pin is a GPIO handle: the three port registers plus a bit index. Pins are
// constructed by the Chip accessors and are valid for the chip's lifetime.
type Pin struct {
	port *Port
	id   uint8 // portIndex*8 + bit
	bit  uint8
}

// Bit returns the pin's bit index within its port.
func (p Pin) Bit() uint8 { return p.bit }

// PortIndex returns the pin's port number (0 = B, 1 = C, 2 = D).
func (p Pin) PortIndex() uint8 { return p.id / pinsPerPort }

func (p Pin) mask() uint8 { return 1 << p.bit }

// Chip is the ATmega328P register block plus its interrupt fabric.
type Chip struct {
	PortB, PortC, PortD Port

	// USART0.
	UDR   mmio.Reg8
	UCSRA mmio.Reg8
	UCSRB mmio.Reg8
	UCSRC mmio.Reg8
	UBRRL mmio.Reg8
	UBRRH mmio.Reg8

	// SPI.
	SPCR mmio.Reg8
	SPSR mmio.Reg8
	SPDR mmio.Reg8

	// TWI.
	TWBR mmio.Reg8
	TWSR mmio.Reg8
	TWDR mmio.Reg8
	TWCR mmio.Reg8

	// Timer1.
	TCCR1A mmio.Reg8
	TCCR1B mmio.Reg8
	TIMSK1 mmio.Reg8
	TCNT1  mmio.Reg16
	OCR1A  mmio.Reg16
	OCR1B  mmio.Reg16
	ICR1   mmio.Reg16

	// Timer0 (system tick).
	TCCR0A mmio.Reg8
	TCCR0B mmio.Reg8
	OCR0A  mmio.Reg8
	TIMSK0 mmio.Reg8

	// Timer2 (wake source).
	TIMSK2 mmio.Reg8

	// ADC.
	ADMUX  mmio.Reg8
	ADCSRA mmio.Reg8
	ADCW   mmio.Reg16
	DIDR0  mmio.Reg8

	// Interrupt routing.
	EIMSK  mmio.Reg8
	EICRA  mmio.Reg8
	PCICR  mmio.Reg8
	PCMSK0 mmio.Reg8
	PCMSK1 mmio.Reg8
	PCMSK2 mmio.Reg8

	// Power management.
	SMCR   mmio.Reg8
	WDTCSR mmio.Reg8

	// IRQ is the interrupt fabric: peripheral models (or real vector
	// stubs) raise vectors on it, drivers install their service routines.
	IRQ *irq.Controller

	// Idle is called once per iteration of every busy-wait loop. On
	// hardware it is nil; the simulator installs a step function here so
	// blocked polls can make forward progress.
	Idle func()
}

// NewChip returns a register block in reset state.
func NewChip() *Chip {
	c := &Chip{IRQ: irq.NewController(numVectors)}
	c.UCSRA.Poke(UDRE0) // transmit buffer starts empty
	c.TWSR.Poke(TWStatusMask)
	return c
}

// PortByIndex returns the port register block for a PortIndex value.
func (c *Chip) PortByIndex(i uint8) *Port {
	switch i {
	case portB:
		return &c.PortB
	case portC:
		return &c.PortC
	default:
		return &c.PortD
	}
}

func (c *Chip) idle() {
	if c.Idle != nil {
		c.Idle()
	}
}

// PB returns the pin for port B bit n (n in 0..7).
func (c *Chip) PB(n uint8) Pin { return Pin{&c.PortB, portB*pinsPerPort + n%pinsPerPort, n % pinsPerPort} }

// PC returns the pin for port C bit n.
func (c *Chip) PC(n uint8) Pin { return Pin{&c.PortC, portC*pinsPerPort + n%pinsPerPort, n % pinsPerPort} }

// PD returns the pin for port D bit n.
func (c *Chip) PD(n uint8) Pin { return Pin{&c.PortD, portD*pinsPerPort + n%pinsPerPort, n % pinsPerPort} }

// Dedicated pin roles.
func (c *Chip) SS() Pin   { return c.PB(2) }
func (c *Chip) MOSI() Pin { return c.PB(3) }
func (c *Chip) MISO() Pin { return c.PB(4) }
func (c *Chip) SCK() Pin  { return c.PB(5) }

// INT0/INT1 are the two true external-interrupt pins with edge control.
func (c *Chip) INT0Pin() Pin { return c.PD(2) }
func (c *Chip) INT1Pin() Pin { return c.PD(3) }

func (c *Chip) pcmsk(p Pin) *mmio.Reg8 {
	switch p.port {
	case &c.PortB:
		return &c.PCMSK0
	case &c.PortC:
		return &c.PCMSK1
	default:
		return &c.PCMSK2
	}
}

func (c *Chip) pcie(p Pin) uint8 {
	switch p.port {
	case &c.PortB:
		return PCIE0
	case &c.PortC:
		return PCIE1
	default:
		return PCIE2
	}
}
