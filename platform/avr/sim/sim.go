// Package sim models the chip's peripherals behind the register block so
// the drivers can run off-target. Models hang off the register write hooks
// and complete each operation synchronously, inside the driver's own store:
// a driver that writes SPDR finds SPIF already set when it polls. The
// machine also installs the chip's idle hook, which is where blocked polls
// gain forward progress (tick advance, scripted stimuli, watchdog resets).
package sim

import (
	"eerhal-go/platform/avr"
)

// Machine binds peripheral models to one chip instance.
type Machine struct {
	chip *avr.Chip

	// AutoTick advances the millisecond tick by one on every idle-hook
	// call while the tick timer is armed. Leave it on for timeout tests.
	AutoTick bool

	// OnIdle, when set, runs on every idle-hook call. Tests use it to
	// script stimuli that must land while a driver is blocked.
	OnIdle func()

	// OnReset fires when the driver arms the watchdog for a reset. A test
	// typically panics here to unwind out of the parked reset loop.
	OnReset func()

	uartTx []byte

	spiTx   []byte
	spiResp []byte

	twi twiModel

	adcValues [8]uint16
}

// New attaches a fresh model set to the chip. Call before any driver Init
// so the hooks observe every register write.
func New(c *avr.Chip) *Machine {
	m := &Machine{chip: c, AutoTick: true}
	m.twi.m = m

	c.Idle = m.idle

	c.UDR.Hook(m.uartWrite)
	c.UCSRA.Hook(m.uartControl)
	c.SPDR.Hook(m.spiWrite)
	c.TWCR.Hook(m.twi.control)
	c.ADCSRA.Hook(m.adcControl)

	for i := uint8(0); i < 3; i++ {
		port := c.PortByIndex(i)
		port.PORT.Hook(func(uint8) { m.mirror(port) })
		port.DDR.Hook(func(uint8) { m.mirror(port) })
	}
	return m
}

func (m *Machine) idle() {
	c := m.chip
	if m.AutoTick && c.TIMSK0.HasBits(avr.OCIE0A) {
		c.IRQ.Raise(avr.VectTimer0CompA)
	}
	if c.WDTCSR.HasBits(avr.WDE) && m.OnReset != nil {
		m.OnReset()
	}
	if m.OnIdle != nil {
		m.OnIdle()
	}
}

// StepMs advances the system tick by n milliseconds.
func (m *Machine) StepMs(n int) {
	for i := 0; i < n; i++ {
		m.chip.IRQ.Raise(avr.VectTimer0CompA)
	}
}

// mirror makes output pins read back their driven level: PIN follows PORT
// wherever DDR marks the pin as an output.
func (m *Machine) mirror(port *avr.Port) {
	ddr := port.DDR.Get()
	pin := port.PIN.Get()&^ddr | port.PORT.Get()&ddr
	port.PIN.Poke(pin)
}

// DrivePin sets the external level on a pin and raises whichever interrupt
// the transition is armed for.
func (m *Machine) DrivePin(p avr.Pin, level bool) {
	c := m.chip
	port := c.PortByIndex(p.PortIndex())
	mask := uint8(1) << p.Bit()
	old := port.PIN.HasBits(mask)
	if level {
		port.PIN.PokeBits(mask)
	} else {
		port.PIN.PokeClear(mask)
	}
	if old == level {
		return
	}

	switch p {
	case c.INT0Pin():
		if c.EIMSK.HasBits(avr.INT0) && edgeMatches(c.EICRA.Get()&0b11, old, level) {
			c.IRQ.Raise(avr.VectInt0)
		}
		return
	case c.INT1Pin():
		if c.EIMSK.HasBits(avr.INT1) && edgeMatches(c.EICRA.Get()>>2&0b11, old, level) {
			c.IRQ.Raise(avr.VectInt1)
		}
		return
	}

	switch p.PortIndex() {
	case 0:
		if c.PCICR.HasBits(avr.PCIE0) && c.PCMSK0.HasBits(mask) {
			c.IRQ.Raise(avr.VectPCInt0)
		}
	case 1:
		if c.PCICR.HasBits(avr.PCIE1) && c.PCMSK1.HasBits(mask) {
			c.IRQ.Raise(avr.VectPCInt1)
		}
	case 2:
		if c.PCICR.HasBits(avr.PCIE2) && c.PCMSK2.HasBits(mask) {
			c.IRQ.Raise(avr.VectPCInt2)
		}
	}
}

func edgeMatches(isc uint8, old, new bool) bool {
	switch isc {
	case 0b11:
		return !old && new
	case 0b10:
		return old && !new
	case 0b01:
		return true
	default:
		return false
	}
}
