// Package sim models the FE310-class peripherals behind the register map,
// the same way the AVR simulator does: write hooks complete each hardware
// handshake synchronously and the idle hook advances the machine timer
// while a driver is parked in a poll loop.
package sim

import (
	"eerhal-go/platform/rv32"
)

const clintTicksPerMs = rv32.LFClkHz / 1000

// Machine binds peripheral models to one chip instance.
type Machine struct {
	chip *rv32.Chip

	// AutoTick advances mtime by one millisecond's worth of counts per
	// idle-hook call, firing the machine timer interrupt when mtimecmp
	// is reached.
	AutoTick bool

	// OnIdle runs on every idle-hook call.
	OnIdle func()

	// OnReset fires when the watchdog is armed for a reset bite.
	OnReset func()

	uartTx []byte
	uartRx []byte

	spiTx   []byte
	spiResp []byte

	risePending uint32
	fallPending uint32
}

// New attaches a fresh model set. Call before any driver Init.
func New(c *rv32.Chip) *Machine {
	m := &Machine{chip: c, AutoTick: true}

	c.Idle = m.idle

	c.UART0.TxData.Hook(m.uartTxWrite)
	c.UART0.RxData.Hook(m.uartRxPop)
	c.SPI1.TxData.Hook(m.spiTxWrite)
	c.SPI1.RxData.Hook(m.spiRxPop)
	c.GPIO.RiseIP.Hook(m.riseAck)
	c.GPIO.FallIP.Hook(m.fallAck)
	c.GPIO.OutputVal.Hook(func(uint32) { m.mirror() })
	c.GPIO.OutputEn.Hook(func(uint32) { m.mirror() })
	return m
}

func (m *Machine) idle() {
	c := m.chip
	if m.AutoTick {
		mt := c.CLINT.MTime.Get() + clintTicksPerMs
		c.CLINT.MTime.Poke(mt)
		if mt >= c.CLINT.MTimeCmp.Get() {
			c.IRQ.Raise(rv32.VectMachineTimer)
		}
	}
	if c.AON.WDogCfg.HasBits(rv32.WDogEnable) && m.OnReset != nil {
		m.OnReset()
	}
	if m.OnIdle != nil {
		m.OnIdle()
	}
}

// StepMs advances the machine timer by n milliseconds, delivering one
// compare interrupt per crossing.
func (m *Machine) StepMs(n int) {
	c := m.chip
	for i := 0; i < n; i++ {
		mt := c.CLINT.MTime.Get() + clintTicksPerMs
		c.CLINT.MTime.Poke(mt)
		if mt >= c.CLINT.MTimeCmp.Get() {
			c.IRQ.Raise(rv32.VectMachineTimer)
		}
	}
}

// mirror makes driven outputs visible on the input value register.
func (m *Machine) mirror() {
	g := &m.chip.GPIO
	en := g.OutputEn.Get()
	g.InputVal.Poke(g.InputVal.Get()&^en | g.OutputVal.Get()&en)
}

// DrivePin sets the external level on a pin, latches the matching edge
// pending bit and raises the pin's interrupt if that edge is armed.
func (m *Machine) DrivePin(pin rv32.Pin, level bool) {
	c := m.chip
	mask := uint32(1) << pin
	old := c.GPIO.InputVal.HasBits(mask)
	if level {
		c.GPIO.InputVal.PokeBits(mask)
	} else {
		c.GPIO.InputVal.PokeClear(mask)
	}
	if old == level {
		return
	}

	if level {
		m.risePending |= mask
		c.GPIO.RiseIP.Poke(m.risePending)
		if c.GPIO.RiseIE.HasBits(mask) {
			c.IRQ.Raise(rv32.GPIOVector(uint8(pin)))
		}
	} else {
		m.fallPending |= mask
		c.GPIO.FallIP.Poke(m.fallPending)
		if c.GPIO.FallIE.HasBits(mask) {
			c.IRQ.Raise(rv32.GPIOVector(uint8(pin)))
		}
	}
}

// Pending bits are write-one-to-clear; the hook rebuilds the register
// from the model's shadow after each acknowledge.
func (m *Machine) riseAck(v uint32) {
	m.risePending &^= v
	m.chip.GPIO.RiseIP.Poke(m.risePending)
}

func (m *Machine) fallAck(v uint32) {
	m.fallPending &^= v
	m.chip.GPIO.FallIP.Poke(m.fallPending)
}

// FireRTC raises the AON RTC wake interrupt.
func (m *Machine) FireRTC() {
	if m.chip.AON.RTCCfg.HasBits(rv32.RTCEnable) {
		m.chip.IRQ.Raise(rv32.VectRTC)
	}
}

// FireWatchdog raises the AON watchdog interrupt.
func (m *Machine) FireWatchdog() {
	if m.chip.AON.WDogCfg.HasBits(rv32.WDogEnable) {
		m.chip.IRQ.Raise(rv32.VectWDog)
	}
}
