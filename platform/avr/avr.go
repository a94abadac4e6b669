package avr

import "eerhal-go/hal"

// New assembles the peripheral drivers for one chip instance. The system
// driver owns the millisecond tick; every driver that polls with a
// timeout reads time through it, so timeouts are advisory until
// System.Init has started the tick.
func New(c *Chip) hal.HAL {
	sys := newSystem(c)
	return hal.HAL{
		GPIO:   newGPIO(c),
		ADC:    newADC(c, sys.now),
		UART:   newUART(c, sys.now),
		SPI:    newSPI(c, sys.now),
		I2C:    newI2C(c, sys.now),
		Timer:  newTimer(c),
		System: sys,
		Power:  newPower(c),
	}
}
