package rv32

import "eerhal-go/hal"

// New assembles the drivers for one chip instance. ADC and I2C slots are
// filled with refusing stubs: the part has no such controllers.
func New(c *Chip) hal.HAL {
	sys := newSystem(c)
	return hal.HAL{
		GPIO:   newGPIO(c),
		ADC:    noADC{},
		UART:   newUART(c, sys.now),
		SPI:    newSPI(c, sys.now),
		I2C:    noI2C{},
		Timer:  newTimer(c),
		System: sys,
		Power:  newPower(c),
	}
}
