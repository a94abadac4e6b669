// Package hal defines the peripheral interface contracts of the HAL: one Go
// interface per peripheral kind, plus the configuration, event and callback
// types they share. Platform packages (platform/avr, platform/rv32) provide
// the implementations; application code holds a single HAL aggregate and
// reaches every peripheral through it.
package hal

// Pin is an opaque platform pin handle. Concrete pin types live in the
// platform packages; handing a foreign pin to a driver yields InvalidParam.
type Pin any

// HAL aggregates the peripheral drivers of one platform. It is built once
// by the platform constructor (avr.New, rv32.New) and treated as
// process-wide state thereafter.
type HAL struct {
	GPIO   GPIO
	ADC    ADC
	UART   UART
	SPI    SPI
	I2C    I2C
	Timer  Timer
	System System
	Power  Power
}
