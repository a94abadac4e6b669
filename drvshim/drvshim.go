// Package drvshim adapts the HAL peripheral interfaces to the shapes the
// tinygo.org/x/drivers sensor ecosystem expects, so an off-the-shelf
// device driver can sit directly on a platform bus.
package drvshim

import (
	"tinygo.org/x/drivers"

	"eerhal-go/hal"
)

// I2C adapts a hal.I2C master to the driver Tx shape.
type I2C struct {
	bus       hal.I2C
	timeoutMS uint32
}

var _ drivers.I2C = I2C{}

func NewI2C(bus hal.I2C) I2C {
	return I2C{bus: bus, timeoutMS: 25}
}

func (s I2C) WithTimeout(ms uint32) I2C {
	if ms > 0 {
		s.timeoutMS = ms
	}
	return s
}

// Tx maps the write/read halves onto the matching master transaction:
// write-then-read uses a repeated start, as the driver contract requires.
func (s I2C) Tx(addr uint16, w, r []byte) error {
	switch {
	case len(w) > 0 && len(r) > 0:
		return s.bus.MasterTransmitReceive(addr, w, r, s.timeoutMS)
	case len(w) > 0:
		return s.bus.MasterTransmit(addr, w, s.timeoutMS)
	case len(r) > 0:
		return s.bus.MasterReceive(addr, r, s.timeoutMS)
	default:
		return nil
	}
}

// SPI adapts a hal.SPI master to the driver Tx/Transfer shape.
type SPI struct {
	bus       hal.SPI
	timeoutMS uint32
}

var _ drivers.SPI = SPI{}

func NewSPI(bus hal.SPI) SPI {
	return SPI{bus: bus, timeoutMS: 25}
}

func (s SPI) WithTimeout(ms uint32) SPI {
	if ms > 0 {
		s.timeoutMS = ms
	}
	return s
}

func (s SPI) Tx(w, r []byte) error {
	return s.bus.Transfer(w, r, s.timeoutMS)
}

func (s SPI) Transfer(b byte) (byte, error) {
	rx := [1]byte{}
	if err := s.bus.Transfer([]byte{b}, rx[:], s.timeoutMS); err != nil {
		return 0, err
	}
	return rx[0], nil
}

// UART adapts a hal.UART to io.Reader/io.Writer so text protocols and
// loggers can use the port directly. Read blocks for the first byte, then
// drains whatever else is already buffered.
type UART struct {
	port      hal.UART
	timeoutMS uint32
}

func NewUART(port hal.UART) *UART {
	return &UART{port: port, timeoutMS: 0}
}

func (u *UART) WithTimeout(ms uint32) *UART {
	u.timeoutMS = ms
	return u
}

func (u *UART) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := u.port.Transmit(p, u.timeoutMS); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (u *UART) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := u.port.Receive(p[:1], u.timeoutMS); err != nil {
		return 0, err
	}
	n := 1
	for n < len(p) {
		var ready bool
		if err := u.port.IsRxReady(&ready); err != nil || !ready {
			break
		}
		if err := u.port.Receive(p[n:n+1], u.timeoutMS); err != nil {
			break
		}
		n++
	}
	return n, nil
}
