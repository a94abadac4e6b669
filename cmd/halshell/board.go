package main

import (
	"strconv"
	"strings"

	"eerhal-go/errcode"
	"eerhal-go/hal"
	"eerhal-go/platform/avr"
	avrsim "eerhal-go/platform/avr/sim"
	"eerhal-go/platform/rv32"
	rv32sim "eerhal-go/platform/rv32/sim"
)

// board hides the platform behind a uniform shell surface: the HAL itself
// plus the simulator stimuli the commands poke at. Hooks a platform cannot
// serve are left nil and reported as not_supported.
type board struct {
	hal hal.HAL

	pin   func(name string) (hal.Pin, error)
	drive func(pin hal.Pin, level bool)
	step  func(ms int)

	feed func(data []byte)
	sent func() []byte

	adcSet func(channel uint8, raw uint16)
	attach func(addr uint16, respond []byte)

	onReset func(fn func())
}

func newAVRBoard() *board {
	c := avr.NewChip()
	m := avrsim.New(c)
	h := avr.New(c)
	return &board{
		hal: h,
		pin: func(name string) (hal.Pin, error) {
			if len(name) != 2 {
				return nil, &errcode.E{C: errcode.InvalidParam, Op: "pin", Msg: "want <port><bit>, e.g. b5"}
			}
			bit, err := strconv.ParseUint(name[1:], 10, 8)
			if err != nil || bit > 7 {
				return nil, &errcode.E{C: errcode.InvalidParam, Op: "pin", Msg: "bad bit number"}
			}
			switch name[0] {
			case 'b':
				return c.PB(uint8(bit)), nil
			case 'c':
				return c.PC(uint8(bit)), nil
			case 'd':
				return c.PD(uint8(bit)), nil
			}
			return nil, &errcode.E{C: errcode.InvalidParam, Op: "pin", Msg: "port must be b, c or d"}
		},
		drive:  func(p hal.Pin, level bool) { m.DrivePin(p.(avr.Pin), level) },
		step:   m.StepMs,
		feed:   func(data []byte) { m.UARTFeed(data...) },
		sent:   m.UARTTransmitted,
		adcSet: m.ADCSetChannel,
		attach: func(addr uint16, respond []byte) {
			s := m.I2CAttach(addr)
			s.Respond = append(s.Respond, respond...)
		},
		onReset: func(fn func()) { m.OnReset = fn },
	}
}

func newRV32Board() *board {
	c := rv32.NewChip()
	m := rv32sim.New(c)
	h := rv32.New(c)
	return &board{
		hal: h,
		pin: func(name string) (hal.Pin, error) {
			n, err := strconv.ParseUint(strings.TrimPrefix(name, "gpio"), 10, 8)
			if err != nil || n >= rv32.NumPins {
				return nil, &errcode.E{C: errcode.InvalidParam, Op: "pin", Msg: "want 0..31"}
			}
			return rv32.Pin(n), nil
		},
		drive:   func(p hal.Pin, level bool) { m.DrivePin(p.(rv32.Pin), level) },
		step:    m.StepMs,
		feed:    func(data []byte) { m.UARTFeed(data...) },
		sent:    m.UARTTransmitted,
		onReset: func(fn func()) { m.OnReset = fn },
	}
}
