// Package aht20 drives the AHT20 temperature/humidity sensor over any
// drivers.I2C bus, including a HAL I2C controller wrapped in drvshim.
//
// Measurement is two-phase:
//
//	d.Trigger()              // start a conversion
//	err := d.Collect(&s)     // fetch when ready; ErrNotReady while busy
//
// Read performs trigger plus bounded polling for callers that just want a
// sample. Conversions stay in fixed point; the Deci helpers return tenths
// of a unit.
package aht20

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// Address is the fixed 7-bit bus address of the part.
const Address = 0x38

const (
	cmdTrigger    = 0xAC
	cmdInitialize = 0xBE
	cmdSoftReset  = 0xBA
	cmdStatus     = 0x71

	statusBusy       = 0x80
	statusCalibrated = 0x08
)

var (
	ErrTimeout  = errors.New("aht20: timeout")
	ErrNotReady = errors.New("aht20: not ready")
)

// Config adjusts the polling behaviour of Read. Zero fields take defaults.
type Config struct {
	Address        uint16
	PollInterval   time.Duration // between Collect attempts, default 15 ms
	CollectTimeout time.Duration // total Read budget, default 250 ms
}

// Device is an AHT20 on an I2C bus. The bus must already be configured;
// with this HAL that means hal.I2C.Init followed by drvshim.NewI2C.
type Device struct {
	bus  drivers.I2C
	addr uint16
	cfg  Config
	buf  [7]byte
}

func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, addr: Address}
}

// Configure applies cfg and initialises the sensor if its calibrated bit
// is not yet set. Initialisation needs about 10 ms before the first
// trigger; Sleep is acceptable here since Configure runs once at startup.
func (d *Device) Configure(cfg Config) error {
	if cfg.Address != 0 {
		d.addr = cfg.Address
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Millisecond
	}
	if cfg.CollectTimeout <= 0 {
		cfg.CollectTimeout = 250 * time.Millisecond
	}
	d.cfg = cfg

	st, err := d.Status()
	if err != nil {
		return err
	}
	if st&statusCalibrated != 0 {
		return nil
	}
	if err := d.bus.Tx(d.addr, []byte{cmdInitialize, 0x08, 0x00}, nil); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

// Reset issues a soft reset. The part needs roughly 20 ms afterwards.
func (d *Device) Reset() error {
	return d.bus.Tx(d.addr, []byte{cmdSoftReset}, nil)
}

// Status reads the status byte with a write/repeated-start/read
// transaction.
func (d *Device) Status() (byte, error) {
	var st [1]byte
	if err := d.bus.Tx(d.addr, []byte{cmdStatus}, st[:]); err != nil {
		return 0, err
	}
	return st[0], nil
}

// Trigger starts a conversion and returns immediately. The part takes
// about 80 ms; poll Collect or use Read.
func (d *Device) Trigger() error {
	return d.bus.Tx(d.addr, []byte{cmdTrigger, 0x33, 0x00}, nil)
}

// Collect reads one measurement frame. ErrNotReady means the conversion
// is still running; bus errors pass through unchanged.
func (d *Device) Collect(out *Sample) error {
	if err := d.bus.Tx(d.addr, nil, d.buf[:]); err != nil {
		return err
	}
	st := d.buf[0]
	if st&statusCalibrated == 0 || st&statusBusy != 0 {
		return ErrNotReady
	}
	out.RawHumidity = uint32(d.buf[1])<<12 | uint32(d.buf[2])<<4 | uint32(d.buf[3])>>4
	out.RawTemp = uint32(d.buf[3]&0x0F)<<16 | uint32(d.buf[4])<<8 | uint32(d.buf[5])
	return nil
}

// Read triggers a conversion and polls Collect until it succeeds or the
// configured timeout elapses.
func (d *Device) Read(out *Sample) error {
	if d.cfg.PollInterval == 0 {
		if err := d.Configure(Config{}); err != nil {
			return err
		}
	}
	if err := d.Trigger(); err != nil {
		return err
	}
	deadline := time.Now().Add(d.cfg.CollectTimeout)
	for {
		err := d.Collect(out)
		if err != ErrNotReady {
			return err
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(d.cfg.PollInterval)
	}
}

// Sample holds one raw 20-bit measurement pair.
type Sample struct {
	RawHumidity uint32
	RawTemp     uint32
}

// DeciRelHumidity returns relative humidity in tenths of a percent.
func (s Sample) DeciRelHumidity() int32 {
	return int32(s.RawHumidity) * 1000 / 0x100000
}

// DeciCelsius returns temperature in tenths of a degree Celsius.
func (s Sample) DeciCelsius() int32 {
	return int32(s.RawTemp)*2000/0x100000 - 500
}
