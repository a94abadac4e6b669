package rv32

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
)

// gpioDriver drives the single 32-pin port. Every pin has independent
// rise and fall interrupt enables, so all three edge triggers work on any
// pin. The part has pull-ups but no pull-downs and no open-drain mode.
type gpioDriver struct {
	chip *Chip

	slots [NumPins]gpioSlot
}

type gpioSlot struct {
	handler  hal.GPIOHandler
	userData any
	trigger  hal.GPIOTrigger
}

func newGPIO(c *Chip) *gpioDriver { return &gpioDriver{chip: c} }

func (g *gpioDriver) pin(p hal.Pin) (Pin, error) {
	rp, ok := p.(Pin)
	if !ok || rp >= NumPins {
		return 0, errcode.InvalidParam
	}
	return rp, nil
}

func (g *gpioDriver) Init() error {
	c := g.chip
	for pin := uint8(0); pin < NumPins; pin++ {
		pin := pin
		c.IRQ.Handle(GPIOVector(pin), func() { g.service(Pin(pin)) })
	}
	return nil
}

func (g *gpioDriver) Deinit() error {
	c := g.chip
	c.GPIO.RiseIE.Set(0)
	c.GPIO.FallIE.Set(0)
	for pin := uint8(0); pin < NumPins; pin++ {
		c.IRQ.Handle(GPIOVector(pin), nil)
	}
	for i := range g.slots {
		g.slots[i] = gpioSlot{}
	}
	return nil
}

func (g *gpioDriver) Configure(p hal.Pin, cfg *hal.GPIOConfig) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	if cfg == nil {
		return errcode.InvalidParam
	}
	c := g.chip
	mask := uint32(1) << pin

	switch cfg.Mode {
	case hal.GPIOInput, hal.GPIOAnalog:
		c.GPIO.OutputEn.ClearBits(mask)
		c.GPIO.InputEn.SetBits(mask)
		c.GPIO.PUE.ClearBits(mask)
	case hal.GPIOInputPullup:
		c.GPIO.OutputEn.ClearBits(mask)
		c.GPIO.InputEn.SetBits(mask)
		c.GPIO.PUE.SetBits(mask)
	case hal.GPIOOutput:
		c.GPIO.InputEn.ClearBits(mask)
		c.GPIO.OutputEn.SetBits(mask)
	case hal.GPIOAlternate:
		c.GPIO.IofEn.SetBits(mask)
	case hal.GPIOInputPulldown, hal.GPIOOutputOD, hal.GPIOAlternateOD:
		return errcode.NotSupported
	default:
		return errcode.InvalidParam
	}

	switch cfg.Trigger {
	case hal.GPIOTriggerNone, hal.GPIOTriggerRising, hal.GPIOTriggerFalling, hal.GPIOTriggerBoth:
		g.slots[pin].trigger = cfg.Trigger
	default:
		return errcode.InvalidParam
	}
	return nil
}

func (g *gpioDriver) Write(p hal.Pin, state bool) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	mask := uint32(1) << pin
	if state {
		g.chip.GPIO.OutputVal.SetBits(mask)
	} else {
		g.chip.GPIO.OutputVal.ClearBits(mask)
	}
	return nil
}

func (g *gpioDriver) Read(p hal.Pin, state *bool) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	if state == nil {
		return errcode.InvalidParam
	}
	*state = g.chip.GPIO.InputVal.HasBits(1 << pin)
	return nil
}

func (g *gpioDriver) Toggle(p hal.Pin) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	mask := uint32(1) << pin
	g.chip.IRQ.Critical(func() {
		if g.chip.GPIO.OutputVal.HasBits(mask) {
			g.chip.GPIO.OutputVal.ClearBits(mask)
		} else {
			g.chip.GPIO.OutputVal.SetBits(mask)
		}
	})
	return nil
}

func (g *gpioDriver) RegisterIRQ(p hal.Pin, handler hal.GPIOHandler, userData any) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	if handler == nil {
		return errcode.InvalidParam
	}
	g.slots[pin].handler = handler
	g.slots[pin].userData = userData
	return g.EnableIRQ(p)
}

func (g *gpioDriver) UnregisterIRQ(p hal.Pin) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	if err := g.DisableIRQ(p); err != nil {
		return err
	}
	g.slots[pin].handler = nil
	g.slots[pin].userData = nil
	return nil
}

func (g *gpioDriver) EnableIRQ(p hal.Pin) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	c := g.chip
	mask := uint32(1) << pin
	switch g.slots[pin].trigger {
	case hal.GPIOTriggerRising:
		c.GPIO.RiseIE.SetBits(mask)
	case hal.GPIOTriggerFalling:
		c.GPIO.FallIE.SetBits(mask)
	case hal.GPIOTriggerBoth:
		c.GPIO.RiseIE.SetBits(mask)
		c.GPIO.FallIE.SetBits(mask)
	default:
		return errcode.Error
	}
	return nil
}

func (g *gpioDriver) DisableIRQ(p hal.Pin) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	mask := uint32(1) << pin
	g.chip.GPIO.RiseIE.ClearBits(mask)
	g.chip.GPIO.FallIE.ClearBits(mask)
	return nil
}

// service acknowledges the pending edge and dispatches the pin's callback.
func (g *gpioDriver) service(pin Pin) {
	c := g.chip
	mask := uint32(1) << pin
	if c.GPIO.RiseIP.HasBits(mask) {
		c.GPIO.RiseIP.Set(mask) // w1c
	}
	if c.GPIO.FallIP.HasBits(mask) {
		c.GPIO.FallIP.Set(mask)
	}
	slot := &g.slots[pin]
	if slot.handler == nil {
		return
	}
	ev := hal.GPIOEvent{Pin: pin, UserData: slot.userData}
	slot.handler(&ev)
}
