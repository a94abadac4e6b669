package avr

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
	"eerhal-go/internal/mmio"
)

// gpioDriver drives the port registers directly. AVR ports have no slew
// control, no pull-downs and no true open-drain, so those modes are
// rejected with NotSupported at Configure time. Edge interrupts come from
// two sources: INT0/INT1 (PD2/PD3) have real edge select via EICRA, every
// other pin only has the any-change pin-change interrupt, so rising- or
// falling-only triggers on those pins are rejected early as well.
type gpioDriver struct {
	chip *Chip

	slots [numPorts * pinsPerPort]gpioSlot
}

type gpioSlot struct {
	handler  hal.GPIOHandler
	userData any
	trigger  hal.GPIOTrigger
	prev     bool // last sampled level, for pin-change edge filtering
	used     bool
}

func newGPIO(c *Chip) *gpioDriver { return &gpioDriver{chip: c} }

func (g *gpioDriver) pin(p hal.Pin) (Pin, error) {
	ap, ok := p.(Pin)
	if !ok || ap.port == nil {
		return Pin{}, errcode.InvalidParam
	}
	return ap, nil
}

func (g *gpioDriver) Init() error {
	// Ports need no global setup on AVR.
	g.installISRs()
	return nil
}

func (g *gpioDriver) Deinit() error {
	c := g.chip
	c.EIMSK.ClearBits(INT0 | INT1)
	c.PCICR.Set(0)
	c.PCMSK0.Set(0)
	c.PCMSK1.Set(0)
	c.PCMSK2.Set(0)
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

	switch cfg.Mode {
	case hal.GPIOInput:
		pin.port.DDR.ClearBits(pin.mask())
		pin.port.PORT.ClearBits(pin.mask()) // float
	case hal.GPIOInputPullup:
		pin.port.DDR.ClearBits(pin.mask())
		pin.port.PORT.SetBits(pin.mask())
	case hal.GPIOOutput:
		pin.port.DDR.SetBits(pin.mask())
	case hal.GPIOAnalog:
		// Input with the digital buffer disabled on ADC pins (port C).
		pin.port.DDR.ClearBits(pin.mask())
		pin.port.PORT.ClearBits(pin.mask())
		if pin.port == &g.chip.PortC {
			g.chip.DIDR0.SetBits(pin.mask())
		}
	case hal.GPIOInputPulldown, hal.GPIOOutputOD, hal.GPIOAlternate, hal.GPIOAlternateOD:
		return errcode.NotSupported
	default:
		return errcode.InvalidParam
	}

	if cfg.Trigger != hal.GPIOTriggerNone {
		if err := g.configureTrigger(pin, cfg.Trigger); err != nil {
			return err
		}
	}
	g.slots[pin.id].trigger = cfg.Trigger
	return nil
}

// configureTrigger programs the edge selection. Detecting an unsupported
// trigger happens here, at Configure time, so callers learn about the
// limitation before they try to register a handler.
func (g *gpioDriver) configureTrigger(pin Pin, tr hal.GPIOTrigger) error {
	c := g.chip
	switch pin.id {
	case c.INT0Pin().id, c.INT1Pin().id:
		var isc uint8
		switch tr {
		case hal.GPIOTriggerRising:
			isc = 0b11
		case hal.GPIOTriggerFalling:
			isc = 0b10
		case hal.GPIOTriggerBoth:
			isc = 0b01
		default:
			return errcode.InvalidParam
		}
		shift := uint8(0)
		if pin.id == c.INT1Pin().id {
			shift = 2
		}
		c.EICRA.Set(c.EICRA.Get()&^(0b11<<shift) | isc<<shift)
		return nil
	default:
		// Pin-change interrupts fire on any change.
		if tr != hal.GPIOTriggerBoth {
			return errcode.NotSupported
		}
		return nil
	}
}

func (g *gpioDriver) Write(p hal.Pin, state bool) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	if state {
		pin.port.PORT.SetBits(pin.mask())
	} else {
		pin.port.PORT.ClearBits(pin.mask())
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
	*state = pin.port.PIN.HasBits(pin.mask())
	return nil
}

func (g *gpioDriver) Toggle(p hal.Pin) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	// Read-modify-write on PORT; guard against ISRs touching the same
	// register byte.
	g.chip.IRQ.Critical(func() {
		if pin.port.PORT.HasBits(pin.mask()) {
			pin.port.PORT.ClearBits(pin.mask())
		} else {
			pin.port.PORT.SetBits(pin.mask())
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
	slot := &g.slots[pin.id]
	slot.handler = handler
	slot.userData = userData
	slot.used = true
	slot.prev = pin.port.PIN.HasBits(pin.mask())
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
	g.slots[pin.id] = gpioSlot{trigger: g.slots[pin.id].trigger}
	return nil
}

func (g *gpioDriver) EnableIRQ(p hal.Pin) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	c := g.chip
	switch pin.id {
	case c.INT0Pin().id:
		c.EIMSK.SetBits(INT0)
	case c.INT1Pin().id:
		c.EIMSK.SetBits(INT1)
	default:
		c.pcmsk(pin).SetBits(pin.mask())
		c.PCICR.SetBits(c.pcie(pin))
	}
	return nil
}

func (g *gpioDriver) DisableIRQ(p hal.Pin) error {
	pin, err := g.pin(p)
	if err != nil {
		return err
	}
	c := g.chip
	switch pin.id {
	case c.INT0Pin().id:
		c.EIMSK.ClearBits(INT0)
	case c.INT1Pin().id:
		c.EIMSK.ClearBits(INT1)
	default:
		mask := c.pcmsk(pin)
		mask.ClearBits(pin.mask())
		// The port's pin-change source stays armed while any pin in the
		// port still needs it.
		if mask.Get() == 0 {
			c.PCICR.ClearBits(c.pcie(pin))
		}
	}
	return nil
}

// installISRs wires the external- and pin-change vectors to callback
// dispatch. The handlers capture pin identity and hand off; all edge
// bookkeeping is bounded work.
func (g *gpioDriver) installISRs() {
	c := g.chip
	c.IRQ.Handle(VectInt0, func() { g.fire(c.INT0Pin()) })
	c.IRQ.Handle(VectInt1, func() { g.fire(c.INT1Pin()) })
	c.IRQ.Handle(VectPCInt0, func() { g.pinChange(&c.PortB, portB, &c.PCMSK0) })
	c.IRQ.Handle(VectPCInt1, func() { g.pinChange(&c.PortC, portC, &c.PCMSK1) })
	c.IRQ.Handle(VectPCInt2, func() { g.pinChange(&c.PortD, portD, &c.PCMSK2) })
}

func (g *gpioDriver) fire(pin Pin) {
	slot := &g.slots[pin.id]
	if slot.handler == nil {
		return
	}
	ev := hal.GPIOEvent{Pin: pin, UserData: slot.userData}
	slot.handler(&ev)
}

// pinChange demultiplexes a port-wide pin-change vector into per-pin
// callbacks by comparing the sampled level against the last one seen.
func (g *gpioDriver) pinChange(port *Port, portIdx uint8, pcmsk *mmio.Reg8) {
	levels := port.PIN.Get()
	armed := pcmsk.Get()
	for bit := uint8(0); bit < pinsPerPort; bit++ {
		m := uint8(1) << bit
		if armed&m == 0 {
			continue
		}
		slot := &g.slots[portIdx*pinsPerPort+bit]
		cur := levels&m != 0
		if !slot.used || cur == slot.prev {
			continue
		}
		slot.prev = cur
		if slot.handler != nil {
			ev := hal.GPIOEvent{
				Pin:      Pin{port: port, id: portIdx*pinsPerPort + bit, bit: bit},
				UserData: slot.userData,
			}
			slot.handler(&ev)
		}
	}
}
