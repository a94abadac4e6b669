package avr

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
	"eerhal-go/internal/irq"
	"eerhal-go/internal/mmio"
)

// powerDriver manages the sleep controller. SetMode programs SMCR,
// enables interrupts and idles until a wake vector has fired; the wake
// ISRs stamp which source it was. There is no RTC on this part, so that
// source is rejected outright.
//
// Wake vectors are shared with other drivers (INT0/INT1 belong to the
// GPIO edge dispatch), so wake stamps chain onto whatever handler is
// already installed instead of replacing it.
type powerDriver struct {
	chip *Chip

	mode       hal.PowerMode
	wakeSource hal.WakeupSource
	wakeID     uint8
	woken      bool

	chains map[irq.Vector]wakeChain

	initialized bool
}

// wakeChain remembers what was on the vector before the wake wrapper so
// DisableWakeupSource can put it back, mask bit included.
type wakeChain struct {
	prev    irq.Handler
	hadMask bool
}

func newPower(c *Chip) *powerDriver { return &powerDriver{chip: c} }

func (p *powerDriver) Init() error {
	p.chip.SMCR.Set(0)
	p.mode = hal.PowerModeRun
	p.woken = false
	p.chains = make(map[irq.Vector]wakeChain)
	p.initialized = true
	return nil
}

func (p *powerDriver) Deinit() error {
	p.chip.SMCR.Set(0)
	p.chip.WDTCSR.ClearBits(WDIE)
	p.initialized = false
	return nil
}

func (p *powerDriver) SetMode(mode hal.PowerMode) error {
	if !p.initialized {
		return errcode.Error
	}
	c := p.chip
	var sm uint8
	switch mode {
	case hal.PowerModeRun:
		c.SMCR.Set(0)
		p.mode = hal.PowerModeRun
		return nil
	case hal.PowerModeSleep:
		sm = smIdle
	case hal.PowerModeStandby:
		sm = smPowerSave
	case hal.PowerModeDeepSleep:
		sm = smPowerDown
	default:
		return errcode.InvalidParam
	}

	p.mode = mode
	p.woken = false
	c.SMCR.Set(sm | SE)
	c.IRQ.Enable()
	// Parked until a wake interrupt lands.
	for !p.woken {
		c.idle()
	}
	c.SMCR.ClearBits(SE)
	p.mode = hal.PowerModeRun
	return nil
}

func (p *powerDriver) GetMode(mode *hal.PowerMode) error {
	if mode == nil {
		return errcode.InvalidParam
	}
	*mode = p.mode
	return nil
}

func (p *powerDriver) EnableWakeupSource(source hal.WakeupSource, pinOrID uint8) error {
	if !p.initialized {
		return errcode.Error
	}
	c := p.chip
	switch source {
	case hal.WakeupPin:
		switch pinOrID {
		case 0:
			p.chain(VectInt0, &c.EIMSK, INT0, hal.WakeupPin, 0)
		case 1:
			p.chain(VectInt1, &c.EIMSK, INT1, hal.WakeupPin, 1)
		default:
			return errcode.InvalidParam
		}
	case hal.WakeupTimer:
		// Timer2 keeps counting in power-save.
		p.chain(VectTimer2Ovf, &c.TIMSK2, TOIE2, hal.WakeupTimer, pinOrID)
	case hal.WakeupWatchdog:
		p.chain(VectWDT, &c.WDTCSR, WDIE, hal.WakeupWatchdog, pinOrID)
	case hal.WakeupRTC:
		return errcode.NotSupported
	default:
		return errcode.InvalidParam
	}
	return nil
}

// chain wraps the current handler on v with a wake stamp and arms the
// enable bit, recording both so unchain can restore them.
func (p *powerDriver) chain(v irq.Vector, mask *mmio.Reg8, bit uint8, source hal.WakeupSource, id uint8) {
	if _, ok := p.chains[v]; ok {
		return
	}
	prev := p.chip.IRQ.Handler(v)
	p.chains[v] = wakeChain{prev: prev, hadMask: mask.HasBits(bit)}
	p.chip.IRQ.Handle(v, func() {
		if prev != nil {
			prev()
		}
		p.wake(source, id)
	})
	mask.SetBits(bit)
}

// unchain restores the handler and the enable bit the chain displaced. A
// source that was never enabled is left alone.
func (p *powerDriver) unchain(v irq.Vector, mask *mmio.Reg8, bit uint8) {
	st, ok := p.chains[v]
	if !ok {
		return
	}
	p.chip.IRQ.Handle(v, st.prev)
	if !st.hadMask {
		mask.ClearBits(bit)
	}
	delete(p.chains, v)
}

func (p *powerDriver) DisableWakeupSource(source hal.WakeupSource, pinOrID uint8) error {
	if !p.initialized {
		return errcode.Error
	}
	c := p.chip
	switch source {
	case hal.WakeupPin:
		switch pinOrID {
		case 0:
			p.unchain(VectInt0, &c.EIMSK, INT0)
		case 1:
			p.unchain(VectInt1, &c.EIMSK, INT1)
		default:
			return errcode.InvalidParam
		}
	case hal.WakeupTimer:
		p.unchain(VectTimer2Ovf, &c.TIMSK2, TOIE2)
	case hal.WakeupWatchdog:
		p.unchain(VectWDT, &c.WDTCSR, WDIE)
	case hal.WakeupRTC:
		return errcode.NotSupported
	default:
		return errcode.InvalidParam
	}
	return nil
}

func (p *powerDriver) GetWakeupSource(source *hal.WakeupSource, pinOrID *uint8) error {
	if source == nil || pinOrID == nil {
		return errcode.InvalidParam
	}
	if !p.woken {
		return errcode.Error
	}
	*source = p.wakeSource
	*pinOrID = p.wakeID
	return nil
}

// GetVoltage reports the nominal supply. Measuring the bandgap against
// VCC would need the ADC, which belongs to its own driver.
func (p *powerDriver) GetVoltage(voltageMV *uint16) error {
	if voltageMV == nil {
		return errcode.InvalidParam
	}
	*voltageMV = 5000
	return nil
}

// GetPowerConsumption is a datasheet-typical figure for the active mode,
// not a measurement.
func (p *powerDriver) GetPowerConsumption(powerMW *uint16) error {
	if powerMW == nil {
		return errcode.InvalidParam
	}
	switch p.mode {
	case hal.PowerModeRun:
		*powerMW = 50
	case hal.PowerModeSleep:
		*powerMW = 15
	case hal.PowerModeStandby:
		*powerMW = 1
	default:
		*powerMW = 0
	}
	return nil
}

func (p *powerDriver) wake(source hal.WakeupSource, id uint8) {
	p.wakeSource = source
	p.wakeID = id
	p.woken = true
}
