package rv32

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
	"eerhal-go/internal/irq"
	"eerhal-go/internal/mmio"
)

// powerDriver manages the AON power domain. Sleep writes the PMU sleep
// register and parks until a wake interrupt lands; pin wakes route through
// the GPIO edge sources, timer wakes through the machine timer, and the
// AON block supplies true RTC and watchdog wake sources.
//
// The machine-timer vector carries the millisecond tick ISR and the GPIO
// vectors carry the edge dispatch, so wake stamps chain onto the installed
// handler instead of replacing it.
type powerDriver struct {
	chip *Chip

	mode       hal.PowerMode
	wakeSource hal.WakeupSource
	wakeID     uint8
	woken      bool

	chains map[irq.Vector]wakeChain

	initialized bool
}

// wakeChain remembers the displaced handler and whether the enable bit was
// already set, so DisableWakeupSource restores both.
type wakeChain struct {
	prev    irq.Handler
	hadMask bool
}

func newPower(c *Chip) *powerDriver { return &powerDriver{chip: c} }

func (p *powerDriver) Init() error {
	p.mode = hal.PowerModeRun
	p.woken = false
	p.chains = make(map[irq.Vector]wakeChain)
	p.initialized = true
	return nil
}

func (p *powerDriver) Deinit() error {
	c := p.chip
	c.AON.RTCCfg.ClearBits(RTCEnable)
	c.AON.WDogCfg.ClearBits(WDogEnable)
	p.initialized = false
	return nil
}

func (p *powerDriver) SetMode(mode hal.PowerMode) error {
	if !p.initialized {
		return errcode.Error
	}
	c := p.chip
	switch mode {
	case hal.PowerModeRun:
		p.mode = hal.PowerModeRun
		return nil
	case hal.PowerModeSleep, hal.PowerModeStandby, hal.PowerModeDeepSleep:
	default:
		return errcode.InvalidParam
	}

	p.mode = mode
	p.woken = false
	c.AON.PMUSleep.Set(1)
	c.IRQ.Enable()
	for !p.woken {
		c.idle()
	}
	c.AON.PMUSleep.Set(0)
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
		if pinOrID >= NumPins {
			return errcode.InvalidParam
		}
		p.chain(GPIOVector(pinOrID), &c.GPIO.RiseIE, 1<<pinOrID, hal.WakeupPin, pinOrID)
	case hal.WakeupTimer:
		// The tick ISR stays in place; the wake stamp rides behind it.
		p.chain(VectMachineTimer, nil, 0, hal.WakeupTimer, pinOrID)
	case hal.WakeupRTC:
		p.chain(VectRTC, &c.AON.RTCCfg, RTCEnable, hal.WakeupRTC, pinOrID)
	case hal.WakeupWatchdog:
		p.chain(VectWDog, &c.AON.WDogCfg, WDogEnable, hal.WakeupWatchdog, pinOrID)
	default:
		return errcode.InvalidParam
	}
	return nil
}

// chain wraps the handler on v with a wake stamp and arms the enable bit
// when one applies.
func (p *powerDriver) chain(v irq.Vector, mask *mmio.Reg32, bit uint32, source hal.WakeupSource, id uint8) {
	if _, ok := p.chains[v]; ok {
		return
	}
	prev := p.chip.IRQ.Handler(v)
	st := wakeChain{prev: prev}
	if mask != nil {
		st.hadMask = mask.HasBits(bit)
	}
	p.chains[v] = st
	p.chip.IRQ.Handle(v, func() {
		if prev != nil {
			prev()
		}
		p.wake(source, id)
	})
	if mask != nil {
		mask.SetBits(bit)
	}
}

// unchain restores the displaced handler and enable bit. A source that was
// never enabled is left alone.
func (p *powerDriver) unchain(v irq.Vector, mask *mmio.Reg32, bit uint32) {
	st, ok := p.chains[v]
	if !ok {
		return
	}
	p.chip.IRQ.Handle(v, st.prev)
	if mask != nil && !st.hadMask {
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
		if pinOrID >= NumPins {
			return errcode.InvalidParam
		}
		p.unchain(GPIOVector(pinOrID), &c.GPIO.RiseIE, 1<<pinOrID)
	case hal.WakeupTimer:
		p.unchain(VectMachineTimer, nil, 0)
	case hal.WakeupRTC:
		p.unchain(VectRTC, &c.AON.RTCCfg, RTCEnable)
	case hal.WakeupWatchdog:
		p.unchain(VectWDog, &c.AON.WDogCfg, WDogEnable)
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

func (p *powerDriver) GetVoltage(voltageMV *uint16) error {
	if voltageMV == nil {
		return errcode.InvalidParam
	}
	*voltageMV = 3300
	return nil
}

func (p *powerDriver) GetPowerConsumption(powerMW *uint16) error {
	if powerMW == nil {
		return errcode.InvalidParam
	}
	switch p.mode {
	case hal.PowerModeRun:
		*powerMW = 30
	case hal.PowerModeSleep:
		*powerMW = 5
	default:
		*powerMW = 1
	}
	return nil
}

func (p *powerDriver) wake(source hal.WakeupSource, id uint8) {
	p.wakeSource = source
	p.wakeID = id
	p.woken = true
}
