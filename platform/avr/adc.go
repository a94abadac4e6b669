package avr

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
)

const adcChannels = 8

// adcDriver runs the 10-bit successive-approximation converter. Read is
// start-and-wait: select the channel in ADMUX, set ADSC, poll it clear,
// then read the result word. Callbacks ride the shared conversion-complete
// vector and are demultiplexed by the channel bits latched in ADMUX.
type adcDriver struct {
	chip *Chip
	now  func() uint32

	reference hal.ADCReference
	mode      hal.ADCMode
	slots     [adcChannels]adcSlot

	running     bool
	initialized bool
}

type adcSlot struct {
	handler  hal.ADCConversionHandler
	userData any
}

func newADC(c *Chip, now func() uint32) *adcDriver {
	return &adcDriver{chip: c, now: now}
}

func (a *adcDriver) Init(cfg *hal.ADCConfig) error {
	if cfg == nil {
		return errcode.InvalidParam
	}
	if cfg.Resolution != hal.ADCResolution10 {
		return errcode.NotSupported
	}
	if cfg.Mode != hal.ADCModeSingle && cfg.Mode != hal.ADCModeContinuous {
		return errcode.InvalidParam
	}

	var admux uint8
	switch cfg.Reference {
	case hal.ADCRefVCC:
		admux = REFS0
	case hal.ADCRefExternal:
		// AREF pin, both REFS bits clear.
	case hal.ADCRefInternal:
		admux = REFS1 | REFS0
	default:
		return errcode.InvalidParam
	}

	var adps uint8
	switch cfg.Prescaler {
	case hal.ADCPrescaler2:
		adps = ADPS0
	case hal.ADCPrescaler4:
		adps = ADPS1
	case hal.ADCPrescaler8:
		adps = ADPS1 | ADPS0
	case hal.ADCPrescaler16:
		adps = ADPS2
	case hal.ADCPrescaler32:
		adps = ADPS2 | ADPS0
	case hal.ADCPrescaler64:
		adps = ADPS2 | ADPS1
	case hal.ADCPrescaler128:
		adps = ADPS2 | ADPS1 | ADPS0
	default:
		return errcode.InvalidParam
	}

	c := a.chip
	c.ADMUX.Set(admux)
	// Continuous mode is interrupt-paced: the complete ISR starts the next
	// conversion, so the interrupt enable goes in at init time.
	csra := ADEN | adps
	if cfg.Mode == hal.ADCModeContinuous {
		csra |= ADIE
	}
	c.ADCSRA.Set(csra)
	c.IRQ.Handle(VectADC, a.completeISR)
	a.reference = cfg.Reference
	a.mode = cfg.Mode
	a.initialized = true
	return nil
}

func (a *adcDriver) Deinit() error {
	c := a.chip
	c.ADCSRA.Set(0)
	c.IRQ.Handle(VectADC, nil)
	for i := range a.slots {
		a.slots[i] = adcSlot{}
	}
	a.initialized = false
	return nil
}

func (a *adcDriver) selectChannel(channel uint8) error {
	if channel >= adcChannels {
		return errcode.InvalidParam
	}
	c := a.chip
	c.ADMUX.Set(c.ADMUX.Get()&^admuxChannelMask | channel)
	return nil
}

func (a *adcDriver) StartConversion(channel uint8) error {
	if !a.initialized {
		return errcode.Error
	}
	if err := a.selectChannel(channel); err != nil {
		return err
	}
	c := a.chip
	if c.ADCSRA.HasBits(ADSC) {
		return errcode.Busy
	}
	// running goes first: the conversion can complete, and in continuous
	// mode restart itself, inside the ADSC write.
	a.running = true
	c.ADCSRA.SetBits(ADSC)
	return nil
}

func (a *adcDriver) StopConversion() error {
	if !a.initialized {
		return errcode.Error
	}
	a.running = false
	a.chip.ADCSRA.ClearBits(ADSC)
	return nil
}

func (a *adcDriver) IsConversionComplete(channel uint8, complete *bool) error {
	if channel >= adcChannels || complete == nil {
		return errcode.InvalidParam
	}
	if !a.initialized {
		return errcode.Error
	}
	*complete = !a.chip.ADCSRA.HasBits(ADSC)
	return nil
}

func (a *adcDriver) Read(channel uint8, value *uint16) error {
	if value == nil {
		return errcode.InvalidParam
	}
	if err := a.StartConversion(channel); err != nil {
		return err
	}
	c := a.chip
	// ADSC self-clears when the sample is latched.
	start := a.now()
	for c.ADCSRA.HasBits(ADSC) {
		if a.now()-start >= 100 {
			return errcode.Timeout
		}
		c.idle()
	}
	*value = c.ADCW.Get()
	return nil
}

func (a *adcDriver) ReadVoltage(channel uint8, voltage *float32) error {
	if voltage == nil {
		return errcode.InvalidParam
	}
	var raw uint16
	if err := a.Read(channel, &raw); err != nil {
		return err
	}
	vref := float32(5.0)
	if a.reference == hal.ADCRefInternal {
		vref = 1.1
	}
	*voltage = float32(raw) * vref / 1023
	return nil
}

func (a *adcDriver) RegisterCallback(channel uint8, handler hal.ADCConversionHandler, userData any) error {
	if channel >= adcChannels || handler == nil {
		return errcode.InvalidParam
	}
	a.slots[channel] = adcSlot{handler: handler, userData: userData}
	a.chip.ADCSRA.SetBits(ADIE)
	return nil
}

func (a *adcDriver) UnregisterCallback(channel uint8) error {
	if channel >= adcChannels {
		return errcode.InvalidParam
	}
	a.slots[channel] = adcSlot{}
	// In continuous mode the interrupt also paces the conversions, so it
	// stays enabled regardless of handlers.
	if a.mode == hal.ADCModeContinuous {
		return nil
	}
	for i := range a.slots {
		if a.slots[i].handler != nil {
			return nil
		}
	}
	a.chip.ADCSRA.ClearBits(ADIE)
	return nil
}

func (a *adcDriver) completeISR() {
	channel := a.chip.ADMUX.Get() & admuxChannelMask
	slot := &a.slots[channel]
	if slot.handler != nil {
		conv := hal.ADCConversion{Channel: channel, Value: a.chip.ADCW.Get(), UserData: slot.userData}
		slot.handler(&conv)
	}
	// The handler may have stopped the run; only then is the next
	// conversion skipped.
	if a.mode == hal.ADCModeContinuous && a.running {
		a.chip.ADCSRA.SetBits(ADSC)
	}
}
