package avr_test

import (
	"testing"

	"eerhal-go/errcode"
	"eerhal-go/hal"
)

func adcConfig(ref hal.ADCReference) *hal.ADCConfig {
	return &hal.ADCConfig{
		Reference:  ref,
		Prescaler:  hal.ADCPrescaler128,
		Resolution: hal.ADCResolution10,
		Mode:       hal.ADCModeSingle,
	}
}

func TestADCRead(t *testing.T) {
	_, m, h := newTestHAL(t)
	if err := h.ADC.Init(adcConfig(hal.ADCRefVCC)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	m.ADCSetChannel(3, 768)

	var v uint16
	if err := h.ADC.Read(3, &v); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != 768 {
		t.Fatalf("raw = %d, want 768", v)
	}
}

func TestADCReadVoltageInternalRef(t *testing.T) {
	_, m, h := newTestHAL(t)
	if err := h.ADC.Init(adcConfig(hal.ADCRefInternal)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	m.ADCSetChannel(0, 512)

	var v float32
	if err := h.ADC.ReadVoltage(0, &v); err != nil {
		t.Fatalf("ReadVoltage: %v", err)
	}
	// 512/1023 of the 1.1 V bandgap.
	want := float32(512) * 1.1 / 1023
	if v < want-0.001 || v > want+0.001 {
		t.Fatalf("voltage = %v, want %v", v, want)
	}
}

func TestADCReadVoltageVCCRef(t *testing.T) {
	_, m, h := newTestHAL(t)
	if err := h.ADC.Init(adcConfig(hal.ADCRefVCC)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	m.ADCSetChannel(1, 1023)

	var v float32
	if err := h.ADC.ReadVoltage(1, &v); err != nil {
		t.Fatalf("ReadVoltage: %v", err)
	}
	if v < 4.99 || v > 5.01 {
		t.Fatalf("full-scale voltage = %v, want 5.0", v)
	}
}

func TestADCConversionCallback(t *testing.T) {
	_, m, h := newTestHAL(t)
	if err := h.ADC.Init(adcConfig(hal.ADCRefVCC)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	m.ADCSetChannel(5, 100)

	var got *hal.ADCConversion
	if err := h.ADC.RegisterCallback(5, func(conv *hal.ADCConversion) { got = conv }, nil); err != nil {
		t.Fatalf("RegisterCallback: %v", err)
	}
	h.System.EnableInterrupts()

	if err := h.ADC.StartConversion(5); err != nil {
		t.Fatalf("StartConversion: %v", err)
	}
	if got == nil || got.Channel != 5 || got.Value != 100 {
		t.Fatalf("conversion event = %+v", got)
	}

	var complete bool
	if err := h.ADC.IsConversionComplete(5, &complete); err != nil || !complete {
		t.Fatalf("IsConversionComplete = %v, %v", complete, err)
	}
}

func TestADCCallbackRetiresWithLastChannel(t *testing.T) {
	c, _, h := newTestHAL(t)
	if err := h.ADC.Init(adcConfig(hal.ADCRefVCC)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	h.ADC.RegisterCallback(0, func(*hal.ADCConversion) {}, nil)
	h.ADC.RegisterCallback(1, func(*hal.ADCConversion) {}, nil)

	if err := h.ADC.UnregisterCallback(0); err != nil {
		t.Fatalf("UnregisterCallback: %v", err)
	}
	if !c.ADCSRA.HasBits(1 << 3) {
		t.Fatalf("ADIE dropped while a handler remains")
	}
	if err := h.ADC.UnregisterCallback(1); err != nil {
		t.Fatalf("UnregisterCallback: %v", err)
	}
	if c.ADCSRA.HasBits(1 << 3) {
		t.Fatalf("ADIE still set with no handlers")
	}
}

func TestADCInvalidChannel(t *testing.T) {
	_, _, h := newTestHAL(t)
	if err := h.ADC.Init(adcConfig(hal.ADCRefVCC)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var v uint16
	if err := h.ADC.Read(8, &v); errcode.Of(err) != errcode.InvalidParam {
		t.Fatalf("got %v, want invalid_param", err)
	}
}

func TestADCContinuousModeRestartsFromISR(t *testing.T) {
	c, m, h := newTestHAL(t)
	cfg := adcConfig(hal.ADCRefVCC)
	cfg.Mode = hal.ADCModeContinuous
	if err := h.ADC.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !c.ADCSRA.HasBits(1 << 3) {
		t.Fatalf("continuous init left ADIE clear")
	}
	m.ADCSetChannel(2, 300)
	h.System.EnableInterrupts()

	var samples int
	err := h.ADC.RegisterCallback(2, func(conv *hal.ADCConversion) {
		if conv.Value != 300 {
			t.Errorf("sample = %d, want 300", conv.Value)
		}
		samples++
		if samples == 3 {
			h.ADC.StopConversion()
		}
	}, nil)
	if err != nil {
		t.Fatalf("RegisterCallback: %v", err)
	}

	// One start; the complete ISR chains the rest until the callback
	// stops the run.
	if err := h.ADC.StartConversion(2); err != nil {
		t.Fatalf("StartConversion: %v", err)
	}
	if samples != 3 {
		t.Fatalf("samples = %d, want 3", samples)
	}
	if c.ADCSRA.HasBits(1 << 6) {
		t.Fatalf("ADSC still set after StopConversion")
	}
}

func TestADCContinuousKeepsInterruptWithoutHandlers(t *testing.T) {
	c, _, h := newTestHAL(t)
	cfg := adcConfig(hal.ADCRefVCC)
	cfg.Mode = hal.ADCModeContinuous
	if err := h.ADC.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	h.ADC.RegisterCallback(4, func(*hal.ADCConversion) {}, nil)
	if err := h.ADC.UnregisterCallback(4); err != nil {
		t.Fatalf("UnregisterCallback: %v", err)
	}
	if !c.ADCSRA.HasBits(1 << 3) {
		t.Fatalf("ADIE dropped in continuous mode")
	}
}
