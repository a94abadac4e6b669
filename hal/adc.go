package hal

// ADCReference selects the conversion reference source.
type ADCReference uint8

const (
	ADCRefVCC ADCReference = iota
	ADCRefExternal
	ADCRefInternal
)

// ADCPrescaler divides the peripheral clock for the converter.
type ADCPrescaler uint8

const (
	ADCPrescaler2 ADCPrescaler = iota
	ADCPrescaler4
	ADCPrescaler8
	ADCPrescaler16
	ADCPrescaler32
	ADCPrescaler64
	ADCPrescaler128
)

// ADCResolution is the assumed sample width.
type ADCResolution uint8

const (
	ADCResolution8 ADCResolution = iota
	ADCResolution10
	ADCResolution12
	ADCResolution16
)

// ADCMode selects single or continuous conversion.
type ADCMode uint8

const (
	ADCModeSingle ADCMode = iota
	ADCModeContinuous
)

// ADCConfig describes the converter setup applied at Init.
type ADCConfig struct {
	Reference  ADCReference
	Prescaler  ADCPrescaler
	Resolution ADCResolution
	Mode       ADCMode
}

// ADCConversion is the conversion-complete event.
type ADCConversion struct {
	Channel  uint8
	Value    uint16
	UserData any
}

type ADCConversionHandler func(conv *ADCConversion)

// ADC is a single converter multiplexed across channels. Read selects the
// channel, starts a conversion when none is in flight, and block-polls to
// completion: it is start-and-wait, never non-blocking. ReadVoltage scales
// the raw value by the reference voltage inferred from the configuration
// (internal reference 1.1 V, else a 5.0 V placeholder); this is a coarse
// approximation, not a calibrated conversion.
type ADC interface {
	Init(cfg *ADCConfig) error
	Deinit() error

	StartConversion(channel uint8) error
	StopConversion() error
	IsConversionComplete(channel uint8, complete *bool) error
	Read(channel uint8, value *uint16) error
	ReadVoltage(channel uint8, voltage *float32) error

	// Callbacks are per channel; the conversion-complete interrupt is
	// shared and is disabled only once no channel retains a handler.
	RegisterCallback(channel uint8, handler ADCConversionHandler, userData any) error
	UnregisterCallback(channel uint8) error
}
