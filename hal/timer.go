package hal

// TimerMode selects how the counter runs.
type TimerMode uint8

const (
	TimerModeOneShot TimerMode = iota
	TimerModeContinuous
	TimerModePWM
)

// TimerEvent identifies an interrupt source of the timer.
type TimerEvent uint8

const (
	TimerEventOverflow TimerEvent = iota
	TimerEventCompare
	TimerEventCapture
)

// TimerConfig describes the timer setup. PWM mode requires Period > 0; the
// driver rejects inconsistent combinations with InvalidParam.
type TimerConfig struct {
	Frequency uint32 // requested counter clock in Hz
	Mode      TimerMode
	Period    uint32 // period in ticks (PWM top)
	Channel   uint8
}

// TimerEventInfo is passed by reference to a timer callback.
type TimerEventInfo struct {
	Event    TimerEvent
	Value    uint32 // counter/compare/capture value at dispatch
	UserData any
}

type TimerEventHandler func(ev *TimerEventInfo)

// Timer drives one hardware timer instance with optional PWM output.
//
// Stop clears the clock-select entirely; counter state is lost and Start
// re-arms from zero. SetPeriod is mode-sensitive: in PWM mode it rewrites
// the top register directly, in other modes it only takes observable effect
// once an overflow callback is registered (which enables the overflow
// interrupt). Unit conversions assume the prescaler fixed at Init.
type Timer interface {
	Init(cfg *TimerConfig) error
	Deinit() error

	Start() error
	Stop() error
	SetPeriod(period uint32) error
	GetValue(value *uint32) error
	// SetCompare accepts channels 0 and 1 only.
	SetCompare(channel uint8, value uint32) error
	// SetPWMDutyCycle accepts 0..100 and requires PWM mode.
	SetPWMDutyCycle(channel uint8, dutyCycle uint8) error

	UsToTicks(us uint32) uint32
	TicksToUs(ticks uint32) uint32

	RegisterCallback(event TimerEvent, channel uint8, handler TimerEventHandler, userData any) error
	UnregisterCallback(event TimerEvent, channel uint8) error
}
