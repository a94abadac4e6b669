package hal

// GPIOMode selects the electrical configuration of a pin.
type GPIOMode uint8

const (
	GPIOInput         GPIOMode = iota // input, floating
	GPIOInputPullup                   // input with pull-up
	GPIOInputPulldown                 // input with pull-down
	GPIOOutput                        // push-pull output
	GPIOOutputOD                      // open-drain output
	GPIOAnalog                        // analog function, digital buffer off
	GPIOAlternate                     // alternate peripheral function
	GPIOAlternateOD                   // alternate function, open-drain
)

// GPIOSpeed is the drive-strength/slew hint. Platforms without slew control
// ignore it.
type GPIOSpeed uint8

const (
	GPIOSpeedLow GPIOSpeed = iota
	GPIOSpeedMedium
	GPIOSpeedHigh
	GPIOSpeedVeryHigh
)

// GPIOTrigger selects the edge(s) that raise a pin interrupt.
type GPIOTrigger uint8

const (
	GPIOTriggerNone GPIOTrigger = iota
	GPIOTriggerRising
	GPIOTriggerFalling
	GPIOTriggerBoth
)

// GPIOConfig describes the desired pin setup. A platform that cannot realise
// the exact combination must reject it with NotSupported at Configure time,
// not approximate it and not defer the failure to RegisterIRQ.
type GPIOConfig struct {
	Mode      GPIOMode
	Speed     GPIOSpeed
	Trigger   GPIOTrigger
	Alternate uint8 // alternate function index, if applicable
}

// GPIOEvent is passed by reference to an edge-interrupt handler. It is
// stack-allocated at dispatch time and must not be retained.
type GPIOEvent struct {
	Pin      Pin
	UserData any
}

// GPIOHandler runs in interrupt context: bounded work only, no blocking HAL
// calls.
type GPIOHandler func(ev *GPIOEvent)

type GPIO interface {
	Init() error
	Deinit() error
	Configure(pin Pin, cfg *GPIOConfig) error
	Write(pin Pin, state bool) error
	Read(pin Pin, state *bool) error
	// Toggle flips the output bit atomically with respect to the port
	// register itself; platforms whose toggle is a read-modify-write
	// guard it against ISRs touching the same register.
	Toggle(pin Pin) error

	RegisterIRQ(pin Pin, handler GPIOHandler, userData any) error
	UnregisterIRQ(pin Pin) error
	EnableIRQ(pin Pin) error
	DisableIRQ(pin Pin) error
}
