package hal

// PowerMode is the current operating mode.
type PowerMode uint8

const (
	PowerModeRun PowerMode = iota
	PowerModeSleep
	PowerModeDeepSleep
	PowerModeStandby
)

// WakeupSource identifies what resumed execution from a low-power mode.
type WakeupSource uint8

const (
	WakeupPin WakeupSource = iota
	WakeupRTC
	WakeupTimer
	WakeupWatchdog
)

// Power manages low-power modes and wake sources.
//
// SetMode to any sleep variant arms the hardware sleep mode, enables global
// interrupts so a wake source can fire, enters the low-power state and
// returns only after a wake interrupt resumed execution; sleep is disabled
// again before it returns. The last wake source is recorded by whichever
// ISR actually fired and read back via GetWakeupSource.
type Power interface {
	Init() error
	Deinit() error

	SetMode(mode PowerMode) error
	GetMode(mode *PowerMode) error

	EnableWakeupSource(source WakeupSource, pinOrID uint8) error
	DisableWakeupSource(source WakeupSource, pinOrID uint8) error
	GetWakeupSource(source *WakeupSource, pinOrID *uint8) error

	GetVoltage(voltageMV *uint16) error
	GetPowerConsumption(powerMW *uint16) error
}
