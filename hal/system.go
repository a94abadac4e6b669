package hal

// SystemResetType selects the reset mechanism.
type SystemResetType uint8

const (
	SystemResetSoft SystemResetType = iota
	SystemResetHard
	SystemResetWatchdog
)

// System owns the monotonic millisecond tick (incremented by a dedicated
// timer ISR) and global interrupt control.
//
// GetTick disables interrupts around the read so the multi-byte counter
// cannot tear. DelayMs/DelayUs are busy-wait loops independent of the tick.
// Reset with the watchdog or hard type never returns.
type System interface {
	Init() error
	Deinit() error

	Reset(resetType SystemResetType) error
	DisableInterrupts() error
	EnableInterrupts() error

	DelayMs(ms uint32) error
	DelayUs(us uint32) error
	GetTick(ticks *uint32) error
	GetUptimeMs(uptime *uint32) error
}
