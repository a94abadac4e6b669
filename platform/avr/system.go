package avr

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
)

// tickHz is the system tick rate driven by Timer0 compare match.
const tickHz = 1000

// systemDriver owns the millisecond tick counter and global interrupt
// control. The counter is written only by the Timer0 compare ISR and read
// under a critical section, so a multi-byte read cannot tear.
type systemDriver struct {
	chip        *Chip
	ticks       uint32 // ISR-owned; read via IRQ.Critical only
	initialized bool
}

func newSystem(c *Chip) *systemDriver { return &systemDriver{chip: c} }

func (s *systemDriver) Init() error {
	if s.initialized {
		return nil
	}
	c := s.chip

	// Timer0 in CTC mode, prescaler 64, compare for a 1 ms period.
	c.TCCR0A.Set(WGM01)
	c.TCCR0B.Set(CS01 | CS00)
	c.OCR0A.Set(uint8(CPUHz/64/tickHz - 1))
	c.TIMSK0.Set(OCIE0A)

	c.IRQ.Handle(VectTimer0CompA, func() { s.ticks++ })
	c.IRQ.Enable()

	s.initialized = true
	return nil
}

func (s *systemDriver) Deinit() error {
	if !s.initialized {
		return nil
	}
	s.chip.TIMSK0.ClearBits(OCIE0A)
	s.chip.IRQ.Handle(VectTimer0CompA, nil)
	s.initialized = false
	return nil
}

func (s *systemDriver) Reset(resetType hal.SystemResetType) error {
	c := s.chip
	switch resetType {
	case hal.SystemResetSoft:
		// Jump to the entry point: on host builds there is nothing to
		// jump to, so the request parks the core like the hard path.
	case hal.SystemResetWatchdog, hal.SystemResetHard:
		// Hard reset is not possible in software; fall back to the
		// watchdog with the shortest timeout.
		c.WDTCSR.Set(WDCE | WDE)
		c.WDTCSR.Set(WDE)
	default:
		return errcode.InvalidParam
	}
	// Terminal: wait for the reset to take effect.
	for {
		c.idle()
	}
}

func (s *systemDriver) DisableInterrupts() error {
	s.chip.IRQ.Disable()
	return nil
}

func (s *systemDriver) EnableInterrupts() error {
	s.chip.IRQ.Enable()
	return nil
}

func (s *systemDriver) DelayMs(ms uint32) error {
	for ; ms > 0; ms-- {
		s.DelayUs(1000)
	}
	return nil
}

func (s *systemDriver) DelayUs(us uint32) error {
	// Busy wait, independent of the tick counter.
	for ; us > 0; us-- {
		s.chip.idle()
	}
	return nil
}

func (s *systemDriver) GetTick(ticks *uint32) error {
	if ticks == nil {
		return errcode.InvalidParam
	}
	*ticks = s.now()
	return nil
}

func (s *systemDriver) GetUptimeMs(uptime *uint32) error {
	// Each tick is one millisecond.
	return errcode.Wrap("system.get_uptime", s.GetTick(uptime))
}

// now is the time source handed to the other drivers' poll loops.
func (s *systemDriver) now() uint32 {
	var t uint32
	s.chip.IRQ.Critical(func() { t = s.ticks })
	return t
}
