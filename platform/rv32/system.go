package rv32

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
)

const tickHz = 1000

// clintTicksPerMs is how far mtimecmp advances per millisecond tick. The
// low-frequency clock does not divide evenly into milliseconds; the
// remainder is under 3% and irrelevant at this resolution.
const clintTicksPerMs = LFClkHz / tickHz

// systemDriver owns the CLINT machine timer. Each compare interrupt
// advances the millisecond tick and re-arms mtimecmp.
type systemDriver struct {
	chip  *Chip
	ticks uint32

	initialized bool
}

func newSystem(c *Chip) *systemDriver { return &systemDriver{chip: c} }

func (s *systemDriver) Init() error {
	c := s.chip
	s.ticks = 0
	c.CLINT.MTimeCmp.Set(c.CLINT.MTime.Get() + clintTicksPerMs)
	c.IRQ.Handle(VectMachineTimer, func() {
		s.ticks++
		c.CLINT.MTimeCmp.Set(c.CLINT.MTime.Get() + clintTicksPerMs)
	})
	c.IRQ.Enable()
	s.initialized = true
	return nil
}

func (s *systemDriver) Deinit() error {
	s.chip.IRQ.Handle(VectMachineTimer, nil)
	s.initialized = false
	return nil
}

func (s *systemDriver) Reset(resetType hal.SystemResetType) error {
	c := s.chip
	switch resetType {
	case hal.SystemResetSoft, hal.SystemResetHard, hal.SystemResetWatchdog:
		// Arm the AON watchdog with an immediate bite and wait for it.
		c.AON.WDogCount.Set(0)
		c.AON.WDogCfg.Set(WDogEnable)
	default:
		return errcode.InvalidParam
	}
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
	return errcode.Wrap("system.get_uptime", s.GetTick(uptime))
}

func (s *systemDriver) now() uint32 {
	var t uint32
	s.chip.IRQ.Critical(func() { t = s.ticks })
	return t
}
