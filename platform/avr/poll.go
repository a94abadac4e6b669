package avr

import (
	"eerhal-go/errcode"
	"eerhal-go/internal/mmio"
)

// waitBits busy-polls reg until every bit of mask is set. A timeoutMS of 0
// blocks indefinitely; otherwise the loop gives up once the millisecond
// tick has advanced past the budget. When the tick timer is not running the
// tick never advances and the timeout degrades to advisory.
func waitBits(c *Chip, reg *mmio.Reg8, mask uint8, now func() uint32, timeoutMS uint32) error {
	start := now()
	for !reg.HasBits(mask) {
		if timeoutMS > 0 && now()-start >= timeoutMS {
			return errcode.Timeout
		}
		c.idle()
	}
	return nil
}
