package rv32

import (
	"eerhal-go/errcode"
	"eerhal-go/internal/mmio"
)

// waitClear polls reg until the masked bits read zero, bounded by
// timeoutMS when the tick is running.
func waitClear(c *Chip, reg *mmio.Reg32, mask uint32, now func() uint32, timeoutMS uint32) error {
	start := now()
	for reg.Get()&mask != 0 {
		if timeoutMS != 0 && now()-start >= timeoutMS {
			return errcode.Timeout
		}
		c.idle()
	}
	return nil
}
