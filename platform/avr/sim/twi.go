package sim

import "eerhal-go/platform/avr"

// I2CSlave is an attachable bus device. Received accumulates every byte
// written to it; Respond is drained one byte per master read, 0xFF after.
// NackData makes it refuse data bytes, which the master sees as a failed
// transaction.
type I2CSlave struct {
	Received []byte
	Respond  []byte
	NackData bool
}

const (
	twiIdle = iota
	twiAddr
	twiWrite
	twiRead
)

// twiModel tracks bus phase across TWCR writes. Each write completes one
// bus operation and leaves the matching status code in TWSR.
type twiModel struct {
	m       *Machine
	slaves  map[uint16]*I2CSlave
	active  *I2CSlave
	phase   int
	started bool
}

// I2CAttach puts a slave on the bus at a 7-bit address.
func (m *Machine) I2CAttach(addr uint16) *I2CSlave {
	if m.twi.slaves == nil {
		m.twi.slaves = make(map[uint16]*I2CSlave)
	}
	s := &I2CSlave{}
	m.twi.slaves[addr] = s
	return s
}

func (t *twiModel) control(v uint8) {
	c := t.m.chip
	if v&avr.TWEN == 0 {
		t.phase = twiIdle
		t.started = false
		return
	}

	switch {
	case v&avr.TWSTO != 0:
		t.phase = twiIdle
		t.started = false
		t.active = nil
		c.TWCR.PokeClear(avr.TWSTO)
		t.status(avr.TWStatusMask)
	case v&avr.TWSTA != 0:
		if t.started {
			t.status(avr.TWRestartSent)
		} else {
			t.status(avr.TWStartSent)
		}
		t.started = true
		t.phase = twiAddr
	case v&avr.TWINT != 0:
		t.data(v)
	}
}

func (t *twiModel) data(v uint8) {
	c := t.m.chip
	switch t.phase {
	case twiAddr:
		sla := c.TWDR.Get()
		addr := uint16(sla >> 1)
		read := sla&1 != 0
		t.active = t.slaves[addr]
		switch {
		case t.active == nil && read:
			t.status(avr.TWSlaRNack)
			t.phase = twiIdle
		case t.active == nil:
			t.status(avr.TWSlaWNack)
			t.phase = twiIdle
		case read:
			t.status(avr.TWSlaRAck)
			t.phase = twiRead
		default:
			t.status(avr.TWSlaWAck)
			t.phase = twiWrite
		}
	case twiWrite:
		b := c.TWDR.Get()
		if t.active.NackData {
			t.status(avr.TWDataSentNack)
			return
		}
		t.active.Received = append(t.active.Received, b)
		t.status(avr.TWDataSentAck)
	case twiRead:
		b := uint8(0xFF)
		if len(t.active.Respond) > 0 {
			b = t.active.Respond[0]
			t.active.Respond = t.active.Respond[1:]
		}
		c.TWDR.Poke(b)
		if v&avr.TWEA != 0 {
			t.status(avr.TWDataReceivedAck)
		} else {
			t.status(avr.TWDataReceivedNack)
			t.phase = twiIdle
		}
	}
}

func (t *twiModel) status(code uint8) {
	t.m.chip.TWSR.Poke(code)
}
