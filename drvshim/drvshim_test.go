package drvshim

import (
	"bytes"
	"testing"

	"eerhal-go/hal"
)

// fakeI2C records which master operation the shim picked.
type fakeI2C struct {
	hal.I2C
	op   string
	addr uint16
	w, r []byte
}

func (f *fakeI2C) MasterTransmit(addr uint16, data []byte, _ uint32) error {
	f.op, f.addr, f.w = "tx", addr, data
	return nil
}

func (f *fakeI2C) MasterReceive(addr uint16, buf []byte, _ uint32) error {
	f.op, f.addr, f.r = "rx", addr, buf
	copy(buf, []byte{0xBE, 0xEF})
	return nil
}

func (f *fakeI2C) MasterTransmitReceive(addr uint16, tx, rx []byte, _ uint32) error {
	f.op, f.addr, f.w, f.r = "txrx", addr, tx, rx
	return nil
}

func TestI2CTxSelectsTransaction(t *testing.T) {
	tests := []struct {
		name string
		w, r []byte
		want string
	}{
		{"write only", []byte{1}, nil, "tx"},
		{"read only", nil, make([]byte, 2), "rx"},
		{"write then read", []byte{1}, make([]byte, 2), "txrx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeI2C{}
			if err := NewI2C(f).Tx(0x38, tt.w, tt.r); err != nil {
				t.Fatalf("Tx: %v", err)
			}
			if f.op != tt.want {
				t.Fatalf("op = %q, want %q", f.op, tt.want)
			}
			if f.addr != 0x38 {
				t.Fatalf("addr = %#x", f.addr)
			}
		})
	}
}

func TestI2CTxEmptyIsNoop(t *testing.T) {
	f := &fakeI2C{}
	if err := NewI2C(f).Tx(0x38, nil, nil); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if f.op != "" {
		t.Fatalf("bus touched on empty transfer: %q", f.op)
	}
}

// fakeSPI echoes tx into rx.
type fakeSPI struct {
	hal.SPI
	seen []byte
}

func (f *fakeSPI) Transfer(tx, rx []byte, _ uint32) error {
	f.seen = append(f.seen, tx...)
	copy(rx, tx)
	return nil
}

func TestSPITransferByte(t *testing.T) {
	f := &fakeSPI{}
	got, err := NewSPI(f).Transfer(0xA5)
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if got != 0xA5 {
		t.Fatalf("echo = %#x", got)
	}
}

// fakeUART serves reads from a script.
type fakeUART struct {
	hal.UART
	rx   []byte
	sent []byte
}

func (f *fakeUART) Transmit(data []byte, _ uint32) error {
	f.sent = append(f.sent, data...)
	return nil
}

func (f *fakeUART) Receive(buf []byte, _ uint32) error {
	for i := range buf {
		buf[i] = f.rx[0]
		f.rx = f.rx[1:]
	}
	return nil
}

func (f *fakeUART) IsRxReady(ready *bool) error {
	*ready = len(f.rx) > 0
	return nil
}

func TestUARTReadDrainsBuffered(t *testing.T) {
	f := &fakeUART{rx: []byte("ok\n")}
	u := NewUART(f)
	buf := make([]byte, 8)
	n, err := u.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 3 || !bytes.Equal(buf[:3], []byte("ok\n")) {
		t.Fatalf("read %d bytes %q", n, buf[:n])
	}

	if _, err := u.Write([]byte("hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(f.sent, []byte("hi")) {
		t.Fatalf("wrote %q", f.sent)
	}
}
