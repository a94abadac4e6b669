package avr_test

import (
	"bytes"
	"testing"

	"eerhal-go/errcode"
	"eerhal-go/hal"
)

func uartConfig() *hal.UARTConfig {
	return &hal.UARTConfig{
		Baudrate: 9600,
		Parity:   hal.UARTParityNone,
		StopBits: hal.UARTStopBits1,
		DataBits: hal.UARTDataBits8,
	}
}

func TestUARTInitDivisor(t *testing.T) {
	c, _, h := newTestHAL(t)
	if err := h.UART.Init(uartConfig()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// 9600 baud at 16 MHz in double-speed mode.
	if got := c.UBRRL.Get(); got != 207 {
		t.Fatalf("UBRRL = %d, want 207", got)
	}
	if got := c.UBRRH.Get(); got != 0 {
		t.Fatalf("UBRRH = %d, want 0", got)
	}
}

func TestUARTTransmit(t *testing.T) {
	_, m, h := newTestHAL(t)
	if err := h.UART.Init(uartConfig()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	msg := []byte("hello\r\n")
	if err := h.UART.Transmit(msg, 100); err != nil {
		t.Fatalf("Transmit: %v", err)
	}
	if !bytes.Equal(m.UARTTransmitted(), msg) {
		t.Fatalf("transmitted %q, want %q", m.UARTTransmitted(), msg)
	}
}

func TestUARTReceive(t *testing.T) {
	_, m, h := newTestHAL(t)
	if err := h.UART.Init(uartConfig()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	m.UARTFeed('o', 'k')

	var ready bool
	if err := h.UART.IsRxReady(&ready); err != nil || !ready {
		t.Fatalf("IsRxReady = %v, %v; want true", ready, err)
	}

	buf := make([]byte, 2)
	if err := h.UART.Receive(buf, 100); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(buf) != "ok" {
		t.Fatalf("received %q, want %q", buf, "ok")
	}
}

func TestUARTReceiveTimeout(t *testing.T) {
	_, _, h := newTestHAL(t)
	if err := h.System.Init(); err != nil {
		t.Fatalf("System.Init: %v", err)
	}
	if err := h.UART.Init(uartConfig()); err != nil {
		t.Fatalf("UART.Init: %v", err)
	}
	buf := make([]byte, 1)
	err := h.UART.Receive(buf, 5)
	if errcode.Of(err) != errcode.Timeout {
		t.Fatalf("got %v, want timeout", err)
	}
}

func TestUARTRxCallbackPerByte(t *testing.T) {
	_, m, h := newTestHAL(t)
	if err := h.UART.Init(uartConfig()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var seen []byte
	err := h.UART.RegisterRxCallback(func(ev *hal.UARTRxEvent) {
		seen = append(seen, ev.Data...)
	}, nil)
	if err != nil {
		t.Fatalf("RegisterRxCallback: %v", err)
	}

	m.UARTFeed(0x01, 0x02, 0x03)
	if !bytes.Equal(seen, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("callback saw %v", seen)
	}

	if err := h.UART.UnregisterRxCallback(); err != nil {
		t.Fatalf("UnregisterRxCallback: %v", err)
	}
	m.UARTFeed(0x04)
	if len(seen) != 3 {
		t.Fatalf("callback fired after unregister")
	}
}

func TestUARTOverrunDropsAndCounts(t *testing.T) {
	_, m, h := newTestHAL(t)
	if err := h.UART.Init(uartConfig()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// The ring holds 64 bytes; everything past that is dropped.
	for i := 0; i < 70; i++ {
		m.UARTFeed(byte(i))
	}
	if got := h.UART.RxOverruns(); got != 6 {
		t.Fatalf("RxOverruns = %d, want 6", got)
	}
	buf := make([]byte, 64)
	if err := h.UART.Receive(buf, 100); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if buf[0] != 0 || buf[63] != 63 {
		t.Fatalf("ring did not keep the oldest bytes: first=%d last=%d", buf[0], buf[63])
	}
}

func TestUARTUnsupportedConfig(t *testing.T) {
	_, _, h := newTestHAL(t)

	cfg := uartConfig()
	cfg.DataBits = hal.UARTDataBits9
	if err := h.UART.Init(cfg); errcode.Of(err) != errcode.NotSupported {
		t.Fatalf("9 data bits: got %v, want not_supported", err)
	}

	cfg = uartConfig()
	cfg.FlowControl = true
	if err := h.UART.Init(cfg); errcode.Of(err) != errcode.NotSupported {
		t.Fatalf("flow control: got %v, want not_supported", err)
	}

	cfg = uartConfig()
	cfg.Baudrate = 0
	if err := h.UART.Init(cfg); errcode.Of(err) != errcode.InvalidParam {
		t.Fatalf("zero baud: got %v, want invalid_param", err)
	}
}

func TestUARTDeinitSilencesCallbacks(t *testing.T) {
	_, m, h := newTestHAL(t)
	if err := h.UART.Init(uartConfig()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	fired := false
	h.UART.RegisterRxCallback(func(*hal.UARTRxEvent) { fired = true }, nil)
	if err := h.UART.Deinit(); err != nil {
		t.Fatalf("Deinit: %v", err)
	}
	m.UARTFeed('x')
	if fired {
		t.Fatalf("callback fired after Deinit")
	}
}
