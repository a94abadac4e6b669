// Command halshell is an interactive console over the simulated platforms.
// It drives the same HAL surface firmware uses, with the simulator standing
// in for the silicon, so peripheral behaviour can be poked at from a prompt.
// With -tty the simulated UART is bridged to a real serial port for bench
// loopback runs.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/shlex"
	"github.com/tarm/serial"

	"eerhal-go/errcode"
	"eerhal-go/hal"
	"eerhal-go/x/mathx"
)

const cmdTimeoutMS = 100

type shell struct {
	b      *board
	port   *serial.Port
	ttyRx  chan byte
	txMark int
}

func main() {
	platform := flag.String("platform", "avr", "simulated platform: avr or rv32")
	tty := flag.String("tty", "", "bridge the simulated UART to this serial device")
	baud := flag.Int("baud", 9600, "baud rate for the -tty serial device")
	flag.Parse()

	var b *board
	switch *platform {
	case "avr":
		b = newAVRBoard()
	case "rv32":
		b = newRV32Board()
	default:
		fmt.Fprintln(os.Stderr, "unknown platform:", *platform)
		os.Exit(2)
	}

	sh := &shell{b: b}
	if *tty != "" {
		port, err := serial.OpenPort(&serial.Config{
			Name:        *tty,
			Baud:        *baud,
			ReadTimeout: 50 * time.Millisecond,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "open tty:", err)
			os.Exit(1)
		}
		defer port.Close()
		sh.port = port
		sh.ttyRx = make(chan byte, 256)
		go ttyReader(port, sh.ttyRx)
	}

	if err := b.hal.System.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "system init:", err)
		os.Exit(1)
	}
	if err := b.hal.GPIO.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "gpio init:", err)
		os.Exit(1)
	}

	fmt.Printf("halshell: %s simulator ready, type help\n", *platform)
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("hal> ")
		if !in.Scan() {
			break
		}
		argv, err := shlex.Split(in.Text())
		if err != nil {
			fmt.Println("parse:", err)
			continue
		}
		if len(argv) == 0 {
			continue
		}
		if argv[0] == "quit" || argv[0] == "exit" {
			break
		}
		sh.pump()
		if err := sh.run(argv); err != nil {
			fmt.Println("error:", err)
		}
		sh.flushTx()
	}
}

// ttyReader pushes serial bytes into the channel the prompt loop drains.
// Read timeouts surface as n==0 with no error and are simply retried.
func ttyReader(port *serial.Port, out chan<- byte) {
	buf := make([]byte, 64)
	for {
		n, err := port.Read(buf)
		if err != nil {
			return
		}
		for _, c := range buf[:n] {
			out <- c
		}
	}
}

// pump feeds any bytes the tty produced since the last command into the
// simulated receiver before the next command runs.
func (s *shell) pump() {
	if s.ttyRx == nil {
		return
	}
	for {
		select {
		case c := <-s.ttyRx:
			s.b.feed([]byte{c})
		default:
			return
		}
	}
}

// flushTx forwards newly transmitted UART bytes to the tty, if bridged.
func (s *shell) flushTx() {
	if s.port == nil {
		return
	}
	out := s.b.sent()
	if s.txMark < len(out) {
		s.port.Write(out[s.txMark:])
		s.txMark = len(out)
	}
}

func (s *shell) run(argv []string) (err error) {
	// A watchdog reset parks the CPU; the simulator's reset hook unwinds
	// it here so the prompt survives.
	const resetSentinel = "halshell-reset"
	s.b.onReset(func() { panic(resetSentinel) })
	defer func() {
		if r := recover(); r != nil {
			if r != resetSentinel {
				panic(r)
			}
			fmt.Println("watchdog reset")
			err = nil
		}
	}()

	h := s.b.hal
	switch argv[0] {
	case "help":
		usage()
		return nil
	case "gpio":
		return s.gpio(argv[1:])
	case "uart":
		return s.uart(argv[1:])
	case "spi":
		return s.spi(argv[1:])
	case "i2c":
		return s.i2c(argv[1:])
	case "adc":
		return s.adc(argv[1:])
	case "pwm":
		return s.pwm(argv[1:])
	case "tick":
		n := 1
		if len(argv) > 1 {
			v, err := strconv.Atoi(argv[1])
			if err != nil {
				return err
			}
			n = mathx.Clamp(v, 1, 60_000)
		}
		s.b.step(n)
		return nil
	case "uptime":
		var ms uint32
		if err := h.System.GetUptimeMs(&ms); err != nil {
			return err
		}
		fmt.Printf("%d ms\n", ms)
		return nil
	case "reset":
		return h.System.Reset(hal.SystemResetWatchdog)
	}
	return &errcode.E{C: errcode.InvalidParam, Op: argv[0], Msg: "unknown command, try help"}
}

func (s *shell) gpio(argv []string) error {
	if len(argv) < 2 {
		return usageErr("gpio")
	}
	p, err := s.b.pin(argv[1])
	if err != nil {
		return err
	}
	g := s.b.hal.GPIO
	switch argv[0] {
	case "in":
		return g.Configure(p, &hal.GPIOConfig{Mode: hal.GPIOInput})
	case "pullup":
		return g.Configure(p, &hal.GPIOConfig{Mode: hal.GPIOInputPullup})
	case "out":
		return g.Configure(p, &hal.GPIOConfig{Mode: hal.GPIOOutput})
	case "write":
		if len(argv) < 3 {
			return usageErr("gpio")
		}
		return g.Write(p, argv[2] != "0")
	case "read":
		var level bool
		if err := g.Read(p, &level); err != nil {
			return err
		}
		fmt.Println(levelStr(level))
		return nil
	case "toggle":
		return g.Toggle(p)
	case "drive":
		// External stimulus: the simulated wire, not the driver.
		if len(argv) < 3 {
			return usageErr("gpio")
		}
		s.b.drive(p, argv[2] != "0")
		return nil
	case "watch":
		if err := g.Configure(p, &hal.GPIOConfig{Mode: hal.GPIOInput, Trigger: hal.GPIOTriggerBoth}); err != nil {
			return err
		}
		name := argv[1]
		if err := g.RegisterIRQ(p, func(ev *hal.GPIOEvent) {
			fmt.Printf("irq: %s changed\n", name)
		}, nil); err != nil {
			return err
		}
		return g.EnableIRQ(p)
	}
	return usageErr("gpio")
}

func (s *shell) uart(argv []string) error {
	if len(argv) == 0 {
		return usageErr("uart")
	}
	u := s.b.hal.UART
	switch argv[0] {
	case "init":
		baud := uint32(9600)
		if len(argv) > 1 {
			v, err := strconv.ParseUint(argv[1], 10, 32)
			if err != nil {
				return err
			}
			baud = uint32(v)
		}
		return u.Init(&hal.UARTConfig{
			Baudrate: baud,
			DataBits: hal.UARTDataBits8,
		})
	case "tx":
		if len(argv) < 2 {
			return usageErr("uart")
		}
		return u.Transmit([]byte(argv[1]), cmdTimeoutMS)
	case "feed":
		if len(argv) < 2 {
			return usageErr("uart")
		}
		s.b.feed([]byte(argv[1]))
		return nil
	case "rx":
		n := 1
		if len(argv) > 1 {
			v, err := strconv.Atoi(argv[1])
			if err != nil {
				return err
			}
			n = mathx.Clamp(v, 1, 256)
		}
		buf := make([]byte, n)
		if err := u.Receive(buf, cmdTimeoutMS); err != nil {
			return err
		}
		fmt.Printf("%q\n", buf)
		return nil
	case "sent":
		out := s.b.sent()
		fmt.Printf("%q\n", out[s.txMark:])
		return nil
	case "stats":
		fmt.Printf("overruns=%d\n", u.RxOverruns())
		return nil
	}
	return usageErr("uart")
}

func (s *shell) spi(argv []string) error {
	if len(argv) == 0 {
		return usageErr("spi")
	}
	sp := s.b.hal.SPI
	switch argv[0] {
	case "init":
		return sp.Init(&hal.SPIConfig{
			Mode:      hal.SPIMode0,
			BitOrder:  hal.SPIBitOrderMSB,
			DataSize:  hal.SPIDataSize8,
			Prescaler: hal.SPIPrescaler16,
			Master:    true,
		})
	case "xfer":
		tx, err := parseBytes(argv[1:])
		if err != nil {
			return err
		}
		rx := make([]byte, len(tx))
		if err := sp.Transfer(tx, rx, cmdTimeoutMS); err != nil {
			return err
		}
		fmt.Printf("rx: % x\n", rx)
		return nil
	}
	return usageErr("spi")
}

func (s *shell) i2c(argv []string) error {
	if len(argv) == 0 {
		return usageErr("i2c")
	}
	i := s.b.hal.I2C
	switch argv[0] {
	case "init":
		return i.Init(&hal.I2CConfig{Speed: hal.I2CSpeedStandard})
	case "attach":
		if s.b.attach == nil {
			return errcode.NotSupported
		}
		if len(argv) < 2 {
			return usageErr("i2c")
		}
		addr, err := strconv.ParseUint(argv[1], 0, 16)
		if err != nil {
			return err
		}
		respond, err := parseBytes(argv[2:])
		if err != nil {
			return err
		}
		s.b.attach(uint16(addr), respond)
		return nil
	case "scan":
		found := make([]uint16, 16)
		n, err := i.Scan(found)
		if err != nil {
			return err
		}
		for _, a := range found[:n] {
			fmt.Printf("0x%02X\n", a)
		}
		return nil
	case "write":
		if len(argv) < 3 {
			return usageErr("i2c")
		}
		addr, err := strconv.ParseUint(argv[1], 0, 16)
		if err != nil {
			return err
		}
		data, err := parseBytes(argv[2:])
		if err != nil {
			return err
		}
		return i.MasterTransmit(uint16(addr), data, cmdTimeoutMS)
	case "read":
		if len(argv) < 3 {
			return usageErr("i2c")
		}
		addr, err := strconv.ParseUint(argv[1], 0, 16)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(argv[2])
		if err != nil {
			return err
		}
		buf := make([]byte, mathx.Clamp(n, 1, 64))
		if err := i.MasterReceive(uint16(addr), buf, cmdTimeoutMS); err != nil {
			return err
		}
		fmt.Printf("% x\n", buf)
		return nil
	}
	return usageErr("i2c")
}

func (s *shell) adc(argv []string) error {
	if len(argv) == 0 {
		return usageErr("adc")
	}
	a := s.b.hal.ADC
	switch argv[0] {
	case "init":
		return a.Init(&hal.ADCConfig{
			Reference:  hal.ADCRefVCC,
			Prescaler:  hal.ADCPrescaler128,
			Resolution: hal.ADCResolution10,
			Mode:       hal.ADCModeSingle,
		})
	case "set":
		if s.b.adcSet == nil {
			return errcode.NotSupported
		}
		if len(argv) < 3 {
			return usageErr("adc")
		}
		ch, err := strconv.ParseUint(argv[1], 10, 8)
		if err != nil {
			return err
		}
		raw, err := strconv.ParseUint(argv[2], 0, 16)
		if err != nil {
			return err
		}
		s.b.adcSet(uint8(ch), uint16(raw))
		return nil
	case "read":
		if len(argv) < 2 {
			return usageErr("adc")
		}
		ch, err := strconv.ParseUint(argv[1], 10, 8)
		if err != nil {
			return err
		}
		var raw uint16
		if err := a.Read(uint8(ch), &raw); err != nil {
			return err
		}
		var mv float32
		if err := a.ReadVoltage(uint8(ch), &mv); err != nil {
			return err
		}
		fmt.Printf("raw=%d voltage=%.3fV\n", raw, mv)
		return nil
	}
	return usageErr("adc")
}

func (s *shell) pwm(argv []string) error {
	if len(argv) == 0 {
		return usageErr("pwm")
	}
	t := s.b.hal.Timer
	switch argv[0] {
	case "init":
		period := uint32(20_000)
		if len(argv) > 1 {
			v, err := strconv.ParseUint(argv[1], 10, 32)
			if err != nil {
				return err
			}
			period = uint32(v)
		}
		if err := t.Init(&hal.TimerConfig{Mode: hal.TimerModePWM, Period: period}); err != nil {
			return err
		}
		return t.Start()
	case "duty":
		if len(argv) < 3 {
			return usageErr("pwm")
		}
		ch, err := strconv.ParseUint(argv[1], 10, 8)
		if err != nil {
			return err
		}
		duty, err := strconv.ParseUint(argv[2], 10, 8)
		if err != nil {
			return err
		}
		return t.SetPWMDutyCycle(uint8(ch), uint8(duty))
	}
	return usageErr("pwm")
}

func parseBytes(argv []string) ([]byte, error) {
	out := make([]byte, 0, len(argv))
	for _, a := range argv {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return nil, err
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func levelStr(level bool) string {
	if level {
		return "high"
	}
	return "low"
}

func usageErr(group string) error {
	return &errcode.E{C: errcode.InvalidParam, Op: group, Msg: "bad arguments, try help"}
}

func usage() {
	fmt.Print(`commands:
  gpio in|pullup|out <pin>        configure pin (avr: b5, rv32: 12)
  gpio write <pin> 0|1            drive an output
  gpio read <pin>                 read the input level
  gpio toggle <pin>               flip an output
  gpio drive <pin> 0|1            externally drive the simulated wire
  gpio watch <pin>                report edges via the pin interrupt
  uart init [baud]                8N1 at the given rate
  uart tx <text>                  transmit
  uart feed <text>                push bytes into the simulated receiver
  uart rx [n]                     blocking receive of n bytes
  uart sent                       show transmitted bytes
  uart stats                      receiver overrun counter
  spi init / spi xfer <bytes...>  full-duplex transfer, bytes in hex or dec
  i2c init / i2c scan             bus setup and address sweep
  i2c attach <addr> [bytes...]    attach a simulated slave
  i2c write <addr> <bytes...>     master transmit
  i2c read <addr> <n>             master receive
  adc init / adc read <ch>        single conversion plus voltage
  adc set <ch> <raw>              set the simulated sample for a channel
  pwm init [period] / pwm duty <ch> <pct>
  tick [ms]                       advance the simulated clock
  uptime                          milliseconds since init
  reset                           watchdog reset
  quit
`)
}
