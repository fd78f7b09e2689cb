// Package serial drives a 16550-compatible UART. The first detected port is
// used as the kernel console so that boot messages and fatal reports reach
// the host even when no display is available.
package serial

import (
	"gopher386/device"
	"gopher386/kernel"
	"gopher386/kernel/ioport"
	"gopher386/kernel/kfmt"
	"io"
)

// COM1 is the base I/O port of the first serial port.
const COM1 = ioport.Port(0x3f8)

// Register offsets from the base port.
const (
	regData        = 0 // THR/RBR, or DLL while DLAB is set
	regIntEnable   = 1 // IER, or DLM while DLAB is set
	regFIFOControl = 2
	regLineControl = 3
	regModemCtrl   = 4
	regLineStatus  = 5
	regScratch     = 7
)

const (
	// uartClock is the base clock of the baud rate generator divided by 16.
	uartClock = 115200

	// BaudRate is the line speed programmed by DriverInit.
	BaudRate = 38400

	lcrDLAB = 0x80

	// lcr8N1 selects 8 data bits, no parity and 1 stop bit.
	lcr8N1 = 0x03

	// fcrEnable enables and clears both FIFOs with a 14 byte threshold.
	fcrEnable = 0xc7

	// mcrReady raises DTR and RTS and sets OUT2.
	mcrReady = 0x0b

	// lsrTHRE is set when the transmit holding register is empty.
	lsrTHRE = 0x20

	// scratchProbe is written to the scratch register to detect the UART.
	scratchProbe = 0xa5

	// maxTxSpins bounds the wait for THRE so a wedged UART cannot hang
	// the kernel; the byte is sent regardless once the budget is spent.
	maxTxSpins = 1 << 16
)

var errNoUART = &kernel.Error{Module: "serial", Message: "UART did not respond to the scratch register probe"}

// UART is a 16550 serial port. It implements io.Writer.
type UART struct {
	base ioport.Port
}

// New returns a driver for the UART at base. The hardware is not touched
// until DriverInit is called.
func New(base ioport.Port) *UART {
	return &UART{base: base}
}

func (u *UART) reg(offset uint16) ioport.Port {
	return u.base + ioport.Port(offset)
}

// DriverName returns the name of this driver.
func (u *UART) DriverName() string {
	return "serial"
}

// DriverVersion returns the version of this driver.
func (u *UART) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit programs the UART for BaudRate 8N1 with FIFOs enabled and
// transmit-only operation (no UART interrupts).
func (u *UART) DriverInit(w io.Writer) *kernel.Error {
	if !u.present() {
		return errNoUART
	}

	divisor := uint16(uartClock / BaudRate)

	u.reg(regIntEnable).Out8(0)
	u.reg(regLineControl).Out8(lcrDLAB)
	u.reg(regData).Out8(uint8(divisor))
	u.reg(regIntEnable).Out8(uint8(divisor >> 8))
	u.reg(regLineControl).Out8(lcr8N1)
	u.reg(regFIFOControl).Out8(fcrEnable)
	u.reg(regModemCtrl).Out8(mcrReady)

	kfmt.Fprintf(w, "port 0x%3x, %d baud 8N1\n", uint16(u.base), BaudRate)
	return nil
}

// present checks for a UART by round-tripping a value through the scratch
// register.
func (u *UART) present() bool {
	u.reg(regScratch).Out8(scratchProbe)
	return u.reg(regScratch).In8() == scratchProbe
}

// Write transmits p, translating each "\n" into "\r\n". It blocks until every
// byte has been handed to the UART and always returns len(p), nil.
func (u *UART) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			u.writeByte('\r')
		}
		u.writeByte(b)
	}

	return len(p), nil
}

func (u *UART) writeByte(b byte) {
	status := u.reg(regLineStatus)
	for spins := 0; spins < maxTxSpins && status.In8()&lsrTHRE == 0; spins++ {
	}

	u.reg(regData).Out8(b)
}

func probeForCOM1() device.Driver {
	u := New(COM1)
	if !u.present() {
		return nil
	}
	return u
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForCOM1,
	})
}
