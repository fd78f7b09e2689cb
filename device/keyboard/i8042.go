// Package keyboard provides a minimal i8042 PS/2 controller driver. Its
// interrupt body pulls raw scancodes off the controller into a fixed-size
// ring that the rest of the kernel drains at its own pace. Scancode decoding
// is left to consumers.
package keyboard

import (
	"gopher386/device"
	"gopher386/kernel"
	"gopher386/kernel/ioport"
	"gopher386/kernel/kfmt"
	"io"
	"sync/atomic"
)

const (
	dataPort   = ioport.Port(0x60)
	statusPort = ioport.Port(0x64)

	// statusOutputFull is set while a byte is waiting in the output buffer.
	statusOutputFull = 0x01

	// statusFloating is read back when nothing decodes the status port.
	statusFloating = 0xff

	// maxFlush bounds the number of stale bytes discarded by DriverInit.
	maxFlush = 16

	// ringSize is the scancode ring capacity; it must be a power of 2.
	ringSize = 64
)

// Device is implemented by keyboard drivers. NotifyInterrupt is invoked from
// the IRQ1 body with interrupts disabled; ReadScancode is called from normal
// kernel code.
type Device interface {
	device.Driver

	// NotifyInterrupt collects the pending scancode, if any. It must not
	// allocate or block.
	NotifyInterrupt()

	// ReadScancode returns the oldest buffered scancode. The second
	// result is false if no scancode is buffered.
	ReadScancode() (byte, bool)
}

// I8042 is a driver for the keyboard port of an i8042 controller.
//
// The scancode ring has a single producer (NotifyInterrupt) and a single
// consumer (ReadScancode). Each side owns one index, so the ring needs no
// lock; the indices are accessed atomically to keep the compiler from
// caching them across the interrupt boundary.
type I8042 struct {
	ring   [ringSize]byte
	wIndex uint32
	rIndex uint32

	// Dropped counts scancodes discarded because the ring was full.
	Dropped uint32
}

// DriverName returns the name of this driver.
func (kbd *I8042) DriverName() string {
	return "keyboard"
}

// DriverVersion returns the version of this driver.
func (kbd *I8042) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit discards any bytes left in the controller output buffer by the
// firmware.
func (kbd *I8042) DriverInit(w io.Writer) *kernel.Error {
	var flushed int
	for ; flushed < maxFlush && statusPort.In8()&statusOutputFull != 0; flushed++ {
		dataPort.In8()
	}

	kfmt.Fprintf(w, "i8042 at 0x%2x, flushed %d stale bytes\n", uint16(dataPort), flushed)
	return nil
}

// NotifyInterrupt reads one scancode from the controller into the ring. The
// byte is consumed from the controller even if the ring is full so that the
// controller can raise the next interrupt.
func (kbd *I8042) NotifyInterrupt() {
	if statusPort.In8()&statusOutputFull == 0 {
		return
	}

	scancode := dataPort.In8()

	w := atomic.LoadUint32(&kbd.wIndex)
	if w-atomic.LoadUint32(&kbd.rIndex) == ringSize {
		atomic.AddUint32(&kbd.Dropped, 1)
		return
	}

	kbd.ring[w&(ringSize-1)] = scancode
	atomic.StoreUint32(&kbd.wIndex, w+1)
}

// ReadScancode returns the oldest buffered scancode.
func (kbd *I8042) ReadScancode() (byte, bool) {
	r := atomic.LoadUint32(&kbd.rIndex)
	if r == atomic.LoadUint32(&kbd.wIndex) {
		return 0, false
	}

	scancode := kbd.ring[r&(ringSize-1)]
	atomic.StoreUint32(&kbd.rIndex, r+1)
	return scancode, true
}

// Buffered returns the number of scancodes waiting to be read.
func (kbd *I8042) Buffered() int {
	return int(atomic.LoadUint32(&kbd.wIndex) - atomic.LoadUint32(&kbd.rIndex))
}

func probeForI8042() device.Driver {
	if statusPort.In8() == statusFloating {
		return nil
	}
	return &I8042{}
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderNormal,
		Probe: probeForI8042,
	})
}
