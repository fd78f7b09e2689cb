// Package ioport provides a capability-style wrapper over the processor's
// port-mapped I/O instructions.
package ioport

import "gopher386/kernel/cpu"

// DelayPort is an unused POST diagnostic port. Writing to it takes roughly a
// microsecond, which is long enough for slow devices such as the 8259 PIC to
// settle between consecutive commands.
const DelayPort = Port(0x80)

// Bus carries out port transfers. The kernel always uses the CPU bus which
// issues the real IN/OUT instructions; other implementations let drivers run
// against simulated devices.
type Bus interface {
	In8(port uint16) uint8
	Out8(port uint16, v uint8)
	In16(port uint16) uint16
	Out16(port uint16, v uint16)
	In32(port uint16) uint32
	Out32(port uint16, v uint32)
}

// activeBus is the target of all Port methods.
var activeBus Bus = cpuBus{}

// SetBus routes all port transfers through b. Passing nil restores the CPU
// bus.
func SetBus(b Bus) {
	if b == nil {
		b = cpuBus{}
	}
	activeBus = b
}

type cpuBus struct{}

func (cpuBus) In8(port uint16) uint8       { return cpu.PortReadByte(port) }
func (cpuBus) Out8(port uint16, v uint8)   { cpu.PortWriteByte(port, v) }
func (cpuBus) In16(port uint16) uint16     { return cpu.PortReadWord(port) }
func (cpuBus) Out16(port uint16, v uint16) { cpu.PortWriteWord(port, v) }
func (cpuBus) In32(port uint16) uint32     { return cpu.PortReadDword(port) }
func (cpuBus) Out32(port uint16, v uint32) { cpu.PortWriteDword(port, v) }

// Port is a 16-bit I/O address. Ports carry no other state so they can be
// freely copied and constructed from constants wherever they are needed.
//
// Port I/O instructions cannot fail; a misbehaving device surfaces as a CPU
// exception rather than as an error returned by one of these methods.
type Port uint16

// In8 reads a byte from the port.
func (p Port) In8() uint8 {
	return activeBus.In8(uint16(p))
}

// Out8 writes a byte to the port.
func (p Port) Out8(v uint8) {
	activeBus.Out8(uint16(p), v)
}

// In16 reads a word from the port.
func (p Port) In16() uint16 {
	return activeBus.In16(uint16(p))
}

// Out16 writes a word to the port.
func (p Port) Out16(v uint16) {
	activeBus.Out16(uint16(p), v)
}

// In32 reads a double word from the port.
func (p Port) In32() uint32 {
	return activeBus.In32(uint16(p))
}

// Out32 writes a double word to the port.
func (p Port) Out32(v uint32) {
	activeBus.Out32(uint16(p), v)
}

// Read implements io.Reader. It performs one byte-sized read from the port for
// each element of b and always returns len(b), nil.
func (p Port) Read(b []byte) (int, error) {
	p.ReadAll(b)
	return len(b), nil
}

// Write implements io.Writer. It performs one byte-sized write to the port for
// each element of b and always returns len(b), nil.
func (p Port) Write(b []byte) (int, error) {
	p.WriteAll(b)
	return len(b), nil
}

// ReadAll fills b by reading the port once per element. Unlike Read it has
// no error result as the underlying instruction cannot fail.
func (p Port) ReadAll(b []byte) {
	for i := range b {
		b[i] = activeBus.In8(uint16(p))
	}
}

// WriteAll writes each byte of b to the port. Unlike Write it has no error
// result as the underlying instruction cannot fail.
func (p Port) WriteAll(b []byte) {
	for _, v := range b {
		activeBus.Out8(uint16(p), v)
	}
}

// Delay waits for a short, fixed amount of time by writing a throwaway byte
// to DelayPort.
func Delay() {
	DelayPort.Out8(0)
}
