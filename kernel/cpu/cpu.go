// Package cpu exposes the 386 instructions that cannot be expressed in Go:
// port I/O, descriptor table loads, segment register reloads and halting.
//
// The instructions are implemented in cpu_386.s. When the package is built
// for any other architecture (which only happens when running the tests on a
// development machine) the functions are placeholders that panic; callers
// reach them through package-level function variables that tests replace.
package cpu

import (
	"encoding/binary"
	"unsafe"
)

// SegmentRegister identifies a data segment register by the number the
// processor uses for it in the reg field of a MOV Sreg instruction.
type SegmentRegister uint8

// The segment registers that LoadSegment can reload. CS is missing as it
// can only be changed with a far transfer; see LoadCodeSegment.
const (
	ES = SegmentRegister(0)
	SS = SegmentRegister(2)
	DS = SegmentRegister(3)
	FS = SegmentRegister(4)
	GS = SegmentRegister(5)
)

// DescriptorTablePointer is the 6-byte memory operand expected by the LGDT
// and LIDT instructions: a 16-bit table limit followed by the 32-bit linear
// address of the table.
type DescriptorTablePointer [6]byte

// Set points p to a descriptor table of size bytes starting at base.
func (p *DescriptorTablePointer) Set(base, size uintptr) {
	binary.LittleEndian.PutUint16(p[0:2], uint16(size-1))
	binary.LittleEndian.PutUint32(p[2:6], uint32(base))
}

// Limit returns the table limit (size in bytes minus one).
func (p *DescriptorTablePointer) Limit() uint16 {
	return binary.LittleEndian.Uint16(p[0:2])
}

// Base returns the linear address of the table.
func (p *DescriptorTablePointer) Base() uint32 {
	return binary.LittleEndian.Uint32(p[2:6])
}

// Address returns the address of the pointer itself; this is the value that
// needs to be passed to LoadGDT and LoadIDT.
func (p *DescriptorTablePointer) Address() uintptr {
	return uintptr(unsafe.Pointer(p))
}
