// Package gdt builds the global descriptor table for a flat 32-bit memory
// model and loads it into the processor.
//
// The table holds three descriptors: the mandatory null descriptor, a ring-0
// code segment and a ring-0 data segment, both spanning the full 4 GiB linear
// address space. It is populated once during boot and never modified after it
// has been loaded.
package gdt

import (
	"gopher386/kernel/cpu"
	"unsafe"
)

// PrivilegeLevel is a protection ring number in the range 0-3.
type PrivilegeLevel uint8

// The supported privilege levels.
const (
	Ring0 PrivilegeLevel = iota
	Ring1
	Ring2
	Ring3
)

// Access is the access byte of a segment descriptor.
type Access uint8

// Access byte flags. The privilege level occupies bits 5-6 and is supplied
// separately to NewDescriptor.
const (
	// AccessAccessed is set by the CPU when the segment is accessed.
	AccessAccessed Access = 1 << iota

	// AccessReadWrite marks code segments as readable and data segments
	// as writable.
	AccessReadWrite

	// AccessConforming marks code segments as conforming and data segments
	// as expand-down.
	AccessConforming

	// AccessExecutable marks a code segment.
	AccessExecutable

	// AccessNotTSS marks a code or data segment as opposed to a system
	// segment (TSS, LDT, gates).
	AccessNotTSS

	_
	_

	// AccessPresent marks the segment as present in memory.
	AccessPresent
)

const (
	accessDPLShift = 5
	accessDPLMask  = Access(3 << accessDPLShift)

	// flagSize32 (D/B) selects 32-bit default operand size.
	flagSize32 = uint64(1) << 54

	// flagPageGranular (G) scales the limit by 4 KiB.
	flagPageGranular = uint64(1) << 55

	// maxByteLimit is the largest limit that fits the 20-bit limit field
	// with byte granularity.
	maxByteLimit = 0xfffff
)

// Descriptor is an 8-byte segment descriptor laid out as the CPU expects it:
//
//	bits  0-15 limit[0:16]
//	bits 16-39 base[0:24]
//	bits 40-47 access byte (including the privilege level)
//	bits 48-51 limit[16:20]
//	bits 52-55 flags (AVL, L, D/B, G)
//	bits 56-63 base[24:32]
type Descriptor uint64

// Null is the descriptor that must occupy the first table slot.
const Null = Descriptor(0)

// NewDescriptor encodes a present 32-bit segment descriptor. Limits that do
// not fit in 20 bits switch the descriptor to 4 KiB granularity; in that case
// the low 12 bits of limit are implied to be all ones.
func NewDescriptor(base, limit uint32, access Access, pl PrivilegeLevel) Descriptor {
	flags := flagSize32
	if limit > maxByteLimit {
		limit >>= 12
		flags |= flagPageGranular
	}

	access = (access|AccessPresent)&^accessDPLMask | Access(pl&3)<<accessDPLShift

	return Descriptor(uint64(limit&0xffff) |
		uint64(base&0xffffff)<<16 |
		uint64(access)<<40 |
		uint64(limit>>16&0xf)<<48 |
		flags |
		uint64(base>>24)<<56)
}

// Base returns the linear base address of the segment.
func (d Descriptor) Base() uint32 {
	return uint32(d>>16&0xffffff) | uint32(d>>56)<<24
}

// Limit returns the segment limit in bytes, expanding page-granular limits.
func (d Descriptor) Limit() uint32 {
	limit := uint32(d&0xffff) | uint32(d>>48&0xf)<<16
	if d.PageGranular() {
		limit = limit<<12 | 0xfff
	}
	return limit
}

// Access returns the access byte with the privilege level bits cleared.
func (d Descriptor) Access() Access {
	return Access(d>>40) &^ accessDPLMask
}

// PrivilegeLevel returns the descriptor privilege level.
func (d Descriptor) PrivilegeLevel() PrivilegeLevel {
	return PrivilegeLevel(d >> 45 & 3)
}

// Present returns true if the present bit is set.
func (d Descriptor) Present() bool {
	return d.Access()&AccessPresent != 0
}

// PageGranular returns true if the limit is expressed in 4 KiB units.
func (d Descriptor) PageGranular() bool {
	return uint64(d)&flagPageGranular != 0
}

// Selector references a GDT entry from a segment register.
type Selector uint16

// NewSelector returns the selector for the table entry at index requesting
// privilege level pl.
func NewSelector(index uint16, pl PrivilegeLevel) Selector {
	return Selector(index<<3 | uint16(pl&3))
}

// Index returns the table index referenced by s.
func (s Selector) Index() uint16 {
	return uint16(s) >> 3
}

// PrivilegeLevel returns the requested privilege level encoded in s.
func (s Selector) PrivilegeLevel() PrivilegeLevel {
	return PrivilegeLevel(s & 3)
}

const (
	nullIndex = iota
	kernelCodeIndex
	kernelDataIndex

	// Entries is the number of descriptors in the table.
	Entries
)

const (
	// KernelCode selects the ring-0 code segment.
	KernelCode = Selector(kernelCodeIndex<<3 | uint16(Ring0))

	// KernelData selects the ring-0 data segment.
	KernelData = Selector(kernelDataIndex<<3 | uint16(Ring0))
)

var (
	table    [Entries]Descriptor
	tablePtr cpu.DescriptorTablePointer

	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	loadGDTFn         = cpu.LoadGDT
	loadSegmentFn     = cpu.LoadSegment
	loadCodeSegmentFn = cpu.LoadCodeSegment
)

// dataSegments lists the registers Load points at KernelData. GS is left
// alone: the Go runtime reaches the current goroutine through GS and the
// processor keeps the base cached from the selector loaded by rt0 until GS
// is written again, even after LGDT swaps the table underneath it.
var dataSegments = [...]cpu.SegmentRegister{cpu.DS, cpu.ES, cpu.FS, cpu.SS}

// Init populates the descriptor table and the pointer handed to LGDT.
func Init() {
	table[nullIndex] = Null
	table[kernelCodeIndex] = NewDescriptor(0, 0xffffffff, AccessExecutable|AccessReadWrite|AccessNotTSS, Ring0)
	table[kernelDataIndex] = NewDescriptor(0, 0xffffffff, AccessReadWrite|AccessNotTSS, Ring0)

	tablePtr.Set(uintptr(unsafe.Pointer(&table)), unsafe.Sizeof(table))
}

// Load installs the table built by Init and reloads the segment registers
// other than GS. The data segment registers are reloaded first; CS goes last
// as reloading it resumes execution in the new code segment.
func Load() {
	loadGDTFn(tablePtr.Address())
	for _, reg := range dataSegments {
		loadSegmentFn(reg, uint16(KernelData))
	}
	loadCodeSegmentFn(uint16(KernelCode))
}

// Table returns a copy of the descriptor table.
func Table() [Entries]Descriptor {
	return table
}
