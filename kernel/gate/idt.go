package gate

import "gopher386/kernel/gdt"

// GateType is the 4-bit type field of a gate descriptor.
type GateType uint8

const (
	// InterruptGate32 clears IF on entry so a running body cannot be
	// preempted by another maskable interrupt.
	InterruptGate32 = GateType(0xe)

	// TrapGate32 leaves IF untouched on entry.
	TrapGate32 = GateType(0xf)
)

const (
	gateTypeShift = 40
	gateDPLShift  = 45
	gatePresent   = uint64(1) << 47
)

// Descriptor is an 8-byte IDT gate laid out as the CPU expects it:
//
//	bits  0-15 offset[0:16]
//	bits 16-31 code segment selector
//	bits 32-39 reserved (zero)
//	bits 40-43 gate type
//	bit     44 zero
//	bits 45-46 privilege level
//	bit     47 present
//	bits 48-63 offset[16:32]
type Descriptor uint64

// NewDescriptor encodes a gate that transfers control to offset inside the
// code segment referenced by sel.
func NewDescriptor(offset uint32, sel gdt.Selector, pl gdt.PrivilegeLevel, present bool, typ GateType) Descriptor {
	d := uint64(offset&0xffff) |
		uint64(sel)<<16 |
		uint64(typ&0xf)<<gateTypeShift |
		uint64(pl&3)<<gateDPLShift |
		uint64(offset>>16)<<48

	if present {
		d |= gatePresent
	}

	return Descriptor(d)
}

// Offset returns the address of the gate's entry point.
func (d Descriptor) Offset() uint32 {
	return uint32(d&0xffff) | uint32(d>>48)<<16
}

// Selector returns the code segment selector used when entering the gate.
func (d Descriptor) Selector() gdt.Selector {
	return gdt.Selector(d >> 16)
}

// Type returns the gate type.
func (d Descriptor) Type() GateType {
	return GateType(d>>gateTypeShift) & 0xf
}

// PrivilegeLevel returns the lowest privilege level allowed to invoke the
// gate with a software INT instruction.
func (d Descriptor) PrivilegeLevel() gdt.PrivilegeLevel {
	return gdt.PrivilegeLevel(d>>gateDPLShift) & 3
}

// Present returns true if the gate is marked present.
func (d Descriptor) Present() bool {
	return uint64(d)&gatePresent != 0
}
