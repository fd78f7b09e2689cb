// Package gate owns the interrupt descriptor table. It generates one entry
// stub per vector, points all 256 gates at those stubs and routes every
// interrupt to the body installed for its vector.
package gate

import (
	"gopher386/kernel"
	"gopher386/kernel/cpu"
	"gopher386/kernel/gdt"
	"gopher386/kernel/kfmt"
	"io"
	"unsafe"
)

// Registers contains a snapshot of the register file at the time an
// exception or interrupt occurred. The field order mirrors the stack layout
// built by gateEntry: PUSHAL output first, then the vector and error code
// pushed by the stub and finally the frame pushed by the CPU.
type Registers struct {
	EDI uint32
	ESI uint32
	EBP uint32

	// ESP holds the stack pointer value saved by PUSHAL; it points at the
	// Vector field, not at the interrupted stack top.
	ESP uint32

	EBX uint32
	EDX uint32
	ECX uint32
	EAX uint32

	// Vector is the interrupt number pushed by the per-vector stub.
	Vector uint32

	// ErrorCode is the error code pushed by the CPU for exceptions that
	// supply one, or 0 otherwise.
	ErrorCode uint32

	// The return frame used by IRETL
	EIP    uint32
	CS     uint32
	EFlags uint32
}

// DumpTo outputs the register contents to w.
func (r *Registers) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "EAX = %8x EBX = %8x\n", r.EAX, r.EBX)
	kfmt.Fprintf(w, "ECX = %8x EDX = %8x\n", r.ECX, r.EDX)
	kfmt.Fprintf(w, "ESI = %8x EDI = %8x\n", r.ESI, r.EDI)
	kfmt.Fprintf(w, "EBP = %8x ESP = %8x\n", r.EBP, r.ESP)
	kfmt.Fprintf(w, "\n")
	kfmt.Fprintf(w, "EIP = %8x CS  = %8x\n", r.EIP, r.CS)
	kfmt.Fprintf(w, "EFL = %8x\n", r.EFlags)
}

// Handler is the body invoked when an interrupt is raised. It receives no
// arguments and must not allocate, block or re-enable interrupts.
type Handler func()

// Vectors is the number of entries in the interrupt descriptor table.
const Vectors = 256

var (
	idt    [Vectors]Descriptor
	idtPtr cpu.DescriptorTablePointer

	// bodies holds the device body for each vector. A nil entry selects
	// the fatal default for that vector.
	bodies [Vectors]Handler

	// running tracks the vectors whose body is currently executing.
	running [Vectors]bool

	// sealed is set once the table has been loaded.
	sealed bool

	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	loadIDTFn       = cpu.LoadIDT
	gateEntryAddrFn = gateEntryAddr
	panicFn         = kfmt.Panic

	errTableSealed    = &kernel.Error{Module: "gate", Message: "interrupt table has already been loaded"}
	errReservedVector = &kernel.Error{Module: "gate", Message: "vectors 0x00-0x1f are reserved for CPU exceptions"}
	errNilHandler     = &kernel.Error{Module: "gate", Message: "nil interrupt handler"}
)

// Init generates the entry stub for every vector and populates all 256
// gates. Each gate is a present ring-0 interrupt gate in the kernel code
// segment so interrupts stay disabled while a body runs. Every vector starts
// with its fatal default body; device bodies are attached afterwards with
// HandleInterrupt.
func Init() *kernel.Error {
	if sealed {
		return errTableSealed
	}

	entry := uint32(gateEntryAddrFn())
	for vec := 0; vec < Vectors; vec++ {
		stubAddr := uint32(uintptr(unsafe.Pointer(&stubs[vec])))
		writeStub(&stubs[vec], InterruptNumber(vec), stubAddr, entry)

		idt[vec] = NewDescriptor(stubAddr, gdt.KernelCode, gdt.Ring0, true, InterruptGate32)
		bodies[vec] = nil
		running[vec] = false
	}

	idtPtr.Set(uintptr(unsafe.Pointer(&idt)), unsafe.Sizeof(idt))
	return nil
}

// HandleInterrupt installs body as the handler for intNumber. Only vectors
// outside the CPU exception range can be claimed and only before Load has
// been called.
func HandleInterrupt(intNumber InterruptNumber, body Handler) *kernel.Error {
	switch {
	case sealed:
		return errTableSealed
	case intNumber < firstUserVector:
		return errReservedVector
	case body == nil:
		return errNilHandler
	}

	bodies[intNumber] = body
	return nil
}

// Load installs the table built by Init via LIDT. After Load returns the
// table can no longer be modified.
func Load() {
	loadIDTFn(idtPtr.Address())
	sealed = true
}

// Entry returns the descriptor for the given vector.
func Entry(intNumber InterruptNumber) Descriptor {
	return idt[intNumber]
}
