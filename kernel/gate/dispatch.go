package gate

import (
	"gopher386/kernel"
	"gopher386/kernel/kfmt"
)

var (
	errUnhandledException = &kernel.Error{Module: "gate", Message: "unhandled CPU exception"}
	errUnhandledInterrupt = &kernel.Error{Module: "gate", Message: "unhandled interrupt"}
	errReentrantInterrupt = &kernel.Error{Module: "gate", Message: "interrupt body re-entered its own vector"}
)

// dispatchInterrupt is called by gateEntry with a pointer to the saved
// register frame. It runs the body installed for the vector or, if none is
// installed, halts with a fatal report.
//
//go:nosplit
func dispatchInterrupt(regs *Registers) {
	intNumber := InterruptNumber(regs.Vector)

	body := bodies[intNumber]
	if body == nil {
		unhandledInterrupt(regs)
		return
	}

	if running[intNumber] {
		kfmt.Printf("\ninterrupt 0x%2x raised while its handler was running\n", uint8(intNumber))
		dumpRegisters(regs)
		panicFn(errReentrantInterrupt)
		return
	}

	running[intNumber] = true
	body()
	running[intNumber] = false
}

// unhandledInterrupt reports a vector that has no device body and halts.
// CPU exceptions are reported with their title and, where the CPU supplies
// one, the error code.
func unhandledInterrupt(regs *Registers) {
	intNumber := InterruptNumber(regs.Vector)

	title, ok := ExceptionTitle(intNumber)
	if !ok {
		kfmt.Printf("\ninterrupt with no handler: 0x%2x\n", uint8(intNumber))
		dumpRegisters(regs)
		panicFn(errUnhandledInterrupt)
		return
	}

	kfmt.Printf("\nException 0x%2x: %s\n", uint8(intNumber), title)
	if PushesErrorCode(intNumber) {
		kfmt.Printf("Error code: 0x%8x\n", regs.ErrorCode)
	}
	dumpRegisters(regs)
	panicFn(errUnhandledException)
}

func dumpRegisters(regs *Registers) {
	kfmt.Printf("Registers:\n")
	regs.DumpTo(kfmt.GetOutputSink())
}
