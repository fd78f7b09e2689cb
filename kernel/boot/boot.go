// Package boot runs the one-shot sequence that moves the processor onto the
// kernel's own descriptor tables: load the GDT, remap the PICs, install the
// IDT and attach the timer and keyboard interrupt bodies.
package boot

import (
	"gopher386/kernel"
	"gopher386/kernel/gate"
	"gopher386/kernel/gdt"
	"gopher386/kernel/kfmt"
	"gopher386/kernel/pic"
)

// IRQ lines with a device body.
const (
	timerIRQ    = 0
	keyboardIRQ = 1
)

// Config holds the vector bases the PICs are remapped to.
type Config struct {
	// MasterVectorBase is the vector raised for IRQ0. IRQs 0-7 map to
	// MasterVectorBase+0..7.
	MasterVectorBase uint8

	// SlaveVectorBase is the vector raised for IRQ8. IRQs 8-15 map to
	// SlaveVectorBase+0..7.
	SlaveVectorBase uint8

	// SelfTest raises gate.SelfTestVector once the IDT is loaded and fails
	// Init if the interrupt does not reach its body.
	SelfTest bool
}

// DefaultConfig returns the conventional layout: IRQs 0-15 on vectors
// 0x20-0x2f, right after the CPU exception range.
func DefaultConfig() Config {
	return Config{
		MasterVectorBase: 0x20,
		SlaveVectorBase:  0x28,
	}
}

// Vector returns the interrupt vector raised for the given IRQ line.
func (c Config) Vector(irq uint8) gate.InterruptNumber {
	if irq >= pic.SlaveIRQBase {
		return gate.InterruptNumber(c.SlaveVectorBase + irq - pic.SlaveIRQBase)
	}
	return gate.InterruptNumber(c.MasterVectorBase + irq)
}

func (c Config) validate() *kernel.Error {
	for _, base := range []uint8{c.MasterVectorBase, c.SlaveVectorBase} {
		if base < 0x20 || base%8 != 0 {
			return errInvalidVectorBase
		}
	}

	// Bases are multiples of 8 so the two 8-vector ranges overlap only if
	// they start at the same vector.
	if c.MasterVectorBase == c.SlaveVectorBase {
		return errOverlappingVectorBase
	}

	// SelfTestVector is a multiple of 8 as well.
	if c.SelfTest && (c.MasterVectorBase == uint8(gate.SelfTestVector) || c.SlaveVectorBase == uint8(gate.SelfTestVector)) {
		return errSelfTestVectorInUse
	}

	return nil
}

// KeyboardNotifier is the keyboard driver hook invoked from the IRQ1 body.
// NotifyInterrupt runs with interrupts disabled; it must not allocate, block
// or raise IRQ1 again.
type KeyboardNotifier interface {
	NotifyInterrupt()
}

var (
	initialized bool
	keyboard    KeyboardNotifier

	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	gdtInitFn       = gdt.Init
	gdtLoadFn       = gdt.Load
	gateInitFn      = gate.Init
	gateHandleFn    = gate.HandleInterrupt
	gateLoadFn      = gate.Load
	raiseSelfTestFn = gate.RaiseSelfTest

	// selfTestHits counts deliveries of gate.SelfTestVector.
	selfTestHits uint32

	errAlreadyInitialized    = &kernel.Error{Module: "boot", Message: "processor tables have already been initialized"}
	errInvalidVectorBase     = &kernel.Error{Module: "boot", Message: "PIC vector base must be a multiple of 8 and at least 0x20"}
	errOverlappingVectorBase = &kernel.Error{Module: "boot", Message: "master and slave PIC vector ranges overlap"}
	errSelfTestVectorInUse   = &kernel.Error{Module: "boot", Message: "self-test vector is claimed by a PIC vector range"}
	errSelfTestFailed        = &kernel.Error{Module: "boot", Message: "self-test interrupt was not delivered"}
)

// Init brings up the processor tables and the interrupt controllers. It must
// be called with interrupts disabled; it leaves interrupts disabled and it is
// up to the caller to enable them once it is ready to service IRQs. kbd
// receives a notification for every keyboard interrupt and may be nil.
//
// Once the IDT has been loaded further calls fail with errAlreadyInitialized.
// If Init fails before that point the GDT and PIC steps are safe to repeat,
// so the caller may retry.
func Init(cfg Config, kbd KeyboardNotifier) *kernel.Error {
	if initialized {
		return errAlreadyInitialized
	}

	if err := cfg.validate(); err != nil {
		return err
	}

	gdtInitFn()
	gdtLoadFn()
	kfmt.Printf("[boot] GDT loaded (code: 0x%2x, data: 0x%2x)\n", uint16(gdt.KernelCode), uint16(gdt.KernelData))

	pic.Master().RemapTo(cfg.MasterVectorBase)
	pic.Slave().RemapTo(cfg.SlaveVectorBase)
	kfmt.Printf("[boot] PIC remapped (master: 0x%2x, slave: 0x%2x)\n", cfg.MasterVectorBase, cfg.SlaveVectorBase)

	if err := gateInitFn(); err != nil {
		return err
	}

	keyboard = kbd
	if err := gateHandleFn(cfg.Vector(timerIRQ), timerInterrupt); err != nil {
		return err
	}
	if err := gateHandleFn(cfg.Vector(keyboardIRQ), keyboardInterrupt); err != nil {
		return err
	}
	if cfg.SelfTest {
		if err := gateHandleFn(gate.SelfTestVector, selfTestInterrupt); err != nil {
			return err
		}
	}

	gateLoadFn()
	initialized = true
	kfmt.Printf("[boot] IDT loaded (%d vectors)\n", gate.Vectors)

	if cfg.SelfTest {
		selfTestHits = 0
		raiseSelfTestFn()
		if selfTestHits != 1 {
			return errSelfTestFailed
		}
		kfmt.Printf("[boot] self-test interrupt 0x%2x delivered\n", uint8(gate.SelfTestVector))
	}

	return nil
}

// selfTestInterrupt records a delivery of gate.SelfTestVector. The vector is
// raised by software so there is nothing to acknowledge.
func selfTestInterrupt() {
	selfTestHits++
}

// timerInterrupt only acknowledges IRQ0; the PIT is left at its firmware
// default rate.
func timerInterrupt() {
	pic.Acknowledge(timerIRQ)
}

// keyboardInterrupt forwards IRQ1 to the keyboard driver, then acknowledges
// it at the master PIC.
func keyboardInterrupt() {
	if keyboard != nil {
		keyboard.NotifyInterrupt()
	}
	pic.Acknowledge(keyboardIRQ)
}
