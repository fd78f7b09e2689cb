// Package kmain contains the kernel entry point invoked by the rt0 code.
package kmain

import (
	"gopher386/kernel/boot"
	"gopher386/kernel/cpu"
	"gopher386/kernel/hal"
	"gopher386/kernel/hal/multiboot"
	"gopher386/kernel/kfmt"

	// Drivers register themselves with the device registry.
	_ "gopher386/device/keyboard"
	_ "gopher386/device/serial"
)

var (
	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	detectHardwareFn   = hal.DetectHardware
	activeKeyboardFn   = hal.ActiveKeyboard
	bootInitFn         = boot.Init
	enableInterruptsFn = cpu.EnableInterrupts
	waitForInterruptFn = cpu.WaitForInterrupt
	panicFn            = kfmt.Panic
	getBootCmdLineFn   = multiboot.GetBootCmdLine
)

// ScancodeReader is the part of a keyboard driver used by the idle loop.
type ScancodeReader interface {
	ReadScancode() (byte, bool)
}

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. The rt0 code sets up a stack and the Go runtime
// structures the kernel needs and then invokes Kmain with interrupts
// disabled, passing the address of the multiboot info block supplied by the
// boot loader.
//
// Kmain never returns.
//
//go:noinline
func Kmain(multibootInfoPtr uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)

	detectHardwareFn()
	kfmt.Printf("gopher386 starting\n")
	printBootInfo()

	var (
		kbd      = activeKeyboardFn()
		notifier boot.KeyboardNotifier
		reader   ScancodeReader
	)
	if kbd != nil {
		notifier, reader = kbd, kbd
	}

	cfg := boot.DefaultConfig()
	cfg.SelfTest = getBootCmdLineFn()["selftest"] == "on"

	if err := bootInitFn(cfg, notifier); err != nil {
		panicFn(err)
		return
	}

	kfmt.Printf("[kmain] enabling interrupts\n")
	enableInterruptsFn()

	for {
		waitForInterruptFn()
		drainScancodes(reader)
	}
}

// printBootInfo logs what the boot loader told us about the machine.
func printBootInfo() {
	if name := multiboot.GetBootLoaderName(); name != "" {
		kfmt.Printf("[kmain] boot loader: %s\n", name)
	}

	if lower, upper := multiboot.MemorySize(); lower != 0 || upper != 0 {
		kfmt.Printf("[kmain] memory: %d KiB lower, %d KiB upper\n", lower, upper)
	}

	multiboot.VisitMemRegions(func(entry *multiboot.MemoryMapEntry) bool {
		kfmt.Printf("[kmain] [0x%10x - 0x%10x] %s\n",
			entry.PhysAddress, entry.PhysAddress+entry.Length-1, entry.Type.String())
		return true
	})
}

// drainScancodes prints every scancode buffered by the keyboard driver.
func drainScancodes(r ScancodeReader) {
	if r == nil {
		return
	}

	for {
		scancode, ok := r.ReadScancode()
		if !ok {
			return
		}
		kfmt.Printf("[kmain] scancode 0x%2x\n", scancode)
	}
}
