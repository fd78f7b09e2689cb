package gate

// gateEntry is the shared entry path that every stub jumps to. It saves the
// register file, calls dispatchInterrupt and returns with IRETL. It is never
// called from Go.
func gateEntry()

// gateEntryAddr returns the linear address of gateEntry.
func gateEntryAddr() uintptr

// RaiseSelfTest executes INT 0x30 (SelfTestVector). Software interrupts are
// delivered even while interrupts are disabled.
func RaiseSelfTest()
