package cpu

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt disables interrupts and stops instruction execution. Halt never
// returns.
func Halt()

// WaitForInterrupt enables interrupts and idles the CPU until the next
// interrupt has been serviced.
func WaitForInterrupt()

// LoadGDT loads the GDTR register with the DescriptorTablePointer stored at
// ptr.
func LoadGDT(ptr uintptr)

// LoadIDT loads the IDTR register with the DescriptorTablePointer stored at
// ptr.
func LoadIDT(ptr uintptr)

// LoadSegment loads sel into the data segment register reg. Passing any
// value other than ES, SS, DS, FS or GS is a no-op.
func LoadSegment(reg SegmentRegister, sel uint16)

// LoadCodeSegment reloads CS with sel. A plain MOV cannot target CS so the
// new selector is installed with a far return to the caller.
func LoadCodeSegment(sel uint16)

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortWriteWord writes a uint16 value to the requested port.
func PortWriteWord(port uint16, val uint16)

// PortWriteDword writes a uint32 value to the requested port.
func PortWriteDword(port uint16, val uint32)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8

// PortReadWord reads a uint16 value from the requested port.
func PortReadWord(port uint16) uint16

// PortReadDword reads a uint32 value from the requested port.
func PortReadDword(port uint16) uint32
