//go:build !386

package cpu

func EnableInterrupts()                       { hostedOnly("sti") }
func DisableInterrupts()                      { hostedOnly("cli") }
func Halt()                                   { hostedOnly("hlt") }
func WaitForInterrupt()                       { hostedOnly("sti; hlt") }
func LoadGDT(_ uintptr)                       { hostedOnly("lgdt") }
func LoadIDT(_ uintptr)                       { hostedOnly("lidt") }
func LoadSegment(_ SegmentRegister, _ uint16) { hostedOnly("mov sreg") }
func LoadCodeSegment(_ uint16)                { hostedOnly("retf") }
func PortWriteByte(_ uint16, _ uint8)         { hostedOnly("outb") }
func PortWriteWord(_ uint16, _ uint16)        { hostedOnly("outw") }
func PortWriteDword(_ uint16, _ uint32)       { hostedOnly("outl") }
func PortReadByte(_ uint16) uint8             { hostedOnly("inb"); return 0 }
func PortReadWord(_ uint16) uint16            { hostedOnly("inw"); return 0 }
func PortReadDword(_ uint16) uint32           { hostedOnly("inl"); return 0 }

// hostedOnly is reached when code running on a development machine calls
// into an instruction wrapper instead of the mock installed by its tests.
func hostedOnly(insn string) {
	panic("cpu: " + insn + " requires GOARCH=386")
}
