package gate

// InterruptNumber describes an x86 interrupt/exception/trap slot.
type InterruptNumber uint8

const (
	// DivideByZero occurs when dividing any number by 0 using the DIV or
	// IDIV instruction.
	DivideByZero = InterruptNumber(0x00)

	// Debug is raised by debug register breakpoints and single stepping.
	Debug = InterruptNumber(0x01)

	// NMI (non-maskable-interrupt) is a hardware interrupt that indicates
	// issues with RAM or unrecoverable hardware problems.
	NMI = InterruptNumber(0x02)

	// Breakpoint is raised by the INT3 instruction.
	Breakpoint = InterruptNumber(0x03)

	// Overflow is raised by the INTO instruction when EFLAGS.OF is set.
	Overflow = InterruptNumber(0x04)

	// BoundRangeExceeded occurs when the BOUND instruction is invoked with
	// an index out of range.
	BoundRangeExceeded = InterruptNumber(0x05)

	// InvalidOpcode occurs when the CPU attempts to execute an invalid or
	// undefined instruction opcode.
	InvalidOpcode = InterruptNumber(0x06)

	// DeviceNotAvailable occurs when the CPU attempts to execute an FPU
	// instruction while no FPU is available or while FPU support has been
	// disabled through CR0.
	DeviceNotAvailable = InterruptNumber(0x07)

	// DoubleFault occurs when an exception is raised while the CPU is
	// trying to deliver another exception.
	DoubleFault = InterruptNumber(0x08)

	// InvalidTSS occurs when a task switch references an invalid TSS.
	InvalidTSS = InterruptNumber(0x0a)

	// SegmentNotPresent occurs when loading a segment or gate whose
	// present bit is clear.
	SegmentNotPresent = InterruptNumber(0x0b)

	// StackSegmentFault occurs when loading a non-present stack segment
	// or when a stack limit check fails.
	StackSegmentFault = InterruptNumber(0x0c)

	// GPFException occurs when a general protection fault occurs.
	GPFException = InterruptNumber(0x0d)

	// PageFaultException occurs when a page directory or page table entry
	// is not present or when a privilege and/or RW protection check fails.
	PageFaultException = InterruptNumber(0x0e)

	// FloatingPointException occurs when an unmasked x87 exception is
	// pending while CR0.NE is set.
	FloatingPointException = InterruptNumber(0x10)

	// AlignmentCheck occurs when alignment checks are enabled and an
	// unaligned memory access is performed.
	AlignmentCheck = InterruptNumber(0x11)

	// MachineCheck occurs when the CPU detects internal errors such as
	// memory-, bus- or cache-related errors.
	MachineCheck = InterruptNumber(0x12)

	// SIMDFloatingPointException occurs when an unmasked SSE exception
	// occurs while CR4.OSXMMEXCPT is set.
	SIMDFloatingPointException = InterruptNumber(0x13)

	// VirtualizationException is raised by EPT violations.
	VirtualizationException = InterruptNumber(0x14)

	// ControlProtectionException is raised by control flow enforcement.
	ControlProtectionException = InterruptNumber(0x15)

	// HypervisorInjectionException is injected by a hypervisor.
	HypervisorInjectionException = InterruptNumber(0x1c)

	// VMMCommunicationException is raised inside SEV-ES guests.
	VMMCommunicationException = InterruptNumber(0x1d)

	// SecurityException is raised by security sensitive events.
	SecurityException = InterruptNumber(0x1e)

	// firstUserVector is the first vector outside the range reserved for
	// CPU exceptions.
	firstUserVector = InterruptNumber(0x20)

	// SelfTestVector is raised by RaiseSelfTest. It sits right after the
	// default PIC vector ranges.
	SelfTestVector = InterruptNumber(0x30)
)

// exceptionTitles maps CPU exception vectors to human readable titles. Empty
// slots are reserved vectors that get the generic unhandled report.
var exceptionTitles = [firstUserVector]string{
	DivideByZero:                 "Divide by zero",
	Debug:                        "Debug",
	NMI:                          "Non-maskable Interrupt",
	Breakpoint:                   "Breakpoint",
	Overflow:                     "Overflow",
	BoundRangeExceeded:           "Bound Range Exceeded",
	InvalidOpcode:                "Invalid Opcode",
	DeviceNotAvailable:           "Device Not Available",
	DoubleFault:                  "Double Fault",
	InvalidTSS:                   "Invalid TSS",
	SegmentNotPresent:            "Segment Not Present",
	StackSegmentFault:            "Stack-Segment Fault",
	GPFException:                 "General Protection Fault",
	PageFaultException:           "Page Fault",
	FloatingPointException:       "x87 Floating-Point Exception",
	AlignmentCheck:               "Alignment Check",
	MachineCheck:                 "Machine Check",
	SIMDFloatingPointException:   "SIMD Floating-Point Exception",
	VirtualizationException:      "Virtualization Exception",
	ControlProtectionException:   "Control Protection Exception",
	HypervisorInjectionException: "Hypervisor Injection Exception",
	VMMCommunicationException:    "VMM Communication Exception",
	SecurityException:            "Security Exception",
}

// errorCodeVectors has bit n set if the CPU pushes an error code when
// delivering exception n.
const errorCodeVectors = uint32(1)<<DoubleFault |
	1<<InvalidTSS |
	1<<SegmentNotPresent |
	1<<StackSegmentFault |
	1<<GPFException |
	1<<PageFaultException |
	1<<AlignmentCheck |
	1<<ControlProtectionException |
	1<<VMMCommunicationException |
	1<<SecurityException

// ExceptionTitle returns the title of the CPU exception raised at intNumber.
// The second result is false for vectors without a title.
func ExceptionTitle(intNumber InterruptNumber) (string, bool) {
	if intNumber >= firstUserVector {
		return "", false
	}

	title := exceptionTitles[intNumber]
	return title, title != ""
}

// PushesErrorCode returns true if the CPU pushes an error code onto the stack
// before invoking the gate for intNumber.
func PushesErrorCode(intNumber InterruptNumber) bool {
	return intNumber < firstUserVector && errorCodeVectors&(1<<intNumber) != 0
}
