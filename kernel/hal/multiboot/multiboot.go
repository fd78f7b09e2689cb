// Package multiboot reads the information block a multiboot (version 1)
// compliant boot loader hands to the kernel.
package multiboot

import (
	"strings"
	"unsafe"
)

// BootloaderMagic is the value a multiboot boot loader leaves in EAX when it
// jumps to the kernel.
const BootloaderMagic = 0x2badb002

// infoFlag bits announce which fields of the info block are valid.
type infoFlag uint32

const (
	flagMemInfo        infoFlag = 1 << 0
	flagBootCmdLine    infoFlag = 1 << 2
	flagMemoryMap      infoFlag = 1 << 6
	flagBootLoaderName infoFlag = 1 << 9
)

// Field offsets inside the info block.
const (
	offFlags          = 0
	offMemLower       = 4
	offMemUpper       = 8
	offCmdLine        = 16
	offMmapLength     = 44
	offMmapAddr       = 48
	offBootLoaderName = 64

	// The size field of a memory map entry is not included in the size
	// it reports.
	mmapSizeField = 4

	// maxStringLen bounds the scan for the terminator of C strings
	// supplied by the boot loader.
	maxStringLen = 4096
)

// MemoryEntryType defines the type of a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable indicates that the memory region is available for use.
	MemAvailable MemoryEntryType = iota + 1

	// MemReserved indicates that the memory region is not available for use.
	MemReserved

	// MemAcpiReclaimable indicates a memory region that holds ACPI info that
	// can be reused by the OS.
	MemAcpiReclaimable

	// MemNvs indicates memory that must be preserved when hibernating.
	MemNvs

	// Any value >= memUnknown will be mapped to MemReserved.
	memUnknown
)

// String implements fmt.Stringer for MemoryEntryType.
func (t MemoryEntryType) String() string {
	switch t {
	case MemAvailable:
		return "available"
	case MemReserved:
		return "reserved"
	case MemAcpiReclaimable:
		return "ACPI (reclaimable)"
	case MemNvs:
		return "NVS"
	default:
		return "unknown"
	}
}

// MemoryMapEntry describes a memory region entry, namely its physical address,
// its length and its type.
type MemoryMapEntry struct {
	// The physical address for this memory region.
	PhysAddress uint64

	// The length of the memory region.
	Length uint64

	// The type of this entry.
	Type MemoryEntryType
}

// MemRegionVisitor is invoked by VisitMemRegions for each memory region
// reported by the boot loader. The visitor must return true to continue or
// false to abort the scan. The entry is only valid during the call.
type MemRegionVisitor func(entry *MemoryMapEntry) bool

var (
	infoData  uintptr
	cmdLineKV map[string]string

	// visitEntry is reused by VisitMemRegions so that the scan does not
	// allocate.
	visitEntry MemoryMapEntry

	// physToVirtFn translates physical addresses stored in the info block.
	// Memory is identity mapped; tests replace this to point at buffers.
	physToVirtFn = func(phys uint32) uintptr { return uintptr(phys) }
)

// SetInfoPtr updates the internal multiboot information pointer to the given
// value. This function must be invoked before invoking any other function
// exported by this package.
func SetInfoPtr(ptr uintptr) {
	infoData = ptr
	cmdLineKV = nil
}

func readUint32(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

func hasFlag(flag infoFlag) bool {
	return infoData != 0 && infoFlag(readUint32(infoData+offFlags))&flag != 0
}

// MemorySize returns the amount of lower and upper memory in KiB as reported
// by the BIOS. Both values are 0 if the boot loader did not supply them.
func MemorySize() (lowerKB, upperKB uint32) {
	if !hasFlag(flagMemInfo) {
		return 0, 0
	}

	return readUint32(infoData + offMemLower), readUint32(infoData + offMemUpper)
}

// VisitMemRegions will invoke the supplied visitor for each memory region that
// is defined by the multiboot info data that we received from the bootloader.
func VisitMemRegions(visitor MemRegionVisitor) {
	if !hasFlag(flagMemoryMap) {
		return
	}

	var (
		curPtr = physToVirtFn(readUint32(infoData + offMmapAddr))
		endPtr = curPtr + uintptr(readUint32(infoData+offMmapLength))
	)

	// Entries are packed: size (4), base (8), length (8), type (4). They
	// are read field by field since the layout is not naturally aligned.
	for curPtr < endPtr {
		visitEntry.PhysAddress = uint64(readUint32(curPtr+4)) | uint64(readUint32(curPtr+8))<<32
		visitEntry.Length = uint64(readUint32(curPtr+12)) | uint64(readUint32(curPtr+16))<<32
		visitEntry.Type = MemoryEntryType(readUint32(curPtr + 20))

		// Mark unknown entry types as reserved
		if visitEntry.Type == 0 || visitEntry.Type >= memUnknown {
			visitEntry.Type = MemReserved
		}

		if !visitor(&visitEntry) {
			return
		}

		curPtr += uintptr(readUint32(curPtr)) + mmapSizeField
	}
}

// cString returns the NULL-terminated string at the physical address phys.
func cString(phys uint32) string {
	if phys == 0 {
		return ""
	}

	start := physToVirtFn(phys)
	n := 0
	for ; n < maxStringLen && *(*byte)(unsafe.Pointer(start + uintptr(n))) != 0; n++ {
	}

	return string(unsafe.Slice((*byte)(unsafe.Pointer(start)), n))
}

// GetBootLoaderName returns the name reported by the boot loader or an empty
// string if none was supplied.
func GetBootLoaderName() string {
	if !hasFlag(flagBootLoaderName) {
		return ""
	}

	return cString(readUint32(infoData + offBootLoaderName))
}

// GetBootCmdLine returns the command line key-value pairs passed to the
// kernel. Bare words such as the kernel path map to themselves. The result is
// parsed once and cached; this function allocates and must not be called from
// an interrupt body.
func GetBootCmdLine() map[string]string {
	if cmdLineKV != nil {
		return cmdLineKV
	}

	cmdLineKV = make(map[string]string)
	if !hasFlag(flagBootCmdLine) {
		return cmdLineKV
	}

	for _, pair := range strings.Fields(cString(readUint32(infoData + offCmdLine))) {
		kv := strings.Split(pair, "=")
		switch len(kv) {
		case 2: // foo=bar
			cmdLineKV[kv[0]] = kv[1]
		case 1: // nofoo
			cmdLineKV[kv[0]] = kv[0]
		}
	}

	return cmdLineKV
}
