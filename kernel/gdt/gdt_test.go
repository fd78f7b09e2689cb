package gdt

import (
	"gopher386/kernel/cpu"
	"testing"
	"unsafe"
)

func TestNewDescriptor(t *testing.T) {
	specs := []struct {
		base, limit  uint32
		access       Access
		pl           PrivilegeLevel
		exp          Descriptor
		expLimit     uint32
		expGranular  bool
		expAccessRaw uint8
	}{
		{
			0, 0xffffffff, AccessExecutable | AccessReadWrite | AccessNotTSS, Ring0,
			0x00cf9a000000ffff, 0xffffffff, true, 0x9a,
		},
		{
			0, 0xffffffff, AccessReadWrite | AccessNotTSS, Ring0,
			0x00cf92000000ffff, 0xffffffff, true, 0x92,
		},
		{
			0x00123456, 0xffff, AccessReadWrite | AccessNotTSS, Ring3,
			0x0040f2123456ffff, 0xffff, false, 0xf2,
		},
		{
			0xdead0000, 0xfffff, AccessExecutable | AccessNotTSS, Ring0,
			0xde4f98ad0000ffff, 0xfffff, false, 0x98,
		},
	}

	for specIndex, spec := range specs {
		d := NewDescriptor(spec.base, spec.limit, spec.access, spec.pl)
		if d != spec.exp {
			t.Errorf("[spec %d] expected descriptor 0x%016x; got 0x%016x", specIndex, uint64(spec.exp), uint64(d))
			continue
		}

		if got := d.Base(); got != spec.base {
			t.Errorf("[spec %d] expected base 0x%x; got 0x%x", specIndex, spec.base, got)
		}

		if got := d.Limit(); got != spec.expLimit {
			t.Errorf("[spec %d] expected limit 0x%x; got 0x%x", specIndex, spec.expLimit, got)
		}

		if got := d.PageGranular(); got != spec.expGranular {
			t.Errorf("[spec %d] expected page granularity to be %t", specIndex, spec.expGranular)
		}

		if got := d.PrivilegeLevel(); got != spec.pl {
			t.Errorf("[spec %d] expected privilege level %d; got %d", specIndex, spec.pl, got)
		}

		if got := uint8(d >> 40); got != spec.expAccessRaw {
			t.Errorf("[spec %d] expected raw access byte 0x%x; got 0x%x", specIndex, spec.expAccessRaw, got)
		}

		if exp, got := spec.access|AccessPresent, d.Access(); got != exp {
			t.Errorf("[spec %d] expected access 0x%x; got 0x%x", specIndex, exp, got)
		}

		if !d.Present() {
			t.Errorf("[spec %d] expected descriptor to be present", specIndex)
		}
	}
}

func TestNewDescriptorIgnoresDPLBitsInAccess(t *testing.T) {
	d := NewDescriptor(0, 0xffff, AccessReadWrite|AccessNotTSS|Access(0x60), Ring1)
	if got := d.PrivilegeLevel(); got != Ring1 {
		t.Fatalf("expected privilege level %d; got %d", Ring1, got)
	}
}

func TestNullDescriptor(t *testing.T) {
	if Null.Present() {
		t.Fatal("expected null descriptor not to be present")
	}

	if Null.Base() != 0 || Null.Limit() != 0 || Null.Access() != 0 {
		t.Fatal("expected null descriptor fields to be zero")
	}
}

func TestSelector(t *testing.T) {
	specs := []struct {
		index uint16
		pl    PrivilegeLevel
		exp   Selector
	}{
		{0, Ring0, 0x00},
		{1, Ring0, 0x08},
		{2, Ring0, 0x10},
		{2, Ring3, 0x13},
		{5, Ring1, 0x29},
	}

	for specIndex, spec := range specs {
		sel := NewSelector(spec.index, spec.pl)
		if sel != spec.exp {
			t.Errorf("[spec %d] expected selector 0x%x; got 0x%x", specIndex, spec.exp, sel)
			continue
		}

		if got := sel.Index(); got != spec.index {
			t.Errorf("[spec %d] expected index %d; got %d", specIndex, spec.index, got)
		}

		if got := sel.PrivilegeLevel(); got != spec.pl {
			t.Errorf("[spec %d] expected privilege level %d; got %d", specIndex, spec.pl, got)
		}
	}

	if KernelCode != 0x08 {
		t.Errorf("expected kernel code selector to be 0x08; got 0x%x", KernelCode)
	}

	if KernelData != 0x10 {
		t.Errorf("expected kernel data selector to be 0x10; got 0x%x", KernelData)
	}
}

func TestInit(t *testing.T) {
	Init()

	tbl := Table()
	if len(tbl) != 3 {
		t.Fatalf("expected table to contain 3 entries; got %d", len(tbl))
	}

	if tbl[0] != Null {
		t.Errorf("expected entry 0 to be the null descriptor; got 0x%016x", uint64(tbl[0]))
	}

	specs := []struct {
		sel       Selector
		expAccess Access
	}{
		{KernelCode, AccessPresent | AccessNotTSS | AccessExecutable | AccessReadWrite},
		{KernelData, AccessPresent | AccessNotTSS | AccessReadWrite},
	}

	for specIndex, spec := range specs {
		d := tbl[spec.sel.Index()]
		if d.Base() != 0 || d.Limit() != 0xffffffff {
			t.Errorf("[spec %d] expected flat segment; got base 0x%x limit 0x%x", specIndex, d.Base(), d.Limit())
		}

		if got := d.Access(); got != spec.expAccess {
			t.Errorf("[spec %d] expected access 0x%x; got 0x%x", specIndex, spec.expAccess, got)
		}

		if got := d.PrivilegeLevel(); got != Ring0 {
			t.Errorf("[spec %d] expected ring 0; got %d", specIndex, got)
		}
	}

	if exp, got := uint16(unsafe.Sizeof(table)-1), tablePtr.Limit(); got != exp {
		t.Errorf("expected table pointer limit %d; got %d", exp, got)
	}

	if exp, got := uint32(uintptr(unsafe.Pointer(&table))), tablePtr.Base(); got != exp {
		t.Errorf("expected table pointer base 0x%x; got 0x%x", exp, got)
	}
}

func TestLoad(t *testing.T) {
	defer func(origGDT func(uintptr), origSeg func(cpu.SegmentRegister, uint16), origCode func(uint16)) {
		loadGDTFn = origGDT
		loadSegmentFn = origSeg
		loadCodeSegmentFn = origCode
	}(loadGDTFn, loadSegmentFn, loadCodeSegmentFn)

	segNames := map[cpu.SegmentRegister]string{
		cpu.ES: "es", cpu.SS: "ss", cpu.DS: "ds", cpu.FS: "fs", cpu.GS: "gs",
	}

	var calls []string
	loadGDTFn = func(ptr uintptr) {
		if exp := tablePtr.Address(); ptr != exp {
			t.Errorf("expected lgdt operand 0x%x; got 0x%x", exp, ptr)
		}
		calls = append(calls, "lgdt")
	}
	loadSegmentFn = func(reg cpu.SegmentRegister, sel uint16) {
		if sel != uint16(KernelData) {
			t.Errorf("expected %s to be loaded with 0x10; got 0x%x", segNames[reg], sel)
		}
		calls = append(calls, segNames[reg])
	}
	loadCodeSegmentFn = func(sel uint16) {
		if sel != uint16(KernelCode) {
			t.Errorf("expected code segment to be loaded with 0x08; got 0x%x", sel)
		}
		calls = append(calls, "cs")
	}

	Init()
	Load()

	// GS keeps the thread-local storage segment set up before Load.
	exp := []string{"lgdt", "ds", "es", "fs", "ss", "cs"}
	if len(calls) != len(exp) {
		t.Fatalf("expected calls %v; got %v", exp, calls)
	}
	for i := range exp {
		if calls[i] != exp[i] {
			t.Fatalf("expected calls %v; got %v", exp, calls)
		}
	}
}
