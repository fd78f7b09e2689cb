package gate

import "encoding/binary"

// stubSize is the number of bytes reserved for each per-vector stub.
const stubSize = 16

// Stub opcodes.
const (
	opPushImm8  = 0x6a
	opPushImm32 = 0x68
	opJmpRel32  = 0xe9
	opNop       = 0x90
	opInt3      = 0xcc

	// jmpEnd is the offset of the first byte after the jmp instruction;
	// rel32 is computed relative to it.
	jmpEnd = 12
)

// stubs holds the generated entry point for every vector. Each gate in the
// IDT points at its own stub which normalizes the stack and jumps to the
// shared gateEntry:
//
//	push $0        (6a 00) or nop; nop (90 90) if the CPU pushed an error code
//	push $vector   (68 imm32)
//	jmp  gateEntry (e9 rel32)
//	int3 ...       padding
//
// Pushing a dummy error code gives every vector the same frame layout so
// gateEntry can always drop two words before IRETL.
var stubs [Vectors][stubSize]byte

// writeStub encodes the stub for intNumber into buf. stubAddr is the linear
// address buf will execute from and entry is the address of gateEntry.
func writeStub(buf *[stubSize]byte, intNumber InterruptNumber, stubAddr, entry uint32) {
	if PushesErrorCode(intNumber) {
		buf[0], buf[1] = opNop, opNop
	} else {
		buf[0], buf[1] = opPushImm8, 0
	}

	buf[2] = opPushImm32
	binary.LittleEndian.PutUint32(buf[3:7], uint32(intNumber))

	buf[7] = opJmpRel32
	binary.LittleEndian.PutUint32(buf[8:jmpEnd], entry-(stubAddr+jmpEnd))

	for i := jmpEnd; i < stubSize; i++ {
		buf[i] = opInt3
	}
}
