// Package isa implements the MIPS-I instruction encoding used by the r2k
// toolchain: the 32-bit word <-> typed Instruction codec and textual
// disassembly. It has no notion of object files or running programs; those
// live in internal/objfile and internal/vm respectively.
package isa

// R-form funct codes.
const (
	FunctSLL  uint8 = 0o00
	FunctSRL  uint8 = 0o02
	FunctSRA  uint8 = 0o03
	FunctSLLV uint8 = 0o04
	FunctSRLV uint8 = 0o06
	FunctSRAV uint8 = 0o07
	FunctJR   uint8 = 0o10
	FunctJALR uint8 = 0o11
	FunctSYSCALL uint8 = 0o14
	FunctBREAK   uint8 = 0o15
	FunctMFHI uint8 = 0o20
	FunctMTHI uint8 = 0o21
	FunctMFLO uint8 = 0o22
	FunctMTLO uint8 = 0o23
	FunctMULT  uint8 = 0o30
	FunctMULTU uint8 = 0o31
	FunctDIV   uint8 = 0o32
	FunctDIVU  uint8 = 0o33
	FunctADD  uint8 = 0o40
	FunctADDU uint8 = 0o41
	FunctSUB  uint8 = 0o42
	FunctSUBU uint8 = 0o43
	FunctAND uint8 = 0o44
	FunctOR  uint8 = 0o45
	FunctXOR uint8 = 0o46
	FunctNOR uint8 = 0o47
	FunctSLT  uint8 = 0o52
	FunctSLTU uint8 = 0o53
)

// Opcodes, R-form dispatches through OpFUNCT (opcode 0).
const (
	OpFUNCT uint8 = 0o00
	OpBCOND uint8 = 0o01
	OpJ     uint8 = 0o02
	OpJAL   uint8 = 0o03
	OpBEQ   uint8 = 0o04
	OpBNE   uint8 = 0o05
	OpBLEZ  uint8 = 0o06
	OpBGTZ  uint8 = 0o07
	OpADDI  uint8 = 0o10
	OpADDIU uint8 = 0o11
	OpSLTI  uint8 = 0o12
	OpSLTIU uint8 = 0o13
	OpANDI  uint8 = 0o14
	OpORI   uint8 = 0o15
	OpXORI  uint8 = 0o16
	OpLUI   uint8 = 0o17
	OpLB  uint8 = 0o40
	OpLH  uint8 = 0o41
	OpLWL uint8 = 0o42
	OpLW  uint8 = 0o43
	OpLBU uint8 = 0o44
	OpLHU uint8 = 0o45
	OpLWR uint8 = 0o46
	OpSB  uint8 = 0o50
	OpSH  uint8 = 0o51
	OpSWL uint8 = 0o52
	OpSW  uint8 = 0o53
	OpSWR uint8 = 0o56
)

// BCOND rt-field selectors (opcode OpBCOND).
const (
	BCondBLTZ   uint8 = 0o00
	BCondBGEZ   uint8 = 0o01
	BCondBLTZAL uint8 = 0o20
	BCondBGEZAL uint8 = 0o21
)

// SPIM-compatible syscall numbers, keyed by the value placed in $v0.
const (
	SyscallPrintInt    uint32 = 1
	SyscallPrintString uint32 = 4
	SyscallReadInt     uint32 = 5
	SyscallReadString  uint32 = 8
	SyscallSbrk        uint32 = 9
	SyscallExit        uint32 = 10
	SyscallPrintChar   uint32 = 11
	SyscallReadChar    uint32 = 12
	SyscallOpen        uint32 = 13
	SyscallRead        uint32 = 14
	SyscallWrite       uint32 = 15
	SyscallClose       uint32 = 16
	SyscallExit2       uint32 = 17
)
