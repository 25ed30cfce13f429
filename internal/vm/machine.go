package vm

import (
	"fmt"
	"os"

	"github.com/xyproto/r2k/internal/isa"
	"github.com/xyproto/r2k/internal/objfile"
)

// Trace gates per-instruction disassembly lines written to stderr — the
// same texture as objfile.Verbose, one flag per package rather than a
// shared logger.
var Trace bool

// Options configures a Machine's trap behavior and initial memory layout;
// it is the simulator-facing subset of the run command's flags (see
// internal/config.Sim).
type Options struct {
	// NoKernClobber disables the k0/k1 register scramble handleTrap performs
	// on every trap (SPIM's "-nc" behavior).
	NoKernClobber bool
	// StackSizeBytes overrides the default 1 MiB stack reservation when
	// nonzero (the run command's -s flag).
	StackSizeBytes uint32
	// BSSFill overrides the zero fill SBSS/BSS otherwise get when nonzero
	// (the run command's -b flag).
	BSSFill byte
	// InstrLimit stops Run with an error after this many instructions, 0
	// meaning unbounded (the run command's instruction-limit flag).
	InstrLimit uint64
}

// kernClobberMask is XORed into k0/k1 on trap when their low bit is set,
// before both registers are shifted right one place. It mirrors a
// documented quirk of the original kernel-register clobber, not anything
// derived from MIPS exception handling.
const kernClobberMask uint32 = 0b10000000_00000000_00000000_01100010

// Machine is a MIPS-I user-mode execution context: 32 general registers,
// PC/HI/LO, a paged address space, and the open-file table syscalls index
// into. It is named Machine rather than Exec to avoid colliding with Go's
// exec package; the rename carries no semantic change.
type Machine struct {
	Reg [32]uint32
	PC  uint32
	HI  uint32
	LO  uint32

	Mem *Memory

	heapStart    uint32
	heapSize     uint32
	heapNextPage uint32

	files  *fileTable
	opts   Options
	exited bool
	exit   Exit
	steps  uint64
}

// New builds a Machine ready to execute mod, which must be an executable
// (linked, entry-bearing) module. It returns false if mod has no resolved
// entry point.
func New(mod *objfile.Module, opts Options) (*Machine, bool) {
	if !mod.Header.Executable() {
		return nil, false
	}

	mem, heapStart := NewFromModule(mod, opts.StackSizeBytes, opts.BSSFill)

	m := &Machine{
		Mem:          mem,
		PC:           mod.Header.Entry,
		heapStart:    heapStart,
		heapNextPage: heapStart,
		files:        newFileTable(),
		opts:         opts,
	}
	// __r2k__startup__obj__ reads a bit above the stack pointer, so the
	// initial sp sits below the top of the reserved stack region.
	m.Reg[isa.RegSP] = StackStart - 0x1000
	m.Reg[isa.RegFP] = StackStart
	m.Reg[isa.RegGP] = DataStart

	if !opts.NoKernClobber {
		m.Reg[isa.RegK0] = 0x00000000
		m.Reg[isa.RegK1] = 0xFFFFFFFF
	}

	return m, true
}

// Clone returns an independent copy of m; cloned Machines do not share
// memory or open files (cloned file descriptors start fresh, matching the
// original simulator's snapshot semantics).
func (m *Machine) Clone() *Machine {
	out := *m
	out.Mem = m.Mem.Clone()
	out.files = newFileTable()
	return &out
}

// Run steps the machine until it exits or traps unhandled.
func (m *Machine) Run() (Exit, error) {
	for {
		if err := m.Step(); err != nil {
			return Exit{}, err
		}
		if m.exited {
			return m.exit, nil
		}
	}
}

// Step executes exactly one instruction, including any syscall it raises.
// It returns an error only for an unreadable or illegal instruction word,
// an unhandled trap (memory faults, overflow, divide-by-zero), or for
// exceeding Options.InstrLimit; an exit request
// instead sets m.exited and is reported by Run.
func (m *Machine) Step() error {
	if m.opts.InstrLimit != 0 && m.steps >= m.opts.InstrLimit {
		return &Error{Kind: UnhandledException, Msg: fmt.Sprintf("instruction limit of %d exceeded", m.opts.InstrLimit)}
	}
	m.steps++

	word, err := m.Mem.ReadWord(m.PC)
	if err != nil {
		return &Error{Kind: UnhandledException, Msg: fmt.Sprintf("unhandled exception: memory exception: %s", err)}
	}
	inst, err := isa.Decode(word)
	if err != nil {
		return &Error{Kind: UnhandledException, Msg: fmt.Sprintf("unhandled exception: illegal instruction: %s", err)}
	}
	if Trace {
		fmt.Fprintf(os.Stderr, "pc @ 0x%08x: 0x%08x -> %s\n", m.PC, word, isa.Disassemble(inst))
	}

	trap := m.exec(inst)
	if trap != nil {
		if err := m.handleTrap(trap); err != nil {
			return err
		}
	}

	m.Reg[isa.RegZero] = 0
	m.PC += 4
	return nil
}

// handleTrap applies the kernel-register clobber, then either services the
// trap (Syscall/Break) or converts it into a terminal error/exit.
func (m *Machine) handleTrap(t Trap) error {
	if !m.opts.NoKernClobber {
		if m.Reg[isa.RegK0]&1 != 0 {
			m.Reg[isa.RegK0] ^= kernClobberMask
		}
		m.Reg[isa.RegK0] >>= 1
		if m.Reg[isa.RegK1]&1 != 0 {
			m.Reg[isa.RegK1] ^= kernClobberMask
		}
		m.Reg[isa.RegK1] >>= 1
	}

	switch tt := t.(type) {
	case Syscall, Break:
		return m.syscall()
	case Exit:
		m.exited = true
		m.exit = tt
		return nil
	default:
		return &Error{Kind: UnhandledException, Msg: fmt.Sprintf("unhandled exception: %s", t.(interface{ String() string }).String())}
	}
}

func signExtend16(v uint16) int32 { return int32(int16(v)) }

// exec executes one decoded instruction against the register/PC/HI/LO
// state, returning a non-nil Trap if it raised one. Branch and jump
// targets are computed against the not-yet-incremented PC and folded into
// the unconditional PC+4 Step performs afterward, which is what makes this
// simulator functionally correct but not delay-slot accurate: the
// instruction immediately after a taken branch or jump is skipped rather
// than executed once more, unlike real MIPS-I hardware. JR and JALR set
// PC to rs itself, so the PC+4 lands on the instruction after the jal or
// jalr that wrote a return address into rs.
func (m *Machine) exec(inst isa.Instruction) Trap {
	switch i := inst.(type) {
	case isa.RForm:
		return m.execR(i)
	case isa.IForm:
		return m.execI(i)
	case isa.JForm:
		return m.execJ(i)
	}
	panic("vm: unknown Instruction implementation")
}

func (m *Machine) execR(i isa.RForm) Trap {
	rs, rt, rd := m.Reg[i.Rs], m.Reg[i.Rt], i.Rd
	switch i.Funct {
	case isa.FunctSLL:
		m.Reg[rd] = rt << i.Shamt
	case isa.FunctSRL:
		m.Reg[rd] = rt >> i.Shamt
	case isa.FunctSRA:
		m.Reg[rd] = uint32(int32(rt) >> i.Shamt)
	case isa.FunctSLLV:
		m.Reg[rd] = rt << (rs & 0x1F)
	case isa.FunctSRLV:
		m.Reg[rd] = rt >> (rs & 0x1F)
	case isa.FunctSRAV:
		m.Reg[rd] = uint32(int32(rt) >> (rs & 0x1F))
	case isa.FunctJR:
		m.PC = rs
	case isa.FunctJALR:
		m.Reg[rd] = m.PC
		m.PC = rs
	case isa.FunctSYSCALL:
		return Syscall{}
	case isa.FunctBREAK:
		return Break{}
	case isa.FunctMFHI:
		m.Reg[rd] = m.HI
	case isa.FunctMTHI:
		m.HI = rs
	case isa.FunctMFLO:
		m.Reg[rd] = m.LO
	case isa.FunctMTLO:
		m.LO = rs
	case isa.FunctMULT:
		a, b := int64(int32(rs)), int64(int32(rt))
		res := uint64(a * b)
		m.HI = uint32(res >> 32)
		m.LO = uint32(res & 0xFFFFFFFF)
	case isa.FunctMULTU:
		res := uint64(rs) * uint64(rt)
		m.HI = uint32(res >> 32)
		m.LO = uint32(res & 0xFFFFFFFF)
	case isa.FunctDIV:
		a, b := int32(rs), int32(rt)
		if b == 0 {
			return DivideByZero{}
		}
		m.LO = uint32(a / b)
		m.HI = uint32(a % b)
	case isa.FunctDIVU:
		if rt == 0 {
			return DivideByZero{}
		}
		m.LO = rs / rt
		m.HI = rs % rt
	case isa.FunctADD:
		a, b := int32(rs), int32(rt)
		v := a + b
		if overflowsAdd(a, b, v) {
			return Overflow{}
		}
		m.Reg[rd] = uint32(v)
	case isa.FunctADDU:
		m.Reg[rd] = rs + rt
	case isa.FunctSUB:
		a, b := int32(rs), int32(rt)
		v := a - b
		if overflowsSub(a, b, v) {
			return Overflow{}
		}
		m.Reg[rd] = uint32(v)
	case isa.FunctSUBU:
		m.Reg[rd] = rs - rt
	case isa.FunctAND:
		m.Reg[rd] = rs & rt
	case isa.FunctOR:
		m.Reg[rd] = rs | rt
	case isa.FunctXOR:
		m.Reg[rd] = rs ^ rt
	case isa.FunctNOR:
		m.Reg[rd] = ^(rs | rt)
	case isa.FunctSLT:
		m.Reg[rd] = boolU32(int32(rs) < int32(rt))
	case isa.FunctSLTU:
		m.Reg[rd] = boolU32(rs < rt)
	}
	return nil
}

func (m *Machine) execI(i isa.IForm) Trap {
	rs, rt := m.Reg[i.Rs], i.Rt
	imm := i.Imm
	branch := func() {
		m.PC = uint32(int32(m.PC) + (signExtend16(imm) << 2))
	}

	switch i.Op {
	case isa.OpBCOND:
		switch i.Rt {
		case isa.BCondBLTZ:
			if int32(rs) < 0 {
				branch()
			}
		case isa.BCondBGEZ:
			if int32(rs) >= 0 {
				branch()
			}
		case isa.BCondBLTZAL:
			if int32(rs) < 0 {
				m.Reg[isa.RegRA] = m.PC
				branch()
			}
		case isa.BCondBGEZAL:
			if int32(rs) >= 0 {
				m.Reg[isa.RegRA] = m.PC
				branch()
			}
		}
	case isa.OpBEQ:
		if rs == m.Reg[rt] {
			branch()
		}
	case isa.OpBNE:
		if rs != m.Reg[rt] {
			branch()
		}
	case isa.OpBLEZ:
		if int32(rs) <= 0 {
			branch()
		}
	case isa.OpBGTZ:
		if int32(rs) > 0 {
			branch()
		}
	case isa.OpADDI:
		a, b := int32(rs), signExtend16(imm)
		v := a + b
		if overflowsAdd(a, b, v) {
			return Overflow{}
		}
		m.Reg[rt] = uint32(v)
	case isa.OpADDIU:
		m.Reg[rt] = rs + uint32(signExtend16(imm))
	case isa.OpSLTI:
		m.Reg[rt] = boolU32(int32(rs) < signExtend16(imm))
	case isa.OpSLTIU:
		// Compares unsigned rs against the immediate; any immediate with
		// its high bit set makes the result 0, whatever rs holds.
		if imm&0x8000 == 0 && rs < uint32(imm) {
			m.Reg[rt] = 1
		} else {
			m.Reg[rt] = 0
		}
	case isa.OpANDI:
		m.Reg[rt] = rs & uint32(imm)
	case isa.OpORI:
		m.Reg[rt] = rs | uint32(imm)
	case isa.OpXORI:
		m.Reg[rt] = rs ^ uint32(imm)
	case isa.OpLUI:
		m.Reg[rt] = uint32(imm) << 16
	case isa.OpLB:
		a := uint32(int32(rs) + signExtend16(imm))
		v, err := m.Mem.ReadByte(a)
		if err != nil {
			return MemoryTrap{Err: err}
		}
		m.Reg[rt] = uint32(int32(int8(v)))
	case isa.OpLH:
		a := uint32(int32(rs) + signExtend16(imm))
		v, err := m.Mem.ReadHalf(a)
		if err != nil {
			return MemoryTrap{Err: err}
		}
		m.Reg[rt] = uint32(int32(int16(v)))
	case isa.OpLW:
		a := uint32(int32(rs) + signExtend16(imm))
		v, err := m.Mem.ReadWord(a)
		if err != nil {
			return MemoryTrap{Err: err}
		}
		m.Reg[rt] = v
	case isa.OpLBU:
		a := uint32(int32(rs) + signExtend16(imm))
		v, err := m.Mem.ReadByte(a)
		if err != nil {
			return MemoryTrap{Err: err}
		}
		m.Reg[rt] = uint32(v)
	case isa.OpLHU:
		a := uint32(int32(rs) + signExtend16(imm))
		v, err := m.Mem.ReadHalf(a)
		if err != nil {
			return MemoryTrap{Err: err}
		}
		m.Reg[rt] = uint32(v)
	case isa.OpSB:
		a := uint32(int32(rs) + signExtend16(imm))
		if err := m.Mem.WriteByte(a, byte(m.Reg[rt])); err != nil {
			return MemoryTrap{Err: err}
		}
	case isa.OpSH:
		a := uint32(int32(rs) + signExtend16(imm))
		if err := m.Mem.WriteHalf(a, uint16(m.Reg[rt])); err != nil {
			return MemoryTrap{Err: err}
		}
	case isa.OpSW:
		a := uint32(int32(rs) + signExtend16(imm))
		if err := m.Mem.WriteWord(a, m.Reg[rt]); err != nil {
			return MemoryTrap{Err: err}
		}
	}
	return nil
}

func (m *Machine) execJ(i isa.JForm) Trap {
	switch i.Op {
	case isa.OpJ:
		m.PC = (m.PC&0xF0000000 | (i.Imm << 2)) - 4
	case isa.OpJAL:
		m.Reg[isa.RegRA] = m.PC
		m.PC = (m.PC&0xF0000000 | (i.Imm << 2)) - 4
	}
	return nil
}

func overflowsAdd(a, b, v int32) bool {
	return (b > 0 && v < a) || (b < 0 && v > a)
}

func overflowsSub(a, b, v int32) bool {
	return (b < 0 && v < a) || (b > 0 && v > a)
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
