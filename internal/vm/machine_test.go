package vm

import (
	"testing"

	"github.com/xyproto/r2k/internal/isa"
	"github.com/xyproto/r2k/internal/objfile"
)

// textModule builds a minimal executable module whose .text section is the
// encoding of insts, in order.
func textModule(insts ...isa.Instruction) *objfile.Module {
	var text []byte
	for _, inst := range insts {
		w := isa.Encode(inst)
		text = append(text, byte(w>>24), byte(w>>16), byte(w>>8), byte(w))
	}
	return &objfile.Module{
		Header: objfile.Header{
			Magic:   objfile.Magic,
			Version: objfile.Version,
			Flags:   0x1,
			Entry:   TextStart,
			Sizes:   [10]uint32{uint32(len(text)), 0, 0, 0, 0, 0, 0, 0, 0, 0},
		},
		Text:   text,
		Rdata:  []byte{},
		Data:   []byte{},
		Sdata:  []byte{},
		Strtab: []byte{},
	}
}

func addiu(rt, rs uint8, imm uint16) isa.Instruction {
	return isa.IForm{Op: isa.OpADDIU, Rs: rs, Rt: rt, Imm: imm}
}

func TestZeroRegisterStaysZero(t *testing.T) {
	mod := textModule(isa.RForm{Rs: isa.RegAT, Rt: isa.RegAT, Rd: isa.RegZero, Funct: isa.FunctADDU})
	m, ok := New(mod, Options{NoKernClobber: true})
	if !ok {
		t.Fatal("New: module rejected as non-executable")
	}
	m.Reg[isa.RegAT] = 5
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Reg[isa.RegZero] != 0 {
		t.Fatalf("$zero = %d, want 0", m.Reg[isa.RegZero])
	}
}

func TestAddOverflowTraps(t *testing.T) {
	mod := textModule(isa.RForm{Rs: isa.RegA0, Rt: isa.RegA1, Rd: isa.RegA2, Funct: isa.FunctADD})
	m, _ := New(mod, Options{NoKernClobber: true})
	m.Reg[isa.RegA0] = 0x7FFFFFFF
	m.Reg[isa.RegA1] = 1
	if err := m.Step(); err == nil {
		t.Fatal("expected overflow error")
	}
	if m.Reg[isa.RegA2] != 0 {
		t.Fatalf("destination register modified on overflow: got %#x", m.Reg[isa.RegA2])
	}
}

func TestAdduWrapsWithoutTrap(t *testing.T) {
	mod := textModule(isa.RForm{Rs: isa.RegA0, Rt: isa.RegA1, Rd: isa.RegA2, Funct: isa.FunctADDU})
	m, _ := New(mod, Options{NoKernClobber: true})
	m.Reg[isa.RegA0] = 0x7FFFFFFF
	m.Reg[isa.RegA1] = 1
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Reg[isa.RegA2] != 0x80000000 {
		t.Fatalf("ADDU result = %#x, want 0x80000000", m.Reg[isa.RegA2])
	}
}

func TestDivideByZeroTraps(t *testing.T) {
	mod := textModule(isa.RForm{Rs: isa.RegA0, Rt: isa.RegA1, Funct: isa.FunctDIV})
	m, _ := New(mod, Options{NoKernClobber: true})
	m.Reg[isa.RegA0] = 1
	m.Reg[isa.RegA1] = 0
	if err := m.Step(); err == nil {
		t.Fatal("expected divide-by-zero error")
	}
}

func TestBeqTakenJumpsPastNextInstruction(t *testing.T) {
	// beq $a0, $a1, 1 ; addiu $t0, $zero, 1 (skipped) ; addiu $t1, $zero, 2
	//
	// Taken-branch target = branch_pc + 4 + (imm<<2), the same formula a
	// delay-slot MIPS would use for its post-delay-slot fetch; since this
	// simulator never executes a delay slot, imm=1 lands exactly on the
	// third instruction instead of the (nonexistent) fourth.
	mod := textModule(
		isa.IForm{Op: isa.OpBEQ, Rs: isa.RegA0, Rt: isa.RegA1, Imm: 1},
		addiu(isa.RegT0, isa.RegZero, 1),
		addiu(isa.RegT1, isa.RegZero, 2),
	)
	m, _ := New(mod, Options{NoKernClobber: true})
	m.Reg[isa.RegA0] = 7
	m.Reg[isa.RegA1] = 7
	if err := m.Step(); err != nil {
		t.Fatalf("Step (branch): %v", err)
	}
	if err := m.Step(); err != nil {
		t.Fatalf("Step (addiu t1): %v", err)
	}
	if m.Reg[isa.RegT0] != 0 {
		t.Fatalf("delay-slot-equivalent instruction executed: t0 = %d", m.Reg[isa.RegT0])
	}
	if m.Reg[isa.RegT1] != 2 {
		t.Fatalf("t1 = %d, want 2", m.Reg[isa.RegT1])
	}
}

func TestBeqNotTakenFallsThrough(t *testing.T) {
	mod := textModule(
		isa.IForm{Op: isa.OpBEQ, Rs: isa.RegA0, Rt: isa.RegA1, Imm: 2},
		addiu(isa.RegT0, isa.RegZero, 1),
	)
	m, _ := New(mod, Options{NoKernClobber: true})
	m.Reg[isa.RegA0] = 7
	m.Reg[isa.RegA1] = 9
	if err := m.Step(); err != nil {
		t.Fatalf("Step (branch): %v", err)
	}
	if err := m.Step(); err != nil {
		t.Fatalf("Step (addiu): %v", err)
	}
	if m.Reg[isa.RegT0] != 1 {
		t.Fatalf("t0 = %d, want 1", m.Reg[isa.RegT0])
	}
}

func TestLuiOriBuildsConstant(t *testing.T) {
	mod := textModule(
		isa.IForm{Op: isa.OpLUI, Rt: isa.RegT0, Imm: 0x1234},
		isa.IForm{Op: isa.OpORI, Rs: isa.RegT0, Rt: isa.RegT0, Imm: 0x5678},
	)
	m, _ := New(mod, Options{NoKernClobber: true})
	if err := m.Step(); err != nil {
		t.Fatalf("Step (lui): %v", err)
	}
	if err := m.Step(); err != nil {
		t.Fatalf("Step (ori): %v", err)
	}
	if m.Reg[isa.RegT0] != 0x12345678 {
		t.Fatalf("t0 = %#x, want 0x12345678", m.Reg[isa.RegT0])
	}
}

func TestAddiSignExtends(t *testing.T) {
	mod := textModule(isa.IForm{Op: isa.OpADDI, Rs: isa.RegZero, Rt: isa.RegT0, Imm: 0xFFFF}) // addi t0, zero, -1
	m, _ := New(mod, Options{NoKernClobber: true})
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Reg[isa.RegT0] != 0xFFFFFFFF {
		t.Fatalf("t0 = %#x, want 0xFFFFFFFF", m.Reg[isa.RegT0])
	}
}

func TestSwLwRoundTrip(t *testing.T) {
	mod := textModule(
		isa.IForm{Op: isa.OpLUI, Rt: isa.RegAT, Imm: uint16(DataStart >> 16)},
		isa.IForm{Op: isa.OpSW, Rs: isa.RegAT, Rt: isa.RegZero, Imm: 0},
		isa.IForm{Op: isa.OpLW, Rs: isa.RegAT, Rt: isa.RegT0, Imm: 0},
	)
	mod.Header.Sizes[2] = 4 // non-empty .data so NewFromModule maps a writable page there
	mod.Data = make([]byte, 4)
	m, _ := New(mod, Options{NoKernClobber: true})
	for i := 0; i < 3; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if m.Reg[isa.RegT0] != 0 {
		t.Fatalf("t0 = %#x, want 0 ($zero stored)", m.Reg[isa.RegT0])
	}
}

func TestWriteToTextPageFails(t *testing.T) {
	mod := textModule(
		isa.IForm{Op: isa.OpLUI, Rt: isa.RegAT, Imm: uint16(TextStart >> 16)},
		isa.IForm{Op: isa.OpSW, Rs: isa.RegAT, Rt: isa.RegZero, Imm: 0},
	)
	m, _ := New(mod, Options{NoKernClobber: true})
	if err := m.Step(); err != nil {
		t.Fatalf("Step (lui): %v", err)
	}
	if err := m.Step(); err == nil {
		t.Fatal("expected write-to-read-only-page error")
	}
}

func TestRunExitsOnSyscallExit2(t *testing.T) {
	mod := textModule(
		addiu(isa.RegV0, isa.RegZero, uint16(isa.SyscallExit2)),
		addiu(isa.RegA0, isa.RegZero, 7),
		isa.RForm{Funct: isa.FunctSYSCALL},
	)
	m, _ := New(mod, Options{NoKernClobber: true})
	exit, err := m.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exit.Code != 7 {
		t.Fatalf("exit code = %d, want 7", exit.Code)
	}
}
