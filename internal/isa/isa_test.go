package isa

import "testing"

func TestDecodeEncodeRoundTrip(t *testing.T) {
	words := []uint32{
		0x00000000,             // sll $zero, $zero, 0
		0x0000000c,             // syscall
		0x00430820,             // add $at, $v0, $v1 (funct 0o40)
		0x34020009,             // ori $v0, $zero, 9
		0x0c000000,             // jal 0
		0x3c010000,             // lui $at, 0
		0x8fa40000,             // lw $a0, 0($sp)
	}

	for _, w := range words {
		t.Run("", func(t *testing.T) {
			inst, err := Decode(w)
			if err != nil {
				t.Fatalf("Decode(%#08x): %v", w, err)
			}
			if got := Encode(inst); got != w {
				t.Fatalf("Encode(Decode(%#08x)) = %#08x, want %#08x", w, got, w)
			}
		})
	}
}

func TestDecodeIllegalFunct(t *testing.T) {
	// opcode 0, funct 0o77 is not in any legal range.
	word := uint32(0o77)
	if _, err := Decode(word); err == nil {
		t.Fatal("expected illegal funct error, got nil")
	}
}

func TestDecodeIllegalOpcode(t *testing.T) {
	// opcode 0o77 (0x3F) is not J, R, or I.
	word := uint32(0o77) << 26
	if _, err := Decode(word); err == nil {
		t.Fatal("expected illegal opcode error, got nil")
	}
}

func TestDisassembleLUI(t *testing.T) {
	inst := IForm{Op: OpLUI, Rt: 8, Imm: 0x1234}
	got := Disassemble(inst)
	want := "lui $t0, 0x1234"
	if got != want {
		t.Fatalf("Disassemble = %q, want %q", got, want)
	}
}

func TestDisassembleSyscall(t *testing.T) {
	inst := RForm{Funct: FunctSYSCALL}
	if got := Disassemble(inst); got != "syscall" {
		t.Fatalf("Disassemble = %q, want %q", got, "syscall")
	}
}

func TestRegisterName(t *testing.T) {
	cases := map[uint8]string{0: "zero", 2: "v0", 29: "sp", 31: "ra"}
	for reg, want := range cases {
		if got := RegisterName(reg); got != want {
			t.Errorf("RegisterName(%d) = %q, want %q", reg, got, want)
		}
	}
	if got := RegisterName(200); got != "" {
		t.Errorf("RegisterName(200) = %q, want empty", got)
	}
}
