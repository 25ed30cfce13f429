package isa

// registerNames is the conventional MIPS register-name table, index 0..31.
var registerNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// RegisterName returns the conventional name for register index r (0..31),
// or "" if r is out of range.
func RegisterName(r uint8) string {
	if int(r) >= len(registerNames) {
		return ""
	}
	return registerNames[r]
}

// Canonical register indices, used by the simulator rather than by the
// codec itself, but kept here alongside RegisterName since both describe
// the same fixed register file.
const (
	RegZero uint8 = 0
	RegAT   uint8 = 1
	RegV0   uint8 = 2
	RegV1   uint8 = 3
	RegA0   uint8 = 4
	RegA1   uint8 = 5
	RegA2   uint8 = 6
	RegA3   uint8 = 7
	RegT0   uint8 = 8
	RegT1   uint8 = 9
	RegK0   uint8 = 26
	RegK1   uint8 = 27
	RegGP   uint8 = 28
	RegSP   uint8 = 29
	RegFP   uint8 = 30
	RegRA   uint8 = 31
)
