package objfile

// SymFlag is the upper bitmask of a SymEntry's Flags word; the low 4 bits
// are instead a Location (see LocationOf).
type SymFlag uint32

const (
	SymFORW  SymFlag = 1 << 4
	SymDEF   SymFlag = 1 << 5
	SymEQ    SymFlag = 1 << 6
	SymLBL   SymFlag = 1 << 7
	SymREG   SymFlag = 1 << 8
	SymPRE   SymFlag = 1 << 9
	SymUNDEF SymFlag = 1 << 10
	SymXTV   SymFlag = 1 << 11
	SymMUL   SymFlag = 1 << 12
	SymRPT   SymFlag = 1 << 13
	SymGLB   SymFlag = 1 << 14
	SymSML   SymFlag = 1 << 15
	SymADJ   SymFlag = 1 << 16
	SymDISC  SymFlag = 1 << 17
	SymLIT   SymFlag = 1 << 18
)

const symLocationMask uint32 = 0xF

// LocationOf returns the Location encoded in the low 4 bits of flags.
func LocationOf(flags uint32) Location {
	return Location(flags & symLocationMask)
}

// HasAny reports whether flags has any bit of mask set.
func HasAny(flags uint32, mask SymFlag) bool {
	return flags&uint32(mask) != 0
}

// HasAll reports whether flags has every bit of mask set.
func HasAll(flags uint32, mask SymFlag) bool {
	return flags&uint32(mask) == uint32(mask)
}

// FlagsString renders the human-readable flag list a dumper would print,
// including the derived (computed, not stored) synonyms UNDEF/RELOC/EXTERN.
func FlagsString(flags uint32) string {
	var s string
	add := func(mask SymFlag, name string) {
		if HasAll(flags, mask) {
			s += name + " "
		}
	}
	add(SymFORW, "FORW")
	add(SymDEF, "DEF")
	add(SymEQ, "EQ")
	add(SymLBL, "LBL")
	add(SymREG, "REG")
	add(SymPRE, "PRE")
	add(SymXTV, "XTV")
	add(SymMUL, "MUL")
	add(SymRPT, "RPT")
	add(SymGLB, "GLB")
	add(SymSML, "SML")
	add(SymADJ, "ADJ")
	add(SymDISC, "DISC")
	add(SymLIT, "LIT")
	if !HasAny(flags, SymDEF|SymLIT) {
		s += "UNDEF "
	}
	if HasAll(flags, SymDEF) {
		s += "RELOC "
	}
	if HasAll(flags, SymGLB) && !HasAny(flags, SymDEF) {
		s += "EXTERN "
	}
	if len(s) > 0 {
		s = s[:len(s)-1]
	}
	return s
}
