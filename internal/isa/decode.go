package isa

// extractBits pulls a len-bit field out of val, where idx counts from the
// highest-order bit (idx 0 is bit 31, idx 31 is bit 0).
func extractBits(val uint32, idx, length uint8) uint32 {
	return (val << idx) >> (32 - length)
}

// Decode turns a 32-bit machine word into a typed Instruction. It validates
// the funct field for R-form instructions and the opcode for everything
// else, returning an *Error of kind InstructionParseError on anything it
// does not recognize.
func Decode(word uint32) (Instruction, error) {
	opcode := uint8(extractBits(word, 0, 6))
	rs := uint8(extractBits(word, 6, 5))
	rt := uint8(extractBits(word, 11, 5))
	rd := uint8(extractBits(word, 16, 5))
	shamt := uint8(extractBits(word, 21, 5))
	funct := uint8(extractBits(word, 26, 6))

	immI := uint16(extractBits(word, 16, 16))
	immJ := extractBits(word, 6, 26)

	switch {
	case opcode == OpFUNCT:
		if !legalFunct(funct) {
			return nil, parseError("illegal funct %#o", funct)
		}
		return RForm{Rs: rs, Rt: rt, Rd: rd, Shamt: shamt, Funct: funct}, nil
	case opcode == 0o02 || opcode == 0o03:
		return JForm{Op: opcode, Imm: immJ}, nil
	case opcode == OpBCOND:
		if rt != BCondBLTZ && rt != BCondBGEZ && rt != BCondBLTZAL && rt != BCondBGEZAL {
			return nil, parseError("illegal bcond selector %#o", rt)
		}
		return IForm{Op: opcode, Rs: rs, Rt: rt, Imm: immI}, nil
	case legalIOpcode(opcode):
		return IForm{Op: opcode, Rs: rs, Rt: rt, Imm: immI}, nil
	default:
		return nil, parseError("illegal opcode %#o", opcode)
	}
}

func legalFunct(funct uint8) bool {
	switch {
	case funct == 0o00 || (funct >= 0o02 && funct <= 0o04) || (funct >= 0o06 && funct <= 0o07):
		return true // shift
	case funct == 0o10 || funct == 0o11:
		return true // jump register
	case funct == 0o14 || funct == 0o15:
		return true // syscall / break
	case funct >= 0o20 && funct <= 0o23:
		return true // hi/lo move
	case funct >= 0o30 && funct <= 0o33:
		return true // mult / div
	case funct >= 0o40 && funct <= 0o47:
		return true // arithmetic
	case funct == 0o52 || funct == 0o53:
		return true // set-conditional
	default:
		return false
	}
}

func legalIOpcode(op uint8) bool {
	switch {
	case op >= 0o04 && op <= 0o17:
		return true
	case op >= 0o40 && op <= 0o46:
		return true
	case op >= 0o50 && op <= 0o53:
		return true
	case op == 0o56:
		return true
	default:
		return false
	}
}
