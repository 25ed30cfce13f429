package isa

import "fmt"

// Disassemble renders inst in its canonical textual mnemonic form, e.g.
// "add $t0, $t1, $t2".
func Disassemble(inst Instruction) string {
	switch i := inst.(type) {
	case JForm:
		return fmt.Sprintf("%s %#08x", jMnemonic(i.Op), i.Imm<<2)
	case IForm:
		return disassembleI(i)
	case RForm:
		return disassembleR(i)
	default:
		return "???"
	}
}

func jMnemonic(op uint8) string {
	switch op {
	case OpJ:
		return "j"
	case OpJAL:
		return "jal"
	default:
		return "?"
	}
}

func disassembleI(i IForm) string {
	if i.Op == OpLUI {
		return fmt.Sprintf("lui $%s, %#04x", RegisterName(i.Rt), i.Imm)
	}
	name, ok := iMnemonics[i.Op]
	if !ok {
		name = "?"
	}
	return fmt.Sprintf("%s $%s, $%s, %#04x", name, RegisterName(i.Rt), RegisterName(i.Rs), i.Imm)
}

var iMnemonics = map[uint8]string{
	OpBCOND: "bcond",
	OpBEQ:   "beq",
	OpBNE:   "bne",
	OpBLEZ:  "blez",
	OpBGTZ:  "bgtz",
	OpADDI:  "addi",
	OpADDIU: "addiu",
	OpSLTI:  "slti",
	OpSLTIU: "sltiu",
	OpANDI:  "andi",
	OpORI:   "ori",
	OpXORI:  "xori",
	OpLB:    "lb",
	OpLH:    "lh",
	OpLWL:   "lwl",
	OpLW:    "lw",
	OpLBU:   "lbu",
	OpLHU:   "lhu",
	OpLWR:   "lwr",
	OpSB:    "sb",
	OpSH:    "sh",
	OpSWL:   "swl",
	OpSW:    "sw",
	OpSWR:   "swr",
}

func disassembleR(i RForm) string {
	switch i.Funct {
	case FunctSLL, FunctSRL, FunctSRA:
		return fmt.Sprintf("%s $%s, $%s, %d", rShiftMnemonic(i.Funct), RegisterName(i.Rd), RegisterName(i.Rt), i.Shamt)
	case FunctJR:
		return fmt.Sprintf("jr $%s", RegisterName(i.Rs))
	case FunctJALR:
		return fmt.Sprintf("jalr $%s, $%s", RegisterName(i.Rs), RegisterName(i.Rd))
	case FunctSYSCALL:
		return "syscall"
	case FunctBREAK:
		return "break"
	case FunctMFHI:
		return fmt.Sprintf("mfhi $%s", RegisterName(i.Rd))
	case FunctMFLO:
		return fmt.Sprintf("mflo $%s", RegisterName(i.Rd))
	case FunctMTHI:
		return fmt.Sprintf("mthi $%s", RegisterName(i.Rs))
	case FunctMTLO:
		return fmt.Sprintf("mtlo $%s", RegisterName(i.Rs))
	case FunctMULT, FunctMULTU, FunctDIV, FunctDIVU:
		return fmt.Sprintf("%s $%s, $%s", rMulDivMnemonic(i.Funct), RegisterName(i.Rs), RegisterName(i.Rt))
	case FunctADD, FunctADDU, FunctSUB, FunctSUBU, FunctAND, FunctOR, FunctXOR, FunctNOR, FunctSLT, FunctSLTU:
		return fmt.Sprintf("%s $%s, $%s, $%s", rArithMnemonic(i.Funct), RegisterName(i.Rd), RegisterName(i.Rs), RegisterName(i.Rt))
	default:
		return "???"
	}
}

func rShiftMnemonic(funct uint8) string {
	switch funct {
	case FunctSLL:
		return "sll"
	case FunctSRL:
		return "srl"
	case FunctSRA:
		return "sra"
	default:
		return "?"
	}
}

func rMulDivMnemonic(funct uint8) string {
	switch funct {
	case FunctMULT:
		return "mult"
	case FunctMULTU:
		return "multu"
	case FunctDIV:
		return "div"
	case FunctDIVU:
		return "divu"
	default:
		return "?"
	}
}

func rArithMnemonic(funct uint8) string {
	switch funct {
	case FunctADD:
		return "add"
	case FunctADDU:
		return "addu"
	case FunctSUB:
		return "sub"
	case FunctSUBU:
		return "subu"
	case FunctAND:
		return "and"
	case FunctOR:
		return "or"
	case FunctXOR:
		return "xor"
	case FunctNOR:
		return "nor"
	case FunctSLT:
		return "slt"
	case FunctSLTU:
		return "sltu"
	default:
		return "?"
	}
}
