package linker

import (
	"github.com/xyproto/r2k/internal/isa"
	"github.com/xyproto/r2k/internal/objfile"
)

// Startup returns r2k_startup_obj, the canned 68-byte .text preamble the
// linker prepends ahead of user modules unless Options.UseStartup is
// false. It queries the heap, sets up argc/argv/envp, calls main, and
// exits via SYS_EXIT2 (spec §4.4, §9 "Startup object").
func Startup() (*objfile.Module, error) {
	text := []byte{
		0x00, 0x0b, 0xad, 0x0d, // (reserved header word, carried from the original fixture)
		0x34, 0x02, 0x00, 0x09, // ori $v0, $zero, SYS_SBRK
		0x34, 0x04, 0x00, 0x00, // ori $a0, $zero, 0
		0x00, 0x00, 0x00, 0x0c, // syscall
		0x3c, 0x01, 0x00, 0x00, // lui $at, hi16(__heap_ptr)   [ref: __heap_ptr, IMM2]
		0xac, 0x22, 0x00, 0x00, // sw  $v0, lo16(__heap_ptr)($at)
		0x3c, 0x01, 0x00, 0x00, // lui $at, hi16(__heap_size)  [ref: __heap_size, IMM2]
		0xac, 0x23, 0x00, 0x00, // sw  $v1, lo16(__heap_size)($at)
		0x8f, 0xa4, 0x00, 0x00, // lw  $a0, 0($sp)   ; argc
		0x8f, 0xa5, 0x00, 0x04, // lw  $a1, 4($sp)   ; argv
		0x8f, 0xa6, 0x00, 0x08, // lw  $a2, 8($sp)   ; envp
		0x0c, 0x00, 0x00, 0x00, // jal main            [ref: main, JUMP]
		0x00, 0x00, 0x00, 0x00, // nop; main's jr $ra resumes here (no delay slot is executed)
		0x00, 0x40, 0x20, 0x20, // add $a0, $v0, $zero  ; move exit code from main's return
		0x34, 0x02, 0x00, 0x11, // ori $v0, $zero, SYS_EXIT2
		0x00, 0x00, 0x00, 0x0c, // syscall
		0x00, 0x00, 0x00, 0x00, // (padding)
	}

	strs := []string{"main", "__heap_size", "SYS_EXIT2", "SYS_SBRK", "__r2k__entry__", "__heap_ptr"}
	var strtab []byte
	offsets := make(map[string]uint32, len(strs))
	for _, s := range strs {
		offsets[s] = uint32(len(strtab))
		strtab = append(strtab, []byte(s)...)
		strtab = append(strtab, 0)
	}

	mod := &objfile.Module{
		Header: objfile.Header{
			Magic:   objfile.Magic,
			Version: objfile.Version,
			Sizes:   [10]uint32{uint32(len(text)), 0, 8, 0, 0, 0, 0, 3, 6, uint32(len(strtab))},
		},
		Text:  text,
		Rdata: []byte{},
		Data:  make([]byte, 8),
		Sdata: []byte{},
		Ref: []objfile.RefEntry{
			{Addr: 0x10, StrOff: offsets["__heap_ptr"], Sect: objfile.LocTEXT, Unknown: objfile.RefPlus, Typ: objfile.RefIMM2},
			{Addr: 0x18, StrOff: offsets["__heap_size"], Sect: objfile.LocTEXT, Unknown: objfile.RefPlus, Typ: objfile.RefIMM2},
			{Addr: 0x2c, StrOff: offsets["main"], Sect: objfile.LocTEXT, Unknown: objfile.RefPlus, Typ: objfile.RefJUMP},
		},
		Sym: []objfile.SymEntry{
			{Flags: uint32(objfile.LocTEXT) | uint32(objfile.SymGLB) | uint32(objfile.SymLBL), StrOff: offsets["main"]},
			{Flags: uint32(objfile.LocDATA) | uint32(objfile.SymGLB) | uint32(objfile.SymLBL) | uint32(objfile.SymDEF) | uint32(objfile.SymFORW), Val: 0x04, StrOff: offsets["__heap_size"]},
			{Flags: uint32(objfile.LocABS) | uint32(objfile.SymDEF) | uint32(objfile.SymEQ), Val: isa.SyscallExit2, StrOff: offsets["SYS_EXIT2"]},
			{Flags: uint32(objfile.LocABS) | uint32(objfile.SymDEF) | uint32(objfile.SymEQ), Val: isa.SyscallSbrk, StrOff: offsets["SYS_SBRK"]},
			{Flags: uint32(objfile.LocTEXT) | uint32(objfile.SymFORW) | uint32(objfile.SymDEF) | uint32(objfile.SymLBL) | uint32(objfile.SymGLB), StrOff: offsets["__r2k__entry__"]},
			{Flags: uint32(objfile.LocDATA) | uint32(objfile.SymFORW) | uint32(objfile.SymDEF) | uint32(objfile.SymLBL) | uint32(objfile.SymGLB), StrOff: offsets["__heap_ptr"]},
		},
		Strtab: strtab,
	}
	return mod, nil
}
