package linker

import "github.com/xyproto/r2k/internal/objfile"

// sectionBuffer returns the output module's mutable byte buffer for a
// relocatable section, or false if loc cannot host a fixup.
func sectionBuffer(out *objfile.Module, loc objfile.Location) ([]byte, bool) {
	switch loc {
	case objfile.LocTEXT:
		return out.Text, true
	case objfile.LocRDATA:
		return out.Rdata, true
	case objfile.LocDATA:
		return out.Data, true
	case objfile.LocSDATA:
		return out.Sdata, true
	default:
		return nil, false
	}
}

func readWordAt(buf []byte, off uint32) uint32 {
	return uint32(buf[off])<<24 | uint32(buf[off+1])<<16 | uint32(buf[off+2])<<8 | uint32(buf[off+3])
}

func writeWordAt(buf []byte, off uint32, v uint32) {
	buf[off] = byte(v >> 24)
	buf[off+1] = byte(v >> 16)
	buf[off+2] = byte(v >> 8)
	buf[off+3] = byte(v)
}

// patchWindow adjusts the bytes at addr within buf according to rtype's
// patch-width class. combine receives whatever value is already encoded
// there (the "seed") and returns the value to store; for relocations that
// is always seed+delta, for references it depends on the RefUnknown
// combinator.
func patchWindow(buf []byte, addr uint32, rtype objfile.RefType, combine func(seed uint32) uint32) error {
	switch rtype {
	case objfile.RefIMM:
		if addr+4 > uint32(len(buf)) {
			return recordBoundsError(addr)
		}
		w := readWordAt(buf, addr)
		nv := combine(w&0xFFFF) & 0xFFFF
		writeWordAt(buf, addr, w&0xFFFF0000|nv)

	case objfile.RefHWORD:
		if addr+4 > uint32(len(buf)) {
			return recordBoundsError(addr)
		}
		w := readWordAt(buf, addr)
		nv := combine((w>>16)&0xFFFF) & 0xFFFF
		writeWordAt(buf, addr, w&0x0000FFFF|nv<<16)

	case objfile.RefWORD:
		if addr+4 > uint32(len(buf)) {
			return recordBoundsError(addr)
		}
		w := readWordAt(buf, addr)
		writeWordAt(buf, addr, combine(w))

	case objfile.RefJUMP:
		if addr+4 > uint32(len(buf)) {
			return recordBoundsError(addr)
		}
		w := readWordAt(buf, addr)
		nv := combine(w&0x03FFFFFF) & 0x03FFFFFF
		writeWordAt(buf, addr, w&0xFC000000|nv)

	case objfile.RefIMM2, objfile.RefIMM3:
		if addr+8 > uint32(len(buf)) {
			return recordBoundsError(addr)
		}
		w1, w2 := readWordAt(buf, addr), readWordAt(buf, addr+4)
		seed := (w1&0xFFFF)<<16 | (w2 & 0xFFFF)
		nv := combine(seed)
		hi, lo := (nv>>16)&0xFFFF, nv&0xFFFF
		if rtype == objfile.RefIMM3 && lo&0x8000 != 0 {
			// The low half feeds a sign-extending instruction (e.g. addi,
			// lw/sw); compensate the high half for the borrow its sign
			// extension introduces. RefIMM2 pairs with a zero-extending
			// instruction (ori) and needs no such adjustment.
			hi++
		}
		writeWordAt(buf, addr, w1&0xFFFF0000|hi)
		writeWordAt(buf, addr+4, w2&0xFFFF0000|lo)

	default:
		return recordBoundsError(addr)
	}
	return nil
}

func recordBoundsError(addr uint32) error {
	return linkError(UndefinedSymbol, "linker: relocation/reference patch window at %#08x runs past its section", addr)
}

// applyRelocations implements step 6: every RelEntry in every input module
// patches the output section bytes by its own module's base offset in
// that section.
func applyRelocations(out *objfile.Module, mods []*objfile.Module, infos []moduleInfo) error {
	for i, m := range mods {
		base := infos[i].base
		for _, rel := range m.Rel {
			buf, ok := sectionBuffer(out, rel.Sect)
			if !ok {
				return linkError(UndefinedSymbol, "linker: relocation targets non-relocatable section %s", rel.Sect)
			}
			delta := base[rel.Sect]
			addr := delta + rel.Addr
			fieldDelta := delta
			if rel.Rel == objfile.RefJUMP {
				// The jump field stores addr>>2; since every section base is
				// word-aligned, the field-level delta is delta>>2.
				fieldDelta = delta >> 2
			}
			if err := patchWindow(buf, addr, rel.Rel, func(seed uint32) uint32 { return seed + fieldDelta }); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveReferences implements step 7: every RefEntry in every input
// module is resolved against the merged symbol table and patches the
// output section bytes using its RefUnknown combinator.
func resolveReferences(out *objfile.Module, mods []*objfile.Module, infos []moduleInfo, index *symbolIndex) error {
	for i, m := range mods {
		base := infos[i].base
		for _, ref := range m.Ref {
			name, ok := m.StringAt(ref.StrOff)
			if !ok || !index.defined[name] {
				return linkError(UndefinedSymbol, "linker: undefined reference to %q", name)
			}
			resolved := index.value[name]
			if ref.Typ == objfile.RefJUMP {
				// The jump field stores the target address>>2.
				resolved >>= 2
			}
			buf, ok := sectionBuffer(out, ref.Sect)
			if !ok {
				return linkError(UndefinedSymbol, "linker: reference targets non-relocatable section %s", ref.Sect)
			}
			addr := base[ref.Sect] + ref.Addr
			if err := patchWindow(buf, addr, ref.Typ, combinatorFor(ref.Unknown, resolved)); err != nil {
				return err
			}
		}
	}
	return nil
}

func combinatorFor(u objfile.RefUnknown, resolved uint32) func(uint32) uint32 {
	switch u {
	case objfile.RefEq:
		return func(uint32) uint32 { return resolved }
	case objfile.RefMinus:
		return func(seed uint32) uint32 { return seed - resolved }
	default: // RefPlus
		return func(seed uint32) uint32 { return seed + resolved }
	}
}

// resolveEntry implements step 8: prefer the startup object's
// __r2k__entry__ wrapper, falling back to main for a freestanding link.
func resolveEntry(out *objfile.Module) (uint32, bool) {
	if s, ok := findSymbolByName(out, "__r2k__entry__"); ok && s.Defined() {
		return s.Val, true
	}
	if s, ok := findSymbolByName(out, "main"); ok && s.Defined() {
		return s.Val, true
	}
	return 0, false
}

func findSymbolByName(out *objfile.Module, name string) (objfile.SymEntry, bool) {
	for _, s := range out.Sym {
		if n, ok := out.StringAt(s.StrOff); ok && n == name {
			return s, true
		}
	}
	return objfile.SymEntry{}, false
}
