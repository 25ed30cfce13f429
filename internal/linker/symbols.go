package linker

import "github.com/xyproto/r2k/internal/objfile"

// dataLoadBase is the fixed virtual address vm.DataStart would place the
// .rdata/.data/.sdata/.sbss/.bss image at; duplicated here (rather than
// imported from the vm package) to keep the object format's address
// arithmetic independent of the simulator. textLoadBase reuses
// objfile.TextBaseAddr, the same constant Module.LabelAt compares against.
// A defined section-relative symbol's value in the linked, executable
// output is the absolute runtime address it will hold once loaded,
// matching spec's label_lookup convention ("val equals text_offset +
// 0x00400000 when the module is executable").
const (
	textLoadBase = objfile.TextBaseAddr
	dataLoadBase = 0x10000000
	pageSize     = 4096 // must match vm.PageSize
)

// sectionLoadBases mirrors vm.NewFromModule's layout exactly, including its
// whole-page rounding per section (vm.Memory.AllocData always advances to
// the next page boundary regardless of the exact byte count), so that a
// DATA-family symbol's computed address matches where it will actually be
// mapped at run time.
func sectionLoadBases(totals map[objfile.Location]uint32) map[objfile.Location]uint32 {
	pageCeil := func(n uint32) uint32 { return (n + pageSize - 1) / pageSize * pageSize }
	bases := map[objfile.Location]uint32{objfile.LocTEXT: textLoadBase}
	cursor := uint32(dataLoadBase)
	for _, loc := range []objfile.Location{objfile.LocRDATA, objfile.LocDATA, objfile.LocSDATA, objfile.LocSBSS, objfile.LocBSS} {
		bases[loc] = cursor
		cursor += pageCeil(totals[loc])
	}
	return bases
}

// symbolIndex is the by-name lookup resolveReferences consults: each
// symbol's final (post-relocation-base) value and whether it was ever
// defined anywhere.
type symbolIndex struct {
	value   map[string]uint32
	defined map[string]bool
}

type namedSym struct {
	name string
	orig objfile.SymEntry // pre-adjustment, for Defined()/flags checks
	sym  objfile.SymEntry // post str-remap, post base-adjustment
}

// mergeSymbols implements step 5: bucket every input module's symbols by
// name, resolve one definition per name (SYM_DEF wins over SYM_UNDEF;
// multiple SYM_DEF is a duplicate-symbol error unless every one of them
// carries SYM_MUL), and add each symbol's section base offset to its
// value when it is a defined, section-relative symbol.
func mergeSymbols(mods []*objfile.Module, infos []moduleInfo, strMaps []stringRemap, totals map[objfile.Location]uint32) ([]objfile.SymEntry, *symbolIndex, error) {
	loadBases := sectionLoadBases(totals)
	groups := make(map[string][]namedSym)
	var order []string

	for i, m := range mods {
		for _, sym := range m.Sym {
			name, ok := m.StringAt(sym.StrOff)
			if !ok {
				name = ""
			}
			adjusted := sym
			adjusted.StrOff = strMaps[i][sym.StrOff]
			if sym.Defined() {
				if modBase, ok := infos[i].base[sym.Location()]; ok {
					adjusted.Val = sym.Val + modBase + loadBases[sym.Location()]
				}
			}
			if _, seen := groups[name]; !seen {
				order = append(order, name)
			}
			groups[name] = append(groups[name], namedSym{name: name, orig: sym, sym: adjusted})
		}
	}

	index := &symbolIndex{value: make(map[string]uint32), defined: make(map[string]bool)}
	var out []objfile.SymEntry

	for _, name := range order {
		entries := groups[name]
		var defs []namedSym
		for _, e := range entries {
			if e.orig.Defined() {
				defs = append(defs, e)
			}
		}

		var winner namedSym
		switch {
		case len(defs) == 0:
			winner = entries[0]
		case len(defs) == 1:
			winner = defs[0]
		default:
			allMul := true
			for _, d := range defs {
				if !objfile.HasAll(d.orig.Flags, objfile.SymMUL) {
					allMul = false
					break
				}
			}
			if !allMul {
				return nil, nil, linkError(DuplicateSymbol, "linker: duplicate definition of symbol %q", name)
			}
			winner = defs[0]
		}

		out = append(out, winner.sym)
		index.value[name] = winner.sym.Val
		index.defined[name] = winner.orig.Defined()
	}

	return out, index, nil
}
