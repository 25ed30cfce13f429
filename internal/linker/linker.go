// Package linker implements the r2k object-module linker: section
// concatenation, string-table deduplication, symbol resolution, and
// relocation/reference application across an ordered list of object
// modules plus the built-in startup module, producing one executable
// ObjectModule (spec §4.4). The algorithm is only sketched in the
// reference implementation this tool descends from; this package
// completes it.
package linker

import (
	"fmt"
	"os"
	"sort"

	"github.com/xyproto/r2k/internal/objfile"
)

// Verbose gates stderr diagnostics about section layout and symbol
// resolution, the same texture as objfile.Verbose and vm.Trace.
var Verbose bool

// ErrorKind classifies the errors Link can return.
type ErrorKind int

const (
	DuplicateSymbol ErrorKind = iota
	UndefinedSymbol
	NoEntryPoint
)

// Error is the error type returned by Link.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func linkError(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Options configures a link. UseStartup controls whether the built-in
// startup object is prepended ahead of mods; disabling it is useful for
// linking a freestanding module whose own main acts as the entry point.
type Options struct {
	UseStartup bool
}

// textAlign/otherAlign are the per-section alignments step 2 of the
// algorithm applies when assigning module section bases.
const (
	textAlign  = 4
	otherAlign = 8
)

func alignTo(val, align uint32) uint32 {
	return (val + align - 1) / align * align
}

// moduleInfo records the ofid and per-section base offset assigned to one
// input module.
type moduleInfo struct {
	ofid uint16
	base map[objfile.Location]uint32
}

// Link merges mods (in order) into a single executable ObjectModule.
func Link(mods []*objfile.Module, opts Options) (*objfile.Module, error) {
	all := mods
	if opts.UseStartup {
		startup, err := Startup()
		if err != nil {
			return nil, err
		}
		all = append([]*objfile.Module{startup}, mods...)
	}

	infos, totals := assignSectionBases(all)

	out := &objfile.Module{
		Header: objfile.Header{Magic: objfile.Magic, Version: objfile.Version},
		Text:   make([]byte, totals[objfile.LocTEXT]),
		Rdata:  make([]byte, totals[objfile.LocRDATA]),
		Data:   make([]byte, totals[objfile.LocDATA]),
		Sdata:  make([]byte, totals[objfile.LocSDATA]),
	}

	for i, m := range all {
		info := infos[i]
		copy(out.Text[info.base[objfile.LocTEXT]:], m.Text)
		copy(out.Rdata[info.base[objfile.LocRDATA]:], m.Rdata)
		copy(out.Data[info.base[objfile.LocDATA]:], m.Data)
		copy(out.Sdata[info.base[objfile.LocSDATA]:], m.Sdata)
	}

	mergedStrtab, strMaps := dedupStrings(all)
	out.Strtab = mergedStrtab

	syms, symIndex, err := mergeSymbols(all, infos, strMaps, totals)
	if err != nil {
		return nil, err
	}
	out.Sym = syms

	if err := applyRelocations(out, all, infos); err != nil {
		return nil, err
	}
	if err := resolveReferences(out, all, infos, symIndex); err != nil {
		return nil, err
	}

	out.Header.Sizes[objfile.LocTEXT] = totals[objfile.LocTEXT]
	out.Header.Sizes[objfile.LocRDATA] = totals[objfile.LocRDATA]
	out.Header.Sizes[objfile.LocDATA] = totals[objfile.LocDATA]
	out.Header.Sizes[objfile.LocSDATA] = totals[objfile.LocSDATA]
	out.Header.Sizes[objfile.LocSBSS] = totals[objfile.LocSBSS]
	out.Header.Sizes[objfile.LocBSS] = totals[objfile.LocBSS]
	out.Header.Sizes[objfile.LocSYM] = uint32(len(syms))
	out.Header.Sizes[objfile.LocSTR] = uint32(len(mergedStrtab))

	entry, ok := resolveEntry(out)
	if !ok {
		return nil, linkError(NoEntryPoint, "linker: no entry point: neither __r2k__entry__ nor main is defined")
	}
	out.Header.Entry = entry
	out.Header.Flags = 0x1

	verboseLogf("linker: linked %d modules: text=%d rdata=%d data=%d sdata=%d sbss=%d bss=%d syms=%d strs=%d entry=%#08x",
		len(all), totals[objfile.LocTEXT], totals[objfile.LocRDATA], totals[objfile.LocDATA], totals[objfile.LocSDATA],
		totals[objfile.LocSBSS], totals[objfile.LocBSS], len(syms), len(mergedStrtab), entry)

	return out, nil
}

// assignSectionBases implements step 2: each module's base offset in a
// given section is the running total *before* that module's own bytes are
// added (pre-base, then post-increment), which is what places the first
// module's bytes at offset 0 instead of at the end of the section.
func assignSectionBases(mods []*objfile.Module) ([]moduleInfo, map[objfile.Location]uint32) {
	infos := make([]moduleInfo, len(mods))
	totals := make(map[objfile.Location]uint32, len(objfile.BinarySections))

	for i, m := range mods {
		info := moduleInfo{ofid: uint16(i), base: make(map[objfile.Location]uint32, len(objfile.BinarySections))}
		for _, loc := range objfile.BinarySections {
			info.base[loc] = totals[loc]
			totals[loc] += m.Header.Sizes[loc]
			if loc != objfile.LocSTR {
				align := uint32(otherAlign)
				if loc == objfile.LocTEXT {
					align = textAlign
				}
				totals[loc] = alignTo(totals[loc], align)
			}
		}
		infos[i] = info
	}
	return infos, totals
}

func verboseLogf(format string, args ...any) {
	if Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// LoadMapEntry is one row of the linker's load map: a symbol name next to
// the resolved address it carries in a linked, executable module.
type LoadMapEntry struct {
	Name string
	Val  uint32
	Loc  objfile.Location
}

// Symbols returns out's defined symbols as a load map, sorted by address;
// the link command's -m flag prints one line per entry.
func Symbols(out *objfile.Module) []LoadMapEntry {
	var entries []LoadMapEntry
	for _, s := range out.Sym {
		if !s.Defined() {
			continue
		}
		name, _ := out.StringAt(s.StrOff)
		entries = append(entries, LoadMapEntry{Name: name, Val: s.Val, Loc: s.Location()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Val < entries[j].Val })
	return entries
}
