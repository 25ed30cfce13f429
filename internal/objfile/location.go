// Package objfile implements the r2k relocatable object-module codec: the
// on-disk binary layout (header, sections, relocation/reference/symbol
// tables, string table) and byte-slice <-> Module marshaling.
package objfile

// Location enumerates the address/section kinds used by both the symbol
// table and the simulator's runtime tags. The ordinal values are part of
// the on-disk format (they are stored in the low 4 bits of a SymEntry's
// Flags and in a RelEntry/RefEntry's Sect byte) and must not be reordered.
type Location uint8

const (
	LocTEXT Location = iota
	LocRDATA
	LocDATA
	LocSDATA
	LocSBSS
	LocBSS
	LocREL
	LocREF
	LocSYM
	LocSTR
	LocHEAP
	LocSTACK
	LocABS
	LocEXT
	LocUNK
	LocNONE
)

var locationNames = [...]string{
	"TEXT", "RDATA", "DATA", "SDATA", "SBSS", "BSS",
	"REL", "REF", "SYM", "STR", "HEAP", "STACK", "ABS", "EXT", "UNK", "NONE",
}

func (l Location) String() string {
	if int(l) >= len(locationNames) {
		return "UNK"
	}
	return locationNames[l]
}

// Valid reports whether l is one of the 16 defined Location values.
func (l Location) Valid() bool {
	return int(l) < len(locationNames)
}

// relocatableSections lists the section kinds a RelEntry is allowed to
// target (spec: "Relocation sections are restricted to TEXT/RDATA/DATA/SDATA").
var relocatableSections = map[Location]bool{
	LocTEXT: true, LocRDATA: true, LocDATA: true, LocSDATA: true,
}

// BinarySections is the fixed order section bases are assigned in by the
// linker: the four byte sections, the two zero-filled sections, and the
// string table.
var BinarySections = [7]Location{LocTEXT, LocRDATA, LocDATA, LocSDATA, LocSBSS, LocBSS, LocSTR}
