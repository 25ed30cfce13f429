// Package dump renders an objfile.Module as the human-readable text the
// r2k "dump" subcommand prints: header, sections, relocations, references,
// and symbols.
package dump

import (
	"fmt"
	"io"

	"github.com/xyproto/r2k/internal/objfile"
)

// Options selects which parts of a module to print; the zero value prints
// nothing, matching dump's "-d -f -h -m -r -s -t -y" flag surface where
// no flags means "print everything" (handled by the caller via All()).
type Options struct {
	Data       bool
	Reference  bool
	Relocation bool
	Modtab     bool
	Rdata      bool
	Sdata      bool
	Text       bool
	Symtab     bool
}

// All returns an Options with every section enabled, the default when the
// dump CLI is given no flags.
func All() Options {
	return Options{true, true, true, true, true, true, true, true}
}

// Module writes the requested parts of m to w.
func Module(w io.Writer, m *objfile.Module, opt Options) {
	if opt.Modtab {
		fmt.Fprint(w, m.Header.String())
	}
	if opt.Text {
		Section(w, "text", m.Text)
	}
	if opt.Rdata {
		Section(w, "rdata", m.Rdata)
	}
	if opt.Data {
		Section(w, "data", m.Data)
	}
	if opt.Sdata {
		Section(w, "sdata", m.Sdata)
	}
	if opt.Relocation {
		Relocations(w, m)
	}
	if opt.Reference {
		References(w, m)
	}
	if opt.Symtab {
		Symbols(w, m)
	}
}

// Section prints a hex dump of data, 4 bytes per group, 8 groups per line,
// matching the teacher-independent textual layout the original dumper used.
func Section(w io.Writer, name string, data []byte) {
	if len(data) == 0 {
		return
	}
	fmt.Fprintf(w, "sect: %s (%d bytes)\n ", name, len(data))
	chunk, line := 0, 0
	for _, b := range data {
		fmt.Fprintf(w, "%02x", b)
		chunk++
		if chunk == 4 {
			chunk = 0
			line++
			fmt.Fprint(w, " ")
		}
		if line == 8 {
			line = 0
			fmt.Fprint(w, "\n ")
		}
	}
	fmt.Fprint(w, "\n")
}

// Relocations prints the module's internal fixup list.
func Relocations(w io.Writer, m *objfile.Module) {
	if len(m.Rel) == 0 {
		return
	}
	fmt.Fprintf(w, "relocation: %d entries\n", len(m.Rel))
	for _, r := range m.Rel {
		fmt.Fprintf(w, " rel: addr %08x %s %s\n", r.Addr, r.Sect, r.Rel)
	}
}

// References prints the module's external fixup list.
func References(w io.Writer, m *objfile.Module) {
	if len(m.Ref) == 0 {
		return
	}
	fmt.Fprintf(w, "references: %d entries\n", len(m.Ref))
	for _, r := range m.Ref {
		name, ok := m.StringAt(r.StrOff)
		if !ok {
			name = fmt.Sprintf("<invalid str_off %d>", r.StrOff)
		}
		fmt.Fprintf(w, " ref: addr %08x sym %q, %s %s\n", r.Addr, name, r.Unknown, r.Typ)
	}
}

// Symbols prints the module's symbol table.
func Symbols(w io.Writer, m *objfile.Module) {
	if len(m.Sym) == 0 {
		return
	}
	fmt.Fprintf(w, "symbols: %d entries\n", len(m.Sym))
	for _, s := range m.Sym {
		name, _ := m.StringAt(s.StrOff)
		fmt.Fprintf(w, " sym: %-20s val %08x ofid %d [%s] %s\n",
			name, s.Val, s.Ofid, s.Location(), objfile.FlagsString(s.Flags))
	}
}
