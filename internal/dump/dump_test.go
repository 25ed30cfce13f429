package dump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xyproto/r2k/internal/objfile"
)

func fixtureModule() *objfile.Module {
	strtab := append([]byte("main"), 0)
	return &objfile.Module{
		Header: objfile.Header{
			Magic:   objfile.Magic,
			Version: objfile.Version,
			Sizes:   [10]uint32{4, 0, 0, 0, 0, 0, 1, 1, 1, uint32(len(strtab))},
		},
		Text: []byte{0x00, 0x00, 0x00, 0x00},
		Rel: []objfile.RelEntry{
			{Addr: 0, Sect: objfile.LocTEXT, Rel: objfile.RefWORD},
		},
		Ref: []objfile.RefEntry{
			{Addr: 0, StrOff: 0, Sect: objfile.LocTEXT, Typ: objfile.RefJUMP, Unknown: objfile.RefPlus},
		},
		Sym: []objfile.SymEntry{
			{Flags: uint32(objfile.LocTEXT) | uint32(objfile.SymDEF) | uint32(objfile.SymGLB) | uint32(objfile.SymLBL), StrOff: 0},
		},
		Strtab: strtab,
	}
}

func TestSectionSkipsEmptyData(t *testing.T) {
	var buf bytes.Buffer
	Section(&buf, "rdata", nil)
	if buf.Len() != 0 {
		t.Fatalf("Section with no data wrote %q, want nothing", buf.String())
	}
}

func TestSectionFormatsHexDump(t *testing.T) {
	var buf bytes.Buffer
	Section(&buf, "text", []byte{0xde, 0xad, 0xbe, 0xef})
	out := buf.String()
	if !strings.Contains(out, "sect: text (4 bytes)") {
		t.Fatalf("missing section header, got %q", out)
	}
	if !strings.Contains(out, "deadbeef") {
		t.Fatalf("missing hex bytes, got %q", out)
	}
}

func TestRelocationsLine(t *testing.T) {
	var buf bytes.Buffer
	m := fixtureModule()
	Relocations(&buf, m)
	out := buf.String()
	if !strings.Contains(out, "relocation: 1 entries") {
		t.Fatalf("missing relocation count, got %q", out)
	}
	if !strings.Contains(out, "TEXT") || !strings.Contains(out, "WORD") {
		t.Fatalf("missing section/type names, got %q", out)
	}
}

func TestReferencesResolvesSymbolName(t *testing.T) {
	var buf bytes.Buffer
	m := fixtureModule()
	References(&buf, m)
	out := buf.String()
	if !strings.Contains(out, `sym "main"`) {
		t.Fatalf("expected reference to name \"main\", got %q", out)
	}
	if !strings.Contains(out, "+") || !strings.Contains(out, "JUMP") {
		t.Fatalf("missing combinator/type, got %q", out)
	}
}

func TestReferencesFlagsInvalidStrOff(t *testing.T) {
	var buf bytes.Buffer
	m := fixtureModule()
	m.Ref[0].StrOff = 9999
	References(&buf, m)
	if !strings.Contains(buf.String(), "<invalid str_off") {
		t.Fatalf("expected invalid str_off marker, got %q", buf.String())
	}
}

func TestSymbolsPrintsFlags(t *testing.T) {
	var buf bytes.Buffer
	m := fixtureModule()
	Symbols(&buf, m)
	out := buf.String()
	if !strings.Contains(out, "main") {
		t.Fatalf("missing symbol name, got %q", out)
	}
	if !strings.Contains(out, "DEF") || !strings.Contains(out, "GLB") || !strings.Contains(out, "LBL") {
		t.Fatalf("missing symbol flags, got %q", out)
	}
}

func TestModuleRespectsOptions(t *testing.T) {
	var buf bytes.Buffer
	m := fixtureModule()
	Module(&buf, m, Options{Text: true})
	out := buf.String()
	if !strings.Contains(out, "sect: text") {
		t.Fatalf("expected text section, got %q", out)
	}
	if strings.Contains(out, "relocation:") || strings.Contains(out, "symbols:") {
		t.Fatalf("expected relocation/symbol sections to be suppressed, got %q", out)
	}
}

func TestModuleAllPrintsEverything(t *testing.T) {
	var buf bytes.Buffer
	m := fixtureModule()
	Module(&buf, m, All())
	out := buf.String()
	for _, want := range []string{"sect: text", "relocation:", "references:", "symbols:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("All() output missing %q, got %q", want, out)
		}
	}
}
