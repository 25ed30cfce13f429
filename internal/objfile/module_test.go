package objfile

import (
	"bytes"
	"testing"
)

func minimalModule() *Module {
	return &Module{
		Header: Header{
			Magic:   Magic,
			Version: Version,
			Sizes:   [10]uint32{},
		},
		Text:   []byte{},
		Rdata:  []byte{},
		Data:   []byte{},
		Sdata:  []byte{},
		Strtab: []byte{},
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := minimalModule().Bytes()
	data[0] = 0x00
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for bad magic, got nil")
	}
}

func TestParseRejectsBadVersion(t *testing.T) {
	data := minimalModule().Bytes()
	data[2], data[3] = 0x00, 0x01
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for bad version, got nil")
	}
}

func TestParseRejectsTruncatedSection(t *testing.T) {
	m := minimalModule()
	m.Header.Sizes[sizeText] = 4
	data := m.Bytes() // header claims 4 text bytes, but none follow
	data = data[:HeaderSize]
	if _, err := Parse(data); err == nil {
		t.Fatal("expected end-of-data error, got nil")
	}
}

func TestRoundTrip(t *testing.T) {
	m := &Module{
		Header: Header{
			Magic:   Magic,
			Version: Version,
			Flags:   0x1,
			Entry:   0x00400000,
			Sizes:   [10]uint32{4, 0, 0, 0, 0, 0, 1, 1, 1, 4},
		},
		Text:  []byte{0x00, 0x00, 0x00, 0x0c},
		Rdata: []byte{},
		Data:  []byte{},
		Sdata: []byte{},
		Rel: []RelEntry{
			{Addr: 0, Sect: LocTEXT, Rel: RefWORD},
		},
		Ref: []RefEntry{
			{Addr: 0, StrOff: 0, Sect: LocTEXT, Unknown: RefPlus, Typ: RefJUMP, Ix: 0},
		},
		Sym: []SymEntry{
			{Flags: uint32(LocTEXT) | uint32(SymGLB) | uint32(SymLBL), Val: 0, StrOff: 0, Ofid: 0},
		},
		Strtab: []byte("abc\x00"),
	}

	round, err := Parse(m.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !bytes.Equal(round.Bytes(), m.Bytes()) {
		t.Fatal("round-tripped bytes differ from original")
	}
}

func TestStringAt(t *testing.T) {
	m := minimalModule()
	m.Strtab = []byte("foo\x00bar\x00")

	s, ok := m.StringAt(0)
	if !ok || s != "foo" {
		t.Fatalf("StringAt(0) = %q, %v, want %q, true", s, ok, "foo")
	}
	s, ok = m.StringAt(4)
	if !ok || s != "bar" {
		t.Fatalf("StringAt(4) = %q, %v, want %q, true", s, ok, "bar")
	}
	// offset 1 is mid-string ("oo\0bar\0"), byte at offset-1 is 'f' != 0.
	if _, ok := m.StringAt(1); ok {
		t.Fatal("StringAt(1) should fail: mid-string offset")
	}
}

func TestStartupObjectRoundTrip(t *testing.T) {
	// The bundled startup module: 68 text bytes, header sizes
	// [0x44, 0, 8, 0, 0, 0, 0, 3, 6, 0x3E] (six NUL-terminated names).
	data := startupModuleBytesForTest()
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(startup): %v", err)
	}
	if len(m.Text) != 0x44 {
		t.Fatalf("text length = %d, want %#x", len(m.Text), 0x44)
	}
	if !bytes.Equal(m.Bytes(), data) {
		t.Fatal("startup module did not round-trip byte-for-byte")
	}
}

// startupModuleBytesForTest builds the canonical 68-byte .text startup
// preamble described in spec §8 scenario 1, with matching header sizes.
func startupModuleBytesForTest() []byte {
	text := []byte{
		0x00, 0x0b, 0xad, 0x0d,
		0x34, 0x02, 0x00, 0x09,
		0x34, 0x04, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x0c,
		0x3c, 0x01, 0x00, 0x00,
		0xac, 0x22, 0x00, 0x00,
		0x3c, 0x01, 0x00, 0x00,
		0xac, 0x23, 0x00, 0x00,
		0x8f, 0xa4, 0x00, 0x00,
		0x8f, 0xa5, 0x00, 0x04,
		0x8f, 0xa6, 0x00, 0x08,
		0x0c, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x40, 0x20, 0x20,
		0x34, 0x02, 0x00, 0x11,
		0x00, 0x00, 0x00, 0x0c,
		0x00, 0x00, 0x00, 0x00,
	}
	strs := []string{"main", "__heap_size", "SYS_EXIT2", "SYS_SBRK", "__r2k__entry__", "__heap_ptr"}
	var strtab []byte
	for _, s := range strs {
		strtab = append(strtab, []byte(s)...)
		strtab = append(strtab, 0)
	}

	m := &Module{
		Header: Header{
			Magic:   Magic,
			Version: Version,
			Sizes:   [10]uint32{0x44, 0, 8, 0, 0, 0, 0, 3, 6, uint32(len(strtab))},
		},
		Text:  text,
		Rdata: []byte{},
		Data:  make([]byte, 8),
		Sdata: []byte{},
		Ref: []RefEntry{
			{Addr: 0x10, StrOff: 0x33, Sect: LocTEXT, Unknown: RefPlus, Typ: RefIMM2, Ix: 0},
			{Addr: 0x18, StrOff: 0x05, Sect: LocTEXT, Unknown: RefPlus, Typ: RefIMM2, Ix: 0},
			{Addr: 0x2c, StrOff: 0x00, Sect: LocTEXT, Unknown: RefPlus, Typ: RefJUMP, Ix: 0},
		},
		Sym: []SymEntry{
			{Flags: uint32(LocTEXT) | uint32(SymGLB) | uint32(SymLBL), Val: 0, StrOff: 0x00},
			{Flags: uint32(LocDATA) | uint32(SymGLB) | uint32(SymLBL) | uint32(SymDEF) | uint32(SymFORW), Val: 0x04, StrOff: 0x05},
			{Flags: uint32(LocABS) | uint32(SymDEF) | uint32(SymEQ), Val: 0x11, StrOff: 0x11},
			{Flags: uint32(LocABS) | uint32(SymDEF) | uint32(SymEQ), Val: 0x09, StrOff: 0x1b},
			{Flags: uint32(LocTEXT) | uint32(SymFORW) | uint32(SymDEF) | uint32(SymLBL) | uint32(SymGLB), Val: 0, StrOff: 0x24},
			{Flags: uint32(LocDATA) | uint32(SymFORW) | uint32(SymDEF) | uint32(SymLBL) | uint32(SymGLB), Val: 0, StrOff: 0x33},
		},
		Strtab: strtab,
	}
	return m.Bytes()
}
