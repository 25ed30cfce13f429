package objfile

// Verbose gates stderr diagnostics emitted while parsing and serializing
// object modules (section sizes, record counts) — the same texture as the
// teacher's package-level VerboseMode flag.
var Verbose bool

// Module is a relocatable object module: a header, four byte sections, the
// relocation/reference/symbol tables, and a NUL-terminated string table.
type Module struct {
	Header Header

	Text  []byte
	Rdata []byte
	Data  []byte
	Sdata []byte

	Rel []RelEntry
	Ref []RefEntry
	Sym []SymEntry

	Strtab []byte
}

// TextBaseAddr is added to a TEXT-relative offset to obtain its runtime
// virtual address in an executable module (spec §4.2, label_lookup).
const TextBaseAddr = 0x00400000

// Parse decodes a byte slice produced by (*Module).Bytes (or by the
// assembler/linker it models) back into a Module.
func Parse(data []byte) (*Module, error) {
	head, err := parseHeader(data)
	if err != nil {
		return nil, err
	}

	pos := HeaderSize
	take := func(n uint32, name string) ([]byte, error) {
		end := pos + int(n)
		if end > len(data) {
			return nil, sectionError(name)
		}
		b := data[pos:end]
		pos = end
		return b, nil
	}

	text, err := take(head.Sizes[sizeText], "text")
	if err != nil {
		return nil, err
	}
	rdata, err := take(head.Sizes[sizeRdata], "rdata")
	if err != nil {
		return nil, err
	}
	dataSect, err := take(head.Sizes[sizeData], "data")
	if err != nil {
		return nil, err
	}
	sdata, err := take(head.Sizes[sizeSdata], "sdata")
	if err != nil {
		return nil, err
	}

	rel := make([]RelEntry, head.Sizes[sizeRel])
	for i := range rel {
		b, err := take(relEntrySize, "relocation table")
		if err != nil {
			return nil, err
		}
		rel[i], err = parseRelEntry(b)
		if err != nil {
			return nil, err
		}
	}

	ref := make([]RefEntry, head.Sizes[sizeRef])
	for i := range ref {
		b, err := take(refEntrySize, "reference table")
		if err != nil {
			return nil, err
		}
		ref[i], err = parseRefEntry(b)
		if err != nil {
			return nil, err
		}
	}

	sym := make([]SymEntry, head.Sizes[sizeSym])
	for i := range sym {
		b, err := take(symEntrySize, "symbol table")
		if err != nil {
			return nil, err
		}
		sym[i], err = parseSymEntry(b)
		if err != nil {
			return nil, err
		}
	}

	strtab, err := take(head.Sizes[sizeStr], "string table")
	if err != nil {
		return nil, err
	}

	m := &Module{
		Header: head,
		Text:   cloneBytes(text),
		Rdata:  cloneBytes(rdata),
		Data:   cloneBytes(dataSect),
		Sdata:  cloneBytes(sdata),
		Rel:    rel,
		Ref:    ref,
		Sym:    sym,
		Strtab: cloneBytes(strtab),
	}

	verboseLogf("objfile: parsed module: text=%d rdata=%d data=%d sdata=%d rel=%d ref=%d sym=%d str=%d",
		len(m.Text), len(m.Rdata), len(m.Data), len(m.Sdata), len(m.Rel), len(m.Ref), len(m.Sym), len(m.Strtab))

	return m, nil
}

// Bytes serializes m back to its on-disk form. It is the exact inverse of
// Parse for any Module Parse produced.
func (m *Module) Bytes() []byte {
	buf := make([]byte, 0, HeaderSize+len(m.Text)+len(m.Rdata)+len(m.Data)+len(m.Sdata)+
		len(m.Rel)*relEntrySize+len(m.Ref)*refEntrySize+len(m.Sym)*symEntrySize+len(m.Strtab))

	buf = append(buf, m.Header.bytes()...)
	buf = append(buf, m.Text...)
	buf = append(buf, m.Rdata...)
	buf = append(buf, m.Data...)
	buf = append(buf, m.Sdata...)
	for _, r := range m.Rel {
		buf = append(buf, r.bytes()...)
	}
	for _, r := range m.Ref {
		buf = append(buf, r.bytes()...)
	}
	for _, s := range m.Sym {
		buf = append(buf, s.bytes()...)
	}
	buf = append(buf, m.Strtab...)
	return buf
}

// StringAt returns the NUL-terminated string starting at offset, or false
// if offset does not point at the start of a string (it is neither 0 nor
// immediately preceded by a NUL byte).
func (m *Module) StringAt(offset uint32) (string, bool) {
	if offset != 0 {
		if int(offset-1) >= len(m.Strtab) || m.Strtab[offset-1] != 0 {
			return "", false
		}
	}
	if int(offset) > len(m.Strtab) {
		return "", false
	}
	end := int(offset)
	for end < len(m.Strtab) && m.Strtab[end] != 0 {
		end++
	}
	return string(m.Strtab[offset:end]), true
}

// LabelAt returns the symbol-table entry for the code label defined at the
// given TEXT-section offset, or false if there is none. When the module is
// executable, the lookup value is compared against offset+TextBaseAddr;
// otherwise against the raw offset.
func (m *Module) LabelAt(textOffset uint32) (SymEntry, bool) {
	want := textOffset
	if m.Header.Executable() {
		want = textOffset + TextBaseAddr
	}
	for _, s := range m.Sym {
		if s.Location() == LocTEXT && s.Label() && s.Val == want {
			return s, true
		}
	}
	return SymEntry{}, false
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
