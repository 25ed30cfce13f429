package objfile

import "encoding/binary"

const (
	relEntrySize = 8
	refEntrySize = 12
	symEntrySize = 16
)

// RelEntry is an internal fixup: patch the bytes at Addr (within Sect,
// relative to this module's own section base) according to Rel's
// patch-width class.
type RelEntry struct {
	Addr uint32
	Sect Location
	Rel  RefType
}

func parseRelEntry(b []byte) (RelEntry, error) {
	sect := Location(b[4])
	rel := RefType(b[5])
	if !sect.Valid() {
		return RelEntry{}, recordError("invalid relocation section %d", b[4])
	}
	if !rel.Valid() {
		return RelEntry{}, recordError("invalid relocation type %d", b[5])
	}
	return RelEntry{
		Addr: binary.BigEndian.Uint32(b[0:4]),
		Sect: sect,
		Rel:  rel,
	}, nil
}

func (r RelEntry) bytes() []byte {
	buf := make([]byte, relEntrySize)
	binary.BigEndian.PutUint32(buf[0:4], r.Addr)
	buf[4] = byte(r.Sect)
	buf[5] = byte(r.Rel)
	return buf
}

// RefEntry is an external fixup: patch the bytes at Addr using the value of
// the symbol named by StrOff, resolved across modules at link time.
type RefEntry struct {
	Addr    uint32
	StrOff  uint32
	Sect    Location
	Unknown RefUnknown
	Typ     RefType
	Ix      uint16
}

func parseRefEntry(b []byte) (RefEntry, error) {
	sect := Location(b[8])
	packed := b[9]
	unknown := RefUnknown(packed >> 4)
	typ := RefType(packed & 0x0F)
	if !sect.Valid() {
		return RefEntry{}, recordError("invalid reference section %d", b[8])
	}
	if !unknown.Valid() {
		return RefEntry{}, recordError("invalid reference combinator %d", unknown)
	}
	if !typ.Valid() {
		return RefEntry{}, recordError("invalid reference type %d", typ)
	}
	return RefEntry{
		Addr:    binary.BigEndian.Uint32(b[0:4]),
		StrOff:  binary.BigEndian.Uint32(b[4:8]),
		Sect:    sect,
		Unknown: unknown,
		Typ:     typ,
		Ix:      binary.LittleEndian.Uint16(b[10:12]),
	}, nil
}

func (r RefEntry) bytes() []byte {
	buf := make([]byte, refEntrySize)
	binary.BigEndian.PutUint32(buf[0:4], r.Addr)
	binary.BigEndian.PutUint32(buf[4:8], r.StrOff)
	buf[8] = byte(r.Sect)
	buf[9] = byte(r.Unknown)<<4 | byte(r.Typ)&0x0F
	binary.LittleEndian.PutUint16(buf[10:12], r.Ix)
	return buf
}

// SymEntry is one symbol-table record. The Location is packed into the low
// 4 bits of Flags (see LocationOf); the remaining bits are the SymFlag
// bitmask.
type SymEntry struct {
	Flags  uint32
	Val    uint32
	StrOff uint32
	Ofid   uint16
}

func parseSymEntry(b []byte) (SymEntry, error) {
	flags := binary.BigEndian.Uint32(b[0:4])
	if !LocationOf(flags).Valid() {
		return SymEntry{}, recordError("invalid symbol location %d", flags&0xF)
	}
	return SymEntry{
		Flags:  flags,
		Val:    binary.BigEndian.Uint32(b[4:8]),
		StrOff: binary.BigEndian.Uint32(b[8:12]),
		Ofid:   binary.BigEndian.Uint16(b[12:14]),
	}, nil
}

func (s SymEntry) bytes() []byte {
	buf := make([]byte, symEntrySize)
	binary.BigEndian.PutUint32(buf[0:4], s.Flags)
	binary.BigEndian.PutUint32(buf[4:8], s.Val)
	binary.BigEndian.PutUint32(buf[8:12], s.StrOff)
	binary.BigEndian.PutUint16(buf[12:14], s.Ofid)
	return buf
}

// Location returns the section/address kind packed into the symbol's
// Flags.
func (s SymEntry) Location() Location { return LocationOf(s.Flags) }

// Defined reports whether the symbol carries SymDEF.
func (s SymEntry) Defined() bool { return HasAll(s.Flags, SymDEF) }

// Label reports whether the symbol is a code label (SymLBL and SymDEF both
// set), the condition label_lookup scans for.
func (s SymEntry) Label() bool { return HasAll(s.Flags, SymLBL|SymDEF) }
