package objfile

import (
	"encoding/binary"
	"fmt"
)

const (
	// Magic is the fixed 2-byte signature every object module begins with.
	Magic uint16 = 0xFACE
	// Version is the object-module format version this codec implements.
	Version uint16 = 0x2CC6

	// HeaderSize is the fixed on-disk size of an ObjectHeader in bytes.
	HeaderSize = 52

	// Size-field indices into Header.Sizes.
	sizeText  = 0
	sizeRdata = 1
	sizeData  = 2
	sizeSdata = 3
	sizeSbss  = 4
	sizeBss   = 5
	sizeRel   = 6
	sizeRef   = 7
	sizeSym   = 8
	sizeStr   = 9

	// flagExecutable marks a module as having a resolved entry point,
	// independent of Entry being merely nonzero (spec: "an executable flag
	// in flags also participates").
	flagExecutable uint32 = 0x1
)

// Header is the 52-byte, big-endian object-module header.
type Header struct {
	Magic   uint16
	Version uint16
	Flags   uint32
	Entry   uint32
	Sizes   [10]uint32
}

// Executable reports whether the module is marked as a runnable load
// module: a nonzero Entry and the executable flag bit both participate.
func (h Header) Executable() bool {
	return h.Entry != 0 && h.Flags&flagExecutable != 0
}

func parseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, sectionError("header")
	}
	magic := binary.BigEndian.Uint16(data[0:2])
	if magic != Magic {
		return Header{}, fmt.Errorf("objfile: bad magic %#04x, want %#04x", magic, Magic)
	}
	version := binary.BigEndian.Uint16(data[2:4])
	if version != Version {
		return Header{}, fmt.Errorf("objfile: bad version %#04x, want %#04x", version, Version)
	}
	h := Header{
		Magic:   magic,
		Version: version,
		Flags:   binary.BigEndian.Uint32(data[4:8]),
		Entry:   binary.BigEndian.Uint32(data[8:12]),
	}
	for i := 0; i < 10; i++ {
		off := 12 + 4*i
		h.Sizes[i] = binary.BigEndian.Uint32(data[off : off+4])
	}
	return h, nil
}

func (h Header) bytes() []byte {
	buf := make([]byte, 0, HeaderSize)
	var tmp [4]byte
	binary.BigEndian.PutUint16(tmp[0:2], h.Magic)
	buf = append(buf, tmp[0:2]...)
	binary.BigEndian.PutUint16(tmp[0:2], h.Version)
	buf = append(buf, tmp[0:2]...)
	binary.BigEndian.PutUint32(tmp[:], h.Flags)
	buf = append(buf, tmp[:]...)
	binary.BigEndian.PutUint32(tmp[:], h.Entry)
	buf = append(buf, tmp[:]...)
	for _, s := range h.Sizes {
		binary.BigEndian.PutUint32(tmp[:], s)
		buf = append(buf, tmp[:]...)
	}
	return buf
}

func (h Header) String() string {
	entry := "None"
	if h.Entry != 0 {
		entry = fmt.Sprintf("%#08x", h.Entry)
	}
	return fmt.Sprintf(
		"magic: %x version: %x flags: %08x entry point: %s\n"+
			"sizes (bytes): text %d rdata %d data %d sdata %d sbss %d bss %d strs %d\n"+
			"counts: rel %d ref %d syms %d\n",
		h.Magic, h.Version, h.Flags, entry,
		h.Sizes[sizeText], h.Sizes[sizeRdata], h.Sizes[sizeData], h.Sizes[sizeSdata],
		h.Sizes[sizeSbss], h.Sizes[sizeBss], h.Sizes[sizeStr],
		h.Sizes[sizeRel], h.Sizes[sizeRef], h.Sizes[sizeSym],
	)
}
