// Package vm implements the r2k user-mode MIPS-I simulator: paged virtual
// memory, the instruction interpreter, and the SPIM-compatible syscall
// surface that together execute a linked objfile.Module.
package vm

import (
	"fmt"

	"github.com/xyproto/r2k/internal/objfile"
)

// PAGE_BITS-sized addressing constants (spec §4.5/§7).
const (
	PageBits = 12
	PageSize = 1 << PageBits
	pageMask = PageSize - 1

	TextStart  = 0x00400000
	DataStart  = 0x10000000
	StackStart = 0x7FFFEFFC
	StackSize  = 1 << 20 // 1 MiB
)

// PageID identifies a page, either virtual (shifted address) or real (index
// into Memory.pages). It is never wider than 20 bits.
type PageID uint32

// Page is one fixed-size physical page of simulated memory.
type Page [PageSize]byte

// Memory is the paged virtual address space a running program executes in:
// a sparse page table plus per-page write/exec permission flags, backed by
// a flat arena of physical pages. The arena-plus-index layout (rather than
// a pointer graph) is what makes Clone a cheap, independent deep copy.
type Memory struct {
	table map[PageID]PageID
	write map[PageID]bool
	exec  map[PageID]bool
	pages []Page
}

// NewMemory returns an empty address space with no mapped pages.
func NewMemory() *Memory {
	return &Memory{
		table: make(map[PageID]PageID),
		write: make(map[PageID]bool),
		exec:  make(map[PageID]bool),
	}
}

// Clone returns an independent deep copy of m; mutating the copy never
// affects the original, and vice versa.
func (m *Memory) Clone() *Memory {
	out := &Memory{
		table: make(map[PageID]PageID, len(m.table)),
		write: make(map[PageID]bool, len(m.write)),
		exec:  make(map[PageID]bool, len(m.exec)),
		pages: make([]Page, len(m.pages)),
	}
	for k, v := range m.table {
		out.table[k] = v
	}
	for k, v := range m.write {
		out.write[k] = v
	}
	for k, v := range m.exec {
		out.exec[k] = v
	}
	copy(out.pages, m.pages)
	return out
}

func (m *Memory) mapVirtToReal(addr uint32) (uint32, bool) {
	virt := PageID(addr >> PageBits)
	real, ok := m.table[virt]
	if !ok {
		return 0, false
	}
	return uint32(real)<<PageBits | (addr & pageMask), true
}

func memErr(format string, args ...any) error {
	return &Error{Kind: MemoryAccessError, Msg: fmt.Sprintf(format, args...)}
}

// ReadWord reads a big-endian 32-bit word at addr.
func (m *Memory) ReadWord(addr uint32) (uint32, error) {
	if addr%4 != 0 {
		return 0, memErr("unaligned memory access at 0x%08x", addr)
	}
	real, ok := m.mapVirtToReal(addr)
	if !ok {
		return 0, memErr("attempted to access unmapped page with read at 0x%08x (PageID %d)", addr, addr>>PageBits)
	}
	page, off := real>>PageBits, real&pageMask
	b := m.pages[page]
	return uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3]), nil
}

// ReadHalf reads a big-endian 16-bit halfword at addr.
func (m *Memory) ReadHalf(addr uint32) (uint16, error) {
	if addr%2 != 0 {
		return 0, memErr("unaligned memory access at 0x%08x", addr)
	}
	real, ok := m.mapVirtToReal(addr)
	if !ok {
		return 0, memErr("attempted to access unmapped page with read at 0x%08x", addr)
	}
	page, off := real>>PageBits, real&pageMask
	b := m.pages[page]
	return uint16(b[off])<<8 | uint16(b[off+1]), nil
}

// ReadByte reads the byte at addr.
func (m *Memory) ReadByte(addr uint32) (byte, error) {
	real, ok := m.mapVirtToReal(addr)
	if !ok {
		return 0, memErr("attempted to access unmapped page with read at 0x%08x", addr)
	}
	page, off := real>>PageBits, real&pageMask
	return m.pages[page][off], nil
}

// WriteWord writes value, big-endian, at addr.
func (m *Memory) WriteWord(addr, value uint32) error {
	if addr%4 != 0 {
		return memErr("unaligned memory access @ %08x", addr)
	}
	real, ok := m.mapVirtToReal(addr)
	if !ok {
		return memErr("attempted to access unmapped page with write @ 0x%08x", addr)
	}
	if !m.write[PageID(addr>>PageBits)] {
		return memErr("attempted to write to read-only page @ 0x%08x", addr)
	}
	page, off := real>>PageBits, real&pageMask
	p := &m.pages[page]
	p[off] = byte(value >> 24)
	p[off+1] = byte(value >> 16)
	p[off+2] = byte(value >> 8)
	p[off+3] = byte(value)
	return nil
}

// WriteHalf writes value, big-endian, at addr.
func (m *Memory) WriteHalf(addr uint32, value uint16) error {
	if addr%2 != 0 {
		return memErr("unaligned memory access at 0x%08x", addr)
	}
	real, ok := m.mapVirtToReal(addr)
	if !ok {
		return memErr("attempted to access unmapped page with write @ 0x%08x", addr)
	}
	if !m.write[PageID(addr>>PageBits)] {
		return memErr("attempted to write to read-only page @ 0x%08x", addr)
	}
	page, off := real>>PageBits, real&pageMask
	p := &m.pages[page]
	p[off] = byte(value >> 8)
	p[off+1] = byte(value)
	return nil
}

// WriteByte writes value at addr.
func (m *Memory) WriteByte(addr uint32, value byte) error {
	real, ok := m.mapVirtToReal(addr)
	if !ok {
		return memErr("attempted to access unmapped page with write @ 0x%08x", addr)
	}
	if !m.write[PageID(addr>>PageBits)] {
		return memErr("attempted to write to read-only page @ 0x%08x", addr)
	}
	page, off := real>>PageBits, real&pageMask
	m.pages[page][off] = value
	return nil
}

// CheckExec reports whether addr's page is executable, and false, false if
// the page is unmapped.
func (m *Memory) CheckExec(addr uint32) (exec bool, mapped bool) {
	if _, ok := m.mapVirtToReal(addr); !ok {
		return false, false
	}
	exec, ok := m.exec[PageID(addr>>PageBits)]
	return exec, ok
}

// AllocPage maps a new zero-filled page at the virtual page containing
// vAddr, with the given write/exec permissions. It returns false if that
// virtual page is already mapped.
func (m *Memory) AllocPage(vAddr uint32, write, exec bool) bool {
	virt := PageID(vAddr >> PageBits)
	if _, ok := m.table[virt]; ok {
		return false
	}
	real := PageID(len(m.pages))
	if real >= (1 << (32 - PageBits)) {
		panic("vm: out of memory, cannot allocate more than 4GB of address space")
	}
	m.table[virt] = real
	m.pages = append(m.pages, Page{})
	m.write[virt] = write
	m.exec[virt] = exec
	return true
}

// AllocData copies data into freshly-allocated pages starting at baseAddr
// and returns the address immediately after the last page it touched (the
// conventional "next free address" used to lay out contiguous sections).
func (m *Memory) AllocData(baseAddr uint32, data []byte, write, exec bool) uint32 {
	addr := baseAddr
	for len(data) > 0 {
		m.AllocPage(addr, write, exec)
		n := len(data)
		if n > PageSize {
			n = PageSize
		}
		page := m.table[PageID(addr>>PageBits)]
		copy(m.pages[page][:], data[:n])
		data = data[n:]
		addr += PageSize
	}
	return addr
}

// NewFromModule lays out a linked, executable Module's program image:
// .text R-X at TextStart, then .rdata read-only and .data/.sdata/.sbss/.bss
// R-W contiguously from DataStart, each section starting on a fresh page,
// then a pre-allocated, downward-growing
// stack reservation at StackStart. stackSize overrides the default
// StackSize when nonzero (the run command's -s flag); bssFill overrides
// the zero fill SBSS/BSS otherwise get (the run command's -b flag). It
// returns the memory and the address immediately following the BSS image
// (the initial heap start).
func NewFromModule(mod *objfile.Module, stackSize uint32, bssFill byte) (mem *Memory, heapStart uint32) {
	if stackSize == 0 {
		stackSize = StackSize
	}
	mem = NewMemory()

	mem.AllocData(TextStart, mod.Text, false, true)
	dataStart := mem.AllocData(DataStart, mod.Rdata, false, false)
	sdataStart := mem.AllocData(dataStart, mod.Data, true, false)
	sbssStart := mem.AllocData(sdataStart, mod.Sdata, true, false)

	sbss := make([]byte, mod.Header.Sizes[sizeSbss])
	bss := make([]byte, mod.Header.Sizes[sizeBss])
	if bssFill != 0 {
		fillBytes(sbss, bssFill)
		fillBytes(bss, bssFill)
	}
	bssStart := mem.AllocData(sbssStart, sbss, true, false)
	heapStart = mem.AllocData(bssStart, bss, true, false)

	next := uint32(StackStart)
	remaining := stackSize
	for remaining > 0 {
		mem.AllocPage(next, true, false)
		next -= PageSize
		if remaining < PageSize {
			break
		}
		remaining -= PageSize
	}

	return mem, heapStart
}

func fillBytes(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

// Header.Sizes indices for the two zero-filled sections (objfile keeps
// these unexported; vm needs them only to size the BSS image).
const (
	sizeSbss = 4
	sizeBss  = 5
)
