package vm

import "testing"

func TestAllocPageRejectsDoubleMap(t *testing.T) {
	m := NewMemory()
	if !m.AllocPage(0x1000, true, false) {
		t.Fatal("first AllocPage should succeed")
	}
	if m.AllocPage(0x1000, true, false) {
		t.Fatal("second AllocPage at the same virtual page should fail")
	}
}

func TestReadWriteWordRoundTrip(t *testing.T) {
	m := NewMemory()
	m.AllocPage(0x1000, true, false)
	if err := m.WriteWord(0x1000, 0xDEADBEEF); err != nil {
		t.Fatalf("WriteWord: %v", err)
	}
	v, err := m.ReadWord(0x1000)
	if err != nil {
		t.Fatalf("ReadWord: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("ReadWord = %#x, want 0xDEADBEEF", v)
	}
}

func TestUnalignedWordAccessFails(t *testing.T) {
	m := NewMemory()
	m.AllocPage(0x1000, true, false)
	if _, err := m.ReadWord(0x1001); err == nil {
		t.Fatal("expected error reading an unaligned word")
	}
	if err := m.WriteWord(0x1002, 1); err == nil {
		t.Fatal("expected error writing an unaligned word")
	}
}

func TestWriteToReadOnlyPageFails(t *testing.T) {
	m := NewMemory()
	m.AllocPage(0x00400000, false, true) // a text-like page, R-X only
	if err := m.WriteWord(0x00400000, 0); err == nil {
		t.Fatal("expected error writing to a read-only page")
	}
}

func TestReadUnmappedPageFails(t *testing.T) {
	m := NewMemory()
	if _, err := m.ReadByte(0x12345678); err == nil {
		t.Fatal("expected error reading an unmapped page")
	}
}

func TestAllocDataSpansMultiplePages(t *testing.T) {
	m := NewMemory()
	data := make([]byte, PageSize+10)
	for i := range data {
		data[i] = byte(i)
	}
	next := m.AllocData(0x10000000, data, true, false)
	if next != 0x10000000+2*PageSize {
		t.Fatalf("AllocData returned next = %#x, want %#x", next, 0x10000000+2*PageSize)
	}
	v, err := m.ReadByte(0x10000000 + PageSize + 5)
	if err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if v != byte(PageSize+5) {
		t.Fatalf("ReadByte = %d, want %d", v, byte(PageSize+5))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewMemory()
	m.AllocPage(0x1000, true, false)
	m.WriteWord(0x1000, 1)

	clone := m.Clone()
	clone.WriteWord(0x1000, 2)

	orig, _ := m.ReadWord(0x1000)
	cloned, _ := clone.ReadWord(0x1000)
	if orig != 1 || cloned != 2 {
		t.Fatalf("clone shares state: orig=%d cloned=%d", orig, cloned)
	}
}
