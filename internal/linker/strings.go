package linker

import "github.com/xyproto/r2k/internal/objfile"

// stringRemap maps an input module's old str_off values to their offset in
// the merged, deduplicated output string table.
type stringRemap map[uint32]uint32

// dedupStrings implements step 4: walk each input module's string table,
// inserting every distinct NUL-terminated string into a shared buffer only
// once, and record each module's old-offset -> new-offset mapping.
func dedupStrings(mods []*objfile.Module) ([]byte, []stringRemap) {
	offsetOf := make(map[string]uint32)
	var merged []byte
	maps := make([]stringRemap, len(mods))

	for i, m := range mods {
		remap := make(stringRemap)
		addr := uint32(0)
		for int(addr) < len(m.Strtab) {
			s, ok := m.StringAt(addr)
			if !ok {
				addr++
				continue
			}
			newOff, seen := offsetOf[s]
			if !seen {
				newOff = uint32(len(merged))
				merged = append(merged, []byte(s)...)
				merged = append(merged, 0)
				offsetOf[s] = newOff
			}
			remap[addr] = newOff
			addr += uint32(len(s)) + 1
		}
		maps[i] = remap
	}

	return merged, maps
}
