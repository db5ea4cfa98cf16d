package engine

// pawnEntry caches the pawn-structure evaluation for one pawn hash key.
type pawnEntry struct {
	key    uint64
	mg, eg int16
	used   bool
}

// PawnTable caches evaluatePawnStructure results keyed by Position.PawnKey,
// since pawn structure changes far less often than the full position and is
// identical across many transpositions.
type PawnTable struct {
	entries []pawnEntry
	mask    uint64
}

// NewPawnTable creates a pawn table with the given size in MB.
func NewPawnTable(sizeMB int) *PawnTable {
	const entrySize = 24
	numEntries := (uint64(sizeMB) * 1024 * 1024) / entrySize
	numEntries = roundDownToPowerOf2(numEntries)
	if numEntries == 0 {
		numEntries = 1
	}
	return &PawnTable{
		entries: make([]pawnEntry, numEntries),
		mask:    numEntries - 1,
	}
}

// Probe looks up the cached pawn-structure score for key.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, found bool) {
	e := &pt.entries[key&pt.mask]
	if !e.used || e.key != key {
		return 0, 0, false
	}
	return int(e.mg), int(e.eg), true
}

// Store saves the pawn-structure score for key.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	e := &pt.entries[key&pt.mask]
	e.key = key
	e.mg = int16(mg)
	e.eg = int16(eg)
	e.used = true
}

// Clear empties the table.
func (pt *PawnTable) Clear() {
	for i := range pt.entries {
		pt.entries[i] = pawnEntry{}
	}
}
