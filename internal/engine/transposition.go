package engine

import (
	"sync/atomic"

	"github.com/chessplay/core/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	BestMove board.Move // Best move found
	Score    int16      // Score (bounded by flag)
	Depth    int8       // Search depth
	Flag     TTFlag     // Type of bound
	Age      uint8      // Generation for replacement
}

// ttSlot holds one transposition table entry using the Hyatt-Mann lockless
// scheme: data carries the packed entry, keyXorData carries hash XOR data.
// A reader loads both words independently (no lock) and accepts the slot
// only if keyXorData XOR data reproduces the probed hash. A writer racing
// with a reader can tear the two words apart, but each word is itself a
// single atomic store/load, so a "torn" read only ever fails verification
// (treated as a miss) rather than yielding a corrupted move or score.
type ttSlot struct {
	keyXorData atomic.Uint64
	data       atomic.Uint64
}

const ttValidBit = uint64(1) << 63

func packTTData(move board.Move, score int16, depth int8, flag TTFlag, age uint8) uint64 {
	return ttValidBit |
		uint64(uint16(move)) |
		uint64(uint16(score))<<16 |
		uint64(uint8(depth))<<32 |
		uint64(flag)<<40 |
		uint64(age&0x3F)<<42
}

func unpackTTData(data uint64) TTEntry {
	return TTEntry{
		BestMove: board.Move(uint16(data)),
		Score:    int16(uint16(data >> 16)),
		Depth:    int8(uint8(data >> 32)),
		Flag:     TTFlag((data >> 40) & 0x3),
		Age:      uint8((data >> 42) & 0x3F),
	}
}

// TranspositionTable is a concurrent hash table for storing search results,
// safe for simultaneous Probe/Store calls from multiple Lazy-SMP workers
// without per-slot locking.
type TranspositionTable struct {
	slots []ttSlot
	size  uint64
	mask  uint64
	age   atomic.Uint32

	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	entrySize := uint64(16) // two uint64 words per slot
	numEntries := (uint64(sizeMB) * 1024 * 1024) / entrySize
	numEntries = roundDownToPowerOf2(numEntries)
	if numEntries == 0 {
		numEntries = 1
	}

	return &TranspositionTable{
		slots: make([]ttSlot, numEntries),
		size:  numEntries,
		mask:  numEntries - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position in the transposition table.
// Returns the entry and true if found, otherwise returns empty entry and false.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes.Add(1)

	idx := hash & tt.mask
	slot := &tt.slots[idx]

	data := slot.data.Load()
	keyXorData := slot.keyXorData.Load()

	if data&ttValidBit == 0 || keyXorData^data != hash {
		return TTEntry{}, false
	}

	tt.hits.Add(1)
	return unpackTTData(data), true
}

// ttNodeRank orders node kinds for the replacement policy below: an exact
// (PV) entry outranks a fail-high (Cut) entry, which outranks a fail-low
// (All) entry.
func ttNodeRank(flag TTFlag) int {
	switch flag {
	case TTExact:
		return 2
	case TTLowerBound:
		return 1
	default:
		return 0
	}
}

// Store saves a position in the transposition table. PV and Cut writes
// replace the slot unconditionally; an All write (a node where every move
// was searched and none raised alpha) only replaces an existing entry of
// equal or lower rank, so a shallow fail-low scan can never evict a deeper
// PV or Cut entry from the same search generation. Entries left over from a
// prior generation are always replaced, regardless of node kind.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move) {
	idx := hash & tt.mask
	slot := &tt.slots[idx]
	age := uint8(tt.age.Load())

	existingData := slot.data.Load()
	if existingData&ttValidBit != 0 {
		existing := unpackTTData(existingData)
		if flag == TTUpperBound && existing.Age == age && ttNodeRank(flag) < ttNodeRank(existing.Flag) {
			return
		}
	}

	data := packTTData(bestMove, int16(score), int8(depth), flag, age)
	slot.data.Store(data)
	slot.keyXorData.Store(hash ^ data)
}

// NewSearch increments the age counter for a new search.
func (tt *TranspositionTable) NewSearch() {
	tt.age.Add(1)
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	for i := range tt.slots {
		tt.slots[i].data.Store(0)
		tt.slots[i].keyXorData.Store(0)
	}
	tt.age.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// TTHashEntry pairs a stored entry with the position hash it was stored
// under, for snapshotting the table to persistent storage.
type TTHashEntry struct {
	Hash uint64
	TTEntry
}

// Snapshot returns every currently valid entry paired with its hash. The
// hash is recovered from the lockless slot (keyXorData XOR data) rather
// than stored separately.
func (tt *TranspositionTable) Snapshot() []TTHashEntry {
	var out []TTHashEntry
	for i := range tt.slots {
		data := tt.slots[i].data.Load()
		if data&ttValidBit == 0 {
			continue
		}
		keyXorData := tt.slots[i].keyXorData.Load()
		out = append(out, TTHashEntry{Hash: keyXorData ^ data, TTEntry: unpackTTData(data)})
	}
	return out
}

// Restore seeds the table from a previously captured snapshot. Each entry is
// written to the slot its hash maps to under the table's current size,
// overwriting whatever that slot held.
func (tt *TranspositionTable) Restore(entries []TTHashEntry) {
	for _, e := range entries {
		data := packTTData(e.BestMove, e.Score, e.Depth, e.Flag, e.Age)
		idx := e.Hash & tt.mask
		tt.slots[idx].data.Store(data)
		tt.slots[idx].keyXorData.Store(e.Hash ^ data)
	}
}

// HashFull returns the permille (parts per thousand) of the table that is used.
func (tt *TranspositionTable) HashFull() int {
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	age := uint8(tt.age.Load())
	for i := 0; i < sampleSize; i++ {
		data := tt.slots[i].data.Load()
		if data&ttValidBit != 0 && uint8((data>>42)&0x3F) == age {
			used++
		}
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// AdjustScoreFromTT adjusts a score from/to the transposition table.
// Mate scores need to be adjusted based on ply distance.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT adjusts a score for storage in the transposition table.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
