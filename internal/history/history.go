// Package history tracks visited position hashes during search and play to
// detect repeated positions (threefold/twofold repetition).
package history

import "github.com/chessplay/core/internal/board"

// History records hashes of previously visited positions. Lookups only
// scan back to the most recent irreversible (unrepeatable) move, since
// nothing before it can ever recur in the line currently being searched.
type History struct {
	hashes        []uint64
	unrepeatables []int
	head          int
}

// New creates an empty History.
func New() *History {
	return &History{}
}

// Unrepeatable reports whether a move severs repetition: pawn moves,
// captures, castling, and en passant captures can never be reversed.
func Unrepeatable(pieceMoved board.PieceType, kind board.MoveKind) bool {
	return pieceMoved == board.Pawn ||
		kind == board.MoveCapture ||
		kind == board.MoveEnPassant ||
		kind == board.MoveCastle
}

// Push records hash as the most recently visited position. isUnrepeatable
// marks the move that produced it as one no future position can reverse.
func (h *History) Push(hash uint64, isUnrepeatable bool) {
	h.hashes = append(h.hashes, hash)
	if isUnrepeatable {
		h.unrepeatables = append(h.unrepeatables, h.head)
		h.head = len(h.hashes) - 1
	}
}

// Pop removes the most recently pushed position, restoring the previous
// unrepeatable head if the popped entry was it.
func (h *History) Pop() {
	if len(h.hashes) == 0 {
		return
	}
	h.hashes = h.hashes[:len(h.hashes)-1]

	if h.head >= len(h.hashes) {
		if n := len(h.unrepeatables); n > 0 {
			h.head = h.unrepeatables[n-1]
			h.unrepeatables = h.unrepeatables[:n-1]
		} else {
			h.head = 0
		}
	}
}

// Contains reports whether hash occurs at least once since the last
// unrepeatable move.
func (h *History) Contains(hash uint64) bool {
	return h.ContainsN(hash, 1)
}

// ContainsN reports whether hash occurs at least count times since the
// last unrepeatable move.
func (h *History) ContainsN(hash uint64, count int) bool {
	n := 0
	for i := len(h.hashes) - 1; i >= h.head; i-- {
		if h.hashes[i] == hash {
			n++
			if n >= count {
				return true
			}
		}
	}
	return false
}

// IsThreefoldRepetition reports whether hash would be the position's third
// occurrence (it has already occurred twice).
func (h *History) IsThreefoldRepetition(hash uint64) bool {
	return h.ContainsN(hash, 2)
}

// IsTwofoldRepetition reports whether hash would be the position's second
// occurrence.
func (h *History) IsTwofoldRepetition(hash uint64) bool {
	return h.Contains(hash)
}

// Len returns the number of positions currently recorded.
func (h *History) Len() int {
	return len(h.hashes)
}

// Clone returns an independent copy of h, for workers that branch search
// from a shared game history.
func (h *History) Clone() *History {
	clone := &History{
		hashes:        make([]uint64, len(h.hashes)),
		unrepeatables: make([]int, len(h.unrepeatables)),
		head:          h.head,
	}
	copy(clone.hashes, h.hashes)
	copy(clone.unrepeatables, h.unrepeatables)
	return clone
}
