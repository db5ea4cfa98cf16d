package engine

import "github.com/chessplay/core/internal/board"

// Search bounds shared by every worker.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// PVTable stores the principal variation found at each ply of a search.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}
