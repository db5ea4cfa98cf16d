package history

import (
	"testing"

	"github.com/chessplay/core/internal/board"
)

func TestPushContains(t *testing.T) {
	h := New()
	h.Push(1, false)
	h.Push(2, false)

	if !h.Contains(1) {
		t.Error("expected history to contain hash 1")
	}
	if !h.Contains(2) {
		t.Error("expected history to contain hash 2")
	}
	if h.Contains(3) {
		t.Error("did not expect history to contain hash 3")
	}
}

// IsTwofoldRepetition/IsThreefoldRepetition are queried with the hash of a
// position about to be reached but not yet pushed, so a single ancestor
// occurrence already in the stack means the position about to be recorded
// would be its *second* occurrence. (worker.go's isDraw runs after the
// current hash is pushed, so it counts with ContainsN instead.)
func TestTwofoldAndThreefoldRepetition(t *testing.T) {
	h := New()

	if h.IsTwofoldRepetition(42) {
		t.Error("an empty history should not report a twofold repetition")
	}

	h.Push(42, false) // ancestor occurrence 1
	if !h.IsTwofoldRepetition(42) {
		t.Error("reaching hash 42 again should be its twofold (second) occurrence")
	}
	if h.IsThreefoldRepetition(42) {
		t.Error("only one ancestor occurrence recorded, not yet a threefold repetition")
	}

	h.Push(42, false) // ancestor occurrence 2
	if !h.IsThreefoldRepetition(42) {
		t.Error("reaching hash 42 again should now be its threefold (third) occurrence")
	}
}

// TestUnrepeatableResetsWindow verifies that an unrepeatable move (pawn
// push, capture, castle, en passant) severs repetition detection: an
// occurrence recorded before the irreversible move does not count toward
// a later repetition, even if the irreversible move happens to land back
// on that same hash.
func TestUnrepeatableResetsWindow(t *testing.T) {
	h := New()
	h.Push(1, false) // occurrence before the reset; must not count afterward
	h.Push(1, true)  // irreversible move, landing back on hash 1 (the new baseline)
	h.Push(1, false) // one real occurrence since the reset

	if h.ContainsN(1, 3) {
		t.Error("the occurrence before the unrepeatable move must not count toward repetition")
	}
	if !h.IsThreefoldRepetition(1) {
		t.Error("the baseline plus one occurrence since the reset are two occurrences, so reaching hash 1 again is a threefold repetition")
	}
}

func TestPopRestoresUnrepeatableHead(t *testing.T) {
	h := New()
	h.Push(1, false)
	h.Push(2, true)
	h.Push(3, false)

	h.Pop() // undo push of hash 3
	h.Pop() // undo the unrepeatable push of hash 2; head should restore to before hash 1

	if !h.Contains(1) {
		t.Error("expected hash 1 to be visible again after popping back past the unrepeatable move")
	}
	if h.Len() != 1 {
		t.Errorf("expected 1 entry remaining, got %d", h.Len())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	h := New()
	h.Push(1, false)
	h.Push(2, false)

	clone := h.Clone()
	clone.Push(3, false)

	if h.Len() != 2 {
		t.Errorf("expected original history to be unaffected by clone mutation, got len %d", h.Len())
	}
	if clone.Len() != 3 {
		t.Errorf("expected clone to have the new entry, got len %d", clone.Len())
	}
}

func TestUnrepeatableClassification(t *testing.T) {
	cases := []struct {
		name     string
		piece    board.PieceType
		kind     board.MoveKind
		expected bool
	}{
		{"pawn push", board.Pawn, board.MoveQuiet, true},
		{"knight quiet move", board.Knight, board.MoveQuiet, false},
		{"capture", board.Knight, board.MoveCapture, true},
		{"en passant", board.Pawn, board.MoveEnPassant, true},
		{"castle", board.King, board.MoveCastle, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Unrepeatable(tc.piece, tc.kind); got != tc.expected {
				t.Errorf("Unrepeatable(%v, %v) = %v, want %v", tc.piece, tc.kind, got, tc.expected)
			}
		})
	}
}
