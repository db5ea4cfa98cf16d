package engine

import (
	"testing"
	"time"

	"github.com/chessplay/core/internal/board"
	"github.com/chessplay/core/internal/history"
)

// scenario is one named forced-mate (or repetition) position from which the
// engine must find a specific best move at a specific depth.
type scenario struct {
	name     string
	fen      string
	depth    int
	bestMove string
}

// TestSearchScenarios runs each of the forced-mate positions and checks that
// the engine finds the required move. These are deeper searches and are
// skipped with -short.
func TestSearchScenarios(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping deep search scenarios in -short mode")
	}

	scenarios := []scenario{
		{
			name:     "mate in 1",
			fen:      "r1bqk2r/2p2pp1/p1pp3p/2b5/2B1P1n1/2N2Q2/PPP2PPP/R1B1R1K1 w kq - 2 11",
			depth:    5,
			bestMove: "f3f7",
		},
		{
			name:     "mate in 2",
			fen:      "6k1/5ppp/4p3/4P2q/3P1P2/2r4P/4R1QK/8 w - - 0 3",
			depth:    5,
			bestMove: "g2a8",
		},
		{
			name:     "mate in 3 sacrifice",
			fen:      "r4rk1/1b3ppp/pp2p3/2p5/P1B1NR1Q/3P3P/2q3P1/7K w - - 0 24",
			depth:    6,
			bestMove: "e4f6",
		},
		{
			name:     "underpromotion-free mate in 3",
			fen:      "8/7P/1p6/1P6/K1k5/8/5p2/8 b - - 0 53",
			depth:    5,
			bestMove: "f2f1q",
		},
	}

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			pos, err := board.ParseFEN(sc.fen)
			if err != nil {
				t.Fatalf("ParseFEN(%q): %v", sc.fen, err)
			}

			eng := NewEngine(32)
			move := eng.SearchWithLimits(pos, SearchLimits{
				Depth:    sc.depth,
				MoveTime: 30 * time.Second,
			})

			if got := move.String(); got != sc.bestMove {
				t.Errorf("%s: best move = %s, want %s", sc.name, got, sc.bestMove)
			}
		})
	}
}

// TestThreefoldRepetitionScoresDraw checks that, with a repetition-producing
// move history loaded into the engine, a position that has already occurred
// twice before must score as a draw, not a loss for the side on move.
func TestThreefoldRepetitionScoresDraw(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping deep search scenario in -short mode")
	}

	fen := "k7/1p2QP2/4PP2/8/1P5q/8/6P1/1RRN2K1 b - - 0 1"
	cycle := []string{"h4e1", "g1h2", "e1h4", "h2g1"}

	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}

	hashes := []uint64{pos.Hash}
	unrepeatable := []bool{false}
	for i := 0; i < 2; i++ {
		for _, m := range cycle {
			move, err := board.ParseMove(m, pos)
			if err != nil {
				t.Fatalf("ParseMove(%s): %v", m, err)
			}
			piece := pos.PieceAt(move.From())
			undo := pos.MakeMove(move)
			if !undo.Valid {
				t.Fatalf("move %s was illegal", m)
			}
			pos.UpdateCheckers()
			hashes = append(hashes, pos.Hash)
			unrepeatable = append(unrepeatable, history.Unrepeatable(piece.Type(), undo.MoveKind))
		}
	}

	eng := NewEngine(16)
	eng.SetPositionHistory(hashes, unrepeatable)
	result := eng.SearchMultiPV(pos, SearchLimits{Depth: 5, MoveTime: 10 * time.Second})
	if len(result) == 0 {
		t.Fatal("expected at least one principal variation")
	}
	if result[0].Score != 0 {
		t.Errorf("expected draw score 0 with repetition history loaded, got %d", result[0].Score)
	}

	// Without the preloaded history the engine has no reason to treat this
	// as a repetition: the score is reported relative to Black (the side to
	// move), so a position that is losing for White shows up as a
	// strongly positive score here.
	eng2 := NewEngine(16)
	result2 := eng2.SearchMultiPV(pos, SearchLimits{Depth: 5, MoveTime: 10 * time.Second})
	if len(result2) == 0 {
		t.Fatal("expected at least one principal variation")
	}
	if result2[0].Score <= 0 {
		t.Errorf("expected a winning score for Black (losing for White) without repetition history, got %d", result2[0].Score)
	}
}
