package board

import "testing"

// TestTerminalPositions checks IsCheckmate/IsStalemate/HasLegalMoves agree
// across a handful of positions with no legal moves (mate), legal moves
// while in check (the king can take the checker or step aside), and no
// legal moves while not in check (stalemate).
func TestTerminalPositions(t *testing.T) {
	cases := []struct {
		name          string
		fen           string
		wantCheckmate bool
		wantStalemate bool
	}{
		{
			name:          "back rank mate",
			fen:           "R6k/6pp/8/8/8/8/8/K7 b - - 0 1",
			wantCheckmate: true,
		},
		{
			name:          "king can capture the checking rook",
			fen:           "6Rk/8/8/8/8/8/8/K7 b - - 0 1",
			wantCheckmate: false,
		},
		{
			name:          "stalemate, king not in check but has no moves",
			fen:           "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1",
			wantStalemate: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pos, err := ParseFEN(c.fen)
			if err != nil {
				t.Fatalf("ParseFEN(%q): %v", c.fen, err)
			}
			pos.UpdateCheckers()

			if got := pos.IsCheckmate(); got != c.wantCheckmate {
				t.Errorf("IsCheckmate() = %v, want %v (legal moves: %d)", got, c.wantCheckmate, pos.GenerateLegalMoves().Len())
			}
			if got := pos.IsStalemate(); got != c.wantStalemate {
				t.Errorf("IsStalemate() = %v, want %v (legal moves: %d)", got, c.wantStalemate, pos.GenerateLegalMoves().Len())
			}
			wantHasLegalMoves := !c.wantCheckmate && !c.wantStalemate
			if got := pos.HasLegalMoves(); got != wantHasLegalMoves {
				t.Errorf("HasLegalMoves() = %v, want %v", got, wantHasLegalMoves)
			}
		})
	}
}
