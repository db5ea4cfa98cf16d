package board

import "testing"

// TestFENRoundTrip checks that parsing a FEN and printing it back produces
// the same FEN, for a handful of positions covering castling rights, en
// passant targets, and half/full move counters.
func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"4k3/8/8/8/8/8/8/4K2R w K - 5 30",
	}

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := pos.ToFEN(); got != fen {
			t.Errorf("round trip mismatch:\n got  %q\n want %q", got, fen)
		}
	}
}

// TestSANRoundTrip checks that every legal move from a handful of positions
// can be rendered to SAN and parsed back to the identical Move.
func TestSANRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/7P/1p6/1P6/K1k5/8/5p2/8 b - - 0 53",
	}

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}

		moves := pos.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			san := m.ToSAN(pos)

			parsed, err := ParseSAN(san, pos)
			if err != nil {
				t.Errorf("%s: ParseSAN(%q) failed: %v", fen, san, err)
				continue
			}
			if parsed != m {
				t.Errorf("%s: SAN round trip %s -> %q -> %s, want original move back", fen, m, san, parsed)
			}
		}
	}
}
