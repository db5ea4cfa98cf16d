package board

import "testing"

// TestHashDeterministic verifies that hashing the same position twice, from
// scratch, always yields the same key.
func TestHashDeterministic(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got, want := ComputeHash(pos), pos.Hash; got != want {
			t.Errorf("ComputeHash(%q) = %x, want %x (hash set at parse time)", fen, got, want)
		}
		if ComputeHash(pos) != ComputeHash(pos) {
			t.Errorf("ComputeHash(%q) not deterministic across calls", fen)
		}
	}
}

// TestIncrementalHashMatchesRecompute checks, for every legal move from a
// handful of positions, that the incrementally updated hash produced by
// MakeMove equals a from-scratch ComputeHash of the resulting position.
func TestIncrementalHashMatchesRecompute(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
		"r4rk1/1b3ppp/pp2p3/2p5/P1B1NR1Q/3P3P/2q3P1/7K w - - 0 24",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		moves := pos.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			undo := pos.MakeMove(m)
			if !undo.Valid {
				pos.UnmakeMove(m, undo)
				continue
			}
			incremental := pos.Hash
			recomputed := ComputeHash(pos)
			if incremental != recomputed {
				t.Errorf("%s: move %s incremental hash %x != recomputed %x", fen, m, incremental, recomputed)
			}
			pos.UnmakeMove(m, undo)
		}
	}
}

// TestMakeUnmakeRoundTrip verifies that MakeMove followed by UnmakeMove
// restores the position's hash and side-effect-free fields exactly, for
// every legal move from a handful of positions.
func TestMakeUnmakeRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		before := *pos
		moves := pos.GenerateLegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			undo := pos.MakeMove(m)
			pos.UnmakeMove(m, undo)
			if pos.Hash != before.Hash {
				t.Errorf("%s: move %s left hash %x, want %x", fen, m, pos.Hash, before.Hash)
			}
			if pos.AllOccupied != before.AllOccupied || pos.SideToMove != before.SideToMove {
				t.Errorf("%s: move %s left position altered after unmake", fen, m)
			}
		}
	}
}

// TestPinnedMovesStayOnPinRay checks the absolute-pin invariant: a pinned
// piece's legal moves are a subset of the pin ray between it and the king,
// plus capturing the pinner itself.
func TestPinnedMovesStayOnPinRay(t *testing.T) {
	// White king on e1, white rook pinned on e4 by the black rook on e8.
	pos, err := ParseFEN("4r3/8/8/8/4R3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	pinned := pos.ComputePinned()
	if pinned&SquareBB(E4) == 0 {
		t.Fatal("expected rook on e4 to be detected as pinned")
	}

	ksq := pos.KingSquare[White]
	pinnerSq := Square(E8)
	ray := Between(ksq, pinnerSq) | SquareBB(pinnerSq)

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() != E4 {
			continue
		}
		if ray&SquareBB(m.To()) == 0 {
			t.Errorf("pinned rook move %s leaves the pin ray (king %s, pinner %s)", m, ksq, pinnerSq)
		}
	}
}
