package game

import (
	"testing"
	"time"

	"github.com/chessplay/core/internal/board"
	"github.com/chessplay/core/internal/engine"
)

func TestApplyMoveUpdatesPosition(t *testing.T) {
	s := NewSession(engine.NewEngine(1))

	if err := s.ApplyMove("e2e4"); err != nil {
		t.Fatalf("ApplyMove failed: %v", err)
	}

	if len(s.Moves()) != 1 {
		t.Fatalf("Expected 1 move recorded, got %d", len(s.Moves()))
	}
	if s.Position.SideToMove != board.Black {
		t.Errorf("Expected black to move after e2e4")
	}
}

func TestApplyMoveRejectsIllegal(t *testing.T) {
	s := NewSession(engine.NewEngine(1))

	if err := s.ApplyMove("e2e5"); err == nil {
		t.Fatal("Expected illegal move to be rejected")
	}
	if s.Position.SideToMove != board.White {
		t.Error("Position should be untouched after a rejected move")
	}
}

func TestSearchPlaysAMove(t *testing.T) {
	s := NewSession(engine.NewEngine(4))

	move, err := s.Search(engine.SearchLimits{Depth: 3, MoveTime: 500 * time.Millisecond})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if move == board.NoMove {
		t.Fatal("Search returned NoMove")
	}
	if len(s.Moves()) != 1 {
		t.Errorf("Expected the searched move to be recorded")
	}
}

func TestResultThreefoldRepetition(t *testing.T) {
	s, err := NewSessionFromFEN(engine.NewEngine(1), "k7/1p2QP2/4PP2/8/1P5q/8/6P1/1RRN2K1 b - - 0 1")
	if err != nil {
		t.Fatalf("NewSessionFromFEN failed: %v", err)
	}

	// One cycle returns to the starting position (twofold so far); a second
	// cycle repeats it again, reaching threefold.
	cycle := []string{"h4e1", "g1h2", "e1h4", "h2g1"}
	for i := 0; i < 2; i++ {
		for _, m := range cycle {
			if err := s.ApplyMove(m); err != nil {
				t.Fatalf("ApplyMove(%s) failed: %v", m, err)
			}
		}
	}

	if got := s.Result(); got != Draw {
		t.Errorf("Expected Draw by threefold repetition, got %v", got)
	}
}

func TestMovesSAN(t *testing.T) {
	s := NewSession(engine.NewEngine(1))

	for _, m := range []string{"e2e4", "e7e5", "g1f3"} {
		if err := s.ApplyMove(m); err != nil {
			t.Fatalf("ApplyMove(%s) failed: %v", m, err)
		}
	}

	san := s.MovesSAN()
	want := []string{"e4", "e5", "Nf3"}
	if len(san) != len(want) {
		t.Fatalf("got %v, want %v", san, want)
	}
	for i := range want {
		if san[i] != want[i] {
			t.Errorf("move %d: got %q, want %q", i, san[i], want[i])
		}
	}
}

func TestResultInProgressAtStart(t *testing.T) {
	s := NewSession(engine.NewEngine(1))
	if got := s.Result(); got != InProgress {
		t.Errorf("Expected InProgress at game start, got %v", got)
	}
}
