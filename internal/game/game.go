// Package game wraps a Position, its repetition History, and an Engine into
// a single session for driving a game move by move, independent of any
// particular wire protocol (UCI lives in internal/uci; this package covers
// move application and search, not protocol framing).
package game

import (
	"fmt"

	"github.com/chessplay/core/internal/board"
	"github.com/chessplay/core/internal/engine"
	"github.com/chessplay/core/internal/history"
)

// Result classifies how a finished game ended.
type Result int

const (
	// InProgress means the game has not yet ended.
	InProgress Result = iota
	WhiteWins
	BlackWins
	Draw
)

func (r Result) String() string {
	switch r {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Session drives one game: a mutable Position, the repetition History of
// moves applied so far, and the Engine used to pick moves.
type Session struct {
	Position *board.Position
	History  *history.History
	Engine   *engine.Engine

	startPos     *board.Position
	moves        []board.Move
	hashes       []uint64
	unrepeatable []bool
}

// NewSession starts a session from the standard starting position.
func NewSession(eng *engine.Engine) *Session {
	pos := board.NewPosition()
	h := history.New()
	h.Push(pos.Hash, false)
	return &Session{
		Position:     pos,
		History:      h,
		Engine:       eng,
		startPos:     pos.Copy(),
		hashes:       []uint64{pos.Hash},
		unrepeatable: []bool{false},
	}
}

// NewSessionFromFEN starts a session from an arbitrary FEN position.
func NewSessionFromFEN(eng *engine.Engine, fen string) (*Session, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}
	h := history.New()
	h.Push(pos.Hash, false)
	return &Session{
		Position:     pos,
		History:      h,
		Engine:       eng,
		startPos:     pos.Copy(),
		hashes:       []uint64{pos.Hash},
		unrepeatable: []bool{false},
	}, nil
}

// ApplyMove parses a long-algebraic move string, verifies it is legal in the
// current position, and applies it, updating the repetition history. The
// position is left untouched if the move is illegal.
func (s *Session) ApplyMove(moveStr string) error {
	move, err := board.ParseMove(moveStr, s.Position)
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}

	legal := s.Position.GenerateLegalMoves()
	found := false
	for i := 0; i < legal.Len(); i++ {
		if legal.Get(i) == move {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("game: illegal move %s", moveStr)
	}

	return s.ApplyLegalMove(move)
}

// ApplyLegalMove applies a move already known to be legal in the current
// position, updating the repetition history.
func (s *Session) ApplyLegalMove(move board.Move) error {
	pieceMoved := s.Position.PieceAt(move.From())

	undo := s.Position.MakeMove(move)
	if !undo.Valid {
		s.Position.UnmakeMove(move, undo)
		return fmt.Errorf("game: illegal move %s", move.String())
	}
	s.Position.UpdateCheckers()

	unrepeatable := history.Unrepeatable(pieceMoved.Type(), undo.MoveKind)
	s.History.Push(s.Position.Hash, unrepeatable)
	s.moves = append(s.moves, move)
	s.hashes = append(s.hashes, s.Position.Hash)
	s.unrepeatable = append(s.unrepeatable, unrepeatable)

	return nil
}

// Search finds and plays the engine's chosen move for the side to move,
// returning the move played.
func (s *Session) Search(limits engine.SearchLimits) (board.Move, error) {
	s.Engine.SetPositionHistory(s.hashes, s.unrepeatable)

	move := s.Engine.SearchWithLimits(s.Position, limits)
	if move == board.NoMove {
		return board.NoMove, fmt.Errorf("game: search returned no move")
	}

	if err := s.ApplyLegalMove(move); err != nil {
		return board.NoMove, err
	}
	return move, nil
}

// Moves returns the moves applied so far, in order.
func (s *Session) Moves() []board.Move {
	return s.moves
}

// MovesSAN renders the moves applied so far as Standard Algebraic Notation,
// replayed from the session's starting position, for a human-readable game
// log.
func (s *Session) MovesSAN() []string {
	return board.MovesToSAN(s.startPos, s.moves)
}

// Result reports the game's outcome given the current position: no legal
// moves while in check is a mate for the side not to move; no legal moves
// otherwise, insufficient material, the fifty-move rule, or a threefold
// repetition is a draw.
func (s *Session) Result() Result {
	// The current position is already recorded in History, so a threefold
	// repetition is three occurrences of its hash.
	if s.History.ContainsN(s.Position.Hash, 3) {
		return Draw
	}
	if s.Position.HalfMoveClock >= 100 {
		return Draw
	}
	if s.Position.IsInsufficientMaterial() {
		return Draw
	}

	if s.Position.GenerateLegalMoves().Len() > 0 {
		return InProgress
	}

	if !s.Position.InCheck() {
		return Draw
	}
	if s.Position.SideToMove == board.White {
		return BlackWins
	}
	return WhiteWins
}
