package uci

import "fmt"

// ErrorKind classifies a driver-level Error so callers can branch on the
// failure mode instead of parsing a message string.
type ErrorKind int

const (
	// ErrParseFen means a FEN string failed to parse; Reason names the field.
	ErrParseFen ErrorKind = iota
	// ErrParseMove means a long-algebraic move string failed to parse.
	ErrParseMove
	// ErrIllegalMove means a move was syntactically valid but not legal in
	// the given position.
	ErrIllegalMove
	// ErrAlreadySearching means "go" was received while a search was running.
	ErrAlreadySearching
)

func (k ErrorKind) String() string {
	switch k {
	case ErrParseFen:
		return "parse fen"
	case ErrParseMove:
		return "parse move"
	case ErrIllegalMove:
		return "illegal move"
	case ErrAlreadySearching:
		return "already searching"
	default:
		return "unknown error"
	}
}

// Error is the uci package's typed error. Reason holds a FEN sub-reason
// (placement, side, castling, ep, halfmove, fullmove, illformed) when Kind
// is ErrParseFen.
type Error struct {
	Kind   ErrorKind
	Reason string
	Msg    string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Msg)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return e.Kind.String()
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}
