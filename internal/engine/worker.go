package engine

import (
	"sync/atomic"

	"github.com/chessplay/core/internal/board"
	"github.com/chessplay/core/internal/history"
)

// maxQuiescenceDepth bounds how many extra plies quiescence search may
// recurse past the horizon, guaranteeing termination along long capture
// sequences.
const maxQuiescenceDepth = 8

// WorkerResult is one worker's search outcome at a completed depth.
type WorkerResult struct {
	WorkerID int
	Depth    int
	Score    int
	Move     board.Move
	PV       []board.Move
	Nodes    uint64
}

// Worker is one Lazy-SMP search thread. It holds its own position copy,
// move ordering state, repetition history, and pawn table; only the
// transposition table is shared with its siblings.
type Worker struct {
	id int

	pos     *board.Position
	orderer *MoveOrderer

	nodes uint64
	pv    PVTable

	undoStack [MaxPly]board.MoveInfo

	hist *history.History

	excludedRootMoves []board.Move

	tt        *TranspositionTable
	pawnTable *PawnTable
	stopFlag  *atomic.Bool

	resultCh chan<- WorkerResult
	depth    int
}

// NewWorker creates a search worker that shares tt with its siblings and
// uses pawnTable as its pawn-structure cache.
func NewWorker(id int, tt *TranspositionTable, pawnTable *PawnTable, stopFlag *atomic.Bool) *Worker {
	return &Worker{
		id:        id,
		orderer:   NewMoveOrderer(),
		tt:        tt,
		pawnTable: pawnTable,
		stopFlag:  stopFlag,
	}
}

// ID returns the worker's index.
func (w *Worker) ID() int { return w.id }

// Nodes returns the number of nodes searched by this worker in the current search.
func (w *Worker) Nodes() uint64 { return w.nodes }

// Reset clears per-search state ahead of a new iterative-deepening run.
func (w *Worker) Reset() {
	w.nodes = 0
	w.orderer.Clear()
}

// SetResultChannel sets the channel results are pushed to after each completed depth.
func (w *Worker) SetResultChannel(ch chan<- WorkerResult) {
	w.resultCh = ch
}

// SetExcludedMoves sets root moves this worker should skip (used for Multi-PV).
func (w *Worker) SetExcludedMoves(moves []board.Move) {
	w.excludedRootMoves = moves
}

// InitSearch points the worker at pos (a copy dedicated to this worker) and
// seeds its repetition history by cloning root.
func (w *Worker) InitSearch(pos *board.Position, root *history.History) {
	w.pos = pos
	w.hist = root.Clone()
}

// Pos returns the worker's current position.
func (w *Worker) Pos() *board.Position { return w.pos }

// SearchDepth runs one iterative-deepening depth and reports the result.
func (w *Worker) SearchDepth(depth, alpha, beta int) (board.Move, int) {
	w.depth = depth

	score := w.negamax(depth, 0, alpha, beta)

	var bestMove board.Move
	if w.pv.length[0] > 0 {
		bestMove = w.pv.moves[0][0]
	}

	if bestMove == board.NoMove && !w.stopFlag.Load() {
		moves := w.pos.GenerateLegalMoves()
		if moves.Len() > 0 {
			bestMove = moves.Get(0)
		}
	}

	if w.resultCh != nil && !w.stopFlag.Load() {
		pv := make([]board.Move, w.pv.length[0])
		copy(pv, w.pv.moves[0][:w.pv.length[0]])
		w.resultCh <- WorkerResult{
			WorkerID: w.id,
			Depth:    depth,
			Score:    score,
			Move:     bestMove,
			PV:       pv,
			Nodes:    w.nodes,
		}
	}

	return bestMove, score
}

func (w *Worker) evaluate() int {
	return EvaluateWithPawnTable(w.pos, w.pawnTable)
}

// GetPV returns the principal variation found by the last completed SearchDepth.
func (w *Worker) GetPV() []board.Move {
	pv := make([]board.Move, w.pv.length[0])
	copy(pv, w.pv.moves[0][:w.pv.length[0]])
	return pv
}

func (w *Worker) isExcludedRootMove(move board.Move) bool {
	for _, excluded := range w.excludedRootMoves {
		if move == excluded {
			return true
		}
	}
	return false
}

// isDraw checks the 50-move rule, insufficient material, and repetition.
// The parent has already pushed the current position's hash, so a twofold
// repetition shows up as two occurrences in the history window.
func (w *Worker) isDraw() bool {
	if w.pos.HalfMoveClock >= 100 {
		return true
	}
	if w.pos.IsInsufficientMaterial() {
		return true
	}
	return w.hist.ContainsN(w.pos.Hash, 2)
}

// negamax implements the search's seven-step contract: node/stop accounting,
// draw detection, terminal scoring, quiescence at the horizon, a TT probe
// that can short-circuit the node, move ordering, and a TT store on the way
// out (Cut on a beta cutoff; otherwise one store after every move has been
// tried, PV if alpha improved and All if it did not). Move ordering only affects which lines get explored
// first; it never prunes a move outright, so correctness never depends on
// it.
func (w *Worker) negamax(depth, ply int, alpha, beta int) int {
	if ply >= MaxPly-1 {
		return w.evaluate()
	}

	if w.nodes&4095 == 0 && w.stopFlag.Load() {
		return 0
	}
	w.nodes++

	w.pv.length[ply] = ply

	if ply > 0 && w.isDraw() {
		return 0
	}

	var ttMove board.Move
	ttEntry, found := w.tt.Probe(w.pos.Hash)
	if found {
		ttMove = ttEntry.BestMove
		ttCutoffAllowed := ply > 0 || !w.isExcludedRootMove(ttMove)

		if int(ttEntry.Depth) >= depth && ttCutoffAllowed {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			cutoff := false
			switch ttEntry.Flag {
			case TTExact:
				cutoff = true
			case TTLowerBound:
				cutoff = score >= beta
			case TTUpperBound:
				cutoff = score <= alpha
			}
			if cutoff {
				if ply == 0 && ttMove != board.NoMove {
					w.pv.moves[0][0] = ttMove
					w.pv.length[0] = 1
				}
				return score
			}
		}
	}

	if depth <= 0 {
		return w.quiescence(ply, alpha, beta)
	}

	inCheck := w.pos.InCheck()

	moves := w.pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	scores := w.orderer.ScoreMoves(w.pos, moves, ply, ttMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		if ply == 0 && w.isExcludedRootMove(move) {
			continue
		}

		isCapture := move.IsCapture(w.pos)

		pieceMoved := board.NoPiece
		if p := w.pos.PieceAt(move.From()); p != board.NoPiece {
			pieceMoved = p
		}

		w.undoStack[ply] = w.pos.MakeMove(move)
		if !w.undoStack[ply].Valid {
			w.pos.UnmakeMove(move, w.undoStack[ply])
			continue
		}
		w.hist.Push(w.pos.Hash, history.Unrepeatable(pieceMoved.Type(), w.undoStack[ply].MoveKind))

		score := -w.negamax(depth-1, ply+1, -beta, -alpha)

		w.hist.Pop()
		w.pos.UnmakeMove(move, w.undoStack[ply])

		if w.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact

				w.pv.moves[ply][ply] = move
				for j := ply + 1; j < w.pv.length[ply+1]; j++ {
					w.pv.moves[ply][j] = w.pv.moves[ply+1][j]
				}
				w.pv.length[ply] = w.pv.length[ply+1]
			}
		}

		if score >= beta {
			if ply == 0 && bestMove != board.NoMove {
				w.pv.moves[0][0] = bestMove
				w.pv.length[0] = 1
			}

			w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, bestMove)

			if !isCapture {
				w.orderer.UpdateKillers(move, ply)
				w.orderer.UpdateHistory(move, depth, true)
			}

			return score
		}
	}

	if bestMove == board.NoMove && moves.Len() > 0 {
		bestMove = moves.Get(0)
		if bestScore == -Infinity {
			bestScore = alpha
		}
	}

	w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)

	return bestScore
}

// quiescence extends search past the horizon along capture and promotion
// lines only (all legal evasions when in check), to avoid misjudging a
// position mid-exchange. It is entered at
// qdepth 0 and bottoms out after maxQuiescenceDepth further plies so that a
// long forcing sequence still terminates.
func (w *Worker) quiescence(ply int, alpha, beta int) int {
	return w.quiescenceAt(ply, 0, alpha, beta)
}

func (w *Worker) quiescenceAt(ply, qdepth, alpha, beta int) int {
	if ply >= MaxPly-1 {
		return w.evaluate()
	}

	if w.stopFlag.Load() {
		return 0
	}
	w.nodes++

	inCheck := w.pos.InCheck()

	var standPat, bestValue int

	if inCheck {
		bestValue = -MateScore + ply
		standPat = bestValue
	} else {
		standPat = w.evaluate()
		bestValue = standPat

		if standPat >= beta {
			return beta
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	if qdepth >= maxQuiescenceDepth {
		return bestValue
	}

	var moves *board.MoveList
	if inCheck {
		moves = w.pos.GenerateLegalMoves()
	} else {
		moves = w.pos.GenerateCaptures()
	}

	scores := w.orderer.ScoreMoves(w.pos, moves, ply, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		undo := w.pos.MakeMove(move)
		if !undo.Valid {
			w.pos.UnmakeMove(move, undo)
			continue
		}

		score := -w.quiescenceAt(ply+1, qdepth+1, -beta, -alpha)
		w.pos.UnmakeMove(move, undo)

		if score > bestValue {
			bestValue = score

			if score > alpha {
				alpha = score
				if score >= beta {
					break
				}
			}
		}
	}

	if inCheck && bestValue == -MateScore+ply && moves.Len() == 0 {
		return -MateScore + ply
	}

	return bestValue
}
