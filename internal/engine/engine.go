package engine

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chessplay/core/internal/board"
	"github.com/chessplay/core/internal/history"
)

// NumWorkers is the number of parallel search workers (matches CPU cores).
var NumWorkers = runtime.GOMAXPROCS(0)

// SearchInfo reports progress for one completed iterative-deepening depth.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	Nodes    uint64        // Maximum nodes (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Infinite bool          // Search until stopped
	MultiPV  int           // Number of principal variations to find (0 or 1 = single best move)
}

// SearchResult is the outcome of a search: the move to play, its score, the
// principal variation behind it, and the bookkeeping (node count, wall-clock
// time) a caller needs to report progress or tune time management. It is
// also the element type for each line SearchMultiPV finds.
type SearchResult struct {
	Move    board.Move
	Score   int
	PV      []board.Move
	Depth   int
	Nodes   uint64
	Elapsed time.Duration
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // depth 3, 500ms
	Medium                   // depth 7, 1s
	Hard                     // depth 40 (maximum strength), 3s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 3, MoveTime: 500 * time.Millisecond},
	Medium: {Depth: 7, MoveTime: 1 * time.Second},
	Hard:   {Depth: 40, MoveTime: 3 * time.Second},
}

// Engine coordinates Lazy-SMP search across a pool of workers sharing one
// transposition table.
type Engine struct {
	workers   []*Worker
	tt        *TranspositionTable
	stopFlag  atomic.Bool
	searching atomic.Bool

	difficulty Difficulty

	// Game history, for repetition detection; cloned per-worker at the
	// start of each search.
	rootHistory *history.History

	OnInfo func(SearchInfo)
}

// NewEngine creates a chess engine with the given transposition table size in MB.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)

	e := &Engine{
		tt:          tt,
		difficulty:  Medium,
		workers:     make([]*Worker, NumWorkers),
		rootHistory: history.New(),
	}

	for i := 0; i < NumWorkers; i++ {
		workerPawnTable := NewPawnTable(1)
		e.workers[i] = NewWorker(i, tt, workerPawnTable, &e.stopFlag)
	}

	return e
}

// TT returns the engine's transposition table, for snapshotting to or
// restoring from persistent storage.
func (e *Engine) TT() *TranspositionTable {
	return e.tt
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// SetPositionHistory seeds repetition detection from the game's move history
// so far (hashes of every position reached, including the current one), and
// whether each move that produced them was unrepeatable (pawn move, capture,
// castle, or en passant). Call this before Search.
func (e *Engine) SetPositionHistory(hashes []uint64, unrepeatable []bool) {
	h := history.New()
	for i, hash := range hashes {
		isUnrepeatable := i < len(unrepeatable) && unrepeatable[i]
		h.Push(hash, isUnrepeatable)
	}
	e.rootHistory = h
}

// SearchAtDifficulty finds the best move for the given position using the
// engine's current difficulty setting.
func (e *Engine) SearchAtDifficulty(pos *board.Position) board.Move {
	limits := DifficultySettings[e.difficulty]
	return e.SearchWithLimits(pos, limits)
}

// SearchWithLimits finds the best move with specific search limits. It is a
// thin wrapper around Search for callers that only need the move.
func (e *Engine) SearchWithLimits(pos *board.Position, limits SearchLimits) board.Move {
	return e.Search(pos, limits).Move
}

// Search is the engine's public entry point: given a position and a mode
// (expressed as SearchLimits — depth cap, node cap, move time, or infinite),
// it runs a Lazy-SMP search against the engine's transposition table, root
// history (set via SetPositionHistory), and stop flag (set via Stop) and
// returns the full result. Every worker iteratively deepens the same
// position independently, sharing only the transposition table, so they
// converge on and reinforce each other's best lines instead of duplicating
// identical work.
func (e *Engine) Search(pos *board.Position, limits SearchLimits) SearchResult {
	e.searching.Store(true)
	defer e.searching.Store(false)

	e.stopFlag.Store(false)
	e.tt.NewSearch()

	for _, w := range e.workers {
		w.Reset()
	}

	startTime := time.Now()
	var bestMove board.Move
	var bestScore int
	var bestPV []board.Move
	var bestDepth int

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	var deadline time.Time
	if limits.MoveTime > 0 {
		deadline = startTime.Add(limits.MoveTime)
	}

	resultCh := make(chan WorkerResult, NumWorkers*maxDepth)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < NumWorkers; i++ {
		workerID := i
		g.Go(func() error {
			e.workerSearch(ctx, workerID, pos, maxDepth, resultCh)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(resultCh)
		close(done)
	}()

resultLoop:
	for {
		select {
		case result, ok := <-resultCh:
			if !ok {
				break resultLoop
			}

			if result.Move != board.NoMove {
				if result.Depth > bestDepth ||
					(result.Depth == bestDepth && result.Score > bestScore) {
					bestMove = result.Move
					bestScore = result.Score
					bestPV = result.PV
					bestDepth = result.Depth

					if e.OnInfo != nil {
						e.OnInfo(SearchInfo{
							Depth:    bestDepth,
							Score:    bestScore,
							Nodes:    e.getTotalNodes(),
							Time:     time.Since(startTime),
							PV:       bestPV,
							HashFull: e.tt.HashFull(),
						})
					}

					if bestScore > MateScore-100 || bestScore < -MateScore+100 {
						e.stopFlag.Store(true)
						break resultLoop
					}
				}
			}

			if !deadline.IsZero() && time.Now().After(deadline) {
				e.stopFlag.Store(true)
				break resultLoop
			}

			if limits.Nodes > 0 && e.getTotalNodes() >= limits.Nodes {
				e.stopFlag.Store(true)
				break resultLoop
			}

		case <-done:
			break resultLoop
		}
	}

	e.stopFlag.Store(true)
	<-done

	return SearchResult{
		Move:    bestMove,
		Score:   bestScore,
		PV:      bestPV,
		Depth:   bestDepth,
		Nodes:   e.getTotalNodes(),
		Elapsed: time.Since(startTime),
	}
}

// SearchWithUCILimits finds the best move using UCI time controls
// (wtime/btime/winc/binc), adjusting the time budget as the best move
// stabilizes or keeps changing across depths.
func (e *Engine) SearchWithUCILimits(pos *board.Position, limits UCILimits, ply int) board.Move {
	e.searching.Store(true)
	defer e.searching.Store(false)

	tm := NewTimeManager()
	tm.Init(limits, pos.SideToMove, ply)

	e.stopFlag.Store(false)
	e.tt.NewSearch()

	for _, w := range e.workers {
		w.Reset()
	}

	var bestMove, lastBestMove board.Move
	var bestScore, bestDepth int
	var stabilityCount, instabilityCount int

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	resultCh := make(chan WorkerResult, NumWorkers*maxDepth)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < NumWorkers; i++ {
		workerID := i
		g.Go(func() error {
			e.workerSearch(ctx, workerID, pos, maxDepth, resultCh)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(resultCh)
		close(done)
	}()

resultLoop:
	for {
		select {
		case result, ok := <-resultCh:
			if !ok {
				break resultLoop
			}

			if result.Move != board.NoMove {
				if result.Depth > bestDepth ||
					(result.Depth == bestDepth && result.Score > bestScore) {

					if result.Depth > bestDepth {
						if result.Move == lastBestMove {
							stabilityCount++
							instabilityCount = 0
						} else {
							instabilityCount++
							stabilityCount = 0
						}
						lastBestMove = result.Move
					}

					bestMove = result.Move
					bestScore = result.Score
					bestDepth = result.Depth

					if e.OnInfo != nil {
						e.OnInfo(SearchInfo{
							Depth:    bestDepth,
							Score:    bestScore,
							Nodes:    e.getTotalNodes(),
							Time:     tm.Elapsed(),
							PV:       result.PV,
							HashFull: e.tt.HashFull(),
						})
					}

					if bestScore > MateScore-100 || bestScore < -MateScore+100 {
						e.stopFlag.Store(true)
						break resultLoop
					}

					if instabilityCount >= 2 {
						tm.AdjustForInstability(instabilityCount)
					} else if stabilityCount >= 2 {
						tm.AdjustForStability(stabilityCount)
					}

					if tm.PastOptimum() && stabilityCount >= 4 {
						e.stopFlag.Store(true)
						break resultLoop
					}
				}
			}

			if tm.ShouldStop() {
				e.stopFlag.Store(true)
				break resultLoop
			}

			if limits.Nodes > 0 && e.getTotalNodes() >= limits.Nodes {
				e.stopFlag.Store(true)
				break resultLoop
			}

		case <-done:
			break resultLoop
		}
	}

	e.stopFlag.Store(true)
	<-done

	return bestMove
}

// workerSearch runs iterative deepening in one worker, staggering its start
// depth so helper workers skip redundant shallow iterations, and widening
// its aspiration window around the previous iteration's score.
func (e *Engine) workerSearch(ctx context.Context, workerID int, pos *board.Position, maxDepth int, resultCh chan<- WorkerResult) {
	worker := e.workers[workerID]
	worker.InitSearch(pos.Copy(), e.rootHistory)

	var prevScore int

	startDepth := 1
	switch {
	case workerID >= 6:
		startDepth = 4
	case workerID >= 3:
		startDepth = 3
	case workerID >= 1:
		startDepth = 2
	}

	for depth := startDepth; depth <= maxDepth; depth++ {
		if e.stopFlag.Load() || ctx.Err() != nil {
			return
		}

		var move board.Move
		var score int

		if depth >= 5 && prevScore != 0 {
			window := 25 + (workerID%8)*3
			alpha := prevScore - window
			beta := prevScore + window

			for {
				move, score = worker.SearchDepth(depth, alpha, beta)
				if e.stopFlag.Load() {
					return
				}
				if score <= alpha {
					alpha = -Infinity
				} else if score >= beta {
					beta = Infinity
				} else {
					break
				}
				if alpha == -Infinity && beta == Infinity {
					break
				}
			}
		} else {
			move, score = worker.SearchDepth(depth, -Infinity, Infinity)
		}

		if e.stopFlag.Load() {
			return
		}

		prevScore = score

		resultCh <- WorkerResult{
			WorkerID: workerID,
			Depth:    depth,
			Score:    score,
			Move:     move,
			PV:       worker.GetPV(),
			Nodes:    worker.Nodes(),
		}
	}
}

// getTotalNodes returns the total nodes searched by all workers.
func (e *Engine) getTotalNodes() uint64 {
	var total uint64
	for _, w := range e.workers {
		total += w.Nodes()
	}
	return total
}

// SearchMultiPV finds multiple principal variations for analysis, searching
// each one sequentially on worker 0 with the previously found moves excluded.
func (e *Engine) SearchMultiPV(pos *board.Position, limits SearchLimits) []SearchResult {
	numPV := limits.MultiPV
	if numPV <= 0 {
		numPV = 1
	}

	results := make([]SearchResult, 0, numPV)
	excludedMoves := make([]board.Move, 0, numPV)

	for i := 0; i < numPV; i++ {
		move, score, pv, depth := e.searchWithExclusions(pos, limits, excludedMoves)
		if move == board.NoMove {
			break
		}

		results = append(results, SearchResult{Move: move, Score: score, PV: pv, Depth: depth})
		excludedMoves = append(excludedMoves, move)
	}

	for i := 0; i < len(results)-1; i++ {
		maxIdx := i
		for j := i + 1; j < len(results); j++ {
			if results[j].Score > results[maxIdx].Score {
				maxIdx = j
			}
		}
		if maxIdx != i {
			results[i], results[maxIdx] = results[maxIdx], results[i]
		}
	}

	return results
}

// searchWithExclusions runs a single-worker iterative deepening search that
// skips the given root moves, used to find successive Multi-PV lines.
func (e *Engine) searchWithExclusions(pos *board.Position, limits SearchLimits, excluded []board.Move) (board.Move, int, []board.Move, int) {
	worker := e.workers[0]
	worker.Reset()
	worker.SetExcludedMoves(excluded)
	worker.InitSearch(pos.Copy(), e.rootHistory)
	e.tt.NewSearch()
	e.stopFlag.Store(false)

	startTime := time.Now()
	var bestMove board.Move
	var bestScore, bestDepth int

	maxDepth := MaxPly
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	var deadline time.Time
	if limits.MoveTime > 0 {
		deadline = startTime.Add(limits.MoveTime)
	}

	for depth := 1; depth <= maxDepth; depth++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		move, score := worker.SearchDepth(depth, -Infinity, Infinity)
		if e.stopFlag.Load() {
			break
		}

		if move != board.NoMove {
			bestMove = move
			bestScore = score
			bestDepth = depth
		}

		if score > MateScore-100 || score < -MateScore+100 {
			break
		}
	}

	pv := worker.GetPV()
	worker.SetExcludedMoves(nil)

	return bestMove, bestScore, pv, bestDepth
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// IsSearching reports whether a search is currently running.
func (e *Engine) IsSearching() bool {
	return e.searching.Load()
}

// Clear clears the transposition table and every worker's move-ordering
// state. It fails with ErrTTInUse if a search is still running; the caller
// must Stop it first.
func (e *Engine) Clear() error {
	if e.searching.Load() {
		return newError(ErrTTInUse, "cannot clear while a search is running")
	}
	e.tt.Clear()
	for _, w := range e.workers {
		w.orderer.Clear()
	}
	return nil
}

// Perft counts leaf nodes at the given depth, for move generator testing.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += e.Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}

	return nodes
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return Evaluate(pos)
}

// ScoreToString converts a centipawn score to a human-readable string,
// reporting mate distances in moves.
func ScoreToString(score int) string {
	if score > MateScore-100 {
		mateIn := (MateScore - score + 1) / 2
		return "Mate in " + itoa(mateIn)
	}
	if score < -MateScore+100 {
		mateIn := (MateScore + score + 1) / 2
		return "Mated in " + itoa(mateIn)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	pawns := score / 100
	centipawns := score % 100

	return sign + itoa(pawns) + "." + itoa(centipawns)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	if n < 0 {
		return "-" + itoa(-n)
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
