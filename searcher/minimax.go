package searcher

import (
	"fmt"
	"math"
	"time"

	"chesslab/game"
)

// maxDeepeningDepth caps iterative deepening so a position with a single
// forced line cannot deepen forever inside a generous budget.
const maxDeepeningDepth = 64

// Minimax is a negamax searcher with alpha-beta pruning and optional
// quiescence extension. A fixed depth makes it fully deterministic; a
// duration budget switches it to iterative deepening. Safe to reuse
// across calls, not safe for concurrent Search calls.
type Minimax struct {
	depth      int
	duration   time.Duration
	quiescence int
	evaluate   game.Evaluate
	metrics    Collector
}

// NewMinimax builds a minimax searcher. Give WithDepth for a fixed-depth
// search, WithDuration for iterative deepening, or both to cap the
// deepening; neither defaults to a fixed depth of DefaultDepth.
func NewMinimax(options ...Option) (*Minimax, error) {
	c := defaultConfig()
	for _, option := range options {
		option(&c)
	}

	if c.depth < 0 {
		return nil, fmt.Errorf("minimax: depth must be positive, got %d", c.depth)
	}
	if c.duration < 0 {
		return nil, fmt.Errorf("minimax: duration must be positive, got %v", c.duration)
	}
	if c.depth == 0 && c.duration == 0 {
		c.depth = DefaultDepth
	}

	quiescence := 0
	if c.useQuiesce {
		if c.quiescence < 0 {
			return nil, fmt.Errorf("minimax: quiescence depth must be positive, got %d", c.quiescence)
		}
		quiescence = c.quiescence
		if quiescence == 0 {
			quiescence = DefaultQuiescenceDepth
		}
	}

	return &Minimax{
		depth:      c.depth,
		duration:   c.duration,
		quiescence: quiescence,
		evaluate:   c.evaluate,
		metrics:    c.metrics,
	}, nil
}

// Search finds the best move for the side to move. With a fixed depth the
// whole tree is searched; with a duration budget, depths 1, 2, 3, ... are
// searched in turn and an iteration that outlives the budget is discarded
// wholesale. Some move is always returned while the state has one.
func (m *Minimax) Search(state game.State) (Result, error) {
	if state.IsTerminal() {
		return Result{}, ErrTerminalState
	}

	start := time.Now()
	m.metrics.Start()
	ms := &minimaxSearch{
		evaluate:   m.evaluate,
		quiescence: m.quiescence,
		metrics:    m.metrics,
	}

	var best rootLine
	depth := 0
	if m.duration == 0 {
		best, _ = ms.searchRoot(state, m.depth)
		depth = m.depth
	} else {
		best, depth = ms.deepen(state, m.duration, m.depth)
	}

	m.metrics.SetDepth(depth)
	return Result{
		Move:    best.move,
		Value:   best.value,
		Depth:   depth,
		Nodes:   ms.nodes,
		Elapsed: time.Since(start),
		PV:      best.pv,
	}, nil
}

// deepen runs iterative deepening until the budget elapses. The returned
// line comes from the last fully completed depth; if depth 1 itself does
// not finish, from the root children evaluated so far.
func (ms *minimaxSearch) deepen(state game.State, budget time.Duration, maxDepth int) (rootLine, int) {
	ms.deadline = time.Now().Add(budget)
	if maxDepth <= 0 {
		maxDepth = maxDeepeningDepth
	}

	var best rootLine
	completed := 0
	for depth := 1; depth <= maxDepth; depth++ {
		line, complete := ms.searchRoot(state, depth)
		if !complete {
			// The unfinished iteration is discarded, except as a
			// fallback when not even depth 1 completed.
			if completed == 0 {
				best = line
			}
			break
		}
		best = line
		completed = depth
		if ms.expired() {
			break
		}
	}
	return best, completed
}

type minimaxSearch struct {
	evaluate   game.Evaluate
	quiescence int
	deadline   time.Time // zero means unbounded
	metrics    Collector
	nodes      int64
}

type rootLine struct {
	move  game.Move
	value float64
	pv    []game.Move
}

func (ms *minimaxSearch) expired() bool {
	return !ms.deadline.IsZero() && !time.Now().Before(ms.deadline)
}

// searchRoot evaluates every root move at the given depth. It reports
// whether the iteration completed; an incomplete iteration still returns
// the best move among the children that were fully evaluated.
func (ms *minimaxSearch) searchRoot(state game.State, depth int) (rootLine, bool) {
	ms.nodes++
	ms.metrics.AddNode()

	alpha, beta := math.Inf(-1), math.Inf(1)
	best := rootLine{value: math.Inf(-1)}
	evaluated := 0

	moves := state.LegalMoves()
	for i, move := range moves {
		child, err := state.Apply(move)
		if err != nil {
			panic(fmt.Sprintf("legal move failed to apply: %v", err))
		}
		value, line, ok := ms.negamax(child, depth-1, -beta, -alpha, 1)
		if !ok {
			return best, false
		}
		value = -value
		evaluated++

		// Strict comparison keeps the first move in deterministic order
		// on ties.
		if value > best.value {
			best = rootLine{move: move, value: value, pv: append([]game.Move{move}, line...)}
		}
		if value > alpha {
			alpha = value
		}
		if i+1 < len(moves) && ms.expired() {
			return best, false
		}
	}
	return best, evaluated == len(moves)
}

// negamax returns the value of state for its side to move, in pawn units.
// The bool is false when the deadline expired partway; the partial value
// must then be discarded by the caller.
func (ms *minimaxSearch) negamax(state game.State, depth int, alpha, beta float64, ply int) (float64, []game.Move, bool) {
	ms.nodes++
	ms.metrics.AddNode()

	if state.IsTerminal() {
		return terminalValue(state, ply), nil, true
	}
	if depth == 0 {
		if ms.quiescence > 0 {
			return ms.quiesce(state, alpha, beta, ply, ms.quiescence), nil, true
		}
		return ms.evaluate(state), nil, true
	}

	best := math.Inf(-1)
	var bestLine []game.Move
	for _, move := range state.LegalMoves() {
		child, err := state.Apply(move)
		if err != nil {
			panic(fmt.Sprintf("legal move failed to apply: %v", err))
		}
		value, line, ok := ms.negamax(child, depth-1, -beta, -alpha, ply+1)
		if !ok {
			return 0, nil, false
		}
		value = -value

		if value > best {
			best = value
			bestLine = append([]game.Move{move}, line...)
		}
		if value > alpha {
			alpha = value
		}
		if alpha >= beta {
			break
		}
		if ms.expired() {
			return 0, nil, false
		}
	}
	return best, bestLine, true
}

// quiesce searches only captures and checks below the nominal horizon so
// the evaluation never lands in the middle of an exchange. Stand-pat
// assumes the side to move can do no worse than the static score.
func (ms *minimaxSearch) quiesce(state game.State, alpha, beta float64, ply, depth int) float64 {
	ms.nodes++
	ms.metrics.AddNode()

	if state.IsTerminal() {
		return terminalValue(state, ply)
	}
	standPat := ms.evaluate(state)
	if depth == 0 || standPat >= beta {
		return standPat
	}
	best := standPat
	if standPat > alpha {
		alpha = standPat
	}
	for _, move := range state.NoisyMoves() {
		child, err := state.Apply(move)
		if err != nil {
			panic(fmt.Sprintf("legal move failed to apply: %v", err))
		}
		value := -ms.quiesce(child, -beta, -alpha, ply+1, depth-1)
		if value > best {
			best = value
		}
		if value > alpha {
			alpha = value
		}
		if alpha >= beta {
			break
		}
	}
	return best
}

// terminalValue is the leaf value of a finished game for its side to
// move. Mate scores shrink with distance from the root so the search
// prefers the quickest mate and resists the longest.
func terminalValue(state game.State, ply int) float64 {
	if state.IsCheckmate() {
		return -(game.MateValue - float64(ply))
	}
	return 0
}
