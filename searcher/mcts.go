package searcher

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"chesslab/game"
)

// MCTS is a Monte-Carlo tree searcher using UCT selection, single-child
// expansion, bounded random rollouts and sign-alternating backpropagation.
// The simulation loop is single-goroutine so a fixed seed reproduces the
// search exactly; parallelism belongs across games, not inside one.
type MCTS struct {
	episodes    int
	duration    time.Duration
	rollout     int
	exploration float64
	evaluate    game.Evaluate
	evalRollout bool
	metrics     Collector
	rng         *rand.Rand
}

// NewMCTS builds an MCTS searcher. Give WithEpisodes for a simulation
// budget or WithDuration for a time budget; neither defaults to
// DefaultEpisodes simulations.
func NewMCTS(options ...Option) (*MCTS, error) {
	c := defaultConfig()
	for _, option := range options {
		option(&c)
	}

	if c.episodes < 0 {
		return nil, fmt.Errorf("mcts: episodes must be positive, got %d", c.episodes)
	}
	if c.duration < 0 {
		return nil, fmt.Errorf("mcts: duration must be positive, got %v", c.duration)
	}
	if c.episodes == 0 && c.duration == 0 {
		c.episodes = DefaultEpisodes
	}
	if c.rollout <= 0 {
		return nil, fmt.Errorf("mcts: rollout depth must be positive, got %d", c.rollout)
	}
	if c.exploration < 0 {
		return nil, fmt.Errorf("mcts: exploration weight must be >= 0, got %v", c.exploration)
	}

	seed := c.seed
	if !c.seeded {
		seed = uint64(time.Now().UnixNano())
	}

	return &MCTS{
		episodes:    c.episodes,
		duration:    c.duration,
		rollout:     c.rollout,
		exploration: c.exploration,
		evaluate:    c.evaluate,
		evalRollout: c.evalRollout,
		metrics:     c.metrics,
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// Search runs simulations from the given state until the budget is spent
// and returns the robust child: most visits, ties broken by mean value
// and then creation order. Result.Nodes counts simulations.
func (m *MCTS) Search(state game.State) (Result, error) {
	if state.IsTerminal() {
		return Result{}, ErrTerminalState
	}

	start := time.Now()
	m.metrics.Start()
	root := newNode(nil, game.Move{}, state)

	// A forced move needs no statistics, just the bookkeeping of a
	// single simulation.
	episodes := m.episodes
	if len(root.untried) == 1 {
		episodes = 1
	}

	simulations := int64(0)
	if episodes > 0 {
		for i := 0; i < episodes; i++ {
			m.simulate(root, state)
			simulations++
			m.metrics.AddEpisode()
		}
	} else {
		// The first simulation runs unconditionally so a budget smaller
		// than one simulation still expands a root child.
		deadline := start.Add(m.duration)
		for {
			m.simulate(root, state)
			simulations++
			m.metrics.AddEpisode()
			if !time.Now().Before(deadline) {
				break
			}
		}
	}

	best := root.bestChild()
	if best == nil {
		panic("mcts: no child expanded for a non-terminal root")
	}
	return Result{
		Move:    best.move,
		Value:   best.mean(),
		Nodes:   simulations,
		Elapsed: time.Since(start),
		PV:      principalVariation(best),
	}, nil
}

// simulate runs one selection, expansion, rollout and backpropagation
// pass from the root.
func (m *MCTS) simulate(root *node, rootState game.State) {
	current, state := root, rootState

	// Selection: descend through fully expanded nodes by UCT score.
	for !state.IsTerminal() && !current.expandable() {
		current = current.selectChild(m.exploration)
		next, err := state.Apply(current.move)
		if err != nil {
			panic("tree move is not legal: " + err.Error())
		}
		state = next
	}

	// Expansion: materialize exactly one untried move.
	if !state.IsTerminal() && current.expandable() {
		index := 0
		if len(current.untried) > 1 {
			index = m.rng.Intn(len(current.untried))
		}
		current, state = current.expand(index, state)
	}

	current.backup(m.playout(state))
}

// playout plays uniformly random moves from state until the game ends or
// the rollout depth is reached, returning a reward in [-1, 1] from the
// perspective of the side to move in state.
func (m *MCTS) playout(state game.State) float64 {
	sign := 1.0
	for depth := 0; depth < m.rollout; depth++ {
		if state.IsTerminal() {
			m.metrics.AddFullPlayout()
			return sign * terminalReward(state)
		}
		moves := state.LegalMoves()
		next, err := state.Apply(moves[m.rng.Intn(len(moves))])
		if err != nil {
			panic("legal move failed to apply: " + err.Error())
		}
		state = next
		sign = -sign
	}

	if state.IsTerminal() {
		m.metrics.AddFullPlayout()
		return sign * terminalReward(state)
	}
	if m.evalRollout {
		// Substitute the evaluation for the unfinished playout,
		// squashed onto the reward scale.
		return sign * clamp(m.evaluate(state)/game.MateValue, -1, 1)
	}
	return 0
}

// terminalReward scores a finished game for its side to move: a mated
// side sees -1, every draw 0.
func terminalReward(state game.State) float64 {
	if state.IsCheckmate() {
		return -1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// principalVariation follows robust children from the chosen move down to
// a leaf.
func principalVariation(best *node) []game.Move {
	pv := []game.Move{best.move}
	for current := best.bestChild(); current != nil; current = current.bestChild() {
		pv = append(pv, current.move)
	}
	return pv
}
