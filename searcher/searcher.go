// Package searcher finds moves. Minimax (alpha-beta with quiescence),
// MCTS (UCT) and External (a UCI engine process) all implement Searcher
// and are configured through the same functional options.
package searcher

import (
	"errors"
	"time"

	"chesslab/game"
)

// Searcher finds the best move in a position under a configured budget.
type Searcher interface {
	Search(state game.State) (Result, error)
}

// Result is the outcome of one search.
type Result struct {
	Move    game.Move
	Value   float64 // pawn units (Minimax, External) or mean reward (MCTS)
	Depth   int
	Nodes   int64
	Elapsed time.Duration
	PV      []game.Move
}

// ErrTerminalState is returned by Search on a finished game. Callers are
// expected to check IsTerminal before asking for a move.
var ErrTerminalState = errors.New("searcher: no move in terminal state")

// Defaults applied by the constructors when no option overrides them.
const (
	DefaultDepth            = 3
	DefaultEpisodes         = 1000
	DefaultRolloutDepth     = 10
	DefaultQuiescenceDepth  = 4
	DefaultExploration      = 1.4142135623730951 // sqrt(2)
	DefaultEngineMoveTime   = time.Second
	DefaultEngineEvalDepth  = 12
	DefaultEngineReadBudget = 30 * time.Second
)

type config struct {
	depth       int
	duration    time.Duration
	quiescence  int  // extra plies of capture/check search below depth 0
	useQuiesce  bool // distinguishes "off" from "default depth"
	episodes    int
	rollout     int
	exploration float64
	seed        uint64
	seeded      bool
	evaluate    game.Evaluate
	evalRollout bool
	metrics     Collector
}

func defaultConfig() config {
	return config{
		rollout:     DefaultRolloutDepth,
		exploration: DefaultExploration,
		evaluate:    game.EvaluateMaterial,
		metrics:     NewNoCollector(),
	}
}

// Option configures a searcher. Options that do not apply to the engine
// being constructed are ignored; invalid values are rejected at New time.
type Option func(*config)

// WithDepth fixes the search depth in plies.
func WithDepth(depth int) Option {
	return func(c *config) { c.depth = depth }
}

// WithDuration sets a soft time budget. Minimax runs iterative deepening
// under it; MCTS and External treat it as their move time.
func WithDuration(duration time.Duration) Option {
	return func(c *config) { c.duration = duration }
}

// WithQuiescence extends Minimax leaf evaluation with up to extra plies
// of capture and check search.
func WithQuiescence(extra int) Option {
	return func(c *config) {
		c.useQuiesce = true
		c.quiescence = extra
	}
}

// WithEpisodes sets the MCTS simulation budget.
func WithEpisodes(episodes int) Option {
	return func(c *config) { c.episodes = episodes }
}

// WithRolloutDepth bounds MCTS rollouts to the given number of plies.
func WithRolloutDepth(depth int) Option {
	return func(c *config) { c.rollout = depth }
}

// WithExploration sets the UCT exploration weight.
func WithExploration(weight float64) Option {
	return func(c *config) { c.exploration = weight }
}

// WithSeed makes stochastic searchers reproducible.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
		c.seeded = true
	}
}

// WithEvaluationFn replaces the default material evaluation.
func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(c *config) {
		if evaluate != nil {
			c.evaluate = evaluate
		}
	}
}

// WithEvaluationRollout makes MCTS score cutoff rollouts with the
// evaluation function instead of treating them as draws.
func WithEvaluationRollout() Option {
	return func(c *config) { c.evalRollout = true }
}

// WithMetrics installs a collector recording nodes, episodes and timing.
func WithMetrics(collector Collector) Option {
	return func(c *config) {
		if collector != nil {
			c.metrics = collector
		}
	}
}
