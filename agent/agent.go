// Package agent turns positions into moves. An Agent may be a bare
// heuristic or wrap a searcher; every variant re-checks for a terminal
// state defensively and is reusable across calls, with no hidden state
// beyond its random stream.
package agent

import (
	"errors"
	"fmt"

	"chesslab/game"
)

// Agent chooses a move in a position.
type Agent interface {
	Name() string
	Act(state game.State) (game.Move, error)
}

// ErrNoLegalMove reports Act on a terminal state. Callers are expected to
// check IsTerminal before asking an agent to move.
var ErrNoLegalMove = errors.New("agent: no legal move in terminal state")

func terminalErr(state game.State) error {
	return fmt.Errorf("%w: position %q", ErrNoLegalMove, state.FEN())
}

// Named overrides an agent's name, e.g. to tell two otherwise identical
// agents apart in a tournament.
func Named(name string, a Agent) Agent {
	return named{name: name, Agent: a}
}

type named struct {
	Agent
	name string
}

func (n named) Name() string { return n.name }
