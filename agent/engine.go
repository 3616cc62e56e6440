package agent

import (
	"fmt"

	"chesslab/game"
	"chesslab/searcher"
	"chesslab/uci"
)

// Engine delegates move choice to a searcher. A searcher error on a
// playable position is an internal invariant violation and is propagated,
// never papered over with a substitute move.
type Engine struct {
	name     string
	searcher searcher.Searcher
}

func NewEngine(name string, s searcher.Searcher) (*Engine, error) {
	if name == "" {
		return nil, fmt.Errorf("agent: engine agent needs a name")
	}
	if s == nil {
		return nil, fmt.Errorf("agent: engine agent needs a searcher")
	}
	return &Engine{name: name, searcher: s}, nil
}

func (a *Engine) Name() string { return a.name }

func (a *Engine) Act(state game.State) (game.Move, error) {
	if state.IsTerminal() {
		return game.Move{}, terminalErr(state)
	}
	result, err := a.searcher.Search(state)
	if err != nil {
		return game.Move{}, fmt.Errorf("agent %s: %w", a.name, err)
	}
	return result.Move, nil
}

// ExternalEngine is an Engine over a UCI engine process, with the
// process-facing knobs passed through. It owns the process: Close it, and
// never share one instance across concurrently running games.
type ExternalEngine struct {
	Engine
	external *searcher.External
}

func NewExternalEngine(cfg uci.Config, options ...searcher.Option) (*ExternalEngine, error) {
	external, err := searcher.NewExternal(cfg, options...)
	if err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = "external"
	}
	return &ExternalEngine{
		Engine:   Engine{name: name, searcher: external},
		external: external,
	}, nil
}

// SetSkillLevel renegotiates the engine's strength, clamped to 0-20.
func (a *ExternalEngine) SetSkillLevel(level int) error {
	return a.external.SetSkillLevel(level)
}

// Evaluate exposes the engine's position analysis in pawn units.
func (a *ExternalEngine) Evaluate(state game.State) (float64, error) {
	return a.external.Evaluate(state)
}

// Close releases the engine process.
func (a *ExternalEngine) Close() error {
	return a.external.Close()
}
