package agent

import (
	"fmt"
	"time"

	"chesslab/game"
	"chesslab/searcher"
	"chesslab/uci"
)

// Kind enumerates the agent variants the factory can build. The set is
// static: there is no runtime registration.
type Kind string

const (
	KindRandom         Kind = "random"
	KindWeightedRandom Kind = "weighted_random"
	KindFirst          Kind = "first"
	KindMinimax        Kind = "minimax"
	KindMCTS           Kind = "mcts"
	KindExternal       Kind = "external"
)

// Kinds lists every buildable kind.
func Kinds() []Kind {
	return []Kind{KindRandom, KindWeightedRandom, KindFirst, KindMinimax, KindMCTS, KindExternal}
}

// ParseKind resolves a kind name.
func ParseKind(s string) (Kind, error) {
	for _, kind := range Kinds() {
		if s == string(kind) {
			return kind, nil
		}
	}
	return "", fmt.Errorf("agent: unknown kind %q", s)
}

// Config describes one agent. Zero fields fall back to the defaults of
// the underlying variant; only the fields the Kind uses are read.
type Config struct {
	Kind Kind   `yaml:"kind"`
	Name string `yaml:"name"`

	Seed        uint64        `yaml:"seed"`
	Temperature float64       `yaml:"temperature"`
	Depth       int           `yaml:"depth"`
	MoveTime    time.Duration `yaml:"move-time"`
	Quiescence  bool          `yaml:"quiescence"`
	Episodes    int           `yaml:"episodes"`
	Exploration float64       `yaml:"exploration"`

	Engine uci.Config `yaml:"engine"` // KindExternal only
}

// New builds an agent from its configuration.
func New(cfg Config) (Agent, error) {
	switch cfg.Kind {
	case KindRandom:
		return NewRandom(cfg.Seed), nil

	case KindWeightedRandom:
		return NewWeightedRandom(game.EvaluateMaterial, cfg.Temperature, cfg.Seed)

	case KindFirst:
		return NewFirst(), nil

	case KindMinimax:
		options := []searcher.Option{}
		if cfg.Depth > 0 {
			options = append(options, searcher.WithDepth(cfg.Depth))
		}
		if cfg.MoveTime > 0 {
			options = append(options, searcher.WithDuration(cfg.MoveTime))
		}
		if cfg.Quiescence {
			options = append(options, searcher.WithQuiescence(0))
		}
		minimax, err := searcher.NewMinimax(options...)
		if err != nil {
			return nil, err
		}
		return NewEngine(name(cfg), minimax)

	case KindMCTS:
		options := []searcher.Option{}
		if cfg.Episodes > 0 {
			options = append(options, searcher.WithEpisodes(cfg.Episodes))
		}
		if cfg.MoveTime > 0 {
			options = append(options, searcher.WithDuration(cfg.MoveTime))
		}
		if cfg.Exploration > 0 {
			options = append(options, searcher.WithExploration(cfg.Exploration))
		}
		if cfg.Seed > 0 {
			options = append(options, searcher.WithSeed(cfg.Seed))
		}
		mcts, err := searcher.NewMCTS(options...)
		if err != nil {
			return nil, err
		}
		return NewEngine(name(cfg), mcts)

	case KindExternal:
		options := []searcher.Option{}
		if cfg.Depth > 0 {
			options = append(options, searcher.WithDepth(cfg.Depth))
		}
		if cfg.MoveTime > 0 {
			options = append(options, searcher.WithDuration(cfg.MoveTime))
		}
		engineCfg := cfg.Engine
		if engineCfg.Name == "" {
			engineCfg.Name = name(cfg)
		}
		return NewExternalEngine(engineCfg, options...)
	}
	return nil, fmt.Errorf("agent: unknown kind %q", cfg.Kind)
}

func name(cfg Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return string(cfg.Kind)
}
