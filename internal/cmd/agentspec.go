package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chesslab/agent"
)

// ParseAgentSpec decodes a command-line agent spec of the form
// kind[:argument]. The argument's meaning depends on the kind: a depth or
// move time for minimax and external, an episode count or move time for
// mcts, a seed for the random variants.
func ParseAgentSpec(spec string) (agent.Config, error) {
	kindName, arg, hasArg := strings.Cut(spec, ":")
	kind, err := agent.ParseKind(kindName)
	if err != nil {
		return agent.Config{}, err
	}
	cfg := agent.Config{Kind: kind}
	if !hasArg {
		return cfg, nil
	}
	if arg == "" {
		return agent.Config{}, fmt.Errorf("agent spec %q has an empty argument", spec)
	}

	switch kind {
	case agent.KindRandom, agent.KindWeightedRandom:
		seed, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return agent.Config{}, fmt.Errorf("agent spec %q: seed must be an unsigned integer", spec)
		}
		cfg.Seed = seed

	case agent.KindMinimax:
		if depth, err := strconv.Atoi(arg); err == nil {
			cfg.Depth = depth
		} else if moveTime, err := time.ParseDuration(arg); err == nil {
			cfg.MoveTime = moveTime
		} else {
			return agent.Config{}, fmt.Errorf("agent spec %q: want a depth or a duration", spec)
		}

	case agent.KindMCTS:
		if episodes, err := strconv.Atoi(arg); err == nil {
			cfg.Episodes = episodes
		} else if moveTime, err := time.ParseDuration(arg); err == nil {
			cfg.MoveTime = moveTime
		} else {
			return agent.Config{}, fmt.Errorf("agent spec %q: want an episode count or a duration", spec)
		}

	case agent.KindExternal:
		cfg.Engine.Cmd = arg

	default:
		return agent.Config{}, fmt.Errorf("agent spec %q: kind %s takes no argument", spec, kind)
	}
	return cfg, nil
}
