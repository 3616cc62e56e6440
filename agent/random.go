package agent

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"chesslab/game"
)

// DefaultTemperature is the softmax temperature of WeightedRandom when
// none is configured.
const DefaultTemperature = 1.0

func newRNG(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewSource(seed))
}

// Random plays a uniformly random legal move. Seed 0 draws a fresh stream
// from the clock; any other seed reproduces the agent's choices exactly.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: newRNG(seed)}
}

func (a *Random) Name() string { return "random" }

func (a *Random) Act(state game.State) (game.Move, error) {
	if state.IsTerminal() {
		return game.Move{}, terminalErr(state)
	}
	moves := state.LegalMoves()
	return moves[a.rng.Intn(len(moves))], nil
}

// WeightedRandom samples moves from a softmax over their one-ply
// evaluation delta: better moves are exponentially more likely, with the
// temperature trading sharpness for variety.
type WeightedRandom struct {
	evaluate    game.Evaluate
	temperature float64
	rng         *rand.Rand
}

func NewWeightedRandom(evaluate game.Evaluate, temperature float64, seed uint64) (*WeightedRandom, error) {
	if evaluate == nil {
		evaluate = game.EvaluateMaterial
	}
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	if temperature < 0 {
		return nil, fmt.Errorf("agent: temperature must be positive, got %v", temperature)
	}
	return &WeightedRandom{
		evaluate:    evaluate,
		temperature: temperature,
		rng:         newRNG(seed),
	}, nil
}

func (a *WeightedRandom) Name() string { return "weighted_random" }

func (a *WeightedRandom) Act(state game.State) (game.Move, error) {
	if state.IsTerminal() {
		return game.Move{}, terminalErr(state)
	}

	moves := state.LegalMoves()
	values := make([]float64, len(moves))
	maxValue := math.Inf(-1)
	for i, move := range moves {
		child, err := state.Apply(move)
		if err != nil {
			return game.Move{}, fmt.Errorf("agent: legal move failed to apply: %w", err)
		}
		// The child is scored for the opponent; negate for the mover.
		values[i] = -a.evaluate(child)
		if values[i] > maxValue {
			maxValue = values[i]
		}
	}

	// Softmax shifted by the max so the exponentials cannot overflow.
	weights := make([]float64, len(moves))
	total := 0.0
	for i, value := range values {
		weights[i] = math.Exp((value - maxValue) / a.temperature)
		total += weights[i]
	}

	target := a.rng.Float64() * total
	for i, weight := range weights {
		target -= weight
		if target <= 0 {
			return moves[i], nil
		}
	}
	return moves[len(moves)-1], nil // rounding left target barely positive
}

// First plays the first legal move in deterministic order. It exists as a
// fully predictable baseline opponent.
type First struct{}

func NewFirst() *First { return &First{} }

func (a *First) Name() string { return "first" }

func (a *First) Act(state game.State) (game.Move, error) {
	if state.IsTerminal() {
		return game.Move{}, terminalErr(state)
	}
	return state.LegalMoves()[0], nil
}
