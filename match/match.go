package match

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"chesslab/agent"
	"chesslab/record"
)

// AgentFactory builds a fresh agent instance. Parallel runners call it
// once per worker so no agent is shared across concurrent games.
type AgentFactory func() (agent.Agent, error)

// Reuse wraps an existing agent as a factory returning that instance.
// Only safe with sequential execution.
func Reuse(a agent.Agent) AgentFactory {
	return func() (agent.Agent, error) { return a, nil }
}

type batchConfig struct {
	runner      []RunnerOption
	alternate   bool
	concurrency int
}

// BatchOption configures RunMatch, RunTournament and RunSelfPlay.
type BatchOption func(*batchConfig)

// WithRunnerOptions forwards options to the per-game runner.
func WithRunnerOptions(options ...RunnerOption) BatchOption {
	return func(c *batchConfig) {
		c.runner = append(c.runner, options...)
	}
}

// WithoutAlternation keeps the first agent on White for every game.
func WithoutAlternation() BatchOption {
	return func(c *batchConfig) { c.alternate = false }
}

// WithConcurrency runs up to n games in parallel where the entry point
// supports it. Factories are then mandatory: each worker builds its own
// agents.
func WithConcurrency(n int) BatchOption {
	return func(c *batchConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func newBatchConfig(options []BatchOption) batchConfig {
	c := batchConfig{alternate: true, concurrency: 1}
	for _, option := range options {
		option(&c)
	}
	return c
}

// RunMatch plays the given number of independent games between two
// agents, alternating colors per game unless WithoutAlternation is given,
// and returns the finalized records as a batch.
func RunMatch(white, black agent.Agent, games int, options ...BatchOption) (*record.Batch, error) {
	if games <= 0 {
		return nil, fmt.Errorf("match: games must be positive, got %d", games)
	}
	c := newBatchConfig(options)
	runner := NewRunner(c.runner...)

	batch := record.NewBatch()
	for i := 0; i < games; i++ {
		w, b := white, black
		if c.alternate && i%2 == 1 {
			w, b = black, white
		}
		batch.Add(runner.Run(w, b))
	}
	return batch, nil
}

// RunSelfPlay has agents from the factory play both sides of the given
// number of games, each game with independent instances and randomness.
// Games run in parallel up to the configured concurrency.
func RunSelfPlay(factory AgentFactory, games int, options ...BatchOption) (*record.Batch, error) {
	if games <= 0 {
		return nil, fmt.Errorf("match: games must be positive, got %d", games)
	}
	c := newBatchConfig(options)
	runner := NewRunner(c.runner...)

	records := make([]*record.GameRecord, games)
	group, _ := errgroup.WithContext(context.Background())
	group.SetLimit(c.concurrency)
	for i := 0; i < games; i++ {
		game := i
		group.Go(func() error {
			white, err := factory()
			if err != nil {
				return fmt.Errorf("match: self-play game %d: %w", game+1, err)
			}
			black, err := factory()
			if err != nil {
				return fmt.Errorf("match: self-play game %d: %w", game+1, err)
			}
			defer closeAgents(white, black)

			records[game] = runner.Run(white, black)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return record.NewBatch(records...), nil
}

// closeAgents releases agents that own a process.
func closeAgents(agents ...agent.Agent) {
	for _, a := range agents {
		if closer, ok := a.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
}
