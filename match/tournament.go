package match

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"chesslab/agent"
	"chesslab/record"
)

// TournamentConfig is the file-configurable shape of a tournament, read
// from YAML by the CLI.
type TournamentConfig struct {
	Agents      []agent.Config `yaml:"agents"`
	Rounds      int            `yaml:"rounds"`
	Concurrency int            `yaml:"concurrency"`
	MaxPlies    int            `yaml:"max-plies"`
	StartFEN    string         `yaml:"start-fen"`
}

// Options translates the file configuration into batch options.
func (c TournamentConfig) Options() []BatchOption {
	var options []BatchOption
	if c.Concurrency > 0 {
		options = append(options, WithConcurrency(c.Concurrency))
	}
	var runner []RunnerOption
	if c.MaxPlies > 0 {
		runner = append(runner, WithMaxPlies(c.MaxPlies))
	}
	if c.StartFEN != "" {
		runner = append(runner, WithStartFEN(c.StartFEN))
	}
	if len(runner) > 0 {
		options = append(options, WithRunnerOptions(runner...))
	}
	return options
}

// Factories builds one agent factory per configured entry.
func (c TournamentConfig) Factories() ([]AgentFactory, error) {
	if len(c.Agents) < 2 {
		return nil, fmt.Errorf("match: a tournament needs at least two agents, got %d", len(c.Agents))
	}
	factories := make([]AgentFactory, len(c.Agents))
	for i, cfg := range c.Agents {
		cfg := cfg
		// Probe the configuration now so a typo fails before any game.
		probe, err := agent.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("match: agent %d: %w", i+1, err)
		}
		closeAgents(probe)
		factories[i] = func() (agent.Agent, error) { return agent.New(cfg) }
	}
	return factories, nil
}

// encounter is one scheduled game between two seats.
type encounter struct {
	index int
	white int
	black int
}

// roundRobin schedules every pairing of n seats, rounds times, swapping
// colors between repetitions of the same pairing.
func roundRobin(n, rounds int) []encounter {
	var schedule []encounter
	for round := 0; round < rounds; round++ {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				white, black := i, j
				if round%2 == 1 {
					white, black = black, white
				}
				schedule = append(schedule, encounter{index: len(schedule), white: white, black: black})
			}
		}
	}
	return schedule
}

// RunTournament plays a round-robin between the given agents, rounds
// repetitions per pairing with color alternation, and returns the batch
// with the final standings. Sequential: the agents are shared across all
// their games. Use RunTournamentFactories for parallel execution.
func RunTournament(agents []agent.Agent, rounds int, options ...BatchOption) (*record.Batch, *Standings, error) {
	factories := make([]AgentFactory, len(agents))
	for i, a := range agents {
		factories[i] = Reuse(a)
	}
	options = append(options, WithConcurrency(1))
	return RunTournamentFactories(factories, rounds, options...)
}

// RunTournamentFactories is RunTournament over agent factories: each
// worker goroutine builds its own instances, so games parallelize without
// sharing a searcher or an engine process across concurrent games.
func RunTournamentFactories(factories []AgentFactory, rounds int, options ...BatchOption) (*record.Batch, *Standings, error) {
	if len(factories) < 2 {
		return nil, nil, fmt.Errorf("match: a tournament needs at least two agents, got %d", len(factories))
	}
	if rounds <= 0 {
		return nil, nil, fmt.Errorf("match: rounds must be positive, got %d", rounds)
	}
	c := newBatchConfig(options)
	runner := NewRunner(c.runner...)
	schedule := roundRobin(len(factories), rounds)

	records := make([]*record.GameRecord, len(schedule))
	jobs := make(chan encounter)
	group, ctx := errgroup.WithContext(context.Background())
	for worker := 0; worker < c.concurrency; worker++ {
		group.Go(func() error {
			// Each worker owns one instance per seat, reused across its
			// games and released when the worker drains.
			seats := make(map[int]agent.Agent, len(factories))
			defer func() {
				for _, a := range seats {
					closeAgents(a)
				}
			}()

			for job := range jobs {
				white, err := seatAgent(seats, factories, job.white)
				if err != nil {
					return err
				}
				black, err := seatAgent(seats, factories, job.black)
				if err != nil {
					return err
				}
				records[job.index] = runner.Run(white, black)
			}
			return nil
		})
	}

feed:
	for _, job := range schedule {
		select {
		case jobs <- job:
		case <-ctx.Done(): // a worker failed; stop feeding
			break feed
		}
	}
	close(jobs)
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	batch := record.NewBatch(records...)
	return batch, NewStandings(batch), nil
}

func seatAgent(seats map[int]agent.Agent, factories []AgentFactory, seat int) (agent.Agent, error) {
	if a, ok := seats[seat]; ok {
		return a, nil
	}
	a, err := factories[seat]()
	if err != nil {
		return nil, fmt.Errorf("match: seat %d: %w", seat+1, err)
	}
	seats[seat] = a
	return a, nil
}
