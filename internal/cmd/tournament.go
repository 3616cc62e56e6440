package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"chesslab/match"
)

func Tournament() *cobra.Command {
	var out string

	tournament := &cobra.Command{
		Use:   "tournament config-file",
		Short: "Run a round-robin tournament from a YAML configuration",
		Long: heredoc.Doc(`
			Tournament reads a YAML file describing the contestants and
			schedule, plays every pairing the configured number of
			rounds with color alternation, and prints the final
			standings with Elo estimates.

			A configuration looks like:

			  rounds: 10
			  concurrency: 4
			  max-plies: 300
			  agents:
			    - kind: minimax
			      name: ab-3
			      depth: 3
			      quiescence: true
			    - kind: mcts
			      name: uct-1k
			      episodes: 1000
			    - kind: random
		`),
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read tournament config: %w", err)
			}
			var cfg match.TournamentConfig
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return fmt.Errorf("parse tournament config: %w", err)
			}
			if cfg.Rounds <= 0 {
				cfg.Rounds = 1
			}
			factories, err := cfg.Factories()
			if err != nil {
				return err
			}

			progress := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
				spinner.WithWriter(cmd.ErrOrStderr()))
			progress.Suffix = fmt.Sprintf(" running %d-agent tournament, %d rounds", len(factories), cfg.Rounds)
			progress.Start()
			batch, standings, err := match.RunTournamentFactories(factories, cfg.Rounds, cfg.Options()...)
			progress.Stop()
			if err != nil {
				return err
			}

			cmd.Print(standings.String())
			return writeBatch(cmd, batch, out, "tournament")
		},
	}

	tournament.Flags().StringVar(&out, "out", "", "record output path, under the user data dir when empty")

	return tournament
}
