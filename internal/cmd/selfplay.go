package cmd

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"chesslab/agent"
	"chesslab/match"
)

func SelfPlay() *cobra.Command {
	var (
		spec        string
		games       int
		concurrency int
		maxPlies    int
		out         string
	)

	selfplay := &cobra.Command{
		Use:   "selfplay",
		Short: "Have an agent play both sides of many games",
		Long: heredoc.Doc(`
			Selfplay builds a fresh pair of agent instances per game, so
			every game has independent randomness, and runs games in
			parallel up to the configured concurrency. The records are a
			natural input to a training pipeline.
		`),
		Example: heredoc.Doc(`
			chesslab selfplay --agent mcts --games 100 --out records.json
			chesslab selfplay --agent random:7 --games 1000 --concurrency 8
		`),
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ParseAgentSpec(spec)
			if err != nil {
				return err
			}
			factory := func() (agent.Agent, error) { return agent.New(cfg) }

			options := []match.BatchOption{match.WithConcurrency(concurrency)}
			if maxPlies > 0 {
				options = append(options, match.WithRunnerOptions(match.WithMaxPlies(maxPlies)))
			}

			batch, err := match.RunSelfPlay(factory, games, options...)
			if err != nil {
				return err
			}
			return writeBatch(cmd, batch, out, "selfplay")
		},
	}

	selfplay.Flags().StringVar(&spec, "agent", "random", "agent spec for both sides")
	selfplay.Flags().IntVar(&games, "games", 1, "number of games to play")
	selfplay.Flags().IntVar(&concurrency, "concurrency", 1, "games run in parallel")
	selfplay.Flags().IntVar(&maxPlies, "max-plies", 0, "draw adjudication bound in half-moves")
	selfplay.Flags().StringVar(&out, "out", "", "record output path, under the user data dir when empty")

	return selfplay
}
