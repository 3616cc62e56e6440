package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"chesslab/agent"
	"chesslab/match"
	"chesslab/record"
)

func Play() *cobra.Command {
	var (
		whiteSpec string
		blackSpec string
		games     int
		maxPlies  int
		startFEN  string
		out       string
	)

	play := &cobra.Command{
		Use:   "play",
		Short: "Play games between two agents",
		Long: heredoc.Doc(`
			Play runs a batch of games between two agents, alternating
			colors between games, and writes the finalized records as
			JSON.

			Agents are given as kind[:argument] specs:

			  random[:seed]           uniformly random legal moves
			  weighted_random[:seed]  softmax over one-ply evaluation
			  first                   first legal move, fully predictable
			  minimax[:depth|time]    alpha-beta search
			  mcts[:episodes|time]    Monte-Carlo tree search
			  external[:command]      a UCI engine process
		`),
		Example: heredoc.Doc(`
			chesslab play --white minimax:3 --black random --games 10
			chesslab play --white mcts:500ms --black external:stockfish
		`),
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			white, black, err := buildPair(whiteSpec, blackSpec)
			if err != nil {
				return err
			}
			defer closeIfOwned(white, black)

			var runner []match.RunnerOption
			if maxPlies > 0 {
				runner = append(runner, match.WithMaxPlies(maxPlies))
			}
			if startFEN != "" {
				runner = append(runner, match.WithStartFEN(startFEN))
			}

			batch, err := match.RunMatch(white, black, games, match.WithRunnerOptions(runner...))
			if err != nil {
				return err
			}

			cmd.Print(match.NewStandings(batch).String())
			return writeBatch(cmd, batch, out, "play")
		},
	}

	play.Flags().StringVar(&whiteSpec, "white", "random", "agent spec for the first seat")
	play.Flags().StringVar(&blackSpec, "black", "random", "agent spec for the second seat")
	play.Flags().IntVar(&games, "games", 1, "number of games to play")
	play.Flags().IntVar(&maxPlies, "max-plies", 0, "draw adjudication bound in half-moves")
	play.Flags().StringVar(&startFEN, "fen", "", "starting position, standard when empty")
	play.Flags().StringVar(&out, "out", "", "record output path, under the user data dir when empty")

	return play
}

// buildPair constructs both agents, disambiguating equal names so the
// records and standings can tell the seats apart.
func buildPair(whiteSpec, blackSpec string) (agent.Agent, agent.Agent, error) {
	whiteCfg, err := ParseAgentSpec(whiteSpec)
	if err != nil {
		return nil, nil, err
	}
	blackCfg, err := ParseAgentSpec(blackSpec)
	if err != nil {
		return nil, nil, err
	}
	white, err := agent.New(whiteCfg)
	if err != nil {
		return nil, nil, err
	}
	black, err := agent.New(blackCfg)
	if err != nil {
		closeIfOwned(white)
		return nil, nil, err
	}
	if white.Name() == black.Name() {
		white = agent.Named(white.Name()+"-1", white)
		black = agent.Named(black.Name()+"-2", black)
	}
	return white, black, nil
}

func closeIfOwned(agents ...agent.Agent) {
	for _, a := range agents {
		if closer, ok := a.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
}

// writeBatch saves the records as JSON, defaulting to a timestamped file
// under the user's data directory.
func writeBatch(cmd *cobra.Command, batch *record.Batch, out, prefix string) error {
	if out == "" {
		name := fmt.Sprintf("chesslab/records/%s-%s.json", prefix, time.Now().Format("20060102-150405"))
		path, err := xdg.DataFile(name)
		if err != nil {
			return fmt.Errorf("resolve record path: %w", err)
		}
		out = path
	} else if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create record dir: %w", err)
		}
	}

	data, err := batch.ToJSON()
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	cmd.Printf("wrote %d records to %s\n", batch.Len(), out)
	return nil
}
