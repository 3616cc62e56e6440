// Package cmd wires the chesslab command line interface.
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version is stamped at build time.
var Version = "0.1.0"

func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "chesslab",
		Short: "Play, benchmark and record chess games between interchangeable agents",
		Args:  cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			if cmd.Flag("verbose").Changed {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "log engine traffic and per-game detail")

	root.AddCommand(Play())
	root.AddCommand(SelfPlay())
	root.AddCommand(Tournament())
	root.AddCommand(VersionCmd())

	return root
}

func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the chesslab version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("chesslab " + Version)
		},
	}
}
