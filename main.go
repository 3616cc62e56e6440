package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"chesslab/internal/cmd"
)

func main() {
	root := cmd.Root()
	root.SetArgs(os.Args[1:])
	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("chesslab failed")
	}
}
