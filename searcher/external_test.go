package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chesslab/game"
)

func TestParseBestMove(t *testing.T) {
	t.Run("plain reply", func(t *testing.T) {
		move, err := parseBestMove("bestmove e2e4")
		require.NoError(t, err)
		require.Equal(t, "e2e4", move.UCI())
	})

	t.Run("reply with ponder move", func(t *testing.T) {
		move, err := parseBestMove("bestmove g1f3 ponder b8c6")
		require.NoError(t, err)
		require.Equal(t, "g1f3", move.UCI())
	})

	t.Run("promotion encoding", func(t *testing.T) {
		move, err := parseBestMove("bestmove e7e8q")
		require.NoError(t, err)
		require.Equal(t, game.Move{From: "e7", To: "e8", Promotion: "q"}, move)
	})

	t.Run("malformed replies fail", func(t *testing.T) {
		for _, line := range []string{"", "bestmove", "bestmove zz9x", "info depth 5"} {
			_, err := parseBestMove(line)
			require.Error(t, err, "line %q should not parse", line)
		}
	})

	t.Run("no move available fails", func(t *testing.T) {
		_, err := parseBestMove("bestmove (none)")
		require.Error(t, err)
	})
}

func TestParseInfo(t *testing.T) {
	t.Run("centipawn score line", func(t *testing.T) {
		info, ok := parseInfo("info depth 12 seldepth 17 multipv 1 score cp 35 nodes 135724 nps 1234567 pv e2e4 e7e5 g1f3")
		require.True(t, ok)
		require.Equal(t, 12, info.depth)
		require.Equal(t, 1, info.multipv)
		require.Equal(t, int64(135724), info.nodes)
		require.True(t, info.hasCP)
		require.Equal(t, 35, info.cp)
		require.Len(t, info.pv, 3)
		require.Equal(t, "e2e4", info.pv[0].UCI())
	})

	t.Run("mate score line", func(t *testing.T) {
		info, ok := parseInfo("info depth 20 score mate 3 pv d1h5")
		require.True(t, ok)
		require.True(t, info.hasMate)
		require.Equal(t, 3, info.mate)
	})

	t.Run("multipv rank is kept", func(t *testing.T) {
		info, ok := parseInfo("info depth 10 multipv 2 score cp -14 pv d2d4")
		require.True(t, ok)
		require.Equal(t, 2, info.multipv)
	})

	t.Run("unscored lines are skipped", func(t *testing.T) {
		for _, line := range []string{
			"info string NNUE evaluation enabled",
			"info currmove e2e4 currmovenumber 1",
			"readyok",
		} {
			_, ok := parseInfo(line)
			require.False(t, ok, "line %q should not count as a scored info", line)
		}
	})
}

func TestEngineInfoPawns(t *testing.T) {
	t.Run("centipawns scale to pawn units", func(t *testing.T) {
		require.Equal(t, 0.35, engineInfo{cp: 35, hasCP: true}.pawns())
		require.Equal(t, -1.2, engineInfo{cp: -120, hasCP: true}.pawns())
	})

	t.Run("mate in N maps to the bounded sentinel", func(t *testing.T) {
		require.Equal(t, game.MateValue-3, engineInfo{mate: 3, hasMate: true}.pawns())
		require.Equal(t, -(game.MateValue - 2), engineInfo{mate: -2, hasMate: true}.pawns())
	})
}

func TestLastInfo(t *testing.T) {
	infos := []engineInfo{
		{depth: 1, multipv: 1, cp: 10, hasCP: true},
		{depth: 1, multipv: 2, cp: 5, hasCP: true},
		{depth: 2, multipv: 1, cp: 20, hasCP: true},
		{depth: 2, multipv: 2, cp: 8, hasCP: true},
	}

	t.Run("returns the deepest line per rank", func(t *testing.T) {
		first, ok := lastInfo(infos, 1)
		require.True(t, ok)
		require.Equal(t, 20, first.cp)

		second, ok := lastInfo(infos, 2)
		require.True(t, ok)
		require.Equal(t, 8, second.cp)
	})

	t.Run("missing rank reports absence", func(t *testing.T) {
		_, ok := lastInfo(infos, 3)
		require.False(t, ok)
	})
}

func TestPositionCommand(t *testing.T) {
	t.Run("bare position without history", func(t *testing.T) {
		s, err := game.StateFromFEN(mateInOneFEN)
		require.NoError(t, err)

		require.Equal(t, "position fen "+mateInOneFEN, positionCommand(s))
	})

	t.Run("history is replayed from the starting encoding", func(t *testing.T) {
		s := game.NewState()
		s, err := s.Apply(game.Move{From: "e2", To: "e4"})
		require.NoError(t, err)
		s, err = s.Apply(game.Move{From: "e7", To: "e5"})
		require.NoError(t, err)

		require.Equal(t,
			"position fen "+game.StartFEN+" moves e2e4 e7e5",
			positionCommand(s))
	})

	t.Run("a restored state with an unanchored history sends the bare FEN", func(t *testing.T) {
		s := game.NewState()
		s, err := s.Apply(game.Move{From: "e2", To: "e4"})
		require.NoError(t, err)
		s, err = s.Apply(game.Move{From: "e7", To: "e5"})
		require.NoError(t, err)

		restored, err := game.StateFromDict(s.ToDict())
		require.NoError(t, err)

		// The dict carries the history but anchors the state at its own
		// encoding; replaying the moves from there would be nonsense.
		require.Equal(t, "position fen "+s.FEN(), positionCommand(restored))
	})
}
