package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chesslab/game"
)

func TestGameRecordLifecycle(t *testing.T) {
	t.Run("records are append-only until finalized", func(t *testing.T) {
		r := New("alice", "bob", "")

		require.NoError(t, r.AddMove("e2e4"))
		require.NoError(t, r.AddMove("e7e5"))
		require.NoError(t, r.Annotate("book opening"))
		require.NoError(t, r.SetTag("Event", "test match"))
		require.False(t, r.Finalized())

		require.NoError(t, r.Finalize(game.WhiteWin, game.Checkmate))

		require.True(t, r.Finalized())
		require.Equal(t, game.WhiteWin, r.Result())
		require.Equal(t, game.Checkmate, r.Termination())
		require.False(t, r.FinishedAt().IsZero())
		require.Error(t, r.AddMove("g1f3"), "A finalized record must reject moves")
		require.Error(t, r.Annotate("too late"))
		require.Error(t, r.SetTag("Round", "2"))
		require.Equal(t, []string{"e2e4", "e7e5"}, r.Moves())
	})

	t.Run("finalize works exactly once", func(t *testing.T) {
		r := New("alice", "bob", "")
		require.NoError(t, r.Finalize(game.Draw, game.Stalemate))

		err := r.Finalize(game.WhiteWin, game.Checkmate)

		require.Error(t, err)
		require.Equal(t, game.Draw, r.Result(), "The first result must stick")
	})

	t.Run("every record gets a distinct id", func(t *testing.T) {
		require.NotEqual(t, New("a", "b", "").ID(), New("a", "b", "").ID())
	})

	t.Run("winner names the winning agent", func(t *testing.T) {
		r := New("alice", "bob", "")
		require.NoError(t, r.Finalize(game.BlackWin, game.Checkmate))
		require.Equal(t, "bob", r.Winner())

		drawn := New("alice", "bob", "")
		require.NoError(t, drawn.Finalize(game.Draw, game.Stalemate))
		require.Empty(t, drawn.Winner())
	})
}

func TestGameRecordPGN(t *testing.T) {
	t.Run("movetext carries numbers and the result tag", func(t *testing.T) {
		r := New("alice", "bob", "")
		for _, m := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
			require.NoError(t, r.AddMove(m))
		}
		require.NoError(t, r.Finalize(game.BlackWin, game.Checkmate))

		pgn := r.PGN()

		require.Contains(t, pgn, `[White "alice"]`)
		require.Contains(t, pgn, `[Black "bob"]`)
		require.Contains(t, pgn, `[Result "0-1"]`)
		require.Contains(t, pgn, "1. f2f3 e7e5 2. g2g4 d8h4 0-1")
		require.NotContains(t, pgn, "[FEN", "Standard starts need no FEN tag")
	})

	t.Run("nonstandard starts carry the FEN tag", func(t *testing.T) {
		const fen = "6k1/8/6K1/8/8/8/8/R7 w - - 0 1"
		r := New("alice", "bob", fen)
		require.NoError(t, r.AddMove("a1a8"))
		require.NoError(t, r.Finalize(game.WhiteWin, game.Checkmate))

		pgn := r.PGN()

		require.Contains(t, pgn, `[FEN "`+fen+`"]`)
		require.Contains(t, pgn, `[SetUp "1"]`)
		require.True(t, strings.HasSuffix(strings.TrimSpace(pgn), "1. a1a8 1-0"))
	})
}

func TestGameRecordDict(t *testing.T) {
	t.Run("to dict, from dict, to dict is idempotent", func(t *testing.T) {
		r := New("alice", "bob", "")
		require.NoError(t, r.AddMove("e2e4"))
		require.NoError(t, r.SetTag("Event", "roundtrip"))
		require.NoError(t, r.Annotate("note"))
		require.NoError(t, r.Finalize(game.WhiteWin, game.Checkmate))

		first := r.ToDict()
		restored, err := FromDict(first)
		require.NoError(t, err)
		second := restored.ToDict()

		require.Equal(t, first, second)
	})

	t.Run("an unfinished record round-trips too", func(t *testing.T) {
		r := New("alice", "bob", "")
		require.NoError(t, r.AddMove("d2d4"))

		restored, err := FromDict(r.ToDict())

		require.NoError(t, err)
		require.False(t, restored.Finalized())
		require.Equal(t, r.ToDict(), restored.ToDict())
	})

	t.Run("bad payloads are rejected", func(t *testing.T) {
		_, err := FromDict(Dict{ID: "x", Result: "confusion", StartedAt: "2024-01-01T00:00:00Z"})
		require.Error(t, err)

		_, err = FromDict(Dict{ID: "x", Result: "draw", StartedAt: "yesterday"})
		require.Error(t, err)
	})
}

func finalized(t *testing.T, white, black string, result game.Result) *GameRecord {
	t.Helper()
	r := New(white, black, "")
	require.NoError(t, r.Finalize(result, game.Checkmate))
	return r
}

func TestBatch(t *testing.T) {
	t.Run("filters view by result and agent", func(t *testing.T) {
		b := NewBatch(
			finalized(t, "alice", "bob", game.WhiteWin),
			finalized(t, "bob", "alice", game.WhiteWin),
			finalized(t, "alice", "carol", game.Draw),
			finalized(t, "carol", "bob", game.BlackWin),
		)

		require.Equal(t, 4, b.Len())
		require.Equal(t, 2, b.FilterByResult(game.WhiteWin).Len())
		require.Equal(t, 1, b.FilterByResult(game.Draw).Len())
		require.Equal(t, 3, b.FilterByAgent("alice").Len())
		require.Equal(t, 3, b.FilterByAgent("bob").Len())
		require.Equal(t, 0, b.FilterByAgent("dave").Len())
	})

	t.Run("win rate counts draws in the denominator only", func(t *testing.T) {
		b := NewBatch(
			finalized(t, "alice", "bob", game.WhiteWin),  // alice wins
			finalized(t, "bob", "alice", game.BlackWin),  // alice wins
			finalized(t, "alice", "carol", game.Draw),    // draw
			finalized(t, "carol", "alice", game.WhiteWin), // alice loses
		)

		wins, draws, losses := b.Tally("alice")
		require.Equal(t, 2, wins)
		require.Equal(t, 1, draws)
		require.Equal(t, 1, losses)
		require.Equal(t, 0.5, b.WinRate("alice"), "2 wins over 4 games, the draw adds nothing")
		require.Equal(t, 2.5, b.Score("alice"), "Chess scoring still gives the draw half a point")
	})

	t.Run("an absent agent rates zero", func(t *testing.T) {
		require.Zero(t, NewBatch().WinRate("nobody"))
	})

	t.Run("json round-trip preserves the batch", func(t *testing.T) {
		b := NewBatch(
			finalized(t, "alice", "bob", game.WhiteWin),
			finalized(t, "bob", "alice", game.Draw),
		)

		data, err := b.ToJSON()
		require.NoError(t, err)
		restored, err := BatchFromJSON(data)
		require.NoError(t, err)

		require.Equal(t, b.Len(), restored.Len())
		for i := 0; i < b.Len(); i++ {
			require.Equal(t, b.At(i).ToDict(), restored.At(i).ToDict())
		}
	})
}
