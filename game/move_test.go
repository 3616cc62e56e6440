package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMove(t *testing.T) {
	t.Run("decoding a plain move", func(t *testing.T) {
		got, err := ParseMove("e2e4")

		require.NoError(t, err)
		require.Equal(t, Move{From: "e2", To: "e4"}, got)
		require.Equal(t, "e2e4", got.UCI(), "Encoding should round-trip")
	})

	t.Run("decoding a promotion move", func(t *testing.T) {
		got, err := ParseMove("e7e8q")

		require.NoError(t, err)
		require.Equal(t, Move{From: "e7", To: "e8", Promotion: "q"}, got)
		require.Equal(t, "e7e8q", got.UCI(), "Encoding should round-trip")
	})

	t.Run("normalizing case and whitespace", func(t *testing.T) {
		got, err := ParseMove(" E7E8Q ")

		require.NoError(t, err)
		require.Equal(t, Move{From: "e7", To: "e8", Promotion: "q"}, got,
			"Promotion pieces should normalize to lower case")
	})

	t.Run("rejecting malformed encodings", func(t *testing.T) {
		for _, bad := range []string{"", "e2", "e2e", "e2e44", "i2i4", "e0e4", "e7e8k", "e7e8qq"} {
			_, err := ParseMove(bad)
			require.Error(t, err, "Encoding %q should be rejected", bad)
		}
	})

	t.Run("comparing moves by encoding", func(t *testing.T) {
		a, _ := ParseMove("g1f3")
		b, _ := ParseMove("g1f3")

		require.True(t, a == b, "Moves with equal encodings should be equal")
	})
}

func TestParseMoves(t *testing.T) {
	t.Run("decoding a history", func(t *testing.T) {
		got, err := ParseMoves([]string{"e2e4", "e7e5"})

		require.NoError(t, err)
		require.Len(t, got, 2)
		require.Equal(t, "e7e5", got[1].UCI())
	})

	t.Run("failing on the first bad entry", func(t *testing.T) {
		_, err := ParseMoves([]string{"e2e4", "bogus"})

		require.Error(t, err)
		require.Contains(t, err.Error(), "move 2", "Error should name the offending entry")
	})
}

func TestResult(t *testing.T) {
	t.Run("string and tag forms", func(t *testing.T) {
		require.Equal(t, "white_win", WhiteWin.String())
		require.Equal(t, "1-0", WhiteWin.Tag())
		require.Equal(t, "in_progress", NoResult.String())
		require.Equal(t, "*", NoResult.Tag())
		require.Equal(t, "1/2-1/2", Draw.Tag())
	})

	t.Run("round-trip through ParseResult", func(t *testing.T) {
		for _, r := range []Result{NoResult, WhiteWin, BlackWin, Draw} {
			got, err := ParseResult(r.String())
			require.NoError(t, err)
			require.Equal(t, r, got)
		}
	})

	t.Run("winner extraction", func(t *testing.T) {
		winner, ok := BlackWin.Winner()
		require.True(t, ok)
		require.Equal(t, Black, winner)

		_, ok = Draw.Winner()
		require.False(t, ok, "Draw should have no winner")
	})
}

func TestColorOther(t *testing.T) {
	require.Equal(t, Black, White.Other())
	require.Equal(t, White, Black.Other())
	require.Equal(t, "white", White.String())
	require.Equal(t, "black", Black.String())
}
