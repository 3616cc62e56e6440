package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"chesslab/game"
	"chesslab/searcher"
)

const (
	// Black is checkmated; the game is over.
	matedFEN = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	// White's e4 pawn can win the undefended d5 queen.
	hangingQueenFEN = "k7/8/8/3q4/4P3/8/8/4K3 w - - 0 1"
)

func TestRandom(t *testing.T) {
	t.Run("always plays a legal move", func(t *testing.T) {
		a := NewRandom(1)
		s := game.NewState()

		for i := 0; i < 50; i++ {
			move, err := a.Act(s)
			require.NoError(t, err)
			require.Contains(t, s.LegalMoves(), move)
		}
	})

	t.Run("identical seeds produce identical streams", func(t *testing.T) {
		first, second := NewRandom(42), NewRandom(42)
		s := game.NewState()

		for i := 0; i < 20; i++ {
			m1, err := first.Act(s)
			require.NoError(t, err)
			m2, err := second.Act(s)
			require.NoError(t, err)
			require.Equal(t, m1, m2)
		}
	})

	t.Run("terminal state fails with ErrNoLegalMove", func(t *testing.T) {
		s, err := game.StateFromFEN(matedFEN)
		require.NoError(t, err)

		_, err = NewRandom(1).Act(s)

		require.ErrorIs(t, err, ErrNoLegalMove)
	})
}

func TestWeightedRandom(t *testing.T) {
	t.Run("a cold temperature all but forces the best capture", func(t *testing.T) {
		a, err := NewWeightedRandom(game.EvaluateMaterial, 0.01, 7)
		require.NoError(t, err)
		s, err := game.StateFromFEN(hangingQueenFEN)
		require.NoError(t, err)

		captures := 0
		for i := 0; i < 30; i++ {
			move, err := a.Act(s)
			require.NoError(t, err)
			if move.UCI() == "e4d5" {
				captures++
			}
		}
		require.Equal(t, 30, captures, "Winning a queen should dominate a near-greedy softmax")
	})

	t.Run("moves stay legal at a hot temperature", func(t *testing.T) {
		a, err := NewWeightedRandom(nil, 10, 3)
		require.NoError(t, err)
		s := game.NewState()

		for i := 0; i < 30; i++ {
			move, err := a.Act(s)
			require.NoError(t, err)
			require.Contains(t, s.LegalMoves(), move)
		}
	})

	t.Run("negative temperature is rejected", func(t *testing.T) {
		_, err := NewWeightedRandom(nil, -1, 0)
		require.Error(t, err)
	})

	t.Run("terminal state fails with ErrNoLegalMove", func(t *testing.T) {
		s, err := game.StateFromFEN(matedFEN)
		require.NoError(t, err)
		a, err := NewWeightedRandom(nil, 0, 1)
		require.NoError(t, err)

		_, err = a.Act(s)

		require.ErrorIs(t, err, ErrNoLegalMove)
	})
}

func TestFirst(t *testing.T) {
	t.Run("plays the first move in deterministic order", func(t *testing.T) {
		s := game.NewState()

		move, err := NewFirst().Act(s)

		require.NoError(t, err)
		require.Equal(t, s.LegalMoves()[0], move)
	})
}

// mockSearcher returns a canned result or error.
type mockSearcher struct {
	result searcher.Result
	err    error
	calls  int
}

func (m *mockSearcher) Search(state game.State) (searcher.Result, error) {
	m.calls++
	return m.result, m.err
}

func TestEngine(t *testing.T) {
	t.Run("delegates to the searcher", func(t *testing.T) {
		want := game.Move{From: "e2", To: "e4"}
		mock := &mockSearcher{result: searcher.Result{Move: want}}
		a, err := NewEngine("mock", mock)
		require.NoError(t, err)

		move, err := a.Act(game.NewState())

		require.NoError(t, err)
		require.Equal(t, want, move)
		require.Equal(t, 1, mock.calls)
	})

	t.Run("searcher errors propagate, never a substitute move", func(t *testing.T) {
		wantErr := errors.New("engine died")
		a, err := NewEngine("mock", &mockSearcher{err: wantErr})
		require.NoError(t, err)

		_, err = a.Act(game.NewState())

		require.ErrorIs(t, err, wantErr)
	})

	t.Run("does not consult the searcher on a terminal state", func(t *testing.T) {
		s, err := game.StateFromFEN(matedFEN)
		require.NoError(t, err)
		mock := &mockSearcher{}
		a, err := NewEngine("mock", mock)
		require.NoError(t, err)

		_, err = a.Act(s)

		require.ErrorIs(t, err, ErrNoLegalMove)
		require.Zero(t, mock.calls)
	})

	t.Run("minimax-backed agent plays only legal moves", func(t *testing.T) {
		minimax, err := searcher.NewMinimax(searcher.WithDepth(1))
		require.NoError(t, err)
		a, err := NewEngine("minimax:1", minimax)
		require.NoError(t, err)

		s := game.NewState()
		rng := newRNG(13)
		for ply := 0; ply < 60 && !s.IsTerminal(); ply++ {
			move, err := a.Act(s)
			require.NoError(t, err)
			require.Contains(t, s.LegalMoves(), move, "Position %q", s.FEN())

			// Walk a random game so the agent sees varied positions.
			moves := s.LegalMoves()
			s, err = s.Apply(moves[rng.Intn(len(moves))])
			require.NoError(t, err)
		}
	})
}

func TestFactory(t *testing.T) {
	t.Run("builds every in-process kind", func(t *testing.T) {
		cases := []Config{
			{Kind: KindRandom, Seed: 1},
			{Kind: KindWeightedRandom, Seed: 1},
			{Kind: KindFirst},
			{Kind: KindMinimax, Depth: 2, Quiescence: true},
			{Kind: KindMCTS, Episodes: 10, Seed: 1},
		}
		for _, cfg := range cases {
			t.Run(string(cfg.Kind), func(t *testing.T) {
				a, err := New(cfg)
				require.NoError(t, err)
				require.Equal(t, string(cfg.Kind), a.Name())

				move, err := a.Act(game.NewState())
				require.NoError(t, err)
				require.Contains(t, game.NewState().LegalMoves(), move)
			})
		}
	})

	t.Run("an explicit name wins over the kind", func(t *testing.T) {
		a, err := New(Config{Kind: KindMinimax, Name: "deep-thought", Depth: 1})
		require.NoError(t, err)
		require.Equal(t, "deep-thought", a.Name())
	})

	t.Run("unknown kinds are rejected", func(t *testing.T) {
		_, err := New(Config{Kind: "oracle"})
		require.Error(t, err)

		_, err = ParseKind("oracle")
		require.Error(t, err)
	})

	t.Run("kind names parse back to kinds", func(t *testing.T) {
		for _, kind := range Kinds() {
			parsed, err := ParseKind(string(kind))
			require.NoError(t, err)
			require.Equal(t, kind, parsed)
		}
	})
}
