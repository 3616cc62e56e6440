package searcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"chesslab/game"
)

func TestNodeSelectChild(t *testing.T) {
	t.Run("an unvisited child is always selected first", func(t *testing.T) {
		visited := &node{visits: 10, value: 10}
		unvisited := &node{}
		parent := &node{visits: 10, children: []*node{visited, unvisited}}

		require.Same(t, unvisited, parent.selectChild(DefaultExploration))
	})

	t.Run("the higher UCT score wins", func(t *testing.T) {
		weak := &node{visits: 5, value: 0}
		strong := &node{visits: 5, value: 4}
		parent := &node{visits: 10, children: []*node{weak, strong}}

		require.Same(t, strong, parent.selectChild(DefaultExploration))
	})

	t.Run("a rarely visited child gets an exploration bonus", func(t *testing.T) {
		exploited := &node{visits: 99, value: 50}
		neglected := &node{visits: 1, value: 0}
		parent := &node{visits: 100, children: []*node{exploited, neglected}}

		require.Same(t, neglected, parent.selectChild(3.0),
			"A big exploration weight should favor the rarely tried child")
	})

	t.Run("ties go to the first-created child", func(t *testing.T) {
		first := &node{visits: 5, value: 2}
		second := &node{visits: 5, value: 2}
		parent := &node{visits: 10, children: []*node{first, second}}

		require.Same(t, first, parent.selectChild(DefaultExploration))
	})
}

func TestNodeBestChild(t *testing.T) {
	t.Run("most visits wins regardless of value", func(t *testing.T) {
		robust := &node{visits: 80, value: 10}
		lucky := &node{visits: 20, value: 19}
		parent := &node{visits: 100, children: []*node{lucky, robust}}

		require.Same(t, robust, parent.bestChild())
	})

	t.Run("equal visits fall back to the higher mean", func(t *testing.T) {
		worse := &node{visits: 50, value: 10}
		better := &node{visits: 50, value: 30}
		parent := &node{visits: 100, children: []*node{worse, better}}

		require.Same(t, better, parent.bestChild())
	})

	t.Run("full ties keep creation order", func(t *testing.T) {
		first := &node{visits: 50, value: 10}
		second := &node{visits: 50, value: 10}
		parent := &node{visits: 100, children: []*node{first, second}}

		require.Same(t, first, parent.bestChild())
	})
}

func TestNodeBackup(t *testing.T) {
	t.Run("the sign flips at every ply up the parent chain", func(t *testing.T) {
		root := &node{}
		child := &node{parent: root}
		leaf := &node{parent: child}

		leaf.backup(1) // leaf's side to move wins the playout

		require.Equal(t, 1, leaf.visits)
		require.Equal(t, -1.0, leaf.value, "The player who moved into the leaf lost")
		require.Equal(t, 1, child.visits)
		require.Equal(t, 1.0, child.value, "One ply up the perspective flips")
		require.Equal(t, 1, root.visits)
		require.Equal(t, -1.0, root.value, "The root accumulates like every ancestor")
	})

	t.Run("draws accumulate visits without value", func(t *testing.T) {
		root := &node{}
		leaf := &node{parent: root}

		leaf.backup(0)
		leaf.backup(0)

		require.Equal(t, 2, leaf.visits)
		require.Zero(t, leaf.value)
		require.Equal(t, 2, root.visits)
		require.Zero(t, root.value)
	})
}

func TestNodeExpand(t *testing.T) {
	t.Run("materializes one untried move as a child", func(t *testing.T) {
		s := game.NewState()
		parent := newNode(nil, game.Move{}, s)
		before := len(parent.untried)

		child, childState := parent.expand(0, s)

		require.Len(t, parent.children, 1)
		require.Len(t, parent.untried, before-1)
		require.Same(t, parent, child.parent)
		require.Equal(t, 1, childState.Ply(), "The child state is one ply deeper")
		require.NotContains(t, parent.untried, child.move)
	})
}

func TestUCB1(t *testing.T) {
	t.Run("unvisited scores infinite", func(t *testing.T) {
		require.True(t, math.IsInf(ucb1(0, 0, 1), 1))
	})

	t.Run("combines mean and exploration term", func(t *testing.T) {
		numerator := 2 * math.Log(10.0)
		got := ucb1(3, 4, numerator)
		want := 3.0/4.0 + math.Sqrt(numerator/4.0)
		require.InDelta(t, want, got, 1e-12)
	})
}
