package searcher

import (
	"math"

	"chesslab/game"
)

// node is one position in the MCTS tree. Every node is owned exclusively
// by its parent, so the tree is acyclic and backpropagation is a plain
// walk up the parent chain. value accumulates rewards from the
// perspective of the player who moved into the node.
type node struct {
	parent   *node
	move     game.Move // move that produced this node; zero at the root
	untried  []game.Move
	children []*node
	visits   int
	value    float64
}

func newNode(parent *node, move game.Move, state game.State) *node {
	return &node{
		parent:  parent,
		move:    move,
		untried: state.LegalMoves(), // deterministic order
	}
}

func (n *node) expandable() bool {
	return len(n.untried) > 0
}

// mean is the average reward for the player choosing this node.
func (n *node) mean() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.value / float64(n.visits)
}

// selectChild picks the child maximizing the UCT score. Unvisited
// children score +Inf and win immediately; ties go to the first-created
// child.
func (n *node) selectChild(exploration float64) *node {
	if n.visits == 0 {
		panic("selecting a child of an unvisited node")
	}
	numerator := exploration * exploration * math.Log(float64(n.visits))

	var best *node
	bestScore := math.Inf(-1)
	for _, child := range n.children {
		score := ucb1(child.value, child.visits, numerator)
		if score == math.Inf(1) {
			return child
		}
		if score > bestScore {
			bestScore = score
			best = child
		}
	}
	return best
}

// expand materializes the untried move at the given index as a new child
// and returns it with its state.
func (n *node) expand(index int, state game.State) (*node, game.State) {
	move := n.untried[index]
	n.untried = append(n.untried[:index], n.untried[index+1:]...)

	childState, err := state.Apply(move)
	if err != nil {
		panic("untried move is not legal: " + err.Error())
	}
	child := newNode(n, move, childState)
	n.children = append(n.children, child)
	return child, childState
}

// backup propagates a simulation outcome from n to the root. reward is
// from the perspective of the side to move in n's state and the sign
// flips at every ply on the way up.
func (n *node) backup(reward float64) {
	for current := n; current != nil; current = current.parent {
		current.visits++
		current.value -= reward // mover into current sees the negation
		reward = -reward
	}
}

// bestChild applies the robust-child policy: most visits, then higher
// mean value, then creation order.
func (n *node) bestChild() *node {
	var best *node
	for _, child := range n.children {
		switch {
		case best == nil:
			best = child
		case child.visits > best.visits:
			best = child
		case child.visits == best.visits && child.mean() > best.mean():
			best = child
		}
	}
	return best
}

// ucb1 scores a child for selection: exploitation mean plus exploration
// bonus. Unvisited children rank above everything.
func ucb1(value float64, visits int, numerator float64) float64 {
	if visits == 0 {
		return math.Inf(1)
	}
	n := float64(visits)
	return value/n + math.Sqrt(numerator/n)
}
