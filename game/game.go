package game

// Game is the environment face of the rules adapter: it owns a current
// state and advances it one validated move at a time. Search code uses
// the functional State methods directly; match runners drive a Game.
type Game struct {
	startFEN string
	state    State
}

// NewGame starts a game from the standard position.
func NewGame() *Game {
	g, err := NewGameFromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return g
}

// NewGameFromFEN starts a game from a position encoding.
func NewGameFromFEN(fen string) (*Game, error) {
	state, err := StateFromFEN(fen)
	if err != nil {
		return nil, err
	}
	return &Game{startFEN: fen, state: state}, nil
}

// Reset rewinds to the starting position and returns the fresh state.
func (g *Game) Reset() State {
	state, err := StateFromFEN(g.startFEN)
	if err != nil {
		panic(err) // validated at construction
	}
	g.state = state
	return g.state
}

// State returns the current snapshot.
func (g *Game) State() State { return g.state }

// LegalMoves lists the legal moves in the current state.
func (g *Game) LegalMoves() []Move { return g.state.LegalMoves() }

// Step validates and plays a move, advancing the game. Illegal moves
// leave the game untouched and fail with an IllegalMoveError.
func (g *Game) Step(m Move) (State, error) {
	next, err := g.state.Apply(m)
	if err != nil {
		return State{}, err
	}
	g.state = next
	return next, nil
}

// IsTerminal reports whether the game is over.
func (g *Game) IsTerminal() bool { return g.state.IsTerminal() }

// Result returns the current result.
func (g *Game) Result() Result { return g.state.Result() }

// Turn returns the side to move.
func (g *Game) Turn() Color { return g.state.Turn() }

// Clone returns an independent game at the same position. States are
// immutable, so the copy shares nothing mutable with the original.
func (g *Game) Clone() *Game {
	clone := *g
	return &clone
}
