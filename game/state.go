package game

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/notnil/chess"
)

// StartFEN is the standard chess starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Termination reasons reported by Method.
const (
	Checkmate            = "checkmate"
	Stalemate            = "stalemate"
	InsufficientMaterial = "insufficient_material"
	SeventyFiveMoveRule  = "seventy_five_move_rule"
	FivefoldRepetition   = "fivefold_repetition"
)

// State is an immutable snapshot of a game. The position encoding is the
// source of truth; Apply produces a new value, never mutates, so search
// trees may branch states freely without aliasing.
type State struct {
	pos      *chess.Position
	start    string // encoding the game started from; anchors MoveHistory
	fen      string
	moves    []Move   // history since the position the game started from
	keys     []string // repetition keys of every position seen, including this one
	inCheck  bool
	terminal bool
	result   Result
	method   string
}

// NewState returns the standard starting position.
func NewState() State {
	s, err := StateFromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return s
}

// StateFromFEN constructs a state from a position encoding. Move history
// and repetition tracking restart from the given position, matching a
// rules provider rebuilt from an encoding.
func StateFromFEN(fen string) (State, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return State{}, fmt.Errorf("invalid fen %q: %w", fen, err)
	}
	pos := chess.NewGame(opt).Position()
	return newState(pos, fen, nil, []string{repetitionKey(pos)}), nil
}

func newState(pos *chess.Position, start string, moves []Move, keys []string) State {
	s := State{
		pos:     pos,
		start:   start,
		fen:     pos.String(),
		moves:   moves,
		keys:    keys,
		inCheck: kingAttacked(pos.Board(), pos.Turn()),
	}
	s.terminal, s.result, s.method = status(pos, keys)
	return s
}

// FEN returns the position encoding.
func (s State) FEN() string { return s.fen }

// StartFEN returns the encoding this state's lineage was constructed
// from. For states reached through Apply, replaying MoveHistory from it
// reproduces this state; a state restored from a dict is its own start.
func (s State) StartFEN() string { return s.start }

// Turn returns the side to move.
func (s State) Turn() Color {
	if s.pos.Turn() == chess.White {
		return White
	}
	return Black
}

// IsTerminal reports whether the game is over in this state.
func (s State) IsTerminal() bool { return s.terminal }

// Result returns the game result, NoResult while in progress.
func (s State) Result() Result { return s.result }

// Method names how the game ended ("checkmate", "stalemate", ...); empty
// while in progress.
func (s State) Method() string { return s.method }

// InCheck reports whether the side to move is in check.
func (s State) InCheck() bool { return s.inCheck }

// IsCheckmate reports whether the side to move is checkmated.
func (s State) IsCheckmate() bool { return s.method == Checkmate }

// IsStalemate reports whether the side to move is stalemated.
func (s State) IsStalemate() bool { return s.method == Stalemate }

// MoveHistory returns a copy of the moves played since the state the game
// started from.
func (s State) MoveHistory() []Move {
	moves := make([]Move, len(s.moves))
	copy(moves, s.moves)
	return moves
}

// Ply returns the number of half-moves played in the whole game, derived
// from the position encoding so it survives serialization round-trips.
func (s State) Ply() int {
	fields := strings.Fields(s.fen)
	full, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || full < 1 {
		return 0
	}
	ply := (full - 1) * 2
	if s.pos.Turn() == chess.Black {
		ply++
	}
	return ply
}

// HalfMoveClock returns the halfmove clock field of the encoding.
func (s State) HalfMoveClock() int { return halfMoveClock(s.fen) }

// LegalMoves returns every legal move in deterministic order, sorted by
// UCI encoding so repeated searches visit children identically.
func (s State) LegalMoves() []Move {
	if s.terminal {
		return nil
	}
	valid := s.pos.ValidMoves()
	moves := make([]Move, 0, len(valid))
	for _, vm := range valid {
		m, err := ParseMove(chess.UCINotation{}.Encode(s.pos, vm))
		if err != nil {
			panic(fmt.Sprintf("provider emitted unparseable move: %v", err))
		}
		moves = append(moves, m)
	}
	sort.Slice(moves, func(i, j int) bool { return moves[i].UCI() < moves[j].UCI() })
	return moves
}

// NoisyMoves returns the legal moves that capture or give check, in the
// same deterministic order as LegalMoves. Quiescence search restricts
// itself to these.
func (s State) NoisyMoves() []Move {
	if s.terminal {
		return nil
	}
	var moves []Move
	for _, vm := range s.pos.ValidMoves() {
		if !vm.HasTag(chess.Capture) && !vm.HasTag(chess.EnPassant) && !vm.HasTag(chess.Check) {
			continue
		}
		m, err := ParseMove(chess.UCINotation{}.Encode(s.pos, vm))
		if err != nil {
			panic(fmt.Sprintf("provider emitted unparseable move: %v", err))
		}
		moves = append(moves, m)
	}
	sort.Slice(moves, func(i, j int) bool { return moves[i].UCI() < moves[j].UCI() })
	return moves
}

// Apply plays a move and returns the successor state. The move must be
// legal in s; anything else, including any move on a terminal state,
// fails with an IllegalMoveError.
func (s State) Apply(m Move) (State, error) {
	if s.terminal {
		return State{}, &IllegalMoveError{Move: m, FEN: s.fen}
	}
	target := m.UCI()
	notation := chess.UCINotation{}
	for _, vm := range s.pos.ValidMoves() {
		if notation.Encode(s.pos, vm) != target {
			continue
		}
		next := s.pos.Update(vm)

		moves := make([]Move, len(s.moves), len(s.moves)+1)
		copy(moves, s.moves)
		moves = append(moves, m)

		keys := make([]string, len(s.keys), len(s.keys)+1)
		copy(keys, s.keys)
		keys = append(keys, repetitionKey(next))

		return newState(next, s.start, moves, keys), nil
	}
	return State{}, &IllegalMoveError{Move: m, FEN: s.fen}
}

// status classifies pos as terminal or not, layering the automatic draw
// rules (insufficient material, seventy-five moves, fivefold repetition)
// over the provider's checkmate and stalemate detection. Claimable draws
// are not applied automatically.
func status(pos *chess.Position, keys []string) (bool, Result, string) {
	switch pos.Status() {
	case chess.Checkmate:
		if pos.Turn() == chess.White {
			return true, BlackWin, Checkmate
		}
		return true, WhiteWin, Checkmate
	case chess.Stalemate:
		return true, Draw, Stalemate
	}
	if insufficientMaterial(pos.Board()) {
		return true, Draw, InsufficientMaterial
	}
	if halfMoveClock(pos.String()) >= 150 {
		return true, Draw, SeventyFiveMoveRule
	}
	if len(keys) > 0 && repetitions(keys) >= 5 {
		return true, Draw, FivefoldRepetition
	}
	return false, NoResult, ""
}

// repetitionKey strips the clocks from the encoding: two positions repeat
// when placement, side to move, castling rights and en passant match.
func repetitionKey(pos *chess.Position) string {
	fields := strings.Fields(pos.String())
	if len(fields) < 4 {
		return pos.String()
	}
	return strings.Join(fields[:4], " ")
}

func repetitions(keys []string) int {
	last := keys[len(keys)-1]
	n := 0
	for _, k := range keys {
		if k == last {
			n++
		}
	}
	return n
}

func halfMoveClock(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 5 {
		return 0
	}
	clock, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0
	}
	return clock
}

// insufficientMaterial reports the standard dead positions: bare kings, a
// lone minor piece, or bishops all confined to one square color.
func insufficientMaterial(board *chess.Board) bool {
	knights := 0
	var bishopSquares []chess.Square
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := board.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		switch p.Type() {
		case chess.Pawn, chess.Rook, chess.Queen:
			return false
		case chess.Knight:
			knights++
		case chess.Bishop:
			bishopSquares = append(bishopSquares, sq)
		}
	}
	minors := knights + len(bishopSquares)
	if minors <= 1 {
		return true
	}
	if knights > 0 {
		return false
	}
	shade := squareShade(bishopSquares[0])
	for _, sq := range bishopSquares[1:] {
		if squareShade(sq) != shade {
			return false
		}
	}
	return true
}

func squareShade(sq chess.Square) int {
	return (int(sq)/8 + int(sq)%8) % 2
}

// StateDict is the serialized form of a State. The fen field is the
// source of truth; terminal flag and result are recomputed on restore and
// the move history is carried as data.
type StateDict struct {
	FEN           string   `json:"fen"`
	CurrentPlayer string   `json:"current_player"`
	MoveHistory   []string `json:"move_history"`
	IsTerminal    bool     `json:"is_terminal"`
	Result        string   `json:"result"`
}

// ToDict returns the serializable snapshot of s.
func (s State) ToDict() StateDict {
	history := make([]string, len(s.moves))
	for i, m := range s.moves {
		history[i] = m.UCI()
	}
	return StateDict{
		FEN:           s.fen,
		CurrentPlayer: s.Turn().String(),
		MoveHistory:   history,
		IsTerminal:    s.terminal,
		Result:        s.result.String(),
	}
}

// StateFromDict rebuilds a state from its serialized form. ToDict of the
// restored state reproduces the input exactly for any dict produced by
// ToDict. The fen field wins over any contradicting dict field, except
// that a terminal flag is kept: history-dependent draws (fivefold
// repetition) cannot be recomputed from the encoding alone.
func StateFromDict(d StateDict) (State, error) {
	s, err := StateFromFEN(d.FEN)
	if err != nil {
		return State{}, err
	}
	moves, err := ParseMoves(d.MoveHistory)
	if err != nil {
		return State{}, fmt.Errorf("invalid move history: %w", err)
	}
	s.moves = moves
	if d.IsTerminal && !s.terminal {
		result, err := ParseResult(d.Result)
		if err != nil {
			return State{}, err
		}
		s.terminal = true
		s.result = result
	}
	return s, nil
}

// kingAttacked reports whether c's king is attacked in board. The rules
// provider keeps this predicate internal, so it is recomputed here from
// the piece placement.
func kingAttacked(board *chess.Board, c chess.Color) bool {
	kingSq, found := chess.A1, false
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := board.Piece(sq)
		if p.Type() == chess.King && p.Color() == c {
			kingSq, found = sq, true
			break
		}
	}
	if !found {
		return false
	}

	file := int(kingSq) % 8
	rank := int(kingSq) / 8
	enemy := chess.Black
	if c == chess.Black {
		enemy = chess.White
	}

	at := func(f, r int) chess.Piece {
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return chess.NoPiece
		}
		return board.Piece(chess.Square(r*8 + f))
	}
	isEnemy := func(p chess.Piece, t chess.PieceType) bool {
		return p != chess.NoPiece && p.Color() == enemy && p.Type() == t
	}

	// Knights
	for _, d := range [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}} {
		if isEnemy(at(file+d[0], rank+d[1]), chess.Knight) {
			return true
		}
	}

	// Pawns: white pawns attack upward, black pawns downward
	pawnRank := rank - 1
	if enemy == chess.Black {
		pawnRank = rank + 1
	}
	if isEnemy(at(file-1, pawnRank), chess.Pawn) || isEnemy(at(file+1, pawnRank), chess.Pawn) {
		return true
	}

	// Adjacent enemy king
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if df == 0 && dr == 0 {
				continue
			}
			if isEnemy(at(file+df, rank+dr), chess.King) {
				return true
			}
		}
	}

	// Sliding pieces
	rays := []struct {
		df, dr int
		diag   bool
	}{
		{1, 0, false}, {-1, 0, false}, {0, 1, false}, {0, -1, false},
		{1, 1, true}, {1, -1, true}, {-1, 1, true}, {-1, -1, true},
	}
	for _, ray := range rays {
		f, r := file+ray.df, rank+ray.dr
		for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
			p := board.Piece(chess.Square(r*8 + f))
			if p != chess.NoPiece {
				if p.Color() == enemy {
					t := p.Type()
					if t == chess.Queen || (ray.diag && t == chess.Bishop) || (!ray.diag && t == chess.Rook) {
						return true
					}
				}
				break
			}
			f += ray.df
			r += ray.dr
		}
	}
	return false
}
