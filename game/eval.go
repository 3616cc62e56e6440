package game

import (
	"fmt"

	"github.com/notnil/chess"
)

// Evaluate scores a state from the side to move's perspective in pawn
// units: positive favors the player to move. Implementations must be
// deterministic and side-effect free.
type Evaluate func(State) float64

// MateValue is the terminal sentinel. A state where the side to move is
// checkmated evaluates to -MateValue; stalemate and other draws to 0.
const MateValue = 1000.0

// PieceKind indexes material value tables.
type PieceKind int8

const (
	Pawn PieceKind = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

func (k PieceKind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "unknown"
}

// MaterialValues is the standard table in pawn units. The king carries no
// material value; losing it is the terminal override's business.
var MaterialValues = map[PieceKind]float64{
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
	King:   0,
}

// EvaluateMaterial scores the material balance with the standard table.
func EvaluateMaterial(s State) float64 {
	return evaluateMaterial(s, MaterialValues)
}

// NewMaterialEvaluate builds a material evaluation over a custom value
// table. Missing kinds count as 0; negative values are rejected.
func NewMaterialEvaluate(values map[PieceKind]float64) (Evaluate, error) {
	table := make(map[PieceKind]float64, len(values))
	for kind, v := range values {
		if v < 0 {
			return nil, fmt.Errorf("piece value for %s must be >= 0, got %v", kind, v)
		}
		table[kind] = v
	}
	return func(s State) float64 {
		return evaluateMaterial(s, table)
	}, nil
}

func evaluateMaterial(s State, values map[PieceKind]float64) float64 {
	if s.IsTerminal() {
		if s.IsCheckmate() {
			return -MateValue
		}
		return 0
	}
	us := s.Turn()
	return countMaterial(s, us, values) - countMaterial(s, us.Other(), values)
}

// CountMaterial sums c's material in pawn units with the standard table.
func CountMaterial(s State, c Color) float64 {
	return countMaterial(s, c, MaterialValues)
}

func countMaterial(s State, c Color, values map[PieceKind]float64) float64 {
	want := chess.White
	if c == Black {
		want = chess.Black
	}
	board := s.pos.Board()
	total := 0.0
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := board.Piece(sq)
		if p == chess.NoPiece || p.Color() != want {
			continue
		}
		total += values[pieceKind(p.Type())]
	}
	return total
}

func pieceKind(t chess.PieceType) PieceKind {
	switch t {
	case chess.Pawn:
		return Pawn
	case chess.Knight:
		return Knight
	case chess.Bishop:
		return Bishop
	case chess.Rook:
		return Rook
	case chess.Queen:
		return Queen
	default:
		return King
	}
}
