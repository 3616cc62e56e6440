package game

import (
	"fmt"
	"strings"
)

// Color identifies a side. The zero value is White.
type Color int8

const (
	White Color = iota
	Black
)

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Result classifies a game as running, won or drawn.
type Result int8

const (
	NoResult Result = iota
	WhiteWin
	BlackWin
	Draw
)

func (r Result) String() string {
	switch r {
	case WhiteWin:
		return "white_win"
	case BlackWin:
		return "black_win"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Tag returns the PGN result tag for r: "1-0", "0-1", "1/2-1/2" or "*".
func (r Result) Tag() string {
	switch r {
	case WhiteWin:
		return "1-0"
	case BlackWin:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Winner returns the winning side if r is decided.
func (r Result) Winner() (Color, bool) {
	switch r {
	case WhiteWin:
		return White, true
	case BlackWin:
		return Black, true
	default:
		return White, false
	}
}

// ParseResult is the inverse of Result.String.
func ParseResult(s string) (Result, error) {
	switch s {
	case "white_win":
		return WhiteWin, nil
	case "black_win":
		return BlackWin, nil
	case "draw":
		return Draw, nil
	case "in_progress", "":
		return NoResult, nil
	}
	return NoResult, fmt.Errorf("unknown result %q", s)
}

// Move is one half-move in coordinate form. Two moves are equal iff their
// UCI encodings match, so Move values compare directly with ==.
type Move struct {
	From      string // origin square, e.g. "e2"
	To        string // destination square, e.g. "e4"
	Promotion string // "q", "r", "b" or "n"; empty when not a promotion
}

// UCI returns the canonical text encoding, e.g. "e2e4" or "e7e8q".
func (m Move) UCI() string {
	return m.From + m.To + m.Promotion
}

func (m Move) String() string {
	return m.UCI()
}

// ParseMove decodes a move from its UCI encoding. Promotion pieces are
// normalized to lower case.
func ParseMove(uci string) (Move, error) {
	s := strings.ToLower(strings.TrimSpace(uci))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("invalid move encoding %q", uci)
	}
	if !validSquare(s[0:2]) || !validSquare(s[2:4]) {
		return Move{}, fmt.Errorf("invalid move encoding %q", uci)
	}
	m := Move{From: s[0:2], To: s[2:4]}
	if len(s) == 5 {
		switch s[4] {
		case 'q', 'r', 'b', 'n':
			m.Promotion = s[4:5]
		default:
			return Move{}, fmt.Errorf("invalid promotion in %q", uci)
		}
	}
	return m, nil
}

// ParseMoves decodes a whole move history, failing on the first bad entry.
func ParseMoves(ucis []string) ([]Move, error) {
	moves := make([]Move, len(ucis))
	for i, u := range ucis {
		m, err := ParseMove(u)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		moves[i] = m
	}
	return moves, nil
}

func validSquare(s string) bool {
	return s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}
