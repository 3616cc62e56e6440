package game

import (
	"errors"
	"fmt"
)

// ErrIllegalMove reports a move that is not legal in the state it was
// applied to. Matchable with errors.Is through IllegalMoveError.
var ErrIllegalMove = errors.New("illegal move")

// IllegalMoveError carries the rejected move and the position that
// rejected it.
type IllegalMoveError struct {
	Move Move
	FEN  string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %s in position %q", e.Move, e.FEN)
}

func (e *IllegalMoveError) Unwrap() error {
	return ErrIllegalMove
}
