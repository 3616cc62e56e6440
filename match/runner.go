// Package match drives games between agents and aggregates the outcomes:
// single games, batches with color alternation, round-robin tournaments
// and self-play. The runner never crashes on a misbehaving agent; it
// finalizes an error-tagged record and moves on.
package match

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"chesslab/agent"
	"chesslab/game"
	"chesslab/record"
)

// DefaultMaxPlies bounds a game so buggy or adversarial agents cannot
// spin forever; hitting the bound adjudicates a draw.
const DefaultMaxPlies = 512

// ErrInvalidAgentMove reports an agent move that failed re-validation.
// Matchable through InvalidAgentMoveError with errors.Is.
var ErrInvalidAgentMove = errors.New("match: agent played an invalid move")

// InvalidAgentMoveError names the offending agent; it ends only the game
// it happened in.
type InvalidAgentMoveError struct {
	Agent string
	Move  game.Move
	Err   error
}

func (e *InvalidAgentMoveError) Error() string {
	return fmt.Sprintf("agent %s played invalid move %s: %v", e.Agent, e.Move, e.Err)
}

func (e *InvalidAgentMoveError) Unwrap() error { return ErrInvalidAgentMove }

// Runner plays single games between two agents.
type Runner struct {
	maxPlies int
	startFEN string
	tags     map[string]string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithMaxPlies overrides the draw-adjudication bound.
func WithMaxPlies(plies int) RunnerOption {
	return func(r *Runner) {
		if plies > 0 {
			r.maxPlies = plies
		}
	}
}

// WithStartFEN starts every game from the given position.
func WithStartFEN(fen string) RunnerOption {
	return func(r *Runner) {
		if fen != "" {
			r.startFEN = fen
		}
	}
}

// WithRecordTags stamps every produced record with the given tags.
func WithRecordTags(tags map[string]string) RunnerOption {
	return func(r *Runner) {
		for k, v := range tags {
			r.tags[k] = v
		}
	}
}

func NewRunner(options ...RunnerOption) *Runner {
	r := &Runner{
		maxPlies: DefaultMaxPlies,
		startFEN: game.StartFEN,
		tags:     map[string]string{},
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Run plays one game and always returns a finalized record. Every agent
// move is re-validated through the adapter; an agent error or illegal
// move loses the game for that agent and terminates it as invalid_move.
func (r *Runner) Run(white, black agent.Agent) *record.GameRecord {
	rec := record.New(white.Name(), black.Name(), r.startFEN)
	for k, v := range r.tags {
		if err := rec.SetTag(k, v); err != nil {
			log.Warn().Err(err).Msg("failed to tag record")
		}
	}

	log.Info().Str("white", white.Name()).Str("black", black.Name()).Msg("game started")

	env, err := game.NewGameFromFEN(r.startFEN)
	if err != nil {
		// The starting position was validated by the options; a bad FEN
		// here is a programming error on the caller's side.
		finalize(rec, game.NoResult, "invalid_position")
		return rec
	}

	for !env.IsTerminal() && rec.Plies() < r.maxPlies {
		state := env.State()
		mover := white
		if state.Turn() == game.Black {
			mover = black
		}

		move, err := mover.Act(state)
		if err == nil {
			_, err = env.Step(move)
		}
		if err != nil {
			violation := &InvalidAgentMoveError{Agent: mover.Name(), Move: move, Err: err}
			log.Warn().Err(violation).Msg("game aborted")
			noteViolation(rec, violation)
			finalize(rec, winnerAgainst(state.Turn()), record.TerminationInvalidMove)
			return rec
		}
		if err := rec.AddMove(move.UCI()); err != nil {
			log.Warn().Err(err).Msg("failed to record move")
		}
	}

	if env.IsTerminal() {
		finalize(rec, env.Result(), env.State().Method())
	} else {
		finalize(rec, game.Draw, record.TerminationMaxPlies)
	}

	log.Info().
		Str("result", rec.Result().String()).
		Str("termination", rec.Termination()).
		Int("plies", rec.Plies()).
		Msg("game finished")
	return rec
}

// winnerAgainst awards the game to the opponent of the offending side.
func winnerAgainst(offender game.Color) game.Result {
	if offender == game.White {
		return game.BlackWin
	}
	return game.WhiteWin
}

func noteViolation(rec *record.GameRecord, violation *InvalidAgentMoveError) {
	if err := rec.Annotate(violation.Error()); err != nil {
		log.Warn().Err(err).Msg("failed to annotate record")
	}
}

func finalize(rec *record.GameRecord, result game.Result, termination string) {
	if err := rec.Finalize(result, termination); err != nil {
		log.Warn().Err(err).Msg("failed to finalize record")
	}
}
