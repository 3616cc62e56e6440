// Package record keeps immutable logs of played games. A GameRecord is
// append-only while its game runs and frozen once finalized; a Batch
// collects records for filtering and statistics.
package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"chesslab/game"
)

// Termination reasons set by the match runner on top of the rule-based
// ones the game adapter reports.
const (
	TerminationMaxPlies    = "max_plies"
	TerminationInvalidMove = "invalid_move"
)

// GameRecord is the log of one game: who played, what was played and how
// it ended. AddMove, Annotate and SetTag work until Finalize; after that
// the record rejects mutation.
type GameRecord struct {
	id          string
	white       string
	black       string
	initialFEN  string
	moves       []string
	result      game.Result
	termination string
	startedAt   time.Time
	finishedAt  time.Time
	finalized   bool
	tags        map[string]string
	annotations []string
}

// New starts a record for a game between the named agents.
func New(white, black, initialFEN string) *GameRecord {
	if initialFEN == "" {
		initialFEN = game.StartFEN
	}
	return &GameRecord{
		id:         uuid.NewString(),
		white:      white,
		black:      black,
		initialFEN: initialFEN,
		startedAt:  time.Now().UTC(),
		tags:       map[string]string{},
	}
}

func (r *GameRecord) ID() string            { return r.id }
func (r *GameRecord) White() string         { return r.white }
func (r *GameRecord) Black() string         { return r.black }
func (r *GameRecord) InitialFEN() string    { return r.initialFEN }
func (r *GameRecord) Result() game.Result   { return r.result }
func (r *GameRecord) Termination() string   { return r.termination }
func (r *GameRecord) StartedAt() time.Time  { return r.startedAt }
func (r *GameRecord) FinishedAt() time.Time { return r.finishedAt }
func (r *GameRecord) Finalized() bool       { return r.finalized }

// Moves returns a copy of the move encodings in play order.
func (r *GameRecord) Moves() []string {
	moves := make([]string, len(r.moves))
	copy(moves, r.moves)
	return moves
}

// Plies returns the number of recorded half-moves.
func (r *GameRecord) Plies() int { return len(r.moves) }

// Tag returns the value of a PGN-style tag.
func (r *GameRecord) Tag(key string) (string, bool) {
	value, ok := r.tags[key]
	return value, ok
}

// Annotations returns a copy of the free-form notes.
func (r *GameRecord) Annotations() []string {
	notes := make([]string, len(r.annotations))
	copy(notes, r.annotations)
	return notes
}

// AddMove appends one move encoding. Finalized records reject it.
func (r *GameRecord) AddMove(uci string) error {
	if r.finalized {
		log.Warn().Str("record", r.id).Str("move", uci).Msg("move added after finalization, dropped")
		return fmt.Errorf("record %s is finalized", r.id)
	}
	r.moves = append(r.moves, uci)
	return nil
}

// Annotate appends a free-form note.
func (r *GameRecord) Annotate(note string) error {
	if r.finalized {
		return fmt.Errorf("record %s is finalized", r.id)
	}
	r.annotations = append(r.annotations, note)
	return nil
}

// SetTag sets a PGN-style tag.
func (r *GameRecord) SetTag(key, value string) error {
	if r.finalized {
		return fmt.Errorf("record %s is finalized", r.id)
	}
	r.tags[key] = value
	return nil
}

// Finalize seals the record with its result and termination reason.
// Exactly once; further calls fail and change nothing.
func (r *GameRecord) Finalize(result game.Result, termination string) error {
	if r.finalized {
		return fmt.Errorf("record %s is already finalized", r.id)
	}
	r.result = result
	r.termination = termination
	r.finishedAt = time.Now().UTC()
	r.finalized = true
	return nil
}

// Winner returns the name of the winning agent, or "" on a draw or an
// unfinished game.
func (r *GameRecord) Winner() string {
	switch r.result {
	case game.WhiteWin:
		return r.white
	case game.BlackWin:
		return r.black
	}
	return ""
}

// PGN renders the record as move text with numbered moves and a result
// tag, headed by a seven-tag-roster subset. Moves keep the coordinate
// encodings they were recorded with.
func (r *GameRecord) PGN() string {
	var b strings.Builder
	writeTag := func(key, value string) {
		fmt.Fprintf(&b, "[%s %q]\n", key, value)
	}
	event, ok := r.tags["Event"]
	if !ok {
		event = "chesslab game"
	}
	writeTag("Event", event)
	writeTag("White", r.white)
	writeTag("Black", r.black)
	writeTag("Result", r.result.Tag())
	if r.initialFEN != game.StartFEN {
		writeTag("SetUp", "1")
		writeTag("FEN", r.initialFEN)
	}
	if r.termination != "" {
		writeTag("Termination", r.termination)
	}
	b.WriteString("\n")

	for i, move := range r.moves {
		if i%2 == 0 {
			fmt.Fprintf(&b, "%d. ", i/2+1)
		}
		b.WriteString(move)
		b.WriteString(" ")
	}
	b.WriteString(r.result.Tag())
	b.WriteString("\n")
	return b.String()
}

// Dict is the serialized form of a GameRecord. Timestamps are RFC 3339;
// the round-trip through FromDict is exact.
type Dict struct {
	ID          string            `json:"id"`
	White       string            `json:"white"`
	Black       string            `json:"black"`
	InitialFEN  string            `json:"initial_fen"`
	Moves       []string          `json:"moves"`
	Result      string            `json:"result"`
	Termination string            `json:"termination"`
	StartedAt   string            `json:"started_at"`
	FinishedAt  string            `json:"finished_at,omitempty"`
	Finalized   bool              `json:"finalized"`
	Tags        map[string]string `json:"tags,omitempty"`
	Annotations []string          `json:"annotations,omitempty"`
}

// ToDict returns the serializable snapshot of r.
func (r *GameRecord) ToDict() Dict {
	d := Dict{
		ID:          r.id,
		White:       r.white,
		Black:       r.black,
		InitialFEN:  r.initialFEN,
		Moves:       r.Moves(),
		Result:      r.result.String(),
		Termination: r.termination,
		StartedAt:   r.startedAt.Format(time.RFC3339Nano),
		Finalized:   r.finalized,
		Annotations: r.Annotations(),
	}
	if !r.finishedAt.IsZero() {
		d.FinishedAt = r.finishedAt.Format(time.RFC3339Nano)
	}
	if len(r.tags) > 0 {
		d.Tags = make(map[string]string, len(r.tags))
		for k, v := range r.tags {
			d.Tags[k] = v
		}
	}
	return d
}

// FromDict rebuilds a record from its serialized form.
func FromDict(d Dict) (*GameRecord, error) {
	result, err := game.ParseResult(d.Result)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", d.ID, err)
	}
	startedAt, err := time.Parse(time.RFC3339Nano, d.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("record %s: invalid started_at: %w", d.ID, err)
	}
	var finishedAt time.Time
	if d.FinishedAt != "" {
		finishedAt, err = time.Parse(time.RFC3339Nano, d.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("record %s: invalid finished_at: %w", d.ID, err)
		}
	}
	initialFEN := d.InitialFEN
	if initialFEN == "" {
		initialFEN = game.StartFEN
	}

	r := &GameRecord{
		id:          d.ID,
		white:       d.White,
		black:       d.Black,
		initialFEN:  initialFEN,
		moves:       append([]string(nil), d.Moves...),
		result:      result,
		termination: d.Termination,
		startedAt:   startedAt,
		finishedAt:  finishedAt,
		finalized:   d.Finalized,
		tags:        map[string]string{},
		annotations: append([]string(nil), d.Annotations...),
	}
	for k, v := range d.Tags {
		r.tags[k] = v
	}
	return r, nil
}
