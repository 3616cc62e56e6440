package searcher

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"chesslab/game"
	"chesslab/uci"
)

// ErrEngineSearch reports a malformed or missing reply from the external
// engine; the process is still alive.
var ErrEngineSearch = errors.New("searcher: external engine search failed")

// ErrEngineCommunication reports a dead engine process. The adapter
// cannot recover; the caller must build a fresh one.
var ErrEngineCommunication = errors.New("searcher: external engine communication failed")

// External delegates searching to a UCI engine process that it owns.
// Exactly one request is in flight at a time and the adapter must not be
// shared across concurrently running games: give each game its own.
type External struct {
	mu       sync.Mutex
	client   *uci.Client
	moveTime time.Duration
	depth    int
}

// NewExternal launches the configured engine and negotiates its options.
// WithDuration sets the per-move search time, WithDepth a fixed search
// depth instead; neither defaults to DefaultEngineMoveTime per move.
func NewExternal(cfg uci.Config, options ...Option) (*External, error) {
	c := defaultConfig()
	for _, option := range options {
		option(&c)
	}
	if c.depth < 0 {
		return nil, fmt.Errorf("external: depth must be positive, got %d", c.depth)
	}
	if c.duration < 0 {
		return nil, fmt.Errorf("external: duration must be positive, got %v", c.duration)
	}
	if c.depth == 0 && c.duration == 0 {
		c.duration = DefaultEngineMoveTime
	}

	client, err := uci.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &External{client: client, moveTime: c.duration, depth: c.depth}, nil
}

// Search sends the position and budget to the engine and blocks for its
// bestmove reply.
func (e *External) Search(state game.State) (Result, error) {
	if state.IsTerminal() {
		return Result{}, ErrTerminalState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	infos, bestLine, err := e.roundTrip(state, e.depth, e.moveTime)
	if err != nil {
		return Result{}, err
	}

	move, err := parseBestMove(bestLine)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEngineSearch, err)
	}
	result := Result{Move: move, Elapsed: time.Since(start)}
	if last, ok := lastInfo(infos, 1); ok {
		result.Value = last.pawns()
		result.Depth = last.depth
		result.Nodes = last.nodes
		result.PV = last.pv
	}
	return result, nil
}

// Evaluate asks the engine to analyse the position and maps its score
// onto pawn units, sign relative to the side to move. Mate-in-N maps to
// the bounded sentinel MateValue - N.
func (e *External) Evaluate(state game.State) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	depth := e.depth
	if depth == 0 {
		depth = DefaultEngineEvalDepth
	}
	infos, _, err := e.roundTrip(state, depth, 0)
	if err != nil {
		return 0, err
	}
	last, ok := lastInfo(infos, 1)
	if !ok {
		return 0, fmt.Errorf("%w: no score in engine output", ErrEngineSearch)
	}
	return last.pawns(), nil
}

// TopMoves asks for the n best continuations via MultiPV, restoring
// single-line output afterwards.
func (e *External) TopMoves(state game.State, n int) ([]Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("external: top moves count must be positive, got %d", n)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetOption("MultiPV", strconv.Itoa(n)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineCommunication, err)
	}
	infos, _, err := e.roundTrip(state, e.depth, e.moveTime)
	restoreErr := e.client.SetOption("MultiPV", "1")
	if err != nil {
		return nil, err
	}
	if restoreErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineCommunication, restoreErr)
	}

	var results []Result
	for rank := 1; rank <= n; rank++ {
		last, ok := lastInfo(infos, rank)
		if !ok || len(last.pv) == 0 {
			break
		}
		results = append(results, Result{
			Move:  last.pv[0],
			Value: last.pawns(),
			Depth: last.depth,
			Nodes: last.nodes,
			PV:    last.pv,
		})
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no principal variations in engine output", ErrEngineSearch)
	}
	return results, nil
}

// SetSkillLevel renegotiates the engine's strength, clamped to 0-20.
func (e *External) SetSkillLevel(level int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if level < 0 {
		level = 0
	}
	if level > 20 {
		level = 20
	}
	if err := e.client.SetOption("Skill Level", strconv.Itoa(level)); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineCommunication, err)
	}
	return nil
}

// Close releases the engine process.
func (e *External) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}

// roundTrip performs one position + go exchange. depth > 0 wins over the
// time budget; moveTime 0 with depth 0 falls back to DefaultEngineMoveTime.
func (e *External) roundTrip(state game.State, depth int, moveTime time.Duration) ([]engineInfo, string, error) {
	if err := e.client.Write("%s", positionCommand(state)); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrEngineCommunication, err)
	}
	if err := e.client.Synchronize(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrEngineCommunication, err)
	}

	budget := moveTime
	switch {
	case depth > 0:
		budget = DefaultEngineReadBudget
		if err := e.client.Write("go depth %d", depth); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrEngineCommunication, err)
		}
	default:
		if budget == 0 {
			budget = DefaultEngineMoveTime
		}
		if err := e.client.Write("go movetime %d", budget.Milliseconds()); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrEngineCommunication, err)
		}
	}

	lines, bestLine, err := e.client.Collect("^bestmove", budget+DefaultEngineReadBudget)
	if err != nil {
		if errors.Is(err, uci.ErrReadTimeout) {
			return nil, "", fmt.Errorf("%w: %v", ErrEngineSearch, err)
		}
		return nil, "", fmt.Errorf("%w: %v", ErrEngineCommunication, err)
	}

	var infos []engineInfo
	for _, line := range lines {
		if info, ok := parseInfo(line); ok {
			infos = append(infos, info)
		}
	}
	return infos, bestLine, nil
}

// positionCommand encodes the state as a position command anchored at the
// game's starting encoding, so the engine sees the move history. A history
// that does not span from the start encoding to this position (a state
// restored from its dict form carries one) falls back to the bare FEN.
func positionCommand(state game.State) string {
	history := state.MoveHistory()
	if len(history) == 0 || fenPly(state.StartFEN())+len(history) != fenPly(state.FEN()) {
		return fmt.Sprintf("position fen %s", state.FEN())
	}
	ucis := make([]string, len(history))
	for i, move := range history {
		ucis[i] = move.UCI()
	}
	return fmt.Sprintf("position fen %s moves %s", state.StartFEN(), strings.Join(ucis, " "))
}

// fenPly derives the half-move count of an encoding from its fullmove
// number and side to move.
func fenPly(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 0
	}
	full, err := strconv.Atoi(fields[5])
	if err != nil || full < 1 {
		return 0
	}
	ply := (full - 1) * 2
	if fields[1] == "b" {
		ply++
	}
	return ply
}

// engineInfo is one parsed info line.
type engineInfo struct {
	depth   int
	multipv int // 1 when absent
	nodes   int64
	cp      int
	mate    int
	hasCP   bool
	hasMate bool
	pv      []game.Move
}

// pawns converts the engine score to pawn units on the evaluator scale.
func (i engineInfo) pawns() float64 {
	if i.hasMate {
		if i.mate >= 0 {
			return game.MateValue - float64(i.mate)
		}
		return -(game.MateValue + float64(i.mate))
	}
	return float64(i.cp) / 100
}

// parseInfo extracts depth, multipv, nodes, score and pv from an info
// line; ok is false for anything that is not a scored info line.
func parseInfo(line string) (engineInfo, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return engineInfo{}, false
	}
	info := engineInfo{multipv: 1}
	scored := false
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				info.depth, _ = strconv.Atoi(fields[i+1])
				i++
			}
		case "multipv":
			if i+1 < len(fields) {
				info.multipv, _ = strconv.Atoi(fields[i+1])
				i++
			}
		case "nodes":
			if i+1 < len(fields) {
				info.nodes, _ = strconv.ParseInt(fields[i+1], 10, 64)
				i++
			}
		case "score":
			if i+2 < len(fields) {
				value, err := strconv.Atoi(fields[i+2])
				if err == nil {
					switch fields[i+1] {
					case "cp":
						info.cp, info.hasCP = value, true
						scored = true
					case "mate":
						info.mate, info.hasMate = value, true
						scored = true
					}
				}
				i += 2
			}
		case "pv":
			for _, field := range fields[i+1:] {
				move, err := game.ParseMove(field)
				if err != nil {
					break
				}
				info.pv = append(info.pv, move)
			}
			i = len(fields)
		}
	}
	return info, scored
}

// parseBestMove extracts the move from a bestmove reply.
func parseBestMove(line string) (game.Move, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return game.Move{}, fmt.Errorf("malformed bestmove reply %q", line)
	}
	if fields[1] == "(none)" {
		return game.Move{}, fmt.Errorf("engine found no move")
	}
	return game.ParseMove(fields[1])
}

// lastInfo returns the deepest info line for the given multipv rank.
func lastInfo(infos []engineInfo, rank int) (engineInfo, bool) {
	for i := len(infos) - 1; i >= 0; i-- {
		if infos[i].multipv == rank {
			return infos[i], true
		}
	}
	return engineInfo{}, false
}
