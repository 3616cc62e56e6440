package record

import (
	"encoding/json"

	"chesslab/game"
)

// Batch is an ordered collection of game records with derived filter
// views and aggregate statistics.
type Batch struct {
	records []*GameRecord
}

// NewBatch collects the given records, in order.
func NewBatch(records ...*GameRecord) *Batch {
	b := &Batch{}
	b.Extend(records)
	return b
}

// Add appends one record.
func (b *Batch) Add(r *GameRecord) {
	b.records = append(b.records, r)
}

// Extend appends records in order.
func (b *Batch) Extend(records []*GameRecord) {
	b.records = append(b.records, records...)
}

// Len returns the number of records.
func (b *Batch) Len() int { return len(b.records) }

// At returns the i-th record.
func (b *Batch) At(i int) *GameRecord { return b.records[i] }

// Records returns a copy of the record list; the records themselves are
// shared.
func (b *Batch) Records() []*GameRecord {
	records := make([]*GameRecord, len(b.records))
	copy(records, b.records)
	return records
}

// FilterByResult views the records with the given result.
func (b *Batch) FilterByResult(result game.Result) *Batch {
	filtered := &Batch{}
	for _, r := range b.records {
		if r.Result() == result {
			filtered.Add(r)
		}
	}
	return filtered
}

// FilterByAgent views the records in which the named agent played either
// side.
func (b *Batch) FilterByAgent(name string) *Batch {
	filtered := &Batch{}
	for _, r := range b.records {
		if r.White() == name || r.Black() == name {
			filtered.Add(r)
		}
	}
	return filtered
}

// FilterByTermination views the records that ended for the given reason.
func (b *Batch) FilterByTermination(reason string) *Batch {
	filtered := &Batch{}
	for _, r := range b.records {
		if r.Termination() == reason {
			filtered.Add(r)
		}
	}
	return filtered
}

// Tally counts the named agent's wins, draws and losses across the batch.
// Games the agent did not play are skipped.
func (b *Batch) Tally(name string) (wins, draws, losses int) {
	for _, r := range b.records {
		white := r.White() == name
		black := r.Black() == name
		if !white && !black {
			continue
		}
		switch r.Result() {
		case game.Draw:
			draws++
		case game.WhiteWin:
			if white {
				wins++
			} else {
				losses++
			}
		case game.BlackWin:
			if black {
				wins++
			} else {
				losses++
			}
		}
	}
	return wins, draws, losses
}

// WinRate is wins / (wins + draws + losses) for the named agent. Draws
// count toward the denominator only. Zero games rate zero.
func (b *Batch) WinRate(name string) float64 {
	wins, draws, losses := b.Tally(name)
	total := wins + draws + losses
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// Score is the chess score of the named agent: one point per win, half
// per draw. Standings and Elo estimation build on it.
func (b *Batch) Score(name string) float64 {
	wins, draws, _ := b.Tally(name)
	return float64(wins) + float64(draws)/2
}

// ToJSON serializes the whole batch.
func (b *Batch) ToJSON() ([]byte, error) {
	dicts := make([]Dict, len(b.records))
	for i, r := range b.records {
		dicts[i] = r.ToDict()
	}
	return json.MarshalIndent(dicts, "", "  ")
}

// BatchFromJSON is the inverse of ToJSON.
func BatchFromJSON(data []byte) (*Batch, error) {
	var dicts []Dict
	if err := json.Unmarshal(data, &dicts); err != nil {
		return nil, err
	}
	batch := &Batch{}
	for _, d := range dicts {
		r, err := FromDict(d)
		if err != nil {
			return nil, err
		}
		batch.Add(r)
	}
	return batch, nil
}
