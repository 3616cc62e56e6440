package match

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"chesslab/record"
)

// Standing is one agent's line in the final table.
type Standing struct {
	Name   string
	Wins   int
	Draws  int
	Losses int
	Score  float64
	Elo    float64 // relative to the field
	EloMin float64 // p < 0.05 lower bound
	EloMax float64 // p < 0.05 upper bound
}

// Games returns the number of games the agent finished.
func (s Standing) Games() int { return s.Wins + s.Draws + s.Losses }

// Standings aggregates a batch into per-agent results ordered by score.
type Standings struct {
	entries []Standing
}

// NewStandings tallies every agent appearing in the batch. Ordering is by
// score descending, ties kept in order of first appearance.
func NewStandings(batch *record.Batch) *Standings {
	var names []string
	seen := map[string]bool{}
	for _, r := range batch.Records() {
		for _, name := range []string{r.White(), r.Black()} {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	entries := make([]Standing, len(names))
	for i, name := range names {
		wins, draws, losses := batch.Tally(name)
		eloMin, elo, eloMax := Elo(wins, draws, losses)
		entries[i] = Standing{
			Name:   name,
			Wins:   wins,
			Draws:  draws,
			Losses: losses,
			Score:  batch.Score(name),
			Elo:    elo,
			EloMin: eloMin,
			EloMax: eloMax,
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	return &Standings{entries: entries}
}

// Entries returns the table rows, best first.
func (s *Standings) Entries() []Standing {
	entries := make([]Standing, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// String renders a crosstable-style report.
func (s *Standings) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-24s %7s %5s %5s %5s %8s %16s\n",
		"#", "agent", "score", "W", "D", "L", "elo", "95% interval")
	for i, e := range s.entries {
		fmt.Fprintf(&b, "%-4d %-24s %7.1f %5d %5d %5d %8.1f [%6.1f, %6.1f]\n",
			i+1, e.Name, e.Score, e.Wins, e.Draws, e.Losses, e.Elo, e.EloMin, e.EloMax)
	}
	return b.String()
}

// Elo estimates an agent's rating difference against its opposition from
// a win/draw/loss tally, with a p < 0.05 confidence interval from the
// normal approximation. All-win and all-loss tallies clamp to zero bounds
// because the logistic map diverges there.
func Elo(wins, draws, losses int) (muMin, mu, muMax float64) {
	n := float64(wins + draws + losses)
	if n == 0 {
		return 0, 0, 0
	}

	w := float64(wins) / n
	d := float64(draws) / n
	l := float64(losses) / n

	mean := w + d/2
	sigma := math.Sqrt(w*math.Pow(1-mean, 2)+d*math.Pow(0.5-mean, 2)+l*math.Pow(0-mean, 2)) / math.Sqrt(n)

	lower := mean + phiInv(0.025)*sigma
	upper := mean + phiInv(0.975)*sigma
	return logisticElo(lower), logisticElo(mean), logisticElo(upper)
}

// logisticElo maps a mean score in (0, 1) to an Elo difference.
func logisticElo(score float64) float64 {
	if score <= 0 || score >= 1 {
		return 0
	}
	return -400 * math.Log10(1/score-1)
}

func phiInv(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}
