package winprob

import (
	"fmt"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

// Outcome is a plate-appearance result the transition function understands.
type Outcome int

const (
	Strikeout Outcome = iota
	Groundout
	Flyout
	Single
	Walk
	Double
	HomeRun
	DoublePlay
	OtherOut
)

var outcomeNames = [...]string{
	Strikeout:  "strikeout",
	Groundout:  "groundout",
	Flyout:     "flyout",
	Single:     "single",
	Walk:       "walk",
	Double:     "double",
	HomeRun:    "home_run",
	DoublePlay: "double_play",
	OtherOut:   "other_out",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// ParseOutcome maps a snake_case name back to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	for i, name := range outcomeNames {
		if name == s {
			return Outcome(i), nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// Apply advances a base-out state by one plate appearance and returns the
// new occupancy, new outs (capped at 3) and runs scored. Every outcome has a
// single deterministic advancement rule.
func Apply(r baseball.Runners, outs int, o Outcome) (baseball.Runners, int, int) {
	switch o {
	case Strikeout, OtherOut:
		return r, addOuts(outs, 1), 0

	case Groundout:
		// batter out, runner on first removed as the assumed force
		r.First = false
		return r, addOuts(outs, 1), 0

	case Flyout:
		if r.Third && outs < 2 {
			r.Third = false
			return r, addOuts(outs, 1), 1
		}
		return r, addOuts(outs, 1), 0

	case Single:
		runs := b2i(r.Third)
		return baseball.Runners{First: true, Second: r.First, Third: r.Second}, outs, runs

	case Walk:
		switch {
		case r.First && r.Second && r.Third:
			return baseball.BasesLoaded, outs, 1
		case r.First && r.Second:
			return baseball.BasesLoaded, outs, 0
		case r.First:
			return baseball.Runners{First: true, Second: true, Third: r.Third}, outs, 0
		default:
			r.First = true
			return r, outs, 0
		}

	case Double:
		runs := b2i(r.Second) + b2i(r.Third)
		return baseball.Runners{Second: true, Third: r.First}, outs, runs

	case HomeRun:
		return baseball.Empty, outs, 1 + r.Count()

	case DoublePlay:
		if r.First && outs < 2 {
			r.First = false
			return r, addOuts(outs, 2), 0
		}
		return r, addOuts(outs, 1), 0
	}
	return r, outs, 0
}

func addOuts(outs, n int) int {
	return min(outs+n, 3)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
