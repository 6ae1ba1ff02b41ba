package baseball

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultRunsPerGame is the MLB scoring environment (runs per team per game)
// the reference run-expectancy table was measured in.
const DefaultRunsPerGame = 4.5

// NPBRunsPerGame is the usual NPB scoring environment.
const NPBRunsPerGame = 4.0

// Half is the half of an inning. The visitor bats in the top, home in the bottom.
type Half string

const (
	Top    Half = "top"
	Bottom Half = "bottom"
)

// ParseHalf accepts "top"/"bottom" in any case.
func ParseHalf(s string) (Half, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top", "t":
		return Top, nil
	case "bottom", "bot", "b":
		return Bottom, nil
	}
	return "", fmt.Errorf("invalid half %q: want top or bottom", s)
}

func (h Half) Valid() bool { return h == Top || h == Bottom }

// Runners holds base occupancy for first, second and third.
type Runners struct {
	First  bool
	Second bool
	Third  bool
}

// RunnersFromInts builds Runners from 0/1 flags. Any non-zero value is occupied.
func RunnersFromInts(r1, r2, r3 int) Runners {
	return Runners{First: r1 != 0, Second: r2 != 0, Third: r3 != 0}
}

var (
	Empty       = Runners{}
	BasesLoaded = Runners{First: true, Second: true, Third: true}
)

// Index packs occupancy as r1<<2 | r2<<1 | r3, so iterating 0..7 walks the
// patterns in (first, second, third) lexicographic order.
func (r Runners) Index() int {
	return b2i(r.First)<<2 | b2i(r.Second)<<1 | b2i(r.Third)
}

// RunnersFromIndex is the inverse of Index.
func RunnersFromIndex(i int) Runners {
	return Runners{First: i&4 != 0, Second: i&2 != 0, Third: i&1 != 0}
}

// Ints returns the occupancy as 0/1 flags.
func (r Runners) Ints() (int, int, int) {
	return b2i(r.First), b2i(r.Second), b2i(r.Third)
}

func (r Runners) Count() int {
	return b2i(r.First) + b2i(r.Second) + b2i(r.Third)
}

// Label renders occupancy the way box scores do: "1-3", "-23", "---".
func (r Runners) Label() string {
	b := []byte("---")
	if r.First {
		b[0] = '1'
	}
	if r.Second {
		b[1] = '2'
	}
	if r.Third {
		b[2] = '3'
	}
	return string(b)
}

func (r Runners) String() string { return r.Label() }

type runnersJSON struct {
	First  int `json:"1B"`
	Second int `json:"2B"`
	Third  int `json:"3B"`
}

// MarshalJSON writes {"1B":0|1,"2B":0|1,"3B":0|1}.
func (r Runners) MarshalJSON() ([]byte, error) {
	r1, r2, r3 := r.Ints()
	return json.Marshal(runnersJSON{First: r1, Second: r2, Third: r3})
}

func (r *Runners) UnmarshalJSON(data []byte) error {
	var v runnersJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("runners: %w", err)
	}
	*r = RunnersFromInts(v.First, v.Second, v.Third)
	return nil
}

// BaseOutState is a table key: occupancy plus outs. Outs of 3 only appears
// transiently as the output of a transition and means the half is over.
type BaseOutState struct {
	Runners Runners
	Outs    int
}

// GameState is the full discrete situation the models consume.
// It is a value type; helpers return modified copies.
type GameState struct {
	Inning      int     `json:"inning"`
	Half        Half    `json:"top_bottom"`
	Outs        int     `json:"outs"`
	Runners     Runners `json:"runners"`
	ScoreDiff   int     `json:"score_diff"` // home - away
	RunsPerGame float64 `json:"runs_per_game"`
}

// NewGameState builds a GameState. A non-positive rpg falls back to
// DefaultRunsPerGame.
func NewGameState(inning int, half Half, outs int, runners Runners, scoreDiff int, rpg float64) GameState {
	if rpg <= 0 {
		rpg = DefaultRunsPerGame
	}
	return GameState{
		Inning:      inning,
		Half:        half,
		Outs:        outs,
		Runners:     runners,
		ScoreDiff:   scoreDiff,
		RunsPerGame: rpg,
	}
}

// RPG returns the scoring environment, defaulting a zero value.
func (g GameState) RPG() float64 {
	if g.RunsPerGame <= 0 {
		return DefaultRunsPerGame
	}
	return g.RunsPerGame
}

func (g GameState) BaseOut() BaseOutState {
	return BaseOutState{Runners: g.Runners, Outs: g.Outs}
}

// HomeBatting reports whether the home team is at the plate.
func (g GameState) HomeBatting() bool { return g.Half == Bottom }

// WithBaseOut returns a copy with new occupancy and outs.
func (g GameState) WithBaseOut(r Runners, outs int) GameState {
	g.Runners = r
	g.Outs = outs
	return g
}

// WithRPG returns a copy in a different scoring environment.
func (g GameState) WithRPG(rpg float64) GameState {
	if rpg <= 0 {
		rpg = DefaultRunsPerGame
	}
	g.RunsPerGame = rpg
	return g
}

// ScoreRuns credits runs to the batting side and returns the new state.
func (g GameState) ScoreRuns(runs int) GameState {
	if g.HomeBatting() {
		g.ScoreDiff += runs
	} else {
		g.ScoreDiff -= runs
	}
	return g
}

// NextHalf returns the first plate appearance of the following half-inning:
// no outs, bases empty.
func (g GameState) NextHalf() GameState {
	if g.Half == Top {
		g.Half = Bottom
	} else {
		g.Half = Top
		g.Inning++
	}
	g.Outs = 0
	g.Runners = Empty
	return g
}

// String is a compact scoreboard line, e.g. "B9 2out 123 diff=0".
func (g GameState) String() string {
	h := "T"
	if g.Half == Bottom {
		h = "B"
	}
	return fmt.Sprintf("%s%d %dout %s diff=%+d", h, g.Inning, g.Outs, g.Runners.Label(), g.ScoreDiff)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
