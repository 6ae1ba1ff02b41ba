package winprob

import (
	"testing"

	"github.com/matryer/is"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

func TestApply(t *testing.T) {
	is := is.New(t)
	r := baseball.RunnersFromInts

	type tc struct {
		name     string
		runners  baseball.Runners
		outs     int
		outcome  Outcome
		wantR    baseball.Runners
		wantOuts int
		wantRuns int
	}
	cases := []tc{
		{"strikeout keeps runners", r(1, 0, 1), 0, Strikeout, r(1, 0, 1), 1, 0},
		{"other out", r(0, 1, 0), 1, OtherOut, r(0, 1, 0), 2, 0},
		{"groundout clears first", r(1, 1, 0), 0, Groundout, r(0, 1, 0), 1, 0},
		{"sac fly", r(0, 0, 1), 1, Flyout, r(0, 0, 0), 2, 1},
		{"flyout with two outs", r(0, 0, 1), 2, Flyout, r(0, 0, 1), 3, 0},
		{"single scores third", r(1, 1, 1), 0, Single, r(1, 1, 1), 0, 1},
		{"single moves everyone one base", r(1, 0, 0), 1, Single, r(1, 1, 0), 1, 0},
		{"walk empty", r(0, 0, 0), 0, Walk, r(1, 0, 0), 0, 0},
		{"walk not forced", r(0, 1, 1), 0, Walk, r(1, 1, 1), 0, 0},
		{"walk forces first", r(1, 0, 1), 0, Walk, r(1, 1, 1), 0, 0},
		{"walk forces two", r(1, 1, 0), 2, Walk, r(1, 1, 1), 2, 0},
		{"walk loaded", r(1, 1, 1), 2, Walk, r(1, 1, 1), 2, 1},
		{"double", r(1, 1, 1), 1, Double, r(0, 1, 1), 1, 2},
		{"double empty", r(0, 0, 0), 0, Double, r(0, 1, 0), 0, 0},
		{"grand slam", r(1, 1, 1), 2, HomeRun, r(0, 0, 0), 2, 4},
		{"solo", r(0, 0, 0), 0, HomeRun, r(0, 0, 0), 0, 1},
		{"double play", r(1, 0, 1), 0, DoublePlay, r(0, 0, 1), 2, 0},
		{"double play ends inning", r(1, 0, 0), 1, DoublePlay, r(0, 0, 0), 3, 0},
		{"no double play with two outs", r(1, 0, 0), 2, DoublePlay, r(1, 0, 0), 3, 0},
		{"no double play without force", r(0, 1, 0), 0, DoublePlay, r(0, 1, 0), 1, 0},
	}
	for _, c := range cases {
		gotR, gotOuts, gotRuns := Apply(c.runners, c.outs, c.outcome)
		is.Equal(gotR, c.wantR)       // runners
		is.Equal(gotOuts, c.wantOuts) // outs
		is.Equal(gotRuns, c.wantRuns) // runs
	}
}

func TestApplyCapsOuts(t *testing.T) {
	is := is.New(t)
	for i := 0; i < 8; i++ {
		for outs := 0; outs < 3; outs++ {
			for o := Strikeout; o <= OtherOut; o++ {
				_, n, runs := Apply(baseball.RunnersFromIndex(i), outs, o)
				is.True(n <= 3)
				is.True(n >= outs)
				is.True(runs >= 0 && runs <= 4)
			}
		}
	}
}

func TestParseOutcome(t *testing.T) {
	is := is.New(t)
	for o := Strikeout; o <= OtherOut; o++ {
		back, err := ParseOutcome(o.String())
		is.NoErr(err)
		is.Equal(back, o)
	}
	_, err := ParseOutcome("triple")
	is.True(err != nil)
}
