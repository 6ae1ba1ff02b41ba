package winprob

import (
	"fmt"
	"sort"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

// Tactic is one of the fixed in-game decisions the evaluator knows about.
type Tactic int

const (
	SacrificeBunt Tactic = iota
	Steal2B
	Steal3B
	IntentionalWalk
	PitchingChange
	PinchHitter
	HitAndRun
	SqueezePlay
)

// TacticDefinition is the static record for a tactic: names, empirical
// success rate where one applies, and when it is allowed.
type TacticDefinition struct {
	Key               string
	Name              string
	NameJA            string
	SuccessRate       float64 // 0 when the tactic is not RE-based
	RequiresFirst     bool
	RequiresSecond    bool
	RequiresThird     bool
	RequiresOpenFirst bool
	MaxOuts           int // -1 for no limit
}

// Tactics lists every tactic in evaluation order.
var Tactics = [...]TacticDefinition{
	SacrificeBunt:   {Key: "sacrifice_bunt", Name: "Sacrifice Bunt", NameJA: "送りバント", SuccessRate: 0.80, RequiresFirst: true, MaxOuts: 1},
	Steal2B:         {Key: "steal_2b", Name: "Steal 2nd Base", NameJA: "盗塁（二塁）", SuccessRate: 0.72, RequiresFirst: true, MaxOuts: -1},
	Steal3B:         {Key: "steal_3b", Name: "Steal 3rd Base", NameJA: "盗塁（三塁）", SuccessRate: 0.65, RequiresSecond: true, MaxOuts: -1},
	IntentionalWalk: {Key: "intentional_walk", Name: "Intentional Walk", NameJA: "敬遠", RequiresOpenFirst: true, MaxOuts: -1},
	PitchingChange:  {Key: "pitching_change", Name: "Pitching Change", NameJA: "継投", MaxOuts: -1},
	PinchHitter:     {Key: "pinch_hitter", Name: "Pinch Hitter", NameJA: "代打", MaxOuts: -1},
	HitAndRun:       {Key: "hit_and_run", Name: "Hit and Run", NameJA: "エンドラン", SuccessRate: 0.55, RequiresFirst: true, MaxOuts: -1},
	SqueezePlay:     {Key: "squeeze_play", Name: "Squeeze Play", NameJA: "スクイズ", SuccessRate: 0.60, RequiresThird: true, MaxOuts: 1},
}

func (t Tactic) Definition() TacticDefinition { return Tactics[t] }

func (t Tactic) String() string { return Tactics[t].Name }

// Applicable checks the tactic's occupancy and outs requirements.
func (d TacticDefinition) Applicable(r baseball.Runners, outs int) bool {
	switch {
	case d.RequiresFirst && !r.First,
		d.RequiresSecond && !r.Second,
		d.RequiresThird && !r.Third,
		d.RequiresOpenFirst && r.First,
		d.MaxOuts >= 0 && outs > d.MaxOuts:
		return false
	}
	return true
}

// Recommendation classes, in display order.
const (
	Recommended    = "Recommended"
	Consider       = "Consider"
	Neutral        = "Neutral"
	NotRecommended = "Not recommended"
)

var recommendationRank = map[string]int{
	Recommended:    0,
	Consider:       1,
	Neutral:        2,
	NotRecommended: 3,
}

// deltaThreshold is the RE24 change (runs) needed to move off Neutral.
const deltaThreshold = 0.02

// highLeverageLI is the LI at which personnel moves are worth surfacing.
const highLeverageLI = 1.5

// Recommendation is the evaluator's verdict on one applicable tactic.
type Recommendation struct {
	Tactic         string   `json:"tactic"`
	TacticJA       string   `json:"tactic_ja"`
	RE24Delta      float64  `json:"re24_delta"`
	Recommendation string   `json:"recommendation"`
	SuccessRate    *float64 `json:"success_rate,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}

// Recommendations evaluates every applicable tactic for gs and returns them
// ordered by class (Recommended, Consider, Neutral, Not recommended), then by
// descending RE24 delta. Inapplicable tactics are left out.
func Recommendations(gs baseball.GameState) []Recommendation {
	e := evaluator{gs: gs, rpg: gs.RPG()}
	e.current = e.re(gs.Runners, gs.Outs)

	recs := make([]Recommendation, 0, len(Tactics))
	for t := range Tactics {
		if rec, ok := e.evaluate(Tactic(t)); ok {
			recs = append(recs, rec)
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := recommendationRank[recs[i].Recommendation], recommendationRank[recs[j].Recommendation]
		if ri != rj {
			return ri < rj
		}
		return recs[i].RE24Delta > recs[j].RE24Delta
	})
	return recs
}

type evaluator struct {
	gs      baseball.GameState
	rpg     float64
	current float64

	li     float64
	liDone bool
}

func (e *evaluator) re(r baseball.Runners, outs int) float64 {
	return ExpectedRuns(r, outs, e.rpg)
}

func (e *evaluator) leverage() float64 {
	if !e.liDone {
		e.li = Leverage(e.gs)
		e.liDone = true
	}
	return e.li
}

// gamble is the expected RE of a tactic that works with probability p.
func gamble(p, success, failure float64) float64 {
	return p*success + (1-p)*failure
}

func (e *evaluator) evaluate(t Tactic) (Recommendation, bool) {
	def := t.Definition()
	r, outs := e.gs.Runners, e.gs.Outs
	if !def.Applicable(r, outs) {
		return Recommendation{}, false
	}

	var delta float64
	switch t {
	case SacrificeBunt:
		// success: lead runner from first reaches second, third ends up
		// occupied if anyone stood on second or third, a runner on third scores
		adv := baseball.Runners{Second: true, Third: r.Third || r.Second}
		success := e.re(adv, outs+1) + float64(b2i(r.Third))
		failure := e.re(r, outs+1)
		delta = gamble(def.SuccessRate, success, failure) - e.current

	case Steal2B:
		success := e.re(baseball.Runners{Second: true, Third: r.Third}, outs)
		failure := e.re(baseball.Runners{Second: r.Second, Third: r.Third}, outs+1)
		delta = gamble(def.SuccessRate, success, failure) - e.current

	case Steal3B:
		success := e.re(baseball.Runners{First: r.First, Third: true}, outs)
		failure := e.re(baseball.Runners{First: r.First, Third: r.Third}, outs+1)
		delta = gamble(def.SuccessRate, success, failure) - e.current

	case IntentionalWalk:
		// judged from the defense's side: a positive delta favours the walk
		after := e.re(baseball.Runners{First: true, Second: r.Second, Third: r.Third}, outs)
		delta = -(after - e.current)

	case HitAndRun:
		// success: single with the runner from first going first-to-third
		success := e.re(baseball.Runners{First: true, Third: true}, outs) + float64(b2i(r.Third))
		failure := e.re(baseball.Runners{Second: r.Second, Third: r.Third}, outs+1)
		delta = gamble(def.SuccessRate, success, failure) - e.current

	case SqueezePlay:
		success := e.re(baseball.Runners{Second: r.Second}, outs+1) + 1
		failure := e.re(baseball.Runners{First: r.First, Second: r.Second}, outs+1)
		delta = gamble(def.SuccessRate, success, failure) - e.current

	case PitchingChange, PinchHitter:
		li := e.leverage()
		if li < highLeverageLI {
			return Recommendation{}, false
		}
		return Recommendation{
			Tactic:         def.Name,
			TacticJA:       def.NameJA,
			RE24Delta:      0,
			Recommendation: Consider,
			Reason:         fmt.Sprintf("High leverage situation (LI=%.1f)", li),
		}, true

	default:
		return Recommendation{}, false
	}

	rate := def.SuccessRate
	rec := Recommendation{
		Tactic:         def.Name,
		TacticJA:       def.NameJA,
		RE24Delta:      round(delta, 3),
		Recommendation: classify(delta),
	}
	if rate > 0 {
		rec.SuccessRate = &rate
	}
	return rec, true
}

func classify(delta float64) string {
	switch {
	case delta > deltaThreshold:
		return Recommended
	case delta < -deltaThreshold:
		return NotRecommended
	default:
		return Neutral
	}
}
