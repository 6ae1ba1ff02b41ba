package wp_api

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

// ValidationError is a rejected query parameter. It maps to 422.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Reason)
}

// query reads typed, bounded parameters and keeps the first failure so a
// handler can pull everything it needs and check once.
type query struct {
	v   url.Values
	err *ValidationError
}

func newQuery(v url.Values) *query { return &query{v: v} }

func (q *query) fail(param, format string, args ...any) {
	if q.err == nil {
		q.err = &ValidationError{Param: param, Reason: fmt.Sprintf(format, args...)}
	}
}

// Err returns the first validation failure, or nil.
func (q *query) Err() error {
	if q.err == nil {
		return nil
	}
	return q.err
}

func (q *query) intRange(name string, def *int, lo, hi int) int {
	raw := q.v.Get(name)
	if raw == "" {
		if def == nil {
			q.fail(name, "field required")
			return 0
		}
		return *def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(name, "value is not a valid integer")
		return 0
	}
	if n < lo || n > hi {
		q.fail(name, "must be between %d and %d", lo, hi)
		return 0
	}
	return n
}

func (q *query) floatRange(name string, def float64, lo, hi float64) float64 {
	f, ok := q.optFloat(name, lo, hi)
	if !ok {
		return def
	}
	return *f
}

// optFloat returns (nil, false) when the parameter is absent.
func (q *query) optFloat(name string, lo, hi float64) (*float64, bool) {
	raw := q.v.Get(name)
	if raw == "" {
		return nil, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.fail(name, "value is not a valid number")
		return nil, false
	}
	if f < lo || f > hi {
		q.fail(name, "must be between %g and %g", lo, hi)
		return nil, false
	}
	return &f, true
}

func (q *query) half(name string) baseball.Half {
	raw := q.v.Get(name)
	if raw == "" {
		q.fail(name, "field required")
		return ""
	}
	h := baseball.Half(raw)
	if !h.Valid() {
		q.fail(name, "must be 'top' or 'bottom'")
		return ""
	}
	return h
}

func ptr[T any](v T) *T { return &v }

// Parameter bounds.
const (
	minInning    = 1
	maxInning    = 15
	maxScoreDiff = 20
	minRPG       = 2.0
	maxRPG       = 8.0
	maxOPS       = 2.0
	maxERA       = 15.0
)

// gameState reads inning/top_bottom/outs/runnerN/score_diff with the given
// prefix ("" or "before_"/"after_"). maxOuts is 2 for a live state and 3 for
// the end of a play; 3 is clamped to 2 for the model.
func (q *query) gameState(prefix string, maxOuts int, rpg float64) baseball.GameState {
	inning := q.intRange(prefix+"inning", nil, minInning, maxInning)
	half := q.half(prefix + "top_bottom")
	outs := q.intRange(prefix+"outs", nil, 0, maxOuts)
	r1 := q.intRange(prefix+"runner1", ptr(0), 0, 1)
	r2 := q.intRange(prefix+"runner2", ptr(0), 0, 1)
	r3 := q.intRange(prefix+"runner3", ptr(0), 0, 1)
	diff := q.intRange(prefix+"score_diff", ptr(0), -maxScoreDiff, maxScoreDiff)
	return baseball.NewGameState(inning, half, min(outs, 2), baseball.RunnersFromInts(r1, r2, r3), diff, rpg)
}

func (q *query) rpg(def float64) float64 {
	return q.floatRange("runs_per_game", def, minRPG, maxRPG)
}
